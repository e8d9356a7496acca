package api

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type MeasurementHandler struct {
	measurementService service.MeasurementService
}

func NewMeasurementHandler(measurementService service.MeasurementService) *MeasurementHandler {
	return &MeasurementHandler{measurementService: measurementService}
}

// --- DTOs ---

// MeasurementRequest records body measurements. Omitted values were not measured.
type MeasurementRequest struct {
	Date       string   `json:"date" binding:"required"`
	WeightKg   *float64 `json:"weightKg"`
	BodyFatPct *float64 `json:"bodyFatPct"`
	WaistCm    *float64 `json:"waistCm"`
	ChestCm    *float64 `json:"chestCm"`
	HipsCm     *float64 `json:"hipsCm"`
	ArmCm      *float64 `json:"armCm"`
	ThighCm    *float64 `json:"thighCm"`
	Notes      string   `json:"notes"`
}

// PhotoUploadRequest asks for a presigned URL to PUT the photo to.
type PhotoUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// ConfirmPhotoRequest is sent after the object was uploaded.
type ConfirmPhotoRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
	FileName  string `json:"fileName" binding:"required"`
}

type PhotoURLResponse struct {
	URL string `json:"url"`
}

// --- Handler Methods ---

// CreateMeasurement godoc
// @Summary Record body measurements
// @Tags Measurements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param measurement body MeasurementRequest true "Measurement"
// @Success 201 {object} domain.BodyMeasurement
// @Failure 400 {object} gin.H "Invalid measurement"
// @Router /measurements [post]
func (h *MeasurementHandler) CreateMeasurement(c *gin.Context) {
	var req MeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	m, err := h.measurementService.CreateMeasurement(c.Request.Context(), userID, service.MeasurementInput{
		Date:       req.Date,
		WeightKg:   req.WeightKg,
		BodyFatPct: req.BodyFatPct,
		WaistCm:    req.WaistCm,
		ChestCm:    req.ChestCm,
		HipsCm:     req.HipsCm,
		ArmCm:      req.ArmCm,
		ThighCm:    req.ThighCm,
		Notes:      req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// ListMeasurements godoc
// @Summary List body measurements
// @Tags Measurements
// @Produce json
// @Security BearerAuth
// @Param from query string false "First day, YYYY-MM-DD"
// @Param to query string false "Last day, YYYY-MM-DD"
// @Success 200 {array} domain.BodyMeasurement
// @Router /measurements [get]
func (h *MeasurementHandler) ListMeasurements(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	measurements, err := h.measurementService.ListMeasurements(c.Request.Context(), userID, c.Query("from"), c.Query("to"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	if measurements == nil {
		measurements = []domain.BodyMeasurement{}
	}
	c.JSON(http.StatusOK, measurements)
}

// DeleteMeasurement godoc
// @Summary Delete a measurement and its photo
// @Tags Measurements
// @Security BearerAuth
// @Param id path string true "Measurement ID"
// @Success 204
// @Failure 404 {object} gin.H "Measurement not found"
// @Router /measurements/{id} [delete]
func (h *MeasurementHandler) DeleteMeasurement(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	measurementID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.measurementService.DeleteMeasurement(c.Request.Context(), userID, measurementID); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestPhotoUpload godoc
// @Summary Get a presigned URL for uploading a progress photo
// @Description The client PUTs the file to uploadUrl, then confirms with the returned objectKey.
// @Tags Measurements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Measurement ID"
// @Param upload body PhotoUploadRequest true "Photo content type"
// @Success 200 {object} service.UploadURLResponse
// @Failure 400 {object} gin.H "Unsupported content type"
// @Failure 503 {object} gin.H "Photo storage not configured"
// @Router /measurements/{id}/photo [post]
func (h *MeasurementHandler) RequestPhotoUpload(c *gin.Context) {
	var req PhotoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	measurementID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.measurementService.RequestPhotoUpload(c.Request.Context(), userID, measurementID, req.ContentType)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmPhotoUpload godoc
// @Summary Attach an uploaded photo to a measurement
// @Tags Measurements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Measurement ID"
// @Param confirm body ConfirmPhotoRequest true "Uploaded object"
// @Success 201 {object} domain.Photo
// @Failure 400 {object} gin.H "Object key mismatch or not uploaded"
// @Router /measurements/{id}/photo/confirm [post]
func (h *MeasurementHandler) ConfirmPhotoUpload(c *gin.Context) {
	var req ConfirmPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	measurementID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	photo, err := h.measurementService.ConfirmPhotoUpload(c.Request.Context(), userID, measurementID, req.ObjectKey, req.FileName)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, photo)
}

// GetPhotoURL godoc
// @Summary Get a presigned download URL for the measurement's photo
// @Tags Measurements
// @Produce json
// @Security BearerAuth
// @Param id path string true "Measurement ID"
// @Success 200 {object} PhotoURLResponse
// @Failure 404 {object} gin.H "No photo"
// @Router /measurements/{id}/photo [get]
func (h *MeasurementHandler) GetPhotoURL(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	measurementID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	url, err := h.measurementService.GetPhotoURL(c.Request.Context(), userID, measurementID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, PhotoURLResponse{URL: url})
}

func (h *MeasurementHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidMeasurement),
		errors.Is(err, service.ErrUnsupportedPhotoType),
		errors.Is(err, service.ErrPhotoKeyMismatch),
		errors.Is(err, service.ErrPhotoNotUploaded):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrMeasurementNotFound), errors.Is(err, service.ErrPhotoNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPhotoStorageDisabled):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	default:
		log.Errorf("measurement handler: %s", err)
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}

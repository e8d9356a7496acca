package api

import (
	"alcyxob/workout-tracker/internal/calendar"
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/metrics"
	"alcyxob/workout-tracker/internal/notify"
	"alcyxob/workout-tracker/internal/service"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const defaultHeartbeat = 25 * time.Second

// CalendarHandler serves the user's plans and schedule, and streams change
// notifications to open devices.
type CalendarHandler struct {
	calendarService service.CalendarService
	metrics         *metrics.Manager
	sensors         calendar.Sensors
	heartbeat       time.Duration
	shutdown        <-chan struct{}
}

func NewCalendarHandler(
	calendarService service.CalendarService,
	metricsManager *metrics.Manager,
	sensors calendar.Sensors,
	heartbeat time.Duration,
	shutdown <-chan struct{},
) *CalendarHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &CalendarHandler{
		calendarService: calendarService,
		metrics:         metricsManager,
		sensors:         sensors,
		heartbeat:       heartbeat,
		shutdown:        shutdown,
	}
}

// --- DTOs ---

// PlanRequest creates or replaces a plan. ID is optional on create.
type PlanRequest struct {
	ID        string   `json:"id"`
	Name      string   `json:"name" binding:"required"`
	Color     string   `json:"color"`
	Exercises []string `json:"exercises"`
	Duration  *int     `json:"duration" binding:"omitempty,gte=0"`
}

func (r PlanRequest) toDomain() domain.WorkoutPlan {
	return domain.WorkoutPlan{
		ID:        r.ID,
		Name:      r.Name,
		Color:     r.Color,
		Exercises: r.Exercises,
		Duration:  r.Duration,
	}
}

type PlanResponse struct {
	Plan     domain.WorkoutPlan  `json:"plan"`
	Calendar domain.CalendarData `json:"calendar"`
}

// ScheduleRequest drops a plan on a day. Target is a day drop target
// ("day-2024-05-01") or a bare date.
type ScheduleRequest struct {
	PlanID string `json:"planId" binding:"required"`
	Target string `json:"target" binding:"required"`
}

// DayResponse lists the plans scheduled on one day, resolved and in order.
type DayResponse struct {
	Date  string               `json:"date"`
	Plans []domain.WorkoutPlan `json:"plans"`
}

// SensorsResponse carries the drag activation constraints clients should use.
type SensorsResponse struct {
	PointerDistance float64 `json:"pointerDistance"`
	TouchDelayMs    int64   `json:"touchDelayMs"`
	TouchTolerance  float64 `json:"touchTolerance"`
}

// --- Handler Methods ---

// GetCalendar godoc
// @Summary Get the user's calendar
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.CalendarData
// @Router /calendar [get]
func (h *CalendarHandler) GetCalendar(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	cal, err := h.calendarService.GetCalendar(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cal)
}

// ReplaceCalendar godoc
// @Summary Store the whole calendar
// @Description Overwrites plans and schedule. Dangling schedule references are kept.
// @Tags Calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param calendar body domain.CalendarData true "Calendar"
// @Success 200 {object} domain.CalendarData
// @Failure 400 {object} gin.H "Invalid plan or date"
// @Router /calendar [put]
func (h *CalendarHandler) ReplaceCalendar(c *gin.Context) {
	var req domain.CalendarData
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	cal, err := h.calendarService.ReplaceCalendar(c.Request.Context(), userID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cal)
}

// GetDay godoc
// @Summary Get the plans scheduled on a day
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Param date path string true "YYYY-MM-DD"
// @Success 200 {object} DayResponse
// @Failure 400 {object} gin.H "Invalid date"
// @Router /calendar/days/{date} [get]
func (h *CalendarHandler) GetDay(c *gin.Context) {
	date := c.Param("date")
	if !domain.ValidDateKey(date) {
		abortWithError(c, http.StatusBadRequest, service.ErrInvalidDate.Error())
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	cal, err := h.calendarService.GetCalendar(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, DayResponse{Date: date, Plans: cal.PlansOn(date)})
}

// CreatePlan godoc
// @Summary Create a workout plan
// @Tags Calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body PlanRequest true "Plan"
// @Success 201 {object} PlanResponse
// @Failure 400 {object} gin.H "Invalid plan"
// @Router /calendar/plans [post]
func (h *CalendarHandler) CreatePlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	h.savePlan(c, req.toDomain(), http.StatusCreated)
}

// UpdatePlan godoc
// @Summary Create or replace the plan with the given ID
// @Tags Calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param plan body PlanRequest true "Plan"
// @Success 200 {object} PlanResponse
// @Failure 400 {object} gin.H "Invalid plan"
// @Router /calendar/plans/{planId} [put]
func (h *CalendarHandler) UpdatePlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	plan := req.toDomain()
	plan.ID = c.Param("planId")
	h.savePlan(c, plan, http.StatusOK)
}

func (h *CalendarHandler) savePlan(c *gin.Context, plan domain.WorkoutPlan, status int) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	saved, cal, err := h.calendarService.SavePlan(c.Request.Context(), userID, plan)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(status, PlanResponse{Plan: saved, Calendar: cal})
}

// DeletePlan godoc
// @Summary Delete a plan and every schedule reference to it
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 200 {object} domain.CalendarData
// @Failure 404 {object} gin.H "Plan not found"
// @Router /calendar/plans/{planId} [delete]
func (h *CalendarHandler) DeletePlan(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	cal, err := h.calendarService.DeletePlan(c.Request.Context(), userID, c.Param("planId"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cal)
}

// SchedulePlan godoc
// @Summary Drop a plan on a day
// @Description Adds the plan to the day at most once. Unknown plans leave the calendar unchanged.
// @Tags Calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param drop body ScheduleRequest true "Plan and drop target"
// @Success 200 {object} domain.CalendarData
// @Failure 400 {object} gin.H "Invalid target"
// @Router /calendar/schedule [post]
func (h *CalendarHandler) SchedulePlan(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	dateKey, ok := calendar.ParseDropTarget(req.Target)
	if !ok {
		if !domain.ValidDateKey(req.Target) {
			abortWithError(c, http.StatusBadRequest, "target must be a day drop target or a YYYY-MM-DD date")
			return
		}
		dateKey = req.Target
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	cal, err := h.calendarService.SchedulePlan(c.Request.Context(), userID, req.PlanID, dateKey)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cal)
}

// UnschedulePlan godoc
// @Summary Remove a plan from a day
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Param date path string true "YYYY-MM-DD"
// @Param planId path string true "Plan ID"
// @Success 200 {object} domain.CalendarData
// @Failure 400 {object} gin.H "Invalid date"
// @Router /calendar/schedule/{date}/{planId} [delete]
func (h *CalendarHandler) UnschedulePlan(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	cal, err := h.calendarService.UnschedulePlan(c.Request.Context(), userID, c.Param("planId"), c.Param("date"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cal)
}

// GetSensors godoc
// @Summary Drag activation constraints
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SensorsResponse
// @Router /calendar/sensors [get]
func (h *CalendarHandler) GetSensors(c *gin.Context) {
	c.JSON(http.StatusOK, SensorsResponse{
		PointerDistance: h.sensors.PointerDistance,
		TouchDelayMs:    h.sensors.TouchDelay.Milliseconds(),
		TouchTolerance:  h.sensors.TouchTolerance,
	})
}

// Events godoc
// @Summary Stream calendar invalidations
// @Description Server-sent events. Each "invalidate" event means the calendar changed
// @Description and should be fetched again. A "ready" event is sent once subscribed.
// @Tags Calendar
// @Produce text/event-stream
// @Security BearerAuth
// @Router /calendar/events [get]
func (h *CalendarHandler) Events(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	events, cancel, err := h.calendarService.Subscribe(ctx, userID)
	if err != nil {
		log.Errorf("subscribe to calendar events for %s: %s", userID.Hex(), err)
		abortWithError(c, http.StatusServiceUnavailable, "Calendar events are unavailable.")
		return
	}
	defer cancel()

	h.metrics.GaugeEventStreams.Inc()
	defer h.metrics.GaugeEventStreams.Dec()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", userID.Hex())
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-h.shutdown:
			return false
		case _, open := <-events:
			if !open {
				return false
			}
			c.SSEvent(notify.StreamEvent, notify.Message)
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}

func (h *CalendarHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate), errors.Is(err, service.ErrInvalidPlan):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPlanNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	default:
		log.Errorf("calendar handler: %s", err)
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}

package api

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/service"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkoutHandler struct {
	workoutLogService service.WorkoutLogService
}

func NewWorkoutHandler(workoutLogService service.WorkoutLogService) *WorkoutHandler {
	return &WorkoutHandler{workoutLogService: workoutLogService}
}

// --- DTOs ---

type SetRequest struct {
	Weight float64 `json:"weight" binding:"gte=0"`
	Reps   int     `json:"reps" binding:"gte=0"`
}

type LoggedExerciseRequest struct {
	ExerciseID string       `json:"exerciseId" binding:"required"`
	Sets       []SetRequest `json:"sets" binding:"required,min=1,dive"`
}

// LogWorkoutRequest reports a completed session.
type LogWorkoutRequest struct {
	Date    string                  `json:"date" binding:"required"`
	PlanID  string                  `json:"planId"`
	Entries []LoggedExerciseRequest `json:"entries" binding:"required,min=1,dive"`
	Notes   string                  `json:"notes"`
}

func (r LogWorkoutRequest) toInput() (service.WorkoutLogInput, error) {
	input := service.WorkoutLogInput{
		Date:    r.Date,
		PlanID:  r.PlanID,
		Notes:   r.Notes,
		Entries: make([]domain.LoggedExercise, len(r.Entries)),
	}
	for i, e := range r.Entries {
		exerciseID, err := primitive.ObjectIDFromHex(e.ExerciseID)
		if err != nil {
			return service.WorkoutLogInput{}, fmt.Errorf("invalid exercise id %q", e.ExerciseID)
		}
		sets := make([]domain.SetEntry, len(e.Sets))
		for j, s := range e.Sets {
			sets[j] = domain.SetEntry{Weight: s.Weight, Reps: s.Reps}
		}
		input.Entries[i] = domain.LoggedExercise{ExerciseID: exerciseID, Sets: sets}
	}
	return input, nil
}

type WorkoutResponse struct {
	ID        string                  `json:"id"`
	Date      string                  `json:"date"`
	PlanID    string                  `json:"planId,omitempty"`
	Entries   []domain.LoggedExercise `json:"entries"`
	Notes     string                  `json:"notes,omitempty"`
	CreatedAt time.Time               `json:"createdAt"`
}

func MapWorkoutToResponse(w *domain.WorkoutLog) WorkoutResponse {
	if w == nil {
		return WorkoutResponse{}
	}
	entries := w.Entries
	if entries == nil {
		entries = []domain.LoggedExercise{}
	}
	return WorkoutResponse{
		ID:        w.ID.Hex(),
		Date:      w.Date,
		PlanID:    w.PlanID,
		Entries:   entries,
		Notes:     w.Notes,
		CreatedAt: w.CreatedAt,
	}
}

func MapWorkoutsToResponse(logs []domain.WorkoutLog) []WorkoutResponse {
	responses := make([]WorkoutResponse, len(logs))
	for i := range logs {
		responses[i] = MapWorkoutToResponse(&logs[i])
	}
	return responses
}

// --- Handler Methods ---

// LogWorkout godoc
// @Summary Log a completed workout
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workout body LogWorkoutRequest true "Workout"
// @Success 201 {object} WorkoutResponse
// @Failure 400 {object} gin.H "Invalid workout or unknown exercise"
// @Router /workouts [post]
func (h *WorkoutHandler) LogWorkout(c *gin.Context) {
	var req LogWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	input, err := req.toInput()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	workout, err := h.workoutLogService.LogWorkout(c.Request.Context(), userID, input)
	if err != nil {
		// an exercise the user cannot see is a bad reference in the body
		if errors.Is(err, service.ErrExerciseNotFound) || errors.Is(err, service.ErrExerciseAccessDenied) {
			abortWithError(c, http.StatusBadRequest, "unknown exercise in workout")
			return
		}
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapWorkoutToResponse(workout))
}

// ListWorkouts godoc
// @Summary List logged workouts
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param from query string false "First day, YYYY-MM-DD"
// @Param to query string false "Last day, YYYY-MM-DD"
// @Success 200 {array} WorkoutResponse
// @Failure 400 {object} gin.H "Invalid date"
// @Router /workouts [get]
func (h *WorkoutHandler) ListWorkouts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	logs, err := h.workoutLogService.ListWorkouts(c.Request.Context(), userID, c.Query("from"), c.Query("to"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutsToResponse(logs))
}

// GetWorkout godoc
// @Summary Get a logged workout
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workout ID"
// @Success 200 {object} WorkoutResponse
// @Failure 404 {object} gin.H "Workout not found"
// @Router /workouts/{id} [get]
func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	logID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	workout, err := h.workoutLogService.GetWorkout(c.Request.Context(), userID, logID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

// DeleteWorkout godoc
// @Summary Delete a logged workout
// @Tags Workouts
// @Security BearerAuth
// @Param id path string true "Workout ID"
// @Success 204
// @Failure 404 {object} gin.H "Workout not found"
// @Router /workouts/{id} [delete]
func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	logID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.workoutLogService.DeleteWorkout(c.Request.Context(), userID, logID); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WorkoutHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate), errors.Is(err, service.ErrInvalidWorkoutLog):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrWorkoutLogNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	default:
		log.Errorf("workout handler: %s", err)
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"planvault/shared/middleware"
	"planvault/shared/models"
	"planvault/shared/sentinel"
)

// GoalService defines the orchestration operations used by Handler.
type GoalService interface {
	Create(ctx context.Context, clientID int64, goalName string, targetAmount decimal.Decimal) (*models.Goal, error)
	GetByID(ctx context.Context, id int64) (*models.Goal, error)
	GetAll(ctx context.Context) ([]models.Goal, error)
	GetByClient(ctx context.Context, clientID int64) ([]models.Goal, error)
	Update(ctx context.Context, id int64, goalName string, targetAmount decimal.Decimal) (*models.Goal, error)
	Delete(ctx context.Context, id int64) error
}

// Handler handles goal-related HTTP requests.
type Handler struct {
	service GoalService
}

type CreateGoalRequest struct {
	ClientID     int64           `json:"clientId" validate:"required,gt=0"`
	GoalName     string          `json:"goalName" validate:"required"`
	TargetAmount decimal.Decimal `json:"targetAmount" validate:"required"`
}

type UpdateGoalRequest struct {
	GoalName     string          `json:"goalName" validate:"required"`
	TargetAmount decimal.Decimal `json:"targetAmount" validate:"required"`
}

type ListGoalsResponse struct {
	Goals []models.Goal `json:"goals"`
}

func New(service GoalService) *Handler {
	return &Handler{service: service}
}

// Register mounts the goal routes. Reads go on the public group and mutations
// on the protected one; byClient is the listing route nested under the client
// resource path.
func (h *Handler) Register(public, protected, byClient *gin.RouterGroup) {
	public.GET("", h.List)
	public.GET("/:id", h.Get)
	protected.POST("", h.Create)
	protected.PUT("/:id", h.Update)
	protected.DELETE("/:id", h.Delete)
	byClient.GET("/:clientId/goals", h.ListByClient)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	goal, err := h.service.Create(c.Request.Context(), req.ClientID, req.GoalName, req.TargetAmount)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, goal)
}

func (h *Handler) List(c *gin.Context) {
	goals, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if goals == nil {
		goals = []models.Goal{}
	}
	c.JSON(http.StatusOK, ListGoalsResponse{Goals: goals})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	goal, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (h *Handler) ListByClient(c *gin.Context) {
	clientID, ok := parseID(c, "clientId")
	if !ok {
		return
	}
	goals, err := h.service.GetByClient(c.Request.Context(), clientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if goals == nil {
		goals = []models.Goal{}
	}
	c.JSON(http.StatusOK, ListGoalsResponse{Goals: goals})
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	goal, err := h.service.Update(c.Request.Context(), id, req.GoalName, req.TargetAmount)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid "+param)
		return 0, false
	}
	return id, true
}

// respondServiceError maps the shared error classes to HTTP statuses. A
// ReferenceInvalid is a client error even when the root cause was a remote
// outage; the conflation is part of the contract.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sentinel.ErrInvalidInput):
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request data")
	case errors.Is(err, sentinel.ErrNotFound):
		middleware.RespondWithError(c, http.StatusNotFound, "Goal not found")
	case errors.Is(err, sentinel.ErrReferenceInvalid):
		middleware.RespondWithError(c, http.StatusUnprocessableEntity, "Referenced client does not exist or could not be verified")
	default:
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to process request")
	}
}

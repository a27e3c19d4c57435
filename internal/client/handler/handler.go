package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"planvault/shared/middleware"
	"planvault/shared/models"
	"planvault/shared/sentinel"
)

// ClientService defines the orchestration operations used by Handler.
type ClientService interface {
	Create(ctx context.Context, name, email string) (*models.Client, error)
	GetByID(ctx context.Context, id int64) (*models.Client, error)
	GetAll(ctx context.Context) ([]models.Client, error)
	Update(ctx context.Context, id int64, name, email string) (*models.Client, error)
	Delete(ctx context.Context, id int64) error
}

// Handler handles client-related HTTP requests.
type Handler struct {
	service ClientService
}

type CreateClientRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type UpdateClientRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type ListClientsResponse struct {
	Clients []models.Client `json:"clients"`
}

func New(service ClientService) *Handler {
	return &Handler{service: service}
}

// Register mounts the client routes. Reads stay on the public group so peer
// services can resolve client references without a token; mutations go on the
// protected group.
func (h *Handler) Register(public, protected *gin.RouterGroup) {
	public.GET("", h.List)
	public.GET("/:id", h.Get)
	protected.POST("", h.Create)
	protected.PUT("/:id", h.Update)
	protected.DELETE("/:id", h.Delete)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	client, err := h.service.Create(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

func (h *Handler) List(c *gin.Context) {
	clients, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if clients == nil {
		clients = []models.Client{}
	}
	c.JSON(http.StatusOK, ListClientsResponse{Clients: clients})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	client, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	client, err := h.service.Update(c.Request.Context(), id, req.Name, req.Email)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid client id")
		return 0, false
	}
	return id, true
}

// respondServiceError maps the shared error classes to HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sentinel.ErrInvalidInput):
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request data")
	case errors.Is(err, sentinel.ErrNotFound):
		middleware.RespondWithError(c, http.StatusNotFound, "Client not found")
	case errors.Is(err, sentinel.ErrConflict):
		middleware.RespondWithError(c, http.StatusConflict, "Client with email already exists")
	default:
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to process request")
	}
}

// Package auth provides the register/login surface of client-service. Users
// live in an in-memory store; passwords are bcrypt-hashed. Authorization for
// the entity routes happens in the shared middleware chain.
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"planvault/shared/middleware"
)

// Roles.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	Username     string
	Email        string
	PasswordHash string
	Role         string
}

// UserStore keeps registered users in memory.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]User)}
}

// Create registers a user if the username is free.
func (s *UserStore) Create(username, email, password, role string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(username)
	if _, exists := s.users[key]; exists {
		return User{}, fmt.Errorf("username already exists")
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return User{}, fmt.Errorf("email already exists")
		}
	}
	user := User{Username: username, Email: email, PasswordHash: string(hash), Role: role}
	s.users[key] = user
	return user, nil
}

// Authenticate checks the password for the given username.
func (s *UserStore) Authenticate(username, password string) (User, bool) {
	s.mu.RLock()
	user, ok := s.users[strings.ToLower(username)]
	s.mu.RUnlock()
	if !ok {
		return User{}, false
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return User{}, false
	}
	return user, true
}

// Handler exposes the auth endpoints.
type Handler struct {
	store *UserStore
	auth  *middleware.Authenticator
}

func NewHandler(store *UserStore, auth *middleware.Authenticator) *Handler {
	return &Handler{store: store, auth: auth}
}

func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("/register", h.RegisterUser)
	g.POST("/login", h.Login)
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (h *Handler) RegisterUser(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	user, err := h.store.Create(req.Username, req.Email, req.Password, RoleUser)
	if err != nil {
		middleware.RespondWithError(c, http.StatusConflict, err.Error())
		return
	}

	token, err := h.auth.IssueToken(user.Username, user.Role)
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	c.JSON(http.StatusCreated, TokenResponse{Token: token, Username: user.Username, Role: user.Role})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	user, ok := h.store.Authenticate(req.Username, req.Password)
	if !ok {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := h.auth.IssueToken(user.Username, user.Role)
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	c.JSON(http.StatusOK, TokenResponse{Token: token, Username: user.Username, Role: user.Role})
}

package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"planvault/shared/models"
	"planvault/shared/sentinel"
)

// ---- mock implementation ----

type mockClientService struct {
	createFn func(ctx context.Context, name, email string) (*models.Client, error)
	getFn    func(ctx context.Context, id int64) (*models.Client, error)
	getAllFn func(ctx context.Context) ([]models.Client, error)
	updateFn func(ctx context.Context, id int64, name, email string) (*models.Client, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (m *mockClientService) Create(ctx context.Context, name, email string) (*models.Client, error) {
	if m.createFn != nil {
		return m.createFn(ctx, name, email)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockClientService) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockClientService) GetAll(ctx context.Context) ([]models.Client, error) {
	if m.getAllFn != nil {
		return m.getAllFn(ctx)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockClientService) Update(ctx context.Context, id int64, name, email string) (*models.Client, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, name, email)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockClientService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return fmt.Errorf("not configured")
}

// ---- helpers ----

func newTestRouter(svc ClientService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(svc)
	g := r.Group("/clients")
	h.Register(g, g)
	return r
}

func doRequest(router *gin.Engine, method, url string, body any) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var testClient = &models.Client{ID: 1, Name: "Alex", Email: "a@x.com"}

// ---- tests ----

func TestCreateClient(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		createFn       func(ctx context.Context, name, email string) (*models.Client, error)
		expectedStatus int
	}{
		{
			name: "success",
			body: map[string]any{"name": "Alex", "email": "a@x.com"},
			createFn: func(_ context.Context, name, email string) (*models.Client, error) {
				return testClient, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - missing email",
			body:           map[string]any{"name": "Alex"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - malformed email",
			body:           map[string]any{"name": "Alex", "email": "not-an-email"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "conflict - duplicate email",
			body: map[string]any{"name": "Alex", "email": "a@x.com"},
			createFn: func(context.Context, string, string) (*models.Client, error) {
				return nil, sentinel.ErrConflict
			},
			expectedStatus: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&mockClientService{createFn: tt.createFn})
			w := doRequest(router, http.MethodPost, "/clients", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetClient(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		getFn          func(ctx context.Context, id int64) (*models.Client, error)
		expectedStatus int
	}{
		{
			name: "success",
			url:  "/clients/1",
			getFn: func(_ context.Context, id int64) (*models.Client, error) {
				return testClient, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not found",
			url:  "/clients/99",
			getFn: func(context.Context, int64) (*models.Client, error) {
				return nil, sentinel.ErrNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "bad request - non-numeric id",
			url:            "/clients/abc",
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&mockClientService{getFn: tt.getFn})
			w := doRequest(router, http.MethodGet, tt.url, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestListClients(t *testing.T) {
	router := newTestRouter(&mockClientService{
		getAllFn: func(context.Context) ([]models.Client, error) {
			return []models.Client{*testClient}, nil
		},
	})
	w := doRequest(router, http.MethodGet, "/clients", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp ListClientsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Clients) != 1 || resp.Clients[0].Email != "a@x.com" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestListClientsEmpty(t *testing.T) {
	router := newTestRouter(&mockClientService{
		getAllFn: func(context.Context) ([]models.Client, error) { return nil, nil },
	})
	w := doRequest(router, http.MethodGet, "/clients", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"clients":[]`) {
		t.Errorf("expected empty array, got %s", w.Body.String())
	}
}

func TestUpdateClient(t *testing.T) {
	router := newTestRouter(&mockClientService{
		updateFn: func(_ context.Context, id int64, name, email string) (*models.Client, error) {
			return &models.Client{ID: id, Name: name, Email: email}, nil
		},
	})
	w := doRequest(router, http.MethodPut, "/clients/1", map[string]any{"name": "Alexandra", "email": "a@x.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDeleteClient(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		deleteFn       func(ctx context.Context, id int64) error
		expectedStatus int
	}{
		{
			name:           "success",
			url:            "/clients/1",
			deleteFn:       func(context.Context, int64) error { return nil },
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "not found",
			url:            "/clients/99",
			deleteFn:       func(context.Context, int64) error { return sentinel.ErrNotFound },
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&mockClientService{deleteFn: tt.deleteFn})
			w := doRequest(router, http.MethodDelete, tt.url, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

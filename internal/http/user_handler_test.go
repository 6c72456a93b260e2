package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quantifyme/internal/repository"
	"quantifyme/internal/service"
)

func setupUserRouter(userSvc *service.UserService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewUserHandler(zap.NewNop(), userSvc)
	r.POST("/users", h.GetOrCreateUser)
	r.GET("/users", h.GetUser)
	r.PATCH("/users/premium", h.SetPremium)
	return r
}

func performRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUserHandlerGetOrCreate_Success(t *testing.T) {
	repo := repository.NewMemoryUserRepository()
	svc := service.NewUserService(zap.NewNop(), repo)
	r := setupUserRouter(svc)

	rec := performRequest(r, http.MethodPost, "/users", map[string]string{
		"email": "user@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		User struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected body: %v", err)
	}
	if resp.User.ID == 0 || resp.User.Email != "user@example.com" {
		t.Fatalf("unexpected user payload: %+v", resp.User)
	}
}

func TestUserHandlerGetOrCreate_Idempotent(t *testing.T) {
	repo := repository.NewMemoryUserRepository()
	svc := service.NewUserService(zap.NewNop(), repo)
	r := setupUserRouter(svc)

	first := performRequest(r, http.MethodPost, "/users", map[string]string{"email": "User@Example.com"})
	second := performRequest(r, http.MethodPost, "/users", map[string]string{"email": "user@example.com"})
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("expected both requests to succeed, got %d and %d", first.Code, second.Code)
	}

	var a, b struct {
		User struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	_ = json.Unmarshal(first.Body.Bytes(), &a)
	_ = json.Unmarshal(second.Body.Bytes(), &b)
	if a.User.ID != b.User.ID {
		t.Fatalf("expected same user id, got %d and %d", a.User.ID, b.User.ID)
	}
}

func TestUserHandlerGetOrCreate_InvalidEmail(t *testing.T) {
	repo := repository.NewMemoryUserRepository()
	svc := service.NewUserService(zap.NewNop(), repo)
	r := setupUserRouter(svc)

	rec := performRequest(r, http.MethodPost, "/users", map[string]string{"email": "not-an-email"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestUserHandlerGetUser_NotFound(t *testing.T) {
	repo := repository.NewMemoryUserRepository()
	svc := service.NewUserService(zap.NewNop(), repo)
	r := setupUserRouter(svc)

	rec := performRequest(r, http.MethodGet, "/users?email=missing@example.com", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestUserHandlerSetPremium(t *testing.T) {
	repo := repository.NewMemoryUserRepository()
	svc := service.NewUserService(zap.NewNop(), repo)
	r := setupUserRouter(svc)

	rec := performRequest(r, http.MethodPost, "/users", map[string]string{"email": "user@example.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp struct {
		User struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)

	premium := true
	rec = performRequest(r, http.MethodPatch, "/users/premium", map[string]any{
		"user_id": resp.User.ID,
		"premium": &premium,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	rec = performRequest(r, http.MethodPatch, "/users/premium", map[string]any{
		"user_id": int64(999),
		"premium": &premium,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

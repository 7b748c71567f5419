package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/andamios/andamios-api/internal/api/apierr"
	"github.com/andamios/andamios-api/internal/core/domain"
	"github.com/andamios/andamios-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, name, email, password string) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.AccessToken, error)
	logoutFn   func(ctx context.Context, user *domain.User) error
}

func (s *stubAuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	return s.registerFn(ctx, name, email, password)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.AccessToken, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Logout(ctx context.Context, user *domain.User) error {
	if s.logoutFn == nil {
		return nil
	}
	return s.logoutFn(ctx, user)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrAuthenticationFailed
}

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func asAPIError(t *testing.T, err error) *apierr.Error {
	t.Helper()
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apierr.Error, got %T: %v", err, err)
	}
	return ae
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (*domain.User, error) {
			if name != "Alice" || email != "alice@example.com" || password != "longenough123" {
				t.Fatalf("unexpected args: %s %s %s", name, email, password)
			}
			return &domain.User{ID: "1", Name: name, Email: email, PasswordHash: "$2a$12$secret"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/api/v1/auth/register",
		`{"name":"Alice","email":"alice@example.com","password":"longenough123"}`)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["id"] != "1" || resp["name"] != "Alice" || resp["email"] != "alice@example.com" {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
	for key := range resp {
		if strings.Contains(key, "password") {
			t.Fatalf("response leaks %q", key)
		}
	}
	if strings.Contains(rec.Body.String(), "$2a$") {
		t.Fatalf("response leaks the hash")
	}
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (*domain.User, error) {
			return nil, domain.ErrDuplicateEmail
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newJSONContext(http.MethodPost, "/api/v1/auth/register",
		`{"name":"Bob","email":"bob@example.com","password":"pw"}`)
	err := handler.Register(c)
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (*domain.User, error) {
			t.Fatalf("service should not be called")
			return nil, nil
		},
	})

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"invalid email", `{"name":"A","email":"not-an-email","password":"pw"}`, "email"},
		{"missing name", `{"email":"a@example.com","password":"pw"}`, "name"},
		{"blank name", `{"name":"   ","email":"a@example.com","password":"pw"}`, "name"},
		{"missing password", `{"name":"A","email":"a@example.com"}`, "password"},
		{"malformed json", `{"name":`, "body"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newJSONContext(http.MethodPost, "/api/v1/auth/register", tc.body)
			ae := asAPIError(t, handler.Register(c))
			if ae.Status != http.StatusUnprocessableEntity || ae.Code != apierr.CodeValidation {
				t.Fatalf("unexpected error: %+v", ae)
			}
			found := false
			for _, fe := range ae.ValidationErrors {
				if fe.Field == tc.wantField {
					found = true
				}
			}
			if !found {
				t.Fatalf("no validation error for %q: %+v", tc.wantField, ae.ValidationErrors)
			}
		})
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.AccessToken, error) {
			return &ports.AccessToken{Token: "tok", Type: "bearer", TTL: 30 * time.Minute}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/api/v1/auth/login", `{"email":"a@example.com","password":"pw"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.AccessToken != "tok" || resp.TokenType != "bearer" || resp.ExpiresIn != 1800 {
		t.Fatalf("unexpected token payload: %+v", resp)
	}
}

func TestAuthHandler_Login_Failure(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.AccessToken, error) {
			return nil, domain.ErrAuthenticationFailed
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newJSONContext(http.MethodPost, "/api/v1/auth/login", `{"email":"a@example.com","password":"bad"}`)
	ae := asAPIError(t, handler.Login(c))
	if ae.Status != http.StatusUnauthorized || ae.Code != apierr.CodeLoginFailed {
		t.Fatalf("unexpected error: %+v", ae)
	}
	if ae.Detail != "Incorrect email or password" {
		t.Fatalf("unexpected detail: %q", ae.Detail)
	}
}

func TestAuthHandler_Login_Throttled(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.AccessToken, error) {
			return nil, &domain.ThrottledError{RetryAfter: time.Minute}
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newJSONContext(http.MethodPost, "/api/v1/auth/login", `{"email":"a@example.com","password":"pw"}`)
	if err := handler.Login(c); !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestAuthHandler_MeAndLogout(t *testing.T) {
	var loggedOut *domain.User
	handler := NewAuthHandler(&stubAuthService{
		logoutFn: func(ctx context.Context, user *domain.User) error {
			loggedOut = user
			return nil
		},
	})
	alice := &domain.User{ID: "7", Name: "Alice", Email: "alice@example.com"}

	c, rec := newJSONContext(http.MethodGet, "/api/v1/auth/me", "")
	SetCurrentUser(c, alice)
	if err := handler.Me(c); err != nil {
		t.Fatalf("me: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"id":"7"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	c, rec = newJSONContext(http.MethodPost, "/api/v1/auth/logout", "")
	SetCurrentUser(c, alice)
	if err := handler.Logout(c); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if loggedOut != alice {
		t.Fatalf("logout not forwarded to the service")
	}
	if !strings.Contains(rec.Body.String(), "Successfully logged out") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	c, _ = newJSONContext(http.MethodGet, "/api/v1/auth/me", "")
	if ae := asAPIError(t, handler.Me(c)); ae.Code != apierr.CodeAuthenticationFailed {
		t.Fatalf("expected AUTHENTICATION_FAILED without a current user, got %+v", ae)
	}
}

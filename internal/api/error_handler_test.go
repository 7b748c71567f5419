package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/andamios/andamios-api/internal/api/apierr"
	"github.com/andamios/andamios-api/internal/core/domain"
)

func renderError(t *testing.T, err error) (*httptest.ResponseRecorder, apierr.Response) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/things", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var body apierr.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return rec, body
}

func TestErrorHandler_DomainErrors(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{domain.ErrAuthenticationFailed, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{fmt.Errorf("wrapped: %w", domain.ErrDuplicateEmail), http.StatusBadRequest, "DUPLICATE_EMAIL"},
		{domain.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
		{domain.ErrItemNotFound, http.StatusNotFound, "ITEM_NOT_FOUND"},
		{domain.ErrEmptyUpdate, http.StatusBadRequest, "EMPTY_UPDATE"},
		{&domain.InvalidInputError{Field: "name", Message: "is required"}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{fmt.Errorf("get user: %w", domain.ErrStoreUnavailable), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{echo.ErrNotFound, http.StatusNotFound, "HTTP_404"},
		{echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "HTTP_405"},
		{errors.New("boom: secret driver detail"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.wantCode, func(t *testing.T) {
			rec, body := renderError(t, tc.err)
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
			if body.ErrorCode != tc.wantCode {
				t.Fatalf("expected %s, got %s", tc.wantCode, body.ErrorCode)
			}
			if _, err := time.Parse(time.RFC3339, body.Timestamp); err != nil {
				t.Fatalf("timestamp %q not RFC3339: %v", body.Timestamp, err)
			}
		})
	}
}

func TestErrorHandler_InternalErrorHidesCause(t *testing.T) {
	rec, body := renderError(t, errors.New("pq: password authentication failed for user admin"))
	if body.Detail != "Internal server error" {
		t.Fatalf("unexpected detail %q", body.Detail)
	}
	if strings.Contains(rec.Body.String(), "admin") {
		t.Fatalf("cause leaked: %s", rec.Body.String())
	}
}

func TestErrorHandler_InvalidCredentialsChallenge(t *testing.T) {
	rec, body := renderError(t, domain.ErrAuthenticationFailed)
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("missing WWW-Authenticate header")
	}
	if body.Detail != "Could not validate credentials" {
		t.Fatalf("unexpected detail %q", body.Detail)
	}
}

func TestErrorHandler_Throttled(t *testing.T) {
	rec, body := renderError(t, &domain.ThrottledError{RetryAfter: 90*time.Second + time.Millisecond})
	if rec.Code != http.StatusTooManyRequests || body.ErrorCode != "TOO_MANY_ATTEMPTS" {
		t.Fatalf("unexpected response %d %+v", rec.Code, body)
	}
	if rec.Header().Get("Retry-After") != "91" {
		t.Fatalf("unexpected Retry-After %q", rec.Header().Get("Retry-After"))
	}
}

func TestErrorHandler_ValidationFields(t *testing.T) {
	_, body := renderError(t, apierr.Validation(apierr.FieldError{Field: "email", Message: "email must be a valid email address", Code: "EMAIL"}))
	if body.Detail != "Validation failed" || len(body.ValidationErrors) != 1 || body.ValidationErrors[0].Field != "email" {
		t.Fatalf("unexpected body %+v", body)
	}
}

// Package apierr defines the error envelope returned by every API endpoint
// and the typed error handlers and middleware use to pick its fields.
package apierr

import (
	"fmt"
	"net/http"
	"time"
)

// Error codes carried in the envelope's error_code field.
const (
	CodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeLoginFailed          = "LOGIN_FAILED"
	CodeDuplicateEmail       = "DUPLICATE_EMAIL"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeItemNotFound         = "ITEM_NOT_FOUND"
	CodeEmptyUpdate          = "EMPTY_UPDATE"
	CodeBadRequest           = "BAD_REQUEST"
	CodeValidation           = "VALIDATION_ERROR"
	CodeTooManyAttempts      = "TOO_MANY_ATTEMPTS"
	CodeServiceUnavailable   = "SERVICE_UNAVAILABLE"
	CodeInternal             = "INTERNAL_ERROR"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Response is the JSON envelope.
type Response struct {
	Detail           string       `json:"detail"`
	ErrorCode        string       `json:"error_code"`
	Timestamp        string       `json:"timestamp"`
	ValidationErrors []FieldError `json:"validation_errors,omitempty"`
}

// Error is returned by handlers and middleware when they already know how the
// failure must be presented.
type Error struct {
	Status           int
	Code             string
	Detail           string
	ValidationErrors []FieldError
	// Header is copied onto the response.
	Header http.Header
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Detail)
}

// Response renders e at time now.
func (e *Error) Response(now time.Time) Response {
	return Response{
		Detail:           e.Detail,
		ErrorCode:        e.Code,
		Timestamp:        now.UTC().Format(time.RFC3339),
		ValidationErrors: e.ValidationErrors,
	}
}

func New(status int, code, detail string) *Error {
	return &Error{Status: status, Code: code, Detail: detail}
}

// NotAuthenticated is returned when a protected route gets no bearer token.
func NotAuthenticated() *Error {
	return bearerChallenge(New(http.StatusUnauthorized, CodeAuthenticationFailed, "Not authenticated"))
}

// InvalidCredentials is returned when a bearer token does not resolve to an
// account, whatever the reason.
func InvalidCredentials() *Error {
	return bearerChallenge(New(http.StatusUnauthorized, CodeInvalidCredentials, "Could not validate credentials"))
}

// LoginFailed covers both unknown email and wrong password.
func LoginFailed() *Error {
	return bearerChallenge(New(http.StatusUnauthorized, CodeLoginFailed, "Incorrect email or password"))
}

// Validation wraps field errors in a 422.
func Validation(fields ...FieldError) *Error {
	return &Error{
		Status:           http.StatusUnprocessableEntity,
		Code:             CodeValidation,
		Detail:           "Validation failed",
		ValidationErrors: fields,
	}
}

func bearerChallenge(e *Error) *Error {
	e.Header = http.Header{"WWW-Authenticate": []string{"Bearer"}}
	return e
}

// HTTPCode builds the fallback code for statuses without a dedicated one.
func HTTPCode(status int) string {
	return fmt.Sprintf("HTTP_%d", status)
}

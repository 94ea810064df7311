package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ApiError is the error payload of the platform.
type ApiError struct {
	Code             int               `json:"code"`
	Message          string            `json:"message"`
	ValidationErrors []ValidationError `json:"validation_errors,omitempty"`
}

type ValidationError struct {
	FailureMessage string `json:"failure_message"`
	Property       string `json:"property,omitempty"`
}

func (em *ApiError) UnmarshalJSON(bytes []byte) error {
	f := new(struct {
		Code             int               `json:"code"`
		Message          *string           `json:"message"`
		ValidationErrors []ValidationError `json:"validation_errors"`
	})
	if err := json.Unmarshal(bytes, f); err != nil {
		return err
	}
	if f.Message == nil {
		return fmt.Errorf(`required field missing: "message"`)
	}

	em.Code = f.Code
	em.Message = *f.Message
	em.ValidationErrors = f.ValidationErrors
	return nil
}

func (e ApiError) MarshalJSON() ([]byte, error) {
	type plain ApiError
	return json.Marshal(plain(e))
}

func (e ApiError) String() string {
	lines := []string{e.Message}
	for _, v := range e.ValidationErrors {
		if v.Property != "" {
			lines = append(lines, fmt.Sprintf(" - %s: %s", v.Property, v.FailureMessage))
		} else {
			lines = append(lines, " - "+v.FailureMessage)
		}
	}
	return strings.Join(lines, "\n")
}

func (e ApiError) Error() string {
	return e.String()
}

// Reason extracts a human readable message from an error response body.
//
// It understands ApiError payloads and bare {"message": ...} objects.
// Otherwise the body itself is returned, trimmed.
func Reason(body []byte) string {
	ae := new(ApiError)
	if err := json.Unmarshal(body, ae); err == nil {
		return ae.String()
	}

	msg := new(struct {
		Message json.RawMessage `json:"message"`
	})
	if err := json.Unmarshal(body, msg); err == nil && len(msg.Message) != 0 {
		return string(msg.Message)
	}

	return strings.TrimSpace(string(body))
}

type ApiErrorOption func(in *ApiError) *ApiError

func WithValidationError(property string, message string) ApiErrorOption {
	return func(in *ApiError) *ApiError {
		in.ValidationErrors = append(
			in.ValidationErrors,
			ValidationError{Property: property, FailureMessage: message},
		)
		return in
	}
}

// NewApiError creates echo's HTTPError carrying ApiError as its message.
func NewApiError(code int, message string, opts ...ApiErrorOption) *echo.HTTPError {
	ae := &ApiError{Code: code, Message: message}
	for _, opt := range opts {
		ae = opt(ae)
	}
	return echo.NewHTTPError(code, *ae)
}

func NotFound() *echo.HTTPError {
	return NewApiError(http.StatusNotFound, "not found")
}

func BadRequest(message string, opts ...ApiErrorOption) *echo.HTTPError {
	return NewApiError(http.StatusBadRequest, message, opts...)
}

func Conflict(message string) *echo.HTTPError {
	return NewApiError(http.StatusConflict, message)
}

func Unauthorized() *echo.HTTPError {
	return NewApiError(http.StatusUnauthorized, "unauthorized")
}

func ServiceUnavailable() *echo.HTTPError {
	return NewApiError(http.StatusServiceUnavailable, "service unavailable temporarily")
}

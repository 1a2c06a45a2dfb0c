// Package httpx holds the JSON request/response helpers shared by every handler.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const maxJSONBody = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError reports malformed input with a message per offending field.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records another field failure and returns the receiver.
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = message
	return e
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ErrorResponse is the body written for every non-2xx answer.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
	Details any               `json:"details,omitempty"`
}

// Decode reads a JSON body into dst and runs struct validation on it.
// Every failure is returned as a *ValidationError.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return NewValidationError(typeErr.Field, fmt.Sprintf("must be %s", typeErr.Type))
		case errors.Is(err, io.EOF):
			return NewValidationError("body", "request body is required")
		default:
			return NewValidationError("body", "malformed JSON")
		}
	}

	return Validate(dst)
}

// Validate runs the `validate` struct tags of v.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), describe(fe))
	}
	return verr
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "dive":
		return "contains an invalid item"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a generic error body. Validation errors keep their field detail.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteValidation writes a 400 with field-level detail.
func WriteValidation(w http.ResponseWriter, err *ValidationError) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation failed", Fields: err.Fields})
}

// WriteInternal logs err and answers with an opaque 500.
func WriteInternal(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	WriteError(w, http.StatusInternalServerError, "internal error")
}

// WriteDomainError writes validation errors with detail and everything else as an opaque 500.
// Handlers match their own sentinel errors before falling back to this.
func WriteDomainError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		WriteValidation(w, verr)
		return
	}
	WriteInternal(w, logger, r, err)
}

// ParseDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates (midnight in loc).
// The second return value reports whether the input was a date without a time.
func ParseDate(s string, loc *time.Location) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q", s)
}

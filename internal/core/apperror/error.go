// Package apperror is the error taxonomy of the goods receipt service.
// Every failure a caller can act on is an *AppError with a stable code;
// anything else surfaces as INTERNAL_ERROR.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	CodeInternal     = "INTERNAL_ERROR"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"

	CodeBusinessRule        = "BUSINESS_RULE_VIOLATION"
	CodeQuantityMismatch    = "QUANTITY_MISMATCH"
	CodeNotReadyForApproval = "NOT_READY_FOR_APPROVAL"

	CodeConflict               = "CONFLICT"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeDuplicateNumber        = "DUPLICATE_DOCUMENT_NUMBER"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

var statusByCode = map[string]int{
	CodeInternal:               http.StatusInternalServerError,
	CodeValidation:             http.StatusBadRequest,
	CodeUnauthorized:           http.StatusUnauthorized,
	CodeNotFound:               http.StatusNotFound,
	CodeBusinessRule:           http.StatusUnprocessableEntity,
	CodeQuantityMismatch:       http.StatusUnprocessableEntity,
	CodeNotReadyForApproval:    http.StatusUnprocessableEntity,
	CodeConflict:               http.StatusConflict,
	CodeInvalidTransition:      http.StatusConflict,
	CodeDuplicateNumber:        http.StatusConflict,
	CodeConcurrentModification: http.StatusConflict,
}

// AppError is rendered to clients as {code, message, details}.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`

	// Err is logged, never rendered.
	Err error `json:"-"`
}

// New creates an error with the status registered for code. Unknown codes
// map to 422.
func New(code, message string) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusUnprocessableEntity
	}
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches another *AppError by code, so errors.Is(err, apperror.New(code, ""))
// works through wrapping.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// WithDetail sets details[key].
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause attaches the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

func NewValidation(message string) *AppError {
	return New(CodeValidation, message)
}

// NewNotFound names the missing entity and its id.
func NewNotFound(entity string, id any) *AppError {
	return New(CodeNotFound, entity+" not found").
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// NewBusinessRule reports a violated rule under a caller-chosen code.
func NewBusinessRule(code, message string) *AppError {
	e := New(code, message)
	e.HTTPStatus = http.StatusUnprocessableEntity
	return e
}

// NewInvalidTransition is returned when status does not accept command.
func NewInvalidTransition(entity, status, command string) *AppError {
	return New(CodeInvalidTransition, fmt.Sprintf("%s in status %s does not accept %s", entity, status, command)).
		WithDetail("entity", entity).
		WithDetail("status", status).
		WithDetail("command", command)
}

// NewQuantityMismatch reports passed + rejected differing from received.
func NewQuantityMismatch(received, passed, rejected string) *AppError {
	return New(CodeQuantityMismatch, "passed and rejected quantities must add up to the received quantity").
		WithDetail("qty_received", received).
		WithDetail("qty_passed", passed).
		WithDetail("qty_rejected", rejected)
}

// NewNotReadyForApproval lists the items whose QC is still open.
func NewNotReadyForApproval(itemIDs []string) *AppError {
	return New(CodeNotReadyForApproval, "quality control is not finished for every item").
		WithDetail("pending_items", itemIDs)
}

func NewDuplicateNumber(entity, number string) *AppError {
	return New(CodeDuplicateNumber, fmt.Sprintf("%s number %s is already used", entity, number)).
		WithDetail("entity", entity).
		WithDetail("number", number)
}

// NewConcurrentModification is returned when a version check fails.
func NewConcurrentModification(entity string, id any) *AppError {
	return New(CodeConcurrentModification, "record was modified concurrently, reload and retry").
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// NewInternal hides err behind a generic message.
func NewInternal(err error) *AppError {
	return New(CodeInternal, "internal server error").WithCause(err)
}

func NewUnauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

func NewConflict(message string) *AppError {
	return New(CodeConflict, message)
}

// AsAppError finds the first *AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err carries code.
func IsCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

func IsNotFound(err error) bool { return IsCode(err, CodeNotFound) }

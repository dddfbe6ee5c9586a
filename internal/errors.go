package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeForbidden  ErrorType = "FORBIDDEN"
	ErrorTypeInternal   ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidOrderID   ErrorCode = "INVALID_ORDER_ID"

	ErrCodeUnsupportedCurrency    ErrorCode = "UNSUPPORTED_CURRENCY"
	ErrCodeInvalidPaymentMethod   ErrorCode = "INVALID_PAYMENT_METHOD"
	ErrCodeMissingPaymentSnapshot ErrorCode = "MISSING_PAYMENT_SNAPSHOT"
	ErrCodeOrderNotFound          ErrorCode = "ORDER_NOT_FOUND"
	ErrCodeInvalidReceiptToken    ErrorCode = "INVALID_RECEIPT_TOKEN"

	ErrCodeSigningFailed ErrorCode = "SIGNING_FAILED"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// GetDetailedMessage joins the field messages of a validation error.
func (e *AppError) GetDetailedMessage() string {
	ve, ok := e.Details.(ValidationErrors)
	if !ok || len(ve.Errors) == 0 {
		return e.Message
	}
	messages := make([]string, len(ve.Errors))
	for i, fe := range ve.Errors {
		messages[i] = fe.Message
	}
	return strings.Join(messages, "; ")
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on Code so sentinels below work with errors.Is regardless of
// message, details or cause.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// Fatal reports whether the error must abort the checkout flow rather than be
// shown to the customer as a correctable notice.
func (e *AppError) Fatal() bool {
	return e.Type != ErrorTypeValidation
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// statusFor is the HTTP status each error type answers with unless a
// constructor picks a more specific one.
var statusFor = map[ErrorType]int{
	ErrorTypeValidation: http.StatusBadRequest,
	ErrorTypeNotFound:   http.StatusNotFound,
	ErrorTypeForbidden:  http.StatusForbidden,
	ErrorTypeInternal:   http.StatusInternalServerError,
}

func newAppError(t ErrorType, code ErrorCode, message string) *AppError {
	return &AppError{Type: t, Code: code, Message: message, StatusCode: statusFor[t]}
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeValidation, code, message)
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return NewValidationError("Validation failed", ErrCodeValidationFailed).
		WithDetails(ValidationErrors{Errors: []ValidationError{{Field: field, Message: message, Code: string(code)}}})
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeNotFound, code, message)
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return newAppError(ErrorTypeForbidden, code, message)
}

func NewInternalError(message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, ErrCodeInternal, message).WithCause(cause)
}

func NewUnsupportedCurrencyError(isoCode string) *AppError {
	e := newAppError(ErrorTypeValidation, ErrCodeUnsupportedCurrency,
		fmt.Sprintf("currency %q is not supported by the payment provider", isoCode))
	e.StatusCode = http.StatusUnprocessableEntity
	return e
}

func NewInvalidPaymentMethodError(method string) *AppError {
	e := newAppError(ErrorTypeValidation, ErrCodeInvalidPaymentMethod, "Invalid payment method.").
		WithDetails(map[string]string{"payment_method": method})
	e.StatusCode = http.StatusUnprocessableEntity
	return e
}

func NewMissingPaymentSnapshotError(orderID int64) *AppError {
	return newAppError(ErrorTypeInternal, ErrCodeMissingPaymentSnapshot,
		fmt.Sprintf("order %d has no persisted payment snapshot", orderID))
}

func NewSigningError(message string) *AppError {
	return newAppError(ErrorTypeInternal, ErrCodeSigningFailed, message)
}

func NewOrderNotFoundError(orderID int64) *AppError {
	return NewNotFoundError(fmt.Sprintf("order %d not found", orderID), ErrCodeOrderNotFound)
}

// Sentinels for errors.Is; never mutate them, use the constructors above.
var (
	ErrUnsupportedCurrency    = &AppError{Type: ErrorTypeValidation, Code: ErrCodeUnsupportedCurrency, Message: "unsupported currency"}
	ErrInvalidPaymentMethod   = &AppError{Type: ErrorTypeValidation, Code: ErrCodeInvalidPaymentMethod, Message: "Invalid payment method."}
	ErrMissingPaymentSnapshot = &AppError{Type: ErrorTypeInternal, Code: ErrCodeMissingPaymentSnapshot, Message: "missing payment snapshot"}
	ErrOrderNotFound          = &AppError{Type: ErrorTypeNotFound, Code: ErrCodeOrderNotFound, Message: "order not found"}
	ErrInvalidReceiptToken    = &AppError{Type: ErrorTypeForbidden, Code: ErrCodeInvalidReceiptToken, Message: "invalid receipt token"}
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	status := e.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return status, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

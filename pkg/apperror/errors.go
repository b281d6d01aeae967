package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

// Validation returns a VAL_001 error for malformed input. Validation failures
// are reported before any durable mutation.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

// ---- Idempotency (IDEM) ----

// ErrIdempotencyConflict signals reuse of an idempotency key with a different
// request body. The original request's stored data is never touched.
func ErrIdempotencyConflict() *AppError {
	return New("IDEM_001", "Idempotency key reused with a different request body", http.StatusConflict)
}

// ErrRequestInProgress signals that an idempotency key has been claimed but
// the claiming execution has not stored its response yet.
func ErrRequestInProgress() *AppError {
	return New("IDEM_002", "A request with this idempotency key is still being processed", http.StatusConflict)
}

// ---- Orders (ORD) ----

func ErrOrderNotFound() *AppError {
	return New("ORD_001", "Order not found", http.StatusNotFound)
}

// ---- Ledger (LED) ----

// ErrLedgerImbalance signals that a candidate posting does not balance. It is
// fatal: the enclosing unit of work must abort rather than commit partial rows.
func ErrLedgerImbalance(err error) *AppError {
	return Wrap("LED_001", "Ledger posting is not balanced", http.StatusInternalServerError, err)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// Gateway protocol errors
	ErrValidation = errors.New("invalid request")
	ErrDecode     = errors.New("invalid response document")
	ErrGateway    = errors.New("gateway rejected request")

	// Integrator errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidSignature   = errors.New("notification signature mismatch")
	ErrAmountMismatch     = errors.New("notification does not match registered payment")
	ErrAlreadyProcessed   = errors.New("notification already processed")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("read database row")
	ErrInvalidExecContext = errors.New("invalid exec context")
)

// ValidationError reports a required request field that was left empty.
// It is raised before anything is sent over the wire.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s is required", ErrValidation, e.Field)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// DecodeError reports a response or notification document with a missing key
// or a value of the wrong shape.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Field == "" && e.Err == nil:
		return ErrDecode.Error()
	case e.Field == "":
		return fmt.Sprintf("%s: %v", ErrDecode, e.Err)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s is missing", ErrDecode, e.Field)
	}
	return fmt.Sprintf("%s: %s: %v", ErrDecode, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDecode}
	}
	return []error{ErrDecode, e.Err}
}

// GatewayError carries a non-2xx gateway outcome. It is terminal for the call.
type GatewayError struct {
	StatusCode int
	Body       string
	URI        string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("invalid HTTP response code: %d; response body: %s; request URI: %s", e.StatusCode, e.Body, e.URI)
}

func (e *GatewayError) Unwrap() error { return ErrGateway }

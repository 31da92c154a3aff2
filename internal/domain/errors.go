package domain

import "errors"

// ErrDomain matches every DomainError via errors.Is
var ErrDomain = errors.New("domain error")

// DomainError reports inputs for which the model is undefined, such as a
// discount rate at or below -100% or a negative capex.
type DomainError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return e.Operation + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Operation + ": " + e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrDomain) succeed for any DomainError
func (e *DomainError) Is(target error) bool {
	return target == ErrDomain
}

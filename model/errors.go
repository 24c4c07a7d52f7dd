package model

import (
	"github.com/pkg/errors"
)

var (
	ValidationError = errors.New("validation failed")
	IsValidation    = isErrorFunc(ValidationError)
	NotFoundError   = errors.New("not found")
	IsNotFound      = isErrorFunc(NotFoundError)
	// AlreadyExistsError is returned when an entity with the same name exists.
	AlreadyExistsError = errors.New("already exists")
	IsAlreadyExists    = isErrorFunc(AlreadyExistsError)
	// NotAcquiredError is returned when an operation requires an acquired place.
	NotAcquiredError = errors.New("not acquired")
	IsNotAcquired    = isErrorFunc(NotAcquiredError)

	maskAny = errors.WithStack
)

func isErrorFunc(typeOfError error) func(err error) bool {
	return func(err error) bool {
		return err == typeOfError || errors.Cause(err) == typeOfError
	}
}

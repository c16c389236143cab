package models

import (
	"errors"
)

// The error taxonomy for the finance core. Every error returned by this
// package wraps exactly one of these sentinels so that callers can map it
// to a response without string matching.
var (
	ErrGeneral          = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound = errors.New("there is no")
	ErrInvalid          = errors.New("invalid input")
	ErrUnauthorized     = errors.New("the authenticated user is not allowed to perform this action")
	ErrConflict         = errors.New("the operation collided with a concurrent change, try again")
)

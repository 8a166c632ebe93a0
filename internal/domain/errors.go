package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a resource is not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized is returned when a request carries no valid session
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrValidation is returned when request input cannot be interpreted
type ErrValidation struct {
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// ErrUpstream wraps a failure of the platform API or the generation service
type ErrUpstream struct {
	Service string
	Err     error
}

func (e *ErrUpstream) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
}

func (e *ErrUpstream) Unwrap() error {
	return e.Err
}

// ErrPlanLimit is returned when a free store would exceed its metafield quota
type ErrPlanLimit struct {
	Limit     int
	Used      int
	Requested int
}

func (e *ErrPlanLimit) Error() string {
	return fmt.Sprintf("plan limit exceeded: %d of %d metafields used, %d requested", e.Used, e.Limit, e.Requested)
}

// ErrUnhandledTopic is returned by the dispatcher when no handler owns a topic
var ErrUnhandledTopic = errors.New("unhandled webhook topic")

package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used with errors.Is to classify failures.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrExternal   = errors.New("external collaborator failed")
)

// NotFoundError reports an unknown id of the given kind.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotConnectedError reports a data source with no registry entry.
type NotConnectedError struct {
	SourceID string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("source %s is not connected", e.SourceID)
}

func (e *NotConnectedError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError reports malformed caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ExternalError wraps a failed or timed-out collaborator call.
type ExternalError struct {
	Collaborator string
	Err          error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Collaborator, e.Err)
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}

func (e *ExternalError) Is(target error) bool {
	return target == ErrExternal
}

// NewCampaignNotFound builds the error returned for an unknown campaign id.
func NewCampaignNotFound(campaignID string) error {
	return &NotFoundError{Kind: "campaign", ID: campaignID}
}

// NewConnectionNotFound builds the error returned for an unknown connection id.
func NewConnectionNotFound(connectionID string) error {
	return &NotFoundError{Kind: "connection", ID: connectionID}
}

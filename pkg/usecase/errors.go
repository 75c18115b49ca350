package usecase

import (
	"errors"

	"github.com/secmon-lab/kottos/pkg/domain/interfaces"
)

// Sentinel errors for use case layer
var (
	// Pipeline errors
	ErrClassificationSkip = errors.New("message skipped by classification")
	ErrUpsertConflict     = interfaces.ErrUpsertConflict

	// Reconcile errors
	ErrReconcileSource   = errors.New("failed to reconcile issue")
	ErrReconcileInFlight = errors.New("reconcile already in flight")

	// Task errors
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidTransition = errors.New("invalid status transition")

	// Access control errors
	ErrAccessDenied    = errors.New("access denied")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Context keys for error values
const (
	TaskIDKey     = "task_id"
	UserIDKey     = "user_id"
	SourceKey     = "source"
	ExternalIDKey = "external_id"
)

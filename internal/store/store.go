// Package store persists registration records keyed by email, with a
// secondary lookup by reference code. Backends: DynamoDB (default),
// PostgreSQL, Redis, and an in-memory map for development and tests.
package store

import (
	"context"
	"errors"

	"github.com/dayregister/backend/internal/models"
)

// Sentinel errors decided by each driver. Callers match with errors.Is and
// never inspect backend-specific error strings or codes.
var (
	// ErrAlreadyExists means an insert precondition (record absent) failed.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrNotFound means an update/delete precondition (record present) failed.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable means the backend could not be reached.
	ErrUnavailable = errors.New("store unavailable")
)

// Store is a keyed registration record store. The conditional operations are
// atomic: the existence precondition and the mutation happen as a single
// operation at the backend, so concurrent writers for the same email race at
// the store, not in application code.
//
// Lookups return (nil, nil) when no record exists.
type Store interface {
	GetByEmail(ctx context.Context, email string) (*models.Registration, error)
	GetByReference(ctx context.Context, reference string) (*models.Registration, error)
	InsertIfAbsent(ctx context.Context, rec *models.Registration) error
	UpdateIfPresent(ctx context.Context, email string, patch Patch) error
	DeleteIfPresent(ctx context.Context, email string) error
}

// Patch is the set of attributes rewritten by an update. Email and Name are
// immutable after creation.
type Patch struct {
	RegisterDate string
	ReferenceID  string
	LogTime      string
	ExpiryTime   int64
}

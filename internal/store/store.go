// Package store defines the persistence boundary of the license service.
//
// The Store interface is the only shared mutable resource in the system;
// the services on top of it are stateless. Two drivers implement it: a
// PostgreSQL driver (subpackage postgres) for production and an in-memory
// driver for development and tests. Correctness of the review transition
// depends entirely on Decide's atomicity guarantee, never on locks held
// in application memory.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"licport/internal/license"
)

// ListFilter narrows administrative listings. A nil Status means all
// statuses. Limit and Offset page the result; drivers clamp Limit to
// sane bounds.
type ListFilter struct {
	Status *license.Status
	Limit  int
	Offset int

	// OldestFirst orders ascending by creation instant. Pending review
	// queues are served oldest first; everything else newest first.
	OldestFirst bool
}

// Decision carries every field of one review verdict. All fields are
// written together or not at all.
type Decision struct {
	Status         license.Status
	ReviewedBy     string
	ReviewComments string
	ReviewDate     time.Time

	// LicenseKey is set only when Status is approved.
	LicenseKey string

	// ExpiryDate, when non-nil, replaces the stored expiry (official
	// approval). Nil preserves the stored value (trial approval keeps
	// its submission-time expiry; rejection changes nothing).
	ExpiryDate *time.Time
}

// Store is the persistence contract for license applications.
//
// All methods return domain errors from internal/errors: NewNotFound for
// missing ids, NewConflict for refused transitions, NewPersistence for
// driver failures.
type Store interface {
	// Create persists a new pending application and assigns its id.
	// The expiry, when present, is written in the same atomic operation
	// as the insert.
	Create(ctx context.Context, app *license.Application) (*license.Application, error)

	// Get returns the application with the given id.
	Get(ctx context.Context, id uuid.UUID) (*license.Application, error)

	// ListByOwner returns every application owned by ownerID, newest
	// first.
	ListByOwner(ctx context.Context, ownerID string) ([]license.Application, error)

	// List returns applications matching the filter.
	List(ctx context.Context, filter ListFilter) ([]license.Application, error)

	// Decide atomically transitions a pending application to the
	// decision's terminal status. The status check and the write execute
	// as one isolated unit: of two racing calls on the same id exactly
	// one succeeds and the other observes a conflict naming the winner's
	// status. A failure leaves the record untouched.
	Decide(ctx context.Context, id uuid.UUID, d Decision) (*license.Application, error)

	// FindByKeyAndFingerprint returns the application matching the exact
	// (licenseKey, canonical fingerprint) pair, or a not-found error.
	FindByKeyAndFingerprint(ctx context.Context, key, fingerprint string) (*license.Application, error)

	// Ping reports store reachability for health checks.
	Ping(ctx context.Context) error

	// Close releases the underlying resources.
	Close() error
}

// Pagination bounds shared by all drivers, mirroring the public listing
// contract (limit 1..100, default 100).
const (
	DefaultListLimit = 100
	MaxListLimit     = 100
)

// ClampLimit normalizes a requested page size into driver bounds.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

package license

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies the license variant being applied for.
type Type string

const (
	TypeTrial    Type = "trial"
	TypeOfficial Type = "official"
)

// Validity windows are fixed per type. A trial expiry is computed when the
// application is created; an official expiry is computed when it is approved.
const (
	TrialValidity    = 15 * 24 * time.Hour
	OfficialValidity = 365 * 24 * time.Hour
)

// Valid reports whether t is a known license type.
func (t Type) Valid() bool {
	return t == TypeTrial || t == TypeOfficial
}

// Validity returns the validity window for the type.
func (t Type) Validity() time.Duration {
	if t == TypeTrial {
		return TrialValidity
	}
	return OfficialValidity
}

// Status is the lifecycle state of a license application.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Decision is the administrative verdict on a pending application.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Valid reports whether d is a known decision.
func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// Status returns the terminal status the decision leads to.
func (d Decision) Status() Status {
	if d == DecisionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// Applicant holds the contact details captured at submission.
// Immutable after creation.
type Applicant struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
}

// Application is the sole persisted entity of the license lifecycle.
//
// Invariants, enforced by the store and checked by Validate:
//   - LicenseKey is non-empty if and only if Status is approved.
//   - Status only ever moves pending -> approved or pending -> rejected.
//   - A trial ExpiryDate is fixed at creation and never recomputed.
//   - An official ExpiryDate is fixed at approval and never recomputed.
//   - Fingerprint is stored in canonical form only.
type Application struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Applicant   Applicant `json:"applicant"`
	Type        Type      `json:"license_type"`
	Fingerprint string    `json:"mac_address"`
	Reason      string    `json:"application_reason,omitempty"`

	Status     Status `json:"status"`
	LicenseKey string `json:"license_key,omitempty"`

	ExpiryDate *time.Time `json:"expiry_date,omitempty"`

	ReviewedBy     string     `json:"reviewed_by,omitempty"`
	ReviewComments string     `json:"review_comments,omitempty"`
	ReviewDate     *time.Time `json:"review_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Approved reports whether the application carries a usable license.
func (a *Application) Approved() bool {
	return a.Status == StatusApproved
}

// ExpiredAt reports whether the stored expiry lies strictly before now.
// Applications without an expiry never expire.
func (a *Application) ExpiredAt(now time.Time) bool {
	return a.ExpiryDate != nil && a.ExpiryDate.Before(now)
}

// Validate checks the record-level invariants that must hold at every
// observable point of the lifecycle.
func (a *Application) Validate() error {
	if !a.Type.Valid() {
		return NewInvariantError("license_type", string(a.Type))
	}
	if !a.Status.Valid() {
		return NewInvariantError("status", string(a.Status))
	}
	if (a.LicenseKey != "") != (a.Status == StatusApproved) {
		return NewInvariantError("license_key", "key presence must match approved status")
	}
	if a.Status.Terminal() && a.ReviewDate == nil {
		return NewInvariantError("review_date", "decided application without review instant")
	}
	if a.Type == TypeTrial && a.ExpiryDate == nil {
		return NewInvariantError("expiry_date", "trial application without expiry")
	}
	return nil
}

// InvariantError reports a corrupted record that violates the data model.
type InvariantError struct {
	Field  string
	Detail string
}

// NewInvariantError creates an InvariantError for the given field.
func NewInvariantError(field, detail string) *InvariantError {
	return &InvariantError{Field: field, Detail: detail}
}

func (e *InvariantError) Error() string {
	return "license invariant violated: " + e.Field + ": " + e.Detail
}

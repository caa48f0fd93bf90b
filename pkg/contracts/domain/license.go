// Package domain contains the wire contracts of the license application
// service. These types are the single source of truth for request and
// response shapes across the transport and service layers.
package domain

import (
	"time"

	"licport/internal/license"
)

// Role is the caller role resolved by the external auth layer.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Caller is the resolved identity attached to each request. The core
// trusts this as an opaque fact and never re-derives it.
type Caller struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// IsAdmin reports whether the caller holds the admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// SubmitApplicationRequest is the payload for creating a license
// application.
type SubmitApplicationRequest struct {
	ApplicantName     string `json:"applicant_name" validate:"required"`
	ApplicantEmail    string `json:"applicant_email" validate:"required,email"`
	ApplicantPhone    string `json:"applicant_phone,omitempty"`
	CompanyName       string `json:"company_name,omitempty"`
	LicenseType       string `json:"license_type" validate:"required,oneof=trial official"`
	MACAddress        string `json:"mac_address" validate:"required"`
	ApplicationReason string `json:"application_reason,omitempty"`
}

// ReviewApplicationRequest is the payload for the administrative decision
// on a pending application.
type ReviewApplicationRequest struct {
	Decision   string `json:"decision" validate:"required,oneof=approve reject"`
	Comments   string `json:"comments" validate:"required"`
	LicenseKey string `json:"license_key,omitempty"`
}

// VerifyRequest is the payload for the public license verification check.
type VerifyRequest struct {
	LicenseKey string `json:"license_key" validate:"required"`
	MACAddress string `json:"mac_address" validate:"required"`
}

// VerificationResult is the time-relative verdict over an issued key.
// Reason is set only on invalid verdicts: not_found, invalid_status or
// expired.
type VerificationResult struct {
	Valid       bool            `json:"valid"`
	Reason      string          `json:"reason,omitempty"`
	Status      license.Status  `json:"status,omitempty"`
	LicenseType license.Type    `json:"license_type,omitempty"`
	ExpiryDate  *time.Time      `json:"expiry_date,omitempty"`
	CheckedAt   time.Time       `json:"checked_at"`
}

// Verification verdict reasons.
const (
	VerifyReasonNotFound      = "not_found"
	VerifyReasonInvalidStatus = "invalid_status"
	VerifyReasonExpired       = "expired"
)

// ApplicationResponse wraps a single application for transport.
type ApplicationResponse struct {
	Application *license.Application `json:"license"`
	TraceID     string               `json:"trace_id,omitempty"`
}

// ApplicationListResponse wraps a listing for transport.
type ApplicationListResponse struct {
	Results  int                   `json:"results"`
	Licenses []license.Application `json:"licenses"`
	TraceID  string                `json:"trace_id,omitempty"`
}

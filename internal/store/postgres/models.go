package postgres

import (
	"time"

	"github.com/google/uuid"

	"licport/internal/license"
)

// licenseModel is the GORM mapping of the licenses table. The column set
// is the persisted layout: applicant contact fields, the immutable
// application facts, and the review outcome.
type licenseModel struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ApplicantName     string     `gorm:"column:applicant_name;not null"`
	ApplicantEmail    string     `gorm:"column:applicant_email;not null"`
	ApplicantPhone    *string    `gorm:"column:applicant_phone"`
	CompanyName       *string    `gorm:"column:company_name"`
	LicenseType       string     `gorm:"column:license_type;not null"`
	MACAddress        string     `gorm:"column:mac_address;not null"`
	ApplicationReason *string    `gorm:"column:application_reason"`
	LicenseKey        *string    `gorm:"column:license_key"`
	Status            string     `gorm:"column:status;not null"`
	CreatedAt         time.Time  `gorm:"column:created_at;not null"`
	ExpiryDate        *time.Time `gorm:"column:expiry_date"`
	ReviewedBy        *string    `gorm:"column:reviewed_by"`
	ReviewDate        *time.Time `gorm:"column:review_date"`
	ReviewComments    *string    `gorm:"column:review_comments"`
	UserID            string     `gorm:"column:user_id;not null"`
}

func (licenseModel) TableName() string { return "licenses" }

func toModel(app *license.Application) licenseModel {
	return licenseModel{
		ID:                app.ID,
		ApplicantName:     app.Applicant.Name,
		ApplicantEmail:    app.Applicant.Email,
		ApplicantPhone:    optional(app.Applicant.Phone),
		CompanyName:       optional(app.Applicant.Company),
		LicenseType:       string(app.Type),
		MACAddress:        app.Fingerprint,
		ApplicationReason: optional(app.Reason),
		LicenseKey:        optional(app.LicenseKey),
		Status:            string(app.Status),
		CreatedAt:         app.CreatedAt,
		ExpiryDate:        app.ExpiryDate,
		ReviewedBy:        optional(app.ReviewedBy),
		ReviewDate:        app.ReviewDate,
		ReviewComments:    optional(app.ReviewComments),
		UserID:            app.OwnerID,
	}
}

func toDomain(m licenseModel) license.Application {
	return license.Application{
		ID:      m.ID,
		OwnerID: m.UserID,
		Applicant: license.Applicant{
			Name:    m.ApplicantName,
			Email:   m.ApplicantEmail,
			Phone:   deref(m.ApplicantPhone),
			Company: deref(m.CompanyName),
		},
		Type:           license.Type(m.LicenseType),
		Fingerprint:    m.MACAddress,
		Reason:         deref(m.ApplicationReason),
		Status:         license.Status(m.Status),
		LicenseKey:     deref(m.LicenseKey),
		ExpiryDate:     m.ExpiryDate,
		ReviewedBy:     deref(m.ReviewedBy),
		ReviewComments: deref(m.ReviewComments),
		ReviewDate:     m.ReviewDate,
		CreatedAt:      m.CreatedAt,
	}
}

func toDomainList(models []licenseModel) []license.Application {
	out := make([]license.Application, 0, len(models))
	for _, m := range models {
		out = append(out, toDomain(m))
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

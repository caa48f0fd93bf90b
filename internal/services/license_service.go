package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	apperrors "licport/internal/errors"
	"licport/internal/infrastructure"
	"licport/internal/license"
	"licport/internal/store"
	"licport/pkg/contracts/domain"
)

// LicenseService provides the business logic for the license application
// lifecycle: submission, listing, review decisions, and verification.
type LicenseService interface {
	Submit(ctx context.Context, caller domain.Caller, req *domain.SubmitApplicationRequest) (*license.Application, error)
	Get(ctx context.Context, caller domain.Caller, id uuid.UUID) (*license.Application, error)
	ListMine(ctx context.Context, caller domain.Caller) ([]license.Application, error)
	ListAll(ctx context.Context, caller domain.Caller, status *license.Status, limit, offset int) ([]license.Application, error)
	ListPending(ctx context.Context, caller domain.Caller) ([]license.Application, error)
	Review(ctx context.Context, caller domain.Caller, id uuid.UUID, req *domain.ReviewApplicationRequest) (*license.Application, error)
	Verify(ctx context.Context, req *domain.VerifyRequest) (*domain.VerificationResult, error)
}

type licenseService struct {
	store   store.Store
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
	now     func() time.Time
}

// NewLicenseService creates the service with its dependencies. The metrics
// argument may be nil, in which case no metrics are recorded.
func NewLicenseService(st store.Store, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) LicenseService {
	return NewLicenseServiceWithClock(st, logger, metrics, time.Now)
}

// NewLicenseServiceWithClock is like NewLicenseService but with an
// injectable clock. Expiry computation and verification verdicts depend on
// the current instant, so tests need to control it.
func NewLicenseServiceWithClock(st store.Store, logger *slog.Logger, metrics *infrastructure.BusinessMetrics, now func() time.Time) LicenseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &licenseService{
		store:   st,
		logger:  logger,
		tracer:  otel.Tracer("licport/services"),
		metrics: metrics,
		now:     now,
	}
}

// Submit creates a pending application owned by the caller. A trial
// application gets its expiry computed here so that the record is complete
// in the single insert that creates it.
func (s *licenseService) Submit(ctx context.Context, caller domain.Caller, req *domain.SubmitApplicationRequest) (*license.Application, error) {
	ctx, span := s.tracer.Start(ctx, "LicenseService.Submit")
	defer span.End()

	licenseType := license.Type(req.LicenseType)
	if !licenseType.Valid() {
		return nil, apperrors.NewValidation("license_type", "must be trial or official")
	}

	fingerprint, err := license.CanonicalFingerprint(req.MACAddress)
	if err != nil {
		return nil, apperrors.NewValidation("mac_address", "must be a MAC address like 00:1B:44:11:3A:B7")
	}

	now := s.now()
	app := &license.Application{
		OwnerID: caller.ID,
		Applicant: license.Applicant{
			Name:    req.ApplicantName,
			Email:   req.ApplicantEmail,
			Phone:   req.ApplicantPhone,
			Company: req.CompanyName,
		},
		Type:        licenseType,
		Fingerprint: fingerprint,
		Reason:      req.ApplicationReason,
		Status:      license.StatusPending,
		CreatedAt:   now,
	}

	if licenseType == license.TypeTrial {
		expiry := now.Add(license.TrialValidity)
		app.ExpiryDate = &expiry
	}

	created, err := s.store.Create(ctx, app)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("application.id", created.ID.String()),
		attribute.String("license.type", string(licenseType)),
	)
	s.logger.InfoContext(ctx, "license application submitted",
		slog.String("application_id", created.ID.String()),
		slog.String("owner_id", caller.ID),
		slog.String("license_type", string(licenseType)))

	if s.metrics != nil {
		s.metrics.ApplicationsSubmitted.Add(ctx, 1,
			metric.WithAttributes(attribute.String("license.type", string(licenseType))))
	}

	return created, nil
}

// Get returns a single application. Regular callers may only read their
// own records; admins may read any.
func (s *licenseService) Get(ctx context.Context, caller domain.Caller, id uuid.UUID) (*license.Application, error) {
	ctx, span := s.tracer.Start(ctx, "LicenseService.Get")
	defer span.End()

	app, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !caller.IsAdmin() && app.OwnerID != caller.ID {
		// Reported as not found so callers cannot probe for foreign IDs.
		return nil, apperrors.NewNotFound(id.String())
	}

	return app, nil
}

// ListMine returns the caller's own applications, newest first.
func (s *licenseService) ListMine(ctx context.Context, caller domain.Caller) ([]license.Application, error) {
	ctx, span := s.tracer.Start(ctx, "LicenseService.ListMine")
	defer span.End()

	return s.store.ListByOwner(ctx, caller.ID)
}

// ListAll returns applications across all owners, optionally filtered by
// status. Admin only.
func (s *licenseService) ListAll(ctx context.Context, caller domain.Caller, status *license.Status, limit, offset int) ([]license.Application, error) {
	ctx, span := s.tracer.Start(ctx, "LicenseService.ListAll")
	defer span.End()

	if !caller.IsAdmin() {
		return nil, apperrors.NewAuthorization(string(domain.RoleAdmin))
	}
	if status != nil && !status.Valid() {
		return nil, apperrors.NewValidation("status", "must be pending, approved or rejected")
	}

	return s.store.List(ctx, store.ListFilter{
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
}

// ListPending returns the review queue, oldest first. Admin only.
func (s *licenseService) ListPending(ctx context.Context, caller domain.Caller) ([]license.Application, error) {
	ctx, span := s.tracer.Start(ctx, "LicenseService.ListPending")
	defer span.End()

	if !caller.IsAdmin() {
		return nil, apperrors.NewAuthorization(string(domain.RoleAdmin))
	}

	pending := license.StatusPending
	return s.store.List(ctx, store.ListFilter{
		Status:      &pending,
		OldestFirst: true,
	})
}

// Review applies the admin's decision to a pending application. The store
// performs the transition conditionally, so when two reviewers race only
// one decision lands; the loser observes a conflict.
func (s *licenseService) Review(ctx context.Context, caller domain.Caller, id uuid.UUID, req *domain.ReviewApplicationRequest) (*license.Application, error) {
	ctx, span := s.tracer.Start(ctx, "LicenseService.Review")
	defer span.End()

	if !caller.IsAdmin() {
		return nil, apperrors.NewAuthorization(string(domain.RoleAdmin))
	}

	decision := license.Decision(req.Decision)
	if !decision.Valid() {
		return nil, apperrors.NewValidation("decision", "must be approve or reject")
	}

	app, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status.Terminal() {
		if s.metrics != nil {
			s.metrics.ReviewConflicts.Add(ctx, 1)
		}
		return nil, apperrors.NewConflict(string(app.Status))
	}

	now := s.now()
	d := store.Decision{
		Status:         decision.Status(),
		ReviewedBy:     caller.ID,
		ReviewComments: req.Comments,
		ReviewDate:     now,
	}

	if decision == license.DecisionApprove {
		// A trial keeps the expiry fixed at submission; an official
		// license runs for its full window from the decision instant.
		expiry := now.Add(license.OfficialValidity)
		if app.Type == license.TypeTrial && app.ExpiryDate != nil {
			expiry = *app.ExpiryDate
		}
		d.ExpiryDate = &expiry

		if req.LicenseKey != "" {
			d.LicenseKey = req.LicenseKey
		} else {
			d.LicenseKey = license.GenerateKey(app.Fingerprint, app.Type, expiry)
		}
	}

	decided, err := s.store.Decide(ctx, id, d)
	if err != nil {
		if apperrors.IsConflict(err) && s.metrics != nil {
			s.metrics.ReviewConflicts.Add(ctx, 1)
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.String("application.id", id.String()),
		attribute.String("review.decision", string(decision)),
	)
	s.logger.InfoContext(ctx, "license application reviewed",
		slog.String("application_id", id.String()),
		slog.String("decision", string(decision)),
		slog.String("reviewed_by", caller.ID))

	if s.metrics != nil {
		s.metrics.ApplicationsReviewed.Add(ctx, 1,
			metric.WithAttributes(attribute.String("review.decision", string(decision))))
	}

	return decided, nil
}

// Verify answers whether a (key, device) pair names a currently usable
// license. It never mutates state: an expired license stays approved in
// the store, the verdict is computed against the clock at read time.
func (s *licenseService) Verify(ctx context.Context, req *domain.VerifyRequest) (*domain.VerificationResult, error) {
	ctx, span := s.tracer.Start(ctx, "LicenseService.Verify")
	defer span.End()

	start := s.now()
	result, err := s.verify(ctx, req, start)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.VerificationChecks.Add(ctx, 1)
		if !result.Valid {
			s.metrics.VerificationFailures.Add(ctx, 1,
				metric.WithAttributes(attribute.String("reason", result.Reason)))
		}
		s.metrics.VerificationDuration.Record(ctx, time.Since(start).Seconds())
	}

	span.SetAttributes(attribute.Bool("license.valid", result.Valid))
	if result.Reason != "" {
		span.SetAttributes(attribute.String("license.invalid_reason", result.Reason))
	}

	return result, nil
}

func (s *licenseService) verify(ctx context.Context, req *domain.VerifyRequest, now time.Time) (*domain.VerificationResult, error) {
	fingerprint, err := license.CanonicalFingerprint(req.MACAddress)
	if err != nil {
		// A malformed fingerprint cannot match any stored record.
		return &domain.VerificationResult{
			Valid:     false,
			Reason:    domain.VerifyReasonNotFound,
			CheckedAt: now,
		}, nil
	}

	app, err := s.store.FindByKeyAndFingerprint(ctx, req.LicenseKey, fingerprint)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return &domain.VerificationResult{
				Valid:     false,
				Reason:    domain.VerifyReasonNotFound,
				CheckedAt: now,
			}, nil
		}
		return nil, err
	}

	if !app.Approved() {
		return &domain.VerificationResult{
			Valid:     false,
			Reason:    domain.VerifyReasonInvalidStatus,
			Status:    app.Status,
			CheckedAt: now,
		}, nil
	}

	if app.ExpiredAt(now) {
		return &domain.VerificationResult{
			Valid:       false,
			Reason:      domain.VerifyReasonExpired,
			Status:      app.Status,
			LicenseType: app.Type,
			ExpiryDate:  app.ExpiryDate,
			CheckedAt:   now,
		}, nil
	}

	return &domain.VerificationResult{
		Valid:       true,
		Status:      app.Status,
		LicenseType: app.Type,
		ExpiryDate:  app.ExpiryDate,
		CheckedAt:   now,
	}, nil
}

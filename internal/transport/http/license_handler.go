package http

import (
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "licport/internal/errors"
	"licport/internal/infrastructure"
	"licport/internal/license"
	"licport/internal/middleware"
	"licport/internal/services"
	"licport/pkg/contracts/domain"
)

// LicenseHandler handles license application HTTP requests
type LicenseHandler struct {
	service  services.LicenseService
	logger   *slog.Logger
	validate *validator.Validate
	tracer   trace.Tracer
}

// NewLicenseHandler creates a new license handler
func NewLicenseHandler(service services.LicenseService, logger *slog.Logger) *LicenseHandler {
	return &LicenseHandler{
		service:  service,
		logger:   logger.With(slog.String("handler", "license")),
		validate: newValidator(),
		tracer:   otel.Tracer("licport/transport"),
	}
}

// newValidator builds the request validator with JSON field names in
// error messages.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Routes returns a chi router for the license application endpoints.
// All routes assume the caller was resolved by the auth middleware;
// admin-only routes are additionally gated here.
func (h *LicenseHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Post("/", h.Submit)
	r.Get("/my", h.ListMine)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(h.logger))
		r.Get("/", h.ListAll)
		r.Get("/pending", h.ListPending)
		r.Put("/{id}/review", h.Review)
	})

	return r
}

// Submit handles POST /api/v1/licenses
func (h *LicenseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "license_handler.submit",
		trace.WithAttributes(attribute.String("http.route", "/api/v1/licenses")),
	)
	defer span.End()

	caller, ok := middleware.CallerFromContext(ctx)
	if !ok {
		h.handleError(w, r, apperrors.NewAuthorization("authenticated"))
		return
	}

	var req domain.SubmitApplicationRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.handleError(w, r, apperrors.NewValidation("body", "request body must be valid JSON"))
		return
	}
	if err := h.validate.StructCtx(ctx, &req); err != nil {
		h.handleError(w, r, validationError(err))
		return
	}

	app, err := h.service.Submit(ctx, caller, &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	span.SetAttributes(attribute.String("application.id", app.ID.String()))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, domain.ApplicationResponse{
		Application: app,
		TraceID:     infrastructure.GetTraceID(ctx),
	})
}

// ListMine handles GET /api/v1/licenses/my
func (h *LicenseHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "license_handler.list_mine")
	defer span.End()

	caller, ok := middleware.CallerFromContext(ctx)
	if !ok {
		h.handleError(w, r, apperrors.NewAuthorization("authenticated"))
		return
	}

	apps, err := h.service.ListMine(ctx, caller)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.JSON(w, r, domain.ApplicationListResponse{
		Results:  len(apps),
		Licenses: apps,
		TraceID:  infrastructure.GetTraceID(ctx),
	})
}

// Get handles GET /api/v1/licenses/{id}
func (h *LicenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "license_handler.get")
	defer span.End()

	caller, ok := middleware.CallerFromContext(ctx)
	if !ok {
		h.handleError(w, r, apperrors.NewAuthorization("authenticated"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, apperrors.NewValidation("id", "must be a UUID"))
		return
	}

	app, err := h.service.Get(ctx, caller, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.JSON(w, r, domain.ApplicationResponse{
		Application: app,
		TraceID:     infrastructure.GetTraceID(ctx),
	})
}

// ListAll handles GET /api/v1/licenses with optional status, limit and
// offset query parameters. Admin only.
func (h *LicenseHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "license_handler.list_all")
	defer span.End()

	caller, ok := middleware.CallerFromContext(ctx)
	if !ok {
		h.handleError(w, r, apperrors.NewAuthorization("authenticated"))
		return
	}

	var status *license.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := license.Status(raw)
		status = &s
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	apps, err := h.service.ListAll(ctx, caller, status, limit, offset)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.JSON(w, r, domain.ApplicationListResponse{
		Results:  len(apps),
		Licenses: apps,
		TraceID:  infrastructure.GetTraceID(ctx),
	})
}

// ListPending handles GET /api/v1/licenses/pending. Admin only.
func (h *LicenseHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "license_handler.list_pending")
	defer span.End()

	caller, ok := middleware.CallerFromContext(ctx)
	if !ok {
		h.handleError(w, r, apperrors.NewAuthorization("authenticated"))
		return
	}

	apps, err := h.service.ListPending(ctx, caller)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.JSON(w, r, domain.ApplicationListResponse{
		Results:  len(apps),
		Licenses: apps,
		TraceID:  infrastructure.GetTraceID(ctx),
	})
}

// Review handles PUT /api/v1/licenses/{id}/review. Admin only.
func (h *LicenseHandler) Review(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "license_handler.review")
	defer span.End()

	caller, ok := middleware.CallerFromContext(ctx)
	if !ok {
		h.handleError(w, r, apperrors.NewAuthorization("authenticated"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, apperrors.NewValidation("id", "must be a UUID"))
		return
	}

	var req domain.ReviewApplicationRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.handleError(w, r, apperrors.NewValidation("body", "request body must be valid JSON"))
		return
	}
	if err := h.validate.StructCtx(ctx, &req); err != nil {
		h.handleError(w, r, validationError(err))
		return
	}

	app, err := h.service.Review(ctx, caller, id, &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	span.SetAttributes(
		attribute.String("application.id", id.String()),
		attribute.String("review.decision", req.Decision),
	)

	render.JSON(w, r, domain.ApplicationResponse{
		Application: app,
		TraceID:     infrastructure.GetTraceID(ctx),
	})
}

// handleError centralizes error rendering for the handler
func (h *LicenseHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	traceID := infrastructure.GetTraceID(ctx)

	h.logger.ErrorContext(ctx, "request failed",
		slog.String("error", err.Error()),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method))

	render.Render(w, r, apperrors.Map(err, traceID, r.URL.Path))
}

// validationError converts a validator.ValidationErrors into the first
// field's domain validation error.
func validationError(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		return apperrors.NewValidation(fe.Field(), "failed the "+fe.Tag()+" constraint")
	}
	return apperrors.NewValidation("body", err.Error())
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.NewValidation(name, "must be a non-negative integer")
	}
	return n, nil
}

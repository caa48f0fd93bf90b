package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "licport/internal/errors"
	"licport/internal/infrastructure"
	"licport/internal/services"
	"licport/pkg/contracts/domain"
)

// VerifyHandler handles the public license verification endpoint. It is
// the only business route that runs without authentication: licensed
// installations call it from the field with nothing but their key and
// device fingerprint.
type VerifyHandler struct {
	service  services.LicenseService
	logger   *slog.Logger
	validate *validator.Validate
	tracer   trace.Tracer
}

// NewVerifyHandler creates a new verify handler
func NewVerifyHandler(service services.LicenseService, logger *slog.Logger) *VerifyHandler {
	return &VerifyHandler{
		service:  service,
		logger:   logger.With(slog.String("handler", "verify")),
		validate: newValidator(),
		tracer:   otel.Tracer("licport/transport"),
	}
}

// Routes returns a chi router for the verification endpoint
func (h *VerifyHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Timeout(10 * time.Second))
	r.Post("/", h.Verify)

	return r
}

// Verify handles POST /api/v1/verify
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "verify_handler.verify",
		trace.WithAttributes(attribute.String("http.route", "/api/v1/verify")),
	)
	defer span.End()

	var req domain.VerifyRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.handleError(w, r, apperrors.NewValidation("body", "request body must be valid JSON"))
		return
	}
	if err := h.validate.StructCtx(ctx, &req); err != nil {
		h.handleError(w, r, validationError(err))
		return
	}

	result, err := h.service.Verify(ctx, &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	span.SetAttributes(attribute.Bool("license.valid", result.Valid))

	render.JSON(w, r, result)
}

func (h *VerifyHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	traceID := infrastructure.GetTraceID(ctx)

	h.logger.ErrorContext(ctx, "verification request failed",
		slog.String("error", err.Error()),
		slog.String("path", r.URL.Path))

	render.Render(w, r, apperrors.Map(err, traceID, r.URL.Path))
}

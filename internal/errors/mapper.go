package errors

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/render"
)

// Map translates a domain error into an RFC 7807 response. Unrecognized
// errors map to a generic 500 so that internal detail never leaks.
func Map(err error, traceID, instance string) render.Renderer {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			"/errors/timeout",
			"Request Timeout",
			"The request timed out while processing. Please try again.",
			instance,
		).WithExtension("trace_id", traceID)

	case errors.Is(err, context.Canceled):
		return NewProblemDetails(
			http.StatusRequestTimeout,
			"/errors/request-canceled",
			"Request Canceled",
			"The request was canceled before completion.",
			instance,
		).WithExtension("trace_id", traceID)
	}

	var de *Error
	if !errors.As(err, &de) {
		return internalProblem(traceID, instance)
	}

	var pd *ProblemDetails
	switch de.Kind {
	case KindValidation:
		pd = NewProblemDetails(
			http.StatusBadRequest,
			"/errors/validation-failed",
			"Validation Failed",
			de.Message,
			instance,
		)
	case KindNotFound:
		pd = NewProblemDetails(
			http.StatusNotFound,
			"/errors/application-not-found",
			"Application Not Found",
			de.Message,
			instance,
		)
	case KindConflict:
		pd = NewProblemDetails(
			http.StatusConflict,
			"/errors/already-decided",
			"Application Already Decided",
			de.Message,
			instance,
		)
	case KindAuthorization:
		pd = NewProblemDetails(
			http.StatusForbidden,
			"/errors/forbidden",
			"Forbidden",
			de.Message,
			instance,
		)
	case KindPersistence:
		pd = NewProblemDetails(
			http.StatusInternalServerError,
			"/errors/store-failure",
			"Store Failure",
			"The underlying store failed to complete the operation. The request may be retried.",
			instance,
		)
	default:
		return internalProblem(traceID, instance)
	}

	pd.WithExtension("trace_id", traceID).WithExtension("error_kind", string(de.Kind))
	for k, v := range de.Context {
		// Persistence context may carry driver detail; keep it out of responses.
		if de.Kind == KindPersistence {
			break
		}
		pd.WithExtension(k, v)
	}
	return pd
}

func internalProblem(traceID, instance string) *ProblemDetails {
	return NewProblemDetails(
		http.StatusInternalServerError,
		"/errors/internal-error",
		"Internal Server Error",
		"An unexpected error occurred while processing your request.",
		instance,
	).WithExtension("trace_id", traceID)
}

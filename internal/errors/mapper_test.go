package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderProblem(t *testing.T, err error) (int, map[string]any) {
	t.Helper()

	r := httptest.NewRequest(http.MethodGet, "/api/licenses", nil)
	w := httptest.NewRecorder()

	problem := Map(err, "trace-1", "/api/licenses#trace-1")
	require.NoError(t, render.Render(w, r, problem))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestMap(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"validation", NewValidation("mac_address", "malformed"), http.StatusBadRequest, "/errors/validation-failed"},
		{"not found", NewNotFound("9"), http.StatusNotFound, "/errors/application-not-found"},
		{"conflict", NewConflict("rejected"), http.StatusConflict, "/errors/already-decided"},
		{"authorization", NewAuthorization("admin"), http.StatusForbidden, "/errors/forbidden"},
		{"persistence", NewPersistence("list", errors.New("down")), http.StatusInternalServerError, "/errors/store-failure"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "/errors/timeout"},
		{"canceled", context.Canceled, http.StatusRequestTimeout, "/errors/request-canceled"},
		{"unknown", errors.New("mystery"), http.StatusInternalServerError, "/errors/internal-error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := renderProblem(t, tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "trace-1", body["trace_id"])
		})
	}
}

func TestMapConflictCarriesCurrentStatus(t *testing.T) {
	_, body := renderProblem(t, NewConflict("approved"))
	assert.Equal(t, "approved", body["current_status"])
}

func TestMapPersistenceHidesDriverDetail(t *testing.T) {
	status, body := renderProblem(t, NewPersistence("create", errors.New("pq: secret dsn")))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, body, "operation")
	detail, _ := body["detail"].(string)
	assert.NotContains(t, detail, "pq:")
}

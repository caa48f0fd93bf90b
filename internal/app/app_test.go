package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licport/internal/infrastructure"
	"licport/pkg/contracts/domain"
)

const testSecret = "app-test-secret"

// newTestApplication builds a fully wired application on the in-memory
// store. The logger singleton is reset so every test gets a logger built
// from its own environment.
func newTestApplication(t *testing.T) *Application {
	t.Helper()

	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	t.Setenv("LICPORT_AUTH_JWT_SECRET", testSecret)
	t.Setenv("LICPORT_STORAGE_DRIVER", "memory")
	t.Setenv("LICPORT_LOGGING_LEVEL", "error")

	app, err := NewApplication()
	require.NoError(t, err)
	require.NotNil(t, app.Router)
	require.NotNil(t, app.Server)
	require.NotNil(t, app.Store)
	return app
}

func signToken(t *testing.T, subject string, role domain.Role) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":  subject,
		"role": string(role),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, server *httptest.Server, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestNewApplicationRequiresJWTSecret(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	t.Setenv("LICPORT_AUTH_JWT_SECRET", "")

	_, err := NewApplication()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt secret")
}

func TestApplicationHealthAndMetricsEndpoints(t *testing.T) {
	app := newTestApplication(t)
	server := httptest.NewServer(app.Router)
	defer server.Close()

	resp, err := server.Client().Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health["status"])

	metricsResp, err := server.Client().Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
}

func TestApplicationRejectsAnonymousLicenseRoutes(t *testing.T) {
	app := newTestApplication(t)
	server := httptest.NewServer(app.Router)
	defer server.Close()

	resp, err := server.Client().Get(server.URL + "/api/v1/licenses/my")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/problem+json")
}

func TestApplicationLicenseLifecycle(t *testing.T) {
	app := newTestApplication(t)
	server := httptest.NewServer(app.Router)
	defer server.Close()

	userToken := signToken(t, "user-7", domain.RoleUser)
	adminToken := signToken(t, "admin-1", domain.RoleAdmin)

	// Submit an official application as a regular user.
	resp := doJSON(t, server, http.MethodPost, "/api/v1/licenses", userToken, domain.SubmitApplicationRequest{
		ApplicantName:  "Layla Hassan",
		ApplicantEmail: "layla@example.com",
		LicenseType:    "official",
		MACAddress:     "00:1B:44:11:3A:B7",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var submitted domain.ApplicationResponse
	decodeBody(t, resp, &submitted)
	require.NotNil(t, submitted.Application)
	assert.Equal(t, "user-7", submitted.Application.OwnerID)
	assert.Equal(t, "pending", string(submitted.Application.Status))
	assert.Empty(t, submitted.Application.LicenseKey)

	id := submitted.Application.ID.String()

	// The admin sees it in the pending queue.
	resp = doJSON(t, server, http.MethodGet, "/api/v1/licenses/pending", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pending domain.ApplicationListResponse
	decodeBody(t, resp, &pending)
	require.Equal(t, 1, pending.Results)
	assert.Equal(t, id, pending.Licenses[0].ID.String())

	// A regular user cannot reach the pending queue.
	resp = doJSON(t, server, http.MethodGet, "/api/v1/licenses/pending", userToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Approve it.
	resp = doJSON(t, server, http.MethodPut, fmt.Sprintf("/api/v1/licenses/%s/review", id), adminToken, domain.ReviewApplicationRequest{
		Decision: "approve",
		Comments: "verified business details",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reviewed domain.ApplicationResponse
	decodeBody(t, resp, &reviewed)
	require.NotNil(t, reviewed.Application)
	assert.Equal(t, "approved", string(reviewed.Application.Status))
	require.NotEmpty(t, reviewed.Application.LicenseKey)
	require.NotNil(t, reviewed.Application.ExpiryDate)

	// A second decision conflicts.
	resp = doJSON(t, server, http.MethodPut, fmt.Sprintf("/api/v1/licenses/%s/review", id), adminToken, domain.ReviewApplicationRequest{
		Decision: "reject",
		Comments: "changed my mind",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The issued key verifies without a token.
	resp = doJSON(t, server, http.MethodPost, "/api/v1/verify", "", domain.VerifyRequest{
		LicenseKey: reviewed.Application.LicenseKey,
		MACAddress: "00-1b-44-11-3a-b7",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var verdict domain.VerificationResult
	decodeBody(t, resp, &verdict)
	assert.True(t, verdict.Valid)
	assert.Empty(t, verdict.Reason)

	// A wrong device gets a not_found verdict, still HTTP 200.
	resp = doJSON(t, server, http.MethodPost, "/api/v1/verify", "", domain.VerifyRequest{
		LicenseKey: reviewed.Application.LicenseKey,
		MACAddress: "AA:BB:CC:DD:EE:FF",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var miss domain.VerificationResult
	decodeBody(t, resp, &miss)
	assert.False(t, miss.Valid)
	assert.Equal(t, domain.VerifyReasonNotFound, miss.Reason)
}

func TestApplicationStop(t *testing.T) {
	app := newTestApplication(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, app.Stop(ctx))
}

package server

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeaders(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/health/live", nil, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "cross-origin", resp.Header.Get("Cross-Origin-Resource-Policy"))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestReadiness(t *testing.T) {
	h := newHarness(t)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	resp := h.do(t, http.MethodGet, "/health/ready", nil, "", &body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"])
	assert.Equal(t, "disabled", body.Checks["redis"])

	sqlDB, err := h.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	resp = h.do(t, http.MethodGet, "/health/ready", nil, "", &body)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "unhealthy", body.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)

	h.do(t, http.MethodGet, "/health/live", nil, "", nil)
	resp := h.do(t, http.MethodGet, "/metrics", nil, "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUnknownRouteReturnsJSONError(t *testing.T) {
	h := newHarness(t)

	var body errorBody
	resp := h.do(t, http.MethodGet, "/api/nope", nil, "", &body)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, body.Message)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	srv := newTestServer(t, "test")

	for _, path := range []string{"/health", "/api/v1/health"} {
		w := srv.get(path)
		require.Equal(t, http.StatusOK, w.Code, path)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "test", body["environment"])
		assert.NotEmpty(t, body["message"])
		assert.NotEmpty(t, body["timestamp"])
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, "test")

	w := srv.get("/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Route /api/v1/nope not found"}`, w.Body.String())
}

func TestStackOnlyInDevelopment(t *testing.T) {
	dev := newTestServer(t, "development")
	env := decode(t, dev.get("/api/v1/gallery/images/999"))
	assert.False(t, env.Success)
	require.NotNil(t, env.Stack)
	assert.NotEmpty(t, *env.Stack)

	prod := newTestServer(t, "production")
	env = decode(t, prod.get("/api/v1/gallery/images/999"))
	assert.False(t, env.Success)
	assert.Nil(t, env.Stack)
}

func TestAdminGateInProduction(t *testing.T) {
	srv := newTestServer(t, "production")

	// public reads stay open
	assert.Equal(t, http.StatusOK, srv.get("/api/v1/gallery/images").Code)

	w := srv.get("/api/v1/admin/dashboard")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, decode(t, w).Success)

	req := multipartRequest(t, "/api/v1/gallery/images", map[string]string{"title": "x"}, pngFile("image", "a.png"))
	req.Header.Set("X-Admin-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, srv.do(req).Code)
	assert.Equal(t, 0, srv.storage.count())

	req = multipartRequest(t, "/api/v1/gallery/images", map[string]string{"title": "x"}, pngFile("image", "a.png"))
	req.Header.Set("X-Admin-Key", testAdminKey)
	assert.Equal(t, http.StatusCreated, srv.do(req).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, "test")
	srv.get("/api/v1/gallery/stats")

	w := srv.get("/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `gallery_http_requests_total{method="GET",route="/api/v1/gallery/stats",status="200"} 1`), w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, "production")

	req := newRequest(http.MethodOptions, "/api/v1/gallery/images")
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := srv.do(req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = newRequest(http.MethodGet, "/api/v1/gallery/images")
	req.Header.Set("Origin", "https://evil.example")
	w = srv.do(req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

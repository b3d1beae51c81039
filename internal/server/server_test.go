package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/visioneer-backend/internal/config"
	"github.com/wichananm65/visioneer-backend/internal/llm"
	"github.com/wichananm65/visioneer-backend/internal/logger"
	"github.com/wichananm65/visioneer-backend/internal/room"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := config.Default()
	cfg.Auth.JWTSecret = "server-test"
	cfg.Uploads.Dir = t.TempDir()

	res, err := Open(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close(context.Background()) })

	seeded, err := SeedIfEmpty(context.Background(), res.Products, logger.Nop())
	require.NoError(t, err)
	require.True(t, seeded)

	uploads, err := room.NewStore(cfg.Uploads.Dir)
	require.NoError(t, err)
	return New(cfg, res, llm.Disabled{}, uploads, logger.Nop())
}

func call(t *testing.T, app *fiber.App, method, path, body, token string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	b, _ := io.ReadAll(res.Body)
	var out map[string]any
	_ = json.Unmarshal(b, &out)
	return res.StatusCode, out
}

func TestServer_PublicRoutes(t *testing.T) {
	app := newTestApp(t)

	status, body := call(t, app, "GET", "/health", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	status, body = call(t, app, "GET", "/api/products", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 8)

	status, body = call(t, app, "GET", "/api/categories", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 6)

	// no API key configured: every recommendation comes from the catalog
	status, body = call(t, app, "POST", "/api/recommend", `{"preferences":{"styleTags":[]}}`, "")
	require.Equal(t, http.StatusOK, status)
	recs := body["data"].([]any)
	assert.Len(t, recs, 8)
	assert.Equal(t, 0.7, recs[0].(map[string]any)["matchScore"])

	req := httptest.NewRequest("GET", "/metrics", nil)
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	b, _ := io.ReadAll(res.Body)
	assert.Contains(t, string(b), "visioneer_recommend_outcomes_total")
}

func TestServer_ProtectedRoutesNeedSession(t *testing.T) {
	app := newTestApp(t)
	newProduct := `{"name":"Oak Shelf","price":120,"category":"furniture","styleTags":["rustic"]}`

	status, body := call(t, app, "POST", "/api/products", newProduct, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])

	status, _ = call(t, app, "POST", "/api/auth/register", `{"email":"owner@example.com","password":"Str0ngPass","name":"Owner"}`, "")
	require.Equal(t, http.StatusCreated, status)

	status, body = call(t, app, "POST", "/api/auth/login", `{"email":"owner@example.com","password":"Str0ngPass"}`, "")
	require.Equal(t, http.StatusOK, status)
	token := body["data"].(map[string]any)["token"].(string)

	status, body = call(t, app, "POST", "/api/products", newProduct, token)
	require.Equal(t, http.StatusCreated, status)
	id := body["data"].(map[string]any)["id"].(string)

	status, _ = call(t, app, "GET", "/api/products/"+id, "", "")
	assert.Equal(t, http.StatusOK, status)

	status, body = call(t, app, "GET", "/api/models/glb/furniture", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["data"])
	status, _ = call(t, app, "POST", "/api/models/glb/furniture/shelf.glb", "", "")
	assert.Equal(t, http.StatusUnauthorized, status, "model upload needs a token")

	status, _ = call(t, app, "POST", "/api/auth/logout", "", token)
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, app, "DELETE", "/api/products/"+id, "", token)
	assert.Equal(t, http.StatusUnauthorized, status, "revoked token")
}

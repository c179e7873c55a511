package api

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/stackyard/internal/config"
	"evalgo.org/stackyard/internal/reconcile"
	"evalgo.org/stackyard/internal/routing"
	"evalgo.org/stackyard/models"
)

const testDocument = `services:
  web:
    image: nginx:latest
    labels:
      - "traefik.enable=true"
    networks:
      - edge

networks:
  edge:
    external: true
`

// apiMockStore backs the pipeline during handler tests.
type apiMockStore struct {
	doc  *models.ComposeDocument
	runs []*models.ReconciliationRun
}

func (m *apiMockStore) Load(target models.Target) (*models.ComposeDocument, error) {
	doc := *m.doc
	return &doc, nil
}

func (m *apiMockStore) Save(target models.Target, content, author string) (int, error) {
	return m.doc.Version + 1, nil
}

func (m *apiMockStore) SaveRun(run *models.ReconciliationRun) error {
	m.runs = append(m.runs, run)
	return nil
}

func testServer(t *testing.T, apiKeys []string) *Server {
	dir := t.TempDir()
	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Compose: config.ComposeConfig{
			MainPath:            filepath.Join(dir, "docker-compose.yml"),
			SitesDir:            filepath.Join(dir, "sites"),
			HTTPEntrypoint:      "web",
			TLSEntrypoint:       "websecure",
			DefaultCertResolver: "letsencrypt",
		},
		Security: config.SecurityConfig{APIKeys: apiKeys},
	}

	store := &apiMockStore{doc: &models.ComposeDocument{Content: testDocument, Version: 1}}
	pipeline := reconcile.NewPipeline(store, routing.New(&cfg.Compose), nil, &cfg.Compose)

	return New(cfg, nil, pipeline, nil)
}

func doRequest(server *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

// TestHealthEndpoint tests process liveness reporting.
func TestHealthEndpoint(t *testing.T) {
	server := testServer(t, nil)

	rec := doRequest(server, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

// TestRequireAPIKey tests the key fence on the v1 group.
func TestRequireAPIKey(t *testing.T) {
	server := testServer(t, []string{"secret-key"})

	// Without a key the group is closed.
	rec := doRequest(server, http.MethodGet, "/api/v1/configs/not-a-target", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// With the key the request reaches the handler (and fails on the
	// target, proving the fence opened).
	req := httptest.NewRequest(http.MethodGet, "/api/v1/configs/not-a-target", nil)
	req.Header.Set("X-API-Key", "secret-key")
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

// TestGetConfigInvalidTarget tests target parsing at the API boundary.
func TestGetConfigInvalidTarget(t *testing.T) {
	server := testServer(t, nil)

	rec := doRequest(server, http.MethodGet, "/api/v1/configs/cluster:1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid target")
}

// TestReconcileEndpoint tests a full reconcile round trip over HTTP.
func TestReconcileEndpoint(t *testing.T) {
	server := testServer(t, nil)

	body := `{
		"serviceName": "web",
		"intent": {"domain": "shop.example.com", "targetPort": 8080},
		"author": "ops@example.com"
	}`
	rec := doRequest(server, http.MethodPost, "/api/v1/configs/main/reconcile", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"applied"`)
	assert.Contains(t, rec.Body.String(), `"newVersion":2`)
}

// TestReconcileUnknownService tests the 422 mapping for a service the
// document does not contain.
func TestReconcileUnknownService(t *testing.T) {
	server := testServer(t, nil)

	body := `{
		"serviceName": "ghost",
		"intent": {"domain": "shop.example.com", "targetPort": 8080}
	}`
	rec := doRequest(server, http.MethodPost, "/api/v1/configs/main/reconcile", body)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

// TestReconcileInvalidIntent tests the 400 mapping for a rejected intent.
func TestReconcileInvalidIntent(t *testing.T) {
	server := testServer(t, nil)

	body := `{
		"serviceName": "web",
		"intent": {"targetPort": 8080}
	}`
	rec := doRequest(server, http.MethodPost, "/api/v1/configs/main/reconcile", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

// TestMaterializeEndpoint tests the materialize-only retry path over HTTP.
func TestMaterializeEndpoint(t *testing.T) {
	server := testServer(t, nil)

	rec := doRequest(server, http.MethodPost, "/api/v1/configs/main/materialize", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "artifactPath")
}

// TestValidateComposeEndpoint tests the advisory lint endpoint.
func TestValidateComposeEndpoint(t *testing.T) {
	server := testServer(t, nil)

	rec := doRequest(server, http.MethodPost, "/api/v1/validate/compose",
		`{"content": "services:\n  web:\n    image: nginx:latest\n"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"valid":true`)

	rec = doRequest(server, http.MethodPost, "/api/v1/validate/compose",
		`{"content": ""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"valid":false`)
}

// TestStackStatusWithoutRuntime tests the 503 answer when the server runs
// without a Docker runtime.
func TestStackStatusWithoutRuntime(t *testing.T) {
	server := testServer(t, nil)

	rec := doRequest(server, http.MethodGet, "/api/v1/stacks/main/status", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// TestContentTypeEnforcement tests that JSON bodies must be declared.
func TestContentTypeEnforcement(t *testing.T) {
	server := testServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate/compose",
		strings.NewReader(`{"content": "x"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid Content-Type")
}

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stateful/mdpane/internal/bridge"
	"github.com/stateful/mdpane/internal/host"
	"github.com/stateful/mdpane/internal/session"
)

func newTestHandler(t *testing.T, opts ...session.SessionOption) (http.Handler, *session.List) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	sessions := session.NewList(logger, opts...)
	h := &handler{
		dispatcher: host.NewDispatcher(sessions, logger),
		sessions:   sessions,
		logger:     logger,
	}
	return h.routes(), sessions
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandler_Call(t *testing.T) {
	h, sessions := newTestHandler(t)

	rec := do(h, http.MethodPost, "/sessions/default/setMarkdown", "# Intro\n\n[docs](https://example.com)")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(bridge.MessageResponse), decodeResponse(t, rec)["MessageType"])
	assert.Equal(t, "# Intro\n\n[docs](https://example.com)", sessions.Default().GetMarkdown().Content)

	rec = do(h, http.MethodPost, "/sessions/default/getMarkdown", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	result := decodeResponse(t, rec)["Result"].(map[string]any)
	assert.Equal(t, "# Intro\n\n[docs](https://example.com)", result["Content"])

	rec = do(h, http.MethodPost, "/sessions/default/setColumnMaps", "[{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeResponse(t, rec)["Error"], "malformed input")

	rec = do(h, http.MethodPost, "/sessions/default/explode", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodPost, "/sessions/01ARZ3NDEKTSV4RRFFQ69G5FAV/getMarkdown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_RequestID(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(h, http.MethodPost, "/sessions/default/listSessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	id := rec.Header().Get(requestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, decodeResponse(t, rec)["Id"])

	req := httptest.NewRequest(http.MethodPost, "/sessions/default/getMarkdown", nil)
	req.Header.Set(requestIDHeader, "host-42")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "host-42", rec.Header().Get(requestIDHeader))
	assert.Equal(t, "host-42", decodeResponse(t, rec)["Id"])
}

func TestTraceMiddleware(t *testing.T) {
	h, _ := newTestHandler(t)
	var out bytes.Buffer

	rec := do(traceMiddleware(&out, false)(h), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, out.String(), "/healthz")
}

func TestHandler_Preview(t *testing.T) {
	h, sessions := newTestHandler(t)

	s := sessions.Open()
	s.SetMarkdown("[docs](https://example.com)")

	rec := do(h, http.MethodGet, "/sessions/"+s.ID+"/preview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `<a href="https://example.com" target="blank">docs</a>`)
	assert.Contains(t, rec.Body.String(), "<title>mdpane "+s.ID+"</title>")

	rec = do(h, http.MethodGet, "/sessions/unknown/preview", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Asset(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "img"), 0o755))
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "img", "pic.png"), png, 0o600))

	h, _ := newTestHandler(t, session.WithBasePath(dir))

	rec := do(h, http.MethodGet, "/sessions/default/assets/img/pic.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, png, rec.Body.Bytes())

	rec = do(h, http.MethodGet, "/sessions/default/assets/missing.png", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_PreviewImagesUseAssetRoute(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "img"), 0o755))
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "img", "pic.png"), png, 0o600))

	h, sessions := newTestHandler(t, session.WithBasePath(dir))
	sessions.Default().SetMarkdown("![pic](img/pic.png)")

	rec := do(h, http.MethodGet, "/sessions/default/preview", "")
	require.Equal(t, http.StatusOK, rec.Code)

	m := regexp.MustCompile(`<img src="([^"]+)"`).FindStringSubmatch(rec.Body.String())
	require.Len(t, m, 2)
	assert.Equal(t, "/sessions/default/assets/img/pic.png", m[1])

	rec = do(h, http.MethodGet, m[1], "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, png, rec.Body.Bytes())
}

func TestHandler_AssetPatterns(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "img"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "img", "pic.svg"), []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("secret"), 0o600))

	logger := zaptest.NewLogger(t)
	sessions := session.NewList(logger, session.WithBasePath(dir))
	assets, err := compileGlobs([]string{"**.svg", "*.png"})
	require.NoError(t, err)
	h := (&handler{
		dispatcher: host.NewDispatcher(sessions, logger),
		sessions:   sessions,
		assets:     assets,
		logger:     logger,
	}).routes()

	rec := do(h, http.MethodGet, "/sessions/default/assets/img/pic.svg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))

	rec = do(h, http.MethodGet, "/sessions/default/assets/secret.txt", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompileGlobs(t *testing.T) {
	_, err := compileGlobs([]string{"[a-"})
	assert.Error(t, err)
}

func TestHandler_AssetWithoutBasePath(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(h, http.MethodGet, "/sessions/default/assets/pic.png", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Health(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

package server

import (
	"encoding/json"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/mdpane/internal/bridge"
	"github.com/stateful/mdpane/internal/host"
	"github.com/stateful/mdpane/internal/session"
)

// DefaultSessionID addresses the default session in URLs.
const DefaultSessionID = "default"

const requestIDHeader = "X-Request-Id"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{.Body}}</body>
</html>
`))

type page struct {
	Title string
	Body  template.HTML
}

type handler struct {
	dispatcher *host.Dispatcher
	sessions   *session.List
	assets     []glob.Glob
	logger     *zap.Logger
}

func (h *handler) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("GET /sessions/{id}/preview", h.preview)
	mux.HandleFunc("GET /sessions/{id}/assets/{path...}", h.asset)
	mux.HandleFunc("POST /sessions/{id}/{method}", h.call)
	return mux
}

func sessionID(r *http.Request) string {
	id := r.PathValue("id")
	if id == DefaultSessionID {
		return ""
	}
	return id
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

func (h *handler) preview(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(sessionID(r))
	if err != nil {
		h.fail(w, err)
		return
	}

	body, err := h.renderPreview(r, s)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, page{Title: "mdpane " + s.ID, Body: template.HTML(body)}); err != nil {
		h.logger.Info("failed to write preview", zap.Error(err))
	}
}

// renderPreview points relative images at the session's asset route, which
// serves them from the base path.
func (h *handler) renderPreview(r *http.Request, s *session.Session) (string, error) {
	if s.BasePath() == "" {
		return s.Preview()
	}
	return s.RenderWithImageBase("/sessions/" + url.PathEscape(r.PathValue("id")) + "/assets/")
}

func (h *handler) asset(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(sessionID(r))
	if err != nil {
		h.fail(w, err)
		return
	}

	base := s.BasePath()
	name := r.PathValue("path")
	if base == "" || !fs.ValidPath(name) || !h.allowed(name) {
		http.NotFound(w, r)
		return
	}

	data, err := fs.ReadFile(os.DirFS(base), name)
	if err != nil {
		h.logger.Debug("asset not found", zap.String("path", name), zap.Error(err))
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	_, _ = w.Write(data)
}

func (h *handler) allowed(name string) bool {
	if len(h.assets) == 0 {
		return true
	}
	for _, g := range h.assets {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (h *handler) call(w http.ResponseWriter, r *http.Request) {
	params, err := io.ReadAll(io.LimitReader(r.Body, maxMsgSize))
	if err != nil {
		h.fail(w, errors.WithStack(err))
		return
	}

	id := r.Header.Get(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, id)

	req := host.Request{
		ID:      id,
		Session: sessionID(r),
		Method:  r.PathValue("method"),
		Params:  strings.TrimSuffix(string(params), "\n"),
	}

	result, err := h.dispatcher.Call(r.Context(), req)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode(err))
	if err := json.NewEncoder(w).Encode(bridge.NewResponse(req.ID, result, err)); err != nil {
		h.logger.Info("failed to write response", zap.Error(err))
	}
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		h.logger.Info("request failed", zap.Error(err))
	}
	http.Error(w, err.Error(), code)
}

func statusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, host.ErrUnknownMethod), errors.Is(err, session.ErrUnknownSession):
		return http.StatusNotFound
	case errors.Is(err, session.ErrMalformedInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

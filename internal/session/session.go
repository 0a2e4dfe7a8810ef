// Package session holds the state of one open document: the editor buffer,
// the substitution tables and the preview rendered from them.
package session

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/mdpane/internal/bridge"
	"github.com/stateful/mdpane/internal/editor"
	"github.com/stateful/mdpane/internal/preview"
	"github.com/stateful/mdpane/internal/ulid"
)

// ErrMalformedInput is returned by setters that cannot decode their input.
var ErrMalformedInput = errors.New("malformed input")

const malformedInputCode = "MalformedInput"

// Markdown is the result of GetMarkdown.
type Markdown struct {
	Content string `json:"Content"`
}

// Session is the document context. All methods are safe for concurrent use.
type Session struct {
	ID string

	mu                   sync.Mutex
	buffer               *editor.Buffer
	basePath             string
	columnMaps           []preview.ColumnMap
	variables            []preview.UserVariable
	contentChangeEnabled bool

	html        string
	renderErr   error
	renderCount int

	renderer *preview.Renderer
	bridge   *bridge.Bridge
	logger   *zap.Logger
}

type sessionFactory struct {
	basePath             string
	columnMaps           []preview.ColumnMap
	variables            []preview.UserVariable
	contentChangeEnabled bool
	renderer             *preview.Renderer
	bridge               *bridge.Bridge
	logger               *zap.Logger
}

type SessionOption func(*sessionFactory) *sessionFactory

// WithBasePath sets the initial base path used to resolve relative images.
func WithBasePath(path string) SessionOption {
	return func(f *sessionFactory) *sessionFactory {
		f.basePath = path
		return f
	}
}

func WithColumnMaps(maps []preview.ColumnMap) SessionOption {
	return func(f *sessionFactory) *sessionFactory {
		f.columnMaps = maps
		return f
	}
}

func WithVariables(vars []preview.UserVariable) SessionOption {
	return func(f *sessionFactory) *sessionFactory {
		f.variables = vars
		return f
	}
}

func WithContentChangeEnabled(enabled bool) SessionOption {
	return func(f *sessionFactory) *sessionFactory {
		f.contentChangeEnabled = enabled
		return f
	}
}

func WithRenderer(r *preview.Renderer) SessionOption {
	return func(f *sessionFactory) *sessionFactory {
		f.renderer = r
		return f
	}
}

func WithBridge(b *bridge.Bridge) SessionOption {
	return func(f *sessionFactory) *sessionFactory {
		f.bridge = b
		return f
	}
}

func WithLogger(logger *zap.Logger) SessionOption {
	return func(f *sessionFactory) *sessionFactory {
		f.logger = logger
		return f
	}
}

// New creates a session showing the editor and preview side by side.
func New(opts ...SessionOption) *Session {
	f := &sessionFactory{}
	for _, opt := range opts {
		f = opt(f)
	}

	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	if f.renderer == nil {
		f.renderer = preview.NewRenderer(preview.WithLogger(f.logger))
	}
	if f.bridge == nil {
		f.bridge = bridge.New(bridge.NewLogTransport(f.logger), f.logger)
	}

	id := ulid.GenerateID()
	s := &Session{
		ID:                   id,
		buffer:               editor.NewBuffer(),
		basePath:             NormalizeBasePath(f.basePath),
		columnMaps:           append([]preview.ColumnMap(nil), f.columnMaps...),
		variables:            append([]preview.UserVariable(nil), f.variables...),
		contentChangeEnabled: f.contentChangeEnabled,
		renderer:             f.renderer,
		bridge:               f.bridge,
		logger:               f.logger.With(zap.String("session", id)),
	}

	s.buffer.OnChange(s.contentChanged)
	s.buffer.OnRender(s.render)
	s.buffer.SetDisplayMode(editor.ModeSideBySide)
	s.buffer.RequestRender()

	return s
}

func (s *Session) Identifier() string {
	return s.ID
}

// NormalizeBasePath uses forward slashes and guarantees a trailing slash
// for non-empty paths.
func NormalizeBasePath(path string) string {
	if path == "" {
		return ""
	}
	path = strings.ReplaceAll(path, `\`, "/")
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path
}

// contentChanged and render run with s.mu held.
func (s *Session) contentChanged() {
	s.bridge.ContentChanged(s.contentChangeEnabled)
	s.render()
}

func (s *Session) render() {
	s.renderCount++
	s.html, s.renderErr = s.renderer.Render(preview.Input{
		Text:       s.buffer.Value(),
		BasePath:   s.basePath,
		ColumnMaps: s.columnMaps,
		Variables:  s.variables,
	})
	if s.renderErr != nil {
		s.logger.Info("failed to render preview", zap.Error(s.renderErr))
	}
}

func (s *Session) malformed(op string, err error) error {
	s.logger.Info("malformed input", zap.String("operation", op), zap.Error(err))
	s.bridge.Post(bridge.NewError(malformedInputCode, op, s.ID, err.Error()))
	return errors.Wrapf(ErrMalformedInput, "%s: %s", op, err.Error())
}

func (s *Session) GetMarkdown() Markdown {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Markdown{Content: s.buffer.Value()}
}

// SetMarkdown replaces the buffer. Empty text clears it.
func (s *Session) SetMarkdown(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer.SetValue(text)
}

// InsertText types text at the cursor, replacing the selection.
func (s *Session) InsertText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer.Insert(text)
}

// SetBasePath stores the normalized path. Empty input clears it.
func (s *Session) SetBasePath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.basePath = NormalizeBasePath(path)
	s.buffer.RequestRender()
}

func (s *Session) BasePath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.basePath
}

// GetCursorInfo returns the selection start and end markers.
func (s *Session) GetCursorInfo() []editor.CursorMarker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.Markers()
}

// SetCursorInfo moves the cursor to the "Start" marker in raw, a JSON array
// of markers. Any "End" marker is ignored.
func (s *Session) SetCursorInfo(raw string) error {
	if raw == "" {
		return nil
	}

	var markers []editor.CursorMarker
	if err := json.Unmarshal([]byte(raw), &markers); err != nil {
		return s.malformed("setCursorInfo", err)
	}

	start, ok := editor.FindMarker(markers, editor.MarkerStart)
	if !ok {
		s.logger.Debug("no start marker in cursor info")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.buffer.Focus()
	s.buffer.SetCursor(start.Position())
	s.buffer.ScrollIntoView(s.buffer.Cursor())
	return nil
}

// SetSelection restores a selection from a JSON array of markers. A
// missing "End" collapses the selection at "Start".
func (s *Session) SetSelection(raw string) error {
	if raw == "" {
		return nil
	}

	var markers []editor.CursorMarker
	if err := json.Unmarshal([]byte(raw), &markers); err != nil {
		return s.malformed("setSelection", err)
	}

	start, ok := editor.FindMarker(markers, editor.MarkerStart)
	if !ok {
		s.logger.Debug("no start marker in selection")
		return nil
	}
	end, ok := editor.FindMarker(markers, editor.MarkerEnd)
	if !ok {
		end = start
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.buffer.Focus()
	s.buffer.Select(start.Position(), end.Position())
	s.buffer.ScrollIntoView(s.buffer.Cursor())
	return nil
}

// SetColumnMaps replaces the column map table from a JSON array of
// {Name, Value} records. Empty input leaves the table unchanged.
func (s *Session) SetColumnMaps(raw string) error {
	if raw == "" {
		return nil
	}

	var maps []preview.ColumnMap
	if err := json.Unmarshal([]byte(raw), &maps); err != nil {
		return s.malformed("setColumnMaps", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.columnMaps = maps
	s.buffer.RequestRender()
	return nil
}

// SetUserVariables replaces the user variable table from a JSON array of
// {Name, Value} records. Empty input leaves the table unchanged.
func (s *Session) SetUserVariables(raw string) error {
	if raw == "" {
		return nil
	}

	var vars []preview.UserVariable
	if err := json.Unmarshal([]byte(raw), &vars); err != nil {
		return s.malformed("setUserVariables", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.variables = vars
	s.buffer.RequestRender()
	return nil
}

// ClearUserVariables empties both the user variable and column map tables.
func (s *Session) ClearUserVariables() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.columnMaps = nil
	s.variables = nil
	s.buffer.RequestRender()
}

func (s *Session) ColumnMaps() []preview.ColumnMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]preview.ColumnMap(nil), s.columnMaps...)
}

func (s *Session) UserVariables() []preview.UserVariable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]preview.UserVariable(nil), s.variables...)
}

// SetContentChangeEnabled turns change notifications on only for the exact
// value "true".
func (s *Session) SetContentChangeEnabled(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contentChangeEnabled = value == "true"
}

func (s *Session) ContentChangeEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contentChangeEnabled
}

// KeyDown forwards a key press the editor did not handle.
func (s *Session) KeyDown(ev bridge.KeyEvent) {
	s.bridge.KeyDown(ev)
}

// HandleKeyDown decodes a key event sent as JSON and forwards it.
func (s *Session) HandleKeyDown(raw string) error {
	var ev bridge.KeyEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return s.malformed("keyDown", err)
	}
	s.KeyDown(ev)
	return nil
}

// Preview returns the most recently rendered HTML.
func (s *Session) Preview() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.html, s.renderErr
}

// RenderWithImageBase renders the buffer again with relative images
// resolved against imageBase instead of the base path. The stored preview
// is left untouched.
func (s *Session) RenderWithImageBase(imageBase string) (string, error) {
	s.mu.Lock()
	in := preview.Input{
		Text:       s.buffer.Value(),
		BasePath:   NormalizeBasePath(imageBase),
		ColumnMaps: s.columnMaps,
		Variables:  s.variables,
	}
	s.mu.Unlock()

	return s.renderer.Render(in)
}

// RenderCount reports how many times the preview was rendered.
func (s *Session) RenderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderCount
}

func (s *Session) DisplayMode() editor.DisplayMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.DisplayMode()
}

// View returns the focus state and the first visible line.
func (s *Session) View() (focused bool, scrollLine int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.Focused(), s.buffer.ScrollLine()
}

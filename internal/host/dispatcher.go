// Package host exposes session operations to the native host. Requests
// name a method and carry its parameters as a single string, the way the
// host invokes page functions.
package host

import (
	"context"

	"github.com/elliotchance/orderedmap"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/mdpane/internal/bridge"
	"github.com/stateful/mdpane/internal/session"
)

var ErrUnknownMethod = errors.New("unknown method")

// Request is one call from the host. An empty Session addresses the
// default session.
type Request struct {
	ID      string `json:"id"`
	Session string `json:"session,omitempty"`
	Method  string `json:"method"`
	Params  string `json:"params,omitempty"`
}

type Preview struct {
	HTML string `json:"Html"`
}

type OpenedSession struct {
	SessionID string `json:"SessionId"`
}

// Handler runs a method against the addressed session.
type Handler func(ctx context.Context, s *session.Session, params string) (any, error)

type Dispatcher struct {
	sessions *session.List
	methods  *orderedmap.OrderedMap
	logger   *zap.Logger
}

func NewDispatcher(sessions *session.List, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		sessions: sessions,
		methods:  orderedmap.NewOrderedMap(),
		logger:   logger,
	}

	d.Register("getMarkdown", func(_ context.Context, s *session.Session, _ string) (any, error) {
		return s.GetMarkdown(), nil
	})
	d.Register("setMarkdown", func(_ context.Context, s *session.Session, params string) (any, error) {
		s.SetMarkdown(params)
		return nil, nil
	})
	d.Register("setBasePath", func(_ context.Context, s *session.Session, params string) (any, error) {
		s.SetBasePath(params)
		return nil, nil
	})
	d.Register("getCursorInfo", func(_ context.Context, s *session.Session, _ string) (any, error) {
		return s.GetCursorInfo(), nil
	})
	d.Register("setCursorInfo", func(_ context.Context, s *session.Session, params string) (any, error) {
		return nil, s.SetCursorInfo(params)
	})
	d.Register("setSelection", func(_ context.Context, s *session.Session, params string) (any, error) {
		return nil, s.SetSelection(params)
	})
	d.Register("setColumnMaps", func(_ context.Context, s *session.Session, params string) (any, error) {
		return nil, s.SetColumnMaps(params)
	})
	d.Register("setUserVariables", func(_ context.Context, s *session.Session, params string) (any, error) {
		return nil, s.SetUserVariables(params)
	})
	d.Register("clearUserVariables", func(_ context.Context, s *session.Session, _ string) (any, error) {
		s.ClearUserVariables()
		return nil, nil
	})
	d.Register("setContentChangeEnabled", func(_ context.Context, s *session.Session, params string) (any, error) {
		s.SetContentChangeEnabled(params)
		return nil, nil
	})
	d.Register("keyDown", func(_ context.Context, s *session.Session, params string) (any, error) {
		return nil, s.HandleKeyDown(params)
	})
	d.Register("insertText", func(_ context.Context, s *session.Session, params string) (any, error) {
		s.InsertText(params)
		return nil, nil
	})
	d.Register("getPreview", func(_ context.Context, s *session.Session, _ string) (any, error) {
		html, err := s.Preview()
		if err != nil {
			return nil, err
		}
		return Preview{HTML: html}, nil
	})
	d.Register("openSession", func(context.Context, *session.Session, string) (any, error) {
		return OpenedSession{SessionID: d.sessions.Open().ID}, nil
	})
	d.Register("closeSession", func(_ context.Context, _ *session.Session, params string) (any, error) {
		return nil, d.sessions.Close(params)
	})
	d.Register("listSessions", func(context.Context, *session.Session, string) (any, error) {
		return d.sessions.IDs(), nil
	})
	d.Register("describe", func(context.Context, *session.Session, string) (any, error) {
		return d.Methods(), nil
	})

	return d
}

// Register adds or replaces a method.
func (d *Dispatcher) Register(name string, h Handler) {
	d.methods.Set(name, h)
}

// Methods returns method names in registration order.
func (d *Dispatcher) Methods() []string {
	keys := d.methods.Keys()
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, k.(string))
	}
	return names
}

// Call runs req and returns the method's result.
func (d *Dispatcher) Call(ctx context.Context, req Request) (any, error) {
	v, ok := d.methods.Get(req.Method)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownMethod, "%q", req.Method)
	}

	s, err := d.sessions.Get(req.Session)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("calling method", zap.String("method", req.Method), zap.String("session", s.ID), zap.String("id", req.ID))

	return v.(Handler)(ctx, s, req.Params)
}

// Handle runs req and wraps the outcome in a response message.
func (d *Dispatcher) Handle(ctx context.Context, req Request) bridge.ResponseMessage {
	result, err := d.Call(ctx, req)
	if err != nil {
		d.logger.Info("method failed", zap.String("method", req.Method), zap.String("id", req.ID), zap.Error(err))
	}
	return bridge.NewResponse(req.ID, result, err)
}

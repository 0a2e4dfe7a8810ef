package session

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/mdpane/internal/lru"
	"github.com/stateful/mdpane/internal/ulid"
)

// ListCapacity bounds the number of open sessions besides the default one.
const ListCapacity = 64

var ErrUnknownSession = errors.New("unknown session")

// List keeps open sessions. The default session, addressed by an empty ID,
// is never evicted; the others are bounded by ListCapacity.
type List struct {
	sessions *lru.Cache[*Session]
	def      *Session
	opts     []SessionOption
	logger   *zap.Logger
}

// NewList creates a list with a default session built from opts. Every
// session opened later uses the same opts.
func NewList(logger *zap.Logger, opts ...SessionOption) *List {
	l := &List{opts: opts, logger: logger}
	l.sessions = lru.NewCache[*Session](ListCapacity, lru.WithEvictCallback(func(s *Session) {
		logger.Info("session evicted", zap.String("session", s.ID))
	}))

	l.def = New(l.sessionOptions()...)
	return l
}

func (l *List) Open() *Session {
	s := New(l.sessionOptions()...)
	l.sessions.Add(s)
	l.logger.Debug("session opened", zap.String("session", s.ID))
	return s
}

func (l *List) sessionOptions() []SessionOption {
	opts := make([]SessionOption, 0, len(l.opts)+1)
	opts = append(opts, l.opts...)
	return append(opts, WithLogger(l.logger))
}

// Get returns the session with id, or the default session for "".
func (l *List) Get(id string) (*Session, error) {
	if id == "" || id == l.def.ID {
		return l.def, nil
	}
	if !ulid.ValidID(id) {
		return nil, errors.Wrapf(ErrUnknownSession, "malformed id %q", id)
	}
	s, ok := l.sessions.GetByID(id)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSession, "%q", id)
	}
	return s, nil
}

func (l *List) Default() *Session {
	return l.def
}

// Close drops the session. Closing the default session is not allowed.
func (l *List) Close(id string) error {
	if id == "" || id == l.def.ID {
		return errors.New("cannot close the default session")
	}
	if !ulid.ValidID(id) {
		return errors.Wrapf(ErrUnknownSession, "malformed id %q", id)
	}
	if !l.sessions.DeleteByID(id) {
		return errors.Wrapf(ErrUnknownSession, "%q", id)
	}
	return nil
}

// IDs lists the default session followed by the others from the least to
// the most recently used.
func (l *List) IDs() []string {
	sessions := l.sessions.List()
	ids := make([]string, 0, len(sessions)+1)
	ids = append(ids, l.def.ID)
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	return ids
}

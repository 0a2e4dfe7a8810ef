package bridge

import (
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Transport delivers messages to the host. Connected reports whether a
// host is actually listening on the other end.
type Transport interface {
	Post(Message) error
	Connected() bool
}

// ChannelTransport writes one JSON document per line to the host.
type ChannelTransport struct {
	mu  sync.Mutex
	enc *json.Encoder
}

var _ Transport = (*ChannelTransport)(nil)

func NewChannelTransport(w io.Writer) *ChannelTransport {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &ChannelTransport{enc: enc}
}

func (t *ChannelTransport) Post(msg Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return errors.Wrapf(t.enc.Encode(msg), "failed to post %s", msg.Type())
}

func (t *ChannelTransport) Connected() bool { return true }

// LogTransport is used when no host is attached. Messages end up in the
// diagnostic log, which stays on even when regular logging is disabled.
type LogTransport struct {
	logger *zap.Logger
	output io.Writer
}

var _ Transport = (*LogTransport)(nil)

type LogTransportOption func(*LogTransport)

// WithDiagnosticOutput sets where messages go when the injected logger
// discards info entries. It defaults to stderr.
func WithDiagnosticOutput(w io.Writer) LogTransportOption {
	return func(t *LogTransport) {
		t.output = w
	}
}

func NewLogTransport(logger *zap.Logger, opts ...LogTransportOption) *LogTransport {
	t := &LogTransport{logger: logger, output: os.Stderr}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil || !t.logger.Core().Enabled(zapcore.InfoLevel) {
		t.logger = NewDiagnosticLogger(t.output)
	}
	return t
}

// NewDiagnosticLogger returns an info level JSON logger writing to w.
func NewDiagnosticLogger(w io.Writer) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.Lock(zapcore.AddSync(w)),
		zapcore.InfoLevel,
	)
	return zap.New(core)
}

func (t *LogTransport) Post(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.WithStack(err)
	}
	t.logger.Info("host message", zap.String("type", string(msg.Type())), zap.ByteString("message", data))
	return nil
}

func (t *LogTransport) Connected() bool { return false }

// Detect picks the transport once at startup: a terminal on out means no
// host is reading, so messages go to the log.
func Detect(out *os.File, logger *zap.Logger) Transport {
	fd := out.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		logger.Debug("no host channel detected, using log transport")
		return NewLogTransport(logger)
	}
	return NewChannelTransport(out)
}

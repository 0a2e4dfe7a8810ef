package server

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/mdpane/internal/host"
	"github.com/stateful/mdpane/internal/session"
	mdpanetls "github.com/stateful/mdpane/internal/tls"
)

const (
	maxMsgSize = 4 * 1024 * 1024 // 4 MiB
)

type Config struct {
	Address    string
	CertFile   string
	KeyFile    string
	TLSEnabled bool
	// Assets are glob patterns of files served from a session's base path.
	// Empty means any file.
	Assets []string
	// Trace receives a dump of every request and response when set.
	Trace       io.Writer
	TraceColors bool
}

type Server struct {
	httpServer *http.Server
	lis        net.Listener
	logger     *zap.Logger
}

func New(
	c *Config,
	dispatcher *host.Dispatcher,
	sessions *session.List,
	logger *zap.Logger,
) (_ *Server, err error) {
	assets, err := compileGlobs(c.Assets)
	if err != nil {
		return nil, err
	}

	var tlsConfig *tls.Config

	if c.TLSEnabled {
		tlsConfig, err = mdpanetls.LoadOrGenerateConfig(c.CertFile, c.KeyFile, logger)
		if err != nil {
			return nil, err
		}
	}

	addr := c.Address
	protocol := "tcp"

	var lis net.Listener

	if strings.HasPrefix(addr, "unix://") {
		protocol = "unix"
		addr = strings.TrimPrefix(addr, "unix://")

		if _, err := os.Stat(addr); !os.IsNotExist(err) {
			return nil, errors.Errorf("socket %s already exists", addr)
		}
	}

	if tlsConfig == nil {
		lis, err = net.Listen(protocol, addr)
	} else {
		lis, err = tls.Listen(protocol, addr, tlsConfig)
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}

	logger.Info("server listening", zap.String("address", lis.Addr().String()))

	h := &handler{
		dispatcher: dispatcher,
		sessions:   sessions,
		assets:     assets,
		logger:     logger,
	}

	handler := h.routes()
	if c.Trace != nil {
		handler = traceMiddleware(c.Trace, c.TraceColors)(handler)
	}

	return &Server{
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          zap.NewStdLog(logger),
		},
		lis:    lis,
		logger: logger,
	}, nil
}

func (s *Server) Addr() string {
	return s.lis.Addr().String()
}

// Serve blocks until the server is shut down.
func (s *Server) Serve() error {
	err := s.httpServer.Serve(s.lis)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return errors.WithStack(err)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return errors.WithStack(s.httpServer.Shutdown(ctx))
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, errors.Wrapf(err, "invalid asset pattern %q", p)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

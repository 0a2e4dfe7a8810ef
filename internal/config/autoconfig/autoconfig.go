// autoconfig creates the instances shared by commands, like [config.Config],
// [zap.Logger], [preview.Renderer] and [session.List], from the
// configuration file.
//
// For example, to get the session list, you can write:
//
//	autoconfig.Invoke(func(sessions *session.List) error {
//	    ...
//	})
//
// Treat it as a dependency injection mechanism. Commands adjust what it
// builds with Decorate, for example to apply flags on top of the config.
package autoconfig

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/stateful/mdpane/internal/bridge"
	"github.com/stateful/mdpane/internal/config"
	"github.com/stateful/mdpane/internal/host"
	"github.com/stateful/mdpane/internal/log"
	"github.com/stateful/mdpane/internal/preview"
	"github.com/stateful/mdpane/internal/server"
	"github.com/stateful/mdpane/internal/session"
)

var (
	container  = newContainer()
	configFile string
	hostOutput = os.Stdout
)

// Invoke is used to invoke the function with the given dependencies.
// The package will automatically figure out how to instantiate them
// using the available configuration.
func Invoke(function interface{}, opts ...dig.InvokeOption) error {
	err := container.Invoke(function, opts...)
	return dig.RootCause(err)
}

// Decorate replaces a provided value with the result of decorator.
func Decorate(decorator interface{}) error {
	return errors.WithStack(container.Decorate(decorator))
}

// SetConfigFile makes the config come from path instead of ./mdpane.yaml.
func SetConfigFile(path string) {
	configFile = path
}

// SetHostOutput sets the file the host channel writes to when a host is
// detected on it.
func SetHostOutput(f *os.File) {
	hostOutput = f
}

// Reset drops every instance created so far.
func Reset() {
	container = newContainer()
	configFile = ""
	hostOutput = os.Stdout
}

func mustProvide(err error) {
	if err != nil {
		panic("failed to provide: " + err.Error())
	}
}

func newContainer() *dig.Container {
	c := dig.New()
	mustProvide(c.Provide(getConfig))
	mustProvide(c.Provide(getLogger))
	mustProvide(c.Provide(getRenderer))
	mustProvide(c.Provide(getTransport))
	mustProvide(c.Provide(getBridge))
	mustProvide(c.Provide(getSessionList))
	mustProvide(c.Provide(getDispatcher))
	mustProvide(c.Provide(getServerConfig))
	return c
}

func getConfig() (*config.Config, error) {
	if configFile == "" {
		return config.NewLoader("mdpane", "yaml", os.DirFS(".")).Load()
	}

	loader := config.NewLoader(filepath.Base(configFile), "", os.DirFS(filepath.Dir(configFile)))
	data, err := loader.RootConfig()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", configFile)
	}
	return config.ParseYAML(data)
}

func getLogger(c *config.Config) (*zap.Logger, error) {
	l, err := log.New(log.Options{
		Enabled: c.Log.Enabled,
		Path:    c.Log.Path,
		Verbose: c.Log.Verbose,
	})
	if err != nil {
		return nil, err
	}
	log.Set(l)
	return l, nil
}

func getRenderer(c *config.Config, logger *zap.Logger) *preview.Renderer {
	return preview.NewRenderer(
		preview.WithXHTML(c.XHTML),
		preview.WithHighlighting(c.Highlight.Enabled, c.Highlight.Style),
		preview.WithLogger(logger),
	)
}

func getTransport(logger *zap.Logger) bridge.Transport {
	return bridge.Detect(hostOutput, logger)
}

func getBridge(t bridge.Transport, logger *zap.Logger) *bridge.Bridge {
	return bridge.New(t, logger)
}

func getSessionList(c *config.Config, r *preview.Renderer, b *bridge.Bridge, logger *zap.Logger) *session.List {
	return session.NewList(
		logger,
		session.WithBasePath(c.BasePath),
		session.WithColumnMaps(c.ColumnMaps),
		session.WithVariables(c.Variables),
		session.WithContentChangeEnabled(c.ContentChangeEnabled),
		session.WithRenderer(r),
		session.WithBridge(b),
	)
}

func getDispatcher(sessions *session.List, logger *zap.Logger) *host.Dispatcher {
	return host.NewDispatcher(sessions, logger)
}

func getServerConfig(c *config.Config) (*server.Config, error) {
	cfg := &server.Config{
		Address:    c.Server.Address,
		CertFile:   c.Server.TLS.CertFile,
		KeyFile:    c.Server.TLS.KeyFile,
		TLSEnabled: c.Server.TLS.Enabled,
		Assets:     c.Server.Assets,
	}

	if !cfg.TLSEnabled || (cfg.CertFile != "" && cfg.KeyFile != "") {
		return cfg, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, errors.Wrap(err, "failed to locate TLS files")
	}
	tlsDir := filepath.Join(dir, "mdpane", "tls")
	if cfg.CertFile == "" {
		cfg.CertFile = filepath.Join(tlsDir, "cert.pem")
	}
	if cfg.KeyFile == "" {
		cfg.KeyFile = filepath.Join(tlsDir, "key.pem")
	}
	return cfg, nil
}

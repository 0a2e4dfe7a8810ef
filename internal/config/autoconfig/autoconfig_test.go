package autoconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stateful/mdpane/internal/bridge"
	"github.com/stateful/mdpane/internal/config"
	"github.com/stateful/mdpane/internal/host"
	"github.com/stateful/mdpane/internal/server"
	"github.com/stateful/mdpane/internal/session"
)

func TestInvokeSessionList(t *testing.T) {
	defer Reset()
	Reset()

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`version: v1
base_path: /srv/docs
column_maps:
  - name: Intro
    value: Introduction
`), 0o600))

	out, err := os.Create(filepath.Join(dir, "host.out"))
	require.NoError(t, err)
	defer out.Close()

	SetConfigFile(path)
	SetHostOutput(out)

	err = Invoke(func(sessions *session.List, t2 bridge.Transport) {
		def := sessions.Default()
		assert.Equal(t, "/srv/docs/", def.BasePath())

		def.SetMarkdown("## Intro")
		html, err := def.Preview()
		require.NoError(t, err)
		assert.Equal(t, "<h2>Introduction</h2>\n", html)

		assert.True(t, t2.Connected())
	})
	require.NoError(t, err)
}

func TestDecorateConfig(t *testing.T) {
	defer Reset()
	Reset()

	SetConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, Invoke(func(*config.Config) {}))

	Reset()
	require.NoError(t, Decorate(func(c *config.Config) *config.Config {
		c.BasePath = "/override"
		return c
	}))
	require.NoError(t, Decorate(func(bridge.Transport, *zap.Logger) bridge.Transport {
		return bridge.NewLogTransport(zap.NewNop())
	}))

	err := Invoke(func(c *config.Config, sessions *session.List, tr bridge.Transport) {
		assert.Equal(t, "/override", c.BasePath)
		assert.Equal(t, "/override/", sessions.Default().BasePath())
		assert.False(t, tr.Connected())
	})
	require.NoError(t, err)
}

func TestInvokeServerConfig(t *testing.T) {
	defer Reset()

	t.Run("WithoutTLS", func(t *testing.T) {
		Reset()
		SetConfigFile(writeConfig(t, "version: v1\nserver:\n  address: localhost:9999\n"))

		err := Invoke(func(cfg *server.Config, d *host.Dispatcher) {
			assert.Equal(t, "localhost:9999", cfg.Address)
			assert.False(t, cfg.TLSEnabled)
			assert.Empty(t, cfg.CertFile)
			assert.Empty(t, cfg.Assets)
			assert.Contains(t, d.Methods(), "getPreview")
		})
		require.NoError(t, err)
	})

	t.Run("WithTLSDefaultFiles", func(t *testing.T) {
		Reset()
		SetConfigFile(writeConfig(t, "version: v1\nserver:\n  tls:\n    enabled: true\n"))

		err := Invoke(func(cfg *server.Config) {
			assert.True(t, cfg.TLSEnabled)
			assert.Equal(t, "cert.pem", filepath.Base(cfg.CertFile))
			assert.Equal(t, "key.pem", filepath.Base(cfg.KeyFile))
		})
		require.NoError(t, err)
	})

	t.Run("WithTLSFiles", func(t *testing.T) {
		Reset()
		SetConfigFile(writeConfig(t, "version: v1\nserver:\n  tls:\n    enabled: true\n    cert_file: /tmp/c.pem\n    key_file: /tmp/k.pem\n"))

		err := Invoke(func(cfg *server.Config) {
			assert.Equal(t, "/tmp/c.pem", cfg.CertFile)
			assert.Equal(t, "/tmp/k.pem", cfg.KeyFile)
		})
		require.NoError(t, err)
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mdpane.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

package server

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/stateful/mdpane/internal/host"
	"github.com/stateful/mdpane/internal/session"
	mdpanetls "github.com/stateful/mdpane/internal/tls"
)

func TestServer(t *testing.T) {
	logger := zaptest.NewLogger(t)
	sessions := session.NewList(logger)
	dispatcher := host.NewDispatcher(sessions, logger)

	t.Run("tcp", func(t *testing.T) {
		cfg := &Config{
			Address: "localhost:0",
		}
		s, err := New(cfg, dispatcher, sessions, logger)
		require.NoError(t, err)
		errc := make(chan error, 1)
		go func() {
			errc <- s.Serve()
		}()

		testConnectivity(t, http.DefaultClient, "http://"+s.Addr())

		require.NoError(t, s.Shutdown(context.Background()))
		require.NoError(t, <-errc)
	})

	t.Run("tcp with tls", func(t *testing.T) {
		dir := t.TempDir()
		cfg := &Config{
			Address:    "localhost:0",
			CertFile:   filepath.Join(dir, "cert.pem"),
			KeyFile:    filepath.Join(dir, "key.pem"),
			TLSEnabled: true,
		}
		s, err := New(cfg, dispatcher, sessions, logger)
		require.NoError(t, err)
		errc := make(chan error, 1)
		go func() {
			errc <- s.Serve()
		}()

		tlsConfig, err := mdpanetls.LoadClientConfig(cfg.CertFile)
		require.NoError(t, err)
		client := &http.Client{
			Transport: &http.Transport{TLSClientConfig: tlsConfig},
		}

		testConnectivity(t, client, "https://"+s.Addr())

		require.NoError(t, s.Shutdown(context.Background()))
		require.NoError(t, <-errc)
	})
}

func TestServer_InsecureClientRejected(t *testing.T) {
	// Handshake failures are logged by the server after the client gives up.
	logger := zap.NewNop()
	sessions := session.NewList(logger)
	dir := t.TempDir()

	s, err := New(&Config{
		Address:    "localhost:0",
		CertFile:   filepath.Join(dir, "cert.pem"),
		KeyFile:    filepath.Join(dir, "key.pem"),
		TLSEnabled: true,
	}, host.NewDispatcher(sessions, logger), sessions, logger)
	require.NoError(t, err)
	go func() { _ = s.Serve() }()
	defer func() { _ = s.Shutdown(context.Background()) }()

	client := &http.Client{Transport: &http.Transport{TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12}}}
	_, err = client.Get("https://" + s.Addr() + "/healthz")
	assert.Error(t, err)
}

func testConnectivity(t *testing.T, client *http.Client, baseURL string) {
	t.Helper()

	var (
		resp *http.Response
		err  error
	)

	for i := 0; i < 5; i++ {
		resp, err = client.Get(baseURL + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))
}

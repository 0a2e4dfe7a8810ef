package config

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewLoader(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		NewLoader("", "yaml", fstest.MapFS{})
	}, "config name is not set")
}

func TestLoader_RootConfig(t *testing.T) {
	t.Parallel()

	t.Run("without root config", func(t *testing.T) {
		t.Parallel()

		loader := NewLoader("mdpane", "yaml", fstest.MapFS{}, WithLogger(zaptest.NewLogger(t)))
		result, err := loader.RootConfig()
		require.ErrorIs(t, err, ErrRootConfigNotFound)
		require.Nil(t, result)
	})

	t.Run("with root config", func(t *testing.T) {
		t.Parallel()

		data := []byte("version: v1\n")
		fsys := fstest.MapFS{"mdpane.yaml": {Data: data}}
		loader := NewLoader("mdpane", "yaml", fsys, WithLogger(zaptest.NewLogger(t)))
		result, err := loader.RootConfig()
		require.NoError(t, err)
		require.Equal(t, data, result)
	})
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := NewLoader("mdpane", "yaml", fstest.MapFS{}).Load()
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("file", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{"mdpane.yaml": {Data: []byte("version: v1\nxhtml: true\n")}}
		cfg, err := NewLoader("mdpane", "yaml", fsys).Load()
		require.NoError(t, err)
		assert.True(t, cfg.XHTML)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{"mdpane.yaml": {Data: []byte("version: v9\n")}}
		_, err := NewLoader("mdpane", "yaml", fsys).Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid mdpane.yaml")
	})
}

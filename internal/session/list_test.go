package session

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestList(t *testing.T) {
	l := NewList(zaptest.NewLogger(t), WithBasePath("/docs"))

	def := l.Default()
	got, err := l.Get("")
	require.NoError(t, err)
	assert.Same(t, def, got)
	assert.Equal(t, "/docs/", def.BasePath())

	s := l.Open()
	assert.Equal(t, "/docs/", s.BasePath())

	got, err = l.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	assert.Equal(t, []string{def.ID, s.ID}, l.IDs())

	require.NoError(t, l.Close(s.ID))
	_, err = l.Get(s.ID)
	assert.True(t, errors.Is(err, ErrUnknownSession))

	_, err = l.Get("not-a-ulid")
	assert.True(t, errors.Is(err, ErrUnknownSession))
	assert.Contains(t, err.Error(), "malformed id")
	_, err = l.Get(strings.ToLower(def.ID))
	assert.True(t, errors.Is(err, ErrUnknownSession))
	assert.True(t, errors.Is(l.Close("../etc"), ErrUnknownSession))

	assert.Error(t, l.Close(s.ID))
	assert.Error(t, l.Close(""))
	assert.Error(t, l.Close(def.ID))
}

func TestList_DefaultNeverEvicted(t *testing.T) {
	l := NewList(zaptest.NewLogger(t))
	def := l.Default()

	for i := 0; i < ListCapacity+5; i++ {
		l.Open()
	}

	got, err := l.Get(def.ID)
	require.NoError(t, err)
	assert.Same(t, def, got)
	assert.Len(t, l.IDs(), ListCapacity+1)
}

package lru

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	id    string
	value int
}

func (i *item) Identifier() string { return i.id }

func ids(entries []*item) []string {
	result := make([]string, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.id)
	}
	return result
}

func TestCache(t *testing.T) {
	t.Run("Eviction", func(t *testing.T) {
		var evicted []string
		c := NewCache[*item](2, WithEvictCallback(func(i *item) {
			evicted = append(evicted, i.id)
		}))

		c.Add(&item{id: "a"})
		c.Add(&item{id: "b"})

		_, ok := c.GetByID("a")
		require.True(t, ok)

		c.Add(&item{id: "c"})

		assert.Equal(t, []string{"b"}, evicted)
		assert.Equal(t, []string{"a", "c"}, ids(c.List()))
		assert.Equal(t, 2, c.Size())
	})

	t.Run("Replace", func(t *testing.T) {
		c := NewCache[*item](4)
		c.Add(&item{id: "a", value: 1})
		c.Add(&item{id: "a", value: 2})

		got, ok := c.GetByID("a")
		require.True(t, ok)
		assert.Equal(t, 2, got.value)
		assert.Equal(t, 1, c.Size())
	})

	t.Run("Delete", func(t *testing.T) {
		c := NewCache[*item](4)
		c.Add(&item{id: "a"})

		assert.True(t, c.DeleteByID("a"))
		assert.False(t, c.DeleteByID("a"))
		assert.Equal(t, 0, c.Size())
	})

	t.Run("GetOrCreate", func(t *testing.T) {
		c := NewCache[*item](4)
		calls := 0
		gen := func() (*item, error) {
			calls++
			return &item{id: "a"}, nil
		}

		first, err := c.GetOrCreate("a", gen)
		require.NoError(t, err)
		second, err := c.GetOrCreate("a", gen)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, 1, calls)

		_, err = c.GetOrCreate("b", func() (*item, error) { return nil, errors.New("boom") })
		assert.EqualError(t, err, "boom")
		assert.Equal(t, 1, c.Size())
	})
}

package ulid

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidID(t *testing.T) {
	tests := []struct {
		id       string
		expected bool
	}{
		{GenerateID(), true},
		{"0", false},
		{"invalidulid", false},
		{"01b4e6bxy0prj5g420d25mwqyz", false},
		{"01B4E6BXY0PRJ5G420D25MWQY!", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidID(tt.id))
		})
	}
}

func TestGenerateID(t *testing.T) {
	t.Run("Unique", func(t *testing.T) {
		assert.NotEqual(t, GenerateID(), GenerateID())
	})

	t.Run("Concurrent", func(t *testing.T) {
		const n = 5000

		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			ids = make(map[string]struct{}, n)
		)

		wg.Add(n)
		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				id := GenerateID()
				mu.Lock()
				ids[id] = struct{}{}
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Len(t, ids, n)
	})

	t.Run("Mock", func(t *testing.T) {
		MockGenerator("01HF7BT3HD7FHQ3S2C1YZ7K2X4")
		defer ResetGenerator()

		assert.Equal(t, "01HF7BT3HD7FHQ3S2C1YZ7K2X4", GenerateID())
	})
}

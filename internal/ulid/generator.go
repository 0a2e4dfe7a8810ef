package ulid

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropy     io.Reader
	entropyOnce sync.Once

	mu        sync.RWMutex
	generator = DefaultGenerator
)

// DefaultEntropy returns a process-wide monotonic entropy source safe for
// concurrent use.
func DefaultEntropy() io.Reader {
	entropyOnce.Do(func() {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))

		entropy = &ulid.LockedMonotonicReader{
			MonotonicReader: ulid.Monotonic(rng, 0),
		}
	})
	return entropy
}

// ValidID reports whether id is a canonical, upper-case ULID string.
func ValidID(id string) bool {
	parsed, err := ulid.ParseStrict(id)
	if err != nil {
		return false
	}
	return parsed.String() == id
}

// GenerateID returns a new session identifier.
func GenerateID() string {
	mu.RLock()
	defer mu.RUnlock()
	return generator()
}

func DefaultGenerator() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), DefaultEntropy()).String()
}

// MockGenerator makes GenerateID return value until ResetGenerator is called.
func MockGenerator(value string) {
	mu.Lock()
	defer mu.Unlock()
	generator = func() string { return value }
}

func ResetGenerator() {
	mu.Lock()
	defer mu.Unlock()
	generator = DefaultGenerator
}

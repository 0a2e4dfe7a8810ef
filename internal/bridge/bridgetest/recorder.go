// Package bridgetest provides an in-memory bridge.Transport for tests.
package bridgetest

import (
	"sync"

	"github.com/stateful/mdpane/internal/bridge"
)

// Recorder keeps every posted message.
type Recorder struct {
	mu       sync.Mutex
	messages []bridge.Message
	Connect  bool
	FailWith error
}

var _ bridge.Transport = (*Recorder)(nil)

// NewRecorder returns a recorder that reports a connected host.
func NewRecorder() *Recorder {
	return &Recorder{Connect: true}
}

func (r *Recorder) Post(msg bridge.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return r.FailWith
	}
	r.messages = append(r.messages, msg)
	return nil
}

func (r *Recorder) Connected() bool { return r.Connect }

func (r *Recorder) Messages() []bridge.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bridge.Message(nil), r.messages...)
}

// Count returns how many messages of type t were posted.
func (r *Recorder) Count(t bridge.MessageType) int {
	n := 0
	for _, m := range r.Messages() {
		if m.Type() == t {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}

// Package bridge forwards in-page events to the native host. Delivery is
// one-way and fire-and-forget.
package bridge

import (
	"go.uber.org/zap"
)

type Bridge struct {
	transport Transport
	logger    *zap.Logger
}

func New(transport Transport, logger *zap.Logger) *Bridge {
	return &Bridge{transport: transport, logger: logger}
}

func (b *Bridge) Transport() Transport {
	return b.transport
}

// KeyDown forwards an unhandled key press. Without a host the record is
// logged by the fallback transport.
func (b *Bridge) KeyDown(ev KeyEvent) {
	b.post(NewKeyDown(ev))
}

// ContentChanged notifies the host that the buffer changed. It is a no-op
// when notifications are disabled or nothing is listening.
func (b *Bridge) ContentChanged(enabled bool) {
	if !enabled || !b.transport.Connected() {
		return
	}
	b.post(NewCodeChange())
}

// Post delivers msg as is.
func (b *Bridge) Post(msg Message) {
	b.post(msg)
}

func (b *Bridge) post(msg Message) {
	if err := b.transport.Post(msg); err != nil {
		b.logger.Warn("failed to deliver message", zap.String("type", string(msg.Type())), zap.Error(err))
	}
}

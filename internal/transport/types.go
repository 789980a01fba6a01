package transport

import (
	"context"

	"silentping/pkg/mention"
)

// MessageRef identifies a sent message for later edits.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Sender posts prepared mention payloads to the messaging backend.
//
// SendPayload issues one sendMessage per payload; EditPayload rewrites a
// previously sent message (editMessageText) with new text and entities.
// Implementations must not reorder or merge payloads.
type Sender interface {
	SendPayload(ctx context.Context, p mention.Payload) (MessageRef, error)
	EditPayload(ctx context.Context, ref MessageRef, p mention.Payload) error
}

package redis

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/arcadenet/voteguard/pkg/engine/types"
)

const (
	notifyChannelPrefix = "voteguard:notify:"
	notifyStream        = "voteguard:notifications"
)

// Sink delivers engine notifications to Redis: one Pub/Sub channel per kind
// for live consumers, plus a capped stream for audit pickup.
type Sink struct {
	client *Client
	logger *zap.Logger
}

func NewSink(client *Client, logger *zap.Logger) *Sink {
	return &Sink{client: client, logger: logger}
}

func (s *Sink) Deliver(ctx context.Context, n types.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		s.logger.Warn("Failed to encode notification", zap.Error(err))
		return
	}
	s.client.Publish(ctx, notifyChannelPrefix+string(n.Kind), payload)
	s.client.XAdd(ctx, notifyStream, map[string]interface{}{
		"kind":    string(n.Kind),
		"ts":      n.TimestampMs,
		"payload": string(payload),
	})
}

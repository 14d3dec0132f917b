// Package remote selects modes from messages on a Redis pub/sub channel.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrPayload is returned for a message that does not name a mode.
var ErrPayload = errors.New("remote: invalid payload")

// Handler applies a mode: a name, a numeric string or a JSON number.
type Handler func(mode any) error

type Subscriber struct {
	client  *redis.Client
	channel string
}

// New returns a Subscriber for channel on the server at addr.
func New(addr, channel string) *Subscriber {
	return &Subscriber{
		client:  redis.NewClient(&redis.Options{Addr: addr, DB: 0}),
		channel: channel,
	}
}

// Run listens until ctx is done. It fails if the server cannot be reached.
func (s *Subscriber) Run(ctx context.Context, h Handler) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("remote: redis connection failed: %w", err)
	}
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()
	log.Info().Str("addr", s.client.Options().Addr).Str("channel", s.channel).Msg("remote: subscribed")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("remote: redis channel closed")
			}
			mode, err := ParseMode(msg.Payload)
			if err != nil {
				log.Warn().Err(err).Str("payload", msg.Payload).Msg("remote: ignoring message")
				continue
			}
			if err := h(mode); err != nil {
				log.Warn().Err(err).Interface("mode", mode).Msg("remote: mode not applied")
			}
		}
	}
}

func (s *Subscriber) Close() error {
	return s.client.Close()
}

// ParseMode accepts a bare mode name or number, or {"mode": <name|number>}.
func ParseMode(payload string) (any, error) {
	p := strings.TrimSpace(payload)
	if p == "" {
		return nil, ErrPayload
	}
	if !strings.HasPrefix(p, "{") {
		return p, nil
	}
	var m struct {
		Mode any `json:"mode"`
	}
	if err := json.Unmarshal([]byte(p), &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayload, err)
	}
	switch m.Mode.(type) {
	case string, float64:
		return m.Mode, nil
	default:
		return nil, fmt.Errorf("%w: no mode", ErrPayload)
	}
}

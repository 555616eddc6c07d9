// Package publisher fans opportunities out to Redis Streams.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/oddsedge/internal/config"
	"github.com/yourusername/oddsedge/internal/models"
)

// Message types carried in the "type" field of every stream entry
const (
	TypeEV        = "ev"
	TypeArbitrage = "arbitrage"
)

type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamPublisher publishes EV candidates and arbitrage opportunities to
// Redis Streams. Each entry goes to the sport stream and the global stream.
type StreamPublisher struct {
	client streamAdder
	prefix string
	maxLen int64
}

// NewRedisClient creates the Redis client described by the configuration
func NewRedisClient(cfg config.PublisherConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.Password,
		DB:       cfg.RedisDB,
	})
}

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(client *redis.Client, cfg config.PublisherConfig) *StreamPublisher {
	return newStreamPublisher(client, cfg)
}

func newStreamPublisher(client streamAdder, cfg config.PublisherConfig) *StreamPublisher {
	prefix := cfg.StreamPrefix
	if prefix == "" {
		prefix = "opportunities"
	}
	return &StreamPublisher{
		client: client,
		prefix: prefix,
		maxLen: cfg.MaxLen,
	}
}

// GlobalStream returns the stream that receives every entry
func (p *StreamPublisher) GlobalStream() string {
	return p.prefix
}

// SportStream returns the stream key of one sport: {prefix}.{sport_key}
func (p *StreamPublisher) SportStream(sport string) string {
	return fmt.Sprintf("%s.%s", p.prefix, sport)
}

// PublishEV publishes every candidate and returns how many were published
func (p *StreamPublisher) PublishEV(ctx context.Context, candidates []models.EVCandidate) (int, error) {
	for i := range candidates {
		if err := p.publish(ctx, TypeEV, candidates[i].SportType, candidates[i]); err != nil {
			return i, err
		}
	}
	return len(candidates), nil
}

// PublishArbitrage publishes every opportunity and returns how many were published
func (p *StreamPublisher) PublishArbitrage(ctx context.Context, arbs []models.ArbitrageOpportunity) (int, error) {
	for i := range arbs {
		if err := p.publish(ctx, TypeArbitrage, arbs[i].SportType, arbs[i]); err != nil {
			return i, err
		}
	}
	return len(arbs), nil
}

func (p *StreamPublisher) publish(ctx context.Context, kind, sport string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s opportunity: %w", kind, err)
	}

	values := map[string]interface{}{
		"type": kind,
		"data": string(data),
	}

	for _, stream := range []string{p.SportStream(sport), p.GlobalStream()} {
		args := &redis.XAddArgs{
			Stream: stream,
			Values: values,
		}
		if p.maxLen > 0 {
			args.MaxLen = p.maxLen
			args.Approx = true
		}
		if err := p.client.XAdd(ctx, args).Err(); err != nil {
			return fmt.Errorf("failed to publish to stream %s: %w", stream, err)
		}
	}
	return nil
}

package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const TypeTurnCompleted = "turn.completed"

type TurnCompleted struct {
	Type           string      `json:"type"`
	BotID          string      `json:"botId"`
	ConversationID string      `json:"conversationId"`
	SessionID      string      `json:"sessionId"`
	UserMessage    interface{} `json:"userMessage"`
	BotMessage     interface{} `json:"botMessage"`
}

// Publisher pushes turn events to Redis pub/sub, one channel per bot.
type Publisher struct {
	client *redis.Client
	prefix string
}

func NewPublisher(client *redis.Client, prefix string) *Publisher {
	return &Publisher{client: client, prefix: prefix}
}

// NewRedisPublisher returns nil when addr is empty, which disables events.
func NewRedisPublisher(addr, password, prefix string) *Publisher {
	if addr == "" {
		return nil
	}
	return NewPublisher(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	}), prefix)
}

func (p *Publisher) Channel(botID string) string {
	if p.prefix == "" {
		return "bot:" + botID
	}
	return p.prefix + ":bot:" + botID
}

func (p *Publisher) PublishTurn(ctx context.Context, event TurnCompleted) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("events publish: redis client not initialised")
	}
	if event.BotID == "" {
		return fmt.Errorf("events publish: botID required")
	}
	if event.Type == "" {
		event.Type = TypeTurnCompleted
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events publish: marshal payload: %w", err)
	}

	if err := p.client.Publish(ctx, p.Channel(event.BotID), string(payload)).Err(); err != nil {
		return fmt.Errorf("events publish: redis publish: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}

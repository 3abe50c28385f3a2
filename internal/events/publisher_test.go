package events

import (
	"context"
	"testing"
)

func TestChannelUsesPrefix(t *testing.T) {
	cases := []struct {
		prefix string
		want   string
	}{
		{prefix: "chatbot", want: "chatbot:bot:bot-1"},
		{prefix: "", want: "bot:bot-1"},
	}
	for _, tc := range cases {
		p := NewPublisher(nil, tc.prefix)
		if got := p.Channel("bot-1"); got != tc.want {
			t.Fatalf("prefix %q: expected %q, got %q", tc.prefix, tc.want, got)
		}
	}
}

func TestNewRedisPublisherDisabledWithoutAddr(t *testing.T) {
	if p := NewRedisPublisher("", "", "chatbot"); p != nil {
		t.Fatalf("expected nil publisher")
	}
}

func TestPublishTurnWithoutClientFails(t *testing.T) {
	var p *Publisher
	if err := p.PublishTurn(context.Background(), TurnCompleted{BotID: "bot-1"}); err == nil {
		t.Fatalf("expected error from nil publisher")
	}
}

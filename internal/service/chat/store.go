package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chatbot-backend/internal/model"

	"github.com/google/uuid"
)

const defaultCommitAttempts = 3

// turn is what a mutator wants committed: the updated conversation row and
// the messages to append after the stored ones, in order.
type turn struct {
	Conversation model.ConversationItem
	Messages     []model.MessageItem
}

// mutator receives a copy of the stored row and returns the turn to persist.
type mutator func(model.ConversationItem) (turn, error)

type committed struct {
	Conversation model.ConversationItem
	Messages     []model.MessageItem
	Created      bool
}

// FindOrCreateConversation returns the stored conversation for the pair, or
// an unsaved new one when none exists. Version zero marks the latter.
func (s *Service) FindOrCreateConversation(ctx context.Context, botID, sessionID, userID string) (model.ConversationItem, error) {
	conversation, err := s.repo.GetConversation(ctx, botID, sessionID)
	if err == nil {
		return conversation, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return model.ConversationItem{}, err
	}

	now := s.now().UTC().Format(time.RFC3339)
	return model.ConversationItem{
		PK:             model.ConversationPK(botID, sessionID),
		ConversationID: uuid.NewString(),
		BotID:          botID,
		SessionID:      sessionID,
		UserID:         userID,
		Context:        map[string]interface{}{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// transactConversation applies mutate to the conversation and commits the
// result only if nobody else committed in between. On a lost race the row is
// re-read and mutate runs again on the fresh copy. New messages take the seq
// numbers right after the stored MessageCount.
func (s *Service) transactConversation(ctx context.Context, botID, sessionID, userID string, mutate mutator) (committed, error) {
	attempts := s.commitAttempts
	if attempts <= 0 {
		attempts = defaultCommitAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		current, err := s.FindOrCreateConversation(ctx, botID, sessionID, userID)
		if err != nil {
			return committed{}, fmt.Errorf("load conversation: %w", err)
		}

		t, err := mutate(copyConversation(current))
		if err != nil {
			return committed{}, err
		}

		next := t.Conversation
		next.PK = current.PK
		next.ConversationID = current.ConversationID
		next.Version = current.Version + 1
		next.MessageCount = current.MessageCount + int64(len(t.Messages))

		messages := make([]model.MessageItem, len(t.Messages))
		for i, msg := range t.Messages {
			msg.ConversationID = current.ConversationID
			msg.Seq = current.MessageCount + int64(i) + 1
			messages[i] = msg
		}

		err = s.repo.SaveTurn(ctx, next, messages, current.Version)
		if err == nil {
			return committed{Conversation: next, Messages: messages, Created: current.Version == 0}, nil
		}
		if !errors.Is(err, ErrConflict) {
			return committed{}, fmt.Errorf("save conversation: %w", err)
		}
		lastErr = err
		s.log.Debug("conversation commit conflict",
			"bot_id", botID,
			"conversation_id", current.ConversationID,
			"attempt", attempt+1,
		)
	}
	return committed{}, fmt.Errorf("save conversation after %d attempts: %w", attempts, lastErr)
}

func copyConversation(in model.ConversationItem) model.ConversationItem {
	out := in
	out.Context = make(map[string]interface{}, len(in.Context))
	for k, v := range in.Context {
		out.Context[k] = v
	}
	return out
}

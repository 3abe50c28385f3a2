package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"chatbot-backend/internal/database"
	"chatbot-backend/internal/engine"
	"chatbot-backend/internal/events"
	"chatbot-backend/internal/lib/sl"
	"chatbot-backend/internal/model"
	"chatbot-backend/internal/service/analytics"

	"github.com/google/uuid"
)

type ErrorCode string

const (
	ErrorCodeInvalidRequest     ErrorCode = "invalid_request"
	ErrorCodeNotFound           ErrorCode = "not_found"
	ErrorCodeBotNotDeployed     ErrorCode = "bot_not_deployed"
	ErrorCodePersistenceFailure ErrorCode = "persistence_failure"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

const DefaultMaxMessageLength = 1000

// Recorder receives committed turns for analytics.
type Recorder interface {
	RecordTurn(ctx context.Context, turn analytics.Turn) error
}

type EventPublisher interface {
	PublishTurn(ctx context.Context, event events.TurnCompleted) error
}

type SendMessageParams struct {
	BotID     string
	SessionID string
	UserID    string
	Message   string
}

type SendMessageResult struct {
	Reply          model.MessageItem
	Context        map[string]interface{}
	ConversationID string
	Tier           engine.Tier
}

type Service struct {
	repo           Repository
	recorder       Recorder
	publisher      EventPublisher
	log            *slog.Logger
	now            func() time.Time
	maxLength      int
	commitAttempts int
}

type Option func(*Service)

// WithLimits overrides the message length bound and the number of commit
// attempts per turn. Non-positive values keep the defaults.
func WithLimits(maxMessageLength, commitAttempts int) Option {
	return func(s *Service) {
		if maxMessageLength > 0 {
			s.maxLength = maxMessageLength
		}
		if commitAttempts > 0 {
			s.commitAttempts = commitAttempts
		}
	}
}

func New(db *database.Database, recorder Recorder, publisher EventPublisher, log *slog.Logger, opts ...Option) *Service {
	return NewWithRepository(NewDynamoRepository(db), recorder, publisher, log, time.Now, opts...)
}

func NewWithRepository(repo Repository, recorder Recorder, publisher EventPublisher, log *slog.Logger, now func() time.Time, opts ...Option) *Service {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		repo:           repo,
		recorder:       recorder,
		publisher:      publisher,
		log:            log.With(sl.Module("chat")),
		now:            now,
		maxLength:      DefaultMaxMessageLength,
		commitAttempts: defaultCommitAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendMessage runs one chat turn: it validates the input, checks the bot is
// live, decides the reply and commits both messages with the new context in
// one conditional write. Analytics and events run after the commit and never
// fail the turn.
func (s *Service) SendMessage(ctx context.Context, params SendMessageParams) (SendMessageResult, error) {
	result, err := s.sendMessage(ctx, params)
	if err != nil {
		var chatErr *Error
		if errors.As(err, &chatErr) {
			turnErrors.WithLabelValues(string(chatErr.Code)).Inc()
		}
		return SendMessageResult{}, err
	}
	turnsTotal.WithLabelValues(string(result.Tier)).Inc()
	return result, nil
}

func (s *Service) sendMessage(ctx context.Context, params SendMessageParams) (SendMessageResult, error) {
	botID := strings.TrimSpace(params.BotID)
	sessionID := strings.TrimSpace(params.SessionID)
	userID := strings.TrimSpace(params.UserID)
	message := strings.TrimSpace(params.Message)

	if message == "" || sessionID == "" {
		return SendMessageResult{}, newError(ErrorCodeInvalidRequest, "Message and session ID are required", nil)
	}
	message = truncate(message, s.maxLength)

	bot, err := s.deployedBot(ctx, botID)
	if err != nil {
		return SendMessageResult{}, err
	}

	definition := EngineBot(bot)

	var (
		reply    model.MessageItem
		userMsg  model.MessageItem
		decision engine.Decision
	)
	result, err := s.transactConversation(ctx, botID, sessionID, userID, func(conv model.ConversationItem) (turn, error) {
		now := s.now().UTC().Format(time.RFC3339)

		userMsg = model.MessageItem{
			ID:        uuid.NewString(),
			Type:      model.MessageTypeUser,
			Text:      message,
			Timestamp: now,
		}
		decision = engine.Respond(message, definition, engine.ContextFromMap(conv.Context))
		reply = model.MessageItem{
			ID:           uuid.NewString(),
			Type:         model.MessageTypeBot,
			Text:         decision.Reply.Text,
			Timestamp:    now,
			QuickReplies: decision.Reply.QuickReplies,
		}

		conv.Context = decision.Context.Map()
		conv.UpdatedAt = now
		if conv.UserID == "" {
			conv.UserID = userID
		}
		return turn{Conversation: conv, Messages: []model.MessageItem{userMsg, reply}}, nil
	})
	if err != nil {
		return SendMessageResult{}, newError(ErrorCodePersistenceFailure, "Internal server error", err)
	}
	userMsg, reply = result.Messages[0], result.Messages[1]

	s.afterCommit(ctx, result, userMsg, reply)

	return SendMessageResult{
		Reply:          reply,
		Context:        result.Conversation.Context,
		ConversationID: result.Conversation.ConversationID,
		Tier:           decision.Tier,
	}, nil
}

// History returns the transcript of a session with a deployed bot. A session
// that has not started yet has an empty transcript.
func (s *Service) History(ctx context.Context, botID, sessionID string) ([]model.MessageItem, error) {
	botID = strings.TrimSpace(botID)
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, newError(ErrorCodeInvalidRequest, "Session ID is required", nil)
	}
	if _, err := s.deployedBot(ctx, botID); err != nil {
		return nil, err
	}

	conv, err := s.repo.GetConversation(ctx, botID, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []model.MessageItem{}, nil
		}
		return nil, newError(ErrorCodePersistenceFailure, "Internal server error", err)
	}

	messages, err := s.repo.ListMessages(ctx, conv.ConversationID)
	if err != nil {
		return nil, newError(ErrorCodePersistenceFailure, "Internal server error", err)
	}
	return messages, nil
}

func (s *Service) deployedBot(ctx context.Context, botID string) (model.BotItem, error) {
	if botID == "" {
		return model.BotItem{}, newError(ErrorCodeNotFound, "Bot not found", nil)
	}
	bot, err := s.repo.GetBot(ctx, botID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.BotItem{}, newError(ErrorCodeNotFound, "Bot not found", err)
		}
		return model.BotItem{}, newError(ErrorCodePersistenceFailure, "Internal server error", err)
	}
	if bot.Status != model.BotStatusDeployed {
		return model.BotItem{}, newError(ErrorCodeBotNotDeployed, "Bot is not deployed", nil)
	}
	return bot, nil
}

func (s *Service) afterCommit(ctx context.Context, result committed, userMsg, reply model.MessageItem) {
	conv := result.Conversation
	log := s.log.With(
		slog.String("bot_id", conv.BotID),
		slog.String("conversation_id", conv.ConversationID),
	)

	if s.recorder != nil {
		err := s.recorder.RecordTurn(ctx, analytics.Turn{
			BotID:           conv.BotID,
			NewConversation: result.Created,
			At:              s.now(),
		})
		if err != nil {
			analyticsFailures.Inc()
			log.Warn("record analytics", sl.Err(err))
		}
	}

	if s.publisher != nil {
		err := s.publisher.PublishTurn(ctx, events.TurnCompleted{
			Type:           events.TypeTurnCompleted,
			BotID:          conv.BotID,
			ConversationID: conv.ConversationID,
			SessionID:      conv.SessionID,
			UserMessage:    userMsg,
			BotMessage:     reply,
		})
		if err != nil {
			eventPublishFailures.Inc()
			log.Warn("publish turn event", sl.Err(err))
		}
	}
}

// truncate cuts s to at most max characters without splitting a rune.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"chatbot-backend/internal/engine"
	"chatbot-backend/internal/events"
	"chatbot-backend/internal/lib/sl"
	"chatbot-backend/internal/model"
	"chatbot-backend/internal/service/analytics"
)

type memoryRepository struct {
	mu            sync.Mutex
	bots          map[string]model.BotItem
	conversations map[string]model.ConversationItem
	messages      map[string][]model.MessageItem
	getBotCalls   int
	saveErr       error
	// beforeSave runs once, outside the lock, before the next save.
	beforeSave func()
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		bots:          make(map[string]model.BotItem),
		conversations: make(map[string]model.ConversationItem),
		messages:      make(map[string][]model.MessageItem),
	}
}

func (m *memoryRepository) GetBot(ctx context.Context, botID string) (model.BotItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getBotCalls++
	bot, ok := m.bots[botID]
	if !ok {
		return model.BotItem{}, ErrNotFound
	}
	return bot, nil
}

func (m *memoryRepository) GetConversation(ctx context.Context, botID, sessionID string) (model.ConversationItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.conversations[model.ConversationPK(botID, sessionID)]
	if !ok {
		return model.ConversationItem{}, ErrNotFound
	}
	return copyConversation(conv), nil
}

func (m *memoryRepository) SaveTurn(ctx context.Context, conv model.ConversationItem, messages []model.MessageItem, expectedVersion int64) error {
	m.mu.Lock()
	hook := m.beforeSave
	m.beforeSave = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	current, exists := m.conversations[conv.PK]
	if expectedVersion == 0 && exists {
		return ErrConflict
	}
	if expectedVersion > 0 && (!exists || current.Version != expectedVersion) {
		return ErrConflict
	}
	stored := m.messages[conv.ConversationID]
	for _, msg := range messages {
		if msg.Seq != int64(len(stored))+1 {
			return fmt.Errorf("message seq %d out of order after %d stored", msg.Seq, len(stored))
		}
		stored = append(stored, msg)
	}
	m.conversations[conv.PK] = copyConversation(conv)
	m.messages[conv.ConversationID] = stored
	return nil
}

func (m *memoryRepository) ListMessages(ctx context.Context, conversationID string) ([]model.MessageItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.MessageItem(nil), m.messages[conversationID]...), nil
}

func (m *memoryRepository) conversation(botID, sessionID string) (model.ConversationItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.conversations[model.ConversationPK(botID, sessionID)]
	return conv, ok
}

func (m *memoryRepository) transcript(botID, sessionID string) []model.MessageItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv := m.conversations[model.ConversationPK(botID, sessionID)]
	return append([]model.MessageItem(nil), m.messages[conv.ConversationID]...)
}

type recorderStub struct {
	mu    sync.Mutex
	turns []analytics.Turn
	err   error
}

func (r *recorderStub) RecordTurn(ctx context.Context, turn analytics.Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, turn)
	return r.err
}

type publisherStub struct {
	mu     sync.Mutex
	events []events.TurnCompleted
	err    error
}

func (p *publisherStub) PublishTurn(ctx context.Context, event events.TurnCompleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func fixedTime() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func deployedBot(id string) model.BotItem {
	return model.BotItem{
		BotID:   id,
		OwnerID: "owner-1",
		Name:    "Support bot",
		Status:  model.BotStatusDeployed,
		Config: map[string]interface{}{
			model.ConfigWelcomeMessage: "Hi!",
		},
		Intents: []model.IntentItem{{
			Name:     "pricing",
			Patterns: []string{"pricing_info"},
			Response: "Our prices start at $10",
		}},
		Flows: []model.FlowItem{{
			ID: "onboarding",
			Steps: []model.StepItem{
				{ID: "step2", Message: "What's your name?", NextStep: "step3"},
			},
		}},
	}
}

func newTestService(repo Repository, recorder Recorder, publisher EventPublisher, opts ...Option) *Service {
	return NewWithRepository(repo, recorder, publisher, sl.Discard(), fixedTime, opts...)
}

func requireCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	var chatErr *Error
	if !errors.As(err, &chatErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if chatErr.Code != code {
		t.Fatalf("expected code %s, got %s", code, chatErr.Code)
	}
}

func TestSendMessageCreatesConversation(t *testing.T) {
	repo := newMemoryRepository()
	repo.bots["bot-1"] = deployedBot("bot-1")
	recorder := &recorderStub{}
	publisher := &publisherStub{}
	service := newTestService(repo, recorder, publisher)

	res, err := service.SendMessage(context.Background(), SendMessageParams{
		BotID:     "bot-1",
		SessionID: "session-1",
		UserID:    "user-1",
		Message:   "  hello there  ",
	})
	if err != nil {
		t.Fatalf("send message: %v", err)
	}

	if res.Reply.Text != "Hi!" || res.Reply.Type != model.MessageTypeBot {
		t.Fatalf("unexpected reply: %+v", res.Reply)
	}
	if res.Reply.Timestamp != "2024-03-01T12:00:00Z" {
		t.Fatalf("unexpected timestamp: %s", res.Reply.Timestamp)
	}
	if res.Context[engine.KeyGreeted] != true {
		t.Fatalf("expected greeted in context: %#v", res.Context)
	}
	if res.ConversationID == "" {
		t.Fatalf("expected conversation id")
	}

	conv, ok := repo.conversation("bot-1", "session-1")
	if !ok {
		t.Fatalf("conversation was not stored")
	}
	if conv.ConversationID != res.ConversationID || conv.Version != 1 || conv.UserID != "user-1" {
		t.Fatalf("unexpected stored conversation: %+v", conv)
	}
	messages := repo.transcript("bot-1", "session-1")
	if len(messages) != 2 || conv.MessageCount != 2 {
		t.Fatalf("expected 2 messages, got %d (count %d)", len(messages), conv.MessageCount)
	}
	if messages[0].Type != model.MessageTypeUser || messages[0].Text != "hello there" || messages[0].Seq != 1 {
		t.Fatalf("unexpected user message: %+v", messages[0])
	}
	if messages[1].ID != res.Reply.ID || messages[1].Seq != 2 || messages[1].ConversationID != res.ConversationID {
		t.Fatalf("stored bot message differs from reply: %+v", messages[1])
	}

	if len(recorder.turns) != 1 || !recorder.turns[0].NewConversation || recorder.turns[0].BotID != "bot-1" {
		t.Fatalf("unexpected analytics turns: %+v", recorder.turns)
	}
	if len(publisher.events) != 1 || publisher.events[0].ConversationID != res.ConversationID {
		t.Fatalf("unexpected events: %+v", publisher.events)
	}
}

func TestSendMessageAppendsInOrderAndReplacesContext(t *testing.T) {
	repo := newMemoryRepository()
	repo.bots["bot-1"] = deployedBot("bot-1")
	recorder := &recorderStub{}
	service := newTestService(repo, recorder, nil)
	ctx := context.Background()

	first, err := service.SendMessage(ctx, SendMessageParams{BotID: "bot-1", SessionID: "s", Message: "hello"})
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	second, err := service.SendMessage(ctx, SendMessageParams{BotID: "bot-1", SessionID: "s", Message: "I want PRICING_INFO"})
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}

	if first.ConversationID != second.ConversationID {
		t.Fatalf("expected the same conversation")
	}
	if second.Reply.Text != "Our prices start at $10" {
		t.Fatalf("unexpected reply: %q", second.Reply.Text)
	}
	if second.Context[engine.KeyLastIntent] != "pricing" || second.Context[engine.KeyGreeted] != true {
		t.Fatalf("unexpected context: %#v", second.Context)
	}

	conv, _ := repo.conversation("bot-1", "s")
	messages := repo.transcript("bot-1", "s")
	texts := make([]string, 0, len(messages))
	for _, msg := range messages {
		texts = append(texts, string(msg.Type)+":"+msg.Text)
	}
	want := "user:hello|bot:Hi!|user:I want PRICING_INFO|bot:Our prices start at $10"
	if got := strings.Join(texts, "|"); got != want {
		t.Fatalf("unexpected transcript:\n got %s\nwant %s", got, want)
	}
	if conv.Version != 2 {
		t.Fatalf("expected version 2, got %d", conv.Version)
	}
	if len(recorder.turns) != 2 || recorder.turns[1].NewConversation {
		t.Fatalf("second turn should not count a new conversation: %+v", recorder.turns)
	}
}

func TestSendMessageContinuesStoredFlow(t *testing.T) {
	repo := newMemoryRepository()
	repo.bots["bot-1"] = deployedBot("bot-1")
	repo.conversations[model.ConversationPK("bot-1", "s")] = model.ConversationItem{
		PK:             model.ConversationPK("bot-1", "s"),
		ConversationID: "conv-1",
		BotID:          "bot-1",
		SessionID:      "s",
		Context:        map[string]interface{}{"currentFlow": "onboarding", "nextStep": "step2"},
		Version:        4,
	}
	service := newTestService(repo, nil, nil)

	res, err := service.SendMessage(context.Background(), SendMessageParams{BotID: "bot-1", SessionID: "s", Message: "ok"})
	if err != nil {
		t.Fatalf("send message: %v", err)
	}

	if res.Reply.Text != "What's your name?" {
		t.Fatalf("unexpected reply: %q", res.Reply.Text)
	}
	if res.Context["nextStep"] != "step3" || res.Context["currentFlow"] != "onboarding" {
		t.Fatalf("unexpected context: %#v", res.Context)
	}
	if res.ConversationID != "conv-1" {
		t.Fatalf("unexpected conversation id: %s", res.ConversationID)
	}
}

func TestSendMessageRejectsUndeployedBot(t *testing.T) {
	repo := newMemoryRepository()
	bot := deployedBot("bot-1")
	bot.Status = model.BotStatusDraft
	repo.bots["bot-1"] = bot
	recorder := &recorderStub{}
	service := newTestService(repo, recorder, nil)

	_, err := service.SendMessage(context.Background(), SendMessageParams{BotID: "bot-1", SessionID: "s", Message: "hello"})

	requireCode(t, err, ErrorCodeBotNotDeployed)
	if _, ok := repo.conversation("bot-1", "s"); ok {
		t.Fatalf("conversation must not be created for an undeployed bot")
	}
	if len(recorder.turns) != 0 {
		t.Fatalf("analytics must not run for a rejected turn")
	}
}

func TestSendMessageValidatesBeforeLoadingBot(t *testing.T) {
	cases := []SendMessageParams{
		{BotID: "bot-1", SessionID: "s", Message: "   "},
		{BotID: "bot-1", SessionID: "", Message: "hello"},
	}

	for _, params := range cases {
		repo := newMemoryRepository()
		repo.bots["bot-1"] = deployedBot("bot-1")
		service := newTestService(repo, nil, nil)

		_, err := service.SendMessage(context.Background(), params)

		requireCode(t, err, ErrorCodeInvalidRequest)
		if repo.getBotCalls != 0 {
			t.Fatalf("bot config should not be loaded for %+v", params)
		}
	}
}

func TestSendMessageUnknownBot(t *testing.T) {
	service := newTestService(newMemoryRepository(), nil, nil)

	_, err := service.SendMessage(context.Background(), SendMessageParams{BotID: "missing", SessionID: "s", Message: "hi"})

	requireCode(t, err, ErrorCodeNotFound)
}

func TestSendMessageSurvivesSideEffectFailures(t *testing.T) {
	repo := newMemoryRepository()
	repo.bots["bot-1"] = deployedBot("bot-1")
	recorder := &recorderStub{err: errors.New("analytics table unavailable")}
	publisher := &publisherStub{err: errors.New("redis down")}
	service := newTestService(repo, recorder, publisher)

	res, err := service.SendMessage(context.Background(), SendMessageParams{BotID: "bot-1", SessionID: "s", Message: "hello"})
	if err != nil {
		t.Fatalf("turn should succeed despite side effect failures: %v", err)
	}
	if res.Reply.Text != "Hi!" || res.ConversationID == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(recorder.turns) != 1 {
		t.Fatalf("recorder should have been called")
	}
}

func TestSendMessagePersistenceFailure(t *testing.T) {
	repo := newMemoryRepository()
	repo.bots["bot-1"] = deployedBot("bot-1")
	repo.saveErr = errors.New("throughput exceeded")
	recorder := &recorderStub{}
	service := newTestService(repo, recorder, nil)

	_, err := service.SendMessage(context.Background(), SendMessageParams{BotID: "bot-1", SessionID: "s", Message: "hello"})

	requireCode(t, err, ErrorCodePersistenceFailure)
	if !errors.Is(err, repo.saveErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if len(recorder.turns) != 0 {
		t.Fatalf("analytics must not run when the commit fails")
	}
}

func TestSendMessageRetriesOnConflict(t *testing.T) {
	repo := newMemoryRepository()
	repo.bots["bot-1"] = deployedBot("bot-1")
	service := newTestService(repo, nil, nil)
	ctx := context.Background()

	if _, err := service.SendMessage(ctx, SendMessageParams{BotID: "bot-1", SessionID: "s", Message: "hello"}); err != nil {
		t.Fatalf("seed turn: %v", err)
	}

	// A concurrent turn commits between our read and our write.
	repo.beforeSave = func() {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		pk := model.ConversationPK("bot-1", "s")
		conv := repo.conversations[pk]
		repo.messages[conv.ConversationID] = append(repo.messages[conv.ConversationID],
			model.MessageItem{ConversationID: conv.ConversationID, Seq: 3, ID: "other-user", Type: model.MessageTypeUser, Text: "help"},
			model.MessageItem{ConversationID: conv.ConversationID, Seq: 4, ID: "other-bot", Type: model.MessageTypeBot, Text: engine.HelpMessage},
		)
		conv.MessageCount = 4
		conv.Context = map[string]interface{}{"greeted": true, "helpRequested": true}
		conv.Version++
		repo.conversations[pk] = conv
	}

	res, err := service.SendMessage(ctx, SendMessageParams{BotID: "bot-1", SessionID: "s", Message: "bye"})
	if err != nil {
		t.Fatalf("send message: %v", err)
	}

	conv, _ := repo.conversation("bot-1", "s")
	messages := repo.transcript("bot-1", "s")
	if len(messages) != 6 || conv.MessageCount != 6 {
		t.Fatalf("expected 6 messages, got %d (count %d)", len(messages), conv.MessageCount)
	}
	if messages[2].ID != "other-user" || messages[4].Text != "bye" || messages[4].Seq != 5 {
		t.Fatalf("concurrent turn was lost or reordered: %+v", messages)
	}
	if res.Context["helpRequested"] != true || res.Context["ended"] != true {
		t.Fatalf("context should build on the concurrent commit: %#v", res.Context)
	}
	if conv.Version != 3 {
		t.Fatalf("expected version 3, got %d", conv.Version)
	}
}

func TestSendMessageGivesUpAfterCommitAttempts(t *testing.T) {
	repo := newMemoryRepository()
	repo.bots["bot-1"] = deployedBot("bot-1")
	repo.saveErr = fmt.Errorf("%w: always", ErrConflict)
	service := newTestService(repo, nil, nil, WithLimits(0, 2))

	_, err := service.SendMessage(context.Background(), SendMessageParams{BotID: "bot-1", SessionID: "s", Message: "hello"})

	requireCode(t, err, ErrorCodePersistenceFailure)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSendMessageConcurrentTurnsKeepEveryMessage(t *testing.T) {
	const turns = 8

	repo := newMemoryRepository()
	repo.bots["bot-1"] = deployedBot("bot-1")
	recorder := &recorderStub{}
	service := newTestService(repo, recorder, nil, WithLimits(0, turns+1))

	var wg sync.WaitGroup
	errs := make(chan error, turns)
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := service.SendMessage(context.Background(), SendMessageParams{
				BotID:     "bot-1",
				SessionID: "shared",
				Message:   fmt.Sprintf("message %d", i),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("turn failed: %v", err)
		}
	}

	messages := repo.transcript("bot-1", "shared")
	if len(messages) != 2*turns {
		t.Fatalf("expected %d messages, got %d", 2*turns, len(messages))
	}
	for i := 0; i < len(messages); i += 2 {
		if messages[i].Type != model.MessageTypeUser || messages[i+1].Type != model.MessageTypeBot {
			t.Fatalf("turn at %d was interleaved: %+v", i, messages[i:i+2])
		}
	}

	created := 0
	for _, turn := range recorder.turns {
		if turn.NewConversation {
			created++
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one new conversation, got %d", created)
	}
}

func TestSendMessageTruncatesLongInput(t *testing.T) {
	repo := newMemoryRepository()
	repo.bots["bot-1"] = deployedBot("bot-1")
	service := newTestService(repo, nil, nil)

	long := strings.Repeat("ż", DefaultMaxMessageLength+50)
	if _, err := service.SendMessage(context.Background(), SendMessageParams{BotID: "bot-1", SessionID: "s", Message: long}); err != nil {
		t.Fatalf("send message: %v", err)
	}

	messages := repo.transcript("bot-1", "s")
	if got := len([]rune(messages[0].Text)); got != DefaultMaxMessageLength {
		t.Fatalf("expected %d characters, got %d", DefaultMaxMessageLength, got)
	}
}

func TestSendMessageLongSessionKeepsRowSize(t *testing.T) {
	const turns = 400

	repo := newMemoryRepository()
	repo.bots["bot-1"] = deployedBot("bot-1")
	service := newTestService(repo, nil, nil)
	ctx := context.Background()
	long := strings.Repeat("x", DefaultMaxMessageLength)

	for i := 0; i < turns; i++ {
		if _, err := service.SendMessage(ctx, SendMessageParams{BotID: "bot-1", SessionID: "s", Message: long}); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
	}

	conv, _ := repo.conversation("bot-1", "s")
	if conv.MessageCount != 2*turns || conv.Version != turns {
		t.Fatalf("unexpected conversation row: count %d, version %d", conv.MessageCount, conv.Version)
	}
	messages := repo.transcript("bot-1", "s")
	if len(messages) != 2*turns || messages[len(messages)-1].Seq != 2*turns {
		t.Fatalf("unexpected transcript length %d", len(messages))
	}
}

func TestHistory(t *testing.T) {
	repo := newMemoryRepository()
	repo.bots["bot-1"] = deployedBot("bot-1")
	draft := deployedBot("draft")
	draft.Status = model.BotStatusDraft
	repo.bots["draft"] = draft
	service := newTestService(repo, nil, nil)
	ctx := context.Background()

	empty, err := service.History(ctx, "bot-1", "s")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected an empty transcript, got %v, %v", empty, err)
	}

	if _, err := service.SendMessage(ctx, SendMessageParams{BotID: "bot-1", SessionID: "s", Message: "hello"}); err != nil {
		t.Fatalf("send message: %v", err)
	}
	messages, err := service.History(ctx, "bot-1", "s")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(messages) != 2 || messages[0].Text != "hello" || messages[1].Text != "Hi!" {
		t.Fatalf("unexpected transcript: %+v", messages)
	}

	_, err = service.History(ctx, "bot-1", " ")
	requireCode(t, err, ErrorCodeInvalidRequest)
	_, err = service.History(ctx, "draft", "s")
	requireCode(t, err, ErrorCodeBotNotDeployed)
	_, err = service.History(ctx, "missing", "s")
	requireCode(t, err, ErrorCodeNotFound)
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{in: "hello", max: 3, want: "hel"},
		{in: "hello", max: 5, want: "hello"},
		{in: "héllo", max: 2, want: "hé"},
		{in: "hello", max: 0, want: "hello"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.max); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

package endpoints

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"chatbot-backend/internal/api"
	"chatbot-backend/internal/lib/sl"
	"chatbot-backend/internal/model"
	"chatbot-backend/internal/queue"
	botservice "chatbot-backend/internal/service/bot"
	chatservice "chatbot-backend/internal/service/chat"

	"github.com/prometheus/client_golang/prometheus"
)

// testStore backs both the chat and the bot repository fakes.
type testStore struct {
	mu            sync.Mutex
	bots          map[string]model.BotItem
	conversations map[string]model.ConversationItem
	messages      map[string][]model.MessageItem
}

func newTestStore() *testStore {
	return &testStore{
		bots:          make(map[string]model.BotItem),
		conversations: make(map[string]model.ConversationItem),
		messages:      make(map[string][]model.MessageItem),
	}
}

type chatRepo struct{ *testStore }

func (r chatRepo) GetBot(ctx context.Context, botID string) (model.BotItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bot, ok := r.bots[botID]
	if !ok {
		return model.BotItem{}, chatservice.ErrNotFound
	}
	return bot, nil
}

func (r chatRepo) GetConversation(ctx context.Context, botID, sessionID string) (model.ConversationItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[model.ConversationPK(botID, sessionID)]
	if !ok {
		return model.ConversationItem{}, chatservice.ErrNotFound
	}
	return conv, nil
}

func (r chatRepo) SaveTurn(ctx context.Context, conv model.ConversationItem, messages []model.MessageItem, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, exists := r.conversations[conv.PK]
	if (expectedVersion == 0 && exists) || (expectedVersion > 0 && current.Version != expectedVersion) {
		return chatservice.ErrConflict
	}
	r.conversations[conv.PK] = conv
	r.messages[conv.ConversationID] = append(r.messages[conv.ConversationID], messages...)
	return nil
}

func (r chatRepo) ListMessages(ctx context.Context, conversationID string) ([]model.MessageItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.MessageItem(nil), r.messages[conversationID]...), nil
}

type botRepo struct{ *testStore }

func (r botRepo) GetBot(ctx context.Context, botID string) (model.BotItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bot, ok := r.bots[botID]
	if !ok {
		return model.BotItem{}, botservice.ErrNotFound
	}
	return bot, nil
}

func (r botRepo) CreateBot(ctx context.Context, bot model.BotItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bots[bot.BotID]; ok {
		return botservice.ErrExists
	}
	r.bots[bot.BotID] = bot
	return nil
}

func (r botRepo) ListBotsByOwner(ctx context.Context, ownerID string) ([]model.BotItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var bots []model.BotItem
	for _, bot := range r.bots {
		if bot.OwnerID == ownerID {
			bots = append(bots, bot)
		}
	}
	return bots, nil
}

func (r botRepo) DeleteBot(ctx context.Context, botID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bots[botID]; !ok {
		return botservice.ErrNotFound
	}
	delete(r.bots, botID)
	return nil
}

func (r botRepo) UpdateDefinition(ctx context.Context, botID string, def botservice.Definition, updatedAt string) (model.BotItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bot, ok := r.bots[botID]
	if !ok {
		return model.BotItem{}, botservice.ErrNotFound
	}
	bot.Name = def.Name
	bot.Description = def.Description
	bot.Config = def.Config
	bot.Intents = def.Intents
	bot.Flows = def.Flows
	bot.UpdatedAt = updatedAt
	r.bots[botID] = bot
	return bot, nil
}

func (r botRepo) UpdateDeployment(ctx context.Context, botID string, status model.BotStatus, deploymentURL, updatedAt string) (model.BotItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bot, ok := r.bots[botID]
	if !ok {
		return model.BotItem{}, botservice.ErrNotFound
	}
	bot.Status = status
	bot.DeploymentURL = deploymentURL
	bot.UpdatedAt = updatedAt
	r.bots[botID] = bot
	return bot, nil
}

func endpointFixedTime() time.Time {
	return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
}

// newTestServer builds an APIServer with a private metrics registry and a
// one-worker queue, and hands the mux to register.
func newTestServer(t *testing.T, register func(mux *http.ServeMux, s *api.APIServer)) http.Handler {
	t.Helper()

	queueManager := queue.NewRequestQueueManager(10, 1)
	t.Cleanup(queueManager.Shutdown)

	server := api.NewAPIServer(":0", queueManager, nil, []api.RouteRegistrar{register},
		api.WithLogger(sl.Discard()),
		api.WithRegisterer(prometheus.NewRegistry()),
	)
	return server.Handler()
}

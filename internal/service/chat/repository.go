package chat

import (
	"context"
	"errors"
	"fmt"

	"chatbot-backend/internal/database"
	"chatbot-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	ErrNotFound = errors.New("chat repository: not found")
	ErrConflict = errors.New("chat repository: version conflict")
)

type Repository interface {
	GetBot(ctx context.Context, botID string) (model.BotItem, error)
	GetConversation(ctx context.Context, botID, sessionID string) (model.ConversationItem, error)
	// SaveTurn stores conv and appends messages in one transaction, provided
	// the stored version still equals expectedVersion. Zero means the row must
	// not exist yet.
	SaveTurn(ctx context.Context, conv model.ConversationItem, messages []model.MessageItem, expectedVersion int64) error
	// ListMessages returns the transcript ordered by seq.
	ListMessages(ctx context.Context, conversationID string) ([]model.MessageItem, error)
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) GetBot(ctx context.Context, botID string) (model.BotItem, error) {
	var bot model.BotItem
	err := r.db.Client.GetItem(
		ctx,
		model.BotsTable,
		map[string]types.AttributeValue{
			"botId": database.StringAttr(botID),
		},
		&bot,
	)
	if err != nil {
		if errors.Is(err, database.ErrItemNotFound) {
			return model.BotItem{}, ErrNotFound
		}
		return model.BotItem{}, err
	}
	return bot, nil
}

func (r *DynamoRepository) GetConversation(ctx context.Context, botID, sessionID string) (model.ConversationItem, error) {
	var conversation model.ConversationItem
	err := r.db.Client.GetItem(
		ctx,
		model.ConversationsTable,
		map[string]types.AttributeValue{
			"pk": database.StringAttr(model.ConversationPK(botID, sessionID)),
		},
		&conversation,
	)
	if err != nil {
		if errors.Is(err, database.ErrItemNotFound) {
			return model.ConversationItem{}, ErrNotFound
		}
		return model.ConversationItem{}, err
	}
	return conversation, nil
}

func (r *DynamoRepository) SaveTurn(ctx context.Context, conv model.ConversationItem, messages []model.MessageItem, expectedVersion int64) error {
	puts := make([]database.Put, 0, len(messages)+1)
	puts = append(puts, database.Put{
		Table: model.ConversationsTable,
		Item:  conv,
		Expr:  conversationCondition(expectedVersion),
	})
	for _, msg := range messages {
		puts = append(puts, database.Put{
			Table: model.MessagesTable,
			Item:  msg,
			Expr:  messageCondition(),
		})
	}

	err := r.db.Client.TransactWrite(ctx, puts...)
	if errors.Is(err, database.ErrConditionFailed) {
		return fmt.Errorf("%w: %s", ErrConflict, conv.PK)
	}
	return err
}

func (r *DynamoRepository) ListMessages(ctx context.Context, conversationID string) ([]model.MessageItem, error) {
	items, err := r.db.Client.QueryAll(
		ctx,
		model.MessagesTable,
		nil,
		"conversationId = :conversationId",
		map[string]types.AttributeValue{
			":conversationId": database.StringAttr(conversationID),
		},
		nil,
	)
	if err != nil {
		return nil, err
	}

	messages := make([]model.MessageItem, 0, len(items))
	for _, item := range items {
		var msg model.MessageItem
		if err := attributevalue.UnmarshalMap(item, &msg); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// conversationCondition guards the conversation row: a fresh row must not
// exist, a stored one must still carry the version the turn was built on.
func conversationCondition(expectedVersion int64) database.Expression {
	if expectedVersion <= 0 {
		return database.Expression{Condition: "attribute_not_exists(pk)"}
	}
	return database.Expression{
		Condition: "#version = :expected",
		Names:     map[string]string{"#version": "version"},
		Values: map[string]types.AttributeValue{
			":expected": database.NumberAttr(expectedVersion),
		},
	}
}

// messageCondition keeps a message slot from being overwritten.
func messageCondition() database.Expression {
	return database.Expression{Condition: "attribute_not_exists(seq)"}
}

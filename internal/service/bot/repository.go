package bot

import (
	"context"
	"errors"
	"fmt"

	"chatbot-backend/internal/database"
	"chatbot-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	ErrNotFound = errors.New("bot repository: not found")
	ErrExists   = errors.New("bot repository: already exists")
)

type Repository interface {
	CreateBot(ctx context.Context, bot model.BotItem) error
	GetBot(ctx context.Context, botID string) (model.BotItem, error)
	ListBotsByOwner(ctx context.Context, ownerID string) ([]model.BotItem, error)
	DeleteBot(ctx context.Context, botID string) error
	UpdateDefinition(ctx context.Context, botID string, def Definition, updatedAt string) (model.BotItem, error)
	UpdateDeployment(ctx context.Context, botID string, status model.BotStatus, deploymentURL, updatedAt string) (model.BotItem, error)
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) CreateBot(ctx context.Context, bot model.BotItem) error {
	err := r.db.Client.PutItem(ctx, model.BotsTable, bot, botMustNotExist())
	if errors.Is(err, database.ErrConditionFailed) {
		return fmt.Errorf("%w: %s", ErrExists, bot.BotID)
	}
	return err
}

// ListBotsByOwner reads the byOwner index, oldest update first.
func (r *DynamoRepository) ListBotsByOwner(ctx context.Context, ownerID string) ([]model.BotItem, error) {
	items, err := r.db.Client.QueryAll(
		ctx,
		model.BotsTable,
		aws.String(model.BotsByOwnerIndex),
		"ownerId = :ownerId",
		map[string]types.AttributeValue{
			":ownerId": database.StringAttr(ownerID),
		},
		nil,
	)
	if err != nil {
		return nil, err
	}

	bots := make([]model.BotItem, 0, len(items))
	for _, item := range items {
		var bot model.BotItem
		if err := attributevalue.UnmarshalMap(item, &bot); err != nil {
			return nil, fmt.Errorf("unmarshal bot: %w", err)
		}
		bots = append(bots, bot)
	}
	return bots, nil
}

func (r *DynamoRepository) DeleteBot(ctx context.Context, botID string) error {
	err := r.db.Client.DeleteItem(ctx, model.BotsTable, botKey(botID), botMustExist())
	if errors.Is(err, database.ErrConditionFailed) {
		return ErrNotFound
	}
	return err
}

func (r *DynamoRepository) GetBot(ctx context.Context, botID string) (model.BotItem, error) {
	var bot model.BotItem
	err := r.db.Client.GetItem(ctx, model.BotsTable, botKey(botID), &bot)
	if err != nil {
		if errors.Is(err, database.ErrItemNotFound) {
			return model.BotItem{}, ErrNotFound
		}
		return model.BotItem{}, err
	}
	return bot, nil
}

// UpdateDefinition replaces the authored parts of a bot. Counters and the
// deployment state are left untouched.
func (r *DynamoRepository) UpdateDefinition(ctx context.Context, botID string, def Definition, updatedAt string) (model.BotItem, error) {
	config, err := attributevalue.Marshal(def.Config)
	if err != nil {
		return model.BotItem{}, err
	}
	intents, err := attributevalue.Marshal(def.Intents)
	if err != nil {
		return model.BotItem{}, err
	}
	flows, err := attributevalue.Marshal(def.Flows)
	if err != nil {
		return model.BotItem{}, err
	}

	var bot model.BotItem
	err = r.db.Client.UpdateItem(
		ctx,
		model.BotsTable,
		botKey(botID),
		database.Expression{
			Update:    "SET #name = :name, #description = :description, #config = :config, #intents = :intents, #flows = :flows, updatedAt = :updatedAt",
			Condition: botMustExist().Condition,
			Names: map[string]string{
				"#name":        "name",
				"#description": "description",
				"#config":      "config",
				"#intents":     "intents",
				"#flows":       "flows",
			},
			Values: map[string]types.AttributeValue{
				":name":        database.StringAttr(def.Name),
				":description": database.StringAttr(def.Description),
				":config":      config,
				":intents":     intents,
				":flows":       flows,
				":updatedAt":   database.StringAttr(updatedAt),
			},
		},
		&bot,
	)
	if errors.Is(err, database.ErrConditionFailed) {
		return model.BotItem{}, ErrNotFound
	}
	return bot, err
}

func (r *DynamoRepository) UpdateDeployment(ctx context.Context, botID string, status model.BotStatus, deploymentURL, updatedAt string) (model.BotItem, error) {
	expr := database.Expression{
		Update:    "SET #status = :status, updatedAt = :updatedAt REMOVE deploymentUrl",
		Condition: botMustExist().Condition,
		Names:     map[string]string{"#status": "status"},
		Values: map[string]types.AttributeValue{
			":status":    database.StringAttr(string(status)),
			":updatedAt": database.StringAttr(updatedAt),
		},
	}
	if deploymentURL != "" {
		expr.Update = "SET #status = :status, updatedAt = :updatedAt, deploymentUrl = :url"
		expr.Values[":url"] = database.StringAttr(deploymentURL)
	}

	var bot model.BotItem
	err := r.db.Client.UpdateItem(ctx, model.BotsTable, botKey(botID), expr, &bot)
	if errors.Is(err, database.ErrConditionFailed) {
		return model.BotItem{}, ErrNotFound
	}
	return bot, err
}

func botKey(botID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"botId": database.StringAttr(botID),
	}
}

func botMustExist() database.Expression {
	return database.Expression{Condition: "attribute_exists(botId)"}
}

func botMustNotExist() database.Expression {
	return database.Expression{Condition: "attribute_not_exists(botId)"}
}

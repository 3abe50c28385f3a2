package analytics

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

var ErrBotNotFound = errors.New("analytics repository: bot not found")

type Repository interface {
	IncrementDaily(ctx context.Context, botID, date string, delta Delta) error
	IncrementBotTotals(ctx context.Context, botID string, delta Delta, at string) error
	ListDaily(ctx context.Context, botID, fromDate, toDate string) ([]model.DailyAnalyticsItem, error)
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

// IncrementDaily adds delta to the row of the given day, creating it on the
// first event of the day.
func (r *DynamoRepository) IncrementDaily(ctx context.Context, botID, date string, delta Delta) error {
	return r.db.Client.UpdateItem(
		ctx,
		model.BotAnalyticsTable,
		map[string]types.AttributeValue{
			"pk": database.StringAttr(model.DailyAnalyticsPK(botID, date)),
		},
		dailyIncrement(botID, date, delta),
		nil,
	)
}

func (r *DynamoRepository) IncrementBotTotals(ctx context.Context, botID string, delta Delta, at string) error {
	err := r.db.Client.UpdateItem(
		ctx,
		model.BotsTable,
		map[string]types.AttributeValue{
			"botId": database.StringAttr(botID),
		},
		botTotalsIncrement(delta, at),
		nil,
	)
	if errors.Is(err, database.ErrConditionFailed) {
		return ErrBotNotFound
	}
	return err
}

func (r *DynamoRepository) ListDaily(ctx context.Context, botID, fromDate, toDate string) ([]model.DailyAnalyticsItem, error) {
	items, err := r.db.Client.QueryAll(
		ctx,
		model.BotAnalyticsTable,
		aws.String(model.BotAnalyticsByBotIndex),
		"botId = :botId AND #date BETWEEN :from AND :to",
		map[string]types.AttributeValue{
			":botId": database.StringAttr(botID),
			":from":  database.StringAttr(fromDate),
			":to":    database.StringAttr(toDate),
		},
		map[string]string{"#date": "date"},
	)
	if err != nil {
		return nil, err
	}

	rows := make([]model.DailyAnalyticsItem, 0, len(items))
	for _, item := range items {
		var row model.DailyAnalyticsItem
		if err := attributevalue.UnmarshalMap(item, &row); err != nil {
			return nil, fmt.Errorf("unmarshal analytics row: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// dailyIncrement creates the day row on first use; ADD treats a missing
// counter as zero.
func dailyIncrement(botID, date string, delta Delta) database.Expression {
	return database.Expression{
		Update: "SET botId = :botId, #date = :date ADD conversations :c, messages :m, uniqueUsers :u",
		Names:  map[string]string{"#date": "date"},
		Values: map[string]types.AttributeValue{
			":botId": database.StringAttr(botID),
			":date":  database.StringAttr(date),
			":c":     database.NumberAttr(delta.Conversations),
			":m":     database.NumberAttr(delta.Messages),
			":u":     database.NumberAttr(delta.UniqueUsers),
		},
	}
}

// botTotalsIncrement never creates a bot row.
func botTotalsIncrement(delta Delta, at string) database.Expression {
	return database.Expression{
		Update:    "SET lastActivity = :at ADD totalMessages :m, totalConversations :c",
		Condition: "attribute_exists(botId)",
		Values: map[string]types.AttributeValue{
			":at": database.StringAttr(at),
			":m":  database.NumberAttr(delta.Messages),
			":c":  database.NumberAttr(delta.Conversations),
		},
	}
}

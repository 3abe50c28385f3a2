package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	ErrItemNotFound    = errors.New("item not found")
	ErrConditionFailed = errors.New("condition check failed")
)

func StringAttr(value string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: value}
}

func NumberAttr(value int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", value)}
}

// Expression groups the pieces of a conditional write or update.
type Expression struct {
	Update    string
	Condition string
	Names     map[string]string
	Values    map[string]types.AttributeValue
}

// GetItem reads one item with strong consistency. A missing item is reported
// as ErrItemNotFound.
func (c *DynamoDBClient) GetItem(
	ctx context.Context,
	tableName string,
	key map[string]types.AttributeValue,
	out interface{},
) error {
	res, err := c.svc.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(tableName),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("get item %s: %w", tableName, err)
	}
	if res.Item == nil {
		return fmt.Errorf("%s: %w", tableName, ErrItemNotFound)
	}

	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return fmt.Errorf("unmarshal item: %w", err)
	}
	return nil
}

// UpdateItem applies expr to the item at key and decodes the new image into
// out when out is non-nil. A failed condition is reported as ErrConditionFailed.
func (c *DynamoDBClient) UpdateItem(
	ctx context.Context,
	tableName string,
	key map[string]types.AttributeValue,
	expr Expression,
	out interface{},
) error {
	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(tableName),
		Key:                       key,
		UpdateExpression:          aws.String(expr.Update),
		ExpressionAttributeValues: expr.Values,
		ReturnValues:              types.ReturnValueAllNew,
	}
	if len(expr.Names) > 0 {
		input.ExpressionAttributeNames = expr.Names
	}
	if expr.Condition != "" {
		input.ConditionExpression = aws.String(expr.Condition)
	}

	res, err := c.svc.UpdateItem(ctx, input)
	if err != nil {
		if isConditionalFailure(err) {
			return fmt.Errorf("update item %s: %w", tableName, ErrConditionFailed)
		}
		return fmt.Errorf("update item %s: %w", tableName, err)
	}

	if out != nil {
		if err := attributevalue.UnmarshalMap(res.Attributes, out); err != nil {
			return fmt.Errorf("unmarshal updated item: %w", err)
		}
	}
	return nil
}

// PutItem writes item, guarded by expr.Condition when set.
func (c *DynamoDBClient) PutItem(ctx context.Context, tableName string, item interface{}, expr Expression) error {
	put, err := buildPut(Put{Table: tableName, Item: item, Expr: expr})
	if err != nil {
		return err
	}

	_, err = c.svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 put.TableName,
		Item:                      put.Item,
		ConditionExpression:       put.ConditionExpression,
		ExpressionAttributeNames:  put.ExpressionAttributeNames,
		ExpressionAttributeValues: put.ExpressionAttributeValues,
	})
	if err != nil {
		if isConditionalFailure(err) {
			return fmt.Errorf("put item %s: %w", tableName, ErrConditionFailed)
		}
		return fmt.Errorf("put item %s: %w", tableName, err)
	}
	return nil
}

// DeleteItem removes the item at key, guarded by expr.Condition when set.
func (c *DynamoDBClient) DeleteItem(ctx context.Context, tableName string, key map[string]types.AttributeValue, expr Expression) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(tableName),
		Key:       key,
	}
	if expr.Condition != "" {
		input.ConditionExpression = aws.String(expr.Condition)
	}
	if len(expr.Names) > 0 {
		input.ExpressionAttributeNames = expr.Names
	}
	if len(expr.Values) > 0 {
		input.ExpressionAttributeValues = expr.Values
	}

	if _, err := c.svc.DeleteItem(ctx, input); err != nil {
		if isConditionalFailure(err) {
			return fmt.Errorf("delete item %s: %w", tableName, ErrConditionFailed)
		}
		return fmt.Errorf("delete item %s: %w", tableName, err)
	}
	return nil
}

// Put is one conditional put inside a transaction.
type Put struct {
	Table string
	Item  interface{}
	Expr  Expression
}

// TransactWrite commits puts atomically. When any condition fails the whole
// transaction is cancelled and ErrConditionFailed is returned.
func (c *DynamoDBClient) TransactWrite(ctx context.Context, puts ...Put) error {
	if len(puts) == 0 {
		return nil
	}
	if len(puts) > maxTransactItems {
		return fmt.Errorf("transact write: %d items exceeds the limit of %d", len(puts), maxTransactItems)
	}

	items := make([]types.TransactWriteItem, 0, len(puts))
	for _, p := range puts {
		put, err := buildPut(p)
		if err != nil {
			return err
		}
		items = append(items, types.TransactWriteItem{Put: put})
	}

	_, err := c.svc.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		if isConditionalCancel(err) {
			return fmt.Errorf("transact write %s: %w", puts[0].Table, ErrConditionFailed)
		}
		return fmt.Errorf("transact write %s: %w", puts[0].Table, err)
	}
	return nil
}

const maxTransactItems = 100

func buildPut(p Put) (*types.Put, error) {
	av, err := attributevalue.MarshalMap(p.Item)
	if err != nil {
		return nil, fmt.Errorf("marshal %s item: %w", p.Table, err)
	}

	put := &types.Put{
		TableName: aws.String(p.Table),
		Item:      av,
	}
	if p.Expr.Condition != "" {
		put.ConditionExpression = aws.String(p.Expr.Condition)
	}
	if len(p.Expr.Names) > 0 {
		put.ExpressionAttributeNames = p.Expr.Names
	}
	if len(p.Expr.Values) > 0 {
		put.ExpressionAttributeValues = p.Expr.Values
	}
	return put, nil
}

// QueryAll runs the query to completion, following LastEvaluatedKey.
func (c *DynamoDBClient) QueryAll(
	ctx context.Context,
	tableName string,
	indexName *string,
	keyCondExpr string,
	exprAttrValues map[string]types.AttributeValue,
	exprAttrNames map[string]string,
) ([]map[string]types.AttributeValue, error) {
	var allItems []map[string]types.AttributeValue
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(tableName),
			IndexName:                 indexName,
			KeyConditionExpression:    aws.String(keyCondExpr),
			ExpressionAttributeValues: exprAttrValues,
			ExclusiveStartKey:         lastEvaluatedKey,
			ScanIndexForward:          aws.Bool(true),
		}
		if len(exprAttrNames) > 0 {
			input.ExpressionAttributeNames = exprAttrNames
		}

		result, err := c.svc.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query all %s[%s]: %w", tableName, aws.ToString(indexName), err)
		}

		allItems = append(allItems, result.Items...)

		if result.LastEvaluatedKey == nil {
			break
		}
		lastEvaluatedKey = result.LastEvaluatedKey
	}

	return allItems, nil
}

func isConditionalFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func isConditionalCancel(err error) bool {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return false
	}
	for _, reason := range tce.CancellationReasons {
		if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}

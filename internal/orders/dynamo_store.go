package orders

import (
	"context"
	"errors"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/imrishuroy/printeasy-orderflow/internal/aws"
)

// StatusIndex is the GSI (hash: status, range: submitted_at) used to list orders by status.
const StatusIndex = "status-submitted_at-index"

const (
	conditionExists     = "attribute_exists(id)"
	conditionNotExists  = "attribute_not_exists(id)"
	conditionTransition = "attribute_exists(id) AND (#s = :new OR #s = :pending)"
)

// DynamoStore keeps orders as single items with the documents nested as a list.
type DynamoStore struct {
	client      aws.DynamoDBAPI
	tableName   string
	statusIndex string
	newID       func() string
}

// NewDynamoStore creates a new orders store on tableName.
func NewDynamoStore(client aws.DynamoDBAPI, tableName string) *DynamoStore {
	return &DynamoStore{
		client:      client,
		tableName:   tableName,
		statusIndex: StatusIndex,
		newID:       uuid.NewString,
	}
}

// Insert assigns a uuid and writes the order with attribute_not_exists.
func (s *DynamoStore) Insert(ctx context.Context, order Order) (string, error) {
	if err := order.Validate(); err != nil {
		return "", err
	}
	order.ID = s.newID()
	order.SubmittedAt = order.SubmittedAt.UTC()

	item, err := attributevalue.MarshalMap(order)
	if err != nil {
		return "", fmt.Errorf("marshal order item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString(conditionNotExists),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			return "", fmt.Errorf("put item: duplicate id %s", order.ID)
		}
		return "", fmt.Errorf("put item: %w", err)
	}
	return order.ID, nil
}

// ListByStatus queries the status index page by page.
func (s *DynamoStore) ListByStatus(ctx context.Context, status Status) ([]Order, error) {
	out := []Order{}
	var startKey map[string]types.AttributeValue

	for {
		page, err := s.client.Query(ctx, &dyn.QueryInput{
			TableName:                &s.tableName,
			IndexName:                &s.statusIndex,
			KeyConditionExpression:   awsString("#s = :status"),
			ExpressionAttributeNames: map[string]string{"#s": "status"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":status": &types.AttributeValueMemberS{Value: string(status)},
			},
			ScanIndexForward:  sdkaws.Bool(true),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("query orders by status: %w", err)
		}

		var batch []Order
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal orders: %w", err)
		}
		out = append(out, batch...)

		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		startKey = page.LastEvaluatedKey
	}

	sortBySubmitted(out)
	return out, nil
}

// UpdateStatus sets the status in one conditional write. The condition admits
// same-state writes and Pending -> Done, so marking Done twice is a no-op.
// The old image tells whether the write changed anything.
func (s *DynamoStore) UpdateStatus(ctx context.Context, id string, status Status) (bool, error) {
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:         awsString("SET #s = :new"),
		ConditionExpression:      awsString(conditionTransition),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new":     &types.AttributeValueMemberS{Value: string(status)},
			":pending": &types.AttributeValueMemberS{Value: string(StatusPending)},
		},
		ReturnValues:                        types.ReturnValueUpdatedOld,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}

	out, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			if len(ccf.Item) == 0 {
				return false, ErrNotFound
			}
			return false, ErrInvalidTransition
		}
		return false, fmt.Errorf("update item: %w", err)
	}

	old, ok := out.Attributes["status"].(*types.AttributeValueMemberS)
	return !ok || old.Value != string(status), nil
}

// Delete removes one order or returns ErrNotFound.
func (s *DynamoStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: awsString(conditionExists),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			return ErrNotFound
		}
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }

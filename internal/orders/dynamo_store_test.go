package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDynamo is a map-backed table that understands the handful of
// expressions DynamoStore issues. pageSize > 0 splits Query results.
type mockDynamo struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	pageSize int
	failPut  error
	queries  int
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func keyOf(m map[string]types.AttributeValue) (string, error) {
	v, ok := m["id"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("no id attribute")
	}
	return v.Value, nil
}

func strAttr(m map[string]types.AttributeValue, name string) string {
	if v, ok := m[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != nil {
		return nil, m.failPut
	}
	pk, err := keyOf(params.Item)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil && *params.ConditionExpression == conditionNotExists {
		if _, exists := m.items[pk]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.items[pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.items[pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, exists := m.items[pk]
	newStatus := params.ExpressionAttributeValues[":new"].(*types.AttributeValueMemberS).Value

	if params.ConditionExpression != nil && *params.ConditionExpression == conditionTransition {
		if !exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
		curr := strAttr(item, "status")
		pending := params.ExpressionAttributeValues[":pending"].(*types.AttributeValueMemberS).Value
		if curr != newStatus && curr != pending {
			return nil, &types.ConditionalCheckFailedException{Item: item}
		}
	}
	if !exists {
		return nil, errors.New("item not found")
	}

	updated := map[string]types.AttributeValue{}
	for k, v := range item {
		updated[k] = v
	}
	updated["status"] = &types.AttributeValueMemberS{Value: newStatus}
	m.items[pk] = updated

	out := &dyn.UpdateItemOutput{}
	if params.ReturnValues == types.ReturnValueUpdatedOld {
		out.Attributes = map[string]types.AttributeValue{"status": item["status"]}
	}
	return out, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pk, err := keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	if _, exists := m.items[pk]; !exists {
		if params.ConditionExpression != nil && *params.ConditionExpression == conditionExists {
			return nil, &types.ConditionalCheckFailedException{}
		}
		return &dyn.DeleteItemOutput{}, nil
	}
	delete(m.items, pk)
	return &dyn.DeleteItemOutput{}, nil
}

func (m *mockDynamo) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	if params.IndexName == nil || *params.IndexName != StatusIndex {
		return nil, fmt.Errorf("unexpected index")
	}
	want := params.ExpressionAttributeValues[":status"].(*types.AttributeValueMemberS).Value

	var matched []map[string]types.AttributeValue
	for _, item := range m.items {
		if strAttr(item, "status") == want {
			matched = append(matched, item)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return strAttr(matched[i], "id") < strAttr(matched[j], "id")
	})

	start := 0
	if params.ExclusiveStartKey != nil {
		last := strAttr(params.ExclusiveStartKey, "id")
		for i, item := range matched {
			if strAttr(item, "id") == last {
				start = i + 1
			}
		}
	}
	end := len(matched)
	if m.pageSize > 0 && start+m.pageSize < end {
		end = start + m.pageSize
	}

	out := &dyn.QueryOutput{Items: matched[start:end]}
	if end < len(matched) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"id": matched[end-1]["id"],
		}
	}
	return out, nil
}

func sampleOrder(phone string, submitted time.Time, docs ...Document) Order {
	if len(docs) == 0 {
		docs = []Document{{DocLink: "https://files/a.pdf", Pages: 10, Copies: 2, IsColor: true, Layout: "Single-sided", Price: 100}}
	}
	o := Order{
		Phone:          phone,
		Status:         StatusPending,
		SubmittedAt:    submitted,
		ScreenshotLink: "https://files/pay.png",
		Documents:      docs,
	}
	o.TotalPrice = o.Total()
	return o
}

func TestDynamoStore_InsertAndList(t *testing.T) {
	mock := newMockDynamo()
	store := NewDynamoStore(mock, "print_requests")
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	id, err := store.Insert(ctx, sampleOrder("9876543210", now,
		Document{DocLink: "l1", Pages: 10, Copies: 2, IsColor: true, Layout: "Single-sided", Price: 100},
		Document{DocLink: "l2", Pages: 10, Copies: 2, IsColor: true, Layout: "Double-sided", Price: 50},
	))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	list, err := store.ListByStatus(ctx, StatusPending)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got := list[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "9876543210", got.Phone)
	assert.True(t, now.Equal(got.SubmittedAt))
	require.Len(t, got.Documents, 2)
	assert.Equal(t, "l2", got.Documents[1].DocLink)
	assert.Equal(t, 150.0, got.TotalPrice)

	done, err := store.ListByStatus(ctx, StatusDone)
	require.NoError(t, err)
	assert.Empty(t, done)
}

func TestDynamoStore_InsertRejectsInvalid(t *testing.T) {
	store := NewDynamoStore(newMockDynamo(), "print_requests")

	_, err := store.Insert(context.Background(), Order{Phone: "9876543210", Status: StatusPending, SubmittedAt: time.Now()})
	assert.Error(t, err)
}

func TestDynamoStore_InsertPutFailure(t *testing.T) {
	mock := newMockDynamo()
	mock.failPut = errors.New("throttled")
	store := NewDynamoStore(mock, "print_requests")

	_, err := store.Insert(context.Background(), sampleOrder("9876543210", time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestDynamoStore_ListPaginatesAndSorts(t *testing.T) {
	mock := newMockDynamo()
	mock.pageSize = 2
	store := NewDynamoStore(mock, "print_requests")
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := store.Insert(ctx, sampleOrder("9876543210", base.Add(time.Duration(5-i)*time.Minute)))
		require.NoError(t, err)
	}

	list, err := store.ListByStatus(ctx, StatusPending)
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, 3, mock.queries)
	for i := 1; i < len(list); i++ {
		assert.True(t, list[i-1].SubmittedAt.Before(list[i].SubmittedAt))
	}
}

func TestDynamoStore_UpdateStatus(t *testing.T) {
	mock := newMockDynamo()
	store := NewDynamoStore(mock, "print_requests")
	ctx := context.Background()

	id, err := store.Insert(ctx, sampleOrder("9876543210", time.Now()))
	require.NoError(t, err)

	// Pending -> Done
	changed, err := store.UpdateStatus(ctx, id, StatusDone)
	require.NoError(t, err)
	assert.True(t, changed)
	// Done -> Done is a no-op
	changed, err = store.UpdateStatus(ctx, id, StatusDone)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "Done", strAttr(mock.items[id], "status"))

	// Done -> Pending is refused
	_, err = store.UpdateStatus(ctx, id, StatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, "Done", strAttr(mock.items[id], "status"))

	_, err = store.UpdateStatus(ctx, "missing", StatusDone)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDynamoStore_Delete(t *testing.T) {
	mock := newMockDynamo()
	store := NewDynamoStore(mock, "print_requests")
	ctx := context.Background()

	id, err := store.Insert(ctx, sampleOrder("9876543210", time.Now()))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, id))
	assert.Empty(t, mock.items)
	assert.ErrorIs(t, store.Delete(ctx, id), ErrNotFound)
}

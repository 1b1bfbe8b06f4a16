package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/vanvan1998/todoApp/internal/domain"
)

// TodoRepo provides typed DynamoDB operations for the todos table. Each
// user's items form one logical partition addressed through the
// user_id-created_at GSI.
type TodoRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTodoRepo(client *dynamodb.Client, tableName string) *TodoRepo {
	return &TodoRepo{client: client, tableName: tableName}
}

func (r *TodoRepo) Put(ctx context.Context, t *domain.Todo) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal todo: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *TodoRepo) Get(ctx context.Context, todoID string) (*domain.Todo, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("todo_id", todoID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("todo not found: %w", domain.ErrNotFound)
	}
	var t domain.Todo
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByUser returns the full item set of one user's partition via the
// user_id-created_at GSI. The GSI range key means results come back in
// created_at order; that order is what the sync core treats as "snapshot
// order".
func (r *TodoRepo) ListByUser(ctx context.Context, userID string) ([]domain.Todo, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-created_at-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	var todos []domain.Todo
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// Overwrite replaces every editable field of a todo in one write. Optional
// fields the caller did not set are written as their zero value — this is a
// full-field overwrite, not a sparse patch. Completed and created_at are
// left untouched.
func (r *TodoRepo) Overwrite(ctx context.Context, todoID string, req domain.UpdateTodoRequest) error {
	return r.Update(ctx, todoID, map[string]interface{}{
		fieldTitle:        req.Title,
		fieldDetail:       req.Detail,
		fieldStartDate:    req.StartDate,
		fieldStartTime:    req.StartTime,
		fieldNotification: req.Notification,
	})
}

// SetCompleted flips the completed flag write-through.
func (r *TodoRepo) SetCompleted(ctx context.Context, todoID string, completed bool) error {
	return r.Update(ctx, todoID, map[string]interface{}{fieldCompleted: completed})
}

// ClearNotification marks a reminder as consumed so the scheduler does not
// alert it again.
func (r *TodoRepo) ClearNotification(ctx context.Context, todoID string) error {
	return r.Update(ctx, todoID, map[string]interface{}{fieldNotification: false})
}

func (r *TodoRepo) Update(ctx context.Context, todoID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("todo_id", todoID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *TodoRepo) Delete(ctx context.Context, todoID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("todo_id", todoID),
	})
	return err
}

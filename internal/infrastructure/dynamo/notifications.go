package dynamo

import (
	"context"
	"fmt"

	"github.com/aidbridge-api/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    API
	tableName string
}

func NewNotificationRepo(client API, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

func (r *NotificationRepo) Put(ctx context.Context, n *domain.Notification) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return storeErr("put notification", err)
	}
	return nil
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldNotificationID, notificationID),
	})
	if err != nil {
		return nil, storeErr("get notification", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListUnread returns a user's unread notifications, newest first, reading at
// most limit of them.
func (r *NotificationRepo) ListUnread(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexNotificationsByUser),
		KeyConditionExpression: aws.String("user_id = :uid"),
		FilterExpression:       aws.String("#r = :false"),
		ExpressionAttributeNames: map[string]string{
			"#r": fieldRead,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid":   strVal(userID),
			":false": &types.AttributeValueMemberBOOL{Value: false},
		},
		ScanIndexForward: aws.Bool(false),
	}
	notifications := []domain.Notification{}
	for len(notifications) < limit {
		in.Limit = aws.Int32(int32(limit - len(notifications)))
		out, err := r.client.Query(ctx, in)
		if err != nil {
			return nil, storeErr("list notifications", err)
		}
		var batch []domain.Notification
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &batch); err != nil {
			return nil, err
		}
		notifications = append(notifications, batch...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return notifications, nil
}

// MarkRead sets read=true on a notification owned by userID. Repeating the
// call is harmless. A notification owned by someone else yields ErrPermission.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID, userID string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldRead: true})
	if err != nil {
		return err
	}
	ue.Values[":uid"] = strVal(userID)
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldNotificationID, notificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(notification_id) AND user_id = :uid"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if _, ok := conditionFailed(err); ok {
		if _, gerr := r.Get(ctx, notificationID); gerr != nil {
			return gerr
		}
		return fmt.Errorf("notification belongs to another user: %w", domain.ErrPermission)
	}
	if err != nil {
		return storeErr("mark notification read", err)
	}
	return nil
}

package dynamo

import (
	"context"
	"fmt"

	"github.com/aidbridge-api/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// UserRoleRepo provides typed DynamoDB operations for the user_roles table.
type UserRoleRepo struct {
	client    API
	tableName string
}

func NewUserRoleRepo(client API, tableName string) *UserRoleRepo {
	return &UserRoleRepo{client: client, tableName: tableName}
}

func (r *UserRoleRepo) Put(ctx context.Context, ur *domain.UserRole) error {
	item, err := attributevalue.MarshalMap(ur)
	if err != nil {
		return fmt.Errorf("marshal user role: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return storeErr("put user role", err)
	}
	return nil
}

func (r *UserRoleRepo) Get(ctx context.Context, userID string) (*domain.UserRole, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldUserID, userID),
	})
	if err != nil {
		return nil, storeErr("get user role", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user role not found: %w", domain.ErrNotFound)
	}
	var ur domain.UserRole
	if err := attributevalue.UnmarshalMap(out.Item, &ur); err != nil {
		return nil, err
	}
	return &ur, nil
}

package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aidbridge-api/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Bootstrap creates all DynamoDB tables and GSIs if they don't already exist.
// Safe to call on every startup; tables that already exist are skipped.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables) {
	// Index range keys are ULIDs (request_id, claim_seq) so that key order
	// is creation order.
	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Requests),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr(fieldRequestID),
			strAttr(fieldUserID),
			strAttr(fieldStatus),
			strAttr(fieldKind),
			strAttr(fieldClaimedBy),
			strAttr(fieldClaimSeq),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(fieldRequestID), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexRequestsByOwner, fieldUserID, fieldRequestID),
			gsi(indexRequestsByStatus, fieldStatus, fieldRequestID),
			gsi(indexRequestsAll, fieldKind, fieldRequestID),
			gsi(indexRequestsByClaimant, fieldClaimedBy, fieldClaimSeq),
		},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Notifications),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr(fieldNotificationID),
			strAttr(fieldUserID),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(fieldNotificationID), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexNotificationsByUser, fieldUserID, fieldNotificationID),
		},
	})

	for _, name := range []string{tables.Profiles, tables.UserRoles} {
		createTable(ctx, client, &dynamodb.CreateTableInput{
			TableName:            aws.String(name),
			BillingMode:          types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{strAttr(fieldUserID)},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(fieldUserID), KeyType: types.KeyTypeHash},
			},
		})
	}

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Accounts),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr(fieldUserID),
			strAttr(fieldEmail),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(fieldUserID), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexAccountsByEmail, fieldEmail, ""),
		},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Sessions),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr(fieldSessionID),
			strAttr(fieldUserID),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(fieldSessionID), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexSessionsByUser, fieldUserID, ""),
		},
	})

	// Donations are not written by any flow yet; the table keeps the schema
	// aligned with the web client.
	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Donations),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr("donation_id"),
			strAttr(fieldRequestID),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("donation_id"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexDonationsByRequest, fieldRequestID, ""),
		},
	})
}

func strAttr(name string) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
}

// gsi builds a GSI descriptor. If sortKey is empty, only a hash key is added.
func gsi(indexName, hashKey, sortKey string) types.GlobalSecondaryIndex {
	ks := []types.KeySchemaElement{
		{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
	}
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange,
		})
	}
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  ks,
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

func createTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput) {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			slog.Warn("could not create table", "table", *input.TableName, "err", err)
		}
	} else {
		slog.Info("created table", "table", *input.TableName)
	}
}

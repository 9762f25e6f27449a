package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aidbridge-api/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI records inputs and answers from canned functions.
type fakeAPI struct {
	get     func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	put     func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	update  func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	query   func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	queries []dynamodb.QueryInput
}

func (f *fakeAPI) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return f.get(in)
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return f.put(in)
}

func (f *fakeAPI) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return f.update(in)
}

func (f *fakeAPI) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries = append(f.queries, *in)
	return f.query(in)
}

func requestItem(t *testing.T, req domain.AidRequest) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(req)
	require.NoError(t, err)
	return item
}

func TestRequestRepo_Put_SetsKindAndGuardsOverwrite(t *testing.T) {
	var got *dynamodb.PutItemInput
	api := &fakeAPI{put: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
		got = in
		return &dynamodb.PutItemOutput{}, nil
	}}
	repo := NewRequestRepo(api, "aid_requests")

	require.NoError(t, repo.Put(context.Background(), &domain.AidRequest{RequestID: "r1", Status: domain.StatusOpen}))
	assert.Equal(t, "attribute_not_exists(request_id)", aws.ToString(got.ConditionExpression))
	assert.Equal(t, strVal(domain.RequestKind), got.Item[fieldKind])
	_, hasClaimant := got.Item[fieldClaimedBy]
	assert.False(t, hasClaimant)
}

func TestRequestRepo_Claim_Success(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	claimant := "helper-1"
	var got *dynamodb.UpdateItemInput
	api := &fakeAPI{update: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
		got = in
		return &dynamodb.UpdateItemOutput{Attributes: requestItem(t, domain.AidRequest{
			RequestID: "r1", Status: domain.StatusClaimed, Claimant: &claimant, ClaimedAt: &now,
		})}, nil
	}}
	repo := NewRequestRepo(api, "aid_requests")

	req, err := repo.Claim(context.Background(), "r1", claimant, "seq", now)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClaimed, req.Status)
	assert.Equal(t, claimant, *req.Claimant)
	assert.Equal(t, "attribute_exists(request_id) AND #s = :open", aws.ToString(got.ConditionExpression))
	assert.Equal(t, fieldStatus, got.ExpressionAttributeNames["#s"])
	assert.Equal(t, strVal("open"), got.ExpressionAttributeValues[":open"])
}

func TestRequestRepo_Claim_ConditionFailedWithOldItem(t *testing.T) {
	api := &fakeAPI{update: func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
		return nil, &types.ConditionalCheckFailedException{
			Item: requestItem(t, domain.AidRequest{RequestID: "r1", Status: domain.StatusClaimed}),
		}
	}}
	_, err := NewRequestRepo(api, "t").Claim(context.Background(), "r1", "h", "s", time.Now())
	assert.True(t, errors.Is(err, domain.ErrAlreadyClaimed))
}

func TestRequestRepo_Claim_ConditionFailedMissingRow(t *testing.T) {
	api := &fakeAPI{
		update: func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{}
		},
		get: func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{}, nil
		},
	}
	_, err := NewRequestRepo(api, "t").Claim(context.Background(), "missing", "h", "s", time.Now())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRequestRepo_Claim_ConditionFailedWithoutOldItemRereads(t *testing.T) {
	api := &fakeAPI{
		update: func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			return nil, &types.ConditionalCheckFailedException{}
		},
		get: func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: requestItem(t, domain.AidRequest{RequestID: "r1", Status: domain.StatusFulfilled})}, nil
		},
	}
	_, err := NewRequestRepo(api, "t").Claim(context.Background(), "r1", "h", "s", time.Now())
	assert.True(t, errors.Is(err, domain.ErrAlreadyClaimed))
}

func TestRequestRepo_Claim_StoreFailureIsNetworkError(t *testing.T) {
	api := &fakeAPI{update: func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
		return nil, errors.New("dial tcp: timeout")
	}}
	_, err := NewRequestRepo(api, "t").Claim(context.Background(), "r1", "h", "s", time.Now())
	assert.True(t, errors.Is(err, domain.ErrNetwork))
}

func TestRequestRepo_List_PicksIndexFromFilter(t *testing.T) {
	cases := []struct {
		filter domain.RequestFilter
		index  string
		key    string
	}{
		{domain.RequestFilter{Owner: "u1"}, indexRequestsByOwner, "user_id = :pk"},
		{domain.RequestFilter{Claimant: "h1"}, indexRequestsByClaimant, "claimed_by = :pk"},
		{domain.RequestFilter{Status: domain.StatusOpen}, indexRequestsByStatus, "#s = :pk"},
		{domain.RequestFilter{}, indexRequestsAll, "kind = :pk"},
	}
	for _, tc := range cases {
		api := &fakeAPI{query: func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			return &dynamodb.QueryOutput{}, nil
		}}
		_, err := NewRequestRepo(api, "t").List(context.Background(), tc.filter)
		require.NoError(t, err)
		require.Len(t, api.queries, 1)
		q := api.queries[0]
		assert.Equal(t, tc.index, aws.ToString(q.IndexName))
		assert.Equal(t, tc.key, aws.ToString(q.KeyConditionExpression))
		assert.False(t, aws.ToBool(q.ScanIndexForward))
	}
}

func TestRequestRepo_List_FiltersCategoryAndUrgency(t *testing.T) {
	api := &fakeAPI{query: func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
		return &dynamodb.QueryOutput{}, nil
	}}
	_, err := NewRequestRepo(api, "t").List(context.Background(), domain.RequestFilter{
		Owner: "u1", Status: domain.StatusOpen, Category: domain.CategoryFood, Urgency: domain.UrgencyCritical,
	})
	require.NoError(t, err)
	q := api.queries[0]
	assert.Equal(t, "#s = :status AND #c = :category AND #u = :urgency", aws.ToString(q.FilterExpression))
	assert.Equal(t, strVal("food"), q.ExpressionAttributeValues[":category"])
	assert.Equal(t, strVal("critical"), q.ExpressionAttributeValues[":urgency"])
}

func TestRequestRepo_List_ReadsUntilPageIsFull(t *testing.T) {
	page := 0
	api := &fakeAPI{query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
		page++
		switch page {
		case 1:
			// filter dropped most of the first read
			return &dynamodb.QueryOutput{
				Items:            []map[string]types.AttributeValue{requestItem(t, domain.AidRequest{RequestID: "r9"})},
				LastEvaluatedKey: map[string]types.AttributeValue{"request_id": strVal("r5")},
			}, nil
		default:
			assert.Equal(t, int32(2), aws.ToInt32(in.Limit))
			assert.Equal(t, strVal("r5"), in.ExclusiveStartKey["request_id"])
			return &dynamodb.QueryOutput{
				Items: []map[string]types.AttributeValue{
					requestItem(t, domain.AidRequest{RequestID: "r4"}),
					requestItem(t, domain.AidRequest{RequestID: "r3"}),
				},
				LastEvaluatedKey: map[string]types.AttributeValue{"request_id": strVal("r3")},
			}, nil
		}
	}}
	got, err := NewRequestRepo(api, "t").List(context.Background(), domain.RequestFilter{Limit: 3})
	require.NoError(t, err)
	require.Len(t, got.Items, 3)
	assert.Equal(t, "r9", got.Items[0].RequestID)
	assert.Equal(t, "r3", got.Items[2].RequestID)
	assert.NotEmpty(t, got.NextCursor)

	next, err := decodeCursor(got.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, strVal("r3"), next["request_id"])
}

func TestRequestRepo_List_LastPageHasNoCursor(t *testing.T) {
	api := &fakeAPI{query: func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
		return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{requestItem(t, domain.AidRequest{RequestID: "r1"})}}, nil
	}}
	got, err := NewRequestRepo(api, "t").List(context.Background(), domain.RequestFilter{})
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
	assert.Empty(t, got.NextCursor)
	assert.Equal(t, int32(defaultPageSize), aws.ToInt32(api.queries[0].Limit))
}

func TestNotificationRepo_MarkRead(t *testing.T) {
	notif := domain.Notification{NotificationID: "n1", UserID: "owner"}
	item, err := attributevalue.MarshalMap(notif)
	require.NoError(t, err)

	api := &fakeAPI{
		update: func(in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			if in.ExpressionAttributeValues[":uid"].(*types.AttributeValueMemberS).Value != "owner" {
				return nil, &types.ConditionalCheckFailedException{}
			}
			return &dynamodb.UpdateItemOutput{}, nil
		},
		get: func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: item}, nil
		},
	}
	repo := NewNotificationRepo(api, "notifications")

	assert.NoError(t, repo.MarkRead(context.Background(), "n1", "owner"))
	assert.NoError(t, repo.MarkRead(context.Background(), "n1", "owner"))
	assert.True(t, errors.Is(repo.MarkRead(context.Background(), "n1", "intruder"), domain.ErrPermission))
}

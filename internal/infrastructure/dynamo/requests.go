package dynamo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aidbridge-api/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const defaultPageSize = 50

// RequestRepo provides typed DynamoDB operations for the aid_requests table.
type RequestRepo struct {
	client    API
	tableName string
}

func NewRequestRepo(client API, tableName string) *RequestRepo {
	return &RequestRepo{client: client, tableName: tableName}
}

// Put inserts a new request. An existing row with the same id is a conflict.
func (r *RequestRepo) Put(ctx context.Context, req *domain.AidRequest) error {
	req.Kind = domain.RequestKind
	item, err := attributevalue.MarshalMap(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(request_id)"),
	})
	if _, ok := conditionFailed(err); ok {
		return fmt.Errorf("request %s exists: %w", req.RequestID, domain.ErrConflict)
	}
	if err != nil {
		return storeErr("put request", err)
	}
	return nil
}

func (r *RequestRepo) Get(ctx context.Context, requestID string) (*domain.AidRequest, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldRequestID, requestID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storeErr("get request", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("request not found: %w", domain.ErrNotFound)
	}
	var req domain.AidRequest
	if err := attributevalue.UnmarshalMap(out.Item, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// Claim moves an open request to claimed in a single conditional write.
// Of any number of concurrent callers exactly one succeeds; the others get
// ErrAlreadyClaimed, or ErrNotFound when the row does not exist.
func (r *RequestRepo) Claim(ctx context.Context, requestID, claimant, claimSeq string, at time.Time) (*domain.AidRequest, error) {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldStatus:    domain.StatusClaimed,
		fieldClaimedBy: claimant,
		fieldClaimedAt: at,
		fieldClaimSeq:  claimSeq,
		fieldUpdatedAt: at,
	})
	if err != nil {
		return nil, err
	}
	ue.Names["#s"] = fieldStatus
	ue.Values[":open"] = strVal(string(domain.StatusOpen))

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           aws.String(r.tableName),
		Key:                                 strKey(fieldRequestID, requestID),
		UpdateExpression:                    aws.String(ue.Expr),
		ConditionExpression:                 aws.String("attribute_exists(request_id) AND #s = :open"),
		ExpressionAttributeNames:            ue.Names,
		ExpressionAttributeValues:           ue.Values,
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if ccf, ok := conditionFailed(err); ok {
		if ccf.Item != nil {
			return nil, fmt.Errorf("claim %s: %w", requestID, domain.ErrAlreadyClaimed)
		}
		// Not every emulator returns the old item; fall back to a read.
		if _, gerr := r.Get(ctx, requestID); gerr != nil {
			return nil, gerr
		}
		return nil, fmt.Errorf("claim %s: %w", requestID, domain.ErrAlreadyClaimed)
	}
	if err != nil {
		return nil, storeErr("claim request", err)
	}
	var req domain.AidRequest
	if err := attributevalue.UnmarshalMap(out.Attributes, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// SetImage stores the public image URL on an existing request.
func (r *RequestRepo) SetImage(ctx context.Context, requestID, url string, at time.Time) (*domain.AidRequest, error) {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldImageURL:  url,
		fieldUpdatedAt: at,
	})
	if err != nil {
		return nil, err
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldRequestID, requestID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(request_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if _, ok := conditionFailed(err); ok {
		return nil, fmt.Errorf("request not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("set request image", err)
	}
	var req domain.AidRequest
	if err := attributevalue.UnmarshalMap(out.Attributes, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns one page of requests matching f, newest first. The index is
// chosen from the most selective key present: owner, claimant, status, or
// the all-requests partition. Category and urgency are filter expressions,
// so the query keeps reading until the page is full or the index is done.
func (r *RequestRepo) List(ctx context.Context, f domain.RequestFilter) (domain.RequestPage, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	start, err := decodeCursor(f.Cursor)
	if err != nil {
		return domain.RequestPage{}, err
	}

	in := r.listQuery(f)
	items := make([]domain.AidRequest, 0, limit)
	for len(items) < limit {
		in.Limit = aws.Int32(int32(limit - len(items)))
		in.ExclusiveStartKey = start
		out, err := r.client.Query(ctx, in)
		if err != nil {
			return domain.RequestPage{}, storeErr("list requests", err)
		}
		var batch []domain.AidRequest
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &batch); err != nil {
			return domain.RequestPage{}, err
		}
		items = append(items, batch...)
		start = out.LastEvaluatedKey
		if len(start) == 0 {
			break
		}
	}

	next, err := encodeCursor(start)
	if err != nil {
		return domain.RequestPage{}, err
	}
	return domain.RequestPage{Items: items, NextCursor: next}, nil
}

func (r *RequestRepo) listQuery(f domain.RequestFilter) *dynamodb.QueryInput {
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	var filters []string

	in := &dynamodb.QueryInput{
		TableName:        aws.String(r.tableName),
		ScanIndexForward: aws.Bool(false),
	}
	switch {
	case f.Owner != "":
		in.IndexName = aws.String(indexRequestsByOwner)
		in.KeyConditionExpression = aws.String("user_id = :pk")
		values[":pk"] = strVal(f.Owner)
	case f.Claimant != "":
		in.IndexName = aws.String(indexRequestsByClaimant)
		in.KeyConditionExpression = aws.String("claimed_by = :pk")
		values[":pk"] = strVal(f.Claimant)
	case f.Status != "":
		in.IndexName = aws.String(indexRequestsByStatus)
		in.KeyConditionExpression = aws.String("#s = :pk")
		names["#s"] = fieldStatus
		values[":pk"] = strVal(string(f.Status))
	default:
		in.IndexName = aws.String(indexRequestsAll)
		in.KeyConditionExpression = aws.String("kind = :pk")
		values[":pk"] = strVal(domain.RequestKind)
	}

	if f.Status != "" && (f.Owner != "" || f.Claimant != "") {
		names["#s"] = fieldStatus
		values[":status"] = strVal(string(f.Status))
		filters = append(filters, "#s = :status")
	}
	if f.Category != "" {
		names["#c"] = fieldCategory
		values[":category"] = strVal(string(f.Category))
		filters = append(filters, "#c = :category")
	}
	if f.Urgency != "" {
		names["#u"] = fieldUrgency
		values[":urgency"] = strVal(string(f.Urgency))
		filters = append(filters, "#u = :urgency")
	}
	if f.Owner != "" && f.Claimant != "" {
		values[":claimant"] = strVal(f.Claimant)
		filters = append(filters, "claimed_by = :claimant")
	}

	if len(filters) > 0 {
		in.FilterExpression = aws.String(strings.Join(filters, " AND "))
	}
	if len(names) > 0 {
		in.ExpressionAttributeNames = names
	}
	in.ExpressionAttributeValues = values
	return in
}

package dynamo

import (
	"errors"
	"testing"

	"github.com/aidbridge-api/internal/domain"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"title": "Need blankets"})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": "title"}, ue.Names)
	_, ok := ue.Values[":v0"]
	assert.True(t, ok)
}

func TestBuildUpdateExpr_MultipleFields_Deterministic(t *testing.T) {
	updates := map[string]interface{}{
		"status":     "claimed",
		"claimed_by": "helper-1",
		"updated_at": "2024-01-01T00:00:00Z",
	}
	ue1, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	ue2, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, ue1.Expr, ue2.Expr)
	assert.Equal(t, "claimed_by", ue1.Names["#f0"])
	assert.Equal(t, "status", ue1.Names["#f1"])
	assert.Equal(t, "updated_at", ue1.Names["#f2"])
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", ue1.Expr)
}

func TestBuildUpdateExpr_ValuesMarshalledCorrectly(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"read": true})
	require.NoError(t, err)
	av, ok := ue.Values[":v0"]
	require.True(t, ok)
	boolVal, isBool := av.(*types.AttributeValueMemberBOOL)
	require.True(t, isBool)
	assert.True(t, boolVal.Value)
}

func TestBuildUpdateExpr_EmptyMap_ReturnsError(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestCursor_RoundTrip(t *testing.T) {
	key := map[string]types.AttributeValue{
		"request_id": strVal("01HX"),
		"kind":       strVal(domain.RequestKind),
	}
	c, err := encodeCursor(key)
	require.NoError(t, err)
	assert.NotEmpty(t, c)

	got, err := decodeCursor(c)
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestCursor_EmptyKeyMeansLastPage(t *testing.T) {
	c, err := encodeCursor(nil)
	require.NoError(t, err)
	assert.Empty(t, c)

	key, err := decodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, key)
}

func TestDecodeCursor_RejectsGarbage(t *testing.T) {
	for _, c := range []string{"%%%", "bm90LWpzb24", "e30"} {
		_, err := decodeCursor(c)
		assert.True(t, errors.Is(err, domain.ErrBadRequest), c)
	}
}

func TestStoreErr_WrapsNetworkAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := storeErr("get request", cause)
	assert.True(t, errors.Is(err, domain.ErrNetwork))
	assert.True(t, errors.Is(err, cause))
}

package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestStatus_Transitions(t *testing.T) {
	assert.True(t, StatusOpen.CanTransitionTo(StatusClaimed))
	assert.False(t, StatusOpen.CanTransitionTo(StatusFulfilled))
	assert.False(t, StatusClaimed.CanTransitionTo(StatusOpen))
	assert.True(t, StatusInProgress.CanTransitionTo(StatusFulfilled))
	assert.False(t, StatusFulfilled.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusOpen))
}

func TestRequestStatus_Valid(t *testing.T) {
	assert.True(t, StatusInProgress.Valid())
	assert.False(t, RequestStatus("done").Valid())
}

func TestAidRequest_JSONUsesCanonicalNames(t *testing.T) {
	b, err := json.Marshal(AidRequest{RequestID: "r1", Kind: RequestKind, ClaimSeq: "x"})
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Contains(t, m, "created_at")
	assert.NotContains(t, m, "createdAt")
	assert.NotContains(t, m, "kind")
	assert.NotContains(t, m, "claim_seq")
	assert.Nil(t, m["claimant"])
}

func TestLocation_Sentinel(t *testing.T) {
	assert.False(t, Location{Address: "somewhere"}.IsSet())
	assert.True(t, Location{Lat: 0, Lng: 12}.IsSet())
}

func TestRole(t *testing.T) {
	assert.Equal(t, RoleDonor, RoleForSignUp("helper"))
	assert.Equal(t, RoleRecipient, RoleForSignUp("user"))
	assert.True(t, RoleModerator.IsHelper())
	assert.False(t, RoleRecipient.IsHelper())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("superuser").Valid())
}

func TestChangeEvent_Matches(t *testing.T) {
	ev := ChangeEvent{Table: TableNotifications, Columns: map[string]string{"user_id": "u1"}}
	assert.True(t, ev.Matches(TableNotifications, "", ""))
	assert.True(t, ev.Matches(TableNotifications, "user_id", "u1"))
	assert.False(t, ev.Matches(TableNotifications, "user_id", "u2"))
	assert.False(t, ev.Matches(TableRequests, "", ""))
}

func TestCategoryAndUrgency_Valid(t *testing.T) {
	assert.True(t, CategoryTransportation.Valid())
	assert.False(t, Category("toys").Valid())
	assert.True(t, UrgencyCritical.Valid())
	assert.False(t, Urgency("urgent").Valid())
}

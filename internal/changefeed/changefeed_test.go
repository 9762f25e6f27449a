package changefeed

import (
	"context"
	"testing"
	"time"

	"github.com/aidbridge-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(table, userID string) domain.ChangeEvent {
	return domain.ChangeEvent{
		Table:    table,
		Type:     domain.ChangeInsert,
		RecordID: "rec",
		Columns:  map[string]string{"user_id": userID},
		At:       time.Now(),
	}
}

func receive(t *testing.T, ch <-chan domain.ChangeEvent) domain.ChangeEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return domain.ChangeEvent{}
	}
}

func TestHub_DeliversMatchingEventsOnly(t *testing.T) {
	h := NewHub()
	ctx := context.Background()

	mine, cancelMine := h.Subscribe(ctx, Subscription{Table: domain.TableNotifications, Column: "user_id", Value: "u1"})
	defer cancelMine()
	all, cancelAll := h.Subscribe(ctx, Subscription{Table: domain.TableNotifications})
	defer cancelAll()

	require.NoError(t, h.Publish(ctx, event(domain.TableNotifications, "u2")))
	require.NoError(t, h.Publish(ctx, event(domain.TableNotifications, "u1")))
	require.NoError(t, h.Publish(ctx, event(domain.TableRequests, "u1")))

	assert.Equal(t, "u1", receive(t, mine).Columns["user_id"])
	assert.Equal(t, "u2", receive(t, all).Columns["user_id"])
	assert.Equal(t, "u1", receive(t, all).Columns["user_id"])
	assert.Len(t, mine, 0)
	assert.Len(t, all, 0)
}

func TestHub_CancelClosesStreamAndIsIdempotent(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(context.Background(), Subscription{Table: domain.TableRequests})
	assert.Equal(t, 1, h.Len())

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.Len())
	assert.NoError(t, h.Publish(context.Background(), event(domain.TableRequests, "u1")))
}

func TestHub_ContextCancellationUnsubscribes(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := h.Subscribe(ctx, Subscription{Table: domain.TableRequests})
	cancel()

	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("stream not closed after context cancellation")
	}
	assert.Equal(t, 0, h.Len())
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	var droppedTables []string
	h := NewHub(WithDropHook(func(table string) { droppedTables = append(droppedTables, table) }))
	_, cancel := h.Subscribe(context.Background(), Subscription{Table: domain.TableRequests})
	defer cancel()

	for i := 0; i < BufferSize+5; i++ {
		require.NoError(t, h.Publish(context.Background(), event(domain.TableRequests, "u")))
	}
	assert.Equal(t, uint64(5), h.Dropped())
	assert.Len(t, droppedTables, 5)
}

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeletionEventJSON(t *testing.T) {
	event := DeletionEvent{
		Namespace:  "alpha",
		Collection: "organizations",
		IDs:        []string{"aaaaaaaaaaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbbbbbbbbbb"},
		At:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var got DeletionEvent
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, event, got)
}

func TestDeletionSubjectPerCollection(t *testing.T) {
	// the collection lives in the subject so consumers subscribe to
	// tenancy.events.users.deleted without payload filtering
	assert.Equal(t, "tenancy.events.users.deleted", deletionSubject("tenancy.events", "users"))
	assert.Equal(t, "tenancy.events.customers.deleted", deletionSubject("tenancy.events", "customers"))
}

func TestMemoryProducerRecords(t *testing.T) {
	producer := NewMemoryProducer()
	ctx := context.Background()

	require.NoError(t, producer.PublishDeletion(ctx, DeletionEvent{Namespace: "alpha", Collection: "customers"}))
	require.NoError(t, producer.PublishDeletion(ctx, DeletionEvent{Namespace: "beta", Collection: "users"}))

	events := producer.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "alpha", events[0].Namespace)
	assert.Equal(t, "users", events[1].Collection)

	// mutating the snapshot does not touch the recorded events
	events[0].Namespace = "mutated"
	assert.Equal(t, "alpha", producer.Events()[0].Namespace)
}

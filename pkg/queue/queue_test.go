package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tenancy/pkg/ids"
)

func TestCleanupTaskJSONRoundTrip(t *testing.T) {
	customer := ids.StrictCustomerIDOf(ids.CustomerID{ID: ids.NewID()})
	organization, err := ids.StrictOrganizationIDFromEntity(customer.CustomerID().Resource(ids.NewID()).EntityID())
	require.NoError(t, err)
	institution := ids.StrictInstitutionID{
		Cid: organization.Cid,
		Oid: organization.Oid,
		Iid: ids.NewIid(ids.NewID()),
	}
	oid := organization.Oid
	unit := ids.StrictOrganizationUnitID{Cid: customer.Cid, Oid: &oid, Uid: ids.NewUid(ids.NewID())}
	rootedUnit := ids.StrictOrganizationUnitID{Cid: customer.Cid, Uid: ids.NewUid(ids.NewID())}

	tests := []struct {
		name string
		task CleanupTask
	}{
		{name: "customer", task: NewCustomerCleanup(customer)},
		{name: "organization", task: NewOrganizationCleanup(organization)},
		{name: "institution", task: NewInstitutionCleanup(institution)},
		{name: "organization unit", task: NewOrganizationUnitCleanup(unit)},
		{name: "customer-rooted unit", task: NewOrganizationUnitCleanup(rootedUnit)},
		{name: "customer batch", task: NewCustomerCleanup(customer, ids.StrictCustomerIDOf(ids.CustomerID{ID: ids.NewID()}))},
		{name: "mixed unit batch", task: NewOrganizationUnitCleanup(unit, rootedUnit)},
		{name: "none", task: NewNoneCleanup()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := json.Marshal(tc.task)
			require.NoError(t, err)

			var got CleanupTask
			require.NoError(t, json.Unmarshal(payload, &got))
			assert.Equal(t, tc.task, got)
		})
	}
}

func TestCleanupTaskValidate(t *testing.T) {
	task := CleanupTask{Type: TaskCustomers}
	require.Error(t, task.Validate())

	_, err := json.Marshal(task)
	require.Error(t, err)

	var got CleanupTask
	err = json.Unmarshal([]byte(`{"id":"e9e2ef10-39e7-4ad2-8e07-5a5a725b1e25","ty":"Customers","payload":["tooshort"]}`), &got)
	require.Error(t, err)

	// a typed task with no targets is rejected on decode too
	err = json.Unmarshal([]byte(`{"id":"e9e2ef10-39e7-4ad2-8e07-5a5a725b1e25","ty":"Customers"}`), &got)
	require.Error(t, err)

	err = json.Unmarshal([]byte(`{"id":"e9e2ef10-39e7-4ad2-8e07-5a5a725b1e25","ty":"Everything"}`), &got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Everything")
}

func newTestQueue(t *testing.T, consumer string) (*miniredis.Miniredis, *Queue) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	config := DefaultConfig()
	config.Consumer = consumer
	config.VisibilityTimeout = time.Minute
	config.Block = 50 * time.Millisecond

	q, err := New(context.Background(), client, config)
	require.NoError(t, err)
	return server, q
}

func TestQueueEnqueueReceiveAck(t *testing.T) {
	_, q := newTestQueue(t, "worker-1")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := NewCustomerCleanup(ids.StrictCustomerIDOf(ids.CustomerID{ID: ids.NewID()}))
	second := NewNoneCleanup()
	_, err := q.Enqueue(ctx, first)
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, second)
	require.NoError(t, err)

	delivery, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, delivery.Task)

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	require.NoError(t, q.Ack(ctx, delivery.MessageID))
	pending, err = q.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)

	delivery, err = q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, TaskNone, delivery.Task.Type)
	require.NoError(t, q.Ack(ctx, delivery.MessageID))
}

func TestQueueEnqueueRejectsInvalidTask(t *testing.T) {
	_, q := newTestQueue(t, "worker-1")
	_, err := q.Enqueue(context.Background(), CleanupTask{Type: TaskInstitutions})
	require.Error(t, err)
}

func TestQueueRedeliversUnackedEntries(t *testing.T) {
	server, q := newTestQueue(t, "worker-1")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	task := NewCustomerCleanup(ids.StrictCustomerIDOf(ids.CustomerID{ID: ids.NewID()}))
	_, err := q.Enqueue(ctx, task)
	require.NoError(t, err)

	// a worker takes the task and dies without acking
	delivery, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, task, delivery.Task)

	// past the visibility timeout another worker claims it
	server.FastForward(2 * time.Minute)
	again, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, delivery.MessageID, again.MessageID)
	assert.Equal(t, task, again.Task)
	require.NoError(t, q.Ack(ctx, again.MessageID))
}

func TestQueueAcksMalformedEntries(t *testing.T) {
	server, q := newTestQueue(t, "worker-1")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := server.XAdd(q.config.Stream, "*", []string{payloadField, "not json"})
	require.NoError(t, err)

	_, err = q.Receive(ctx)
	var malformed *MalformedTaskError
	require.ErrorAs(t, err, &malformed)

	// the poisoned entry was acked and will not redeliver
	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestQueueReclaim(t *testing.T) {
	server, q := newTestQueue(t, "worker-1")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	task := NewNoneCleanup()
	_, err := q.Enqueue(ctx, task)
	require.NoError(t, err)

	delivery, err := q.Receive(ctx)
	require.NoError(t, err)

	// nothing is stale yet
	recovered, err := q.Reclaim(ctx)
	require.NoError(t, err)
	assert.Zero(t, recovered)

	server.FastForward(2 * time.Minute)
	recovered, err = q.Reclaim(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), recovered)

	// the task is back as a fresh entry
	again, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, task, again.Task)
	assert.NotEqual(t, delivery.MessageID, again.MessageID)
	require.NoError(t, q.Ack(ctx, again.MessageID))
}

package cleanup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tenancy/pkg/ids"
	"github.com/platinummonkey/tenancy/pkg/queue"
	"github.com/platinummonkey/tenancy/pkg/storage"
	"github.com/platinummonkey/tenancy/pkg/tenant"
)

// fakeSource hands out scripted deliveries and records acks.
type fakeSource struct {
	mu         sync.Mutex
	deliveries []*queue.Delivery
	errs       []error
	acked      []string
}

func (s *fakeSource) push(d *queue.Delivery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries = append(s.deliveries, d)
}

func (s *fakeSource) pushErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *fakeSource) Receive(ctx context.Context) (*queue.Delivery, error) {
	s.mu.Lock()
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		s.mu.Unlock()
		return nil, err
	}
	if len(s.deliveries) > 0 {
		d := s.deliveries[0]
		s.deliveries = s.deliveries[1:]
		s.mu.Unlock()
		return d, nil
	}
	s.mu.Unlock()
	// drained; block until the test shuts the workers down
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *fakeSource) Ack(ctx context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acked = append(s.acked, messageID)
	return nil
}

func (s *fakeSource) ackedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.acked...)
}

func runUntilDrained(t *testing.T, w *world, source *fakeSource) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, source, w.engine, 2) }()

	require.Eventually(t, func() bool {
		source.mu.Lock()
		defer source.mu.Unlock()
		return len(source.deliveries) == 0 && len(source.errs) == 0
	}, 5*time.Second, 10*time.Millisecond)
	// give an in-flight task time to finish before stopping
	time.Sleep(50 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestRunProcessesAndAcks(t *testing.T) {
	w := newWorld(t)
	customer := w.seedCustomer(t, "acme")
	w.seedOrganization(t, customer, "acme-east")

	source := &fakeSource{}
	source.push(&queue.Delivery{
		MessageID: "1-0",
		Task:      queue.NewCustomerCleanup(ids.StrictCustomerIDOf(customer)),
	})

	runUntilDrained(t, w, source)

	assert.Zero(t, w.store.Count(tenant.CustomersCollection, storage.Filter{}))
	assert.Zero(t, w.store.Count(tenant.OrganizationsCollection, storage.Filter{}))
	assert.Equal(t, []string{"1-0"}, source.ackedIDs())
}

func TestRunLeavesFailedTaskUnacked(t *testing.T) {
	w := newWorld(t)
	w.seedCustomer(t, "acme")

	source := &fakeSource{}
	// an invalid task makes Process fail before it touches anything
	source.push(&queue.Delivery{
		MessageID: "1-0",
		Task:      queue.CleanupTask{Type: queue.TaskCustomers},
	})

	runUntilDrained(t, w, source)

	assert.Empty(t, source.ackedIDs())
	assert.Equal(t, 1, w.store.Count(tenant.CustomersCollection, storage.Filter{}))
}

func TestRunSkipsMalformedEntries(t *testing.T) {
	w := newWorld(t)
	customer := w.seedCustomer(t, "acme")

	source := &fakeSource{}
	source.pushErr(&queue.MalformedTaskError{MessageID: "1-0", Err: errors.New("not json")})
	source.push(&queue.Delivery{
		MessageID: "2-0",
		Task:      queue.NewCustomerCleanup(ids.StrictCustomerIDOf(customer)),
	})

	runUntilDrained(t, w, source)

	// the bad entry did not stall the good one behind it
	assert.Zero(t, w.store.Count(tenant.CustomersCollection, storage.Filter{}))
	assert.Equal(t, []string{"2-0"}, source.ackedIDs())
}

func TestRunStopsOnCancel(t *testing.T) {
	w := newWorld(t)
	source := &fakeSource{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, source, w.engine, 3) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not stop on cancel")
	}
}

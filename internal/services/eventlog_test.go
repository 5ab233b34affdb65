package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/internal/events"
)

func TestEventLog_EventsInRange(t *testing.T) {
	ts := NewTestSetup(t)
	_, worker, job := ts.takenJob(100, "")
	ts.deliver(worker, job.ID)
	log := ts.Registry.EventLog()

	count, err := log.Count(ts.ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
	revision, err := log.Revision(ts.ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), revision, "Created is not counted")

	all, err := log.EventsInRange(ts.ctx, job.ID, 0, 100)
	require.NoError(t, err)
	require.Len(t, all, 3, "end is clamped to the event count")
	for i, e := range all {
		assert.Equal(t, uint64(i), e.Index)
		assert.Equal(t, job.ID, e.JobID)
	}
	assert.Equal(t, worker.addr, all[1].Actor)

	tail, err := log.EventsInRange(ts.ctx, job.ID, 1, 3)
	require.NoError(t, err)
	assert.Len(t, tail, 2)

	empty, err := log.EventsInRange(ts.ctx, job.ID, 2, 1)
	require.NoError(t, err)
	assert.Empty(t, empty)

	empty, err = log.EventsInRange(ts.ctx, job.ID, 5, 9)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = log.Count(ts.ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = log.Revision(ts.ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = log.EventsInRange(ts.ctx, 99, 0, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJobRegistry_PublishesCommittedEvents(t *testing.T) {
	bus := events.NewBus(16)
	received := make(chan events.Event, 16)
	bus.SubscribeAll(func(_ context.Context, e events.Event) error {
		received <- e
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus.Start(ctx)

	ts := NewTestSetup(t, WithBus(bus))
	creator := ts.funded(100)

	_, err := ts.Registry.PostJob(ts.ctx, creator.addr, ts.jobRequest(500))
	require.Error(t, err)

	job := ts.postJob(creator, ts.jobRequest(100))

	e := <-received
	assert.Equal(t, job.ID, e.JobID)
	assert.Equal(t, models.JobEventCreated, e.Type)
	assert.Equal(t, uint64(0), e.Index)
	assert.Equal(t, models.JobPhaseOpen, e.Phase)
	assert.Empty(t, received, "rejected operations publish nothing")
}

package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobRegistry_OverdueJobs(t *testing.T) {
	ts := NewTestSetup(t)
	_, _, late := ts.takenJob(100, "")
	_, worker, delivered := ts.takenJob(100, "")
	ts.deliver(worker, delivered.ID)
	ts.postJob(ts.funded(100), ts.jobRequest(100))

	jobs, err := ts.Registry.OverdueJobs(ts.ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	ts.Clock.Add(time.Hour)

	jobs, err = ts.Registry.OverdueJobs(ts.ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1, "delivered and open jobs are never overdue")
	assert.Equal(t, late.ID, jobs[0].ID)
}

func TestLaunchWorker_StopsOnCancel(t *testing.T) {
	ts := NewTestSetup(t)
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go LaunchWorker(ctx, &wg, ts.Registry, time.Second)

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

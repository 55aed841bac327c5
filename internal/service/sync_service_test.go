package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/pkg/config"
)

type recordingPusher struct {
	mu     sync.Mutex
	calls  []int64
	totals []int
	ok     bool
	done   chan struct{}
}

func (r *recordingPusher) SyncEnrollmentCount(ctx context.Context, token string, courseID int64, total int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, courseID)
	r.totals = append(r.totals, total)
	if r.done != nil {
		close(r.done)
		r.done = nil
	}
	return r.ok
}

func TestSyncServiceReconcilesCount(t *testing.T) {
	repo := newFakeRepo()
	repo.counts[42] = 9
	pusher := &recordingPusher{ok: true, done: make(chan struct{})}
	done := pusher.done

	svc := NewSyncService(repo, pusher, config.SyncConfig{Workers: 1, BufferSize: 4}, zap.NewNop())
	svc.Start(context.Background())
	defer svc.Stop()

	svc.EnqueueResync(42, "token")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("count push never happened")
	}

	pusher.mu.Lock()
	defer pusher.mu.Unlock()
	require.Equal(t, []int64{42}, pusher.calls)
	require.Equal(t, []int{9}, pusher.totals)
}

func TestSyncServiceEnqueueBeforeStartIsDropped(t *testing.T) {
	repo := newFakeRepo()
	pusher := &recordingPusher{ok: true}

	svc := NewSyncService(repo, pusher, config.SyncConfig{}, zap.NewNop())
	// Not started: the enqueue fails internally and must not panic.
	svc.EnqueueResync(42, "token")

	pusher.mu.Lock()
	defer pusher.mu.Unlock()
	require.Empty(t, pusher.calls)
}

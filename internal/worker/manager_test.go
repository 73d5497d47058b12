package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/map-metadata/internal/worker"
)

// blockingWorker работает до Stop или отмены контекста
type blockingWorker struct {
	*worker.BaseWorker
	ignoreStop bool
}

func newBlockingWorker(name string, ignoreStop bool) *blockingWorker {
	return &blockingWorker{
		BaseWorker: worker.NewBaseWorker(name, "test-group", zap.NewNop()),
		ignoreStop: ignoreStop,
	}
}

func (w *blockingWorker) Start(ctx context.Context) error {
	w.RecordProcessed()
	if w.ignoreStop {
		<-ctx.Done()
		return ctx.Err()
	}
	select {
	case <-w.StopChan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestWorkerManager_StartWithoutWorkers(t *testing.T) {
	m := worker.NewWorkerManager(time.Second, zap.NewNop())
	assert.Error(t, m.Start(context.Background()))
}

func TestWorkerManager_StartStop(t *testing.T) {
	m := worker.NewWorkerManager(time.Second, zap.NewNop())
	a := newBlockingWorker("a", false)
	b := newBlockingWorker("b", false)
	m.Register(a)
	m.Register(b)

	require.NoError(t, m.Start(context.Background()))
	require.Eventually(t, func() bool {
		return m.Stats()["a"].Processed == 1 && m.Stats()["b"].Processed == 1
	}, time.Second, 10*time.Millisecond)

	assert.NoError(t, m.Stop())
	assert.True(t, a.IsStopped())
	assert.True(t, b.IsStopped())
}

func TestWorkerManager_StopTimeout(t *testing.T) {
	m := worker.NewWorkerManager(50*time.Millisecond, zap.NewNop())
	m.Register(newBlockingWorker("stuck", true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx))

	assert.Error(t, m.Stop())
}

func TestBaseWorker_Stats(t *testing.T) {
	w := worker.NewBaseWorker("w", "g", zap.NewNop())
	w.RecordProcessed()
	w.RecordProcessed()
	w.RecordFailed()

	assert.Equal(t, worker.Stats{Processed: 2, Failed: 1}, w.Stats())
	assert.Equal(t, "g", w.ConsumerGroup())
	assert.False(t, w.IsStopped())
}

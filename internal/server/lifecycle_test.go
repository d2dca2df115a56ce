package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockService struct {
	started atomic.Bool
	stopped atomic.Bool
	startFn func() error
}

func (m *mockService) Start() error {
	m.started.Store(true)
	if m.startFn != nil {
		return m.startFn()
	}
	for !m.stopped.Load() {
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

func (m *mockService) Stop() {
	m.stopped.Store(true)
}

func runAsync(lc *Lifecycle, ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()
	return done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
		return nil
	}
}

func TestLifecycleStartsAndStopsServices(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	svc1, svc2 := &mockService{}, &mockService{}
	lc.Add("svc1", svc1)
	lc.Add("svc2", svc2)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(lc, ctx)
	require.Eventually(t, func() bool { return svc1.started.Load() && svc2.started.Load() },
		2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, waitDone(t, done))
	assert.True(t, svc1.stopped.Load())
	assert.True(t, svc2.stopped.Load())
}

func TestLifecycleStopsInReverseOrder(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	var mu sync.Mutex
	var order []string
	for _, name := range []string{"a", "b", "c"} {
		stop := make(chan struct{})
		lc.Add(name, &FuncService{
			StartFn: func() error { <-stop; return nil },
			StopFn: func() {
				mu.Lock()
				order = append(order, name)
				mu.Unlock()
				close(stop)
			},
		})
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, waitDone(t, runAsync(lc, ctx)))
	assert.Equal(t, []string{"c", "b", "a"}, order)
}

func TestLifecycleServiceFailureShutsDown(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	healthy := &mockService{}
	lc.Add("healthy", healthy)
	lc.Add("broken", &mockService{startFn: func() error { return errors.New("bind failed") }})

	err := waitDone(t, runAsync(lc, context.Background()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service broken: bind failed")
	assert.True(t, healthy.stopped.Load())
}

func TestLifecycleCriticalReturnShutsDown(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	support := &mockService{}
	lc.Add("support", support)
	lc.AddCritical("run", NewContextService(func(ctx context.Context) error {
		select {
		case <-ctx.Done():
		case <-time.After(20 * time.Millisecond):
		}
		return nil
	}))

	assert.NoError(t, waitDone(t, runAsync(lc, context.Background())))
	assert.True(t, support.stopped.Load())
}

func TestContextService_StopCancelsLoop(t *testing.T) {
	var saw atomic.Bool
	svc := NewContextService(func(ctx context.Context) error {
		<-ctx.Done()
		saw.Store(true)
		return nil
	})
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Start() }()
	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return svc.started
	}, time.Second, time.Millisecond)
	svc.Stop()
	assert.True(t, saw.Load())
	assert.NoError(t, <-errCh)
}

func TestContextService_StopBeforeStart(t *testing.T) {
	svc := NewContextService(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	svc.Stop()
	assert.ErrorIs(t, svc.Start(), context.Canceled)
}

func TestFuncService(t *testing.T) {
	started, stopped := false, false
	svc := &FuncService{
		StartFn: func() error { started = true; return nil },
		StopFn:  func() { stopped = true },
	}
	assert.NoError(t, svc.Start())
	svc.Stop()
	assert.True(t, started)
	assert.True(t, stopped)
}

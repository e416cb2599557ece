package main

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorker struct {
	started bool
	stopped bool
}

func (f *fakeWorker) Start() { f.started = true }
func (f *fakeWorker) Stop()  { f.stopped = true }

type fakeTicker struct {
	started bool
	stopped bool
}

func (f *fakeTicker) Start(context.Context) error {
	f.started = true
	return nil
}

func (f *fakeTicker) Stop() { f.stopped = true }

type fakeHTTP struct {
	listenCalled chan struct{}
	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

func newFakeHTTP() *fakeHTTP {
	return &fakeHTTP{
		listenCalled: make(chan struct{}),
		shutdownCh:   make(chan struct{}),
	}
}

func (f *fakeHTTP) ListenAndServe(string) error {
	close(f.listenCalled)
	<-f.shutdownCh
	return http.ErrServerClosed
}

func (f *fakeHTTP) Shutdown(context.Context) error {
	f.shutdownOnce.Do(func() { close(f.shutdownCh) })
	return nil
}

func TestRun_StartsAndStopsComponents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := &fakeWorker{}
	tick := &fakeTicker{}
	httpSrv := newFakeHTTP()

	doneCh := make(chan error, 1)
	go func() {
		doneCh <- run(ctx, "127.0.0.1:0", worker, tick, httpSrv)
	}()

	select {
	case <-httpSrv.listenCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("http server did not start")
	}

	cancel()

	select {
	case err := <-doneCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not exit after cancellation")
	}

	assert.True(t, worker.started)
	assert.True(t, worker.stopped)
	assert.True(t, tick.started)
	assert.True(t, tick.stopped)
}

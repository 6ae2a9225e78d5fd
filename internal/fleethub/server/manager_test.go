package server

import (
	"context"
	"errors"
	"testing"
	"time"
)

type serverFunc func(ctx context.Context) error

func (f serverFunc) Start(ctx context.Context) error { return f(ctx) }

func TestManagerStopsOthersOnFailure(t *testing.T) {
	boom := errors.New("listen failed")
	stopped := make(chan struct{})

	m := NewManager(
		serverFunc(func(ctx context.Context) error {
			<-ctx.Done()
			close(stopped)
			return nil
		}),
		nil,
		serverFunc(func(context.Context) error { return boom }),
	)
	if len(m.servers) != 2 {
		t.Fatalf("servers = %d, want nil skipped", len(m.servers))
	}

	if err := m.Start(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Start() = %v, want %v", err, boom)
	}
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Error("healthy server was not stopped")
	}
}

func TestManagerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(serverFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}))

	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()
	cancel()

	if err := <-done; err != nil {
		t.Errorf("Start() = %v", err)
	}
}

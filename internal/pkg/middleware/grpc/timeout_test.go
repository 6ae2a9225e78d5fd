package grpc

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
)

func TestWithTimeout(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	invoker := func(ctx context.Context, _ string, _, _ any, _ *grpc.ClientConn, _ ...grpc.CallOption) error {
		deadline, hasDeadline = ctx.Deadline()
		return nil
	}

	start := time.Now()
	if err := WithTimeout(time.Minute)(context.Background(), "/m", nil, nil, nil, invoker); err != nil {
		t.Fatal(err)
	}
	if !hasDeadline || deadline.Before(start.Add(59*time.Second)) {
		t.Errorf("deadline = %v, %v; want about one minute", deadline, hasDeadline)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	want, _ := ctx.Deadline()
	if err := WithTimeout(time.Minute)(ctx, "/m", nil, nil, nil, invoker); err != nil {
		t.Fatal(err)
	}
	if !deadline.Equal(want) {
		t.Errorf("existing deadline was replaced: %v, want %v", deadline, want)
	}
}

func TestUnaryServerTimeout(t *testing.T) {
	handler := func(ctx context.Context, _ any) (any, error) {
		_, ok := ctx.Deadline()
		return ok, nil
	}

	got, err := UnaryServerTimeout(time.Second)(context.Background(), nil, &grpc.UnaryServerInfo{}, handler)
	if err != nil || got != true {
		t.Errorf("handler saw deadline = %v, %v", got, err)
	}
}

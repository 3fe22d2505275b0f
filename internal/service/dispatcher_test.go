package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"expense-bot/internal/dto"

	"go.uber.org/zap"
)

type handlerFunc func(ctx context.Context, msg dto.InboundMessage) string

func (f handlerFunc) Handle(ctx context.Context, msg dto.InboundMessage) string {
	return f(ctx, msg)
}

type recordingReplier struct {
	mu      sync.Mutex
	replies map[string]string
	err     error
}

func (r *recordingReplier) Reply(_ context.Context, to, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replies == nil {
		r.replies = make(map[string]string)
	}
	r.replies[to] = body
	return r.err
}

func (r *recordingReplier) get(to string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replies[to]
}

func TestDispatcherRepliesAndLimitsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	handler := handlerFunc(func(_ context.Context, msg dto.InboundMessage) string {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return "eco: " + msg.Body
	})
	replier := &recordingReplier{}
	d := NewDispatcher(handler, replier, 2, zap.NewNop())

	senders := []string{"+551100000001", "+551100000002", "+551100000003", "+551100000004", "+551100000005"}
	for _, from := range senders {
		if err := d.Dispatch(dto.InboundMessage{ID: from, From: from, Body: from}); err != nil {
			t.Fatalf("Dispatch failed: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	for _, from := range senders {
		if got := replier.get(from); got != "eco: "+from {
			t.Errorf("reply to %s: got %q", from, got)
		}
	}
	if p := peak.Load(); p > 2 {
		t.Errorf("at most 2 messages should run at once, saw %d", p)
	}
}

func TestDispatcherRecoversPanics(t *testing.T) {
	handler := handlerFunc(func(context.Context, dto.InboundMessage) string {
		panic("nil map")
	})
	replier := &recordingReplier{}
	d := NewDispatcher(handler, replier, 1, zap.NewNop())

	if err := d.Dispatch(dto.InboundMessage{ID: "SM1", From: alice}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	if got := replier.get(alice); got != msgGeneric {
		t.Errorf("expected the generic apology, got %q", got)
	}
}

func TestDispatcherRejectsAfterShutdown(t *testing.T) {
	d := NewDispatcher(handlerFunc(func(context.Context, dto.InboundMessage) string { return "" }), &recordingReplier{}, 1, zap.NewNop())
	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if err := d.Dispatch(dto.InboundMessage{From: alice}); !errors.Is(err, ErrDispatcherClosed) {
		t.Errorf("expected ErrDispatcherClosed, got %v", err)
	}
}

func TestDispatcherShutdownDeadline(t *testing.T) {
	release := make(chan struct{})
	handler := handlerFunc(func(ctx context.Context, _ dto.InboundMessage) string {
		select {
		case <-ctx.Done():
		case <-release:
		}
		return "tarde demais"
	})
	d := NewDispatcher(handler, &recordingReplier{}, 1, zap.NewNop())
	defer close(release)

	if err := d.Dispatch(dto.InboundMessage{From: alice}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := d.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

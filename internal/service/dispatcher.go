package service

import (
	"context"
	"errors"
	"sync"

	"expense-bot/internal/dto"
	"expense-bot/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

var ErrDispatcherClosed = errors.New("dispatcher is shutting down")

// MessageHandler produces the reply for one inbound message.
type MessageHandler interface {
	Handle(ctx context.Context, msg dto.InboundMessage) string
}

// Dispatcher handles inbound messages in the background, at most limit at a
// time, and sends each reply through the Replier.
type Dispatcher struct {
	handler MessageHandler
	replier Replier
	sem     *semaphore.Weighted
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(handler MessageHandler, replier Replier, limit int64, logger *zap.Logger) *Dispatcher {
	if limit < 1 {
		limit = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		handler: handler,
		replier: replier,
		sem:     semaphore.NewWeighted(limit),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Dispatch queues msg and returns immediately.
func (d *Dispatcher) Dispatch(msg dto.InboundMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	d.wg.Add(1)
	go d.run(msg)
	return nil
}

func (d *Dispatcher) run(msg dto.InboundMessage) {
	defer d.wg.Done()
	log := logger.ForMessage(d.logger, msg.ID, msg.From)

	if err := d.sem.Acquire(d.ctx, 1); err != nil {
		log.Warn("Message dropped during shutdown")
		return
	}
	defer d.sem.Release(1)

	reply := d.handle(log, msg)
	if reply == "" {
		return
	}
	if err := d.replier.Reply(d.ctx, msg.From, reply); err != nil {
		log.Error("Failed to send reply", zap.Error(err))
	}
}

func (d *Dispatcher) handle(log *zap.Logger, msg dto.InboundMessage) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic while handling message", zap.Any("panic", r), zap.Stack("stack"))
			reply = msgGeneric
		}
	}()
	return d.handler.Handle(d.ctx, msg)
}

// Shutdown stops accepting messages and waits for in-flight ones. When ctx
// expires first, outstanding work is cancelled.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

package checkout

import (
	"context"
	"errors"
	"sync"
)

// EventSaleCompleted is published on the notification sink after commit.
const EventSaleCompleted = "SaleCompleted"

// Handler receives notifications published on a Bus.
type Handler func(ctx context.Context, payload any) error

// Bus is an in-process NotificationSink. Handlers run synchronously in
// subscription order and every handler runs even when an earlier one fails.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

func (b *Bus) Subscribe(eventName string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], h)
}

func (b *Bus) Publish(ctx context.Context, eventName string, payload any) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[eventName]...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

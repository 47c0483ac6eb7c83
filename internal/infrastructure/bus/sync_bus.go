// Package bus implements the process-local sync bus: a mutex-guarded
// subscriber registry with synchronous, registration-ordered delivery.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"plantsync/internal/bootstrap/logging"
	"plantsync/internal/errs"
	"plantsync/internal/ports"
)

type SyncBus struct {
	mu   sync.Mutex
	subs []ports.Subscriber
}

var _ ports.SyncBus = (*SyncBus)(nil)

func NewSyncBus() *SyncBus {
	return &SyncBus{}
}

func (b *SyncBus) Subscribe(sub ports.Subscriber) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, sub)
}

func (b *SyncBus) Unsubscribe(sub ports.Subscriber) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, existing := range b.subs {
		if existing == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers change to every subscriber except the writer's module,
// in registration order, on the caller's goroutine. A panicking or failing
// subscriber is logged and skipped; it never blocks the rest of the fan-out
// and never propagates back to the writer.
func (b *SyncBus) Publish(ctx context.Context, change ports.Change) {
	b.mu.Lock()
	targets := make([]ports.Subscriber, len(b.subs))
	copy(targets, b.subs)
	b.mu.Unlock()

	for _, sub := range targets {
		if sub.Module() == change.ChangedBy {
			continue
		}
		b.deliver(ctx, sub, change)
	}
}

func (b *SyncBus) deliver(ctx context.Context, sub ports.Subscriber, change ports.Change) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error(ctx, "subscriber panicked during delivery",
				slog.String("module", sub.Module()),
				slog.String("uid", change.UID),
				slog.Any("err", errs.Loggable(fmt.Errorf("panic: %v", r))),
			)
		}
	}()

	if err := sub.Notify(ctx, change); err != nil {
		logging.Warn(ctx, "subscriber rejected notification",
			slog.String("module", sub.Module()),
			slog.String("uid", change.UID),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}

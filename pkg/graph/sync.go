package graph

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Op is one remote write, queued in gesture-completion order.
type Op struct {
	Desc  string
	Apply func(ctx context.Context, s Store) error
}

// Syncer drains queued writes to the store on a single goroutine. The UI
// never waits on it; ordering of issue is preserved, and a failed op surfaces
// as a notification rather than blocking the canvas.
type Syncer struct {
	store    Store
	notifier Notifier
	queue    chan syncItem
}

type syncItem struct {
	op   Op
	done chan struct{} // non-nil only for flush sentinels
}

const defaultQueueDepth = 256

// OpTimeout bounds one remote write.
const OpTimeout = 10 * time.Second

// NewSyncer creates a syncer. Call Run on its own goroutine.
func NewSyncer(s Store, notifier Notifier) *Syncer {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Syncer{
		store:    s,
		notifier: notifier,
		queue:    make(chan syncItem, defaultQueueDepth),
	}
}

// Run drains the queue until the context is cancelled.
func (s *Syncer) Run(ctx context.Context) {
	log.Println("Starting schematic syncer...")
	for {
		select {
		case <-ctx.Done():
			log.Println("Stopping schematic syncer...")
			return
		case item := <-s.queue:
			if item.done != nil {
				close(item.done)
				continue
			}
			s.apply(ctx, item.op)
		}
	}
}

// Enqueue queues one write. When the queue is full the send blocks until the
// drain goroutine catches up; applying the op out of band would reorder it
// ahead of writes already queued.
func (s *Syncer) Enqueue(op Op) {
	select {
	case s.queue <- syncItem{op: op}:
	default:
		log.Printf("Sync queue full, waiting to enqueue %q", op.Desc)
		s.queue <- syncItem{op: op}
	}
}

// Flush blocks until every op enqueued before it has been applied. Test and
// shutdown hook.
func (s *Syncer) Flush() {
	done := make(chan struct{})
	s.queue <- syncItem{done: done}
	<-done
}

func (s *Syncer) apply(ctx context.Context, op Op) {
	opCtx, cancel := context.WithTimeout(ctx, OpTimeout)
	defer cancel()

	if err := op.Apply(opCtx, s.store); err != nil {
		syncFailures.Inc()
		s.notifier.Notify(LevelError, fmt.Sprintf("failed to %s: %v", op.Desc, err))
	}
}

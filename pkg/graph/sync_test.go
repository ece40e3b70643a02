package graph

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestSyncerPreservesEnqueueOrder(t *testing.T) {
	fs := newFakeStore()
	notifier := &recordingNotifier{}
	syncer := NewSyncer(fs, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go syncer.Run(ctx)

	var mu sync.Mutex
	var applied []int
	for i := 0; i < 20; i++ {
		i := i
		syncer.Enqueue(Op{
			Desc: fmt.Sprintf("op %d", i),
			Apply: func(ctx context.Context, s Store) error {
				mu.Lock()
				defer mu.Unlock()
				applied = append(applied, i)
				return nil
			},
		})
	}
	syncer.Flush()

	mu.Lock()
	defer mu.Unlock()
	if len(applied) != 20 {
		t.Fatalf("expected 20 ops applied, got %d", len(applied))
	}
	for i, got := range applied {
		if got != i {
			t.Fatalf("ops applied out of order: position %d got op %d", i, got)
		}
	}
}

func TestSyncerKeepsOrderWhenQueueFull(t *testing.T) {
	fs := newFakeStore()
	syncer := &Syncer{store: fs, notifier: LogNotifier{}, queue: make(chan syncItem, 1)}

	var mu sync.Mutex
	var applied []int
	op := func(i int) Op {
		return Op{
			Desc: fmt.Sprintf("op %d", i),
			Apply: func(ctx context.Context, s Store) error {
				mu.Lock()
				defer mu.Unlock()
				applied = append(applied, i)
				return nil
			},
		}
	}

	// Fill the depth-1 queue, then enqueue a second op with no drain running.
	// The send must wait for the drain rather than applying the op ahead of
	// the one already queued.
	syncer.Enqueue(op(0))
	enqueued := make(chan struct{})
	go func() {
		syncer.Enqueue(op(1))
		close(enqueued)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go syncer.Run(ctx)
	<-enqueued
	syncer.Flush()

	mu.Lock()
	defer mu.Unlock()
	if len(applied) != 2 || applied[0] != 0 || applied[1] != 1 {
		t.Fatalf("ops applied out of order under a full queue: %v", applied)
	}
}

func TestSyncerNotifiesOnFailure(t *testing.T) {
	fs := newFakeStore()
	notifier := &recordingNotifier{}
	syncer := NewSyncer(fs, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go syncer.Run(ctx)

	syncer.Enqueue(Op{
		Desc: "doomed write",
		Apply: func(ctx context.Context, s Store) error {
			return fmt.Errorf("backend unavailable")
		},
	})
	syncer.Flush()

	if notifier.count() != 1 {
		t.Fatalf("expected 1 notification, got %d", notifier.count())
	}
}

func TestGraphThroughSyncer(t *testing.T) {
	fs := newFakeStore()
	fs.diagrams["d-1"] = diagramFixture()
	notifier := &recordingNotifier{}
	syncer := NewSyncer(fs, notifier)
	g := New(fs, syncer, notifier, "d-1", "p-1")
	if err := g.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go syncer.Run(ctx)

	if err := g.UpsertPosition("a", 10, 10); err != nil {
		t.Fatalf("UpsertPosition failed: %v", err)
	}
	if err := g.UpsertPosition("a", 12, 14); err != nil {
		t.Fatalf("UpsertPosition failed: %v", err)
	}
	syncer.Flush()

	// Both queued writes landed; probe kept the table at one row.
	if got := fs.positionCount("a"); got != 1 {
		t.Errorf("expected 1 remote row, got %d", got)
	}
	remote, err := fs.GetPosition(context.Background(), "a", "d-1")
	if err != nil {
		t.Fatalf("GetPosition failed: %v", err)
	}
	if remote.X != 12 || remote.Y != 14 {
		t.Errorf("expected last write to win, got (%v, %v)", remote.X, remote.Y)
	}
}

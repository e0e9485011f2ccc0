package game

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestWatchResolvesOnFlip(t *testing.T) {
	b := newTestBoard(t, testBoardText)

	watchCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		snap, err := b.Watch(context.Background(), "observer")
		watchCh <- snap
		errCh <- err
	}()
	time.Sleep(50 * time.Millisecond)

	// A pure read is not a mutation; the watcher stays pending.
	b.Look("alice")
	select {
	case snap := <-watchCh:
		t.Fatalf("watch resolved on look: %q", snap)
	case <-time.After(100 * time.Millisecond):
	}

	mustFlip(t, b, "alice", 0, 0)

	select {
	case snap := <-watchCh:
		if err := <-errCh; err != nil {
			t.Fatalf("watch failed: %v", err)
		}
		if got := cellLine(t, snap, 3, 0, 0); got != "up A" {
			t.Errorf("observer snapshot (0,0): got %q, want up A", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not resolve after a flip")
	}
}

func TestWatchSnapshotIsPerPlayer(t *testing.T) {
	b := newTestBoard(t, testBoardText)

	watchCh := make(chan string, 1)
	go func() {
		snap, _ := b.Watch(context.Background(), "alice")
		watchCh <- snap
	}()
	time.Sleep(50 * time.Millisecond)

	mustFlip(t, b, "alice", 0, 0)

	select {
	case snap := <-watchCh:
		if got := cellLine(t, snap, 3, 0, 0); got != "my A" {
			t.Errorf("alice's watch snapshot (0,0): got %q, want my A", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not resolve")
	}
}

func TestWatchIsOneShot(t *testing.T) {
	b := newTestBoard(t, testBoardText)

	results := make(chan string, 2)
	go func() {
		snap, _ := b.Watch(context.Background(), "observer")
		results <- snap
	}()
	time.Sleep(50 * time.Millisecond)

	mustFlip(t, b, "alice", 0, 0)
	<-results

	// A second mutation must not resolve the already-fired watcher again.
	mustFlip(t, b, "alice", 0, 2)
	select {
	case snap := <-results:
		t.Fatalf("one-shot watcher fired twice: %q", snap)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatchResolvesOnMap(t *testing.T) {
	b := newTestBoard(t, testBoardText)

	watchCh := make(chan string, 1)
	go func() {
		snap, _ := b.Watch(context.Background(), "observer")
		watchCh <- snap
	}()
	time.Sleep(50 * time.Millisecond)

	transform := func(ctx context.Context, v string) (string, error) {
		return strings.ToLower(v), nil
	}
	if err := b.Map(context.Background(), transform); err != nil {
		t.Fatalf("map failed: %v", err)
	}

	select {
	case <-watchCh:
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not resolve after map")
	}
}

func TestWatchCancellation(t *testing.T) {
	b := newTestBoard(t, testBoardText)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := b.Watch(ctx, "observer")
		errCh <- err
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled watch did not return")
	}
}

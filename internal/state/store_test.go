package state

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eop-online/eop-client/internal/domain"
	"github.com/eop-online/eop-client/internal/protocol"
)

// helper: receive one snapshot with a timeout so tests never hang
func recvSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatalf("subscriber channel closed unexpectedly")
		}
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{} // unreachable
	}
}

func recvEffect(t *testing.T, ch <-chan Effect, within time.Duration) Effect {
	t.Helper()
	select {
	case effect := <-ch:
		return effect
	case <-time.After(within):
		t.Fatalf("timed out waiting for effect")
		return nil // unreachable
	}
}

func TestStore_SubscribeGetsCurrentSnapshotImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := NewStore(ctx, New(), zaptest.NewLogger(t))

	out := make(chan Snapshot, 2)
	st.Subscribe("sub1", out)

	first := recvSnapshot(t, out, 100*time.Millisecond)
	if first.Version != 0 {
		t.Fatalf("after subscribe: want version=0, got %d", first.Version)
	}
}

func TestStore_DispatchBroadcastsAndVersionIncrements(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initial := New()
	initial.Members = initial.Members.Done("foo-bar", []domain.Member{{ID: "u1", Nickname: "alice"}})
	st := NewStore(ctx, initial, zaptest.NewLogger(t))

	out := make(chan Snapshot, 4)
	st.Subscribe("sub1", out)
	recvSnapshot(t, out, 100*time.Millisecond) // initial

	st.Dispatch(EventReceived{Event: protocol.NewParticipant{GameID: "foo-bar", UserID: "u2", NickName: "bob"}})

	next := recvSnapshot(t, out, 100*time.Millisecond)
	if next.Version != 1 {
		t.Fatalf("want version=1, got %d", next.Version)
	}
	members := next.State.Members.Data
	if len(members) != 2 || members[1].ID != "u2" {
		t.Fatalf("expected appended member, got %+v", members)
	}
}

func TestStore_EffectsAreDelivered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initial := New()
	initial.Game = initial.Game.Done("foo-bar", &domain.Game{ID: "foo-bar"})
	st := NewStore(ctx, initial, zaptest.NewLogger(t))

	st.Dispatch(EventReceived{Event: protocol.GameStarted{GameID: "foo-bar"}})

	effect := recvEffect(t, st.Effects(), 100*time.Millisecond)
	refetch, ok := effect.(RefetchGame)
	if !ok || refetch.GameID != "foo-bar" {
		t.Fatalf("expected RefetchGame{foo-bar}, got %#v", effect)
	}
}

func TestStore_DropSlowSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := NewStore(ctx, New(), zaptest.NewLogger(t))

	out := make(chan Snapshot, 1) // fills after the subscribe snapshot
	st.Subscribe("slow", out)

	st.Dispatch(GameFetchStarted{GameID: "foo-bar"})
	st.Dispatch(GameFetchStarted{GameID: "foo-bar"})

	// The second broadcast finds the buffer full and drops the
	// subscriber; its channel gets closed.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-out:
			if !ok {
				// Sync with the loop so its drop log lands before
				// the test (and its zaptest logger) completes.
				st.Current()
				return // dropped, as expected
			}
		case <-deadline:
			t.Fatalf("slow subscriber was never dropped")
		}
	}
}

func TestStore_CurrentReflectsAppliedIntents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := NewStore(ctx, New(), zaptest.NewLogger(t))
	st.Dispatch(GameFetchStarted{GameID: "foo-bar"})

	snap := st.Current()
	if !snap.State.Game.For("foo-bar") {
		t.Fatalf("Current should see the dispatched fetch, got %+v", snap.State.Game)
	}
}

func TestStore_ShutdownClosesSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := NewStore(ctx, New(), zaptest.NewLogger(t))
	out := make(chan Snapshot, 2)
	st.Subscribe("sub1", out)
	recvSnapshot(t, out, 100*time.Millisecond)

	st.Shutdown()

	select {
	case _, ok := <-out:
		if ok {
			t.Fatalf("expected closed channel after shutdown")
		}
	case <-time.After(time.Second):
		t.Fatalf("subscriber channel not closed on shutdown")
	}
}

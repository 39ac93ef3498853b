package state

import (
	"context"

	"go.uber.org/zap"
)

type msg interface{ isStoreMsg() }

type dispatch struct{ intent Intent }

type subscribe struct {
	id  string
	out chan Snapshot // where this subscriber receives snapshots
}

type unsubscribe struct{ id string }

type getState struct{ reply chan Snapshot }

type shutdown struct{}

func (dispatch) isStoreMsg()    {}
func (subscribe) isStoreMsg()   {}
func (unsubscribe) isStoreMsg() {}
func (getState) isStoreMsg()    {}
func (shutdown) isStoreMsg()    {}

// Snapshot is one broadcast version of the state.
type Snapshot struct {
	Version int
	State   State
}

// Store is the single dispatcher owning the mutable state copy. All
// intents funnel through its inbox and are applied in order, so no locks
// are needed anywhere in the reconciler.
type Store struct {
	inbox   chan msg
	state   State
	version int
	subs    map[string]chan Snapshot
	effects chan Effect
	ctx     context.Context
	cancel  context.CancelFunc
	log     *zap.Logger
}

func NewStore(parent context.Context, initial State, log *zap.Logger) *Store {
	ctx, cancel := context.WithCancel(parent)
	st := &Store{
		inbox:   make(chan msg, 64),
		state:   initial,
		subs:    make(map[string]chan Snapshot),
		effects: make(chan Effect, 64),
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
	}
	go st.loop()
	return st
}

// Dispatch queues one intent for application.
func (st *Store) Dispatch(intent Intent) {
	select {
	case st.inbox <- dispatch{intent: intent}:
	case <-st.ctx.Done():
	}
}

// Subscribe registers out to receive every snapshot from the current one
// on. Slow subscribers are dropped rather than blocking the loop.
func (st *Store) Subscribe(id string, out chan Snapshot) {
	select {
	case st.inbox <- subscribe{id: id, out: out}:
	case <-st.ctx.Done():
	}
}

func (st *Store) Unsubscribe(id string) {
	select {
	case st.inbox <- unsubscribe{id: id}:
	case <-st.ctx.Done():
	}
}

// Effects is the stream of side effects requested by transitions.
func (st *Store) Effects() <-chan Effect { return st.effects }

// Current returns a copy of the state without racing the loop.
func (st *Store) Current() Snapshot {
	reply := make(chan Snapshot, 1)
	select {
	case st.inbox <- getState{reply: reply}:
		select {
		case snap := <-reply:
			return snap
		case <-st.ctx.Done():
		}
	case <-st.ctx.Done():
	}
	return Snapshot{State: st.state}
}

func (st *Store) Shutdown() {
	select {
	case st.inbox <- shutdown{}:
	case <-st.ctx.Done():
	}
}

func (st *Store) loop() {
	for {
		select {
		case <-st.ctx.Done():
			st.teardown()
			return

		case m := <-st.inbox:
			switch m := m.(type) {
			case dispatch:
				next, effects := Apply(st.state, m.intent)
				st.state = next
				st.version++
				st.broadcast(Snapshot{Version: st.version, State: st.state})
				for _, effect := range effects {
					select {
					case st.effects <- effect:
					default:
						st.log.Warn("effect dropped, consumer too slow")
					}
				}

			case subscribe:
				st.subs[m.id] = m.out
				m.out <- Snapshot{Version: st.version, State: st.state}

			case unsubscribe:
				delete(st.subs, m.id)

			case getState:
				m.reply <- Snapshot{Version: st.version, State: st.state}

			case shutdown:
				st.teardown()
				return
			}
		}
	}
}

func (st *Store) teardown() {
	for id, out := range st.subs {
		close(out)
		delete(st.subs, id)
	}
	st.cancel()
}

func (st *Store) broadcast(snap Snapshot) {
	for id, out := range st.subs {
		select {
		case out <- snap:
		default:
			// Subscriber is slow/full - drop them.
			close(out)
			delete(st.subs, id)
			st.log.Warn("dropped slow subscriber", zap.String("id", id))
		}
	}
}

// Package state is the reconciler: it merges REST fetch results and
// channel events into the authoritative client view of the current game.
// All mutation flows through Apply, a pure transition function; the Store
// actor owns the live copy and broadcasts versioned snapshots.
package state

import (
	"github.com/eop-online/eop-client/internal/async"
	"github.com/eop-online/eop-client/internal/domain"
	"github.com/eop-online/eop-client/internal/protocol"
)

// none is the params type for requests that take no input (GET /users/me).
type none = struct{}

// State is the whole synchronized view. Game data of nil with a Finished
// status means the server answered "no such game".
type State struct {
	Session async.Operation[none, domain.Session]
	Game    async.Operation[string, *domain.Game]
	Members async.Operation[string, []domain.Member]
	Match   async.Operation[string, domain.Round]

	// Scores is the live score map: locally incremented on trick and
	// threat-linked events, replaced verbatim by any full refetch.
	Scores map[string]int

	// LastTrick is the most recent trick resolution, kept for the
	// one-shot UI notice.
	LastTrick *protocol.PlayerTakesTrick
}

func New() State {
	return State{Scores: map[string]int{}}
}

// Intent is one state-mutation request. Everything the reconciler does
// arrives as an intent through the Store inbox.
type Intent interface{ isIntent() }

// EventReceived carries a decoded channel event into the reconciler.
type EventReceived struct {
	Event protocol.Event
}

// Fetch lifecycle intents, one triple per tracked request slice.

type GameFetchStarted struct{ GameID string }
type GameFetchDone struct {
	GameID string
	Game   *domain.Game
}
type GameFetchFailed struct {
	GameID string
	Err    error
}
type GameFetchReset struct{}

type MembersFetchStarted struct{ GameID string }
type MembersFetchDone struct {
	GameID  string
	Members []domain.Member
}
type MembersFetchFailed struct {
	GameID string
	Err    error
}

type MatchFetchStarted struct{ GameID string }
type MatchFetchDone struct {
	GameID string
	Round  domain.Round
}
type MatchFetchFailed struct {
	GameID string
	Err    error
}
type MatchFetchReset struct{}

type SessionFetchStarted struct{}
type SessionFetchDone struct{ Session domain.Session }
type SessionFetchFailed struct{ Err error }

type ScoresFetchDone struct {
	GameID string
	Scores map[string]int
}

func (EventReceived) isIntent()       {}
func (GameFetchStarted) isIntent()    {}
func (GameFetchDone) isIntent()       {}
func (GameFetchFailed) isIntent()     {}
func (GameFetchReset) isIntent()      {}
func (MembersFetchStarted) isIntent() {}
func (MembersFetchDone) isIntent()    {}
func (MembersFetchFailed) isIntent()  {}
func (MatchFetchStarted) isIntent()   {}
func (MatchFetchDone) isIntent()      {}
func (MatchFetchFailed) isIntent()    {}
func (MatchFetchReset) isIntent()     {}
func (SessionFetchStarted) isIntent() {}
func (SessionFetchDone) isIntent()    {}
func (SessionFetchFailed) isIntent()  {}
func (ScoresFetchDone) isIntent()     {}

// Effect is a side effect requested by a transition. The session
// controller executes them; Apply itself never does IO.
type Effect interface{ isEffect() }

// RefetchGame asks for a fresh GET /games/{id}.
type RefetchGame struct{ GameID string }

// NotifyTrick surfaces the one-shot trick notice. Player is nil when
// nobody took the trick.
type NotifyTrick struct{ Player *string }

func (RefetchGame) isEffect() {}
func (NotifyTrick) isEffect() {}

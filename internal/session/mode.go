package session

import (
	"github.com/eop-online/eop-client/internal/async"
	"github.com/eop-online/eop-client/internal/gateway"
	"github.com/eop-online/eop-client/internal/state"
)

// Mode is the exclusive view the client should present for a game page.
type Mode string

const (
	ModeLoading         Mode = "Loading"
	ModeWaitingApproval Mode = "WaitingApproval"
	ModeJoinPrompt      Mode = "JoinPrompt"
	ModeError           Mode = "Error"
	ModeSummary         Mode = "Summary"
	ModeMatch           Mode = "Match"
	ModeAnteroom        Mode = "Anteroom"
)

// SelectMode derives the view from the game fetch slice. Order matters:
// specific error kinds take precedence over the generic error view, and a
// fetch for some other game id is always just loading.
func SelectMode(s state.State, gameID string) Mode {
	game := s.Game
	if !game.For(gameID) || game.Idle() {
		return ModeLoading
	}
	switch {
	case gateway.IsKind(game.Err, gateway.KindUserNotAccepted):
		return ModeWaitingApproval
	case gateway.IsKind(game.Err, gateway.KindUserIsNotGameMember):
		return ModeJoinPrompt
	case game.Status == async.Failed:
		return ModeError
	case game.Status == async.Finished && game.Data.Finished():
		return ModeSummary
	case game.Status == async.Finished && game.Data.Started():
		return ModeMatch
	case game.Status == async.Finished && game.Data != nil:
		return ModeAnteroom
	default:
		// Pending, or a Finished fetch that answered "no such game";
		// the controller redirects on the latter.
		return ModeLoading
	}
}

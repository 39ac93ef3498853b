package state

import (
	"fmt"

	"github.com/eop-online/eop-client/internal/async"
	"github.com/eop-online/eop-client/internal/domain"
	"github.com/eop-online/eop-client/internal/gateway"
	"github.com/eop-online/eop-client/internal/protocol"
)

// Apply is the single transition function: next state plus any effects
// the controller should run. Pure; the input state is never mutated.
func Apply(s State, intent Intent) (State, []Effect) {
	switch it := intent.(type) {
	case EventReceived:
		return applyEvent(s, it.Event)

	case GameFetchStarted:
		s.Game = s.Game.Started(it.GameID)
	case GameFetchDone:
		s.Game = s.Game.Done(it.GameID, it.Game)
	case GameFetchFailed:
		s.Game = s.Game.Failed(it.GameID, it.Err)
	case GameFetchReset:
		s.Game = s.Game.Reset()

	case MembersFetchStarted:
		s.Members = s.Members.Started(it.GameID)
	case MembersFetchDone:
		s.Members = s.Members.Done(it.GameID, it.Members)
	case MembersFetchFailed:
		s.Members = s.Members.Failed(it.GameID, it.Err)

	case MatchFetchStarted:
		s.Match = s.Match.Started(it.GameID)
	case MatchFetchDone:
		s.Match = s.Match.Done(it.GameID, it.Round)
		// The server's score map is authoritative and replaces any
		// local increments, whatever order they raced in.
		s.Scores = copyScores(it.Round.PlayersScores)
	case MatchFetchFailed:
		s.Match = s.Match.Failed(it.GameID, it.Err)
	case MatchFetchReset:
		s.Match = s.Match.Reset()
		s.Scores = map[string]int{}
		s.LastTrick = nil

	case SessionFetchStarted:
		s.Session = s.Session.Started(none{})
	case SessionFetchDone:
		s.Session = s.Session.Done(none{}, it.Session)
	case SessionFetchFailed:
		s.Session = s.Session.Failed(none{}, it.Err)

	case ScoresFetchDone:
		if s.Match.For(it.GameID) {
			s.Scores = copyScores(it.Scores)
		}
	}
	return s, nil
}

func applyEvent(s State, event protocol.Event) (State, []Effect) {
	switch ev := event.(type) {
	case protocol.UserRoleChanged:
		var effects []Effect
		// A role arriving while we're stuck on "not accepted" means the
		// owner just let us in; refetch to leave the waiting screen.
		if gateway.IsKind(s.Game.Err, gateway.KindUserNotAccepted) && s.Game.For(ev.GameID) {
			effects = append(effects, RefetchGame{GameID: ev.GameID})
		}
		if s.Members.FinishedFor(ev.GameID) {
			members := make([]domain.Member, len(s.Members.Data))
			copy(members, s.Members.Data)
			for i, m := range members {
				if m.ID == ev.UserID {
					role := ev.Role
					members[i].Role = &role
				}
			}
			s.Members = s.Members.Done(ev.GameID, members)
		}
		return s, effects

	case protocol.UserRemoved:
		if s.Members.FinishedFor(ev.GameID) {
			members := make([]domain.Member, 0, len(s.Members.Data))
			for _, m := range s.Members.Data {
				if m.ID != ev.UserID {
					members = append(members, m)
				}
			}
			s.Members = s.Members.Done(ev.GameID, members)
		}
		// Removing *us* (or anyone, while we were still unapproved)
		// terminates this session's game view.
		ourOwnID := s.Session.Status == async.Finished && s.Session.Data.UserID == ev.UserID
		waiting := gateway.IsKind(s.Game.Err, gateway.KindUserNotAccepted)
		if (ourOwnID || waiting) && s.Game.For(ev.GameID) {
			s.Game = s.Game.Failed(ev.GameID, &gateway.Error{
				Kind:    gateway.KindUserRemoved,
				Message: fmt.Sprintf("user %s removed from game %s", ev.UserID, ev.GameID),
			})
		}
		return s, nil

	case protocol.NewParticipant:
		if s.Members.FinishedFor(ev.GameID) && !hasMember(s.Members.Data, ev.UserID) {
			members := make([]domain.Member, len(s.Members.Data), len(s.Members.Data)+1)
			copy(members, s.Members.Data)
			members = append(members, domain.Member{ID: ev.UserID, Nickname: ev.NickName})
			s.Members = s.Members.Done(ev.GameID, members)
		}
		return s, nil

	case protocol.GameStarted:
		if s.Game.For(ev.GameID) {
			return s, []Effect{RefetchGame{GameID: ev.GameID}}
		}
		return s, nil

	case protocol.GameDeleted:
		// Forget the cached game: a Finished fetch holding nil data is
		// exactly how "no such game" reads everywhere else.
		if s.Game.For(ev.GameID) {
			s.Game = s.Game.Done(ev.GameID, nil)
		}
		return s, nil

	case protocol.GameFinished:
		if s.Game.For(ev.GameID) {
			return s, []Effect{RefetchGame{GameID: ev.GameID}}
		}
		return s, nil

	case protocol.ThreatStatusAssigned:
		if s.Match.FinishedFor(ev.GameID) {
			round := s.Match.Data
			table := make([]domain.UsersCard, len(round.Table))
			copy(table, round.Table)
			for i, uc := range table {
				if uc.Card.CardNumber == ev.CardNumber {
					status := ev.NewStatus
					table[i].ThreatLinked = &status
				}
			}
			round.Table = table
			s.Match = s.Match.Done(ev.GameID, round)
		}
		if ev.NewStatus && s.Match.For(ev.GameID) {
			s.Scores = increment(s.Scores, ev.PlayerID)
		}
		return s, nil

	case protocol.NextPlayer:
		if s.Match.FinishedFor(ev.GameID) {
			round := s.Match.Data
			round.State.CurrentPlayer = ev.NewPlayer
			s.Match = s.Match.Done(ev.GameID, round)
		}
		return s, nil

	case protocol.CardPlayed:
		if s.Match.FinishedFor(ev.GameID) {
			round := s.Match.Data

			// Only our own hand ever holds the card; for everyone else
			// this filter is a no-op.
			hand := make([]domain.Card, 0, len(round.Hand))
			for _, c := range round.Hand {
				if c.CardNumber != ev.Card.CardNumber {
					hand = append(hand, c)
				}
			}
			round.Hand = hand

			table := make([]domain.UsersCard, len(round.Table), len(round.Table)+1)
			copy(table, round.Table)
			round.Table = append(table, domain.UsersCard{
				GameID:       ev.GameID,
				PlayerID:     ev.PlayerID,
				Card:         ev.Card,
				Location:     domain.LocationTable,
				ThreatLinked: ev.ThreatLinked,
			})

			// First card of the trick fixes the suit to follow.
			if round.State.LeadingSuit == nil {
				suit := ev.Card.Suit
				round.State.LeadingSuit = &suit
			}
			s.Match = s.Match.Done(ev.GameID, round)
		}
		return s, nil

	case protocol.NextTurn:
		if s.Match.FinishedFor(ev.GameID) {
			round := s.Match.Data
			round.Table = []domain.UsersCard{}
			round.State.LeadingSuit = nil
			round.State.CurrentPlayer = ev.Player
			s.Match = s.Match.Done(ev.GameID, round)
		}
		return s, nil

	case protocol.PlayerTakesTrick:
		if !s.Match.For(ev.GameID) {
			return s, nil
		}
		if ev.Player != nil {
			s.Scores = increment(s.Scores, *ev.Player)
		}
		trick := ev
		s.LastTrick = &trick
		return s, []Effect{NotifyTrick{Player: ev.Player}}
	}
	return s, nil
}

func hasMember(members []domain.Member, id string) bool {
	for _, m := range members {
		if m.ID == id {
			return true
		}
	}
	return false
}

func increment(scores map[string]int, playerID string) map[string]int {
	next := copyScores(scores)
	next[playerID]++
	return next
}

func copyScores(scores map[string]int) map[string]int {
	next := make(map[string]int, len(scores))
	for k, v := range scores {
		next[k] = v
	}
	return next
}

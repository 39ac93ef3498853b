// Package protocol defines the WebSocket wire shapes shared by the
// anteroom and match channels, and decodes inbound envelopes into typed
// events.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/eop-online/eop-client/internal/domain"
)

// Keepalive is the only outbound message: {"query": "Keepalive"}.
type Keepalive struct {
	Query string `json:"query"`
}

func NewKeepalive() Keepalive { return Keepalive{Query: "Keepalive"} }

// envelope is the inbound shape: {"eventType": "...", "payload": {...}}.
type envelope struct {
	EventType string          `json:"eventType"`
	Payload   json.RawMessage `json:"payload"`
}

// Event is an inbound channel event. All events carry the game id they
// belong to so state application can be scope-guarded.
type Event interface {
	isEvent()
	Game() string
}

type UserRoleChanged struct {
	GameID string            `json:"gameId"`
	UserID string            `json:"userId"`
	Role   domain.MemberRole `json:"role"`
}

type UserRemoved struct {
	GameID string `json:"gameId"`
	UserID string `json:"userId"`
}

type NewParticipant struct {
	GameID   string `json:"gameId"`
	UserID   string `json:"userId"`
	NickName string `json:"nickName"`
}

type GameStarted struct {
	GameID string `json:"gameId"`
}

type GameDeleted struct {
	GameID string `json:"gameId"`
}

type ThreatStatusAssigned struct {
	GameID     string `json:"gameId"`
	CardNumber int    `json:"cardNumber"`
	NewStatus  bool   `json:"newStatus"`
	PlayerID   string `json:"playerId"`
}

type NextPlayer struct {
	GameID    string `json:"gameId"`
	NewPlayer string `json:"newPlayer"`
}

type CardPlayed struct {
	GameID       string      `json:"gameId"`
	PlayerID     string      `json:"playerId"`
	Card         domain.Card `json:"card"`
	Location     string      `json:"location"`
	ThreatLinked *bool       `json:"threatLinked,omitempty"`
}

type NextTurn struct {
	GameID string `json:"gameId"`
	Player string `json:"player"`
}

type GameFinished struct {
	GameID string `json:"gameId"`
}

// PlayerTakesTrick has a nil Player when nobody managed to take the trick.
type PlayerTakesTrick struct {
	GameID string  `json:"gameId"`
	Player *string `json:"player"`
}

func (UserRoleChanged) isEvent()      {}
func (UserRemoved) isEvent()          {}
func (NewParticipant) isEvent()       {}
func (GameStarted) isEvent()          {}
func (GameDeleted) isEvent()          {}
func (ThreatStatusAssigned) isEvent() {}
func (NextPlayer) isEvent()           {}
func (CardPlayed) isEvent()           {}
func (NextTurn) isEvent()             {}
func (GameFinished) isEvent()         {}
func (PlayerTakesTrick) isEvent()     {}

func (e UserRoleChanged) Game() string      { return e.GameID }
func (e UserRemoved) Game() string          { return e.GameID }
func (e NewParticipant) Game() string       { return e.GameID }
func (e GameStarted) Game() string          { return e.GameID }
func (e GameDeleted) Game() string          { return e.GameID }
func (e ThreatStatusAssigned) Game() string { return e.GameID }
func (e NextPlayer) Game() string           { return e.GameID }
func (e CardPlayed) Game() string           { return e.GameID }
func (e NextTurn) Game() string             { return e.GameID }
func (e GameFinished) Game() string         { return e.GameID }
func (e PlayerTakesTrick) Game() string     { return e.GameID }

// Decode translates one inbound frame into a typed event. Unknown event
// types and frames without an eventType decode to (nil, nil) so newer
// servers don't break older clients.
func Decode(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventType == "" {
		return nil, nil
	}

	switch env.EventType {
	case "UserRoleChanged":
		return decodePayload[UserRoleChanged](env)
	case "ParticipantRemoved":
		return decodePayload[UserRemoved](env)
	case "NewParticipant":
		return decodePayload[NewParticipant](env)
	case "GameStarted":
		return decodePayload[GameStarted](env)
	case "GameDeleted":
		return decodePayload[GameDeleted](env)
	case "ThreatStatusAssigned":
		return decodePayload[ThreatStatusAssigned](env)
	case "NextPlayer":
		return decodePayload[NextPlayer](env)
	case "CardPlayed":
		return decodePayload[CardPlayed](env)
	case "NextRound":
		return decodePayload[NextTurn](env)
	case "GameFinished":
		return decodePayload[GameFinished](env)
	case "PlayerTakesTrick":
		return decodePayload[PlayerTakesTrick](env)
	default:
		return nil, nil
	}
}

func decodePayload[E Event](env envelope) (Event, error) {
	var e E
	if err := json.Unmarshal(env.Payload, &e); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", env.EventType, err)
	}
	return e, nil
}

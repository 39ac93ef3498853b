package domain

import "time"

// Suit is one of the six STRIDE card suits.
type Suit string

const (
	SuitSpoofing              Suit = "Spoofing"
	SuitTampering             Suit = "Tampering"
	SuitRepudiation           Suit = "Repudiation"
	SuitInformationDisclosure Suit = "InformationDisclosure"
	SuitDenialOfService       Suit = "DenialOfService"
	SuitElevationOfPrivilege  Suit = "ElevationOfPrivilege"
)

// Card is a static catalog entry. Never mutated.
type Card struct {
	CardNumber int    `json:"cardNumber"`
	Value      string `json:"value"`
	Suit       Suit   `json:"suit"`
	Text       string `json:"text"`
	Example    string `json:"example"`
	Mitigation string `json:"mitigation"`
}

type Game struct {
	ID          string     `json:"id"`
	Description *string    `json:"description,omitempty"`
	Creator     string     `json:"creator"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}

// Started reports whether the match phase has begun.
func (g *Game) Started() bool { return g != nil && g.StartedAt != nil }

// Finished reports whether the game is terminal (summary view only).
func (g *Game) Finished() bool { return g != nil && g.FinishedAt != nil }

type MemberRole string

const (
	RolePlayer   MemberRole = "Player"
	RoleObserver MemberRole = "Observer"
)

// Member of a game. A nil Role means the member is still waiting for
// approval by the owner.
type Member struct {
	ID       string      `json:"id"`
	Nickname string      `json:"nickname"`
	Role     *MemberRole `json:"role,omitempty"`
}

// Session describes the current user as reported by GET /users/me.
type Session struct {
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
}

type UserGameSummary struct {
	ID              string      `json:"id"`
	Description     *string     `json:"description,omitempty"`
	PlayerNickname  string      `json:"playerNickname"`
	OwnerNickname   string      `json:"ownerNickname"`
	IsOwner         bool        `json:"isOwner"`
	CurrentUserRole *MemberRole `json:"currentUserRole,omitempty"`
	StartedAt       *time.Time  `json:"startedAt,omitempty"`
	FinishedAt      *time.Time  `json:"finishedAt,omitempty"`
}

type CardLocation string

const (
	LocationHand  CardLocation = "Hand"
	LocationTable CardLocation = "Table"
	LocationOut   CardLocation = "Out"
)

// UsersCard is a card on the table, tagged with its owner. ThreatLinked is
// nil while the owner hasn't decided yet whether the threat applies.
type UsersCard struct {
	GameID       string       `json:"gameId"`
	PlayerID     string       `json:"playerId"`
	Card         Card         `json:"card"`
	Location     CardLocation `json:"location"`
	ThreatLinked *bool        `json:"threatLinked,omitempty"`
}

// RoundState is the turn bookkeeping for the trick in progress.
// LeadingSuit is nil until the first card of the trick is played.
type RoundState struct {
	GameID        string `json:"gameId"`
	CurrentPlayer string `json:"currentPlayer"`
	LeadingSuit   *Suit  `json:"leadingSuit,omitempty"`
}

// Round is the match state as seen by this client: Hand holds only cards
// still held by the current user's player.
type Round struct {
	State         RoundState     `json:"state"`
	Hand          []Card         `json:"hand"`
	Table         []UsersCard    `json:"table"`
	PlayersScores map[string]int `json:"playersScores"`
}

package gateway

import (
	"errors"
	"fmt"
)

// Kind enumerates the closed taxonomy of domain errors the server can
// answer with. Anything outside the taxonomy propagates as a plain
// transport error.
type Kind string

const (
	KindUserIsNotGameMember         Kind = "UserIsNotGameMember"
	KindUserNotAccepted             Kind = "UserNotAccepted"
	KindGameNotFound                Kind = "GameNotFound"
	KindUserAlreadyJoined           Kind = "UserAlreadyJoined"
	KindGameAlreadyStarted          Kind = "GameAlreadyStarted"
	KindGameAlreadyFinished         Kind = "GameAlreadyFinished"
	KindUserRemoved                 Kind = "UserRemoved"
	KindUserIsNotGameOwner          Kind = "UserIsNotGameOwner"
	KindNotEnoughPlayers            Kind = "NotEnoughPlayers"
	KindTooManyPlayers              Kind = "TooManyPlayers"
	KindMatchNotFound               Kind = "MatchNotFound"
	KindNotAPlayer                  Kind = "NotAPlayer"
	KindOtherPlayersTurn            Kind = "OtherPlayersTurn"
	KindOtherPlayersCard            Kind = "OtherPlayersCard"
	KindCardNotFound                Kind = "CardNotFound"
	KindCardNotOnTable              Kind = "CardNotOnTable"
	KindThreatStatusAlreadyAssigned Kind = "ThreatStatusAlreadyAssigned"
	KindCardNotOnTheHand            Kind = "CardNotOnTheHand"
	KindSuitNotMatch                Kind = "SuitNotMatch"
	KindPlayerAlreadyPlayedCard     Kind = "PlayerAlreadyPlayedCard"
)

// Error is a domain error carrying its taxonomy kind. Matched by kind,
// never by identity.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}

// KindOf returns the taxonomy kind of err, or "" for transport errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// httpError is a transport-level failure outside the taxonomy.
type httpError struct {
	Status int
	Reason string
	Detail string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d (reason %q)", e.Detail, e.Status, e.Reason)
}

func isStatus(err error, status int) bool {
	var he *httpError
	return errors.As(err, &he) && he.Status == status
}

// reason strings used by the server in 403 responses.
const (
	reasonNotAMember       = "NotAMember"
	reasonNotAccepted      = "NotAccepted"
	reasonNotAnOwner       = "NotAnOwner"
	reasonNotAPlayer       = "NotAPlayer"
	reasonOtherPlayersTurn = "OtherPlayersTurn"
	reasonOtherPlayersCard = "OtherPlayersCard"
)

var forbiddenKinds = map[string]Kind{
	reasonNotAMember:       KindUserIsNotGameMember,
	reasonNotAccepted:      KindUserNotAccepted,
	reasonNotAnOwner:       KindUserIsNotGameOwner,
	reasonNotAPlayer:       KindNotAPlayer,
	reasonOtherPlayersTurn: KindOtherPlayersTurn,
	reasonOtherPlayersCard: KindOtherPlayersCard,
}

// 412 precondition-failed reasons. "Card not found" really does come back
// with a space in it.
var preconditionKinds = map[string]Kind{
	"GameAlreadyStarted":          KindGameAlreadyStarted,
	"GameAlreadyFinished":         KindGameAlreadyFinished,
	"NotEnoughPlayers":            KindNotEnoughPlayers,
	"TooManyPlayers":              KindTooManyPlayers,
	"CardNotOnTable":              KindCardNotOnTable,
	"ThreatStatusAlreadyAssigned": KindThreatStatusAlreadyAssigned,
	"CardNotOnTheHand":            KindCardNotOnTheHand,
	"SuitNotMatch":                KindSuitNotMatch,
	"PlayerAlreadyPlayedCard":     KindPlayerAlreadyPlayedCard,
	"Card not found":              KindCardNotFound,
}

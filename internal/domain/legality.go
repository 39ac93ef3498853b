package domain

// Playable reports whether userID may put card on the table right now.
// Legal iff it's the user's turn and either no suit leads the trick yet,
// the card follows the leading suit, or the hand has nothing of that suit.
// Derived on demand, never cached.
func (r Round) Playable(userID string, card Card) bool {
	if userID != r.State.CurrentPlayer {
		return false
	}
	lead := r.State.LeadingSuit
	if lead == nil || *lead == card.Suit {
		return true
	}
	return !r.holdsSuit(*lead)
}

func (r Round) holdsSuit(s Suit) bool {
	for _, c := range r.Hand {
		if c.Suit == s {
			return true
		}
	}
	return false
}

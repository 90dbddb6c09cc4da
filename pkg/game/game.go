// Package game holds the vocabulary shared by the table controller and
// the engines it drives: player serials, cards, engine states and the
// hand history log.
package game

import "slices"

// Serial identifies a player across tables.
type Serial uint32

// Card is a two character card code such as "Ah" or "Td". CardHidden
// stands for a card the receiver is not allowed to see.
type Card string

const CardHidden Card = "??"

// Hidden returns len(cards) hidden placeholders.
func Hidden(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	out := make([]Card, len(cards))
	for i := range out {
		out[i] = CardHidden
	}
	return out
}

// SameBoard reports whether two board snapshots hold the same cards in
// the same order.
func SameBoard(a, b []Card) bool {
	return slices.Equal(a, b)
}

// State is the engine's hand state.
type State string

const (
	StateNull      State = "null"
	StateBlindAnte State = "blindAnte"
	StatePreFlop   State = "pre-flop"
	StateFlop      State = "flop"
	StateTurn      State = "turn"
	StateRiver     State = "river"
	StateMuck      State = "muck"
	StateEnd       State = "end"
)

// IsRunning reports whether a hand is being played.
func (s State) IsRunning() bool {
	switch s {
	case StateBlindAnte, StatePreFlop, StateFlop, StateTurn, StateRiver:
		return true
	}
	return false
}

// IsEndOrNull reports whether no hand is in progress.
func (s State) IsEndOrNull() bool {
	return s == StateEnd || s == StateNull || s == ""
}

// Action is a betting decision submitted by a player.
type Action string

const (
	ActionFold  Action = "fold"
	ActionCheck Action = "check"
	ActionCall  Action = "call"
	ActionRaise Action = "raise"
	ActionBlind Action = "blind"
)

// Stats are the running table statistics reported by an engine.
type Stats struct {
	HandsCount   int
	HandsPerHour int
	AveragePot   int64
	PercentFlop  int
}

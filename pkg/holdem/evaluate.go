package holdem

import (
	"github.com/chehsunliu/poker"

	"github.com/vctt94/pokertable/pkg/game"
)

// HandRank is the class of a five card hand.
type HandRank int

const (
	HighCard HandRank = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

func (r HandRank) String() string {
	switch r {
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	}
	return "High Card"
}

// HandValue is the evaluation of the best five cards out of a pocket
// and a board.
type HandValue struct {
	Rank HandRank
	// Score is the evaluator's rank; lower is better.
	Score       int32
	Description string
}

func toEvaluator(cards []game.Card) []poker.Card {
	out := make([]poker.Card, len(cards))
	for i, c := range cards {
		out[i] = poker.NewCard(string(c))
	}
	return out
}

// rankClass maps the evaluator's classes (1 straight flush .. 9 high
// card) to HandRank.
func rankClass(class int32) HandRank {
	switch class {
	case 1:
		return StraightFlush
	case 2:
		return FourOfAKind
	case 3:
		return FullHouse
	case 4:
		return Flush
	case 5:
		return Straight
	case 6:
		return ThreeOfAKind
	case 7:
		return TwoPair
	case 8:
		return Pair
	}
	return HighCard
}

// Evaluate scores pocket plus board. It needs at least five cards.
func Evaluate(pocket, board []game.Card) HandValue {
	all := make([]game.Card, 0, len(pocket)+len(board))
	all = append(all, pocket...)
	all = append(all, board...)
	score := poker.Evaluate(toEvaluator(all))
	return HandValue{
		Rank:        rankClass(poker.RankClass(score)),
		Score:       score,
		Description: poker.RankString(score),
	}
}

// Compare returns 1 when a beats b, -1 when b beats a and 0 on a tie.
func Compare(a, b HandValue) int {
	switch {
	case a.Score < b.Score:
		return 1
	case a.Score > b.Score:
		return -1
	}
	return 0
}

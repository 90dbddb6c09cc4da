package holdem

import (
	"fmt"
	"math/rand"

	"github.com/vctt94/pokertable/pkg/game"
)

var (
	ranks = []byte{'2', '3', '4', '5', '6', '7', '8', '9', 'T', 'J', 'Q', 'K', 'A'}
	suits = []byte{'s', 'h', 'd', 'c'}
)

// FullDeck returns the 52 cards in a fixed order.
func FullDeck() []game.Card {
	cards := make([]game.Card, 0, 52)
	for _, s := range suits {
		for _, r := range ranks {
			cards = append(cards, game.Card([]byte{r, s}))
		}
	}
	return cards
}

// ValidCard reports whether c is a rank character followed by a suit
// character, as in "Td".
func ValidCard(c game.Card) bool {
	if len(c) != 2 {
		return false
	}
	okRank, okSuit := false, false
	for _, r := range ranks {
		okRank = okRank || c[0] == r
	}
	for _, s := range suits {
		okSuit = okSuit || c[1] == s
	}
	return okRank && okSuit
}

// Deck is the stock cards are drawn from.
type Deck struct {
	cards []game.Card
	rng   *rand.Rand
}

// NewDeck returns a full deck shuffled with rng.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{cards: FullDeck(), rng: rng}
	d.Shuffle()
	return d
}

// NewStackedDeck returns a deck that deals cards in the given order.
func NewStackedDeck(cards []game.Card) (*Deck, error) {
	seen := make(map[game.Card]bool, len(cards))
	for _, c := range cards {
		if !ValidCard(c) {
			return nil, fmt.Errorf("invalid card %q", c)
		}
		if seen[c] {
			return nil, fmt.Errorf("card %s stacked twice", c)
		}
		seen[c] = true
	}
	return &Deck{cards: append([]game.Card(nil), cards...)}, nil
}

// Shuffle randomizes the remaining cards. A stacked deck keeps its order.
func (d *Deck) Shuffle() {
	if d.rng == nil {
		return
	}
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (game.Card, bool) {
	if len(d.cards) == 0 {
		return "", false
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c, true
}

func (d *Deck) Size() int {
	return len(d.cards)
}

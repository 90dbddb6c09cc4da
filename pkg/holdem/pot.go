package holdem

import (
	"slices"

	"github.com/vctt94/pokertable/pkg/game"
)

// Pot is the main pot or a side pot.
type Pot struct {
	Amount   int64
	Eligible []game.Serial
}

// potManager tracks what each player put in during the hand.
type potManager struct {
	total map[game.Serial]int64
}

func newPotManager() *potManager {
	return &potManager{total: make(map[game.Serial]int64)}
}

func (pm *potManager) add(serial game.Serial, amount int64) {
	pm.total[serial] += amount
}

func (pm *potManager) sum() int64 {
	var s int64
	for _, v := range pm.total {
		s += v
	}
	return s
}

// returnUncalled gives back the part of the biggest contribution nobody
// matched. It returns the owner and the amount, or zero values.
func (pm *potManager) returnUncalled() (game.Serial, int64) {
	var hi, second int64
	var owner game.Serial
	for _, serial := range sortedKeys(pm.total) {
		bet := pm.total[serial]
		switch {
		case bet > hi:
			second, hi, owner = hi, bet, serial
		case bet > second:
			second = bet
		}
	}
	if owner == 0 || hi <= second {
		return 0, 0
	}
	uncalled := hi - second
	pm.total[owner] -= uncalled
	return owner, uncalled
}

// build splits the contributions into a main pot and side pots. Only
// players in live may win a pot.
func (pm *potManager) build(live []game.Serial) []Pot {
	var levels []int64
	for _, v := range pm.total {
		if v > 0 && !slices.Contains(levels, v) {
			levels = append(levels, v)
		}
	}
	slices.Sort(levels)

	var pots []Pot
	prev := int64(0)
	for _, lvl := range levels {
		var p Pot
		for _, serial := range sortedKeys(pm.total) {
			tb := pm.total[serial]
			if tb > prev {
				p.Amount += min(tb, lvl) - prev
			}
			if tb >= lvl && slices.Contains(live, serial) {
				p.Eligible = append(p.Eligible, serial)
			}
		}
		prev = lvl
		if p.Amount == 0 {
			continue
		}
		// Folded money above the last live contribution goes to the
		// previous pot.
		if len(p.Eligible) == 0 && len(pots) > 0 {
			pots[len(pots)-1].Amount += p.Amount
			continue
		}
		if len(pots) > 0 && slices.Equal(pots[len(pots)-1].Eligible, p.Eligible) {
			pots[len(pots)-1].Amount += p.Amount
			continue
		}
		pots = append(pots, p)
	}
	return pots
}

// distribute awards every pot to its best eligible hands. order is the
// seat order starting left of the dealer; odd chips go to the first
// winner in that order.
func distribute(pots []Pot, values map[game.Serial]HandValue, order []game.Serial) map[game.Serial]int64 {
	shares := make(map[game.Serial]int64)
	for _, p := range pots {
		var winners []game.Serial
		var best *HandValue
		for _, serial := range order {
			if !slices.Contains(p.Eligible, serial) {
				continue
			}
			hv, ok := values[serial]
			if !ok {
				continue
			}
			switch {
			case best == nil || Compare(hv, *best) > 0:
				v := hv
				best, winners = &v, []game.Serial{serial}
			case Compare(hv, *best) == 0:
				winners = append(winners, serial)
			}
		}
		if len(winners) == 0 {
			// Uncontested: the single eligible player takes it.
			if len(p.Eligible) == 1 {
				shares[p.Eligible[0]] += p.Amount
			}
			continue
		}
		share := p.Amount / int64(len(winners))
		rem := p.Amount % int64(len(winners))
		for i, serial := range winners {
			add := share
			if i == 0 {
				add += rem
			}
			shares[serial] += add
		}
	}
	return shares
}

func sortedKeys[V any](m map[game.Serial]V) []game.Serial {
	out := make([]game.Serial, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

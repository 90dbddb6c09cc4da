package holdem

import (
	"slices"

	"github.com/vctt94/pokertable/pkg/game"
)

func (e *Engine) MaxPlayers() int { return e.cfg.MaxPlayers }

// AddPlayer seats serial on seat, or on the first free seat when seat
// is negative. A player seated during a hand plays from the next one.
func (e *Engine) AddPlayer(serial game.Serial, seat int) bool {
	if _, ok := e.players[serial]; ok || serial == 0 {
		return false
	}
	taken := make(map[int]bool, len(e.players))
	for _, p := range e.players {
		taken[p.seat] = true
	}
	if seat < 0 {
		for i := 0; i < e.cfg.MaxPlayers; i++ {
			if !taken[i] {
				seat = i
				break
			}
		}
	}
	if seat < 0 || seat >= e.cfg.MaxPlayers || taken[seat] {
		return false
	}
	e.players[serial] = &player{serial: serial, seat: seat}
	e.log.Debugf("Player %d seated at %d", serial, seat)
	return true
}

// RemovePlayer frees the seat of serial. A player dealt into the
// running hand folds and leaves when the hand ends; RemovePlayer then
// reports false.
func (e *Engine) RemovePlayer(serial game.Serial) bool {
	p, ok := e.players[serial]
	if !ok {
		return true
	}
	if e.inHand(serial) {
		p.leaving, p.sit = true, false
		e.forfeit(serial)
		return false
	}
	delete(e.players, serial)
	return true
}

func (e *Engine) SeatOf(serial game.Serial) (int, bool) {
	p, ok := e.players[serial]
	if !ok {
		return 0, false
	}
	return p.seat, true
}

// Serials returns the seated players in seat order.
func (e *Engine) Serials() []game.Serial {
	out := make([]game.Serial, 0, len(e.players))
	for serial := range e.players {
		out = append(out, serial)
	}
	slices.SortFunc(out, func(a, b game.Serial) int {
		return e.players[a].seat - e.players[b].seat
	})
	return out
}

// Sit makes serial take part in the next hands. It needs a paid buy-in
// and chips.
func (e *Engine) Sit(serial game.Serial) bool {
	p, ok := e.players[serial]
	if !ok || !p.paid || p.leaving || p.money+p.pending <= 0 {
		return false
	}
	if p.sit {
		return true
	}
	p.sit, p.missed = true, 0
	e.add(game.Sit{Serial: serial})
	return true
}

func (e *Engine) SitOut(serial game.Serial) bool {
	p, ok := e.players[serial]
	if !ok {
		return false
	}
	if p.sit {
		p.sit = false
		e.add(game.SitOut{Serial: serial})
	}
	return true
}

func (e *Engine) IsSit(serial game.Serial) bool {
	p, ok := e.players[serial]
	return ok && p.sit
}

func (e *Engine) SerialsSit() []game.Serial {
	var out []game.Serial
	for _, serial := range e.Serials() {
		if e.players[serial].sit {
			out = append(out, serial)
		}
	}
	return out
}

// AutoBlindAnte makes the engine post the blinds of serial without
// asking.
func (e *Engine) AutoBlindAnte(serial game.Serial, on bool) {
	if p, ok := e.players[serial]; ok {
		p.autoBA = on
	}
}

func (e *Engine) MissedRoundCount(serial game.Serial) int {
	if p, ok := e.players[serial]; ok {
		return p.missed
	}
	return 0
}

func (e *Engine) Money(serial game.Serial) int64 {
	if p, ok := e.players[serial]; ok {
		return p.money
	}
	return 0
}

func (e *Engine) MoneyMap() map[game.Serial]int64 {
	out := make(map[game.Serial]int64, len(e.players))
	for serial, p := range e.players {
		out[serial] = p.money
	}
	return out
}

func (e *Engine) BuyInLimits() (int64, int64, int64) {
	return e.cfg.BuyInMin, e.cfg.BuyInBest, e.cfg.BuyInMax
}

func (e *Engine) IsBuyInPaid(serial game.Serial) bool {
	p, ok := e.players[serial]
	return ok && p.paid
}

// PayBuyIn sets the first stack of serial.
func (e *Engine) PayBuyIn(serial game.Serial, amount int64) bool {
	p, ok := e.players[serial]
	if !ok || p.paid || amount <= 0 || amount > e.cfg.BuyInMax {
		return false
	}
	p.money, p.paid = amount, true
	return true
}

// Rebuy adds amount to the stack of serial. Chips bought during a hand
// the player was dealt into are credited when the hand ends.
func (e *Engine) Rebuy(serial game.Serial, amount int64) bool {
	p, ok := e.players[serial]
	if !ok || !p.paid || amount <= 0 || p.money+p.pending+amount > e.cfg.BuyInMax {
		return false
	}
	if e.inHand(serial) {
		p.pending += amount
		return true
	}
	p.money += amount
	e.add(game.Rebuy{Serial: serial, Amount: amount})
	return true
}

func (e *Engine) PendingMoney(serial game.Serial) int64 {
	if p, ok := e.players[serial]; ok {
		return p.pending
	}
	return 0
}

// Stats returns the running statistics of the table.
func (e *Engine) Stats() game.Stats {
	s := game.Stats{HandsCount: e.handsCount}
	if e.handsCount == 0 {
		return s
	}
	s.AveragePot = e.potTotal / int64(e.handsCount)
	s.PercentFlop = e.flopCount * 100 / e.handsCount
	if elapsed := e.clock.Now().Unix() - e.firstHand; elapsed > 0 {
		s.HandsPerHour = int(int64(e.handsCount) * 3600 / elapsed)
	}
	return s
}

package holdem

import (
	"fmt"
	"slices"

	"github.com/vctt94/pokertable/pkg/game"
	"github.com/vctt94/pokertable/pkg/statemachine"
)

// BeginTurn deals hand handSerial to the sitting players with chips.
func (e *Engine) BeginTurn(handSerial int64) error {
	if !e.state.IsEndOrNull() {
		return ErrHandRunning
	}
	var dealt []*player
	for _, serial := range e.Serials() {
		p := e.players[serial]
		switch {
		case p.sit && p.money > 0:
			dealt = append(dealt, p)
		case !p.sit:
			p.missed++
		}
	}
	if len(dealt) < 2 {
		return ErrNotEnoughPlayers
	}

	deck, err := e.newDeck()
	if err != nil {
		return err
	}

	// The button moves to the next dealt seat after the last one.
	button := 0
	for i, p := range dealt {
		if p.seat > e.dealer {
			button = i
			break
		}
	}
	e.dealer = dealt[button].seat
	order := make([]game.Serial, 0, len(dealt))
	for i := 1; i <= len(dealt); i++ {
		order = append(order, dealt[(button+i)%len(dealt)].serial)
	}

	h := &hand{
		serial:   handSerial,
		order:    order,
		dealer:   e.dealer,
		deck:     deck,
		pockets:  make(map[game.Serial][]game.Card),
		pots:     newPotManager(),
		bets:     make(map[game.Serial]int64),
		folded:   make(map[game.Serial]bool),
		allIn:    make(map[game.Serial]bool),
		acted:    make(map[game.Serial]bool),
		minRaise: e.cfg.BigBlind,
		values:   make(map[game.Serial]HandValue),
	}
	h.streets = statemachine.NewStateMachine(e, dealFlop)
	e.hand = h

	if e.handsCount == 0 {
		e.firstHand = e.clock.Now().Unix()
	}
	e.handsCount++

	chips := make(map[game.Serial]int64, len(order))
	seats := make(map[game.Serial]int, len(order))
	for _, serial := range order {
		chips[serial] = e.players[serial].money
		seats[serial] = e.players[serial].seat
	}
	e.add(game.Game{
		Level:            1,
		HandSerial:       handSerial,
		HandsCount:       e.handsCount,
		Time:             e.clock.Now(),
		Variant:          e.cfg.Variant,
		BettingStructure: e.cfg.BettingStructure,
		Players:          slices.Clone(order),
		Seats:            seats,
		Dealer:           e.dealer,
		Chips:            chips,
	})

	// Heads up the button posts the small blind.
	sb, bb := order[0], order[1%len(order)]
	if len(order) == 2 {
		sb, bb = order[1], order[0]
	}
	h.blinds = []blindRequest{
		{serial: sb, amount: e.cfg.SmallBlind, state: "small"},
		{serial: bb, amount: e.cfg.BigBlind, state: "big"},
	}
	e.state = game.StateBlindAnte
	e.log.Debugf("Hand %d dealt to %v, button on seat %d", handSerial, order, e.dealer)
	e.collectBlinds()
	return nil
}

func (e *Engine) newDeck() (*Deck, error) {
	if e.cfg.Stack != nil {
		return NewStackedDeck(e.cfg.Stack)
	}
	return NewDeck(e.rng), nil
}

// collectBlinds posts the outstanding blinds of players who post them
// automatically and asks the first one who does not.
func (e *Engine) collectBlinds() {
	h := e.hand
	for len(h.blinds) > 0 {
		req := h.blinds[0]
		p := e.players[req.serial]
		if h.folded[req.serial] {
			h.blinds = h.blinds[1:]
			continue
		}
		if !p.autoBA {
			h.position = slices.Index(h.order, req.serial)
			e.add(game.BlindRequest{Serial: req.serial, Amount: req.amount, State: req.state})
			return
		}
		e.postBlind(req)
	}
	if e.live() < 2 {
		e.endUncontested()
		return
	}
	e.deal()
}

func (e *Engine) postBlind(req blindRequest) {
	h := e.hand
	h.blinds = h.blinds[1:]
	amount := e.commit(req.serial, req.amount)
	e.add(game.Blind{Serial: req.serial, Amount: amount})
	if h.allIn[req.serial] {
		e.add(game.AllIn{Serial: req.serial})
	}
	h.currentBet = max(h.currentBet, h.bets[req.serial])
}

// commit moves up to amount from the stack of serial into the pot and
// returns what moved.
func (e *Engine) commit(serial game.Serial, amount int64) int64 {
	h, p := e.hand, e.players[serial]
	amount = min(amount, p.money)
	p.money -= amount
	h.bets[serial] += amount
	h.pots.add(serial, amount)
	if p.money == 0 {
		h.allIn[serial] = true
	}
	return amount
}

// deal hands out the pockets and opens the pre-flop betting.
func (e *Engine) deal() {
	h := e.hand
	for range 2 {
		for _, serial := range h.order {
			if h.folded[serial] {
				continue
			}
			c, ok := h.deck.Draw()
			if !ok {
				e.log.Errorf("Hand %d: %v", h.serial, ErrDeckExhausted)
				e.refundAll()
				return
			}
			h.pockets[serial] = append(h.pockets[serial], c)
		}
	}
	e.state = game.StatePreFlop
	e.add(game.Round{Name: string(game.StatePreFlop), Pockets: e.pockets()})

	// Pre-flop action starts left of the big blind; heads up that is
	// the button.
	bb := slices.Index(h.order, h.bigBlind())
	e.openAction(bb)
}

// bigBlind returns the big blind payer.
func (h *hand) bigBlind() game.Serial {
	if len(h.order) == 2 {
		return h.order[0]
	}
	return h.order[1]
}

func (e *Engine) pockets() map[game.Serial][]game.Card {
	out := make(map[game.Serial][]game.Card, len(e.hand.pockets))
	for serial, cards := range e.hand.pockets {
		if !e.hand.folded[serial] {
			out[serial] = slices.Clone(cards)
		}
	}
	return out
}

// openAction gives the turn to the first player able to act after
// index from, or closes the round when nobody can.
func (e *Engine) openAction(from int) {
	next := e.nextActor(from)
	if next < 0 || e.roundComplete() {
		e.closeRound()
		return
	}
	e.setPosition(next)
}

func (e *Engine) setPosition(idx int) {
	h := e.hand
	h.position = idx
	e.add(game.Position{Position: idx, Serial: h.order[idx]})
}

// nextActor returns the index after from of the next player who can
// still bet, or -1.
func (e *Engine) nextActor(from int) int {
	h := e.hand
	n := len(h.order)
	for i := 1; i <= n; i++ {
		idx := (from + i + n) % n
		serial := h.order[idx]
		if !h.folded[serial] && !h.allIn[serial] {
			return idx
		}
	}
	return -1
}

// live counts the players who did not fold.
func (e *Engine) live() int {
	n := 0
	for _, serial := range e.hand.order {
		if !e.hand.folded[serial] {
			n++
		}
	}
	return n
}

func (e *Engine) roundComplete() bool {
	h := e.hand
	for _, serial := range h.order {
		if h.folded[serial] || h.allIn[serial] {
			continue
		}
		if h.bets[serial] < h.currentBet {
			return false
		}
		if !h.acted[serial] && e.othersCanAct(serial) {
			return false
		}
	}
	return true
}

// bettors counts the players who may still put chips in.
func (e *Engine) bettors() int {
	n := 0
	for _, serial := range e.hand.order {
		if !e.hand.folded[serial] && !e.hand.allIn[serial] {
			n++
		}
	}
	return n
}

// othersCanAct reports whether a player other than serial may still
// bet, which is what makes the action of serial meaningful.
func (e *Engine) othersCanAct(serial game.Serial) bool {
	h := e.hand
	for _, other := range h.order {
		if other != serial && !h.folded[other] && !h.allIn[other] {
			return true
		}
	}
	return false
}

// SerialInPosition returns the player expected to act, or 0.
func (e *Engine) SerialInPosition() game.Serial {
	if e.hand == nil || !e.state.IsRunning() {
		return 0
	}
	return e.hand.order[e.hand.position]
}

// Act applies a betting decision of the player in position. For a
// raise amount is the number of chips added to the pot.
func (e *Engine) Act(serial game.Serial, action game.Action, amount int64) error {
	if !e.state.IsRunning() {
		return ErrNotRunning
	}
	if e.SerialInPosition() != serial {
		return ErrNotInPosition
	}
	h, p := e.hand, e.players[serial]

	if e.state == game.StateBlindAnte {
		switch action {
		case game.ActionBlind:
			e.postBlind(h.blinds[0])
		case game.ActionFold:
			// Refusing a blind sits the player out of this hand.
			h.blinds = h.blinds[1:]
			h.folded[serial] = true
			if p.sit {
				p.sit = false
				e.add(game.SitOut{Serial: serial})
			}
		default:
			return fmt.Errorf("%s while blinds are due: %w", action, ErrInvalidAction)
		}
		e.collectBlinds()
		return nil
	}

	toCall := h.currentBet - h.bets[serial]
	switch action {
	case game.ActionFold:
		h.folded[serial] = true
		e.add(game.Fold{Serial: serial})

	case game.ActionCheck:
		if toCall > 0 {
			return fmt.Errorf("check facing %d: %w", toCall, ErrInvalidAction)
		}
		e.add(game.Check{Serial: serial})

	case game.ActionCall:
		if toCall <= 0 {
			return fmt.Errorf("call with nothing to call: %w", ErrInvalidAction)
		}
		paid := e.commit(serial, toCall)
		e.add(game.Call{Serial: serial, Amount: paid})

	case game.ActionRaise:
		if amount > p.money {
			return fmt.Errorf("raise of %d with %d: %w", amount, p.money, ErrInsufficientChips)
		}
		raiseBy := amount - toCall
		if raiseBy <= 0 {
			return fmt.Errorf("raise of %d facing %d: %w", amount, toCall, ErrInvalidAction)
		}
		if raiseBy < h.minRaise && amount < p.money {
			return fmt.Errorf("raise by %d, minimum %d: %w", raiseBy, h.minRaise, ErrBelowMinimumRaise)
		}
		e.commit(serial, amount)
		e.add(game.Raise{Serial: serial, Amount: amount})
		if raiseBy >= h.minRaise {
			h.minRaise = raiseBy
		}
		h.currentBet = h.bets[serial]
		clear(h.acted)

	default:
		return fmt.Errorf("%s: %w", action, ErrInvalidAction)
	}
	h.acted[serial] = true
	if h.allIn[serial] {
		e.add(game.AllIn{Serial: serial})
	}
	e.advance()
	return nil
}

// forfeit folds serial out of turn, as when its player leaves the
// table during the hand.
func (e *Engine) forfeit(serial game.Serial) {
	h := e.hand
	if h.folded[serial] || !e.state.IsRunning() {
		return
	}
	inPosition := e.SerialInPosition() == serial
	h.folded[serial] = true
	if e.state == game.StateBlindAnte {
		e.add(game.Fold{Serial: serial})
		if inPosition {
			h.blinds = h.blinds[1:]
			e.collectBlinds()
		}
		return
	}
	e.add(game.Fold{Serial: serial})
	if inPosition {
		e.advance()
		return
	}
	if e.live() < 2 {
		e.endUncontested()
	} else if e.roundComplete() {
		e.closeRound()
	}
}

// advance moves the action after the player in position acted.
func (e *Engine) advance() {
	if e.live() < 2 {
		e.endUncontested()
		return
	}
	if e.roundComplete() {
		e.closeRound()
		return
	}
	next := e.nextActor(e.hand.position)
	if next < 0 {
		e.closeRound()
		return
	}
	e.setPosition(next)
}

// closeRound ends the betting round and deals the next street, running
// the board out when nobody can bet any more.
func (e *Engine) closeRound() {
	h := e.hand
	clear(h.bets)
	clear(h.acted)
	h.currentBet, h.minRaise = 0, e.cfg.BigBlind
	for e.hand != nil && e.state.IsRunning() {
		h.streets.Dispatch(nil)
		if !e.state.IsRunning() {
			return
		}
		if e.bettors() >= 2 {
			e.openAction(-1)
			return
		}
	}
}

func (e *Engine) turnCards(n int, state game.State) bool {
	h := e.hand
	for range n {
		c, ok := h.deck.Draw()
		if !ok {
			e.log.Errorf("Hand %d: %v", h.serial, ErrDeckExhausted)
			return false
		}
		h.board = append(h.board, c)
	}
	e.state = state
	e.add(game.Round{Name: string(state), Board: slices.Clone(h.board), Pockets: e.pockets()})
	return true
}

func dealFlop(e *Engine) statemachine.StateFn[Engine] {
	if !e.turnCards(3, game.StateFlop) {
		return showdown
	}
	e.hand.sawFlop = true
	return dealTurn
}

func dealTurn(e *Engine) statemachine.StateFn[Engine] {
	if !e.turnCards(1, game.StateTurn) {
		return showdown
	}
	return dealRiver
}

func dealRiver(e *Engine) statemachine.StateFn[Engine] {
	if !e.turnCards(1, game.StateRiver) {
		return showdown
	}
	return showdown
}

// showdown evaluates the live hands. Players who win nothing may muck
// before the hand is settled.
func showdown(e *Engine) statemachine.StateFn[Engine] {
	h := e.hand
	if len(h.board) < 5 {
		// A deck problem left the board short; refund everything.
		e.refundAll()
		return nil
	}
	var live []game.Serial
	for _, serial := range h.order {
		if !h.folded[serial] {
			live = append(live, serial)
			h.values[serial] = Evaluate(h.pockets[serial], h.board)
		}
	}
	e.returnUncalled()
	shares := distribute(h.pots.build(live), h.values, h.order)
	for _, serial := range live {
		if shares[serial] == 0 {
			h.muckable = append(h.muckable, serial)
		}
	}
	if len(h.muckable) > 0 {
		e.state = game.StateMuck
		e.add(game.Muck{Serials: slices.Clone(h.muckable)})
		return nil
	}
	e.settle()
	return nil
}

// MuckableSerials returns the players still deciding whether to show.
func (e *Engine) MuckableSerials() []game.Serial {
	if e.hand == nil || e.state != game.StateMuck {
		return nil
	}
	return slices.Clone(e.hand.muckable)
}

// Muck records whether serial hides its losing hand. The hand is
// settled once every muckable player decided.
func (e *Engine) Muck(serial game.Serial, muck bool) bool {
	if e.state != game.StateMuck || !slices.Contains(e.hand.muckable, serial) {
		return false
	}
	h := e.hand
	h.muckable = slices.DeleteFunc(h.muckable, func(s game.Serial) bool { return s == serial })
	if !muck {
		h.shown = append(h.shown, serial)
	}
	if len(h.muckable) == 0 {
		e.settle()
	}
	return true
}

func (e *Engine) returnUncalled() {
	h := e.hand
	if owner, amount := h.pots.returnUncalled(); amount > 0 {
		e.players[owner].money += amount
		e.add(game.Canceled{Serial: owner, Amount: amount})
	}
}

// settle shows the cards that must be shown, pays the pots and ends
// the hand. Winners always show; losers show when they refused to muck.
func (e *Engine) settle() {
	h := e.hand
	var live []game.Serial
	for _, serial := range h.order {
		if !h.folded[serial] {
			live = append(live, serial)
		}
	}
	pots := h.pots.build(live)
	won := distribute(pots, h.values, h.order)
	shown := make(map[game.Serial][]game.Card, len(live))
	for _, serial := range live {
		if won[serial] > 0 || slices.Contains(h.shown, serial) {
			shown[serial] = slices.Clone(h.pockets[serial])
		}
	}
	e.add(game.Showdown{Board: slices.Clone(h.board), Pockets: shown})
	e.payout(distribute(e.rake(pots), h.values, h.order))
}

// endUncontested gives everything to the last live player.
func (e *Engine) endUncontested() {
	h := e.hand
	var live []game.Serial
	for _, serial := range h.order {
		if !h.folded[serial] {
			live = append(live, serial)
		}
	}
	if len(live) == 0 {
		e.refundAll()
		return
	}
	e.returnUncalled()
	shares := map[game.Serial]int64{live[0]: h.pots.sum()}
	if shares[live[0]] == 0 {
		shares = nil
	}
	e.payout(shares)
}

// refundAll cancels the hand and gives every contribution back.
func (e *Engine) refundAll() {
	h := e.hand
	for _, serial := range sortedKeys(h.pots.total) {
		if amount := h.pots.total[serial]; amount > 0 {
			e.players[serial].money += amount
			e.add(game.Canceled{Serial: serial, Amount: amount})
		}
	}
	clear(h.pots.total)
	e.payout(nil)
}

// rake keeps the house share of pots that saw a flop.
func (e *Engine) rake(pots []Pot) []Pot {
	h := e.hand
	if e.cfg.RakePercent <= 0 || !h.sawFlop {
		return pots
	}
	total := h.pots.sum()
	rake := total * e.cfg.RakePercent / 100
	if e.cfg.RakeCap > 0 {
		rake = min(rake, e.cfg.RakeCap)
	}
	if rake <= 0 {
		return pots
	}
	perSerial := make(map[game.Serial]int64)
	var assigned int64
	var biggest game.Serial
	for _, serial := range sortedKeys(h.pots.total) {
		part := h.pots.total[serial] * rake / total
		perSerial[serial] = part
		assigned += part
		if biggest == 0 || h.pots.total[serial] > h.pots.total[biggest] {
			biggest = serial
		}
	}
	perSerial[biggest] += rake - assigned
	for serial, part := range perSerial {
		if part == 0 {
			delete(perSerial, serial)
		}
	}
	e.add(game.Rake{Value: rake, Serial2Rake: perSerial})

	out := slices.Clone(pots)
	left := rake
	for i := range out {
		take := min(left, out[i].Amount)
		out[i].Amount -= take
		left -= take
	}
	return out
}

// payout credits shares, records the end of the hand and closes it.
func (e *Engine) payout(shares map[game.Serial]int64) {
	h := e.hand
	var pot int64
	var winners []game.Serial
	for _, serial := range sortedKeys(shares) {
		if shares[serial] <= 0 {
			delete(shares, serial)
			continue
		}
		e.players[serial].money += shares[serial]
		pot += shares[serial]
		winners = append(winners, serial)
	}
	if shares == nil {
		shares = map[game.Serial]int64{}
	}
	e.add(game.End{Winners: winners, Shares: shares, Money: e.MoneyMap()})
	e.potTotal += pot
	if h.sawFlop {
		e.flopCount++
	}
	e.finish()
}

// finish credits deferred rebuys, lets leaving players go and marks
// the end of the hand.
func (e *Engine) finish() {
	h := e.hand
	var leave game.Leave
	for _, serial := range e.Serials() {
		p := e.players[serial]
		if p.pending > 0 {
			p.money += p.pending
			e.add(game.Rebuy{Serial: serial, Amount: p.pending})
			p.pending = 0
		}
		if p.leaving {
			leave.Seats = append(leave.Seats, game.SeatLeave{Serial: serial, Seat: p.seat})
			delete(e.players, serial)
			continue
		}
		if p.sit && p.money == 0 {
			p.sit = false
			e.add(game.SitOut{Serial: serial})
		}
	}
	if len(leave.Seats) > 0 {
		e.add(leave)
	}
	e.add(game.Finish{HandSerial: h.serial})
	e.state = game.StateEnd
	e.log.Debugf("Hand %d finished", h.serial)
}

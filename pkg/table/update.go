package table

import (
	"fmt"
	"slices"

	"github.com/davecgh/go-spew/spew"

	"github.com/vctt94/pokertable/pkg/game"
	"github.com/vctt94/pokertable/pkg/protocol"
)

// UpdateResult tells how an Update call was handled.
type UpdateResult int

const (
	// UpdateOK means the history tail was processed.
	UpdateOK UpdateResult = iota
	// UpdateRecurse means Update was called from inside Update and did
	// nothing.
	UpdateRecurse
	// UpdateNotValid means the table is destroyed.
	UpdateNotValid
)

func (r UpdateResult) String() string {
	switch r {
	case UpdateRecurse:
		return "recurse"
	case UpdateNotValid:
		return "not valid"
	}
	return "ok"
}

// Update translates the untranslated history into events, broadcasts
// them, applies the side effects of finished hands and re-arms the
// table policies.
//
// Translation is staged: when it fails nothing is broadcast, the error
// is returned and the history index stays where it was, so the next
// call processes the same tail again. When an accounting or persistence
// call fails, the entries before the failing one stay committed and the
// next call resumes at it.
func (t *Table) Update() (UpdateResult, error) {
	if t.destroyed {
		return UpdateNotValid, nil
	}
	if t.updating {
		t.log.Warnf("unexpected recursion")
		return UpdateRecurse, nil
	}
	t.updating = true
	defer func() { t.updating = false }()

	hist := t.engine.History()
	if t.historyIndex > len(hist) {
		return UpdateOK, fmt.Errorf("table %d: history index %d beyond history length %d",
			t.cfg.ID, t.historyIndex, len(hist))
	}
	tail := hist[t.historyIndex:]

	tr := t.translation
	tr.Board = slices.Clone(tr.Board)
	staged := make([]stagedEntry, 0, len(tail))
	for i, e := range tail {
		events, err := t.translator.Translate(&tr, e)
		if err != nil {
			t.log.Errorf("Table %d: translating history entry %d failed: %v\n%s",
				t.cfg.ID, t.historyIndex+i, err, spew.Sdump(e))
			return UpdateOK, fmt.Errorf("translate history entry %d (%s): %w",
				t.historyIndex+i, e.Kind(), err)
		}
		after := tr
		after.Board = slices.Clone(tr.Board)
		staged = append(staged, stagedEntry{events: events, after: after})
	}

	var terminal, finished bool
	for _, st := range staged {
		index := t.historyIndex
		e := hist[index]
		if err := t.applySideEffect(hist, index); err != nil {
			t.log.Errorf("Table %d: history entry %d (%s): %v", t.cfg.ID, index, e.Kind(), err)
			if finished {
				t.boundary++
				t.kickSittingOutTooLong()
			}
			return UpdateOK, fmt.Errorf("apply history entry %d (%s): %w", index, e.Kind(), err)
		}
		t.broadcast(st.events...)
		t.translation = st.after
		t.historyIndex++
		if game.IsTerminal(e) {
			terminal = true
		}
		if _, ok := e.(game.Finish); ok {
			finished = true
		}
	}

	if terminal && t.engine.HistoryCanBeReduced() {
		t.engine.HistoryReduce()
		t.historyIndex = 0
	}

	if finished {
		t.boundary++
		t.kickSittingOutTooLong()
	}
	t.applyTopUps(finished)
	t.updateTimers()
	t.syncSeating()
	return UpdateOK, nil
}

// stagedEntry holds the translation of one history entry until it is
// committed.
type stagedEntry struct {
	events []protocol.Event
	after  Translation
}

// sync runs Update on behalf of an inbound operation.
func (t *Table) sync() {
	if _, err := t.Update(); err != nil {
		t.log.Errorf("Table %d: update: %v", t.cfg.ID, err)
	}
}

// applySideEffect performs the accounting and persistence attached to
// hist[i]. A failing entry may be applied again; the steps that already
// succeeded are not repeated.
func (t *Table) applySideEffect(hist []game.Entry, i int) error {
	switch v := hist[i].(type) {
	case game.Game:
		t.handSerial = v.HandSerial
		clear(t.ledger)
		clear(t.rake)
		t.settling = false
		t.finishStep = 0
	case game.Blind:
		t.ledger[v.Serial] -= v.Amount + v.Dead
	case game.Ante:
		t.ledger[v.Serial] -= v.Amount
	case game.Call:
		t.ledger[v.Serial] -= v.Amount
	case game.Raise:
		t.ledger[v.Serial] -= v.Amount
	case game.Canceled:
		if v.Serial > 0 && v.Amount > 0 {
			t.ledger[v.Serial] += v.Amount
		}
	case game.Rake:
		for serial, amount := range v.Serial2Rake {
			t.rake[serial] += amount
		}
	case game.End:
		if !t.settling {
			for serial, share := range v.Shares {
				t.ledger[serial] += share
			}
			t.settling = true
		}
		if err := t.flushLedger(); err != nil {
			return err
		}
		t.settling = false
	case game.Leave:
		for _, sl := range v.Seats {
			t.log.Debugf("Player %d left seat %d at the end of the hand", sl.Serial, sl.Seat)
			t.svc.LeavePlayer(sl.Serial, t.cfg.ID, t.cfg.Currency)
		}
		t.updateTableStats()
	case game.Finish:
		if err := t.saveHand(hist, i, v); err != nil {
			return err
		}
		t.finishStep = 0
	}
	return nil
}

// flushLedger persists the money and rake of the hand. Each serial
// leaves the ledger once its update succeeded.
func (t *Table) flushLedger() error {
	for _, serial := range sortedSerials(t.ledger) {
		delta := t.ledger[serial]
		if err := t.svc.UpdatePlayerMoney(serial, t.cfg.ID, delta); err != nil {
			return fmt.Errorf("update money of %d by %d: %w", serial, delta, err)
		}
		delete(t.ledger, serial)
	}
	for _, serial := range sortedSerials(t.rake) {
		if err := t.svc.UpdatePlayerRake(t.cfg.Currency, serial, t.rake[serial]); err != nil {
			return fmt.Errorf("update rake of %d: %w", serial, err)
		}
		delete(t.rake, serial)
	}
	return nil
}

// Steps of saveHand. finishStep records how far a failed save got.
const (
	finishSave = iota
	finishEvent
	finishTourneyTurn
	finishTourneyStats
	finishDone
)

func (t *Table) saveHand(hist []game.Entry, finishAt int, fin game.Finish) error {
	handSerial := fin.HandSerial
	if handSerial == 0 {
		handSerial = t.handSerial
	}
	for t.finishStep < finishDone {
		var err error
		switch t.finishStep {
		case finishSave:
			start := 0
			for i := finishAt; i >= 0; i-- {
				if _, ok := hist[i].(game.Game); ok {
					start = i
					break
				}
			}
			if err = t.svc.SaveHand(handSerial, game.Compress(hist[start:finishAt+1])); err != nil {
				err = fmt.Errorf("save hand %d: %w", handSerial, err)
			} else {
				t.updateTableStats()
			}
		case finishEvent:
			ev := DatabaseEvent{
				Kind:       "hand",
				TableID:    t.cfg.ID,
				HandSerial: handSerial,
				Transient:  t.cfg.Transient,
			}
			if t.cfg.Tourney != nil {
				ev.Tourney = t.cfg.Tourney.Serial
			}
			if err = t.svc.DatabaseEvent(ev); err != nil {
				err = fmt.Errorf("database event: %w", err)
			}
		case finishTourneyTurn:
			if t.cfg.Tourney != nil {
				if err = t.svc.TourneyEndTurn(t.cfg.Tourney, t.cfg.ID); err != nil {
					err = fmt.Errorf("tourney end turn: %w", err)
				}
			}
		case finishTourneyStats:
			if t.cfg.Tourney != nil {
				if err = t.svc.TourneyUpdateStats(t.cfg.Tourney, t.cfg.ID); err != nil {
					err = fmt.Errorf("tourney stats: %w", err)
				}
			}
		}
		if err != nil {
			return err
		}
		t.finishStep++
	}
	return nil
}

// kickSittingOutTooLong turns into observers the players who missed too
// many rounds. Transient tables never kick.
func (t *Table) kickSittingOutTooLong() {
	if t.cfg.Transient {
		return
	}
	limit := t.maxMissedRounds()
	for _, serial := range t.engine.Serials() {
		if t.engine.MissedRoundCount(serial) < limit {
			continue
		}
		t.log.Infof("Kicking player %d from table %d after %d missed rounds",
			serial, t.cfg.ID, t.engine.MissedRoundCount(serial))
		t.removeFromGame(serial, true)
	}
}

// syncSeating brings the announced view in line with the engine's
// seating and stacks.
func (t *Table) syncSeating() {
	gid := t.cfg.ID
	var events []protocol.Event
	seatsChanged := false

	serials := t.engine.Serials()
	for _, serial := range t.announced.Serials() {
		if slices.Contains(serials, serial) {
			continue
		}
		p, _ := t.announced.Player(serial)
		events = append(events, &protocol.PlayerLeave{GameID: gid, Serial: serial, Seat: p.Seat})
		seatsChanged = true
	}
	for _, serial := range serials {
		seat, _ := t.engine.SeatOf(serial)
		sit := t.engine.IsSit(serial)
		p, known := t.announced.Player(serial)
		if !known || p.Seat != seat || p.Sit != sit {
			events = append(events, &protocol.PlayerArrive{
				GameID: gid,
				Serial: serial,
				Name:   t.svc.PlayerName(serial),
				Seat:   seat,
				Sit:    sit,
			})
			seatsChanged = seatsChanged || !known || p.Seat != seat
		}
		if money := t.engine.Money(serial); !known || p.Money != money {
			events = append(events, &protocol.PlayerChips{GameID: gid, Serial: serial, Money: money, Bet: p.Bet})
		}
	}
	if seatsChanged {
		events = append(events, t.seatsEvent())
	}
	if len(events) > 0 {
		t.broadcast(events...)
	}
}

func (t *Table) seatsEvent() *protocol.Seats {
	seats := make([]game.Serial, t.engine.MaxPlayers())
	for _, serial := range t.engine.Serials() {
		if seat, ok := t.engine.SeatOf(serial); ok && seat >= 0 && seat < len(seats) {
			seats[seat] = serial
		}
	}
	return &protocol.Seats{GameID: t.cfg.ID, Seats: seats}
}

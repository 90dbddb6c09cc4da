package table

import (
	"fmt"

	"github.com/vctt94/pokertable/pkg/game"
	"github.com/vctt94/pokertable/pkg/protocol"
)

// sendState brings a freshly attached avatar up to the announced view.
func (t *Table) sendState(a Avatar, reason string) {
	summary := t.Summary()
	summary.Reason = reason
	a.Send(&summary)
	for _, ev := range t.announced.Snapshot() {
		a.Send(ev)
	}
	a.Send(t.seatsEvent())
}

func (t *Table) releaseJoin(serial game.Serial) {
	if !t.counted[serial] {
		return
	}
	delete(t.counted, serial)
	count := t.svc.JoinedCountDecrease()
	t.log.Debugf("Player %d released its join, joined count %d", serial, count)
}

// Join attaches a to the table as an observer. An identity takes one
// slot of the server wide joined count on its first join, whatever the
// number of its avatars.
func (t *Table) Join(a Avatar) error {
	serial := a.Serial()
	if t.destroyed {
		t.sendError(a, protocol.CodeGameClosed, protocol.TypeJoin, "The table is closed.")
		return ErrGameClosed
	}
	if t.registry.Has(a) {
		return nil
	}
	if !t.counted[serial] {
		if t.svc.JoinedCountReachedMax() {
			t.log.Warnf("joinPlayer: %d cannot join game %d because the server is full", serial, t.cfg.ID)
			t.sendError(a, protocol.CodeFull, protocol.TypeJoin, msgServerFull)
			return ErrTableFull
		}
		t.svc.JoinedCountIncrease()
		t.counted[serial] = true
	}
	t.registry.Add(a)
	t.member(serial)
	t.sendState(a, "join")
	return nil
}

// Seat places a joined identity on seat, or on the first free seat
// when seat is negative.
func (t *Table) Seat(a Avatar, seat int) error {
	serial := a.Serial()
	if t.destroyed {
		return ErrGameClosed
	}
	if !t.registry.Has(a) {
		t.sendError(a, protocol.CodeNotJoined, protocol.TypeSeat, "Join the table before taking a seat.")
		return ErrNotJoined
	}
	if t.isSeated(serial) {
		t.sendError(a, protocol.CodeAlreadySeated, protocol.TypeSeat, "Already seated at this table.")
		return ErrAlreadySeated
	}
	if !t.engine.IsOpen() {
		t.sendError(a, protocol.CodeGameClosed, protocol.TypeSeat, "The game is closed.")
		return ErrGameClosed
	}
	min, _, _ := t.engine.BuyInLimits()
	if !t.svc.SeatPlayer(serial, t.cfg.ID, min) {
		t.log.Infof("Service refused seating %d at table %d", serial, t.cfg.ID)
		return ErrRefused
	}
	if !t.engine.AddPlayer(serial, seat) {
		t.svc.LeavePlayer(serial, t.cfg.ID, t.cfg.Currency)
		t.sendError(a, protocol.CodeFull, protocol.TypeSeat, "No seat available.")
		return ErrTableFull
	}
	got, _ := t.engine.SeatOf(serial)
	t.log.Infof("player %d gets seat %d", serial, got)
	if m := t.member(serial); m.autoBlindAnte {
		t.engine.AutoBlindAnte(serial, true)
	}
	t.updateTableStats()
	t.sync()
	return nil
}

// Sit makes a seated player who paid the buy-in take part in the next
// hands.
func (t *Table) Sit(a Avatar) error {
	serial := a.Serial()
	if t.destroyed {
		return ErrGameClosed
	}
	if !t.registry.Has(a) || !t.isSeated(serial) {
		return ErrNotSeated
	}
	if !t.engine.IsBuyInPaid(serial) || !t.engine.Sit(serial) {
		return ErrRefused
	}
	t.sync()
	return nil
}

// SitOut keeps a seated player out of the next hands. Sitting out twice
// is fine.
func (t *Table) SitOut(a Avatar) error {
	serial := a.Serial()
	if t.destroyed {
		return ErrGameClosed
	}
	if !t.registry.Has(a) || !t.isSeated(serial) {
		return ErrNotSeated
	}
	t.engine.SitOut(serial)
	t.sync()
	return nil
}

// removeFromGame takes serial off its seat. It reports false when the
// engine delays the removal to the end of the hand.
func (t *Table) removeFromGame(serial game.Serial, notifyService bool) bool {
	seat, _ := t.engine.SeatOf(serial)
	if !t.engine.RemovePlayer(serial) {
		t.log.Debugf("Removal of player %d from game %d delayed to the end of the hand", serial, t.cfg.ID)
		return false
	}
	t.log.Debugf("removing player %d from game %d", serial, t.cfg.ID)
	if notifyService {
		t.svc.LeavePlayer(serial, t.cfg.ID, t.cfg.Currency)
	}
	t.broadcast(&protocol.PlayerLeave{GameID: t.cfg.ID, Serial: serial, Seat: seat})
	t.updateTableStats()
	return true
}

// standUp removes a seated serial from the game, or sits it out when
// the game is closed.
func (t *Table) standUp(serial game.Serial) {
	if !t.isSeated(serial) {
		return
	}
	if t.engine.IsOpen() {
		t.removeFromGame(serial, true)
	} else {
		t.engine.SitOut(serial)
	}
}

// Leave gives up the seat of a. The identity stays an observer.
func (t *Table) Leave(a Avatar) error {
	serial := a.Serial()
	if t.destroyed {
		return ErrGameClosed
	}
	if !t.registry.Has(a) {
		return ErrNotJoined
	}
	if !t.isSeated(serial) {
		return nil
	}
	if !t.engine.IsOpen() {
		t.sendError(a, protocol.CodeGameClosed, protocol.TypePlayerLeave, msgClosedLeave)
		return ErrGameClosed
	}
	t.removeFromGame(serial, true)
	t.sync()
	return nil
}

// Quit detaches every avatar of the identity of a and frees its join.
func (t *Table) Quit(a Avatar) error {
	serial := a.Serial()
	if t.destroyed {
		return ErrGameClosed
	}
	if !t.registry.Has(a) {
		return ErrNotJoined
	}
	t.standUp(serial)
	for _, other := range t.registry.Get(serial) {
		t.registry.Remove(other)
	}
	t.releaseJoin(serial)
	if !t.isSeated(serial) {
		delete(t.members, serial)
	}
	t.sync()
	return nil
}

// Kick turns a seated player into an observer.
func (t *Table) Kick(serial game.Serial) {
	if t.destroyed || !t.isSeated(serial) {
		return
	}
	t.log.Infof("Kicking player %d from table %d", serial, t.cfg.ID)
	t.removeFromGame(serial, true)
	t.sync()
}

// Disconnect detaches a. When it was the last avatar of its identity
// the player stands up and the join is released. It reports false when
// a was not attached.
func (t *Table) Disconnect(a Avatar) bool {
	if !t.registry.Has(a) {
		return false
	}
	serial := a.Serial()
	t.registry.Remove(a)
	if t.registry.HasSerial(serial) {
		return true
	}
	t.standUp(serial)
	t.releaseJoin(serial)
	if !t.isSeated(serial) {
		delete(t.members, serial)
	}
	t.sync()
	return true
}

// PossibleObserverLoggedIn attaches a reconnecting avatar of a player
// still seated at the table. It reports whether a was attached.
func (t *Table) PossibleObserverLoggedIn(a Avatar) bool {
	serial := a.Serial()
	if t.destroyed || !t.isSeated(serial) || t.registry.Has(a) {
		return false
	}
	if err := t.Join(a); err != nil {
		return false
	}
	if t.engine.IsBuyInPaid(serial) && !t.engine.IsSit(serial) {
		t.engine.Sit(serial)
	}
	t.sync()
	return true
}

// Chat filters msg, broadcasts it and archives it.
func (t *Table) Chat(a Avatar, msg string) error {
	serial := a.Serial()
	if t.destroyed {
		return ErrGameClosed
	}
	if !t.registry.Has(a) {
		return ErrNotJoined
	}
	if t.settings.ChatFilter != nil {
		msg = t.settings.ChatFilter.ReplaceAllString(msg, "poker")
	}
	t.broadcast(&protocol.Chat{GameID: t.cfg.ID, Serial: serial, Message: msg})
	if err := t.svc.ChatMessageArchive(serial, t.cfg.ID, msg); err != nil {
		t.log.Errorf("Table %d: archive chat of %d: %v", t.cfg.ID, serial, err)
	}
	return nil
}

func (t *Table) seatedAvatar(a Avatar) (game.Serial, bool) {
	serial := a.Serial()
	return serial, !t.destroyed && t.registry.Has(a) && t.isSeated(serial)
}

// Act forwards a betting action to the engine.
func (t *Table) Act(a Avatar, action game.Action, amount int64) error {
	serial, ok := t.seatedAvatar(a)
	if !ok {
		return ErrNotSeated
	}
	if err := t.engine.Act(serial, action, amount); err != nil {
		return fmt.Errorf("%s by %d: %w", action, serial, err)
	}
	t.sync()
	return nil
}

func (t *Table) muck(a Avatar, muck bool) error {
	serial, ok := t.seatedAvatar(a)
	if !ok {
		return ErrObserver
	}
	if !t.engine.Muck(serial, muck) {
		t.log.Debugf("Player %d cannot choose to muck now", serial)
		return nil
	}
	t.sync()
	return nil
}

// MuckAccept hides the cards of a at showdown.
func (t *Table) MuckAccept(a Avatar) error { return t.muck(a, true) }

// MuckDeny shows the cards of a at showdown.
func (t *Table) MuckDeny(a Avatar) error { return t.muck(a, false) }

// AutoBlindAnte toggles automatic blind and ante posting.
func (t *Table) AutoBlindAnte(a Avatar, on bool) error {
	serial, ok := t.seatedAvatar(a)
	if !ok {
		return ErrObserver
	}
	t.member(serial).autoBlindAnte = on
	t.engine.AutoBlindAnte(serial, on)
	t.sendAutoFlag(serial, on)
	return nil
}

// MoveTo carries a seated player and its avatars to table toID.
func (t *Table) MoveTo(a Avatar, toID int64) error {
	serial, ok := t.seatedAvatar(a)
	if !ok {
		return ErrNotSeated
	}
	if t.engine.IsRunning() {
		return ErrRefused
	}
	dst, ok := t.svc.Table(toID)
	if !ok || dst == t || dst.destroyed {
		return ErrRefused
	}
	money := t.svc.MovePlayer(serial, t.cfg.ID, toID)
	if money < 0 {
		t.log.Infof("Service refused moving %d from %d to %d", serial, t.cfg.ID, toID)
		return ErrRefused
	}
	if !t.removeFromGame(serial, false) {
		return ErrRefused
	}
	avatars := t.registry.Get(serial)
	for _, other := range avatars {
		t.registry.Remove(other)
	}
	counted := t.counted[serial]
	delete(t.counted, serial)
	m := t.members[serial]
	delete(t.members, serial)
	t.sync()

	t.log.Infof("Moved player %d from table %d to table %d with %d", serial, t.cfg.ID, toID, money)
	return dst.acceptMoved(serial, avatars, money, m, counted)
}

func (t *Table) acceptMoved(serial game.Serial, avatars []Avatar, money int64, m *member, counted bool) error {
	if counted {
		t.counted[serial] = true
	}
	if m != nil {
		t.members[serial] = m
	} else {
		t.member(serial)
	}
	for _, a := range avatars {
		t.registry.Add(a)
	}
	if !t.engine.AddPlayer(serial, -1) {
		t.log.Errorf("Table %d: no seat for player %d moved in", t.cfg.ID, serial)
		for _, a := range avatars {
			t.sendState(a, "move")
		}
		return ErrTableFull
	}
	t.engine.PayBuyIn(serial, money)
	t.engine.Sit(serial)
	t.updateTableStats()
	for _, a := range avatars {
		t.sendState(a, "move")
	}
	t.sync()
	return nil
}

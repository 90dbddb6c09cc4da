package table

import (
	"time"

	"github.com/vctt94/pokertable/pkg/game"
	"github.com/vctt94/pokertable/pkg/protocol"
)

// willingToPlay returns the seated, sitting serials.
func (t *Table) willingToPlay() []game.Serial {
	var out []game.Serial
	for _, serial := range t.engine.SerialsSit() {
		if t.isSeated(serial) {
			out = append(out, serial)
		}
	}
	return out
}

// ShouldAutoDeal reports whether a new hand may start now.
func (t *Table) ShouldAutoDeal() bool {
	id := t.cfg.ID
	switch {
	case t.svc.ShuttingDown():
		t.log.Debugf("Not autodealing %d because server is shutting down", id)
		return false
	case t.engine.IsRunning():
		t.log.Debugf("Not autodealing %d because game is running", id)
		return false
	case t.engine.State() == game.StateMuck:
		t.log.Debugf("Not autodealing %d because game is in muck state", id)
		return false
	}

	willing := t.willingToPlay()
	if len(willing) < 2 {
		t.log.Debugf("Not autodealing %d because less than 2 players willing to play", id)
		return false
	}
	if t.settings.AutodealTemporary {
		return true
	}
	for _, serial := range willing {
		if !t.svc.IsTemporaryUser(serial) {
			return true
		}
	}
	t.log.Debugf("Not autodealing %d because all players willing to play are temporary", id)
	return false
}

// AutoDealDelay returns the pause before the next hand.
func (t *Table) AutoDealDelay() time.Duration {
	delay := t.settings.AutodealDelay
	if t.cfg.Transient {
		elapsed := t.clock.Now().Sub(t.handStartedAt)
		delay = max(0, t.settings.AutodealTransientMin-elapsed)
	}
	if t.settings.AutodealMax > 0 && delay > t.settings.AutodealMax {
		delay = t.settings.AutodealMax
	}
	return delay
}

// ScheduleAutoDeal arms the deal timer when a hand may be dealt and
// reports whether autodeal is on.
func (t *Table) ScheduleAutoDeal() bool {
	if !t.settings.Autodeal {
		return false
	}
	if !t.ShouldAutoDeal() {
		t.timers.Cancel(TimerDeal)
		return false
	}
	delay := t.AutoDealDelay()
	t.timers.Schedule(TimerDeal, delay, t.autoDealCheck)
	t.log.Debugf("AutodealCheck scheduled in %f seconds", delay.Seconds())
	return t.settings.Autodeal
}

func (t *Table) autoDealCheck() {
	if t.destroyed {
		return
	}
	t.log.Debugf("AutodealCheck(%d)", t.cfg.ID)
	if !t.ShouldAutoDeal() {
		return
	}
	t.beginTurn()
}

func (t *Table) beginTurn() {
	handSerial, err := t.svc.CreateHand(t.cfg.ID, t.cfg.Tourney)
	if err != nil {
		t.log.Errorf("Table %d: create hand: %v", t.cfg.ID, err)
		return
	}
	t.handStartedAt = t.clock.Now()
	if err := t.engine.BeginTurn(handSerial); err != nil {
		t.log.Errorf("Table %d: begin turn %d: %v", t.cfg.ID, handSerial, err)
		return
	}
	t.log.Infof("Table %d: hand %d started", t.cfg.ID, handSerial)
	t.sync()
}

// updateTimers re-arms the player, muck and deal timers from the
// engine's state.
func (t *Table) updateTimers() {
	t.updatePlayerTimers()
	t.updateMuckTimer()
	if t.engine.State().IsEndOrNull() {
		t.ScheduleAutoDeal()
	}
}

func (t *Table) updatePlayerTimers() {
	if !t.engine.IsRunning() {
		t.timers.Cancel(TimerPlayerWarning)
		t.timers.Cancel(TimerPlayerTimeout)
		t.timedSerial = 0
		return
	}
	serial := t.engine.SerialInPosition()
	if serial == t.timedSerial &&
		(t.timers.Active(TimerPlayerWarning) || t.timers.Active(TimerPlayerTimeout)) {
		return
	}
	t.timedSerial = serial
	t.timers.Cancel(TimerPlayerTimeout)
	t.timers.Schedule(TimerPlayerWarning, t.cfg.PlayerTimeout/2, func() {
		t.playerWarningTimer(serial)
	})
}

func (t *Table) inPosition(serial game.Serial) bool {
	return t.engine.IsRunning() && t.engine.SerialInPosition() == serial
}

func (t *Table) playerWarningTimer(serial game.Serial) {
	if t.destroyed {
		return
	}
	if !t.inPosition(serial) {
		t.timedSerial = 0
		t.updatePlayerTimers()
		return
	}
	half := t.cfg.PlayerTimeout - t.cfg.PlayerTimeout/2
	t.broadcast(&protocol.TimeoutWarning{
		GameID:  t.cfg.ID,
		Serial:  serial,
		Timeout: int(half / time.Second),
		When:    t.clock.Now().Unix(),
	})
	t.timers.Schedule(TimerPlayerTimeout, half, func() {
		t.playerTimeoutTimer(serial)
	})
}

func (t *Table) playerTimeoutTimer(serial game.Serial) {
	if t.destroyed {
		return
	}
	if !t.inPosition(serial) {
		t.timedSerial = 0
		t.updatePlayerTimers()
		return
	}
	t.log.Infof("Player %d timed out at table %d", serial, t.cfg.ID)
	t.broadcast(&protocol.TimeoutNotice{GameID: t.cfg.ID, Serial: serial})
	t.engine.SitOut(serial)
	if err := t.engine.Act(serial, game.ActionFold, 0); err != nil {
		t.log.Warnf("Table %d: auto fold of %d: %v", t.cfg.ID, serial, err)
	}
	t.broadcast(&protocol.AutoFold{GameID: t.cfg.ID, Serial: serial})
	t.timedSerial = 0
	t.sync()
}

func (t *Table) updateMuckTimer() {
	if t.engine.State() != game.StateMuck {
		t.timers.Cancel(TimerMuck)
		return
	}
	if !t.timers.Active(TimerMuck) {
		t.timers.Schedule(TimerMuck, t.cfg.MuckTimeout, t.muckTimeoutTimer)
	}
}

func (t *Table) muckTimeoutTimer() {
	if t.destroyed {
		return
	}
	t.log.Infof("muck timed out")
	for _, serial := range t.engine.MuckableSerials() {
		t.engine.Muck(serial, true)
	}
	t.sync()
}

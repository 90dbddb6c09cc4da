package table

import (
	"fmt"

	"github.com/vctt94/pokertable/pkg/game"
	"github.com/vctt94/pokertable/pkg/protocol"
)

func (t *Table) topUpAmount(target TopUp) int64 {
	minBuyIn, bestBuyIn, maxBuyIn := t.engine.BuyInLimits()
	switch target {
	case TopUpMin:
		return minBuyIn
	case TopUpBest:
		return bestBuyIn
	case TopUpMax:
		return maxBuyIn
	}
	return 0
}

// BuyIn pays the buy-in of a seated player and returns the amount
// granted by the service, which may be less than requested. On a
// transient table it is the only money a player ever brings.
func (t *Table) BuyIn(a Avatar, amount int64) (int64, error) {
	if t.destroyed {
		return 0, ErrGameClosed
	}
	serial := a.Serial()
	if !t.registry.Has(a) || !t.isSeated(serial) {
		return 0, ErrNotSeated
	}
	if t.engine.IsBuyInPaid(serial) {
		t.log.Infof("Player %d already paid the buy-in at table %d", serial, t.cfg.ID)
		return 0, ErrBuyInPaid
	}
	minBuyIn, _, maxBuyIn := t.engine.BuyInLimits()
	if amount > maxBuyIn {
		t.log.Infof("Player %d buy-in of %d above maximum %d", serial, amount, maxBuyIn)
		return 0, ErrAboveMax
	}
	request := max(amount, minBuyIn)
	granted := t.svc.BuyInPlayer(serial, t.cfg.ID, t.cfg.Currency, request)
	if granted <= 0 {
		t.log.Infof("Player %d buy-in of %d refused", serial, request)
		return 0, ErrRefused
	}
	if !t.engine.PayBuyIn(serial, granted) {
		t.log.Errorf("Table %d: engine refused buy-in of %d granted to %d", t.cfg.ID, granted, serial)
		if err := t.refund(serial, granted); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("pay buy-in of %d: %w", granted, ErrRefused)
	}
	t.log.Infof("Player %d bought in for %d at table %d", serial, granted, t.cfg.ID)
	t.sync()
	return granted, nil
}

// rebuy credits amount to serial without running Update.
func (t *Table) rebuy(serial game.Serial, amount int64) (int64, error) {
	if !t.isSeated(serial) || !t.engine.IsBuyInPaid(serial) {
		return 0, ErrNotSeated
	}
	if t.cfg.Transient {
		return 0, ErrTransient
	}
	if amount <= 0 {
		return 0, ErrRefused
	}
	_, _, maxBuyIn := t.engine.BuyInLimits()
	money := t.engine.Money(serial) + t.engine.PendingMoney(serial)
	if money >= maxBuyIn || money+amount > maxBuyIn {
		t.log.Infof("Rebuy of %d for %d refused: %d would exceed %d", amount, serial, money, maxBuyIn)
		return 0, ErrAboveMax
	}
	granted := t.svc.BuyInPlayer(serial, t.cfg.ID, t.cfg.Currency, amount)
	if granted <= 0 {
		return 0, ErrRefused
	}
	if !t.engine.Rebuy(serial, granted) {
		t.log.Errorf("Table %d: engine refused rebuy of %d for %d", t.cfg.ID, granted, serial)
		if err := t.refund(serial, granted); err != nil {
			return 0, err
		}
		return 0, ErrRefused
	}
	t.log.Infof("Player %d rebought %d at table %d", serial, granted, t.cfg.ID)
	return granted, nil
}

// refund returns to the service an amount it granted but the engine
// refused.
func (t *Table) refund(serial game.Serial, amount int64) error {
	if err := t.svc.RefundBuyIn(serial, t.cfg.ID, amount); err != nil {
		t.log.Errorf("Table %d: refund of %d to %d: %v", t.cfg.ID, amount, serial, err)
		return fmt.Errorf("refund %d to %d: %w", amount, serial, err)
	}
	return nil
}

// Rebuy adds amount to the stack of a seated player who already paid
// the buy-in.
func (t *Table) Rebuy(serial game.Serial, amount int64) (int64, error) {
	if t.destroyed {
		return 0, ErrGameClosed
	}
	granted, err := t.rebuy(serial, amount)
	if err != nil {
		return 0, err
	}
	t.sync()
	return granted, nil
}

func (t *Table) setTopUp(a Avatar, target TopUp, refill bool) error {
	serial := a.Serial()
	if !t.registry.Has(a) || !t.isSeated(serial) {
		return ErrObserver
	}
	if t.cfg.Transient && target != TopUpOff {
		return ErrTransient
	}
	m := t.member(serial)
	if refill {
		m.autoRefill = target
	} else {
		m.autoRebuy = target
	}
	return nil
}

// AutoRebuy arms a top up to target once the stack of a is empty.
func (t *Table) AutoRebuy(a Avatar, target TopUp) error {
	return t.setTopUp(a, target, false)
}

// AutoRefill arms a top up to target whenever the stack of a is under
// it.
func (t *Table) AutoRefill(a Avatar, target TopUp) error {
	return t.setTopUp(a, target, true)
}

// applyTopUps runs the armed auto rebuy and refill policies, at most
// once per player per hand boundary.
func (t *Table) applyTopUps(finished bool) {
	midHand := t.settings.RefillPolicy == RefillMidHand
	if !finished && !midHand {
		return
	}
	for _, serial := range sortedSerials(t.members) {
		m := t.members[serial]
		if m.autoRebuy == TopUpOff && m.autoRefill == TopUpOff {
			continue
		}
		if !t.isSeated(serial) || !t.engine.IsBuyInPaid(serial) {
			continue
		}
		if done, ok := t.topUps[serial]; ok && done == t.boundary {
			continue
		}
		if !finished && t.engine.IsRunning() && m.autoRefill == TopUpOff {
			continue
		}

		money := t.engine.Money(serial)
		var target int64
		rebuying := false
		switch {
		case money == 0 && m.autoRebuy != TopUpOff:
			target, rebuying = t.topUpAmount(m.autoRebuy), true
		case m.autoRefill != TopUpOff:
			target = t.topUpAmount(m.autoRefill)
		}
		if target <= money {
			continue
		}
		granted, err := t.rebuy(serial, target-money)
		if err != nil {
			t.log.Debugf("Auto top up of %d to %d failed: %v", serial, target, err)
			continue
		}
		t.topUps[serial] = t.boundary
		if rebuying && !t.engine.IsSit(serial) && !t.engine.IsRunning() {
			t.engine.Sit(serial)
		}
		t.log.Debugf("Auto top up of %d by %d", serial, granted)
	}
}

// sendAutoFlag tells the avatars of serial about a changed auto flag.
func (t *Table) sendAutoFlag(serial game.Serial, on bool) {
	t.sendTo(serial, &protocol.AutoBlindAnte{GameID: t.cfg.ID, Serial: serial, On: on})
}

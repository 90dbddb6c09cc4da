package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/decred/dcrd/dcrutil/v4"

	"github.com/vctt94/pokertable/pkg/game"
	"github.com/vctt94/pokertable/pkg/store"
	"github.com/vctt94/pokertable/pkg/table"
)

// service is what the tables of a Server see of it. Its methods run on
// the loop.
type service struct {
	*table.JoinedCounter
	srv *Server
}

var _ table.Service = (*service)(nil)

func (s *service) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.srv.cfg.StoreTimeout)
}

func (s *service) currency(tableID int64) int {
	if tc, ok := s.srv.confs[tableID]; ok {
		return tc.Currency
	}
	return 0
}

// SeatPlayer accepts serial when its bankroll covers the minimum buy-in.
func (s *service) SeatPlayer(serial game.Serial, tableID int64, minAmount int64) bool {
	ctx, cancel := s.ctx()
	defer cancel()
	balance, err := s.srv.store.Balance(ctx, serial, s.currency(tableID))
	if err != nil {
		s.srv.log.Warnf("Seat %d at table %d: %v", serial, tableID, err)
		return false
	}
	onTable, err := s.srv.store.TableMoney(ctx, serial, tableID)
	if err != nil {
		s.srv.log.Errorf("Seat %d at table %d: %v", serial, tableID, err)
		return false
	}
	if balance+onTable < minAmount {
		s.srv.log.Infof("Player %d has %v, table %d needs %v", serial,
			dcrutil.Amount(balance+onTable), tableID, dcrutil.Amount(minAmount))
		return false
	}
	return true
}

func (s *service) BuyInPlayer(serial game.Serial, tableID int64, currency int, amount int64) int64 {
	ctx, cancel := s.ctx()
	defer cancel()
	granted, err := s.srv.store.BuyIn(ctx, serial, tableID, currency, amount)
	if err != nil {
		s.srv.log.Warnf("Buy-in of %v for %d at table %d: %v", dcrutil.Amount(amount), serial, tableID, err)
		return 0
	}
	return granted
}

func (s *service) RefundBuyIn(serial game.Serial, tableID int64, amount int64) error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.srv.store.Refund(ctx, serial, tableID, amount)
}

func (s *service) LeavePlayer(serial game.Serial, tableID int64, currency int) bool {
	ctx, cancel := s.ctx()
	defer cancel()
	amount, err := s.srv.store.CashOut(ctx, serial, tableID)
	if err != nil {
		s.srv.log.Errorf("Leave of %d from table %d: %v", serial, tableID, err)
		return false
	}
	s.srv.log.Debugf("Player %d left table %d with %v", serial, tableID, dcrutil.Amount(amount))
	return true
}

func (s *service) MovePlayer(serial game.Serial, fromID, toID int64) int64 {
	if s.currency(fromID) != s.currency(toID) {
		s.srv.log.Infof("Cannot move %d from table %d to %d: currencies differ", serial, fromID, toID)
		return -1
	}
	ctx, cancel := s.ctx()
	defer cancel()
	amount, err := s.srv.store.MoveMoney(ctx, serial, fromID, toID)
	if err != nil {
		s.srv.log.Warnf("Move of %d from table %d to %d: %v", serial, fromID, toID, err)
		return -1
	}
	return amount
}

func (s *service) CreateHand(tableID int64, tourney *table.Tourney) (int64, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	var tourneySerial int64
	if tourney != nil {
		tourneySerial = tourney.Serial
	}
	return s.srv.store.CreateHand(ctx, tableID, tourneySerial)
}

func (s *service) SaveHand(handSerial int64, hist []game.Entry) error {
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.srv.store.SaveHand(ctx, handSerial, hist); err != nil {
		s.srv.log.Debugf("Unsaved hand %d:\n%s", handSerial, spew.Sdump(hist))
		return err
	}
	return nil
}

func (s *service) LoadHand(handSerial int64) ([]game.Entry, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	hist, err := s.srv.store.LoadHand(ctx, handSerial)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("hand %d: %w", handSerial, table.ErrHandNotFound)
	}
	return hist, err
}

func (s *service) UpdatePlayerMoney(serial game.Serial, tableID int64, delta int64) error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.srv.store.AddTableMoney(ctx, serial, tableID, delta)
}

func (s *service) UpdatePlayerRake(currency int, serial game.Serial, amount int64) error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.srv.store.AddRake(ctx, currency, serial, amount)
}

func (s *service) recordEvent(kind string, tableID, handSerial int64, tourney *table.Tourney) error {
	ctx, cancel := s.ctx()
	defer cancel()
	ev := store.Event{Kind: kind, TableID: tableID, HandSerial: handSerial}
	if tc, ok := s.srv.confs[tableID]; ok {
		ev.Transient = tc.Transient
	}
	if tourney != nil {
		ev.TourneySerial = tourney.Serial
	}
	return s.srv.store.RecordEvent(ctx, ev)
}

func (s *service) TourneyEndTurn(tourney *table.Tourney, tableID int64) error {
	return s.recordEvent("tourney_end_turn", tableID, 0, tourney)
}

func (s *service) TourneyUpdateStats(tourney *table.Tourney, tableID int64) error {
	return s.recordEvent("tourney_update_stats", tableID, 0, tourney)
}

func (s *service) DatabaseEvent(ev table.DatabaseEvent) error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.srv.store.RecordEvent(ctx, store.Event{
		Kind:          ev.Kind,
		TableID:       ev.TableID,
		HandSerial:    ev.HandSerial,
		Transient:     ev.Transient,
		TourneySerial: ev.Tourney,
	})
}

func (s *service) ChatMessageArchive(serial game.Serial, tableID int64, message string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.srv.store.ArchiveChat(ctx, serial, tableID, message)
}

func (s *service) ShuttingDown() bool {
	return s.srv.shuttingDown.Load()
}

func (s *service) Table(id int64) (*table.Table, bool) {
	t, ok := s.srv.tables[id]
	return t, ok
}

func (s *service) DespawnTable(id int64) {
	if _, ok := s.srv.tables[id]; !ok {
		return
	}
	delete(s.srv.tables, id)
	s.srv.log.Infof("Despawned table %d", id)
}

func (s *service) DeleteTable(id int64) {
	delete(s.srv.confs, id)
	s.srv.log.Infof("Deleted transient table %d", id)
}

func (s *service) UpdateTableStats(tableID int64, observers, waiting int) {
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.srv.store.UpdateTableStats(ctx, tableID, observers, waiting); err != nil {
		s.srv.log.Errorf("Update stats of table %d: %v", tableID, err)
	}
}

func (s *service) IsTemporaryUser(serial game.Serial) bool {
	if s.srv.temporary == nil {
		return false
	}
	return s.srv.temporary.MatchString(s.PlayerName(serial))
}

func (s *service) PlayerName(serial game.Serial) string {
	if name, ok := s.srv.names[serial]; ok {
		return name
	}
	ctx, cancel := s.ctx()
	defer cancel()
	name, err := s.srv.store.PlayerName(ctx, serial)
	if err != nil {
		s.srv.log.Debugf("Name of %d: %v", serial, err)
		return fmt.Sprintf("player%d", serial)
	}
	s.srv.names[serial] = name
	return name
}

package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/vctt94/pokertable/pkg/game"
	"github.com/vctt94/pokertable/pkg/protocol"
	"github.com/vctt94/pokertable/pkg/table"
	"github.com/vctt94/pokertable/pkg/wire"
)

var actions = map[wire.RequestType]game.Action{
	wire.ReqFold:  game.ActionFold,
	wire.ReqCheck: game.ActionCheck,
	wire.ReqCall:  game.ActionCall,
	wire.ReqRaise: game.ActionRaise,
	wire.ReqBlind: game.ActionBlind,
}

func parseTopUp(s string) (table.TopUp, error) {
	switch s {
	case "", "off":
		return table.TopUpOff, nil
	case "min":
		return table.TopUpMin, nil
	case "best":
		return table.TopUpBest, nil
	case "max":
		return table.TopUpMax, nil
	}
	return 0, fmt.Errorf("unknown top up %q: %w", s, table.ErrRefused)
}

// errorCode classifies err for replies.
func errorCode(err error) protocol.Code {
	switch {
	case errors.Is(err, table.ErrTableFull):
		return protocol.CodeFull
	case errors.Is(err, table.ErrAlreadySeated):
		return protocol.CodeAlreadySeated
	case errors.Is(err, table.ErrNotJoined):
		return protocol.CodeNotJoined
	case errors.Is(err, table.ErrGameClosed), errors.Is(err, ErrShutdown):
		return protocol.CodeGameClosed
	case errors.Is(err, table.ErrHandNotFound), errors.Is(err, ErrUnknownTable):
		return protocol.CodeNotFound
	}
	return protocol.CodeRefused
}

// Handle runs req for sess on the loop and returns its reply. Failed
// requests come back as replies carrying an error code; the returned
// error only reports that the loop could not run the request.
func (s *Server) Handle(ctx context.Context, sess *Session, req wire.Request) (wire.Reply, error) {
	var reply wire.Reply
	err := s.loop.Do(ctx, func() error {
		reply = s.dispatch(sess, req)
		return nil
	})
	return reply, err
}

func (s *Server) dispatch(sess *Session, req wire.Request) wire.Reply {
	reply := wire.Reply{Request: req.Type, GameID: req.GameID}
	amount, err := s.apply(sess, req, &reply)
	reply.Amount = amount
	if err != nil {
		reply.Code = string(errorCode(err))
		reply.Error = err.Error()
		s.log.Debugf("Request %s of %d on table %d failed: %v", req.Type, sess.Serial(), req.GameID, err)
	}
	return reply
}

func (s *Server) apply(sess *Session, req wire.Request, reply *wire.Reply) (int64, error) {
	if req.Type == wire.ReqTables {
		for _, id := range s.tableIDs() {
			reply.Tables = append(reply.Tables, s.tables[id].Summary())
		}
		return 0, nil
	}

	t, ok := s.tables[req.GameID]
	if !ok {
		return 0, fmt.Errorf("table %d: %w", req.GameID, ErrUnknownTable)
	}
	if action, ok := actions[req.Type]; ok {
		return 0, t.Act(sess, action, req.Amount)
	}

	switch req.Type {
	case wire.ReqJoin:
		if err := t.Join(sess); err != nil {
			return 0, err
		}
		sess.tables[t.ID()] = true
		return 0, nil

	case wire.ReqLeave:
		return 0, t.Leave(sess)

	case wire.ReqQuit:
		if err := t.Quit(sess); err != nil {
			return 0, err
		}
		s.forget(sess.Serial(), t.ID())
		return 0, nil

	case wire.ReqSeat:
		return 0, t.Seat(sess, req.Seat)

	case wire.ReqBuyIn:
		return t.BuyIn(sess, req.Amount)

	case wire.ReqRebuy:
		if !t.IsJoined(sess) {
			return 0, table.ErrNotJoined
		}
		return t.Rebuy(sess.Serial(), req.Amount)

	case wire.ReqSit:
		return 0, t.Sit(sess)

	case wire.ReqSitOut:
		return 0, t.SitOut(sess)

	case wire.ReqAutoBlindAnte:
		return 0, t.AutoBlindAnte(sess, req.On)

	case wire.ReqAutoRebuy, wire.ReqAutoRefill:
		target, err := parseTopUp(req.Target)
		if err != nil {
			return 0, err
		}
		if req.Type == wire.ReqAutoRebuy {
			return 0, t.AutoRebuy(sess, target)
		}
		return 0, t.AutoRefill(sess, target)

	case wire.ReqMuckAccept:
		return 0, t.MuckAccept(sess)

	case wire.ReqMuckDeny:
		return 0, t.MuckDeny(sess)

	case wire.ReqChat:
		return 0, t.Chat(sess, req.Message)

	case wire.ReqHandReplay:
		return 0, t.HandReplay(sess, req.HandSerial)

	case wire.ReqMove:
		if err := t.MoveTo(sess, req.ToGameID); err != nil {
			return 0, err
		}
		s.moved(sess.Serial(), t.ID(), req.ToGameID)
		return 0, nil

	case wire.ReqListPlayers:
		for _, p := range t.ListPlayers() {
			reply.Players = append(reply.Players, wire.PlayerInfo{
				Serial: uint32(p.Serial),
				Name:   p.Name,
				Money:  p.Money,
				Sit:    p.Sit,
			})
		}
		return 0, nil
	}
	return 0, fmt.Errorf("request %s: %w", req.Type, wire.ErrUnknownType)
}

// forget drops tableID from every session of serial.
func (s *Server) forget(serial game.Serial, tableID int64) {
	for _, sess := range s.sessions {
		if sess.Serial() == serial {
			delete(sess.tables, tableID)
		}
	}
}

// moved follows the sessions of serial carried from one table to
// another.
func (s *Server) moved(serial game.Serial, fromID, toID int64) {
	for _, sess := range s.sessions {
		if sess.Serial() == serial && sess.tables[fromID] {
			delete(sess.tables, fromID)
			sess.tables[toID] = true
		}
	}
}

// Tables returns the summaries of the tables in id order.
func (s *Server) Tables(ctx context.Context) ([]protocol.Table, error) {
	var out []protocol.Table
	err := s.loop.Do(ctx, func() error {
		for _, id := range s.tableIDs() {
			out = append(out, s.tables[id].Summary())
		}
		return nil
	})
	return out, err
}

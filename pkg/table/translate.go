package table

import (
	"slices"

	"github.com/vctt94/pokertable/pkg/game"
	"github.com/vctt94/pokertable/pkg/protocol"
)

// Translation is the state carried from one history entry to the next
// while translating.
type Translation struct {
	GameID int64
	// Board is the board of the last round seen in the current hand.
	Board     []game.Card
	HaveBoard bool
	// Reveal marks every pocket as shown.
	Reveal bool
}

// Translator turns one history entry into protocol events. It must not
// have side effects other than on tr.
type Translator interface {
	Translate(tr *Translation, e game.Entry) ([]protocol.Event, error)
}

// HistoryTranslator is the default Translator.
type HistoryTranslator struct{}

func sortedSerials[V any](m map[game.Serial]V) []game.Serial {
	out := make([]game.Serial, 0, len(m))
	for serial := range m {
		out = append(out, serial)
	}
	slices.Sort(out)
	return out
}

func pocketEvents(tr *Translation, pockets map[game.Serial][]game.Card, shown bool) []protocol.Event {
	var events []protocol.Event
	for _, serial := range sortedSerials(pockets) {
		events = append(events, &protocol.PlayerCards{
			GameID: tr.GameID,
			Serial: serial,
			Cards:  slices.Clone(pockets[serial]),
			Shown:  shown || tr.Reveal,
		})
	}
	return events
}

func (HistoryTranslator) Translate(tr *Translation, e game.Entry) ([]protocol.Event, error) {
	gid := tr.GameID
	switch v := e.(type) {
	case game.Game:
		tr.Board, tr.HaveBoard = nil, false
		return []protocol.Event{&protocol.Start{
			GameID:     gid,
			HandSerial: v.HandSerial,
			Level:      v.Level,
			HandsCount: v.HandsCount,
			Time:       v.Time.Unix(),
			Dealer:     v.Dealer,
			Players:    slices.Clone(v.Players),
		}}, nil

	case game.Round:
		events := []protocol.Event{&protocol.State{GameID: gid, State: v.Name}}
		if v.Unchanged || (tr.HaveBoard && game.SameBoard(tr.Board, v.Board)) {
			events = append(events, &protocol.BoardUnchanged{GameID: gid})
		} else {
			tr.Board, tr.HaveBoard = slices.Clone(v.Board), true
			events = append(events, &protocol.BoardCards{GameID: gid, Cards: slices.Clone(v.Board)})
		}
		return append(events, pocketEvents(tr, v.Pockets, false)...), nil

	case game.Showdown:
		return pocketEvents(tr, v.Pockets, true), nil

	case game.Position:
		return []protocol.Event{&protocol.Position{GameID: gid, Serial: v.Serial, Position: v.Position}}, nil

	case game.BlindRequest:
		return []protocol.Event{&protocol.BlindRequest{GameID: gid, Serial: v.Serial, Amount: v.Amount, Dead: v.Dead, State: v.State}}, nil

	case game.Blind:
		return []protocol.Event{&protocol.Blind{GameID: gid, Serial: v.Serial, Amount: v.Amount, Dead: v.Dead}}, nil

	case game.AnteRequest:
		return []protocol.Event{&protocol.AnteRequest{GameID: gid, Serial: v.Serial, Amount: v.Amount}}, nil

	case game.Ante:
		return []protocol.Event{&protocol.Ante{GameID: gid, Serial: v.Serial, Amount: v.Amount}}, nil

	case game.AllIn:
		return []protocol.Event{&protocol.AllIn{GameID: gid, Serial: v.Serial}}, nil

	case game.Call:
		return []protocol.Event{&protocol.Call{GameID: gid, Serial: v.Serial, Amount: v.Amount}}, nil

	case game.Check:
		return []protocol.Event{&protocol.Check{GameID: gid, Serial: v.Serial}}, nil

	case game.Fold:
		return []protocol.Event{&protocol.Fold{GameID: gid, Serial: v.Serial}}, nil

	case game.Raise:
		return []protocol.Event{&protocol.Raise{GameID: gid, Serial: v.Serial, Amount: v.Amount}}, nil

	case game.Canceled:
		if v.Serial == 0 || v.Amount <= 0 {
			return nil, nil
		}
		return []protocol.Event{&protocol.Canceled{GameID: gid, Serial: v.Serial, Amount: v.Amount}}, nil

	case game.Rake:
		rakes := make(map[game.Serial]int64, len(v.Serial2Rake))
		for serial, amount := range v.Serial2Rake {
			rakes[serial] = amount
		}
		return []protocol.Event{&protocol.Rake{GameID: gid, Value: v.Value, Rakes: rakes}}, nil

	case game.End:
		shares := make(map[game.Serial]int64, len(v.Shares))
		for serial, amount := range v.Shares {
			shares[serial] = amount
		}
		money := make(map[game.Serial]int64, len(v.Money))
		for serial, amount := range v.Money {
			money[serial] = amount
		}
		return []protocol.Event{&protocol.Win{GameID: gid, Serials: slices.Clone(v.Winners), Shares: shares, Money: money}}, nil

	case game.SitOut:
		return []protocol.Event{&protocol.SitOut{GameID: gid, Serial: v.Serial}}, nil

	case game.Sit:
		return []protocol.Event{&protocol.Sit{GameID: gid, Serial: v.Serial}}, nil

	case game.Leave:
		events := make([]protocol.Event, 0, len(v.Seats))
		for _, sl := range v.Seats {
			events = append(events, &protocol.PlayerLeave{GameID: gid, Serial: sl.Serial, Seat: sl.Seat})
		}
		return events, nil

	case game.Finish:
		return []protocol.Event{&protocol.State{GameID: gid, State: string(game.StateEnd)}}, nil

	case game.Muck:
		return []protocol.Event{&protocol.MuckRequest{GameID: gid, MuckableSerials: slices.Clone(v.Serials)}}, nil

	case game.Rebuy:
		return []protocol.Event{&protocol.Rebuy{GameID: gid, Serial: v.Serial, Amount: v.Amount}}, nil
	}

	// wait_for, player_list, wait_blind and unknown entries carry nothing
	// for clients.
	return nil, nil
}

// Package replica rebuilds a table's public state from the protocol
// events a client receives. The table keeps one View of what it
// announced; clients keep their own. Both apply the same events.
package replica

import (
	"maps"
	"slices"

	"github.com/vctt94/pokertable/pkg/game"
	"github.com/vctt94/pokertable/pkg/protocol"
)

// Player is one seated player as seen by a client.
type Player struct {
	Serial game.Serial
	Name   string
	Seat   int
	Money  int64
	Bet    int64
	Sit    bool
	Cards  []game.Card
}

// View is the client side reconstruction of a table.
type View struct {
	GameID     int64
	Table      protocol.Table
	HandSerial int64
	State      string
	Dealer     int
	Position   game.Serial
	Board      []game.Card
	Pot        int64
	Muckable   []game.Serial
	Chat       []protocol.Chat
	LastError  *protocol.Error
	Destroyed  bool

	players map[game.Serial]*Player
}

// New returns an empty view for table gameID.
func New(gameID int64) *View {
	return &View{GameID: gameID, players: make(map[game.Serial]*Player)}
}

// Apply folds one event into the view. Applying PLAYER_ARRIVE,
// PLAYER_LEAVE or PLAYER_CHIPS twice leaves the view as applying it once.
// REBUY is informational: the credited stack arrives as PLAYER_CHIPS.
func (v *View) Apply(ev protocol.Event) {
	switch e := ev.(type) {
	case *protocol.Table:
		v.Table = *e
		v.GameID = e.ID
	case *protocol.PlayerArrive:
		p := v.player(e.Serial)
		p.Name, p.Seat, p.Sit = e.Name, e.Seat, e.Sit
	case *protocol.PlayerLeave:
		delete(v.players, e.Serial)
	case *protocol.PlayerChips:
		if p, ok := v.players[e.Serial]; ok {
			p.Money, p.Bet = e.Money, e.Bet
		}
	case *protocol.Sit:
		if p, ok := v.players[e.Serial]; ok {
			p.Sit = true
		}
	case *protocol.SitOut:
		if p, ok := v.players[e.Serial]; ok {
			p.Sit = false
		}
	case *protocol.Start:
		v.HandSerial = e.HandSerial
		v.Dealer = e.Dealer
		v.Board = nil
		v.Pot = 0
		v.Muckable = nil
		for _, p := range v.players {
			p.Bet, p.Cards = 0, nil
		}
	case *protocol.State:
		v.State = e.State
		for _, p := range v.players {
			p.Bet = 0
		}
	case *protocol.BoardCards:
		v.Board = slices.Clone(e.Cards)
	case *protocol.PlayerCards:
		if p, ok := v.players[e.Serial]; ok {
			p.Cards = slices.Clone(e.Cards)
		}
	case *protocol.Position:
		v.Position = e.Serial
	case *protocol.Blind:
		v.bet(e.Serial, e.Amount+e.Dead)
	case *protocol.Ante:
		v.bet(e.Serial, e.Amount)
	case *protocol.Call:
		v.bet(e.Serial, e.Amount)
	case *protocol.Raise:
		v.bet(e.Serial, e.Amount)
	case *protocol.Canceled:
		v.bet(e.Serial, -e.Amount)
	case *protocol.Win:
		for serial, money := range e.Money {
			if p, ok := v.players[serial]; ok {
				p.Money, p.Bet = money, 0
			}
		}
		v.Pot = 0
	case *protocol.MuckRequest:
		v.Muckable = slices.Clone(e.MuckableSerials)
	case *protocol.Chat:
		v.Chat = append(v.Chat, *e)
	case *protocol.Error:
		err := *e
		v.LastError = &err
	case *protocol.TableDestroy:
		v.Destroyed = true
	}
}

func (v *View) player(serial game.Serial) *Player {
	p, ok := v.players[serial]
	if !ok {
		p = &Player{Serial: serial}
		v.players[serial] = p
	}
	return p
}

func (v *View) bet(serial game.Serial, amount int64) {
	p, ok := v.players[serial]
	if !ok {
		return
	}
	p.Money -= amount
	p.Bet += amount
	v.Pot += amount
}

// Has reports whether serial is seated in the view.
func (v *View) Has(serial game.Serial) bool {
	_, ok := v.players[serial]
	return ok
}

// Player returns a copy of the seated player serial.
func (v *View) Player(serial game.Serial) (Player, bool) {
	p, ok := v.players[serial]
	if !ok {
		return Player{}, false
	}
	cp := *p
	cp.Cards = slices.Clone(p.Cards)
	return cp, true
}

// Serials returns the seated serials in ascending order.
func (v *View) Serials() []game.Serial {
	return slices.Sorted(maps.Keys(v.players))
}

// MoneyMap returns the stack of every seated player.
func (v *View) MoneyMap() map[game.Serial]int64 {
	out := make(map[game.Serial]int64, len(v.players))
	for serial, p := range v.players {
		out[serial] = p.Money
	}
	return out
}

// Players returns the seated players ordered by seat.
func (v *View) Players() []Player {
	out := make([]Player, 0, len(v.players))
	for _, serial := range v.Serials() {
		p, _ := v.Player(serial)
		out = append(out, p)
	}
	slices.SortStableFunc(out, func(a, b Player) int { return a.Seat - b.Seat })
	return out
}

// Snapshot returns the events that bring an empty view to the seating
// and stacks of v.
func (v *View) Snapshot() []protocol.Event {
	events := make([]protocol.Event, 0, 2*len(v.players))
	for _, p := range v.Players() {
		events = append(events,
			&protocol.PlayerArrive{GameID: v.GameID, Serial: p.Serial, Name: p.Name, Seat: p.Seat, Sit: p.Sit},
			&protocol.PlayerChips{GameID: v.GameID, Serial: p.Serial, Money: p.Money, Bet: p.Bet},
		)
	}
	return events
}

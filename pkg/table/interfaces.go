package table

import (
	"github.com/vctt94/pokertable/pkg/game"
	"github.com/vctt94/pokertable/pkg/protocol"
)

// Avatar is one connection of a player identity.
type Avatar interface {
	Serial() game.Serial
	// Send delivers an event to the connection. It must not block.
	Send(ev protocol.Event)
}

// HistoryLog is the engine's append-only hand history.
type HistoryLog interface {
	History() []game.Entry
	HistoryCanBeReduced() bool
	// HistoryReduce drops every entry already consumed by the table.
	HistoryReduce()
}

// Seating manages who sits where.
type Seating interface {
	// AddPlayer seats serial. A negative seat picks the first free one.
	AddPlayer(serial game.Serial, seat int) bool
	// RemovePlayer reports false when removal is delayed until the end
	// of the running hand.
	RemovePlayer(serial game.Serial) bool
	SeatOf(serial game.Serial) (int, bool)
	Serials() []game.Serial
	MaxPlayers() int
	Sit(serial game.Serial) bool
	SitOut(serial game.Serial) bool
	IsSit(serial game.Serial) bool
	SerialsSit() []game.Serial
	AutoBlindAnte(serial game.Serial, on bool)
	MissedRoundCount(serial game.Serial) int
}

// Bankroll manages the stacks.
type Bankroll interface {
	Money(serial game.Serial) int64
	MoneyMap() map[game.Serial]int64
	BuyInLimits() (min, best, max int64)
	IsBuyInPaid(serial game.Serial) bool
	PayBuyIn(serial game.Serial, amount int64) bool
	// Rebuy credits amount, deferring it to the end of a running hand.
	Rebuy(serial game.Serial, amount int64) bool
	// PendingMoney is the rebuy amount waiting for the running hand to
	// end.
	PendingMoney(serial game.Serial) int64
}

// Dealer runs hands.
type Dealer interface {
	State() game.State
	IsRunning() bool
	// IsOpen reports false once the game was closed to seat changes.
	IsOpen() bool
	SerialInPosition() game.Serial
	MuckableSerials() []game.Serial
	Muck(serial game.Serial, muck bool) bool
	Act(serial game.Serial, action game.Action, amount int64) error
	BeginTurn(handSerial int64) error
	Stats() game.Stats
}

// Engine is the rules engine a table drives.
type Engine interface {
	HistoryLog
	Seating
	Bankroll
	Dealer
}

// Tourney references the tournament a transient table belongs to.
type Tourney struct {
	Serial int64
	Name   string
}

// DatabaseEvent is a domain notification raised when a hand completes.
type DatabaseEvent struct {
	Kind       string
	TableID    int64
	HandSerial int64
	Transient  bool
	Tourney    int64
}

// Admission validates seating and money movements.
type Admission interface {
	SeatPlayer(serial game.Serial, tableID int64, minAmount int64) bool
	// BuyInPlayer returns the granted amount, 0 when refused.
	BuyInPlayer(serial game.Serial, tableID int64, currency int, amount int64) int64
	// RefundBuyIn gives back a granted amount the engine did not take.
	RefundBuyIn(serial game.Serial, tableID int64, amount int64) error
	LeavePlayer(serial game.Serial, tableID int64, currency int) bool
	// MovePlayer returns the money carried to toID, negative when refused.
	MovePlayer(serial game.Serial, fromID, toID int64) int64
}

// HandStore persists hand histories. LoadHand returns ErrHandNotFound
// for unknown hands.
type HandStore interface {
	CreateHand(tableID int64, tourney *Tourney) (int64, error)
	SaveHand(handSerial int64, hist []game.Entry) error
	LoadHand(handSerial int64) ([]game.Entry, error)
}

// Accounting receives the money side effects of finished hands.
type Accounting interface {
	UpdatePlayerMoney(serial game.Serial, tableID int64, delta int64) error
	UpdatePlayerRake(currency int, serial game.Serial, amount int64) error
	TourneyEndTurn(tourney *Tourney, tableID int64) error
	TourneyUpdateStats(tourney *Tourney, tableID int64) error
	DatabaseEvent(ev DatabaseEvent) error
}

type ChatArchive interface {
	ChatMessageArchive(serial game.Serial, tableID int64, message string) error
}

// JoinCounter bounds the number of identities joined to tables server
// wide. JoinedCounter implements it.
type JoinCounter interface {
	JoinedCountReachedMax() bool
	JoinedCountIncrease() int
	JoinedCountDecrease() int
}

type Lifecycle interface {
	ShuttingDown() bool
	Table(id int64) (*Table, bool)
	DespawnTable(id int64)
	DeleteTable(id int64)
	UpdateTableStats(tableID int64, observers, waiting int)
}

type Identities interface {
	IsTemporaryUser(serial game.Serial) bool
	PlayerName(serial game.Serial) string
}

// Service is everything a table asks of the server hosting it.
type Service interface {
	Admission
	HandStore
	Accounting
	ChatArchive
	JoinCounter
	Lifecycle
	Identities
}

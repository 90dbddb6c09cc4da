package game

import "time"

// Kind names a history entry.
type Kind string

const (
	KindWaitFor      Kind = "wait_for"
	KindPlayerList   Kind = "player_list"
	KindGame         Kind = "game"
	KindRound        Kind = "round"
	KindShowdown     Kind = "showdown"
	KindPosition     Kind = "position"
	KindBlindRequest Kind = "blind_request"
	KindWaitBlind    Kind = "wait_blind"
	KindBlind        Kind = "blind"
	KindAnteRequest  Kind = "ante_request"
	KindAnte         Kind = "ante"
	KindAllIn        Kind = "all-in"
	KindCall         Kind = "call"
	KindCheck        Kind = "check"
	KindFold         Kind = "fold"
	KindRaise        Kind = "raise"
	KindCanceled     Kind = "canceled"
	KindRake         Kind = "rake"
	KindEnd          Kind = "end"
	KindSitOut       Kind = "sitOut"
	KindSit          Kind = "sit"
	KindLeave        Kind = "leave"
	KindFinish       Kind = "finish"
	KindMuck         Kind = "muck"
	KindRebuy        Kind = "rebuy"
)

// Entry is one record of an engine's append-only hand history.
type Entry interface {
	Kind() Kind
}

// IsTerminal reports whether e closes a hand. Persistence and accounting
// happen only on terminal entries.
func IsTerminal(e Entry) bool {
	switch e.Kind() {
	case KindEnd, KindFinish:
		return true
	}
	return false
}

type WaitFor struct {
	Serial Serial
	Reason string
}

type PlayerList struct {
	Serials []Serial
}

// Game opens a hand.
type Game struct {
	Level            int
	HandSerial       int64
	HandsCount       int
	Time             time.Time
	Variant          string
	BettingStructure string
	Players          []Serial
	Seats            map[Serial]int
	Dealer           int
	Chips            map[Serial]int64
}

// Round starts a betting round. A compressed history marks a round
// whose board did not change with Unchanged and no Board.
type Round struct {
	Name      string
	Board     []Card
	Pockets   map[Serial][]Card
	Unchanged bool
}

type Showdown struct {
	Board   []Card
	Pockets map[Serial][]Card
}

type Position struct {
	Position int
	Serial   Serial
}

type BlindRequest struct {
	Serial Serial
	Amount int64
	Dead   int64
	State  string
}

type WaitBlind struct {
	Serial Serial
}

type Blind struct {
	Serial Serial
	Amount int64
	Dead   int64
}

type AnteRequest struct {
	Serial Serial
	Amount int64
}

type Ante struct {
	Serial Serial
	Amount int64
}

type AllIn struct {
	Serial Serial
}

type Call struct {
	Serial Serial
	Amount int64
}

type Check struct {
	Serial Serial
}

type Fold struct {
	Serial Serial
}

// Raise records the chips the player added to the pot.
type Raise struct {
	Serial Serial
	Amount int64
}

// Canceled returns an uncalled amount to its owner.
type Canceled struct {
	Serial Serial
	Amount int64
}

type Rake struct {
	Value       int64
	Serial2Rake map[Serial]int64
}

// End closes the betting of a hand. Shares are the amounts won, Money
// the stacks after distribution.
type End struct {
	Winners []Serial
	Shares  map[Serial]int64
	Money   map[Serial]int64
}

type SitOut struct {
	Serial Serial
}

type Sit struct {
	Serial Serial
}

type SeatLeave struct {
	Serial Serial
	Seat   int
}

type Leave struct {
	Seats []SeatLeave
}

// Finish marks the end of a hand and of its bookkeeping.
type Finish struct {
	HandSerial int64
}

type Muck struct {
	Serials []Serial
}

type Rebuy struct {
	Serial Serial
	Amount int64
}

func (WaitFor) Kind() Kind      { return KindWaitFor }
func (PlayerList) Kind() Kind   { return KindPlayerList }
func (Game) Kind() Kind         { return KindGame }
func (Round) Kind() Kind        { return KindRound }
func (Showdown) Kind() Kind     { return KindShowdown }
func (Position) Kind() Kind     { return KindPosition }
func (BlindRequest) Kind() Kind { return KindBlindRequest }
func (WaitBlind) Kind() Kind    { return KindWaitBlind }
func (Blind) Kind() Kind        { return KindBlind }
func (AnteRequest) Kind() Kind  { return KindAnteRequest }
func (Ante) Kind() Kind         { return KindAnte }
func (AllIn) Kind() Kind        { return KindAllIn }
func (Call) Kind() Kind         { return KindCall }
func (Check) Kind() Kind        { return KindCheck }
func (Fold) Kind() Kind         { return KindFold }
func (Raise) Kind() Kind        { return KindRaise }
func (Canceled) Kind() Kind     { return KindCanceled }
func (Rake) Kind() Kind         { return KindRake }
func (End) Kind() Kind          { return KindEnd }
func (SitOut) Kind() Kind       { return KindSitOut }
func (Sit) Kind() Kind          { return KindSit }
func (Leave) Kind() Kind        { return KindLeave }
func (Finish) Kind() Kind       { return KindFinish }
func (Muck) Kind() Kind         { return KindMuck }
func (Rebuy) Kind() Kind        { return KindRebuy }

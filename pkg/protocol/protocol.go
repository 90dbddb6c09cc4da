// Package protocol defines the typed events a table sends to its
// avatars. Encoding them on the wire is left to pkg/wire.
package protocol

import "github.com/vctt94/pokertable/pkg/game"

// Type names an event.
type Type string

const (
	TypeTable          Type = "TABLE"
	TypeJoin           Type = "JOIN"
	TypeSeat           Type = "SEAT"
	TypeBuyIn          Type = "BUY_IN"
	TypePlayerArrive   Type = "PLAYER_ARRIVE"
	TypePlayerLeave    Type = "PLAYER_LEAVE"
	TypeSeats          Type = "SEATS"
	TypePlayerChips    Type = "PLAYER_CHIPS"
	TypeSit            Type = "SIT"
	TypeSitOut         Type = "SIT_OUT"
	TypeAutoBlindAnte  Type = "AUTO_BLIND_ANTE"
	TypeStart          Type = "START"
	TypeState          Type = "STATE"
	TypeBoardCards     Type = "BOARD_CARDS"
	TypeBoardUnchanged Type = "BOARD_UNCHANGED"
	TypePlayerCards    Type = "PLAYER_CARDS"
	TypePosition       Type = "POSITION"
	TypeBlindRequest   Type = "BLIND_REQUEST"
	TypeBlind          Type = "BLIND"
	TypeAnteRequest    Type = "ANTE_REQUEST"
	TypeAnte           Type = "ANTE"
	TypeCall           Type = "CALL"
	TypeCheck          Type = "CHECK"
	TypeRaise          Type = "RAISE"
	TypeFold           Type = "FOLD"
	TypeAllIn          Type = "ALL_IN"
	TypeCanceled       Type = "CANCELED"
	TypeRake           Type = "RAKE"
	TypeRebuy          Type = "REBUY"
	TypeWin            Type = "WIN"
	TypeMuckRequest    Type = "MUCK_REQUEST"
	TypeMuckAccept     Type = "MUCK_ACCEPT"
	TypeMuckDeny       Type = "MUCK_DENY"
	TypeTimeoutWarning Type = "TIMEOUT_WARNING"
	TypeTimeoutNotice  Type = "TIMEOUT_NOTICE"
	TypeAutoFold       Type = "AUTO_FOLD"
	TypeTableDestroy   Type = "TABLE_DESTROY"
	TypeError          Type = "ERROR"
	TypeChat           Type = "CHAT"
	TypeMessage        Type = "MESSAGE"
)

// Code is the machine readable part of an ERROR event.
type Code string

const (
	CodeFull          Code = "FULL"
	CodeAlreadySeated Code = "ALREADY_SEATED"
	CodeNotJoined     Code = "NOT_JOINED"
	CodeGameClosed    Code = "GAME_CLOSED"
	CodeNotFound      Code = "NOT_FOUND"
	CodeRefused       Code = "REFUSED"
)

// Event is one outbound record.
type Event interface {
	Type() Type
}

// Table describes a table to a client that just joined and is also the
// summary snapshot of a table.
type Table struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Variant          string `json:"variant"`
	BettingStructure string `json:"betting_structure"`
	Seats            int    `json:"seats"`
	Players          int    `json:"players"`
	HandsPerHour     int    `json:"hands_per_hour"`
	AveragePot       int64  `json:"average_pot"`
	PercentFlop      int    `json:"percent_flop"`
	PlayerTimeout    int    `json:"player_timeout"`
	MuckTimeout      int    `json:"muck_timeout"`
	Observers        int    `json:"observers"`
	Waiting          int    `json:"waiting"`
	Currency         int    `json:"currency_serial"`
	TourneySerial    int64  `json:"tourney_serial"`
	Reason           string `json:"reason,omitempty"`
}

type PlayerArrive struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
	Name   string      `json:"name"`
	Seat   int         `json:"seat"`
	Sit    bool        `json:"sit"`
	Reason string      `json:"reason,omitempty"`
}

type PlayerLeave struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
	Seat   int         `json:"seat"`
}

// Seats lists the serial in each seat, 0 for an empty one.
type Seats struct {
	GameID int64         `json:"game_id"`
	Seats  []game.Serial `json:"seats"`
}

// PlayerChips carries the absolute stack of a player.
type PlayerChips struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
	Money  int64       `json:"money"`
	Bet    int64       `json:"bet"`
}

type Sit struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
}

type SitOut struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
}

type AutoBlindAnte struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
	On     bool        `json:"on"`
}

type Start struct {
	GameID     int64         `json:"game_id"`
	HandSerial int64         `json:"hand_serial"`
	Level      int           `json:"level"`
	HandsCount int           `json:"hands_count"`
	Time       int64         `json:"time"`
	Dealer     int           `json:"dealer"`
	Players    []game.Serial `json:"players"`
}

type State struct {
	GameID int64  `json:"game_id"`
	State  string `json:"state"`
}

type BoardCards struct {
	GameID int64       `json:"game_id"`
	Cards  []game.Card `json:"cards"`
}

// BoardUnchanged replaces a BoardCards event whose cards equal the
// previous round's board.
type BoardUnchanged struct {
	GameID int64 `json:"game_id"`
}

// PlayerCards carries a pocket. Unless Shown is set, only the owner
// receives the real cards; everyone else gets hidden placeholders.
type PlayerCards struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
	Cards  []game.Card `json:"cards"`
	Shown  bool        `json:"shown,omitempty"`
}

type Position struct {
	GameID   int64       `json:"game_id"`
	Serial   game.Serial `json:"serial"`
	Position int         `json:"position"`
}

type BlindRequest struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
	Amount int64       `json:"amount"`
	Dead   int64       `json:"dead"`
	State  string      `json:"state"`
}

type Blind struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
	Amount int64       `json:"amount"`
	Dead   int64       `json:"dead"`
}

type AnteRequest struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
	Amount int64       `json:"amount"`
}

type Ante struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
	Amount int64       `json:"amount"`
}

type Call struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
	Amount int64       `json:"amount"`
}

type Check struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
}

type Raise struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
	Amount int64       `json:"amount"`
}

type Fold struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
}

type AllIn struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
}

type Canceled struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
	Amount int64       `json:"amount"`
}

type Rake struct {
	GameID int64                 `json:"game_id"`
	Value  int64                 `json:"value"`
	Rakes  map[game.Serial]int64 `json:"rakes"`
}

type Rebuy struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
	Amount int64       `json:"amount"`
}

// Win reports the winners of a hand and the stacks after distribution.
type Win struct {
	GameID  int64                 `json:"game_id"`
	Serials []game.Serial         `json:"serials"`
	Shares  map[game.Serial]int64 `json:"shares"`
	Money   map[game.Serial]int64 `json:"money"`
}

type MuckRequest struct {
	GameID          int64         `json:"game_id"`
	MuckableSerials []game.Serial `json:"muckable_serials"`
}

type MuckAccept struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
}

type MuckDeny struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
}

type TimeoutWarning struct {
	GameID  int64       `json:"game_id"`
	Serial  game.Serial `json:"serial"`
	Timeout int         `json:"timeout"`
	When    int64       `json:"when"`
}

type TimeoutNotice struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
}

type AutoFold struct {
	GameID int64       `json:"game_id"`
	Serial game.Serial `json:"serial"`
}

type TableDestroy struct {
	GameID  int64  `json:"game_id"`
	Message string `json:"message"`
}

// Error reports a refused request. OtherType is the type of the request
// it answers.
type Error struct {
	GameID    int64       `json:"game_id"`
	Serial    game.Serial `json:"serial"`
	Code      Code        `json:"code"`
	OtherType Type        `json:"other_type"`
	Message   string      `json:"message"`
}

type Chat struct {
	GameID  int64       `json:"game_id"`
	Serial  game.Serial `json:"serial"`
	Message string      `json:"message"`
}

type Message struct {
	GameID  int64  `json:"game_id"`
	Message string `json:"message"`
}

func (*Table) Type() Type          { return TypeTable }
func (*PlayerArrive) Type() Type   { return TypePlayerArrive }
func (*PlayerLeave) Type() Type    { return TypePlayerLeave }
func (*Seats) Type() Type          { return TypeSeats }
func (*PlayerChips) Type() Type    { return TypePlayerChips }
func (*Sit) Type() Type            { return TypeSit }
func (*SitOut) Type() Type         { return TypeSitOut }
func (*AutoBlindAnte) Type() Type  { return TypeAutoBlindAnte }
func (*Start) Type() Type          { return TypeStart }
func (*State) Type() Type          { return TypeState }
func (*BoardCards) Type() Type     { return TypeBoardCards }
func (*BoardUnchanged) Type() Type { return TypeBoardUnchanged }
func (*PlayerCards) Type() Type    { return TypePlayerCards }
func (*Position) Type() Type       { return TypePosition }
func (*BlindRequest) Type() Type   { return TypeBlindRequest }
func (*Blind) Type() Type          { return TypeBlind }
func (*AnteRequest) Type() Type    { return TypeAnteRequest }
func (*Ante) Type() Type           { return TypeAnte }
func (*Call) Type() Type           { return TypeCall }
func (*Check) Type() Type          { return TypeCheck }
func (*Raise) Type() Type          { return TypeRaise }
func (*Fold) Type() Type           { return TypeFold }
func (*AllIn) Type() Type          { return TypeAllIn }
func (*Canceled) Type() Type       { return TypeCanceled }
func (*Rake) Type() Type           { return TypeRake }
func (*Rebuy) Type() Type          { return TypeRebuy }
func (*Win) Type() Type            { return TypeWin }
func (*MuckRequest) Type() Type    { return TypeMuckRequest }
func (*MuckAccept) Type() Type     { return TypeMuckAccept }
func (*MuckDeny) Type() Type       { return TypeMuckDeny }
func (*TimeoutWarning) Type() Type { return TypeTimeoutWarning }
func (*TimeoutNotice) Type() Type  { return TypeTimeoutNotice }
func (*AutoFold) Type() Type       { return TypeAutoFold }
func (*TableDestroy) Type() Type   { return TypeTableDestroy }
func (*Error) Type() Type          { return TypeError }
func (*Chat) Type() Type           { return TypeChat }
func (*Message) Type() Type        { return TypeMessage }

var constructors = map[Type]func() Event{
	TypeTable:          func() Event { return new(Table) },
	TypePlayerArrive:   func() Event { return new(PlayerArrive) },
	TypePlayerLeave:    func() Event { return new(PlayerLeave) },
	TypeSeats:          func() Event { return new(Seats) },
	TypePlayerChips:    func() Event { return new(PlayerChips) },
	TypeSit:            func() Event { return new(Sit) },
	TypeSitOut:         func() Event { return new(SitOut) },
	TypeAutoBlindAnte:  func() Event { return new(AutoBlindAnte) },
	TypeStart:          func() Event { return new(Start) },
	TypeState:          func() Event { return new(State) },
	TypeBoardCards:     func() Event { return new(BoardCards) },
	TypeBoardUnchanged: func() Event { return new(BoardUnchanged) },
	TypePlayerCards:    func() Event { return new(PlayerCards) },
	TypePosition:       func() Event { return new(Position) },
	TypeBlindRequest:   func() Event { return new(BlindRequest) },
	TypeBlind:          func() Event { return new(Blind) },
	TypeAnteRequest:    func() Event { return new(AnteRequest) },
	TypeAnte:           func() Event { return new(Ante) },
	TypeCall:           func() Event { return new(Call) },
	TypeCheck:          func() Event { return new(Check) },
	TypeRaise:          func() Event { return new(Raise) },
	TypeFold:           func() Event { return new(Fold) },
	TypeAllIn:          func() Event { return new(AllIn) },
	TypeCanceled:       func() Event { return new(Canceled) },
	TypeRake:           func() Event { return new(Rake) },
	TypeRebuy:          func() Event { return new(Rebuy) },
	TypeWin:            func() Event { return new(Win) },
	TypeMuckRequest:    func() Event { return new(MuckRequest) },
	TypeMuckAccept:     func() Event { return new(MuckAccept) },
	TypeMuckDeny:       func() Event { return new(MuckDeny) },
	TypeTimeoutWarning: func() Event { return new(TimeoutWarning) },
	TypeTimeoutNotice:  func() Event { return new(TimeoutNotice) },
	TypeAutoFold:       func() Event { return new(AutoFold) },
	TypeTableDestroy:   func() Event { return new(TableDestroy) },
	TypeError:          func() Event { return new(Error) },
	TypeChat:           func() Event { return new(Chat) },
	TypeMessage:        func() Event { return new(Message) },
}

// New returns a zero event of type t.
func New(t Type) (Event, bool) {
	ctor, ok := constructors[t]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

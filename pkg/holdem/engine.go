// Package holdem is a no-limit Texas hold'em engine. It records every
// hand as a game history log and exposes the capabilities a table
// controller drives.
//
// An Engine is not safe for concurrent use; it belongs to the goroutine
// of its table.
package holdem

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/decred/slog"

	"github.com/vctt94/pokertable/pkg/clock"
	"github.com/vctt94/pokertable/pkg/game"
	"github.com/vctt94/pokertable/pkg/statemachine"
)

var (
	ErrHandRunning        = errors.New("a hand is already running")
	ErrNotEnoughPlayers   = errors.New("not enough players to deal")
	ErrNotRunning         = errors.New("no hand is running")
	ErrNotInPosition      = errors.New("not in position")
	ErrInvalidAction      = errors.New("invalid action")
	ErrInsufficientChips  = errors.New("insufficient chips")
	ErrBelowMinimumRaise  = errors.New("raise below the minimum")
	ErrDeckExhausted      = errors.New("deck exhausted")
)

// Config configures an Engine.
type Config struct {
	MaxPlayers       int
	SmallBlind       int64
	BigBlind         int64
	BuyInMin         int64
	BuyInBest        int64
	BuyInMax         int64
	Variant          string
	BettingStructure string
	// RakePercent of pots that saw a flop is kept by the house, up to
	// RakeCap when it is positive.
	RakePercent int64
	RakeCap     int64
	// Seed makes shuffles reproducible when non zero.
	Seed int64
	// Stack, when set, is dealt in order at every hand instead of a
	// shuffled deck.
	Stack []game.Card
	Clock clock.Clock
	Log   slog.Logger
}

type player struct {
	serial  game.Serial
	seat    int
	money   int64
	sit     bool
	paid    bool
	autoBA  bool
	missed  int
	pending int64
	leaving bool
}

type blindRequest struct {
	serial game.Serial
	amount int64
	state  string
}

// hand is the state of the running hand.
type hand struct {
	serial  int64
	order   []game.Serial // seat order, first is left of the dealer
	dealer  int
	deck    *Deck
	pockets map[game.Serial][]game.Card
	board   []game.Card
	pots    *potManager
	bets    map[game.Serial]int64
	folded  map[game.Serial]bool
	allIn   map[game.Serial]bool
	acted   map[game.Serial]bool

	currentBet int64
	minRaise   int64
	position   int
	blinds     []blindRequest
	streets    *statemachine.StateMachine[Engine]
	sawFlop    bool

	values   map[game.Serial]HandValue
	muckable []game.Serial
	shown    []game.Serial
}

// Engine is one table's game.
type Engine struct {
	cfg     Config
	log     slog.Logger
	clock   clock.Clock
	rng     *rand.Rand
	history []game.Entry

	players map[game.Serial]*player
	state   game.State
	closed  bool
	hand    *hand
	dealer  int // seat of the last button

	handsCount int
	flopCount  int
	potTotal   int64
	firstHand  int64 // unix seconds of the first hand
}

// New creates an engine with no players.
func New(cfg Config) *Engine {
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = 10
	}
	if cfg.BigBlind <= 0 {
		cfg.BigBlind = 20
	}
	if cfg.SmallBlind <= 0 {
		cfg.SmallBlind = cfg.BigBlind / 2
	}
	if cfg.BuyInMin <= 0 {
		cfg.BuyInMin = 20 * cfg.BigBlind
	}
	if cfg.BuyInMax <= 0 {
		cfg.BuyInMax = 100 * cfg.BigBlind
	}
	if cfg.BuyInBest <= 0 {
		cfg.BuyInBest = (cfg.BuyInMin + cfg.BuyInMax) / 2
	}
	if cfg.Variant == "" {
		cfg.Variant = "holdem"
	}
	if cfg.BettingStructure == "" {
		cfg.BettingStructure = fmt.Sprintf("%d-%d-no-limit", cfg.SmallBlind, cfg.BigBlind)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Log == nil {
		cfg.Log = slog.Disabled
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = cfg.Clock.Now().UnixNano()
	}
	return &Engine{
		cfg:     cfg,
		log:     cfg.Log,
		clock:   cfg.Clock,
		rng:     rand.New(rand.NewSource(seed)),
		players: make(map[game.Serial]*player),
		state:   game.StateNull,
		dealer:  -1,
	}
}

func (e *Engine) add(entries ...game.Entry) {
	e.history = append(e.history, entries...)
}

func (e *Engine) History() []game.Entry { return e.history }

// HistoryCanBeReduced reports whether no hand is in progress.
func (e *Engine) HistoryCanBeReduced() bool { return e.state.IsEndOrNull() }

func (e *Engine) HistoryReduce() {
	e.history = nil
}

// Close stops seat changes: players can no longer take or leave seats.
func (e *Engine) Close() { e.closed = true }

// Open reverts Close.
func (e *Engine) Open() { e.closed = false }

func (e *Engine) IsOpen() bool { return !e.closed }

func (e *Engine) State() game.State { return e.state }

func (e *Engine) IsRunning() bool { return e.state.IsRunning() }

// inHand reports whether serial was dealt into the running hand.
func (e *Engine) inHand(serial game.Serial) bool {
	return e.hand != nil && e.state != game.StateEnd && slices.Contains(e.hand.order, serial)
}

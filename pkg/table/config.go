package table

import (
	"regexp"
	"time"

	"github.com/decred/slog"

	"github.com/vctt94/pokertable/pkg/clock"
)

// TopUp selects the stack an automatic rebuy or refill aims for.
type TopUp int

const (
	TopUpOff TopUp = iota
	TopUpMin
	TopUpBest
	TopUpMax
)

func (t TopUp) String() string {
	switch t {
	case TopUpMin:
		return "min"
	case TopUpBest:
		return "best"
	case TopUpMax:
		return "max"
	}
	return "off"
}

// RefillPolicy decides when auto refills are requested.
type RefillPolicy int

const (
	// RefillBetweenHands tops up only at the end of a hand.
	RefillBetweenHands RefillPolicy = iota
	// RefillMidHand tops up as soon as a stack drops under its target;
	// the engine credits the chips when the hand ends.
	RefillMidHand
)

func (p RefillPolicy) String() string {
	if p == RefillMidHand {
		return "mid-hand"
	}
	return "between-hands"
}

// Settings are the server wide defaults shared by every table.
type Settings struct {
	Autodeal          bool
	AutodealTemporary bool
	// AutodealDelay is the pause between two hands.
	AutodealDelay time.Duration
	// AutodealTransientMin is the minimum duration of a hand on a
	// transient table.
	AutodealTransientMin time.Duration
	// AutodealMax caps any autodeal delay when positive.
	AutodealMax      time.Duration
	MaxMissedRounds  int
	ChatFilter       *regexp.Regexp
	WatchdogInterval time.Duration
	RefillPolicy     RefillPolicy
}

// Config describes one table.
type Config struct {
	ID               int64
	Name             string
	Variant          string
	BettingStructure string
	Seats            int
	PlayerTimeout    time.Duration
	MuckTimeout      time.Duration
	// MaxMissedRounds overrides Settings.MaxMissedRounds when positive.
	MaxMissedRounds int
	Transient       bool
	Tourney         *Tourney
	Currency        int

	Settings   Settings
	Engine     Engine
	Service    Service
	Translator Translator
	Clock      clock.Clock
	// Post runs timer callbacks on the goroutine owning the table. Nil
	// runs them on the clock's goroutine.
	Post func(func())
	Log  slog.Logger
}

const (
	defaultPlayerTimeout    = 60 * time.Second
	defaultMuckTimeout      = 5 * time.Second
	defaultWatchdogInterval = 5 * time.Minute
	defaultMaxMissedRounds  = 5
)

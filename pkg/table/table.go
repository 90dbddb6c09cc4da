// Package table is the per-table session controller: it tracks the
// avatars attached to a table, runs its timers and autodeal policy,
// and turns the engine's hand history into protocol events.
//
// A Table is not safe for concurrent use. Every call, including timer
// callbacks, must happen on the goroutine that owns it.
package table

import (
	"fmt"
	"slices"
	"time"

	"github.com/decred/slog"

	"github.com/vctt94/pokertable/pkg/clock"
	"github.com/vctt94/pokertable/pkg/game"
	"github.com/vctt94/pokertable/pkg/protocol"
	"github.com/vctt94/pokertable/pkg/replica"
)

// Table is one playable table bound to one engine.
type Table struct {
	cfg        Config
	settings   Settings
	engine     Engine
	svc        Service
	translator Translator
	clock      clock.Clock
	log        slog.Logger

	registry *SeatRegistry
	timers   *TimerService
	members  map[game.Serial]*member
	counted  map[game.Serial]bool

	historyIndex int
	translation  Translation
	announced    *replica.View
	updating     bool
	destroyed    bool

	ledger        map[game.Serial]int64
	rake          map[game.Serial]int64
	handSerial    int64
	settling      bool
	finishStep    int
	handStartedAt time.Time
	boundary      uint64
	topUps        map[game.Serial]uint64
	timedSerial   game.Serial

	watchIndex   int
	watchPending bool
}

type member struct {
	autoBlindAnte bool
	autoRebuy     TopUp
	autoRefill    TopUp
}

// Status is the relation of an identity to a table.
type Status int

const (
	StatusObserver Status = iota
	StatusSeatedPendingBuyIn
	StatusPlaying
	StatusSittingOut
)

func (s Status) String() string {
	switch s {
	case StatusSeatedPendingBuyIn:
		return "SEATED_PENDING_BUYIN"
	case StatusPlaying:
		return "PLAYING"
	case StatusSittingOut:
		return "SITTING_OUT"
	}
	return "OBSERVER"
}

// Membership is a snapshot of one identity at a table.
type Membership struct {
	Serial        game.Serial
	Status        Status
	Money         int64
	AutoBlindAnte bool
	AutoRebuy     TopUp
	AutoRefill    TopUp
	MissedRounds  int
}

// New creates a table and starts its watchdog.
func New(cfg Config) (*Table, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("table %d: engine is required", cfg.ID)
	}
	if cfg.Service == nil {
		return nil, fmt.Errorf("table %d: service is required", cfg.ID)
	}
	if cfg.Log == nil {
		cfg.Log = slog.Disabled
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Translator == nil {
		cfg.Translator = HistoryTranslator{}
	}
	if cfg.PlayerTimeout <= 0 {
		cfg.PlayerTimeout = defaultPlayerTimeout
	}
	if cfg.MuckTimeout <= 0 {
		cfg.MuckTimeout = defaultMuckTimeout
	}
	if cfg.Seats <= 0 {
		cfg.Seats = cfg.Engine.MaxPlayers()
	}
	settings := cfg.Settings
	if settings.WatchdogInterval <= 0 {
		settings.WatchdogInterval = defaultWatchdogInterval
	}
	if settings.MaxMissedRounds <= 0 {
		settings.MaxMissedRounds = defaultMaxMissedRounds
	}

	t := &Table{
		cfg:         cfg,
		settings:    settings,
		engine:      cfg.Engine,
		svc:         cfg.Service,
		translator:  cfg.Translator,
		clock:       cfg.Clock,
		log:         cfg.Log,
		registry:    NewSeatRegistry(),
		timers:      NewTimerService(cfg.Clock, cfg.Post, cfg.Log),
		members:     make(map[game.Serial]*member),
		counted:     make(map[game.Serial]bool),
		translation: Translation{GameID: cfg.ID},
		announced:   replica.New(cfg.ID),
		ledger:      make(map[game.Serial]int64),
		rake:        make(map[game.Serial]int64),
		topUps:      make(map[game.Serial]uint64),
	}
	t.timers.StartWatchdog(settings.WatchdogInterval, t.watchdog)
	t.log.Debugf("Table %d (%s) created with %d seats", cfg.ID, cfg.Name, cfg.Seats)
	return t, nil
}

func (t *Table) ID() int64 { return t.cfg.ID }
func (t *Table) Name() string { return t.cfg.Name }
func (t *Table) Transient() bool { return t.cfg.Transient }
func (t *Table) Destroyed() bool { return t.destroyed }
func (t *Table) Timers() *TimerService { return t.timers }
func (t *Table) Registry() *SeatRegistry { return t.registry }
func (t *Table) HistoryIndex() int { return t.historyIndex }

// Announced returns the view every client was brought to.
func (t *Table) Announced() *replica.View { return t.announced }

func (t *Table) maxMissedRounds() int {
	if t.cfg.MaxMissedRounds > 0 {
		return t.cfg.MaxMissedRounds
	}
	return t.settings.MaxMissedRounds
}

func (t *Table) isSeated(serial game.Serial) bool {
	_, ok := t.engine.SeatOf(serial)
	return ok
}

// IsJoined reports whether a is attached to the table.
func (t *Table) IsJoined(a Avatar) bool {
	return t.registry.Has(a)
}

// IsObserver reports whether serial is attached without a seat.
func (t *Table) IsObserver(serial game.Serial) bool {
	return t.registry.HasSerial(serial) && !t.isSeated(serial)
}

// Membership returns the relation of serial to the table.
func (t *Table) Membership(serial game.Serial) (Membership, bool) {
	m, ok := t.members[serial]
	seated := t.isSeated(serial)
	if !ok && !seated {
		return Membership{}, false
	}
	out := Membership{Serial: serial, Status: StatusObserver}
	if m != nil {
		out.AutoBlindAnte = m.autoBlindAnte
		out.AutoRebuy = m.autoRebuy
		out.AutoRefill = m.autoRefill
	}
	if seated {
		out.Money = t.engine.Money(serial)
		out.MissedRounds = t.engine.MissedRoundCount(serial)
		switch {
		case !t.engine.IsBuyInPaid(serial):
			out.Status = StatusSeatedPendingBuyIn
		case t.engine.IsSit(serial):
			out.Status = StatusPlaying
		default:
			out.Status = StatusSittingOut
		}
	}
	return out, true
}

func (t *Table) member(serial game.Serial) *member {
	m, ok := t.members[serial]
	if !ok {
		m = &member{}
		t.members[serial] = m
	}
	return m
}

// mask returns the version of ev that receiver may see. Pockets that
// are not shown are hidden from everyone but their owner.
func mask(ev protocol.Event, receiver game.Serial) protocol.Event {
	pc, ok := ev.(*protocol.PlayerCards)
	if !ok || pc.Shown || pc.Serial == receiver {
		return ev
	}
	hidden := *pc
	hidden.Cards = game.Hidden(pc.Cards)
	return &hidden
}

// broadcast sends events to every avatar and folds them into the
// announced view.
func (t *Table) broadcast(events ...protocol.Event) {
	for _, ev := range events {
		t.announced.Apply(mask(ev, 0))
		for _, a := range t.registry.All() {
			a.Send(mask(ev, a.Serial()))
		}
	}
}

func (t *Table) sendTo(serial game.Serial, events ...protocol.Event) {
	for _, a := range t.registry.Get(serial) {
		for _, ev := range events {
			a.Send(ev)
		}
	}
}

func (t *Table) sendError(a Avatar, code protocol.Code, other protocol.Type, msg string) {
	ev := &protocol.Error{
		GameID:    t.cfg.ID,
		Serial:    a.Serial(),
		Code:      code,
		OtherType: other,
		Message:   msg,
	}
	t.log.Infof("sendPacket: error to %d code %s other_type %s: %s", a.Serial(), code, other, msg)
	a.Send(ev)
}

// Summary describes the table.
func (t *Table) Summary() protocol.Table {
	stats := t.engine.Stats()
	var tourney int64
	if t.cfg.Tourney != nil {
		tourney = t.cfg.Tourney.Serial
	}
	return protocol.Table{
		ID:               t.cfg.ID,
		Name:             t.cfg.Name,
		Variant:          t.cfg.Variant,
		BettingStructure: t.cfg.BettingStructure,
		Seats:            t.engine.MaxPlayers(),
		Players:          len(t.engine.Serials()),
		HandsPerHour:     stats.HandsPerHour,
		AveragePot:       stats.AveragePot,
		PercentFlop:      stats.PercentFlop,
		PlayerTimeout:    int(t.cfg.PlayerTimeout / time.Second),
		MuckTimeout:      int(t.cfg.MuckTimeout / time.Second),
		Observers:        t.observerCount(),
		Waiting:          t.waitingCount(),
		Currency:         t.cfg.Currency,
		TourneySerial:    tourney,
	}
}

func (t *Table) observerCount() int {
	n := 0
	for _, serial := range t.registry.Serials() {
		if !t.isSeated(serial) {
			n++
		}
	}
	return n
}

func (t *Table) waitingCount() int {
	n := 0
	for _, serial := range t.engine.Serials() {
		if !t.engine.IsBuyInPaid(serial) {
			n++
		}
	}
	return n
}

func (t *Table) updateTableStats() {
	t.svc.UpdateTableStats(t.cfg.ID, t.observerCount(), t.waitingCount())
}

// PlayerListing is one line of ListPlayers.
type PlayerListing struct {
	Serial game.Serial
	Name   string
	Money  int64
	Sit    bool
}

// ListPlayers returns the seated players in seat order.
func (t *Table) ListPlayers() []PlayerListing {
	serials := t.engine.Serials()
	slices.SortFunc(serials, func(a, b game.Serial) int {
		sa, _ := t.engine.SeatOf(a)
		sb, _ := t.engine.SeatOf(b)
		return sa - sb
	})
	out := make([]PlayerListing, 0, len(serials))
	for _, serial := range serials {
		out = append(out, PlayerListing{
			Serial: serial,
			Name:   t.svc.PlayerName(serial),
			Money:  t.engine.Money(serial),
			Sit:    t.engine.IsSit(serial),
		})
	}
	return out
}

// BroadcastMessage sends a text message to everyone at the table. It
// reports false when nobody is listening.
func (t *Table) BroadcastMessage(msg string) bool {
	if t.registry.IsEmpty() {
		return false
	}
	t.broadcast(&protocol.Message{GameID: t.cfg.ID, Message: msg})
	return true
}

// watchdog warns when history stayed untranslated for a whole interval.
func (t *Table) watchdog() {
	pending := len(t.engine.History()) - t.historyIndex
	if pending <= 0 {
		t.watchPending = false
		return
	}
	if t.watchPending && t.watchIndex == t.historyIndex {
		t.log.Warnf("Table %d: %d history entries pending since last check (index %d)",
			t.cfg.ID, pending, t.historyIndex)
	}
	t.watchPending, t.watchIndex = true, t.historyIndex
}

// Destroy tears the table down. Every timer is canceled, the watchdog
// stops and later updates are rejected.
func (t *Table) Destroy() {
	if t.destroyed {
		return
	}
	t.log.Infof("Destroying table %d", t.cfg.ID)
	t.broadcast(&protocol.TableDestroy{GameID: t.cfg.ID, Message: "table destroyed"})
	t.timers.Close()
	for _, serial := range t.registry.Serials() {
		for _, a := range t.registry.Get(serial) {
			t.registry.Remove(a)
		}
	}
	for serial := range t.counted {
		t.releaseJoin(serial)
	}
	t.destroyed = true
	t.svc.DespawnTable(t.cfg.ID)
	if t.cfg.Transient {
		t.svc.DeleteTable(t.cfg.ID)
	}
}

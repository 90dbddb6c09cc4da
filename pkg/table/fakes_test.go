package table

import (
	"bytes"
	"errors"
	"maps"
	"slices"
	"testing"
	"time"

	"github.com/decred/slog"
	"github.com/stretchr/testify/require"

	"github.com/vctt94/pokertable/pkg/clock"
	"github.com/vctt94/pokertable/pkg/game"
	"github.com/vctt94/pokertable/pkg/protocol"
	"github.com/vctt94/pokertable/pkg/replica"
)

// fakeEngine is a scriptable Engine. Tests append history directly and
// flip its fields to put the table in the situation they need.
type fakeEngine struct {
	history     []game.Entry
	reducible   bool
	reduceCalls int

	maxPlayers int
	seats      map[game.Serial]int
	sit        map[game.Serial]bool
	money      map[game.Serial]int64
	paid       map[game.Serial]bool
	missed     map[game.Serial]int
	autoBA     map[game.Serial]bool
	pending    map[game.Serial]int64
	leaving    map[game.Serial]bool

	min, best, max int64
	refuseRebuy    bool
	refuseBuyIn    bool

	state      game.State
	closed     bool
	inPosition game.Serial
	muckable   []game.Serial
	mucked     map[game.Serial]bool

	acts       []game.Action
	beginTurns []int64
	stats      game.Stats
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		maxPlayers: 10,
		seats:      make(map[game.Serial]int),
		sit:        make(map[game.Serial]bool),
		money:      make(map[game.Serial]int64),
		paid:       make(map[game.Serial]bool),
		missed:     make(map[game.Serial]int),
		autoBA:     make(map[game.Serial]bool),
		pending:    make(map[game.Serial]int64),
		leaving:    make(map[game.Serial]bool),
		mucked:     make(map[game.Serial]bool),
		min:        100,
		best:       500,
		max:        1000,
		state:      game.StateNull,
	}
}

func (e *fakeEngine) add(entries ...game.Entry) { e.history = append(e.history, entries...) }

func (e *fakeEngine) History() []game.Entry     { return e.history }
func (e *fakeEngine) HistoryCanBeReduced() bool { return e.reducible }
func (e *fakeEngine) HistoryReduce() {
	e.reduceCalls++
	e.history = nil
}

func (e *fakeEngine) AddPlayer(serial game.Serial, seat int) bool {
	if _, ok := e.seats[serial]; ok {
		return false
	}
	taken := make(map[int]bool)
	for _, s := range e.seats {
		taken[s] = true
	}
	if seat < 0 {
		for i := 0; i < e.maxPlayers; i++ {
			if !taken[i] {
				seat = i
				break
			}
		}
	}
	if seat < 0 || seat >= e.maxPlayers || taken[seat] {
		return false
	}
	e.seats[serial] = seat
	return true
}

func (e *fakeEngine) RemovePlayer(serial game.Serial) bool {
	if e.state.IsRunning() {
		e.leaving[serial] = true
		return false
	}
	e.drop(serial)
	return true
}

func (e *fakeEngine) drop(serial game.Serial) {
	delete(e.seats, serial)
	delete(e.sit, serial)
	delete(e.money, serial)
	delete(e.paid, serial)
	delete(e.missed, serial)
	delete(e.leaving, serial)
}

func (e *fakeEngine) SeatOf(serial game.Serial) (int, bool) {
	seat, ok := e.seats[serial]
	return seat, ok
}

func (e *fakeEngine) Serials() []game.Serial { return slices.Sorted(maps.Keys(e.seats)) }
func (e *fakeEngine) MaxPlayers() int        { return e.maxPlayers }

func (e *fakeEngine) Sit(serial game.Serial) bool {
	if _, ok := e.seats[serial]; !ok || !e.paid[serial] {
		return false
	}
	e.sit[serial] = true
	e.missed[serial] = 0
	e.add(game.Sit{Serial: serial})
	return true
}

func (e *fakeEngine) SitOut(serial game.Serial) bool {
	if _, ok := e.seats[serial]; !ok {
		return false
	}
	e.sit[serial] = false
	e.add(game.SitOut{Serial: serial})
	return true
}

func (e *fakeEngine) IsSit(serial game.Serial) bool { return e.sit[serial] }

func (e *fakeEngine) SerialsSit() []game.Serial {
	var out []game.Serial
	for _, serial := range e.Serials() {
		if e.sit[serial] {
			out = append(out, serial)
		}
	}
	return out
}

func (e *fakeEngine) AutoBlindAnte(serial game.Serial, on bool) { e.autoBA[serial] = on }
func (e *fakeEngine) MissedRoundCount(serial game.Serial) int   { return e.missed[serial] }

func (e *fakeEngine) Money(serial game.Serial) int64 { return e.money[serial] }

func (e *fakeEngine) MoneyMap() map[game.Serial]int64 {
	out := make(map[game.Serial]int64, len(e.seats))
	for serial := range e.seats {
		out[serial] = e.money[serial]
	}
	return out
}

func (e *fakeEngine) BuyInLimits() (int64, int64, int64) { return e.min, e.best, e.max }
func (e *fakeEngine) IsBuyInPaid(serial game.Serial) bool { return e.paid[serial] }

func (e *fakeEngine) PayBuyIn(serial game.Serial, amount int64) bool {
	if _, ok := e.seats[serial]; !ok || e.refuseBuyIn || amount > e.max {
		return false
	}
	e.paid[serial] = true
	e.money[serial] = amount
	return true
}

func (e *fakeEngine) Rebuy(serial game.Serial, amount int64) bool {
	if e.refuseRebuy {
		return false
	}
	if e.state.IsRunning() {
		e.pending[serial] += amount
		return true
	}
	e.money[serial] += amount
	e.add(game.Rebuy{Serial: serial, Amount: amount})
	return true
}

func (e *fakeEngine) PendingMoney(serial game.Serial) int64 { return e.pending[serial] }

func (e *fakeEngine) State() game.State { return e.state }
func (e *fakeEngine) IsRunning() bool   { return e.state.IsRunning() }
func (e *fakeEngine) IsOpen() bool      { return !e.closed }

func (e *fakeEngine) SerialInPosition() game.Serial  { return e.inPosition }
func (e *fakeEngine) MuckableSerials() []game.Serial { return slices.Clone(e.muckable) }

func (e *fakeEngine) Muck(serial game.Serial, muck bool) bool {
	if !slices.Contains(e.muckable, serial) {
		return false
	}
	e.mucked[serial] = muck
	e.muckable = slices.DeleteFunc(e.muckable, func(s game.Serial) bool { return s == serial })
	if len(e.muckable) == 0 {
		e.state = game.StateEnd
	}
	return true
}

var errNotYourTurn = errors.New("not your turn")

func (e *fakeEngine) Act(serial game.Serial, action game.Action, amount int64) error {
	if !e.state.IsRunning() || serial != e.inPosition {
		return errNotYourTurn
	}
	e.acts = append(e.acts, action)
	switch action {
	case game.ActionFold:
		e.add(game.Fold{Serial: serial})
	case game.ActionCheck:
		e.add(game.Check{Serial: serial})
	case game.ActionCall:
		e.money[serial] -= amount
		e.add(game.Call{Serial: serial, Amount: amount})
	case game.ActionRaise:
		e.money[serial] -= amount
		e.add(game.Raise{Serial: serial, Amount: amount})
	}
	return nil
}

func (e *fakeEngine) BeginTurn(handSerial int64) error {
	e.beginTurns = append(e.beginTurns, handSerial)
	for serial := range e.seats {
		if !e.sit[serial] {
			e.missed[serial]++
		}
	}
	e.state = game.StatePreFlop
	players := e.SerialsSit()
	seats := make(map[game.Serial]int, len(players))
	for _, serial := range players {
		seats[serial] = e.seats[serial]
	}
	e.add(game.Game{HandSerial: handSerial, Players: players, Seats: seats, Chips: e.MoneyMap()})
	if len(players) > 0 {
		e.inPosition = players[0]
	}
	return nil
}

// finishHand ends the running hand: winner takes pot, pending rebuys
// are credited and the hand closes with End and Finish.
func (e *fakeEngine) finishHand(handSerial int64, winner game.Serial, pot int64) {
	e.money[winner] += pot
	e.add(game.End{
		Winners: []game.Serial{winner},
		Shares:  map[game.Serial]int64{winner: pot},
		Money:   e.MoneyMap(),
	})
	for _, serial := range slices.Sorted(maps.Keys(e.pending)) {
		e.money[serial] += e.pending[serial]
		e.add(game.Rebuy{Serial: serial, Amount: e.pending[serial]})
	}
	clear(e.pending)
	var leave game.Leave
	for _, serial := range slices.Sorted(maps.Keys(e.leaving)) {
		leave.Seats = append(leave.Seats, game.SeatLeave{Serial: serial, Seat: e.seats[serial]})
		e.drop(serial)
	}
	if len(leave.Seats) > 0 {
		e.add(leave)
	}
	e.add(game.Finish{HandSerial: handSerial})
	e.state = game.StateEnd
	e.inPosition = 0
}

func (e *fakeEngine) Stats() game.Stats { return e.stats }

type moneyCall struct {
	serial  game.Serial
	tableID int64
	delta   int64
}

type chatRecord struct {
	serial  game.Serial
	tableID int64
	message string
}

// recordingService is a Service that records every call.
type recordingService struct {
	*JoinedCounter

	shuttingDown bool
	refuseSeat   map[game.Serial]bool
	seated       map[game.Serial]bool
	grant        func(serial game.Serial, amount int64) int64
	buyIns       []int64
	refunds      []int64
	refundErr    error
	leaves       []game.Serial
	moveMoney    int64

	handSerial  int64
	createErr   error
	hands       map[int64][]game.Entry
	saved       map[int64][]game.Entry
	moneyCalls  []moneyCall
	moneyFails  int
	eventFails  int
	rake        map[game.Serial]int64
	tourneyEnd  int
	tourneyStat int
	dbEvents    []DatabaseEvent
	chats       []chatRecord

	tables     map[int64]*Table
	despawned  []int64
	deleted    []int64
	statsCalls int
	temporary  map[game.Serial]bool
}

func newRecordingService() *recordingService {
	return &recordingService{
		JoinedCounter: NewJoinedCounter(1000),
		refuseSeat:    make(map[game.Serial]bool),
		seated:        make(map[game.Serial]bool),
		hands:         make(map[int64][]game.Entry),
		saved:         make(map[int64][]game.Entry),
		rake:          make(map[game.Serial]int64),
		tables:        make(map[int64]*Table),
		temporary:     make(map[game.Serial]bool),
	}
}

func (s *recordingService) SeatPlayer(serial game.Serial, tableID int64, minAmount int64) bool {
	if s.refuseSeat[serial] || s.seated[serial] {
		return false
	}
	s.seated[serial] = true
	return true
}

func (s *recordingService) BuyInPlayer(serial game.Serial, tableID int64, currency int, amount int64) int64 {
	s.buyIns = append(s.buyIns, amount)
	if s.grant != nil {
		return s.grant(serial, amount)
	}
	return amount
}

func (s *recordingService) RefundBuyIn(serial game.Serial, tableID int64, amount int64) error {
	if s.refundErr != nil {
		return s.refundErr
	}
	s.refunds = append(s.refunds, amount)
	return nil
}

func (s *recordingService) LeavePlayer(serial game.Serial, tableID int64, currency int) bool {
	s.leaves = append(s.leaves, serial)
	ok := s.seated[serial]
	delete(s.seated, serial)
	return ok
}

func (s *recordingService) MovePlayer(serial game.Serial, fromID, toID int64) int64 {
	delete(s.seated, serial)
	return s.moveMoney
}

func (s *recordingService) CreateHand(tableID int64, tourney *Tourney) (int64, error) {
	if s.createErr != nil {
		return 0, s.createErr
	}
	s.handSerial++
	return s.handSerial, nil
}

func (s *recordingService) SaveHand(handSerial int64, hist []game.Entry) error {
	s.saved[handSerial] = hist
	return nil
}

func (s *recordingService) LoadHand(handSerial int64) ([]game.Entry, error) {
	hist, ok := s.hands[handSerial]
	if !ok {
		return nil, ErrHandNotFound
	}
	return hist, nil
}

var errStore = errors.New("store unavailable")

func (s *recordingService) UpdatePlayerMoney(serial game.Serial, tableID int64, delta int64) error {
	if s.moneyFails > 0 {
		s.moneyFails--
		return errStore
	}
	s.moneyCalls = append(s.moneyCalls, moneyCall{serial, tableID, delta})
	return nil
}

func (s *recordingService) UpdatePlayerRake(currency int, serial game.Serial, amount int64) error {
	s.rake[serial] += amount
	return nil
}

func (s *recordingService) TourneyEndTurn(*Tourney, int64) error {
	s.tourneyEnd++
	return nil
}

func (s *recordingService) TourneyUpdateStats(*Tourney, int64) error {
	s.tourneyStat++
	return nil
}

func (s *recordingService) DatabaseEvent(ev DatabaseEvent) error {
	if s.eventFails > 0 {
		s.eventFails--
		return errStore
	}
	s.dbEvents = append(s.dbEvents, ev)
	return nil
}

func (s *recordingService) ChatMessageArchive(serial game.Serial, tableID int64, message string) error {
	s.chats = append(s.chats, chatRecord{serial, tableID, message})
	return nil
}

func (s *recordingService) ShuttingDown() bool { return s.shuttingDown }

func (s *recordingService) Table(id int64) (*Table, bool) {
	t, ok := s.tables[id]
	return t, ok
}

func (s *recordingService) DespawnTable(id int64) { s.despawned = append(s.despawned, id) }
func (s *recordingService) DeleteTable(id int64)  { s.deleted = append(s.deleted, id) }

func (s *recordingService) UpdateTableStats(int64, int, int) { s.statsCalls++ }

func (s *recordingService) IsTemporaryUser(serial game.Serial) bool { return s.temporary[serial] }

func (s *recordingService) PlayerName(serial game.Serial) string {
	return "Player" + string(rune('0'+serial%10))
}

// recordingAvatar keeps every event it receives and a replica built
// from them.
type recordingAvatar struct {
	serial game.Serial
	events []protocol.Event
	view   *replica.View
	onSend func(protocol.Event)
}

func newAvatar(serial game.Serial) *recordingAvatar {
	return &recordingAvatar{serial: serial, view: replica.New(0)}
}

func (a *recordingAvatar) Serial() game.Serial { return a.serial }

func (a *recordingAvatar) Send(ev protocol.Event) {
	a.events = append(a.events, ev)
	a.view.Apply(ev)
	if a.onSend != nil {
		a.onSend(ev)
	}
}

func (a *recordingAvatar) ofType(typ protocol.Type) []protocol.Event {
	var out []protocol.Event
	for _, ev := range a.events {
		if ev.Type() == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (a *recordingAvatar) reset() { a.events = nil }

const testTableID = 26

type harness struct {
	t    *testing.T
	clk  *clock.FakeClock
	eng  *fakeEngine
	svc  *recordingService
	tbl  *Table
	logs *bytes.Buffer
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	logs := new(bytes.Buffer)
	log := slog.NewBackend(logs).Logger("TABL")
	log.SetLevel(slog.LevelTrace)

	h := &harness{
		t:    t,
		clk:  clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		eng:  newFakeEngine(),
		svc:  newRecordingService(),
		logs: logs,
	}
	cfg := Config{
		ID:               testTableID,
		Name:             "One",
		Variant:          "holdem",
		BettingStructure: "10-20-no-limit",
		Seats:            10,
		PlayerTimeout:    20 * time.Second,
		MuckTimeout:      5 * time.Second,
		Currency:         1,
		Settings: Settings{
			Autodeal:         true,
			AutodealDelay:    3 * time.Second,
			MaxMissedRounds:  5,
			WatchdogInterval: time.Hour,
		},
		Engine:  h.eng,
		Service: h.svc,
		Clock:   h.clk,
		Log:     log,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	tbl, err := New(cfg)
	require.NoError(t, err)
	h.tbl = tbl
	h.svc.tables[cfg.ID] = tbl
	return h
}

// seated joins, seats, buys in and sits a new avatar.
func (h *harness) seated(serial game.Serial) *recordingAvatar {
	h.t.Helper()
	a := newAvatar(serial)
	require.NoError(h.t, h.tbl.Join(a))
	require.NoError(h.t, h.tbl.Seat(a, -1))
	_, err := h.tbl.BuyIn(a, h.eng.best)
	require.NoError(h.t, err)
	require.NoError(h.t, h.tbl.Sit(a))
	return a
}

func (h *harness) update() UpdateResult {
	h.t.Helper()
	res, err := h.tbl.Update()
	require.NoError(h.t, err)
	return res
}

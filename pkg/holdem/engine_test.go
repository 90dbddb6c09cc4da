package holdem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vctt94/pokertable/pkg/clock"
	"github.com/vctt94/pokertable/pkg/game"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// showdownStack deals, in order [2 3 1], aces to 1, kings to 2 and
// nothing to 3, then a dry board.
var showdownStack = cards("Kh", "2c", "Ah", "Kd", "7d", "Ad", "3s", "8h", "9c", "Js", "4d")

func newEngine(t *testing.T, cfg Config) (*Engine, *clock.FakeClock) {
	t.Helper()
	clk := clock.Fake(epoch)
	cfg.MaxPlayers = 6
	cfg.SmallBlind, cfg.BigBlind = 5, 10
	cfg.BuyInMax = 1000
	cfg.Clock = clk
	cfg.Seed = 1
	return New(cfg), clk
}

func join(t *testing.T, e *Engine, serial game.Serial, money int64) {
	t.Helper()
	require.True(t, e.AddPlayer(serial, -1))
	require.True(t, e.PayBuyIn(serial, money))
	require.True(t, e.Sit(serial))
	e.AutoBlindAnte(serial, true)
}

func kinds(hist []game.Entry) []game.Kind {
	out := make([]game.Kind, len(hist))
	for i, e := range hist {
		out[i] = e.Kind()
	}
	return out
}

// since returns the entries after the last Game.
func since(hist []game.Entry) []game.Entry {
	for i := len(hist) - 1; i >= 0; i-- {
		if hist[i].Kind() == game.KindGame {
			return hist[i+1:]
		}
	}
	return hist
}

func findEntry[T game.Entry](t *testing.T, hist []game.Entry) T {
	t.Helper()
	for _, e := range hist {
		if v, ok := e.(T); ok {
			return v
		}
	}
	var zero T
	t.Fatalf("no %T in history", zero)
	return zero
}

func act(t *testing.T, e *Engine, serial game.Serial, action game.Action) {
	t.Helper()
	require.Equal(t, serial, e.SerialInPosition())
	require.NoError(t, e.Act(serial, action, 0))
}

func TestHeadsUpFoldPreFlop(t *testing.T) {
	e, _ := newEngine(t, Config{})
	join(t, e, 1, 100)
	join(t, e, 2, 100)

	require.NoError(t, e.BeginTurn(1))
	require.True(t, e.IsRunning())
	require.False(t, e.HistoryCanBeReduced())

	g := findEntry[game.Game](t, e.History())
	require.Equal(t, 0, g.Dealer)
	require.Equal(t, []game.Serial{2, 1}, g.Players)
	require.Equal(t, map[game.Serial]int64{1: 100, 2: 100}, g.Chips)
	require.Equal(t, map[game.Serial]int{1: 0, 2: 1}, g.Seats)

	// Heads up the button posts the small blind and acts first.
	require.Equal(t, game.Serial(1), e.SerialInPosition())
	act(t, e, 1, game.ActionFold)

	require.Equal(t, []game.Kind{
		game.KindBlind, game.KindBlind, game.KindRound, game.KindPosition,
		game.KindFold, game.KindCanceled, game.KindEnd, game.KindFinish,
	}, kinds(since(e.History())))
	hist := since(e.History())
	require.Equal(t, game.Blind{Serial: 1, Amount: 5}, hist[0])
	require.Equal(t, game.Blind{Serial: 2, Amount: 10}, hist[1])
	require.Equal(t, game.Canceled{Serial: 2, Amount: 5}, hist[5])
	require.Equal(t, game.End{
		Winners: []game.Serial{2},
		Shares:  map[game.Serial]int64{2: 10},
		Money:   map[game.Serial]int64{1: 95, 2: 105},
	}, hist[6])

	require.Equal(t, game.StateEnd, e.State())
	require.True(t, e.HistoryCanBeReduced())
	require.Zero(t, e.SerialInPosition())
}

func TestGameRecordsSeats(t *testing.T) {
	e, _ := newEngine(t, Config{})
	for serial, seat := range map[game.Serial]int{1: 5, 2: 3, 3: 0} {
		require.True(t, e.AddPlayer(serial, seat))
		require.True(t, e.PayBuyIn(serial, 100))
		require.True(t, e.Sit(serial))
		e.AutoBlindAnte(serial, true)
	}
	require.NoError(t, e.BeginTurn(1))

	g := findEntry[game.Game](t, e.History())
	require.Equal(t, map[game.Serial]int{1: 5, 2: 3, 3: 0}, g.Seats)
	require.Len(t, g.Players, 3)
}

func TestShowdownWithMuck(t *testing.T) {
	e, _ := newEngine(t, Config{Stack: showdownStack})
	join(t, e, 1, 100)
	join(t, e, 2, 100)
	join(t, e, 3, 100)

	require.NoError(t, e.BeginTurn(7))
	round := findEntry[game.Round](t, since(e.History()))
	require.Equal(t, cards("Ah", "Ad"), round.Pockets[1])

	act(t, e, 1, game.ActionCall)
	act(t, e, 2, game.ActionCall)
	act(t, e, 3, game.ActionCheck)
	for _, street := range []game.State{game.StateFlop, game.StateTurn, game.StateRiver} {
		require.Equal(t, street, e.State())
		act(t, e, 2, game.ActionCheck)
		act(t, e, 3, game.ActionCheck)
		act(t, e, 1, game.ActionCheck)
	}

	require.Equal(t, game.StateMuck, e.State())
	require.Equal(t, []game.Serial{2, 3}, e.MuckableSerials())
	require.Zero(t, e.SerialInPosition())
	require.ErrorIs(t, e.BeginTurn(8), ErrHandRunning)
	require.ErrorIs(t, e.Act(2, game.ActionCheck, 0), ErrNotRunning)
	require.False(t, e.Muck(1, true))

	require.True(t, e.Muck(2, true))
	require.Equal(t, game.StateMuck, e.State())
	require.True(t, e.Muck(3, false))
	require.Equal(t, game.StateEnd, e.State())

	sd := findEntry[game.Showdown](t, since(e.History()))
	require.Equal(t, map[game.Serial][]game.Card{
		1: cards("Ah", "Ad"),
		3: cards("2c", "7d"),
	}, sd.Pockets)
	require.Equal(t, cards("3s", "8h", "9c", "Js", "4d"), sd.Board)

	end := findEntry[game.End](t, since(e.History()))
	require.Equal(t, []game.Serial{1}, end.Winners)
	require.Equal(t, map[game.Serial]int64{1: 30}, end.Shares)
	require.Equal(t, map[game.Serial]int64{1: 120, 2: 90, 3: 90}, e.MoneyMap())
}

func TestRakeOnFlopPots(t *testing.T) {
	e, _ := newEngine(t, Config{Stack: showdownStack, RakePercent: 10})
	join(t, e, 1, 100)
	join(t, e, 2, 100)
	join(t, e, 3, 100)

	require.NoError(t, e.BeginTurn(1))
	act(t, e, 1, game.ActionCall)
	act(t, e, 2, game.ActionCall)
	act(t, e, 3, game.ActionCheck)
	for range 3 {
		act(t, e, 2, game.ActionCheck)
		act(t, e, 3, game.ActionCheck)
		act(t, e, 1, game.ActionCheck)
	}
	require.True(t, e.Muck(2, true))
	require.True(t, e.Muck(3, true))

	rake := findEntry[game.Rake](t, since(e.History()))
	require.Equal(t, game.Rake{
		Value:       3,
		Serial2Rake: map[game.Serial]int64{1: 1, 2: 1, 3: 1},
	}, rake)
	require.Equal(t, int64(117), e.Money(1))

	stats := e.Stats()
	require.Equal(t, 1, stats.HandsCount)
	require.Equal(t, int64(27), stats.AveragePot)
	require.Equal(t, 100, stats.PercentFlop)
}

func TestNoRakeWithoutFlop(t *testing.T) {
	e, _ := newEngine(t, Config{RakePercent: 10})
	join(t, e, 1, 100)
	join(t, e, 2, 100)

	require.NoError(t, e.BeginTurn(1))
	act(t, e, 1, game.ActionFold)
	for _, entry := range e.History() {
		require.NotEqual(t, game.KindRake, entry.Kind())
	}
}

func TestAllInSidePots(t *testing.T) {
	e, _ := newEngine(t, Config{
		Stack: cards("Ah", "2c", "Kh", "Ad", "7d", "Kd", "3s", "8h", "9c", "Js", "4d"),
	})
	join(t, e, 1, 200)
	join(t, e, 2, 50)
	join(t, e, 3, 200)

	require.NoError(t, e.BeginTurn(1))
	require.NoError(t, e.Act(1, game.ActionRaise, 200))
	act(t, e, 2, game.ActionCall)
	act(t, e, 3, game.ActionCall)

	// Nobody can bet any more: the board runs out to the showdown.
	require.Equal(t, game.StateMuck, e.State())
	require.Equal(t, []game.Serial{3}, e.MuckableSerials())
	require.True(t, e.Muck(3, true))

	hist := since(e.History())
	require.Contains(t, hist, game.Call{Serial: 2, Amount: 45})
	require.Contains(t, hist, game.AllIn{Serial: 2})
	end := findEntry[game.End](t, hist)
	require.Equal(t, map[game.Serial]int64{1: 300, 2: 150}, end.Shares)
	require.Equal(t, []game.Serial{1, 2}, end.Winners)

	// The busted player no longer sits.
	require.Equal(t, int64(0), e.Money(3))
	require.False(t, e.IsSit(3))
	require.Contains(t, hist, game.SitOut{Serial: 3})
	require.Equal(t, []game.Serial{1, 2}, e.SerialsSit())
}

func TestBlindRequests(t *testing.T) {
	e, _ := newEngine(t, Config{})
	join(t, e, 1, 100)
	join(t, e, 2, 100)
	e.AutoBlindAnte(1, false)
	e.AutoBlindAnte(2, false)

	require.NoError(t, e.BeginTurn(1))
	require.Equal(t, game.StateBlindAnte, e.State())
	require.Equal(t, game.BlindRequest{Serial: 1, Amount: 5, State: "small"}, e.History()[len(e.History())-1])
	require.Equal(t, game.Serial(1), e.SerialInPosition())

	require.ErrorIs(t, e.Act(1, game.ActionCheck, 0), ErrInvalidAction)
	require.ErrorIs(t, e.Act(2, game.ActionBlind, 0), ErrNotInPosition)
	act(t, e, 1, game.ActionBlind)
	require.Equal(t, game.BlindRequest{Serial: 2, Amount: 10, State: "big"}, e.History()[len(e.History())-1])

	// Refusing the big blind leaves one player: the hand is canceled.
	act(t, e, 2, game.ActionFold)
	require.Equal(t, game.StateEnd, e.State())
	require.False(t, e.IsSit(2))
	require.Equal(t, map[game.Serial]int64{1: 100, 2: 100}, e.MoneyMap())
	require.Equal(t, []game.Kind{
		game.KindBlindRequest, game.KindBlind, game.KindBlindRequest,
		game.KindSitOut, game.KindCanceled, game.KindEnd, game.KindFinish,
	}, kinds(since(e.History())))
}

func TestActionValidation(t *testing.T) {
	e, _ := newEngine(t, Config{})
	join(t, e, 1, 100)
	join(t, e, 2, 100)
	join(t, e, 3, 100)

	require.ErrorIs(t, e.Act(1, game.ActionCheck, 0), ErrNotRunning)
	require.NoError(t, e.BeginTurn(1))
	require.ErrorIs(t, e.BeginTurn(2), ErrHandRunning)

	require.ErrorIs(t, e.Act(2, game.ActionCall, 0), ErrNotInPosition)
	require.ErrorIs(t, e.Act(1, game.ActionCheck, 0), ErrInvalidAction)
	require.ErrorIs(t, e.Act(1, game.ActionRaise, 10), ErrInvalidAction)
	require.ErrorIs(t, e.Act(1, game.ActionRaise, 15), ErrBelowMinimumRaise)
	require.ErrorIs(t, e.Act(1, game.ActionRaise, 500), ErrInsufficientChips)
	require.ErrorIs(t, e.Act(1, game.Action("dance"), 0), ErrInvalidAction)

	require.NoError(t, e.Act(1, game.ActionRaise, 30))
	require.Equal(t, game.Serial(2), e.SerialInPosition())
	// The minimum raise is now the last raise.
	require.ErrorIs(t, e.Act(2, game.ActionRaise, 40), ErrBelowMinimumRaise)
	require.NoError(t, e.Act(2, game.ActionRaise, 45))
	act(t, e, 3, game.ActionCall)
	act(t, e, 1, game.ActionCall)
	require.Equal(t, game.StateFlop, e.State())
	require.Equal(t, map[game.Serial]int64{1: 50, 2: 50, 3: 50}, e.MoneyMap())
}

func TestAllInBelowMinimumRaise(t *testing.T) {
	e, _ := newEngine(t, Config{})
	join(t, e, 1, 15)
	join(t, e, 2, 100)
	join(t, e, 3, 100)

	require.NoError(t, e.BeginTurn(1))
	require.NoError(t, e.Act(1, game.ActionRaise, 15))
	require.Contains(t, e.History(), game.AllIn{Serial: 1})
	require.Equal(t, game.Serial(2), e.SerialInPosition())
}

func TestLeaveDuringHandIsDelayed(t *testing.T) {
	e, _ := newEngine(t, Config{})
	join(t, e, 1, 100)
	join(t, e, 2, 100)
	join(t, e, 3, 100)

	require.NoError(t, e.BeginTurn(1))
	require.False(t, e.RemovePlayer(3))
	_, seated := e.SeatOf(3)
	require.True(t, seated)

	require.True(t, e.Rebuy(2, 50))
	require.False(t, e.Rebuy(2, 1000))
	require.Equal(t, int64(95), e.Money(2))

	act(t, e, 1, game.ActionFold)
	require.Equal(t, game.StateEnd, e.State())

	require.Equal(t, []game.Kind{
		game.KindBlind, game.KindBlind, game.KindRound, game.KindPosition,
		game.KindFold, game.KindFold, game.KindCanceled, game.KindEnd,
		game.KindRebuy, game.KindLeave, game.KindFinish,
	}, kinds(since(e.History())))
	hist := since(e.History())
	require.Equal(t, game.Fold{Serial: 3}, hist[4])
	require.Equal(t, game.Canceled{Serial: 3, Amount: 5}, hist[6])
	require.Equal(t, game.Rebuy{Serial: 2, Amount: 50}, hist[8])
	require.Equal(t, game.Leave{Seats: []game.SeatLeave{{Serial: 3, Seat: 2}}}, hist[9])

	_, seated = e.SeatOf(3)
	require.False(t, seated)
	require.Equal(t, int64(155), e.Money(2))
	require.True(t, e.RemovePlayer(3))
}

func TestSeating(t *testing.T) {
	e, _ := newEngine(t, Config{})
	require.Equal(t, 6, e.MaxPlayers())

	require.True(t, e.AddPlayer(1, 2))
	require.False(t, e.AddPlayer(1, 3))
	require.False(t, e.AddPlayer(2, 2))
	require.False(t, e.AddPlayer(0, 1))
	require.False(t, e.AddPlayer(3, 6))
	require.True(t, e.AddPlayer(2, -1))
	seat, ok := e.SeatOf(2)
	require.True(t, ok)
	require.Equal(t, 0, seat)
	require.Equal(t, []game.Serial{2, 1}, e.Serials())

	require.False(t, e.Sit(1))
	require.False(t, e.PayBuyIn(1, 2000))
	require.False(t, e.Rebuy(1, 10))
	require.True(t, e.PayBuyIn(1, 100))
	require.True(t, e.IsBuyInPaid(1))
	require.False(t, e.PayBuyIn(1, 100))

	require.True(t, e.Sit(1))
	require.True(t, e.Sit(1))
	require.True(t, e.SitOut(1))
	require.True(t, e.SitOut(1))
	require.False(t, e.SitOut(9))
	require.Equal(t, []game.Kind{game.KindSit, game.KindSitOut}, kinds(e.History()))

	require.ErrorIs(t, e.BeginTurn(1), ErrNotEnoughPlayers)
	require.Equal(t, 1, e.MissedRoundCount(1))
	require.Equal(t, 1, e.MissedRoundCount(2))
	require.True(t, e.Sit(1))
	require.Zero(t, e.MissedRoundCount(1))

	require.True(t, e.Rebuy(1, 50))
	require.Equal(t, int64(150), e.Money(1))
	require.Equal(t, game.Rebuy{Serial: 1, Amount: 50}, e.History()[len(e.History())-1])

	require.True(t, e.IsOpen())
	e.Close()
	require.False(t, e.IsOpen())
	e.Open()
	require.True(t, e.IsOpen())

	e.HistoryReduce()
	require.Empty(t, e.History())
}

func TestConfigDefaults(t *testing.T) {
	e := New(Config{})
	require.Equal(t, 10, e.MaxPlayers())
	lo, best, hi := e.BuyInLimits()
	require.Equal(t, int64(400), lo)
	require.Equal(t, int64(1200), best)
	require.Equal(t, int64(2000), hi)
	require.Equal(t, game.StateNull, e.State())
	require.True(t, e.HistoryCanBeReduced())
}

func TestButtonMovesAndStats(t *testing.T) {
	e, clk := newEngine(t, Config{})
	join(t, e, 1, 100)
	join(t, e, 2, 100)

	require.NoError(t, e.BeginTurn(1))
	act(t, e, 1, game.ActionFold)
	e.HistoryReduce()

	clk.Advance(30 * time.Minute)
	require.NoError(t, e.BeginTurn(2))
	g := findEntry[game.Game](t, e.History())
	require.Equal(t, 1, g.Dealer)
	require.Equal(t, 2, g.HandsCount)
	require.Equal(t, []game.Serial{1, 2}, g.Players)
	act(t, e, 2, game.ActionFold)

	stats := e.Stats()
	require.Equal(t, game.Stats{
		HandsCount:   2,
		HandsPerHour: 4,
		AveragePot:   10,
		PercentFlop:  0,
	}, stats)
}

func TestSittingOutPlayerIsNotDealt(t *testing.T) {
	e, _ := newEngine(t, Config{})
	join(t, e, 1, 100)
	join(t, e, 2, 100)
	join(t, e, 3, 100)
	require.True(t, e.SitOut(2))

	require.NoError(t, e.BeginTurn(1))
	g := findEntry[game.Game](t, e.History())
	require.NotContains(t, g.Players, game.Serial(2))
	require.Equal(t, 1, e.MissedRoundCount(2))

	// Players who were not dealt in leave and rebuy at once.
	require.True(t, e.RemovePlayer(2))
	require.NotContains(t, e.Serials(), game.Serial(2))
}

package store

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/decred/slog"
	"github.com/stretchr/testify/require"

	"github.com/vctt94/pokertable/pkg/game"
)

var sqliteDrivers = []string{DriverSQLite3, DriverSQLite}

func openTestStore(t *testing.T, driver string) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{
		Driver: driver,
		DSN:    ":memory:",
		Log:    slog.NewBackend(io.Discard).Logger("TESTING"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

// eachDriver runs f against every sqlite driver.
func eachDriver(t *testing.T, f func(t *testing.T, s *Store)) {
	for _, driver := range sqliteDrivers {
		t.Run(driver, func(t *testing.T) {
			f(t, openTestStore(t, driver))
		})
	}
}

func TestOpenValidation(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql", DSN: "x"})
	require.ErrorContains(t, err, "unknown database driver")
	_, err = Open(context.Background(), Config{Driver: DriverSQLite, DSN: " "})
	require.ErrorContains(t, err, "empty database dsn")
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tables.db")
	s, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: path})
	require.NoError(t, err)
	require.Equal(t, DriverSQLite, s.Driver())
	require.NoError(t, s.Close())

	// Reopening finds the existing tables.
	s, err = Open(context.Background(), Config{Driver: DriverSQLite, DSN: path})
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestRebindDollar(t *testing.T) {
	require.Equal(t, "SELECT a FROM b WHERE c = $1 AND d = $2", rebindDollar("SELECT a FROM b WHERE c = ? AND d = ?"))
	require.Equal(t, "SELECT 1", rebindDollar("SELECT 1"))

	s := &Store{driver: DriverSQLite3}
	require.Equal(t, "x = ?", s.rebind("x = ?"))
	s.driver = DriverPostgres
	require.Equal(t, "x = $1", s.rebind("x = ?"))
}

func TestHands(t *testing.T) {
	eachDriver(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		first, err := s.CreateHand(ctx, 26, 0)
		require.NoError(t, err)
		second, err := s.CreateHand(ctx, 26, 3)
		require.NoError(t, err)
		require.Greater(t, second, first)

		// Created but not saved yet.
		hist, err := s.LoadHand(ctx, first)
		require.NoError(t, err)
		require.Nil(t, hist)

		want := []game.Entry{
			game.Game{HandSerial: first, Players: []game.Serial{1, 2}, Chips: map[game.Serial]int64{1: 100, 2: 100}},
			game.Round{Name: "flop", Unchanged: true},
			game.End{Winners: []game.Serial{1}, Shares: map[game.Serial]int64{1: 20}},
		}
		require.NoError(t, s.SaveHand(ctx, first, want))
		hist, err = s.LoadHand(ctx, first)
		require.NoError(t, err)
		require.Len(t, hist, 3)
		require.Equal(t, game.KindGame, hist[0].Kind())
		require.Equal(t, game.Round{Name: "flop", Unchanged: true}, hist[1])

		_, err = s.LoadHand(ctx, 999)
		require.ErrorIs(t, err, ErrNotFound)
		require.ErrorIs(t, s.SaveHand(ctx, 999, want), ErrNotFound)

		serials, err := s.HandSerials(ctx, 26, 10)
		require.NoError(t, err)
		require.Equal(t, []int64{first}, serials)
	})
}

func TestMoneyMovements(t *testing.T) {
	eachDriver(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateAccount(ctx, 1, 0, 1000))
		require.ErrorIs(t, s.CreateAccount(ctx, 1, 0, 5), ErrAccountExists)

		granted, err := s.BuyIn(ctx, 1, 26, 0, 400)
		require.NoError(t, err)
		require.Equal(t, int64(400), granted)

		// Buy-ins are capped by the bankroll.
		granted, err = s.BuyIn(ctx, 1, 26, 0, 5000)
		require.NoError(t, err)
		require.Equal(t, int64(600), granted)
		_, err = s.BuyIn(ctx, 1, 26, 0, 10)
		require.ErrorIs(t, err, ErrInsufficientBalance)
		_, err = s.BuyIn(ctx, 7, 26, 0, 10)
		require.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.AddTableMoney(ctx, 1, 26, -150))
		money, err := s.TableMoney(ctx, 1, 26)
		require.NoError(t, err)
		require.Equal(t, int64(850), money)

		moved, err := s.MoveMoney(ctx, 1, 26, 27)
		require.NoError(t, err)
		require.Equal(t, int64(850), moved)
		money, err = s.TableMoney(ctx, 1, 26)
		require.NoError(t, err)
		require.Zero(t, money)
		_, err = s.MoveMoney(ctx, 1, 26, 27)
		require.ErrorIs(t, err, ErrNotFound)

		out, err := s.CashOut(ctx, 1, 27)
		require.NoError(t, err)
		require.Equal(t, int64(850), out)
		balance, err := s.Balance(ctx, 1, 0)
		require.NoError(t, err)
		require.Equal(t, int64(850), balance)

		out, err = s.CashOut(ctx, 1, 27)
		require.NoError(t, err)
		require.Zero(t, out)

		txs, err := s.Transactions(ctx, 1, 10)
		require.NoError(t, err)
		var kinds []string
		var sum int64
		for _, tx := range txs {
			kinds = append(kinds, tx.Type)
			sum += tx.Amount
		}
		require.Equal(t, []string{TxCashOut, TxMove, TxMove, TxHand, TxBuyIn, TxBuyIn}, kinds)
		require.Equal(t, int64(1000-150-850), sum)

		_, err = s.Balance(ctx, 9, 0)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRefund(t *testing.T) {
	eachDriver(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateAccount(ctx, 2, 0, 1000))
		_, err := s.BuyIn(ctx, 2, 26, 0, 300)
		require.NoError(t, err)

		require.NoError(t, s.Refund(ctx, 2, 26, 200))
		money, err := s.TableMoney(ctx, 2, 26)
		require.NoError(t, err)
		require.Equal(t, int64(100), money)
		balance, err := s.Balance(ctx, 2, 0)
		require.NoError(t, err)
		require.Equal(t, int64(900), balance)

		require.ErrorIs(t, s.Refund(ctx, 2, 26, 101), ErrInsufficientBalance)
		require.ErrorIs(t, s.Refund(ctx, 2, 27, 1), ErrNotFound)

		txs, err := s.Transactions(ctx, 2, 10)
		require.NoError(t, err)
		require.Len(t, txs, 2)
		require.Equal(t, TxRefund, txs[0].Type)
		require.Equal(t, int64(-200), txs[0].Amount)
	})
}

func TestRake(t *testing.T) {
	eachDriver(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		require.NoError(t, s.AddRake(ctx, 0, 1, 7))
		require.NoError(t, s.AddRake(ctx, 0, 1, 3))
		require.NoError(t, s.AddRake(ctx, 1, 1, 2))

		rake, err := s.Rake(ctx, 0, 1)
		require.NoError(t, err)
		require.Equal(t, int64(10), rake)
		rake, err = s.Rake(ctx, 0, 2)
		require.NoError(t, err)
		require.Zero(t, rake)
	})
}

func TestChatStatsAndEvents(t *testing.T) {
	eachDriver(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		for i := range 5 {
			require.NoError(t, s.ArchiveChat(ctx, 1, 26, fmt.Sprintf("line %d", i)))
		}
		require.NoError(t, s.ArchiveChat(ctx, 1, 27, "elsewhere"))
		msgs, err := s.ChatMessages(ctx, 26, 2)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		require.Equal(t, "line 3", msgs[0].Message)
		require.Equal(t, "line 4", msgs[1].Message)
		require.Equal(t, game.Serial(1), msgs[1].Serial)

		_, err = s.TableStats(ctx, 26)
		require.ErrorIs(t, err, ErrNotFound)
		require.NoError(t, s.UpdateTableStats(ctx, 26, 3, 1))
		require.NoError(t, s.UpdateTableStats(ctx, 26, 4, 0))
		st, err := s.TableStats(ctx, 26)
		require.NoError(t, err)
		require.Equal(t, 4, st.Observers)
		require.Zero(t, st.Waiting)

		require.NoError(t, s.RecordEvent(ctx, Event{Kind: "end", TableID: 26, HandSerial: 4}))
		require.NoError(t, s.RecordEvent(ctx, Event{Kind: "end", TableID: 26, HandSerial: 5, Transient: true, TourneySerial: 2}))
		evs, err := s.Events(ctx, 26)
		require.NoError(t, err)
		require.Equal(t, []Event{
			{Kind: "end", TableID: 26, HandSerial: 4},
			{Kind: "end", TableID: 26, HandSerial: 5, Transient: true, TourneySerial: 2},
		}, evs)
	})
}

func TestPlayers(t *testing.T) {
	eachDriver(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		alice, created, err := s.RegisterPlayer(ctx, "alice")
		require.NoError(t, err)
		require.True(t, created)
		bob, created, err := s.RegisterPlayer(ctx, " bob ")
		require.NoError(t, err)
		require.True(t, created)
		require.NotEqual(t, alice, bob)

		again, created, err := s.RegisterPlayer(ctx, "alice")
		require.NoError(t, err)
		require.False(t, created)
		require.Equal(t, alice, again)

		name, err := s.PlayerName(ctx, bob)
		require.NoError(t, err)
		require.Equal(t, "bob", name)
		_, err = s.PlayerName(ctx, 999)
		require.ErrorIs(t, err, ErrNotFound)
		_, _, err = s.RegisterPlayer(ctx, "  ")
		require.Error(t, err)
	})
}

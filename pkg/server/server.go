// Package server hosts tables: it owns the loop every table runs on,
// implements the service tables call back into over the store, and
// exposes the tables through gRPC and websocket transports.
package server

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/decred/slog"

	"github.com/vctt94/pokertable/pkg/clock"
	"github.com/vctt94/pokertable/pkg/config"
	"github.com/vctt94/pokertable/pkg/game"
	"github.com/vctt94/pokertable/pkg/holdem"
	"github.com/vctt94/pokertable/pkg/logging"
	"github.com/vctt94/pokertable/pkg/store"
	"github.com/vctt94/pokertable/pkg/table"
)

var _ table.Engine = (*holdem.Engine)(nil)

var (
	ErrUnknownTable = errors.New("unknown table")
	ErrTableExists  = errors.New("table already exists")
	ErrShutdown     = errors.New("server is shutting down")
)

// EngineFactory builds the engine of a table.
type EngineFactory func(tc config.TableConfig) table.Engine

// Config configures a Server.
type Config struct {
	Store    *store.Store
	Settings table.Settings
	// Temporary matches the names of temporary users.
	Temporary *regexp.Regexp
	MaxJoined int
	// StartingBalance funds the accounts of new players.
	StartingBalance int64
	DealSeed        int64
	SessionBuffer   int
	QueueSize       int
	StoreTimeout    time.Duration
	Clock           clock.Clock
	Engines         EngineFactory
	// Logger returns the logger of a subsystem.
	Logger func(subsystem string) slog.Logger
}

// Server hosts tables. Tables, sessions and names are owned by the
// loop.
type Server struct {
	cfg   Config
	log   slog.Logger
	store *store.Store
	loop  *Loop
	svc   *service

	tables    map[int64]*table.Table
	confs     map[int64]config.TableConfig
	sessions  map[string]*Session
	names     map[game.Serial]string
	temporary *regexp.Regexp

	shuttingDown atomic.Bool
}

// New creates a server. Start runs it.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = func(string) slog.Logger { return slog.Disabled }
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	if cfg.MaxJoined <= 0 {
		cfg.MaxJoined = 1000
	}
	s := &Server{
		cfg:       cfg,
		log:       cfg.Logger(logging.SubsystemServer),
		store:     cfg.Store,
		loop:      NewLoop(cfg.QueueSize, cfg.Logger(logging.SubsystemLoop)),
		tables:    make(map[int64]*table.Table),
		confs:     make(map[int64]config.TableConfig),
		sessions:  make(map[string]*Session),
		names:     make(map[game.Serial]string),
		temporary: cfg.Temporary,
	}
	if s.cfg.Engines == nil {
		s.cfg.Engines = s.holdemEngine
	}
	s.svc = &service{JoinedCounter: table.NewJoinedCounter(cfg.MaxJoined), srv: s}
	return s, nil
}

func (s *Server) holdemEngine(tc config.TableConfig) table.Engine {
	return holdem.New(holdem.Config{
		MaxPlayers:  tc.Seats,
		SmallBlind:  tc.SmallBlind,
		BigBlind:    tc.BigBlind,
		BuyInMin:    tc.BuyInMin,
		BuyInBest:   tc.BuyInBest,
		BuyInMax:    tc.BuyInMax,
		Variant:     tc.Variant,
		RakePercent: tc.RakePercent,
		RakeCap:     tc.RakeCap,
		Seed:        s.cfg.DealSeed,
		Clock:       s.cfg.Clock,
		Log:         s.cfg.Logger(logging.SubsystemEngine),
	})
}

// Start runs the loop and spawns tables.
func (s *Server) Start(ctx context.Context, tables []config.TableConfig) error {
	s.loop.Start()
	for _, tc := range tables {
		if _, err := s.SpawnTable(ctx, tc); err != nil {
			return err
		}
	}
	s.log.Infof("Server started with %d tables", len(tables))
	return nil
}

// Stop destroys every table, closes the sessions and stops the loop.
func (s *Server) Stop() {
	s.shuttingDown.Store(true)
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.StoreTimeout)
	defer cancel()
	err := s.loop.Do(ctx, func() error {
		for _, id := range s.tableIDs() {
			s.tables[id].Destroy()
		}
		for id, sess := range s.sessions {
			sess.close()
			delete(s.sessions, id)
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrLoopStopped) {
		s.log.Errorf("Failed to tear tables down: %v", err)
	}
	s.loop.Stop()
}

// Do runs f on the loop. Tables may only be touched from f.
func (s *Server) Do(ctx context.Context, f func() error) error {
	return s.loop.Do(ctx, f)
}

// SpawnTable creates a table from its configuration.
func (s *Server) SpawnTable(ctx context.Context, tc config.TableConfig) (*table.Table, error) {
	var t *table.Table
	err := s.loop.Do(ctx, func() error {
		var err error
		t, err = s.spawnTable(tc)
		return err
	})
	return t, err
}

func (s *Server) spawnTable(tc config.TableConfig) (*table.Table, error) {
	if s.shuttingDown.Load() {
		return nil, ErrShutdown
	}
	if _, ok := s.tables[tc.ID]; ok {
		return nil, fmt.Errorf("table %d: %w", tc.ID, ErrTableExists)
	}
	var tourney *table.Tourney
	if tc.TourneySerial != 0 {
		tourney = &table.Tourney{Serial: tc.TourneySerial, Name: tc.TourneyName}
	}
	engine := s.cfg.Engines(tc)
	t, err := table.New(table.Config{
		ID:               tc.ID,
		Name:             tc.Name,
		Variant:          tc.Variant,
		BettingStructure: bettingStructure(tc),
		Seats:            tc.Seats,
		PlayerTimeout:    tc.PlayerTimeout.D(),
		MuckTimeout:      tc.MuckTimeout.D(),
		MaxMissedRounds:  tc.MaxMissedRounds,
		Transient:        tc.Transient,
		Currency:         tc.Currency,
		Tourney:          tourney,
		Settings:         s.cfg.Settings,
		Engine:           engine,
		Service:          s.svc,
		Clock:            s.cfg.Clock,
		Post:             s.loop.Post,
		Log:              s.cfg.Logger(logging.SubsystemTable),
	})
	if err != nil {
		return nil, err
	}
	s.tables[tc.ID] = t
	s.confs[tc.ID] = tc
	s.log.Infof("Spawned table %d (%s)", tc.ID, tc.Name)
	return t, nil
}

// bettingStructure names the blinds the way the hold'em engine
// defaults them.
func bettingStructure(tc config.TableConfig) string {
	bb := tc.BigBlind
	if bb <= 0 {
		bb = 20
	}
	sb := tc.SmallBlind
	if sb <= 0 {
		sb = bb / 2
	}
	return fmt.Sprintf("%d-%d-no-limit", sb, bb)
}

func (s *Server) tableIDs() []int64 {
	ids := make([]int64, 0, len(s.tables))
	for id := range s.tables {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Connect registers the player name on first sight and opens a
// session for it. Tables where the player is still seated get the
// session attached.
func (s *Server) Connect(ctx context.Context, name string) (*Session, error) {
	if s.shuttingDown.Load() {
		return nil, ErrShutdown
	}
	name = strings.TrimSpace(name)
	serial, created, err := s.store.RegisterPlayer(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureAccounts(ctx, serial); err != nil {
		return nil, err
	}
	if created {
		s.log.Infof("New player %s (%d)", name, serial)
	}

	sess := newSession(serial, name, s.cfg.SessionBuffer, s.log)
	err = s.loop.Do(ctx, func() error {
		s.sessions[sess.ID()] = sess
		s.names[serial] = name
		for _, id := range s.tableIDs() {
			if s.tables[id].PossibleObserverLoggedIn(sess) {
				sess.tables[id] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debugf("Session %s opened for %s (%d)", sess.ID(), name, serial)
	return sess, nil
}

// ensureAccounts opens the bankroll of serial in every currency a
// table plays with.
func (s *Server) ensureAccounts(ctx context.Context, serial game.Serial) error {
	var currencies []int
	err := s.loop.Do(ctx, func() error {
		currencies = []int{0}
		for _, tc := range s.confs {
			if !slices.Contains(currencies, tc.Currency) {
				currencies = append(currencies, tc.Currency)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, currency := range currencies {
		err := s.store.CreateAccount(ctx, serial, currency, s.cfg.StartingBalance)
		if err != nil && !errors.Is(err, store.ErrAccountExists) {
			return err
		}
	}
	return nil
}

// Disconnect detaches sess from its tables and closes it.
func (s *Server) Disconnect(sess *Session) {
	s.loop.Post(func() {
		for id := range sess.tables {
			if t, ok := s.tables[id]; ok {
				t.Disconnect(sess)
			}
		}
		clear(sess.tables)
		delete(s.sessions, sess.ID())
		sess.close()
		s.log.Debugf("Session %s of %d closed", sess.ID(), sess.Serial())
	})
}

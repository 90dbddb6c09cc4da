package server

import (
	"errors"
	"sync"

	"github.com/decred/slog"
	"github.com/google/uuid"

	"github.com/vctt94/pokertable/pkg/game"
	"github.com/vctt94/pokertable/pkg/protocol"
)

const defaultSessionBuffer = 256

// ErrSessionOverflow closes a session whose connection did not keep up
// with its events. The client reconnects and is sent the table state
// again.
var ErrSessionOverflow = errors.New("session fell behind its events")

// Session is one connection of a player. It is the avatar tables send
// events to.
type Session struct {
	id     uuid.UUID
	serial game.Serial
	name   string
	log    slog.Logger

	events chan protocol.Event
	done   chan struct{}
	once   sync.Once
	err    error

	// tables the session joined, owned by the loop.
	tables map[int64]bool
}

func newSession(serial game.Serial, name string, buffer int, log slog.Logger) *Session {
	if buffer <= 0 {
		buffer = defaultSessionBuffer
	}
	return &Session{
		id:     uuid.New(),
		serial: serial,
		name:   name,
		log:    log,
		events: make(chan protocol.Event, buffer),
		done:   make(chan struct{}),
		tables: make(map[int64]bool),
	}
}

func (s *Session) ID() string          { return s.id.String() }
func (s *Session) Serial() game.Serial { return s.serial }
func (s *Session) Name() string        { return s.name }

// Send queues ev for the connection. A connection that does not keep
// up is closed with ErrSessionOverflow instead of missing events.
func (s *Session) Send(ev protocol.Event) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.events <- ev:
	default:
		s.log.Warnf("Session %s of %d is full at %s, closing it", s.id, s.serial, ev.Type())
		s.closeWith(ErrSessionOverflow)
	}
}

// Events delivers what tables sent to the session.
func (s *Session) Events() <-chan protocol.Event { return s.events }

// Done is closed when the session is closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err is why the session was closed. It is nil while the session is
// open and after a regular close.
func (s *Session) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

func (s *Session) close() { s.closeWith(nil) }

func (s *Session) closeWith(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}

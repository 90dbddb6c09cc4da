package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vctt94/pokertable/pkg/game"
)

// ChatMessage is an archived table chat line.
type ChatMessage struct {
	Serial  game.Serial
	TableID int64
	Message string
	At      time.Time
}

func (s *Store) ArchiveChat(ctx context.Context, serial game.Serial, tableID int64, message string) error {
	_, err := s.exec(ctx, `
		INSERT INTO chat (serial, table_id, message, created_at_ms) VALUES (?, ?, ?, ?)
	`, int64(serial), tableID, message, s.nowMs())
	return err
}

// ChatMessages returns the last messages of a table, oldest first.
func (s *Store) ChatMessages(ctx context.Context, tableID int64, limit int) ([]ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT serial, message, created_at_ms FROM chat
		WHERE table_id = ?
		ORDER BY id DESC
		LIMIT ?
	`), tableID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ChatMessage
	for rows.Next() {
		var serial, ms int64
		m := ChatMessage{TableID: tableID}
		if err := rows.Scan(&serial, &m.Message, &ms); err != nil {
			return nil, err
		}
		m.Serial = game.Serial(serial)
		m.At = time.UnixMilli(ms).UTC()
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// TableStats is the last occupancy reported by a table.
type TableStats struct {
	Observers int
	Waiting   int
	UpdatedAt time.Time
}

func (s *Store) UpdateTableStats(ctx context.Context, tableID int64, observers, waiting int) error {
	_, err := s.exec(ctx, `
		INSERT INTO table_stats (table_id, observers, waiting, updated_at_ms) VALUES (?, ?, ?, ?)
		ON CONFLICT (table_id) DO UPDATE SET
			observers = excluded.observers,
			waiting = excluded.waiting,
			updated_at_ms = excluded.updated_at_ms
	`, tableID, observers, waiting, s.nowMs())
	return err
}

func (s *Store) TableStats(ctx context.Context, tableID int64) (TableStats, error) {
	var st TableStats
	var ms int64
	err := s.queryRow(ctx, `
		SELECT observers, waiting, updated_at_ms FROM table_stats WHERE table_id = ?
	`, tableID).Scan(&st.Observers, &st.Waiting, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return st, ErrNotFound
	}
	if err != nil {
		return st, err
	}
	st.UpdatedAt = time.UnixMilli(ms).UTC()
	return st, nil
}

// Event is a domain notification raised by a table.
type Event struct {
	Kind          string
	TableID       int64
	HandSerial    int64
	Transient     bool
	TourneySerial int64
}

func (s *Store) RecordEvent(ctx context.Context, ev Event) error {
	_, err := s.exec(ctx, `
		INSERT INTO events (kind, table_id, hand_serial, transient, tourney_serial, created_at_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ev.Kind, ev.TableID, ev.HandSerial, ev.Transient, ev.TourneySerial, s.nowMs())
	return err
}

// Events returns the events of a table in the order they were recorded.
func (s *Store) Events(ctx context.Context, tableID int64) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT kind, hand_serial, transient, tourney_serial FROM events
		WHERE table_id = ?
		ORDER BY id
	`), tableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		ev := Event{TableID: tableID}
		if err := rows.Scan(&ev.Kind, &ev.HandSerial, &ev.Transient, &ev.TourneySerial); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vctt94/pokertable/pkg/game"
)

// CreateHand reserves the serial of a new hand.
func (s *Store) CreateHand(ctx context.Context, tableID, tourneySerial int64) (int64, error) {
	var serial int64
	err := s.queryRow(ctx, `
		INSERT INTO hands (table_id, tourney_serial, created_at_ms)
		VALUES (?, ?, ?)
		RETURNING serial
	`, tableID, tourneySerial, s.nowMs()).Scan(&serial)
	if err != nil {
		return 0, fmt.Errorf("failed to create hand: %w", err)
	}
	s.log.Debugf("Created hand %d on table %d", serial, tableID)
	return serial, nil
}

// SaveHand stores the history of a created hand.
func (s *Store) SaveHand(ctx context.Context, serial int64, hist []game.Entry) error {
	blob, err := game.Marshal(hist)
	if err != nil {
		return fmt.Errorf("failed to encode hand %d: %w", serial, err)
	}
	res, err := s.exec(ctx, `
		UPDATE hands SET history = ?, saved_at_ms = ? WHERE serial = ?
	`, blob, s.nowMs(), serial)
	if err != nil {
		return fmt.Errorf("failed to save hand %d: %w", serial, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("hand %d: %w", serial, ErrNotFound)
	}
	return nil
}

// LoadHand returns the saved history of a hand, nil when the hand was
// created but never saved.
func (s *Store) LoadHand(ctx context.Context, serial int64) ([]game.Entry, error) {
	var blob []byte
	err := s.queryRow(ctx, `SELECT history FROM hands WHERE serial = ?`, serial).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("hand %d: %w", serial, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load hand %d: %w", serial, err)
	}
	if len(blob) == 0 {
		return nil, nil
	}
	hist, err := game.Unmarshal(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to decode hand %d: %w", serial, err)
	}
	return hist, nil
}

// HandSerials returns the most recent saved hands of a table, newest
// first.
func (s *Store) HandSerials(ctx context.Context, tableID int64, limit int) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT serial FROM hands
		WHERE table_id = ? AND history IS NOT NULL
		ORDER BY serial DESC
		LIMIT ?
	`), tableID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var serial int64
		if err := rows.Scan(&serial); err != nil {
			return nil, err
		}
		out = append(out, serial)
	}
	return out, rows.Err()
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vctt94/pokertable/pkg/game"
)

// RegisterPlayer returns the serial of name, creating the player on
// first sight.
func (s *Store) RegisterPlayer(ctx context.Context, name string) (game.Serial, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false, errors.New("empty player name")
	}
	serial, err := s.playerSerial(ctx, name)
	if err == nil {
		return serial, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, false, err
	}

	var id int64
	err = s.queryRow(ctx, `
		INSERT INTO players (name, created_at_ms) VALUES (?, ?)
		RETURNING serial
	`, name, s.nowMs()).Scan(&id)
	if IsConflict(err) {
		// Registered concurrently.
		serial, err := s.playerSerial(ctx, name)
		return serial, false, err
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to register player %q: %w", name, err)
	}
	s.log.Infof("Registered player %q with serial %d", name, id)
	return game.Serial(id), true, nil
}

func (s *Store) playerSerial(ctx context.Context, name string) (game.Serial, error) {
	var id int64
	err := s.queryRow(ctx, `SELECT serial FROM players WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("player %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	return game.Serial(id), nil
}

// PlayerName returns the name serial registered with.
func (s *Store) PlayerName(ctx context.Context, serial game.Serial) (string, error) {
	var name string
	err := s.queryRow(ctx, `SELECT name FROM players WHERE serial = ?`, int64(serial)).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("player %d: %w", serial, ErrNotFound)
	}
	return name, err
}

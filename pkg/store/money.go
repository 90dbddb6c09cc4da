package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrutil/v4"

	"github.com/vctt94/pokertable/pkg/game"
)

// Transaction types recorded with every money movement.
const (
	TxBuyIn   = "buyin"
	TxCashOut = "cashout"
	TxHand    = "hand"
	TxMove    = "move"
	TxRefund  = "refund"
)

var ErrAccountExists = errors.New("account already exists")

// CreateAccount opens the bankroll of serial in currency.
func (s *Store) CreateAccount(ctx context.Context, serial game.Serial, currency int, balance int64) error {
	_, err := s.exec(ctx, `
		INSERT INTO accounts (serial, currency, balance) VALUES (?, ?, ?)
	`, int64(serial), currency, balance)
	if IsConflict(err) {
		return fmt.Errorf("player %d currency %d: %w", serial, currency, ErrAccountExists)
	}
	return err
}

// Balance returns the bankroll of serial, off the tables.
func (s *Store) Balance(ctx context.Context, serial game.Serial, currency int) (int64, error) {
	var balance int64
	err := s.queryRow(ctx, `
		SELECT balance FROM accounts WHERE serial = ? AND currency = ?
	`, int64(serial), currency).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("player %d currency %d: %w", serial, currency, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// TableMoney returns the chips serial has on tableID.
func (s *Store) TableMoney(ctx context.Context, serial game.Serial, tableID int64) (int64, error) {
	var amount int64
	err := s.queryRow(ctx, `
		SELECT amount FROM table_money WHERE serial = ? AND table_id = ?
	`, int64(serial), tableID).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return amount, err
}

// BuyIn moves up to amount from the bankroll of serial to tableID and
// returns what moved.
func (s *Store) BuyIn(ctx context.Context, serial game.Serial, tableID int64, currency int, amount int64) (int64, error) {
	var granted int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var balance int64
		err := tx.QueryRowContext(ctx, s.rebind(`
			SELECT balance FROM accounts WHERE serial = ? AND currency = ?
		`), int64(serial), currency).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("player %d currency %d: %w", serial, currency, ErrNotFound)
		}
		if err != nil {
			return err
		}
		granted = min(balance, amount)
		if granted <= 0 {
			return fmt.Errorf("player %d: %w", serial, ErrInsufficientBalance)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`
			UPDATE accounts SET balance = balance - ? WHERE serial = ? AND currency = ?
		`), granted, int64(serial), currency); err != nil {
			return err
		}
		if err := s.addTableMoney(ctx, tx, serial, tableID, currency, granted); err != nil {
			return err
		}
		return s.record(ctx, tx, serial, tableID, granted, TxBuyIn)
	})
	if err != nil {
		return 0, err
	}
	s.log.Debugf("Player %d bought in for %v on table %d", serial, dcrutil.Amount(granted), tableID)
	return granted, nil
}

// CashOut moves the chips serial has on tableID back to its bankroll
// and returns the amount.
func (s *Store) CashOut(ctx context.Context, serial game.Serial, tableID int64) (int64, error) {
	var amount int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var currency int
		err := tx.QueryRowContext(ctx, s.rebind(`
			SELECT amount, currency FROM table_money WHERE serial = ? AND table_id = ?
		`), int64(serial), tableID).Scan(&amount, &currency)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`
			DELETE FROM table_money WHERE serial = ? AND table_id = ?
		`), int64(serial), tableID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO accounts (serial, currency, balance) VALUES (?, ?, ?)
			ON CONFLICT (serial, currency) DO UPDATE SET balance = accounts.balance + excluded.balance
		`), int64(serial), currency, amount); err != nil {
			return err
		}
		return s.record(ctx, tx, serial, tableID, -amount, TxCashOut)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to cash out player %d: %w", serial, err)
	}
	if amount > 0 {
		s.log.Debugf("Player %d cashed out %v from table %d", serial, dcrutil.Amount(amount), tableID)
	}
	return amount, nil
}

// Refund moves amount of the chips serial has on tableID back to its
// bankroll. It undoes a buy-in the table could not use.
func (s *Store) Refund(ctx context.Context, serial game.Serial, tableID int64, amount int64) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var onTable int64
		var currency int
		err := tx.QueryRowContext(ctx, s.rebind(`
			SELECT amount, currency FROM table_money WHERE serial = ? AND table_id = ?
		`), int64(serial), tableID).Scan(&onTable, &currency)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("player %d on table %d: %w", serial, tableID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if amount > onTable {
			return fmt.Errorf("refund of %d with %d on table: %w", amount, onTable, ErrInsufficientBalance)
		}
		if err := s.addTableMoney(ctx, tx, serial, tableID, currency, -amount); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`
			UPDATE accounts SET balance = balance + ? WHERE serial = ? AND currency = ?
		`), amount, int64(serial), currency); err != nil {
			return err
		}
		return s.record(ctx, tx, serial, tableID, -amount, TxRefund)
	})
	if err != nil {
		return fmt.Errorf("failed to refund player %d: %w", serial, err)
	}
	s.log.Debugf("Player %d refunded %v from table %d", serial, dcrutil.Amount(amount), tableID)
	return nil
}

// AddTableMoney applies the net result of a hand to the chips of serial
// on tableID.
func (s *Store) AddTableMoney(ctx context.Context, serial game.Serial, tableID int64, delta int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.addTableMoney(ctx, tx, serial, tableID, 0, delta); err != nil {
			return err
		}
		return s.record(ctx, tx, serial, tableID, delta, TxHand)
	})
}

// MoveMoney carries the chips of serial from one table to another and
// returns the amount carried.
func (s *Store) MoveMoney(ctx context.Context, serial game.Serial, fromID, toID int64) (int64, error) {
	var amount int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var currency int
		err := tx.QueryRowContext(ctx, s.rebind(`
			SELECT amount, currency FROM table_money WHERE serial = ? AND table_id = ?
		`), int64(serial), fromID).Scan(&amount, &currency)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("player %d on table %d: %w", serial, fromID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`
			DELETE FROM table_money WHERE serial = ? AND table_id = ?
		`), int64(serial), fromID); err != nil {
			return err
		}
		if err := s.addTableMoney(ctx, tx, serial, toID, currency, amount); err != nil {
			return err
		}
		if err := s.record(ctx, tx, serial, fromID, -amount, TxMove); err != nil {
			return err
		}
		return s.record(ctx, tx, serial, toID, amount, TxMove)
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}

func (s *Store) addTableMoney(ctx context.Context, tx *sql.Tx, serial game.Serial, tableID int64, currency int, delta int64) error {
	_, err := tx.ExecContext(ctx, s.rebind(`
		INSERT INTO table_money (serial, table_id, currency, amount) VALUES (?, ?, ?, ?)
		ON CONFLICT (serial, table_id) DO UPDATE SET amount = table_money.amount + excluded.amount
	`), int64(serial), tableID, currency, delta)
	return err
}

func (s *Store) record(ctx context.Context, tx *sql.Tx, serial game.Serial, tableID, amount int64, kind string) error {
	_, err := tx.ExecContext(ctx, s.rebind(`
		INSERT INTO transactions (serial, table_id, amount, type, created_at_ms)
		VALUES (?, ?, ?, ?, ?)
	`), int64(serial), tableID, amount, kind, s.nowMs())
	return err
}

// Transaction is one recorded money movement.
type Transaction struct {
	ID      int64
	Serial  game.Serial
	TableID int64
	Amount  int64
	Type    string
}

// Transactions returns the money movements of serial, newest first.
func (s *Store) Transactions(ctx context.Context, serial game.Serial, limit int) ([]Transaction, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, serial, table_id, amount, type FROM transactions
		WHERE serial = ?
		ORDER BY id DESC
		LIMIT ?
	`), int64(serial), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		var tx Transaction
		var serial int64
		if err := rows.Scan(&tx.ID, &serial, &tx.TableID, &tx.Amount, &tx.Type); err != nil {
			return nil, err
		}
		tx.Serial = game.Serial(serial)
		out = append(out, tx)
	}
	return out, rows.Err()
}

// AddRake accumulates the rake paid by serial.
func (s *Store) AddRake(ctx context.Context, currency int, serial game.Serial, amount int64) error {
	_, err := s.exec(ctx, `
		INSERT INTO rake (currency, serial, amount) VALUES (?, ?, ?)
		ON CONFLICT (currency, serial) DO UPDATE SET amount = rake.amount + excluded.amount
	`, currency, int64(serial), amount)
	return err
}

func (s *Store) Rake(ctx context.Context, currency int, serial game.Serial) (int64, error) {
	var amount int64
	err := s.queryRow(ctx, `
		SELECT amount FROM rake WHERE currency = ? AND serial = ?
	`, currency, int64(serial)).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return amount, err
}

package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceRepository is the balance ledger. Every mutation is a delta
// applied inside a database transaction, never a read-modify-write on
// a balance cached by the caller, so concurrent deposit/withdrawal
// activity cannot lose updates.
type BalanceRepository struct {
	db *DB
}

// NewBalanceRepository creates a new balance repository
func NewBalanceRepository(db *DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// Get retrieves a user's current balance
func (r *BalanceRepository) Get(userID uuid.UUID) (decimal.Decimal, error) {
	var raw string
	err := r.db.QueryRow("SELECT balance FROM balances WHERE user_id = ?", userID.String()).Scan(&raw)
	if err == sql.ErrNoRows {
		return decimal.Zero, ErrUserNotFound
	}
	if err != nil {
		return decimal.Zero, err
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt balance for user %s: %w", userID, err)
	}
	return balance, nil
}

// Adjust applies a signed delta to a user's balance and returns the new
// balance. The result is clamped at a zero floor.
func (r *BalanceRepository) Adjust(userID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback()

	newBalance, err := adjustBalanceTx(tx, userID, delta)
	if err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}

// adjustBalanceTx applies a delta within an existing transaction so a
// balance move can commit atomically with related record updates.
func adjustBalanceTx(tx *sql.Tx, userID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var raw string
	err := tx.QueryRow("SELECT balance FROM balances WHERE user_id = ?", userID.String()).Scan(&raw)
	if err == sql.ErrNoRows {
		return decimal.Zero, ErrUserNotFound
	}
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt balance for user %s: %w", userID, err)
	}

	newBalance := balance.Add(delta)
	if newBalance.IsNegative() {
		newBalance = decimal.Zero
	}

	_, err = tx.Exec("UPDATE balances SET balance = ?, updated_at = ? WHERE user_id = ?",
		newBalance.String(), time.Now().UTC(), userID.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to update balance: %w", err)
	}

	return newBalance, nil
}

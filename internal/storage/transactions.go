package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oaklinehq/oakline/internal/models"
	"github.com/shopspring/decimal"
)

// TransactionRepository provides transaction history data access
type TransactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a new transaction record
func (r *TransactionRepository) Create(t *models.Transaction) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertTransactionTx(tx, t); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTransactionTx(tx *sql.Tx, t *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, amount, kind, flow, status, message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := tx.Exec(query,
		t.ID.String(),
		t.UserID.String(),
		t.Amount.String(),
		string(t.Kind),
		string(t.Flow),
		string(t.Status),
		t.Message,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepository) GetByID(id uuid.UUID) (*models.Transaction, error) {
	query := selectTransaction + ` WHERE id = ?`
	rows, err := r.db.Query(query, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return scanTransactionRow(rows)
}

// ListByUser retrieves a page of a user's transactions, newest first.
// kind filters by transaction kind when non-empty.
func (r *TransactionRepository) ListByUser(userID uuid.UUID, kind models.TransactionKind, limit, offset int) ([]*models.Transaction, error) {
	query := selectTransaction + ` WHERE user_id = ?`
	args := []interface{}{userID.String()}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	return r.list(query, args...)
}

// ListAllByUser retrieves a user's entire history, newest first
func (r *TransactionRepository) ListAllByUser(userID uuid.UUID) ([]*models.Transaction, error) {
	query := selectTransaction + ` WHERE user_id = ? ORDER BY created_at DESC`
	return r.list(query, userID.String())
}

// ListPending retrieves all transactions awaiting an admin decision, oldest first
func (r *TransactionRepository) ListPending() ([]*models.Transaction, error) {
	query := selectTransaction + ` WHERE status = ? ORDER BY created_at ASC`
	return r.list(query, string(models.TxPending))
}

func (r *TransactionRepository) list(query string, args ...interface{}) ([]*models.Transaction, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		t, err := scanTransactionRow(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	return transactions, rows.Err()
}

// Decide applies an admin approval or rejection to a pending
// transaction, moving money as a side effect in the same database
// transaction: an approved deposit credits the balance, a rejected
// withdrawal refunds the hold taken at request time. The status flip is
// conditional on the row still being pending, so a decision applies at
// most once even under concurrent admin clicks. Returns the updated
// record, or ErrNotFound if the transaction is missing or already
// decided.
func (r *TransactionRepository) Decide(id uuid.UUID, approve bool) (*models.Transaction, error) {
	t, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}

	status := models.TxApproved
	if !approve {
		status = models.TxRejected
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.Exec(
		"UPDATE transactions SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		string(status), now, id.String(), string(models.TxPending),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to decide transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	switch {
	case t.Kind == models.TxDeposit && approve:
		if _, err := adjustBalanceTx(tx, t.UserID, t.Amount); err != nil {
			return nil, fmt.Errorf("failed to credit deposit: %w", err)
		}
	case t.Kind == models.TxWithdrawal && !approve:
		// Withdrawals debit at request time; rejection returns the hold.
		if _, err := adjustBalanceTx(tx, t.UserID, t.Amount); err != nil {
			return nil, fmt.Errorf("failed to refund withdrawal: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	t.Status = status
	t.UpdatedAt = now
	return t, nil
}

// RequestWithdrawal records a pending withdrawal and places a hold on
// the funds in one transaction. Returns ErrInsufficientBalance if the
// hold would overdraw the account.
func (r *TransactionRepository) RequestWithdrawal(t *models.Transaction) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRow("SELECT balance FROM balances WHERE user_id = ?", t.UserID.String()).Scan(&raw)
	if err == sql.ErrNoRows {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("corrupt balance for user %s: %w", t.UserID, err)
	}
	if t.Amount.GreaterThan(balance) {
		return ErrInsufficientBalance
	}

	if _, err := adjustBalanceTx(tx, t.UserID, t.Amount.Neg()); err != nil {
		return err
	}
	if err := insertTransactionTx(tx, t); err != nil {
		return err
	}

	return tx.Commit()
}

const selectTransaction = `
	SELECT id, user_id, amount, kind, flow, status, message, created_at, updated_at
	FROM transactions`

func scanTransactionRow(rows *sql.Rows) (*models.Transaction, error) {
	var t models.Transaction
	var id, userID, amount, kind, flow, status string
	var message sql.NullString

	err := rows.Scan(&id, &userID, &amount, &kind, &flow, &status, &message, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	t.ID, _ = uuid.Parse(id)
	t.UserID, _ = uuid.Parse(userID)
	t.Amount, _ = decimal.NewFromString(amount)
	t.Kind = models.TransactionKind(kind)
	t.Flow = models.TransactionFlow(flow)
	t.Status = models.TransactionStatus(status)
	if message.Valid {
		t.Message = message.String
	}

	return &t, nil
}

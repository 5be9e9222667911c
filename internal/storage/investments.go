package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oaklinehq/oakline/internal/models"
	"github.com/shopspring/decimal"
)

// InvestmentRepository provides investment data access
type InvestmentRepository struct {
	db *DB
}

// NewInvestmentRepository creates a new investment repository
func NewInvestmentRepository(db *DB) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

// Create inserts a new investment
func (r *InvestmentRepository) Create(inv *models.Investment) error {
	query := `
		INSERT INTO investments (
			id, owner_id, principal, guaranteed_payout, duration_days,
			start_time, maturity_time, daily_accrual, current_value,
			state, settled_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		inv.ID.String(),
		inv.OwnerID.String(),
		inv.Principal.String(),
		inv.GuaranteedPayout.String(),
		inv.DurationDays,
		inv.StartTime,
		inv.MaturityTime,
		inv.DailyAccrual.String(),
		inv.CurrentValue.String(),
		string(inv.State),
		inv.SettledAt,
		inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create investment: %w", err)
	}
	return nil
}

// GetByID retrieves an investment by ID
func (r *InvestmentRepository) GetByID(id uuid.UUID) (*models.Investment, error) {
	query := selectInvestment + ` WHERE id = ?`
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
	return scanInvestmentRow(rows)
}

// ListByOwner retrieves all investments for a user, newest first
func (r *InvestmentRepository) ListByOwner(ownerID uuid.UUID) ([]*models.Investment, error) {
	query := selectInvestment + ` WHERE owner_id = ? ORDER BY created_at DESC`
	return r.list(query, ownerID.String())
}

// ListActive retrieves every investment still accruing, oldest first
func (r *InvestmentRepository) ListActive() ([]*models.Investment, error) {
	query := selectInvestment + ` WHERE state = ? ORDER BY created_at ASC`
	return r.list(query, string(models.InvestmentActive))
}

// List retrieves all investments, newest first
func (r *InvestmentRepository) List() ([]*models.Investment, error) {
	return r.list(selectInvestment + ` ORDER BY created_at DESC`)
}

func (r *InvestmentRepository) list(query string, args ...interface{}) ([]*models.Investment, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var investments []*models.Investment
	for rows.Next() {
		inv, err := scanInvestmentRow(rows)
		if err != nil {
			return nil, err
		}
		investments = append(investments, inv)
	}

	return investments, rows.Err()
}

// UpdateValue persists a recomputed current value. The update only
// touches rows still in the active state, so a settlement that landed
// between recomputation and persistence is never overwritten.
func (r *InvestmentRepository) UpdateValue(id uuid.UUID, value decimal.Decimal) error {
	_, err := r.db.Exec(
		"UPDATE investments SET current_value = ? WHERE id = ? AND state = ?",
		value.String(), id.String(), string(models.InvestmentActive),
	)
	if err != nil {
		return fmt.Errorf("failed to update investment value: %w", err)
	}
	return nil
}

// SettleAndCredit transitions an investment to the settled state and
// credits the payout to the owner's balance as one transaction. The
// state flip is conditional on the row still being active, so of two
// racing passes exactly one observes credited = true; the loser sees
// credited = false and must not retry the credit.
func (r *InvestmentRepository) SettleAndCredit(invID, ownerID uuid.UUID, payout decimal.Decimal, settledAt time.Time) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"UPDATE investments SET state = ?, current_value = ?, settled_at = ? WHERE id = ? AND state = ?",
		string(models.InvestmentSettled),
		payout.String(),
		settledAt.UTC(),
		invID.String(),
		string(models.InvestmentActive),
	)
	if err != nil {
		return false, fmt.Errorf("failed to settle investment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		// Lost the race or already settled; nothing to credit.
		return false, nil
	}

	if _, err := adjustBalanceTx(tx, ownerID, payout); err != nil {
		return false, fmt.Errorf("failed to credit payout: %w", err)
	}

	record := models.NewTransaction(ownerID, payout, models.TxPayout, models.FlowCredit,
		models.TxCompleted, "Investment matured")
	if err := insertTransactionTx(tx, record); err != nil {
		return false, fmt.Errorf("failed to record payout: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

const selectInvestment = `
	SELECT id, owner_id, principal, guaranteed_payout, duration_days,
		start_time, maturity_time, daily_accrual, current_value,
		state, settled_at, created_at
	FROM investments`

func scanInvestmentRow(rows *sql.Rows) (*models.Investment, error) {
	var inv models.Investment
	var id, ownerID, principal, payout, accrual, value, state string
	var settledAt sql.NullTime

	err := rows.Scan(
		&id, &ownerID, &principal, &payout, &inv.DurationDays,
		&inv.StartTime, &inv.MaturityTime, &accrual, &value,
		&state, &settledAt, &inv.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan investment: %w", err)
	}

	inv.ID, _ = uuid.Parse(id)
	inv.OwnerID, _ = uuid.Parse(ownerID)
	inv.Principal, _ = decimal.NewFromString(principal)
	inv.GuaranteedPayout, _ = decimal.NewFromString(payout)
	inv.DailyAccrual, _ = decimal.NewFromString(accrual)
	inv.CurrentValue, _ = decimal.NewFromString(value)
	inv.State = models.InvestmentState(state)
	if settledAt.Valid {
		t := settledAt.Time
		inv.SettledAt = &t
	}

	return &inv, nil
}

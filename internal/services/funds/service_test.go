package funds

import (
	"testing"

	"github.com/oaklinehq/oakline/internal/models"
	"github.com/oaklinehq/oakline/internal/storage"
	"github.com/shopspring/decimal"
)

type testEnv struct {
	users        *storage.UserRepository
	balances     *storage.BalanceRepository
	transactions *storage.TransactionRepository
	service      *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	env := &testEnv{
		users:        storage.NewUserRepository(db),
		balances:     storage.NewBalanceRepository(db),
		transactions: storage.NewTransactionRepository(db),
	}
	env.service = NewService(env.balances, env.transactions, nil)
	return env
}

func (e *testEnv) createUser(t *testing.T, email string, balance int64) *models.User {
	t.Helper()
	user := models.NewUser(email, "Test User", "hash")
	if err := e.users.Create(user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if balance > 0 {
		if _, err := e.balances.Adjust(user.ID, decimal.NewFromInt(balance)); err != nil {
			t.Fatalf("Failed to fund user: %v", err)
		}
	}
	return user
}

func TestService_DepositApproval(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice@example.com", 0)

	dep, err := env.service.RequestDeposit(user.ID, decimal.NewFromInt(300))
	if err != nil {
		t.Fatalf("RequestDeposit failed: %v", err)
	}
	if dep.Status != models.TxPending {
		t.Errorf("Expected pending status, got %s", dep.Status)
	}

	// Not credited until approved
	balance, _ := env.service.Balance(user.ID)
	if !balance.IsZero() {
		t.Errorf("Expected zero balance before approval, got %s", balance)
	}

	decided, err := env.service.Decide(dep.ID, true)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if decided.Status != models.TxApproved {
		t.Errorf("Expected approved status, got %s", decided.Status)
	}

	balance, _ = env.service.Balance(user.ID)
	if !balance.Equal(decimal.NewFromInt(300)) {
		t.Errorf("Expected balance 300 after approval, got %s", balance)
	}
}

func TestService_DepositRejection(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "bob@example.com", 0)

	dep, _ := env.service.RequestDeposit(user.ID, decimal.NewFromInt(300))
	if _, err := env.service.Decide(dep.ID, false); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	balance, _ := env.service.Balance(user.ID)
	if !balance.IsZero() {
		t.Errorf("Expected zero balance after rejection, got %s", balance)
	}
}

func TestService_DecideIsSingleShot(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "carol@example.com", 0)

	dep, _ := env.service.RequestDeposit(user.ID, decimal.NewFromInt(100))
	if _, err := env.service.Decide(dep.ID, true); err != nil {
		t.Fatalf("First decision failed: %v", err)
	}
	// A second decision must not credit again
	if _, err := env.service.Decide(dep.ID, true); err != ErrNotFound {
		t.Fatalf("Expected ErrNotFound on second decision, got %v", err)
	}

	balance, _ := env.service.Balance(user.ID)
	if !balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected balance credited once, got %s", balance)
	}
}

func TestService_WithdrawalHoldAndRefund(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "dave@example.com", 500)

	wd, err := env.service.RequestWithdrawal(user.ID, decimal.NewFromInt(200))
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}

	// Hold taken immediately
	balance, _ := env.service.Balance(user.ID)
	if !balance.Equal(decimal.NewFromInt(300)) {
		t.Errorf("Expected balance 300 after hold, got %s", balance)
	}

	// Rejection refunds the hold
	if _, err := env.service.Decide(wd.ID, false); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	balance, _ = env.service.Balance(user.ID)
	if !balance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected balance 500 after refund, got %s", balance)
	}
}

func TestService_WithdrawalInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "erin@example.com", 100)

	_, err := env.service.RequestWithdrawal(user.ID, decimal.NewFromInt(200))
	if err != ErrInsufficientFunds {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}

	balance, _ := env.service.Balance(user.ID)
	if !balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected balance untouched, got %s", balance)
	}
	pending, _ := env.service.Pending()
	if len(pending) != 0 {
		t.Errorf("Expected no pending transactions, got %d", len(pending))
	}
}

func TestService_History(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "frank@example.com", 1000)

	env.service.RequestDeposit(user.ID, decimal.NewFromInt(100))
	env.service.RequestWithdrawal(user.ID, decimal.NewFromInt(50))
	env.service.RequestDeposit(user.ID, decimal.NewFromInt(200))

	all, err := env.service.History(user.ID, "", 1, 25)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 transactions, got %d", len(all))
	}

	deposits, _ := env.service.History(user.ID, models.TxDeposit, 1, 25)
	if len(deposits) != 2 {
		t.Errorf("Expected 2 deposits, got %d", len(deposits))
	}

	paged, _ := env.service.History(user.ID, "", 1, 2)
	if len(paged) != 2 {
		t.Errorf("Expected page of 2, got %d", len(paged))
	}
}

func TestService_RequestValidation(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "grace@example.com", 100)

	if _, err := env.service.RequestDeposit(user.ID, decimal.Zero); err != ErrInvalidAmount {
		t.Errorf("Expected ErrInvalidAmount for zero deposit, got %v", err)
	}
	if _, err := env.service.RequestWithdrawal(user.ID, decimal.NewFromInt(-5)); err != ErrInvalidAmount {
		t.Errorf("Expected ErrInvalidAmount for negative withdrawal, got %v", err)
	}
}

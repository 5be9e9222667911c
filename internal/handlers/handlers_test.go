package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oaklinehq/oakline/internal/config"
	"github.com/oaklinehq/oakline/internal/middleware"
	"github.com/oaklinehq/oakline/internal/models"
	"github.com/oaklinehq/oakline/internal/services/analytics"
	"github.com/oaklinehq/oakline/internal/services/auth"
	"github.com/oaklinehq/oakline/internal/services/funds"
	"github.com/oaklinehq/oakline/internal/services/invest"
	"github.com/oaklinehq/oakline/internal/storage"
)

type testServer struct {
	server *httptest.Server
	users  *storage.UserRepository
}

func newTestServer(t *testing.T) *testServer {
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

	cfg := &config.Config{
		Environment:     "development",
		SecretKey:       "test-secret",
		SessionDuration: time.Hour,
	}

	userRepo := storage.NewUserRepository(db)
	sessionRepo := storage.NewSessionRepository(db)
	balanceRepo := storage.NewBalanceRepository(db)
	investmentRepo := storage.NewInvestmentRepository(db)
	transactionRepo := storage.NewTransactionRepository(db)

	authService := auth.NewService(cfg, userRepo, sessionRepo)
	investService := invest.NewService(investmentRepo, balanceRepo, transactionRepo, userRepo, nil, nil)
	fundsService := funds.NewService(balanceRepo, transactionRepo, nil)

	h := New(cfg, authService, investService, fundsService, analytics.NewService(), userRepo)
	authMiddleware := middleware.NewAuth(authService)

	mux := http.NewServeMux()
	mux.HandleFunc("/register", h.Register)
	mux.HandleFunc("/login", h.Login)
	mux.Handle("/api/me", authMiddleware.RequireAuth(http.HandlerFunc(h.Me)))
	mux.Handle("/api/summary", authMiddleware.RequireAuth(http.HandlerFunc(h.Summary)))
	mux.Handle("/api/investments", authMiddleware.RequireAuth(http.HandlerFunc(h.CreateInvestment)))
	mux.Handle("/api/funds/deposit", authMiddleware.RequireAuth(http.HandlerFunc(h.Deposit)))
	mux.Handle("/api/admin/transactions/", authMiddleware.RequireAdmin(http.HandlerFunc(h.AdminDecideTransaction)))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testServer{server: server, users: userRepo}
}

func (ts *testServer) post(t *testing.T, path, token string, body interface{}) (*http.Response, apiResponse) {
	t.Helper()
	payload, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, ts.server.URL+path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request to %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	var decoded apiResponse
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (ts *testServer) registerAndLogin(t *testing.T, email string) string {
	t.Helper()
	resp, _ := ts.post(t, "/register", "", map[string]string{
		"email": email, "password": "password123", "name": "Test User",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Register returned %d", resp.StatusCode)
	}

	resp, body := ts.post(t, "/login", "", map[string]string{
		"email": email, "password": "password123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Login returned %d", resp.StatusCode)
	}
	data := body.Data.(map[string]interface{})
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatal("Expected a token from login")
	}
	return token
}

func TestDepositApproveInvestFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin(t, "alice@example.com")

	// Request a deposit
	resp, body := ts.post(t, "/api/funds/deposit", token, map[string]interface{}{"amount": "500"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Deposit returned %d: %s", resp.StatusCode, body.Message)
	}
	depData := body.Data.(map[string]interface{})
	depID := depData["id"].(string)

	// A regular user must not reach admin routes
	resp, _ = ts.post(t, fmt.Sprintf("/api/admin/transactions/%s/approve", depID), token, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("Expected 403 for non-admin, got %d", resp.StatusCode)
	}

	// Promote an admin and approve the deposit
	adminToken := ts.registerAndLogin(t, "admin@example.com")
	admin, _ := ts.users.GetByEmail("admin@example.com")
	admin.Role = models.RoleAdmin
	if err := ts.users.Update(admin); err != nil {
		t.Fatalf("Failed to promote admin: %v", err)
	}

	resp, body = ts.post(t, fmt.Sprintf("/api/admin/transactions/%s/approve", depID), adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Approve returned %d: %s", resp.StatusCode, body.Message)
	}

	// Open an investment with the credited balance
	resp, body = ts.post(t, "/api/investments", token, map[string]interface{}{
		"principal": "100", "duration_days": 10,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("CreateInvestment returned %d: %s", resp.StatusCode, body.Message)
	}
	invData := body.Data.(map[string]interface{})
	if invData["guaranteed_payout"] != "200" {
		t.Errorf("Expected guaranteed payout 200, got %v", invData["guaranteed_payout"])
	}

	// Overdrawing must be rejected
	resp, _ = ts.post(t, "/api/investments", token, map[string]interface{}{
		"principal": "10000", "duration_days": 10,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected 400 for overdraw, got %d", resp.StatusCode)
	}
}

func TestUnauthorizedAccess(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.post(t, "/api/funds/deposit", "", map[string]interface{}{"amount": "100"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without a token, got %d", resp.StatusCode)
	}
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.post(t, "/register", "", map[string]string{
		"email": "short@example.com", "password": "tiny", "name": "Shorty",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected 400 for short password, got %d", resp.StatusCode)
	}

	resp, _ = ts.post(t, "/register", "", map[string]string{
		"email": "x@example.com", "password": "password123", "name": "X",
		"referral_code": "BOGUS123",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected 400 for bogus referral code, got %d", resp.StatusCode)
	}
}

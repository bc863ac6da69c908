package account

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func newTestApp(repo Repository) *fiber.App {
	app := fiber.New()
	matcher := PlaintextMatcher{}
	handler := NewHandler(NewService(repo, matcher), repo, matcher)
	handler.RegisterRoutes(app)
	return app
}

const createTestUserJSON = `{"username":"testuser","email":"test@example.com","password":"password123","firstName":"Test","lastName":"User","phone":"+1-555-9999"}`

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request to %s failed: %v", path, err)
	}
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(b)
}

func TestCreateAccount_Created(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	app := newTestApp(repo)

	status, body := postJSON(t, app, "/api/v1/accounts", createTestUserJSON)
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}

	var resp Response
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.ID == 0 {
		t.Fatalf("expected assigned id, got %+v", resp)
	}
	if resp.Status == nil || *resp.Status != "ACTIVE" {
		t.Fatalf("expected default ACTIVE status, got %v", resp.Status)
	}
	if resp.CreatedAt == nil {
		t.Fatalf("expected createdAt to be stamped")
	}
	if strings.Contains(body, "password") {
		t.Fatalf("response body should not expose password field: %s", body)
	}
	if strings.Contains(body, "updatedAt") {
		t.Fatalf("response body should not expose updatedAt field: %s", body)
	}
}

func TestCreateAccount_DuplicateUsername(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	app := newTestApp(repo)

	if status, body := postJSON(t, app, "/api/v1/accounts", createTestUserJSON); status != fiber.StatusCreated {
		t.Fatalf("seed create failed: %d %s", status, body)
	}

	status, body := postJSON(t, app, "/api/v1/accounts", createTestUserJSON)
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409 on duplicate username, got %d: %s", status, body)
	}
	if !strings.Contains(body, "username") {
		t.Fatalf("expected username duplicate message, got %s", body)
	}

	accounts, _ := repo.FindAll(context.Background())
	if len(accounts) != 1 {
		t.Fatalf("expected the first row to remain the only one, got %d", len(accounts))
	}
}

func TestCreateAccount_DuplicateEmail(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	app := newTestApp(repo)

	if status, body := postJSON(t, app, "/api/v1/accounts", createTestUserJSON); status != fiber.StatusCreated {
		t.Fatalf("seed create failed: %d %s", status, body)
	}

	second := `{"username":"anotheruser","email":"test@example.com","password":"password123"}`
	status, body := postJSON(t, app, "/api/v1/accounts", second)
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409 on duplicate email, got %d: %s", status, body)
	}
	if !strings.Contains(body, "email") {
		t.Fatalf("expected email duplicate message, got %s", body)
	}

	accounts, _ := repo.FindAll(context.Background())
	if len(accounts) != 1 {
		t.Fatalf("expected the first row to remain the only one, got %d", len(accounts))
	}
}

func TestCreateAccount_MalformedBody(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	app := newTestApp(repo)

	status, _ := postJSON(t, app, "/api/v1/accounts", "{not json")
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 on malformed body, got %d", status)
	}
}

func TestVerifyCredentials_Success(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	app := newTestApp(repo)

	if status, body := postJSON(t, app, "/api/v1/accounts", createTestUserJSON); status != fiber.StatusCreated {
		t.Fatalf("seed create failed: %d %s", status, body)
	}

	status, body := postJSON(t, app, "/api/v1/accounts/verify", `{"username":"testuser","password":"password123"}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var resp verifyResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !resp.Verified {
		t.Fatalf("expected verified true, got %s", body)
	}
	if resp.Message != "Credentials verified successfully" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	if resp.Account == nil || resp.Account.LastLoginAt == nil {
		t.Fatalf("expected account with lastLoginAt set, got %s", body)
	}
	if strings.Contains(body, "password") {
		t.Fatalf("verify response should not expose password: %s", body)
	}

	stored, err := repo.FindByUsername(context.Background(), "testuser")
	if err != nil {
		t.Fatalf("account lookup failed: %v", err)
	}
	if stored.LastLoginAt == nil {
		t.Fatalf("lastLoginAt not persisted")
	}
}

func TestVerifyCredentials_RefreshesLastLogin(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	app := newTestApp(repo)

	if status, body := postJSON(t, app, "/api/v1/accounts", createTestUserJSON); status != fiber.StatusCreated {
		t.Fatalf("seed create failed: %d %s", status, body)
	}

	verify := `{"username":"testuser","password":"password123"}`
	postJSON(t, app, "/api/v1/accounts/verify", verify)
	first, _ := repo.FindByUsername(context.Background(), "testuser")

	time.Sleep(time.Millisecond)
	postJSON(t, app, "/api/v1/accounts/verify", verify)
	second, _ := repo.FindByUsername(context.Background(), "testuser")

	if first.LastLoginAt == nil || second.LastLoginAt == nil {
		t.Fatalf("lastLoginAt missing after verification")
	}
	if !second.LastLoginAt.After(*first.LastLoginAt) {
		t.Fatalf("expected lastLoginAt to advance, got %v then %v", first.LastLoginAt, second.LastLoginAt)
	}
}

func TestVerifyCredentials_UnknownUsername(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	app := newTestApp(repo)

	status, body := postJSON(t, app, "/api/v1/accounts/verify", `{"username":"ghost","password":"whatever"}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	var resp verifyResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Verified || resp.Message != "Username not found" || resp.Account != nil {
		t.Fatalf("unexpected verify outcome: %s", body)
	}
}

func TestVerifyCredentials_WrongPassword(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	app := newTestApp(repo)

	if status, body := postJSON(t, app, "/api/v1/accounts", createTestUserJSON); status != fiber.StatusCreated {
		t.Fatalf("seed create failed: %d %s", status, body)
	}

	status, body := postJSON(t, app, "/api/v1/accounts/verify", `{"username":"testuser","password":"wrong"}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	var resp verifyResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Verified || resp.Message != "Invalid password" || resp.Account != nil {
		t.Fatalf("unexpected verify outcome: %s", body)
	}

	stored, _ := repo.FindByUsername(context.Background(), "testuser")
	if stored.LastLoginAt != nil {
		t.Fatalf("failed verification must not touch lastLoginAt")
	}
}

func TestVerifyCredentials_InactiveAccount(t *testing.T) {
	for _, status := range []Status{StatusInactive, StatusSuspended} {
		repo := NewInMemoryRepository([]Account{{
			ID:       1,
			Username: "dormant",
			Password: "password123",
			Status:   status,
		}})
		app := newTestApp(repo)

		code, body := postJSON(t, app, "/api/v1/accounts/verify", `{"username":"dormant","password":"password123"}`)
		if code != fiber.StatusOK {
			t.Fatalf("expected 200 for %s account, got %d", status, code)
		}

		var resp verifyResponse
		if err := json.Unmarshal([]byte(body), &resp); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if resp.Verified || resp.Message != "Account is not active" || resp.Account != nil {
			t.Fatalf("unexpected outcome for %s account: %s", status, body)
		}

		stored, _ := repo.FindByUsername(context.Background(), "dormant")
		if stored.LastLoginAt != nil {
			t.Fatalf("failed verification must not touch lastLoginAt")
		}
	}
}

func TestListAccounts(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	app := newTestApp(repo)

	postJSON(t, app, "/api/v1/accounts", createTestUserJSON)
	postJSON(t, app, "/api/v1/accounts", `{"username":"anotheruser","email":"another@example.com","password":"pw"}`)

	req := httptest.NewRequest("GET", "/api/v1/accounts", nil)
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("list request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	b, _ := io.ReadAll(res.Body)
	var listed []Response
	if err := json.Unmarshal(b, &listed); err != nil {
		t.Fatalf("invalid list body: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(listed))
	}

	usernames := map[string]bool{}
	for _, r := range listed {
		usernames[r.Username] = true
	}
	if !usernames["testuser"] || !usernames["anotheruser"] {
		t.Fatalf("list missing expected accounts: %s", string(b))
	}
	if strings.Contains(string(b), "password") {
		t.Fatalf("list response should not expose password: %s", string(b))
	}
}

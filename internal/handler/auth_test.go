package handler_test

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/littlelemon/api/internal/auth"
	"github.com/littlelemon/api/internal/handler"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func setupAuthRouter(store *mockUserStore) *chi.Mux {
	h := handler.NewAuthHandler(store, testSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func seedUser(t *testing.T, store *mockUserStore, username, password string) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	id := int64(len(store.users) + 1)
	store.users[id] = mockUser(id, username, string(hashed))
}

// --- Register ---

func TestRegister_Valid(t *testing.T) {
	store := newMockUserStore()
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/register", map[string]string{
		"username": "alice",
		"password": "securepass",
		"email":    "alice@test.com",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["username"] != "alice" {
		t.Errorf("username: got %v, want alice", resp["username"])
	}
	if resp["email"] != "alice@test.com" {
		t.Errorf("email: got %v, want alice@test.com", resp["email"])
	}
	if _, exists := resp["hashed_password"]; exists {
		t.Error("response must not include hashed_password")
	}
}

func TestRegister_HashesPassword(t *testing.T) {
	store := newMockUserStore()
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/register", map[string]string{
		"username": "alice",
		"password": "securepass",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusCreated)
	}

	var stored string
	for _, u := range store.users {
		stored = u.HashedPassword
	}
	if stored == "securepass" {
		t.Fatal("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte("securepass")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	store := newMockUserStore()
	seedUser(t, store, "alice", "pass")
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/register", map[string]string{
		"username": "alice",
		"password": "otherpass",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	router := setupAuthRouter(newMockUserStore())

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing username", map[string]string{"password": "pass"}},
		{"missing password", map[string]string{"username": "alice"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, router, "POST", "/auth/register", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
			}
		})
	}
}

// --- Login ---

func TestLogin_Valid(t *testing.T) {
	store := newMockUserStore()
	seedUser(t, store, "alice", "securepass")
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"username": "alice",
		"password": "securepass",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	tokenStr, _ := resp["access_token"].(string)
	if tokenStr == "" {
		t.Fatal("expected access_token in response")
	}
	claims, err := auth.ValidateToken(testSecret, tokenStr)
	if err != nil {
		t.Fatalf("returned token does not validate: %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("token username: got %v, want alice", claims.Username)
	}
	if resp["refresh_token"] == "" {
		t.Error("expected refresh_token in response")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	store := newMockUserStore()
	seedUser(t, store, "alice", "securepass")
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"username": "alice",
		"password": "wrongpass",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	router := setupAuthRouter(newMockUserStore())

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"username": "ghost",
		"password": "pass",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

// --- Refresh ---

func TestRefresh_Valid(t *testing.T) {
	store := newMockUserStore()
	seedUser(t, store, "alice", "securepass")
	router := setupAuthRouter(store)

	refresh, err := auth.GenerateRefreshToken(testSecret, 1)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]string{
		"refresh_token": refresh,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["access_token"] == "" {
		t.Error("expected fresh access_token")
	}
}

func TestRefresh_InvalidToken(t *testing.T) {
	router := setupAuthRouter(newMockUserStore())

	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]string{
		"refresh_token": "not-a-jwt",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/healthvault/auth/internal/http/handlers"
)

func setupTestServer() *httptest.Server {
	h := handlers.New()
	r := chi.NewRouter()
	h.Routes(r)
	return httptest.NewServer(r)
}

func TestPasswordLogin_PostReturnsGoneWithFixedBody(t *testing.T) {
	server := setupTestServer()
	defer server.Close()

	body := strings.NewReader(`{"email":"a@b.com","password":"hunter2"}`)
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusGone {
		t.Fatalf("expected 410, got %d", resp.StatusCode)
	}

	var got struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Error != "password_login_removed" {
		t.Fatalf("unexpected error field: %q", got.Error)
	}
	if got.Message == "" {
		t.Fatal("missing message field")
	}
}

func TestPasswordLogin_BodyIsIgnored(t *testing.T) {
	server := setupTestServer()
	defer server.Close()

	// Same answer regardless of payload, including none at all
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusGone {
		t.Fatalf("expected 410, got %d", resp.StatusCode)
	}
}

func TestPasswordLogin_OtherVerbsNotServed(t *testing.T) {
	server := setupTestServer()
	defer server.Close()

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		req, _ := http.NewRequest(method, server.URL+"/api/auth/login", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405, got %d", method, resp.StatusCode)
		}
	}
}

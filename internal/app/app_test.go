package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/healthvault/auth/internal/dialog"
	"github.com/healthvault/auth/internal/domain"
	"github.com/healthvault/auth/pkg/config"
)

func testConfig(apiURL, tokenFile string) *config.Config {
	return &config.Config{
		API: config.APIConfig{
			BaseURL: apiURL,
			Timeout: 5 * time.Second,
		},
		Session: config.SessionConfig{
			TokenFile: tokenFile,
			TokenTTL:  time.Hour,
		},
		Dialog: config.DialogConfig{
			CooldownSeconds: 60,
		},
	}
}

func TestNew_ResolvesSessionFromConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/auth/me" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user": &domain.User{ID: 1, Email: "a@b.com", Role: domain.RolePatient},
		})
	}))
	defer srv.Close()

	a, err := New(testConfig(srv.URL, ""), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	a.Sessions.Start(context.Background())

	if u := a.Sessions.User(); u == nil || u.Email != "a@b.com" {
		t.Fatalf("session not resolved: %+v", u)
	}
	if a.Dialog.Step() != dialog.StepForm {
		t.Fatalf("dialog step = %q, want form", a.Dialog.Step())
	}
}

func TestNew_PersistsTokenThroughConfiguredFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/register/verify" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"message": "verified",
			"user":    &domain.User{ID: 7, Email: "d@x.com", Role: domain.RoleDoctor},
			"token":   "issued-token",
		})
	}))
	defer srv.Close()

	tokenFile := filepath.Join(t.TempDir(), "session", "token")
	a, err := New(testConfig(srv.URL, tokenFile), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	res := a.Sessions.VerifyRegistration(context.Background(), "d@x.com", "000000")
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}

	data, err := os.ReadFile(tokenFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "issued-token" {
		t.Fatalf("stored token = %q, want %q", data, "issued-token")
	}
}

func TestNew_MemoryStoreBacksOutgoingAuthorization(t *testing.T) {
	var lastAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/register/verify":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"message": "verified",
				"user":    &domain.User{ID: 7, Email: "d@x.com", Role: domain.RoleDoctor},
				"token":   "issued-token",
			})
		case "/v1/auth/me":
			lastAuth = r.Header.Get("Authorization")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"user": &domain.User{ID: 7, Email: "d@x.com", Role: domain.RoleDoctor},
			})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	a, err := New(testConfig(srv.URL, ""), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	a.Sessions.VerifyRegistration(context.Background(), "d@x.com", "000000")
	a.Sessions.RefreshSession(context.Background())

	if lastAuth != "Bearer issued-token" {
		t.Fatalf("Authorization = %q, want bearer with the issued token", lastAuth)
	}
}

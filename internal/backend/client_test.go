package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/healthvault/auth/internal/domain"
)

type staticTokens struct {
	token string
}

func (s staticTokens) Load(context.Context) (string, error) {
	return s.token, nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 5*time.Second, staticTokens{token: token}), server
}

func TestClient_Register_SendsDiscriminatedProfile(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/register" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}

		var body struct {
			Email   string         `json:"email"`
			Profile domain.Profile `json:"profile"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Profile.Doctor == nil || body.Profile.Patient != nil {
			t.Errorf("expected doctor-only profile on the wire, got %+v", body.Profile)
		}

		json.NewEncoder(w).Encode(Result{Success: true, Message: "code sent"})
	}, "")

	req := &domain.RegisterRequest{
		Email:    "d@x.com",
		FullName: "Dr. X",
		Role:     domain.RoleDoctor,
		Profile: domain.Profile{
			Role:   domain.RoleDoctor,
			Doctor: &domain.DoctorProfile{Specialization: "Cardiology"},
		},
	}

	res, err := client.Register(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Message != "code sent" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestClient_CurrentUser_SendsBearerToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer stored-token" {
			t.Errorf("expected bearer token, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user": &domain.User{ID: 5, Email: "a@b.com", Role: domain.RolePatient},
		})
	}, "stored-token")

	user, err := client.CurrentUser(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if user == nil || user.ID != 5 {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestClient_CurrentUser_UnauthorizedMeansNoSession(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, "")

	user, err := client.CurrentUser(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if user != nil {
		t.Fatalf("expected nil user for 401, got %+v", user)
	}
}

func TestClient_VerifyOTP_FoldsErrorBodyIntoResult(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "invalid or expired code",
			"code":  "INVALID_INPUT",
		})
	}, "")

	res, err := client.VerifyOTP(context.Background(), "a@b.com", "123456")
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Fatal("expected failure result")
	}
	if res.Message != "invalid or expired code" {
		t.Fatalf("error body not folded into result: %+v", res)
	}
}

func TestClient_VerifyOTP_FailureResultBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(Result{Success: false, Message: "too many attempts"})
	}, "")

	res, err := client.VerifyOTP(context.Background(), "a@b.com", "123456")
	if err != nil {
		t.Fatal(err)
	}
	if res.Success || res.Message != "too many attempts" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestClient_SendOTP_NormalizesEmailOnTheWire(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/otp/request" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body domain.LoginRequest
		json.NewDecoder(r.Body).Decode(&body)
		if body.Email != "a@b.com" {
			t.Errorf("email on the wire = %q, want normalized %q", body.Email, "a@b.com")
		}
		json.NewEncoder(w).Encode(Result{Success: true, Message: "code sent"})
	}, "")

	res, err := client.SendOTP(context.Background(), "  A@B.com ")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestClient_SendOTP_InvalidEmailNeverLeavesTheClient(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, "")

	res, err := client.SendOTP(context.Background(), "not-an-email")
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Fatal("expected failure result for an invalid email")
	}
	if res.Message == "" {
		t.Fatal("expected a message explaining the failure")
	}
	if called {
		t.Fatal("request was sent despite invalid email")
	}
}

func TestClient_ServerError_IsAGoError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, "")

	if _, err := client.SendOTP(context.Background(), "a@b.com"); err == nil {
		t.Fatal("expected a transport-level error for 500")
	}
}

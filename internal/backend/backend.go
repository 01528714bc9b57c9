package backend

import (
	"context"

	"github.com/healthvault/auth/internal/domain"
)

// Result is the uniform outcome of an auth backend call. Backend-reported
// failures arrive here with Success=false; Go errors are reserved for
// transport-level problems.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// VerifyResult extends Result for the OTP verification calls. User is set
// on success; Token only on the registration path (the login path manages
// its token server-side).
type VerifyResult struct {
	Result
	User  *domain.User `json:"user,omitempty"`
	Token string       `json:"token,omitempty"`
}

// Service is the remote HealthVault auth API contract.
type Service interface {
	// CurrentUser returns the user bound to the presented session token,
	// or nil when there is no live session.
	CurrentUser(ctx context.Context) (*domain.User, error)

	Register(ctx context.Context, req *domain.RegisterRequest) (*Result, error)
	VerifyRegistration(ctx context.Context, email, otp string) (*VerifyResult, error)

	SendOTP(ctx context.Context, email string) (*Result, error)
	VerifyOTP(ctx context.Context, email, otp string) (*VerifyResult, error)

	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, userID int64, updates *domain.ProfileUpdate) (*Result, error)
}

// TokenSource supplies the stored session token for outgoing calls.
// session.TokenStore satisfies it.
type TokenSource interface {
	Load(ctx context.Context) (string, error)
}

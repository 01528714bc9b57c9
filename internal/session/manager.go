package session

import (
	"context"
	"sync"
	"time"

	"github.com/healthvault/auth/internal/backend"
	"github.com/healthvault/auth/internal/domain"
	"github.com/healthvault/auth/pkg/events"
	"github.com/healthvault/auth/pkg/logger"
	"github.com/healthvault/auth/pkg/token"
)

// Generic messages returned when a backend call fails unexpectedly. The
// caller never sees a Go error; every operation resolves to a Result.
const (
	msgRegistrationFailed = "Registration failed. Please try again."
	msgVerificationFailed = "Verification failed. Please try again."
	msgOTPSendFailed      = "Could not send verification code. Please try again."
	msgLoginFailed        = "Login failed. Please try again."
	msgUpdateFailed       = "Profile update failed. Please try again."
	msgNoUser             = "No user logged in"
	msgNoChanges          = "No changes to save"
)

// Manager is the session context: the single owner of the authenticated
// user for this process. All mutation goes through its operations; readers
// use User/Loading or Subscribe.
type Manager struct {
	backend backend.Service
	tokens  TokenStore
	bus     events.Publisher // optional

	mu      sync.Mutex
	user    *domain.User
	loading bool
	subs    map[int]func(*domain.User)
	nextSub int
}

func NewManager(svc backend.Service, tokens TokenStore, bus events.Publisher) *Manager {
	return &Manager{
		backend: svc,
		tokens:  tokens,
		bus:     bus,
		subs:    make(map[int]func(*domain.User)),
	}
}

func (m *Manager) User() *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Subscribe registers fn to run on every session change. The returned
// function removes the subscription.
func (m *Manager) Subscribe(fn func(*domain.User)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Start resolves the initial session exactly once: loading is true while
// the lookup is in flight and always cleared, and the session ends up as
// either a user or nil. A stored token that is already expired is
// discarded without a network round trip.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}()

	if m.tokens != nil {
		if stored, err := m.tokens.Load(ctx); err == nil && stored != "" {
			if claims, err := token.Inspect(stored); err == nil && claims.Expired(time.Now()) {
				logger.InfoContext(ctx, "Stored session token expired, clearing")
				if err := m.tokens.Clear(ctx); err != nil {
					logger.WarnContext(ctx, "Failed to clear expired token", "error", err)
				}
				m.setUser(nil)
				return
			}
		}
	}

	user, err := m.backend.CurrentUser(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to resolve current session", "error", err)
		m.setUser(nil)
		return
	}
	m.setUser(user)
}

func (m *Manager) Register(ctx context.Context, req *domain.RegisterRequest) *backend.Result {
	res, err := m.backend.Register(ctx, req)
	if err != nil {
		logger.ErrorContext(ctx, "Registration call failed", "error", err, "email", req.Email)
		return &backend.Result{Success: false, Message: msgRegistrationFailed}
	}
	if res.Success {
		m.publish(ctx, events.OTPRequested, events.OTPRequestedEvent{
			Email:       req.Email,
			Purpose:     events.PurposeRegistration,
			RequestedAt: time.Now(),
		})
	}
	return res
}

// VerifyRegistration establishes the session on success: the returned user
// becomes the session user and the issued token is persisted.
func (m *Manager) VerifyRegistration(ctx context.Context, email, otp string) *backend.Result {
	res, err := m.backend.VerifyRegistration(ctx, email, otp)
	if err != nil {
		logger.ErrorContext(ctx, "Registration verification call failed", "error", err, "email", email)
		return &backend.Result{Success: false, Message: msgVerificationFailed}
	}

	if res.Success && res.User != nil {
		m.setUser(res.User)
		if res.Token != "" && m.tokens != nil {
			if err := m.tokens.Save(ctx, res.Token); err != nil {
				logger.ErrorContext(ctx, "Failed to persist session token", "error", err)
			}
		}
		m.publishEstablished(ctx, res.User)
	}
	return &res.Result
}

func (m *Manager) SendOTP(ctx context.Context, email string) *backend.Result {
	res, err := m.backend.SendOTP(ctx, email)
	if err != nil {
		logger.ErrorContext(ctx, "OTP request call failed", "error", err, "email", email)
		return &backend.Result{Success: false, Message: msgOTPSendFailed}
	}
	if res.Success {
		m.publish(ctx, events.OTPRequested, events.OTPRequestedEvent{
			Email:       email,
			Purpose:     events.PurposeLogin,
			RequestedAt: time.Now(),
		})
	}
	return res
}

// VerifyOTPAndLogin establishes the session on success. Token persistence
// on the login path is the backend's responsibility.
func (m *Manager) VerifyOTPAndLogin(ctx context.Context, email, otp string) *backend.Result {
	res, err := m.backend.VerifyOTP(ctx, email, otp)
	if err != nil {
		logger.ErrorContext(ctx, "Login verification call failed", "error", err, "email", email)
		return &backend.Result{Success: false, Message: msgLoginFailed}
	}

	if res.Success && res.User != nil {
		m.setUser(res.User)
		m.publishEstablished(ctx, res.User)
	}
	return &res.Result
}

// Logout is best-effort: a backend failure is logged, never surfaced, and
// the local session and stored token are cleared regardless.
func (m *Manager) Logout(ctx context.Context) {
	prev := m.User()

	if err := m.backend.Logout(ctx); err != nil {
		logger.WarnContext(ctx, "Backend logout failed", "error", err)
	}

	if m.tokens != nil {
		if err := m.tokens.Clear(ctx); err != nil {
			logger.WarnContext(ctx, "Failed to clear stored token", "error", err)
		}
	}
	m.setUser(nil)

	if prev != nil {
		m.publish(ctx, events.SessionCleared, events.SessionClearedEvent{
			UserID:    prev.ID,
			Email:     prev.Email,
			ClearedAt: time.Now(),
		})
	}
}

// RefreshSession re-fetches the current user. Fail-closed: any failure
// clears the session.
func (m *Manager) RefreshSession(ctx context.Context) {
	user, err := m.backend.CurrentUser(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Session refresh failed", "error", err)
		m.setUser(nil)
		return
	}
	m.setUser(user)
}

func (m *Manager) UpdateProfile(ctx context.Context, updates *domain.ProfileUpdate) *backend.Result {
	user := m.User()
	if user == nil {
		return &backend.Result{Success: false, Message: msgNoUser}
	}
	if updates == nil || updates.IsEmpty() {
		return &backend.Result{Success: false, Message: msgNoChanges}
	}

	res, err := m.backend.UpdateProfile(ctx, user.ID, updates)
	if err != nil {
		logger.ErrorContext(ctx, "Profile update call failed", "error", err, "user_id", user.ID)
		return &backend.Result{Success: false, Message: msgUpdateFailed}
	}

	if res.Success {
		m.RefreshSession(ctx)
	}
	return res
}

func (m *Manager) setUser(user *domain.User) {
	m.mu.Lock()
	m.user = user
	subs := make([]func(*domain.User), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(user)
	}
}

func (m *Manager) publishEstablished(ctx context.Context, user *domain.User) {
	m.publish(ctx, events.SessionEstablished, events.SessionEstablishedEvent{
		UserID:        user.ID,
		Email:         user.Email,
		Role:          user.Role,
		EstablishedAt: time.Now(),
	})
}

func (m *Manager) publish(ctx context.Context, subject string, payload interface{}) {
	if m.bus == nil {
		return
	}
	if err := m.bus.Publish(ctx, subject, payload); err != nil {
		logger.WarnContext(ctx, "Failed to publish auth event", "error", err, "subject", subject)
	}
}

package dialog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/healthvault/auth/internal/backend"
	"github.com/healthvault/auth/internal/domain"
)

type Step string

const (
	StepForm Step = "form"
	StepOTP  Step = "otp"
)

type Tab string

const (
	TabLogin    Tab = "login"
	TabRegister Tab = "register"
)

// Sessions is the slice of the session context the dialog drives.
// *session.Manager satisfies it.
type Sessions interface {
	Register(ctx context.Context, req *domain.RegisterRequest) *backend.Result
	SendOTP(ctx context.Context, email string) *backend.Result
	VerifyRegistration(ctx context.Context, email, otp string) *backend.Result
	VerifyOTPAndLogin(ctx context.Context, email, otp string) *backend.Result
	User() *domain.User
}

// Draft holds the form fields while the dialog is open. Which profile
// fields matter depends on Role; the payload sent to the backend carries
// exactly one role shape.
type Draft struct {
	Email    string
	FullName string
	Role     string

	// patient fields
	Phone       string
	DateOfBirth string
	Address     string

	// doctor fields
	Specialization    string
	LicenseNumber     string
	YearsOfExperience int
}

type Config struct {
	CooldownSeconds  int
	TickInterval     time.Duration
	SettleDelay      time.Duration
	DoctorDashboard  string
	PatientDashboard string
}

func (c Config) withDefaults() Config {
	if c.CooldownSeconds <= 0 {
		c.CooldownSeconds = 60
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.DoctorDashboard == "" {
		c.DoctorDashboard = "/doctor/dashboard"
	}
	if c.PatientDashboard == "" {
		c.PatientDashboard = "/patient/dashboard"
	}
	return c
}

// Machine is the two-step auth dialog: collect identity in the form step,
// collect the mailed code in the OTP step, then hand the session off and
// redirect. Tab and step are independent; the tab captured when the OTP
// step was entered decides which verification path runs.
type Machine struct {
	sessions Sessions
	notify   Notifier
	nav      Navigator
	cfg      Config

	mu        sync.Mutex
	tab       Tab
	step      Step
	draft     Draft
	code      string
	cooldown  int
	countdown *Countdown
	busy      bool
	otpTab    Tab
}

func NewMachine(sessions Sessions, notify Notifier, nav Navigator, cfg Config) *Machine {
	if notify == nil {
		notify = LogNotifier{}
	}
	return &Machine{
		sessions: sessions,
		notify:   notify,
		nav:      nav,
		cfg:      cfg.withDefaults(),
		tab:      TabLogin,
		step:     StepForm,
	}
}

func (m *Machine) Step() Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.step
}

func (m *Machine) Tab() Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tab
}

func (m *Machine) Code() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.code
}

func (m *Machine) Cooldown() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cooldown
}

func (m *Machine) Draft() Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

func (m *Machine) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

func (m *Machine) SetTab(tab Tab) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tab = tab
}

func (m *Machine) SetDraft(d Draft) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft = d
}

// SetCode mirrors typing into the code field: non-digits are stripped and
// the value is truncated to six characters.
func (m *Machine) SetCode(raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.code = domain.NormalizeOTP(raw)
}

// Initiate validates the draft and asks the backend to mail a code. On
// success the dialog moves to the OTP step and the resend cooldown starts.
// Returns true only when the step transition happened.
func (m *Machine) Initiate(ctx context.Context) bool {
	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return false
	}
	m.busy = true
	tab := m.tab
	draft := m.draft
	m.mu.Unlock()
	defer m.setBusy(false)

	email := strings.ToLower(strings.TrimSpace(draft.Email))
	if email == "" {
		m.notify.Notify(Notification{
			Title:       "Email required",
			Description: "Enter your email address to continue",
			Severity:    SeverityError,
		})
		return false
	}
	if tab == TabRegister && strings.TrimSpace(draft.FullName) == "" {
		m.notify.Notify(Notification{
			Title:       "Name required",
			Description: "Enter your full name to continue",
			Severity:    SeverityError,
		})
		return false
	}

	var res *backend.Result
	if tab == TabRegister {
		res = m.sessions.Register(ctx, draft.registerRequest())
	} else {
		res = m.sessions.SendOTP(ctx, email)
	}

	if !res.Success {
		title := "Could not send code"
		if tab == TabRegister {
			title = "Registration failed"
		}
		m.notify.Notify(Notification{Title: title, Description: res.Message, Severity: SeverityError})
		return false
	}

	m.mu.Lock()
	m.step = StepOTP
	m.otpTab = tab
	m.startCooldownLocked()
	m.mu.Unlock()

	m.notify.Notify(Notification{
		Title:       "Code sent",
		Description: "We emailed you a 6-digit verification code",
		Severity:    SeveritySuccess,
	})
	return true
}

// Verify submits the entered code. A code that is not exactly six digits
// never reaches the backend. On success the dialog resets and a redirect
// to the role dashboard is scheduled after the settle delay; on failure
// the entered code stays in place so the user can correct it.
func (m *Machine) Verify(ctx context.Context) bool {
	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return false
	}
	m.busy = true
	code := m.code
	tab := m.otpTab
	email := strings.ToLower(strings.TrimSpace(m.draft.Email))
	m.mu.Unlock()
	defer m.setBusy(false)

	if !domain.ValidOTP(code) {
		m.notify.Notify(Notification{
			Title:       "Invalid code",
			Description: "Enter the 6-digit code from your email",
			Severity:    SeverityError,
		})
		return false
	}

	var res *backend.Result
	if tab == TabRegister {
		res = m.sessions.VerifyRegistration(ctx, email, code)
	} else {
		res = m.sessions.VerifyOTPAndLogin(ctx, email, code)
	}

	if !res.Success {
		m.notify.Notify(Notification{
			Title:       "Verification failed",
			Description: res.Message,
			Severity:    SeverityError,
		})
		return false
	}

	title := "Welcome back"
	if tab == TabRegister {
		title = "Account created"
	}
	m.notify.Notify(Notification{
		Title:       title,
		Description: "Redirecting to your dashboard",
		Severity:    SeveritySuccess,
	})

	m.scheduleRedirect()
	m.Close()
	return true
}

// Resend is a no-op while the cooldown is running; otherwise it replays
// Initiate with the retained draft.
func (m *Machine) Resend(ctx context.Context) bool {
	m.mu.Lock()
	if m.cooldown > 0 {
		m.mu.Unlock()
		return false
	}
	m.mu.Unlock()
	return m.Initiate(ctx)
}

// Back returns to the form step, keeping the entered fields but dropping
// the code and the cooldown.
func (m *Machine) Back() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCountdownLocked()
	m.step = StepForm
	m.code = ""
	m.cooldown = 0
}

// Close resets every transient field to its default. The session context
// is untouched.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCountdownLocked()
	m.step = StepForm
	m.tab = TabLogin
	m.draft = Draft{}
	m.code = ""
	m.cooldown = 0
}

func (m *Machine) setBusy(v bool) {
	m.mu.Lock()
	m.busy = v
	m.mu.Unlock()
}

func (m *Machine) startCooldownLocked() {
	m.stopCountdownLocked()
	m.cooldown = m.cfg.CooldownSeconds

	// A tick already in flight when the countdown is replaced must not
	// touch the new cooldown, so ticks check they still own the handle.
	var c *Countdown
	c = StartCountdown(m.cfg.CooldownSeconds, m.cfg.TickInterval, func(remaining int) {
		m.mu.Lock()
		if m.countdown == c {
			m.cooldown = remaining
		}
		m.mu.Unlock()
	})
	m.countdown = c
}

func (m *Machine) stopCountdownLocked() {
	if m.countdown != nil {
		m.countdown.Stop()
		m.countdown = nil
	}
}

// scheduleRedirect waits out the settle delay so session subscribers can
// observe the new user, then navigates by role. Patient dashboard is the
// fallback when the session has not propagated yet.
func (m *Machine) scheduleRedirect() {
	if m.nav == nil {
		return
	}
	go func() {
		time.Sleep(m.cfg.SettleDelay)
		path := m.cfg.PatientDashboard
		if u := m.sessions.User(); u != nil && u.Role == domain.RoleDoctor {
			path = m.cfg.DoctorDashboard
		}
		m.nav.Navigate(path)
	}()
}

func (d Draft) registerRequest() *domain.RegisterRequest {
	role := d.Role
	if role == "" {
		role = domain.RolePatient
	}

	req := &domain.RegisterRequest{
		Email:    d.Email,
		FullName: d.FullName,
		Role:     role,
		Profile:  domain.Profile{Role: role},
	}

	if role == domain.RoleDoctor {
		req.Profile.Doctor = &domain.DoctorProfile{
			Phone:             d.Phone,
			Specialization:    d.Specialization,
			LicenseNumber:     d.LicenseNumber,
			YearsOfExperience: d.YearsOfExperience,
		}
	} else {
		req.Profile.Patient = &domain.PatientProfile{
			Phone:       d.Phone,
			DateOfBirth: d.DateOfBirth,
			Address:     d.Address,
		}
	}

	req.Normalize()
	return req
}

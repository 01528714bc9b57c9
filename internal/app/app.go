// Package app assembles the auth client stack from configuration: the
// backend client, the token store, the session context, and the dialog.
package app

import (
	"fmt"

	"github.com/healthvault/auth/internal/backend"
	"github.com/healthvault/auth/internal/dialog"
	"github.com/healthvault/auth/internal/session"
	"github.com/healthvault/auth/pkg/config"
	"github.com/healthvault/auth/pkg/events"
	"github.com/healthvault/auth/pkg/logger"
)

type App struct {
	Sessions *session.Manager
	Dialog   *dialog.Machine
	Bus      events.EventBus

	store session.TokenStore
}

// New builds the full client stack from cfg. The token store prefers the
// configured file path, then redis, then process memory. The event bus is
// attached only when NATS_URL is set.
func New(cfg *config.Config, notify dialog.Notifier, nav dialog.Navigator) (*App, error) {
	store, err := newTokenStore(cfg.Session)
	if err != nil {
		return nil, err
	}

	var bus events.EventBus
	if cfg.NATS.URL != "" {
		bus, err = events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to start event bus: %w", err)
		}
	}

	client := backend.NewClient(cfg.API.BaseURL, cfg.API.Timeout, store)
	sessions := session.NewManager(client, store, bus)
	machine := dialog.NewMachine(sessions, notify, nav, dialog.Config{
		CooldownSeconds:  cfg.Dialog.CooldownSeconds,
		SettleDelay:      cfg.Dialog.SettleDelay,
		DoctorDashboard:  cfg.Dialog.DoctorDashboard,
		PatientDashboard: cfg.Dialog.PatientDashboard,
	})

	return &App{
		Sessions: sessions,
		Dialog:   machine,
		Bus:      bus,
		store:    store,
	}, nil
}

// Close releases external resources. Safe to call once on shutdown.
func (a *App) Close() {
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			logger.Warn("Failed to close event bus", "error", err)
		}
	}
	if c, ok := a.store.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			logger.Warn("Failed to close token store", "error", err)
		}
	}
}

func newTokenStore(cfg config.SessionConfig) (session.TokenStore, error) {
	switch {
	case cfg.TokenFile != "":
		return session.NewFileStore(cfg.TokenFile), nil
	case cfg.RedisURL != "":
		return session.NewRedisStore(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB, cfg.TokenTTL)
	default:
		return session.NewMemoryStore(), nil
	}
}

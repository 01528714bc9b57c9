package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/healthvault/auth/internal/app"
	"github.com/healthvault/auth/pkg/config"
	"github.com/healthvault/auth/pkg/events"
	"github.com/healthvault/auth/pkg/logger"
)

// sessiond runs the session context server-side: it restores the stored
// session on boot and relays auth lifecycle events onto the log.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	a, err := app.New(cfg, nil, nil)
	if err != nil {
		logger.Error("Failed to assemble auth client", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx := context.Background()
	a.Sessions.Start(ctx)
	if u := a.Sessions.User(); u != nil {
		logger.Info("Session restored", "email", u.Email, "role", u.Role)
	} else {
		logger.Info("No active session")
	}

	if a.Bus != nil {
		subjects := []string{events.SessionEstablished, events.SessionCleared, events.OTPRequested}
		for _, subject := range subjects {
			if err := a.Bus.Subscribe(subject, func(msg *events.Message) {
				logger.Info("Auth event", "subject", msg.Subject, "data", string(msg.Data))
			}); err != nil {
				logger.Warn("Failed to subscribe", "subject", subject, "error", err)
			}
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down session daemon")
}

package dialog

import (
	"github.com/healthvault/auth/pkg/logger"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is what the dialog emits toward the toast layer on every
// validation failure, backend failure, and success.
type Notification struct {
	Title       string
	Description string
	Severity    Severity
}

type Notifier interface {
	Notify(n Notification)
}

// Navigator performs the post-verification redirect. It targets global
// navigation, so firing after the dialog is gone is harmless.
type Navigator interface {
	Navigate(path string)
}

// LogNotifier is the default sink when no toast layer is attached.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notification) {
	switch n.Severity {
	case SeverityError:
		logger.Warn("Auth notification", "title", n.Title, "description", n.Description)
	default:
		logger.Info("Auth notification", "title", n.Title, "description", n.Description)
	}
}

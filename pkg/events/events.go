package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/healthvault/auth/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Auth lifecycle subjects
const (
	SessionEstablished = "auth.session.established"
	SessionCleared     = "auth.session.cleared"
	OTPRequested       = "auth.otp.requested"
)

type SessionEstablishedEvent struct {
	UserID        int64     `json:"user_id"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	EstablishedAt time.Time `json:"established_at"`
}

type SessionClearedEvent struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	ClearedAt time.Time `json:"cleared_at"`
}

type OTPRequestedEvent struct {
	Email       string    `json:"email"`
	Purpose     string    `json:"purpose"`
	RequestedAt time.Time `json:"requested_at"`
}

// OTP request purposes
const (
	PurposeLogin        = "login"
	PurposeRegistration = "registration"
)

// Package notify publishes run-completed events.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// RunEvent announces a finished forecast run.
type RunEvent struct {
	RunID     string    `json:"run_id"`
	City      string    `json:"city"`
	Model     string    `json:"model"`
	Horizon   int       `json:"horizon"`
	Features  []string  `json:"features"`
	Failed    []string  `json:"failed"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher sends run events.
type Publisher interface {
	Publish(ctx context.Context, event RunEvent) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, RunEvent) error { return nil }
func (Nop) Close() error                            { return nil }

// Config configures the NATS publisher. An empty URL disables publishing.
type Config struct {
	URL           string        `mapstructure:"url"`
	SubjectPrefix string        `mapstructure:"subject_prefix"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// NATS publishes events as JSON on <prefix>.<model>.
type NATS struct {
	conn    *nats.Conn
	prefix  string
	timeout time.Duration
}

// New returns a NATS publisher, or Nop when cfg.URL is empty.
func New(cfg Config) (Publisher, error) {
	if cfg.URL == "" {
		return Nop{}, nil
	}
	conn, err := nats.Connect(cfg.URL, nats.Name("weathercast"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return NewWithConn(conn, cfg.SubjectPrefix, cfg.Timeout), nil
}

// NewWithConn wraps an existing connection.
func NewWithConn(conn *nats.Conn, prefix string, timeout time.Duration) *NATS {
	if prefix == "" {
		prefix = "weathercast.runs"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NATS{conn: conn, prefix: prefix, timeout: timeout}
}

// Subject is the subject events of model are published on.
func (n *NATS) Subject(model string) string {
	return n.prefix + "." + strings.ToLower(model)
}

func (n *NATS) Publish(ctx context.Context, event RunEvent) error {
	if event.Model == "" {
		return errors.New("run event has no model")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	subject := n.Subject(event.Model)
	if err := n.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush subject %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection.
func (n *NATS) Close() error {
	return n.conn.Drain()
}

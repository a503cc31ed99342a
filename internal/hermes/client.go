package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Quarry's NATS subjects. The capture collaborator publishes observations on
// SubjectCaptureStored; quarry publishes everything else.
const (
	// SubjectCaptureStored carries one Capture from the browser-side tap.
	SubjectCaptureStored = "swarm.quarry.capture.stored"
	// SubjectStateUpdated announces a successful store write.
	SubjectStateUpdated = "swarm.quarry.state.updated"
	// SubjectReloadRequested asks the collaborator to refresh its capture source.
	SubjectReloadRequested = "swarm.quarry.reload.requested"
	// SubjectPanelOpened and SubjectPanelClosed are lifecycle hints that gate
	// capture attachment in the collaborator.
	SubjectPanelOpened = "swarm.quarry.panel.opened"
	SubjectPanelClosed = "swarm.quarry.panel.closed"
)

// StateUpdate is the notification payload emitted after each successful
// store write.
type StateUpdate struct {
	Count       int    `json:"count"`
	LastEventID string `json:"last_event_id,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}

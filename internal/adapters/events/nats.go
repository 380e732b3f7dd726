// Package events publishes todo change events. NATSPublisher sends them to
// a NATS server; Noop discards them.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jsamuelsen11/todo-resource-service/internal/domain/todo"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/config"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/requestid"
	"github.com/jsamuelsen11/todo-resource-service/internal/ports"
)

// Compile-time interface check.
var _ ports.EventPublisher = (*NATSPublisher)(nil)

const headerEventKind = "X-Event-Kind"

// Message is the JSON body of a published event.
type Message struct {
	Kind       string       `json:"kind"`
	ItemID     string       `json:"id"`
	OccurredAt time.Time    `json:"occurred_at"`
	Item       *ItemPayload `json:"item,omitempty"`
}

// ItemPayload is the item snapshot carried by non-delete events.
type ItemPayload struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newMessage(ev *todo.Event) Message {
	msg := Message{
		Kind:       ev.Kind.String(),
		ItemID:     ev.ItemID,
		OccurredAt: ev.OccurredAt,
	}
	if ev.Item != nil {
		msg.Item = &ItemPayload{
			ID:          ev.Item.ID,
			Title:       ev.Item.Title,
			Description: ev.Item.Description,
			Completed:   ev.Item.Completed,
			CreatedAt:   ev.Item.CreatedAt,
			UpdatedAt:   ev.Item.UpdatedAt,
		}
	}
	return msg
}

// NATSPublisher publishes events to "<prefix>.<kind>".
type NATSPublisher struct {
	nc      *nats.Conn
	prefix  string
	timeout time.Duration
}

// NewNATSPublisher connects to cfg.URL. The connection reconnects
// indefinitely; messages published while disconnected are buffered by the
// client.
func NewNATSPublisher(cfg *config.EventsConfig, logger *slog.Logger) (*NATSPublisher, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}

	opts := []nats.Option{
		nats.Name("todo-resource-service"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", slog.Any("error", err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", c.ConnectedUrlRedacted()))
		}),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, nats.Timeout(cfg.Timeout))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats %s: %w", url, err)
	}

	return &NATSPublisher{
		nc:      nc,
		prefix:  cfg.SubjectPrefix,
		timeout: cfg.Timeout,
	}, nil
}

// Subject returns the subject an event kind is published on.
func (p *NATSPublisher) Subject(kind todo.EventKind) string {
	return p.prefix + "." + kind.String()
}

// Publish implements ports.EventPublisher. Request and correlation IDs in
// ctx are copied into message headers.
func (p *NATSPublisher) Publish(ctx context.Context, ev todo.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(newMessage(&ev))
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", ev.Kind, err)
	}

	msg := &nats.Msg{
		Subject: p.Subject(ev.Kind),
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set(headerEventKind, ev.Kind.String())
	for name, id := range requestid.Headers(ctx) {
		msg.Header.Set(name, id)
	}

	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publishing to %s: %w", msg.Subject, err)
	}
	return nil
}

// Name implements ports.HealthChecker.
func (p *NATSPublisher) Name() string {
	return "events:nats"
}

// HealthCheck round-trips a PING to the server.
func (p *NATSPublisher) HealthCheck(ctx context.Context) error {
	if !p.nc.IsConnected() {
		return fmt.Errorf("nats: %s", p.nc.Status())
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if err := p.nc.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("draining nats connection: %w", err)
	}
	return nil
}

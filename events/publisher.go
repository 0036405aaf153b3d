// Package events publishes timesheet lifecycle events to a RabbitMQ topic
// exchange. The routing key is the event type, so consumers can bind to
// "timesheet.*" or to a single transition.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/warp/timesheet-engine/timesheet"
)

// Envelope is the message body put on the wire.
type Envelope struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// TimesheetData is the payload of every timesheet.* event.
type TimesheetData struct {
	UserID     string  `json:"user_id"`
	WeekStart  string  `json:"week_start"`
	Total      float64 `json:"total_hours"`
	Target     float64 `json:"target_hours"`
	ReviewedBy string  `json:"reviewed_by,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

// NewEnvelope wraps a lifecycle event for publishing.
func NewEnvelope(ev timesheet.Event, source, correlationID string) (*Envelope, error) {
	data, err := json.Marshal(TimesheetData{
		UserID:     string(ev.UserID),
		WeekStart:  ev.WeekStart.String(),
		Total:      ev.Total.Float64(),
		Target:     ev.Target.Float64(),
		ReviewedBy: string(ev.ReviewedBy),
		Reason:     ev.Reason,
	})
	if err != nil {
		return nil, err
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	return &Envelope{
		ID:            uuid.NewString(),
		Type:          string(ev.Type),
		Source:        source,
		Timestamp:     at.UTC(),
		CorrelationID: correlationID,
		Data:          data,
	}, nil
}

// UnmarshalData decodes the payload.
func (e *Envelope) UnmarshalData(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher implements timesheet.Notifier on top of an AMQP channel.
type Publisher struct {
	channel  Channel
	exchange string
	source   string
	logger   zerolog.Logger
	closers  []func() error
}

var _ timesheet.Notifier = (*Publisher)(nil)

// NewPublisher publishes on an already declared exchange.
func NewPublisher(ch Channel, exchange, source string, log zerolog.Logger) *Publisher {
	return &Publisher{
		channel:  ch,
		exchange: exchange,
		source:   source,
		logger:   log.With().Str("component", "events").Logger(),
	}
}

// Dial connects to the broker and declares the durable topic exchange.
func Dial(url, exchange, source string, log zerolog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	p := NewPublisher(ch, exchange, source, log)
	p.closers = []func() error{ch.Close, conn.Close}
	p.logger.Info().Str("exchange", exchange).Msg("connected to RabbitMQ")
	return p, nil
}

// Notify publishes ev. Failures are logged, never returned: the change the
// event describes has already been stored.
func (p *Publisher) Notify(ctx context.Context, ev timesheet.Event) {
	if err := p.Publish(ctx, ev); err != nil {
		p.logger.Error().Err(err).
			Str("event_type", string(ev.Type)).
			Str("user_id", string(ev.UserID)).
			Str("week_start", ev.WeekStart.String()).
			Msg("failed to publish timesheet event")
	}
}

// Publish sends ev and reports the outcome.
func (p *Publisher) Publish(ctx context.Context, ev timesheet.Event) error {
	env, err := NewEnvelope(ev, p.source, CorrelationID(ctx))
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		env.Type,   // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     env.ID,
			CorrelationId: env.CorrelationID,
			Timestamp:     env.Timestamp,
			Body:          body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug().
		Str("event_type", env.Type).
		Str("event_id", env.ID).
		Msg("event published")
	return nil
}

// Close releases the channel and connection opened by Dial.
func (p *Publisher) Close() error {
	var first error
	for _, c := range p.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	p.closers = nil
	return first
}

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// WithCorrelationID tags ctx so published events carry the request id.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

// CorrelationID returns the id set by WithCorrelationID, or "".
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

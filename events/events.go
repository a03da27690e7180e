// Package events publishes connection lifecycle and dispatch-error
// telemetry to NATS as an optional observability side-channel. It never
// participates in message delivery between connections or processes —
// cross-process broadcast stays out of scope per spec.md §1 — it only
// republishes events for an external subscriber (dashboards, alerting) to
// consume. Grounded on the disabled-by-default connection pattern in
// api/internal/events/publisher.go.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/wsforge-go/wsforge"
	"github.com/wsforge-go/wsforge/logger"
)

const (
	subjectConnected    = "wsforge.connection.connected"
	subjectDisconnected = "wsforge.connection.disconnected"
	subjectDispatchErr  = "wsforge.dispatch.error"
)

// Event is the envelope published on every subject below.
type Event struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	ConnID    string    `json:"conn_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher publishes Events to NATS. A Publisher with enabled=false is a
// safe no-op, so a host can wire it unconditionally and only pay for NATS
// when a URL is actually configured.
type Publisher struct {
	conn    *nats.Conn
	enabled bool
}

// Connect dials url and returns a Publisher. An empty url returns a
// disabled Publisher rather than an error, matching the teacher's
// degrade-don't-fail posture for this kind of optional side-channel.
func Connect(url string) *Publisher {
	if url == "" {
		logger.Broadcast().Info().Msg("events: no NATS URL configured, telemetry publishing disabled")
		return &Publisher{enabled: false}
	}

	conn, err := nats.Connect(url,
		nats.Name("wsforge"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(10),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			logger.Broadcast().Warn().Err(err).Msg("events: NATS error")
		}),
	)
	if err != nil {
		logger.Broadcast().Warn().Err(err).Str("url", url).Msg("events: failed to connect, telemetry publishing disabled")
		return &Publisher{enabled: false}
	}

	return &Publisher{conn: conn, enabled: true}
}

// Close closes the underlying NATS connection, if any.
func (p *Publisher) Close() {
	if p.enabled && p.conn != nil {
		p.conn.Close()
	}
}

func (p *Publisher) publish(subject string, ev Event) {
	if !p.enabled {
		return
	}
	ev.ID = uuid.NewString()
	ev.Subject = subject
	ev.Timestamp = time.Now()
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		logger.Broadcast().Warn().Err(err).Str("subject", subject).Msg("events: publish failed")
	}
}

// Connected publishes a connect lifecycle event. Suitable as (part of) a
// Router.OnConnect hook.
func (p *Publisher) Connected(_ *wsforge.ConnectionRegistry, id wsforge.ConnectionID) {
	p.publish(subjectConnected, Event{ConnID: string(id)})
}

// Disconnected publishes a disconnect lifecycle event. Suitable as (part
// of) a Router.OnDisconnect hook.
func (p *Publisher) Disconnected(_ *wsforge.ConnectionRegistry, id wsforge.ConnectionID) {
	p.publish(subjectDisconnected, Event{ConnID: string(id)})
}

// DispatchError publishes a dispatch-error telemetry event.
func (p *Publisher) DispatchError(id wsforge.ConnectionID, err error) {
	p.publish(subjectDispatchErr, Event{ConnID: string(id), Detail: err.Error()})
}

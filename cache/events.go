package cache

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/c360/sportscache/natsclient"
	"github.com/c360/sportscache/urn"
)

// EventSubjectPrefix is the NATS subject root cache lifecycle events are
// published under; consumers subscribe to "cache.events.>".
const EventSubjectPrefix = "cache.events"

// Event is one cache lifecycle notification.
type Event struct {
	Type   string    `json:"type"`
	URN    string    `json:"urn"`
	Kind   string    `json:"kind,omitempty"`
	Locale string    `json:"locale,omitempty"`
	Error  string    `json:"error,omitempty"`
	Time   time.Time `json:"time"`
}

// EventPublisher emits cache lifecycle events over NATS. Publishing is
// best-effort: a failed publish is logged, never propagated into the cache
// operation that produced the event.
type EventPublisher struct {
	client *natsclient.Client
	logger *slog.Logger
}

// NewEventPublisher creates a publisher over an already-connected client.
func NewEventPublisher(client *natsclient.Client, logger *slog.Logger) *EventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventPublisher{
		client: client,
		logger: logger.With("component", "cache-events"),
	}
}

// Merge announces a completed locale merge.
func (p *EventPublisher) Merge(id urn.URN, kind, locale string) {
	p.publish("merge", Event{URN: id.String(), Kind: kind, Locale: locale})
}

// Promotion announces a competitor-to-team promotion.
func (p *EventPublisher) Promotion(id urn.URN) {
	p.publish("promotion", Event{URN: id.String()})
}

// Eviction announces an item leaving the store.
func (p *EventPublisher) Eviction(id urn.URN, kind string) {
	p.publish("eviction", Event{URN: id.String(), Kind: kind})
}

// FetchFailure announces a fetch failure masked by the suppress policy.
func (p *EventPublisher) FetchFailure(id urn.URN, locale string, err error) {
	p.publish("fetch_failure", Event{URN: id.String(), Locale: locale, Error: err.Error()})
}

func (p *EventPublisher) publish(eventType string, event Event) {
	if p == nil || p.client == nil {
		return
	}
	event.Type = eventType
	event.Time = time.Now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("event encode failed", "type", eventType, "error", err)
		return
	}
	if err := p.client.Publish(EventSubjectPrefix+"."+eventType, data); err != nil {
		p.logger.Warn("event publish failed", "type", eventType, "error", err)
	}
}

// Package ingest drives the dispatch router from the feed's ingestion
// stream: freshly deserialized transfer objects arrive as NATS messages and
// are merged into the cache. Unrecognized kinds are a logged no-op.
package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/c360/sportscache/cache"
	"github.com/c360/sportscache/errors"
	"github.com/c360/sportscache/feed"
	"github.com/c360/sportscache/health"
	"github.com/c360/sportscache/natsclient"
	"github.com/c360/sportscache/urn"
)

// SubjectPrefix is the NATS subject root the ingestor listens on. The full
// subscription is "feed.ingest.>" so the bridge can shard by entity type.
const SubjectPrefix = "feed.ingest"

// Envelope is the wire shape of one ingested transfer object.
type Envelope struct {
	URN     string          `json:"urn"`
	Kind    string          `json:"kind"`
	Locale  string          `json:"locale"`
	Payload json.RawMessage `json:"payload"`
}

// Ingestor subscribes to the ingestion stream and routes every envelope
// through the cache's dispatch router.
type Ingestor struct {
	client  *natsclient.Client
	router  *cache.Router
	logger  *slog.Logger
	monitor *health.Monitor

	started   atomic.Bool
	processed atomic.Int64
	rejected  atomic.Int64
}

// New creates an ingestor over an already-connected client. monitor may be
// nil when health aggregation is not wired.
func New(client *natsclient.Client, router *cache.Router, logger *slog.Logger, monitor *health.Monitor) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		client:  client,
		router:  router,
		logger:  logger.With("component", "ingest"),
		monitor: monitor,
	}
}

// Start subscribes to the ingestion subjects. Start is not idempotent; a
// second call fails with ErrAlreadyStarted.
func (i *Ingestor) Start(ctx context.Context) error {
	if i.started.Swap(true) {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Ingestor", "Start", "already started")
	}

	if err := i.client.Subscribe(SubjectPrefix+".>", func(subject string, data []byte) {
		i.handle(ctx, subject, data)
	}); err != nil {
		i.started.Store(false)
		return errors.Wrap(err, "Ingestor", "Start", "subscribe to ingestion stream")
	}

	if i.monitor != nil {
		i.monitor.UpdateHealthy("ingest", "subscribed to ingestion stream")
	}
	i.logger.Info("ingestion started", "subject", SubjectPrefix+".>")
	return nil
}

// Stop marks the ingestor stopped. The subscription itself is drained with
// the client connection.
func (i *Ingestor) Stop() error {
	if !i.started.Swap(false) {
		return errors.WrapInvalid(errors.ErrNotStarted, "Ingestor", "Stop", "not started")
	}
	if i.monitor != nil {
		i.monitor.UpdateUnhealthy("ingest", "stopped")
	}
	return nil
}

// Processed returns how many envelopes were routed successfully.
func (i *Ingestor) Processed() int64 { return i.processed.Load() }

// Rejected returns how many envelopes were dropped.
func (i *Ingestor) Rejected() int64 { return i.rejected.Load() }

// handle decodes one envelope and routes it. Failures are logged and
// counted, never propagated: a bad message must not take the stream down.
func (i *Ingestor) handle(ctx context.Context, subject string, data []byte) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		i.rejected.Add(1)
		i.logger.Warn("envelope decode failed", "subject", subject, "error", err)
		return
	}

	id, err := urn.Parse(envelope.URN)
	if err != nil {
		i.rejected.Add(1)
		i.logger.Warn("envelope carries invalid urn", "subject", subject, "urn", envelope.URN, "error", err)
		return
	}
	if envelope.Locale == "" {
		i.rejected.Add(1)
		i.logger.Warn("envelope without locale", "subject", subject, "urn", envelope.URN)
		return
	}

	kind := feed.KindFromString(envelope.Kind)
	payload, err := decodePayload(kind, envelope.Payload)
	if err != nil {
		i.rejected.Add(1)
		i.logger.Warn("payload decode failed",
			"subject", subject, "urn", envelope.URN, "kind", envelope.Kind, "error", err)
		return
	}

	if !i.router.Save(ctx, id, payload, envelope.Locale, kind) {
		i.rejected.Add(1)
		return
	}
	i.processed.Add(1)
}

// decodePayload unmarshals the raw payload into the concrete transfer shape
// the kind declares.
func decodePayload(kind feed.Kind, raw json.RawMessage) (any, error) {
	unmarshal := func(v any) (any, error) {
		if err := json.Unmarshal(raw, v); err != nil {
			return nil, errors.WrapInvalid(err, "Ingestor", "decodePayload", "unmarshal payload")
		}
		return v, nil
	}

	switch kind {
	case feed.KindCompetitor:
		return unmarshal(&feed.CompetitorDTO{})
	case feed.KindTeamCompetitor:
		return unmarshal(&feed.TeamCompetitorDTO{})
	case feed.KindPlayer, feed.KindPlayerProfile:
		return unmarshal(&feed.PlayerDTO{})
	case feed.KindCompetitorProfile:
		return unmarshal(&feed.CompetitorProfileDTO{})
	case feed.KindSimpleTeamProfile:
		return unmarshal(&feed.SimpleTeamProfileDTO{})
	case feed.KindFixture:
		return unmarshal(&feed.FixtureDTO{})
	case feed.KindMatchSummary:
		return unmarshal(&feed.MatchSummaryDTO{})
	case feed.KindStage:
		return unmarshal(&feed.StageDTO{})
	case feed.KindTournamentInfo:
		return unmarshal(&feed.TournamentInfoDTO{})
	default:
		// The router logs and ignores unknown kinds; hand it a nil payload.
		return nil, nil
	}
}

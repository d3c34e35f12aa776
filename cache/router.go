package cache

import (
	"context"
	"log/slog"

	"github.com/c360/sportscache/errors"
	"github.com/c360/sportscache/feed"
	"github.com/c360/sportscache/metric"
	store "github.com/c360/sportscache/pkg/cache"
	"github.com/c360/sportscache/profile"
	"github.com/c360/sportscache/urn"
)

// Router drives freshly fetched transfer objects into the correct cache
// item's merge operation. Composite sport events are unpacked into their
// embedded entities and never stored themselves; a plain competitor is
// promoted in place to the team-shaped variant when a team-specific object
// arrives for its key.
type Router struct {
	items   store.Store[profile.Profile]
	locks   *lockTable
	logger  *slog.Logger
	metrics *metric.Metrics
	events  *EventPublisher
}

func newRouter(
	items store.Store[profile.Profile], locks *lockTable,
	logger *slog.Logger, metrics *metric.Metrics, events *EventPublisher,
) *Router {
	return &Router{
		items:   items,
		locks:   locks,
		logger:  logger.With("component", "router"),
		metrics: metrics,
		events:  events,
	}
}

// Save merges one transfer object into the store and reports whether the
// object was recognized and saved. Unknown kinds and merge conflicts are
// logged no-ops; they never corrupt the store.
func (r *Router) Save(ctx context.Context, id urn.URN, obj any, locale string, kind feed.Kind) bool {
	switch kind {
	case feed.KindCompetitor:
		dto, ok := obj.(*feed.CompetitorDTO)
		if !ok {
			return r.shapeMismatch(id, kind)
		}
		return r.saveCompetitor(id, dto, locale)

	case feed.KindTeamCompetitor:
		dto, ok := obj.(*feed.TeamCompetitorDTO)
		if !ok {
			return r.shapeMismatch(id, kind)
		}
		return r.saveTeamCompetitor(id, dto, locale)

	case feed.KindCompetitorProfile:
		dto, ok := obj.(*feed.CompetitorProfileDTO)
		if !ok {
			return r.shapeMismatch(id, kind)
		}
		saved := r.saveCompetitorProfile(id, dto, locale)
		r.saveRoster(ctx, dto.Players, locale)
		return saved

	case feed.KindSimpleTeamProfile:
		dto, ok := obj.(*feed.SimpleTeamProfileDTO)
		if !ok {
			return r.shapeMismatch(id, kind)
		}
		saved := r.saveCompetitorProfile(id, &feed.CompetitorProfileDTO{
			Competitor: dto.Competitor,
			Players:    dto.Players,
		}, locale)
		r.saveRoster(ctx, dto.Players, locale)
		return saved

	case feed.KindPlayer, feed.KindPlayerProfile:
		dto, ok := obj.(*feed.PlayerDTO)
		if !ok {
			return r.shapeMismatch(id, kind)
		}
		return r.savePlayer(id, dto, locale)

	case feed.KindFixture:
		dto, ok := obj.(*feed.FixtureDTO)
		if !ok {
			return r.shapeMismatch(id, kind)
		}
		r.saveEmbeddedCompetitors(ctx, dto.Competitors, locale)
		return true

	case feed.KindMatchSummary:
		dto, ok := obj.(*feed.MatchSummaryDTO)
		if !ok {
			return r.shapeMismatch(id, kind)
		}
		r.saveEmbeddedCompetitors(ctx, dto.Competitors, locale)
		return true

	case feed.KindStage:
		dto, ok := obj.(*feed.StageDTO)
		if !ok {
			return r.shapeMismatch(id, kind)
		}
		r.saveEmbeddedCompetitors(ctx, dto.Competitors, locale)
		return true

	case feed.KindTournamentInfo:
		dto, ok := obj.(*feed.TournamentInfoDTO)
		if !ok {
			return r.shapeMismatch(id, kind)
		}
		r.saveEmbeddedCompetitors(ctx, dto.Competitors, locale)
		return true

	default:
		r.logger.Warn("unrecognized transfer object kind ignored",
			"urn", id.String(), "kind", kind.String(), "locale", locale)
		return false
	}
}

// saveCompetitor merges a competitor summary under the key's merge lock.
func (r *Router) saveCompetitor(id urn.URN, dto *feed.CompetitorDTO, locale string) bool {
	key := id.String()
	unlock := r.locks.acquire(key)
	defer unlock()

	existing, ok := r.items.Peek(key)
	if !ok {
		item, err := profile.NewCompetitorProfile(id, dto, locale)
		if err != nil {
			return r.mergeFailed(id, locale, err)
		}
		return r.put(id, item, locale)
	}

	switch item := existing.(type) {
	case *profile.TeamCompetitorProfile:
		if err := item.Merge(dto, locale); err != nil {
			return r.mergeFailed(id, locale, err)
		}
		return r.put(id, item, locale)
	case *profile.CompetitorProfile:
		if err := item.Merge(dto, locale); err != nil {
			return r.mergeFailed(id, locale, err)
		}
		return r.put(id, item, locale)
	default:
		return r.mergeFailed(id, locale, errors.ErrMergeConflict)
	}
}

// saveTeamCompetitor merges a team-shaped object, promoting a plain
// competitor item in place when necessary. Promotion and merge of the same
// key are serialized under the merge lock.
func (r *Router) saveTeamCompetitor(id urn.URN, dto *feed.TeamCompetitorDTO, locale string) bool {
	key := id.String()
	unlock := r.locks.acquire(key)
	defer unlock()

	existing, ok := r.items.Peek(key)
	if !ok {
		item, err := profile.NewTeamCompetitorProfile(id, dto, locale)
		if err != nil {
			return r.mergeFailed(id, locale, err)
		}
		return r.put(id, item, locale)
	}

	switch item := existing.(type) {
	case *profile.TeamCompetitorProfile:
		if err := item.MergeTeam(dto, locale); err != nil {
			return r.mergeFailed(id, locale, err)
		}
		return r.put(id, item, locale)
	case *profile.CompetitorProfile:
		promoted := profile.PromoteToTeam(item)
		if err := promoted.MergeTeam(dto, locale); err != nil {
			// The base item stays untouched; nothing was replaced yet.
			return r.mergeFailed(id, locale, err)
		}
		if r.metrics != nil {
			r.metrics.RecordPromotion()
		}
		if r.events != nil {
			r.events.Promotion(id)
		}
		r.logger.Debug("competitor promoted to team competitor", "urn", key)
		return r.put(id, promoted, locale)
	default:
		return r.mergeFailed(id, locale, errors.ErrMergeConflict)
	}
}

// saveCompetitorProfile merges a full competitor profile (summary, nested
// sub-objects, roster) under the key's merge lock.
func (r *Router) saveCompetitorProfile(id urn.URN, dto *feed.CompetitorProfileDTO, locale string) bool {
	key := id.String()
	unlock := r.locks.acquire(key)
	defer unlock()

	existing, ok := r.items.Peek(key)
	if !ok {
		item, err := profile.NewCompetitorProfile(id, &dto.Competitor, locale)
		if err != nil {
			return r.mergeFailed(id, locale, err)
		}
		if err := item.MergeProfile(dto, locale); err != nil {
			return r.mergeFailed(id, locale, err)
		}
		return r.put(id, item, locale)
	}

	switch item := existing.(type) {
	case *profile.TeamCompetitorProfile:
		if err := item.MergeProfile(dto, locale); err != nil {
			return r.mergeFailed(id, locale, err)
		}
		return r.put(id, item, locale)
	case *profile.CompetitorProfile:
		if err := item.MergeProfile(dto, locale); err != nil {
			return r.mergeFailed(id, locale, err)
		}
		return r.put(id, item, locale)
	default:
		return r.mergeFailed(id, locale, errors.ErrMergeConflict)
	}
}

// savePlayer merges a player object under the key's merge lock.
func (r *Router) savePlayer(id urn.URN, dto *feed.PlayerDTO, locale string) bool {
	key := id.String()
	unlock := r.locks.acquire(key)
	defer unlock()

	existing, ok := r.items.Peek(key)
	if !ok {
		item, err := profile.NewPlayerProfile(id, dto, locale)
		if err != nil {
			return r.mergeFailed(id, locale, err)
		}
		return r.put(id, item, locale)
	}

	player, ok := existing.(*profile.PlayerProfile)
	if !ok {
		return r.mergeFailed(id, locale, errors.ErrMergeConflict)
	}
	if err := player.Merge(dto, locale); err != nil {
		return r.mergeFailed(id, locale, err)
	}
	return r.put(id, player, locale)
}

// saveEmbeddedCompetitors routes every embedded competitor of a composite
// object. The composite itself is never stored.
func (r *Router) saveEmbeddedCompetitors(ctx context.Context, competitors []feed.TeamCompetitorDTO, locale string) {
	for i := range competitors {
		dto := &competitors[i]
		if dto.ID.IsZero() {
			r.logger.Warn("embedded competitor without identity skipped", "locale", locale)
			continue
		}
		r.Save(ctx, dto.ID, dto, locale, feed.KindTeamCompetitor)
	}
}

// saveRoster routes the associated players of a profile as player items.
func (r *Router) saveRoster(ctx context.Context, players []feed.PlayerDTO, locale string) {
	for i := range players {
		dto := &players[i]
		if dto.ID.IsZero() {
			continue
		}
		r.Save(ctx, dto.ID, dto, locale, feed.KindPlayer)
	}
}

// put writes the item back to the store with the retention its identity
// demands: synthetic simple teams are pinned, everything else slides.
func (r *Router) put(id urn.URN, item profile.Profile, locale string) bool {
	var err error
	if id.IsSimpleTeam() {
		_, err = r.items.SetPinned(id.String(), item)
	} else {
		_, err = r.items.Set(id.String(), item)
	}
	if err != nil {
		r.logger.Error("store write failed", "urn", id.String(), "error", err)
		return false
	}

	if r.metrics != nil {
		r.metrics.RecordMerge(item.Kind())
	}
	if r.events != nil {
		r.events.Merge(id, item.Kind(), locale)
	}
	return true
}

func (r *Router) mergeFailed(id urn.URN, locale string, err error) bool {
	r.logger.Error("transfer object discarded",
		"urn", id.String(), "locale", locale, "error", err)
	return false
}

func (r *Router) shapeMismatch(id urn.URN, kind feed.Kind) bool {
	r.logger.Error("transfer object shape does not match declared kind",
		"urn", id.String(), "kind", kind.String())
	return false
}

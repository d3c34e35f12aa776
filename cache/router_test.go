package cache

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/sportscache/feed"
	store "github.com/c360/sportscache/pkg/cache"
	"github.com/c360/sportscache/profile"
	"github.com/c360/sportscache/urn"
)

func newTestRouter(t *testing.T) (*Router, store.Store[profile.Profile]) {
	t.Helper()
	items, err := store.New[profile.Profile](context.Background(), time.Hour, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = items.Close() })

	return newRouter(items, newLockTable(), slog.Default(), nil, nil), items
}

func TestRouterSave_Competitor(t *testing.T) {
	router, items := newTestRouter(t)
	id := urn.MustParse("sr:competitor:44")

	saved := router.Save(context.Background(), id,
		&feed.CompetitorDTO{ID: id, Name: "Real Madrid"}, "en", feed.KindCompetitor)
	require.True(t, saved)

	item, ok := items.Peek(id.String())
	require.True(t, ok)
	assert.Equal(t, profile.KindCompetitor, item.Kind())

	// Second locale merges into the same item.
	saved = router.Save(context.Background(), id,
		&feed.CompetitorDTO{ID: id, Name: "Real Madrid CF"}, "es", feed.KindCompetitor)
	require.True(t, saved)

	merged, _ := items.Peek(id.String())
	assert.Same(t, item, merged)
	assert.Equal(t, []string{"en", "es"}, merged.LoadedLocales())
}

func TestRouterSave_PromotesInPlace(t *testing.T) {
	router, items := newTestRouter(t)
	id := urn.MustParse("sr:competitor:44")

	require.True(t, router.Save(context.Background(), id,
		&feed.CompetitorDTO{ID: id, Name: "Real Madrid", Abbreviation: "RMA"},
		"en", feed.KindCompetitor))

	division := 1
	require.True(t, router.Save(context.Background(), id,
		&feed.TeamCompetitorDTO{
			CompetitorDTO: feed.CompetitorDTO{ID: id},
			Qualifier:     "home",
			Division:      &division,
		}, "en", feed.KindTeamCompetitor))

	item, ok := items.Peek(id.String())
	require.True(t, ok)
	team, ok := item.(*profile.TeamCompetitorProfile)
	require.True(t, ok, "item upgraded to the team-shaped variant")

	// Promotion preserved the previously merged state.
	name, _ := team.Name("en")
	assert.Equal(t, "Real Madrid", name)
	abbr, _ := team.Abbreviation("en")
	assert.Equal(t, "RMA", abbr)
	assert.Equal(t, "home", team.Qualifier())
}

func TestRouterSave_TeamKindCreatesTeamItem(t *testing.T) {
	router, items := newTestRouter(t)
	id := urn.MustParse("sr:competitor:45")

	require.True(t, router.Save(context.Background(), id,
		&feed.TeamCompetitorDTO{
			CompetitorDTO: feed.CompetitorDTO{ID: id, Name: "Barcelona"},
			Qualifier:     "away",
		}, "en", feed.KindTeamCompetitor))

	item, ok := items.Peek(id.String())
	require.True(t, ok)
	assert.Equal(t, profile.KindTeamCompetitor, item.Kind())
}

func TestRouterSave_CompositeExtraction(t *testing.T) {
	router, items := newTestRouter(t)

	fixtureID := urn.MustParse("sr:match:5000")
	home := urn.MustParse("sr:competitor:44")
	away := urn.MustParse("sr:competitor:45")

	fixture := &feed.FixtureDTO{
		ID: fixtureID,
		Competitors: []feed.TeamCompetitorDTO{
			{CompetitorDTO: feed.CompetitorDTO{ID: home, Name: "Real Madrid"}, Qualifier: "home"},
			{CompetitorDTO: feed.CompetitorDTO{ID: away, Name: "Barcelona"}, Qualifier: "away"},
		},
	}
	require.True(t, router.Save(context.Background(), fixtureID, fixture, "en", feed.KindFixture))

	// Embedded competitors landed, the composite itself did not.
	_, ok := items.Peek(fixtureID.String())
	assert.False(t, ok, "composite objects are never stored as cache items")

	for _, id := range []urn.URN{home, away} {
		item, ok := items.Peek(id.String())
		require.True(t, ok)
		assert.Equal(t, profile.KindTeamCompetitor, item.Kind())
	}
}

func TestRouterSave_StageAndTournamentExtraction(t *testing.T) {
	router, items := newTestRouter(t)

	first := urn.MustParse("sr:competitor:44")
	second := urn.MustParse("sr:competitor:45")

	stageID := urn.MustParse("sr:stage:300")
	stage := &feed.StageDTO{
		ID:          stageID,
		Description: "Group A",
		Competitors: []feed.TeamCompetitorDTO{
			{CompetitorDTO: feed.CompetitorDTO{ID: first, Name: "Real Madrid"}},
		},
	}
	require.True(t, router.Save(context.Background(), stageID, stage, "en", feed.KindStage))

	tournamentID := urn.MustParse("sr:tournament:17")
	tournament := &feed.TournamentInfoDTO{
		ID:   tournamentID,
		Name: "La Liga",
		Competitors: []feed.TeamCompetitorDTO{
			{CompetitorDTO: feed.CompetitorDTO{ID: second, Name: "Barcelona"}},
		},
	}
	require.True(t, router.Save(context.Background(), tournamentID, tournament, "en", feed.KindTournamentInfo))

	// Only the embedded competitors landed.
	_, ok := items.Peek(stageID.String())
	assert.False(t, ok, "composite objects are never stored as cache items")
	_, ok = items.Peek(tournamentID.String())
	assert.False(t, ok)

	for _, id := range []urn.URN{first, second} {
		item, ok := items.Peek(id.String())
		require.True(t, ok)
		assert.Equal(t, profile.KindTeamCompetitor, item.Kind())
	}
}

func TestRouterSave_ProfileRoutesRoster(t *testing.T) {
	router, items := newTestRouter(t)
	id := urn.MustParse("sr:competitor:44")
	playerID := urn.MustParse("sr:player:101")

	dto := &feed.CompetitorProfileDTO{
		Competitor: feed.CompetitorDTO{ID: id, Name: "Real Madrid"},
		Players:    []feed.PlayerDTO{{ID: playerID, Name: "Player One"}},
	}
	require.True(t, router.Save(context.Background(), id, dto, "en", feed.KindCompetitorProfile))

	competitor, ok := items.Peek(id.String())
	require.True(t, ok)
	assert.Equal(t, []urn.URN{playerID},
		competitor.(*profile.CompetitorProfile).AssociatedPlayerIDs())

	player, ok := items.Peek(playerID.String())
	require.True(t, ok)
	assert.Equal(t, profile.KindPlayer, player.Kind())
}

func TestRouterSave_UnknownKindIgnored(t *testing.T) {
	router, items := newTestRouter(t)
	id := urn.MustParse("sr:competitor:44")

	saved := router.Save(context.Background(), id,
		&feed.CompetitorDTO{ID: id, Name: "x"}, "en", feed.KindUnknown)
	assert.False(t, saved)
	assert.Equal(t, 0, items.Size())
}

func TestRouterSave_ShapeMismatchIgnored(t *testing.T) {
	router, items := newTestRouter(t)
	id := urn.MustParse("sr:competitor:44")

	saved := router.Save(context.Background(), id,
		&feed.PlayerDTO{ID: id}, "en", feed.KindCompetitor)
	assert.False(t, saved)
	assert.Equal(t, 0, items.Size())
}

func TestRouterSave_IdentityConflictDiscarded(t *testing.T) {
	router, items := newTestRouter(t)
	id := urn.MustParse("sr:competitor:44")

	require.True(t, router.Save(context.Background(), id,
		&feed.CompetitorDTO{ID: id, Name: "Real Madrid"}, "en", feed.KindCompetitor))

	// Declared identity does not match the requested key.
	other := urn.MustParse("sr:competitor:45")
	saved := router.Save(context.Background(), id,
		&feed.CompetitorDTO{ID: other, Name: "Impostor"}, "es", feed.KindCompetitor)
	assert.False(t, saved)

	item, _ := items.Peek(id.String())
	assert.Equal(t, []string{"en"}, item.LoadedLocales(), "conflict never corrupts the store")
}

func TestRouterSave_PlayerKindAtCompetitorKey(t *testing.T) {
	router, _ := newTestRouter(t)
	id := urn.MustParse("sr:competitor:44")

	require.True(t, router.Save(context.Background(), id,
		&feed.CompetitorDTO{ID: id, Name: "Real Madrid"}, "en", feed.KindCompetitor))

	saved := router.Save(context.Background(), id,
		&feed.PlayerDTO{ID: id, Name: "Not a player"}, "en", feed.KindPlayer)
	assert.False(t, saved, "kind clash at an occupied key is discarded")
}

/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package builder_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"dirpx.dev/trn/apis"
	"dirpx.dev/trn/builder"
	"dirpx.dev/trn/cache"
	"dirpx.dev/trn/cache/policy"
	"dirpx.dev/trn/config"
	"dirpx.dev/trn/guard"
	"dirpx.dev/trn/registry"
)

func build(t *testing.T, opts ...builder.Option) (apis.Registry, []apis.Guard) {
	t.Helper()
	b := builder.New(opts...)
	cfg := config.DefaultConfig()
	reg, err := b.BuildRegistry(cfg)
	require.NoError(t, err)
	guards, err := b.BuildGuards(cfg, reg)
	require.NoError(t, err)
	return reg, guards
}

// TestBuildRegistry_Catalog asserts every store key is defined and the
// graph has no dangling relations.
func TestBuildRegistry_Catalog(t *testing.T) {
	reg, _ := build(t)

	keys := builder.StoreKeys()
	if got := reg.Count(); got != len(keys) {
		t.Fatalf("Count = %d, want %d", got, len(keys))
	}
	for _, k := range keys {
		if _, ok := reg.Lookup(k); !ok {
			t.Fatalf("store key %q not defined", k)
		}
	}
	require.NoError(t, reg.Validate())
}

func TestBuildRegistry_Relations(t *testing.T) {
	reg, _ := build(t)

	tests := []struct {
		owner, field string
		want         apis.Ref
	}{
		{builder.StoreComp, "rounds", registry.Many(builder.StoreRounds)},
		{builder.StoreRounds, "matches", registry.Many(builder.StoreMatches)},
		{builder.StoreMatches, "homeTeam", registry.One(builder.StoreTeams)},
		{builder.StoreMatches, "visitingTeam", registry.One(builder.StoreTeams)},
		{builder.StoreMatches, "simpleScoreMatchResult", registry.One(builder.StoreSimpleScoreMatchResults)},
		{builder.StoreTeamMatchStatsByMatchID, "tmsList", registry.Many(builder.StoreTeamMatchStats)},
		{builder.StorePlayerMatchStats, "players", registry.Many(builder.StorePlayerStats)},
		{builder.StoreCompStandingsByID, "standingsList", registry.Many(builder.StoreStanding)},
		{builder.StoreUniversalRoundFnR, "compFandRs", registry.Many(builder.StoreCompFandRs)},
		{builder.StoreCompFandRs, "matches", registry.Many(builder.StoreMatches)},
		{builder.StoreRatingQuery, "playerRatings", registry.Many(builder.StorePlayerRatings)},
		{builder.StorePlayerRatings, "player", registry.One(builder.StorePlayerStats)},
		{builder.StorePlayerRatings, "matchStats", registry.One(builder.StorePlayerMatchStats)},
	}
	for _, tt := range tests {
		t.Run(tt.owner+"."+tt.field, func(t *testing.T) {
			n, ok := reg.Lookup(tt.owner)
			require.True(t, ok)
			if got := n.Relations[tt.field]; got != tt.want {
				t.Fatalf("relation = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBuildRegistry_Identities(t *testing.T) {
	reg, _ := build(t)

	tests := []struct {
		storeKey string
		record   map[string]any
		want     apis.Key
	}{
		{builder.StoreMatches, map[string]any{"id": json.Number("100")}, apis.Key{"100"}},
		{builder.StoreTeamMatchStats, map[string]any{"matchId": "100", "teamId": "5"}, apis.Key{"100", "5"}},
		{builder.StorePlayerStats, map[string]any{"matchId": "100", "playerId": "9"}, apis.Key{"100", "9"}},
		{builder.StoreStanding, map[string]any{"compId": "7", "teamId": "5"}, apis.Key{"7", "5"}},
		{builder.StoreCompFandRs, map[string]any{"universalRoundOrdinal": json.Number("3"), "compId": "7"}, apis.Key{"3", "7"}},
		{builder.StoreUniversalRoundFnR, map[string]any{"universalRoundOrdinal": json.Number("3"), "compIds": []any{"7", "8"}}, apis.Key{"3", "7,8"}},
		{builder.StoreUniversalRoundFnR, map[string]any{"universalRoundOrdinal": "3", "compIds": "7,8"}, apis.Key{"3", "7,8"}},
	}
	for _, tt := range tests {
		t.Run(tt.storeKey, func(t *testing.T) {
			n, ok := reg.Lookup(tt.storeKey)
			require.True(t, ok)
			got, err := n.ID(tt.record)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	n, _ := reg.Lookup(builder.StoreUniversalRoundFnR)
	for _, rec := range []map[string]any{
		{"compIds": []any{"7"}},
		{"universalRoundOrdinal": "3"},
		{"universalRoundOrdinal": "3", "compIds": []any{}},
	} {
		if _, err := n.ID(rec); !errors.Is(err, registry.ErrMissingID) {
			t.Fatalf("ID(%v) err = %v, want ErrMissingID", rec, err)
		}
	}
}

func TestBuildGuards_Catalog(t *testing.T) {
	_, guards := build(t)
	set := guard.NewSet(guards...)

	want := []string{
		builder.KindCompStandings,
		builder.KindCompetition,
		builder.KindConfiguration,
		builder.KindFixturesAndResults,
		builder.KindMatch,
		builder.KindPlayerMatchStats,
		builder.KindTeamMatchStats,
	}
	require.Equal(t, want, set.Kinds())

	policies := map[string]policy.Policy{
		builder.KindConfiguration:      policy.ExistsWithFields,
		builder.KindCompetition:        policy.ExistsWithFields,
		builder.KindMatch:              policy.None,
		builder.KindTeamMatchStats:     policy.ExistsWithFields,
		builder.KindPlayerMatchStats:   policy.ExistsWithFields,
		builder.KindCompStandings:      policy.Exists,
		builder.KindFixturesAndResults: policy.Exists,
	}
	for kind, p := range policies {
		g, ok := set.Get(kind)
		require.True(t, ok, kind)
		if got := g.(*guard.Guard).Policy(); got != p {
			t.Fatalf("%s policy = %v, want %v", kind, got, p)
		}
	}
}

func TestBuildGuards_Descriptors(t *testing.T) {
	_, guards := build(t)
	set := guard.NewSet(guards...)
	snap := cache.New().Snapshot()

	tests := []struct {
		kind     string
		key      apis.Key
		endpoint string
		types    []string
		schema   string
	}{
		{builder.KindConfiguration, nil, "configuration",
			[]string{"CONF_REQUEST", "CONF_SUCCESS", "CONF_FAILURE"}, builder.StoreConfig},
		{builder.KindCompetition, apis.Key{"7"}, "competitions/get?id=7",
			[]string{"COMP_REQUEST", "COMP_SUCCESS", "COMP_FAILURE"}, builder.StoreComp},
		{builder.KindMatch, apis.Key{"100"}, "match/get?id=100",
			[]string{"MATCH_REQUEST", "MATCH_SUCCESS", "MATCH_FAILURE"}, builder.StoreMatches},
		{builder.KindTeamMatchStats, apis.Key{"100", "5"}, "teamMatchStats/get?matchId=100",
			[]string{"MATCH_TEAM_STATS_REQUEST", "MATCH_TEAM_STATS_SUCCESS", "MATCH_TEAM_STATS_FAILURE"}, builder.StoreTeamMatchStatsByMatchID},
		{builder.KindPlayerMatchStats, apis.Key{"100"}, "match/getScrumPlayerMatchStats?matchId=100",
			[]string{"MATCH_PLAYER_STATS_REQUEST", "MATCH_PLAYER_STATS_SUCCESS", "MATCH_PLAYER_STATS_FAILURE"}, builder.StorePlayerMatchStats},
		{builder.KindCompStandings, apis.Key{"7"}, "competitions/getStandings?compId=7",
			[]string{"COMP_STANDINGS_REQUEST", "COMP_STANDINGS_SUCCESS", "COMP_STANDINGS_FAILURE"}, builder.StoreCompStandingsByID},
		{builder.KindFixturesAndResults, apis.Key{"3", "7,8"}, "fixturesAndResults/get?universalRoundOrdinal=3&compIds=7%2C8",
			[]string{"FIXTURES_AND_RESULTS_REQUEST", "FIXTURES_AND_RESULTS_SUCCESS", "FIXTURES_AND_RESULTS_FAILURE"}, builder.StoreUniversalRoundFnR},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			g, ok := set.Get(tt.kind)
			require.True(t, ok)
			d := g.ShouldFetch(snap, tt.key, nil)
			require.NotNil(t, d, "empty cache must fetch")
			require.Equal(t, tt.kind, d.Kind)
			require.Equal(t, tt.key, d.Key)
			require.Equal(t, tt.endpoint, d.Endpoint(snap))
			require.Equal(t, tt.types, d.Types)
			require.Equal(t, registry.One(tt.schema), d.Schema)
		})
	}
}

func TestWithPolicy(t *testing.T) {
	_, guards := build(t, builder.WithPolicy(builder.KindMatch, policy.Exists), builder.WithPolicy("nope", policy.None))
	set := guard.NewSet(guards...)

	g, _ := set.Get(builder.KindMatch)
	if got := g.(*guard.Guard).Policy(); got != policy.Exists {
		t.Fatalf("match policy = %v, want EXISTS", got)
	}
	require.Equal(t, 7, set.Len())
}

func TestWithResource(t *testing.T) {
	ratings := builder.Resource{
		Kind:     "ratings",
		StoreKey: builder.StoreRatingQuery,
		Policy:   policy.Exists,
		Schema:   registry.One(builder.StoreRatingQuery),
		Prefix:   "RATINGS",
		Path:     func(k apis.Key) string { return "ratings/get?id=" + k[0] },
	}
	_, guards := build(t, builder.WithResource(ratings))
	set := guard.NewSet(guards...)
	require.Equal(t, 8, set.Len())

	g, ok := set.Get("ratings")
	require.True(t, ok)
	d := g.ShouldFetch(nil, apis.Key{"42"}, nil)
	require.NotNil(t, d)
	require.Equal(t, "ratings/get?id=42", d.Endpoint(nil))

	// Same kind replaces.
	ratings.Prefix = "RATINGS_V2"
	_, guards = build(t, builder.WithResource(ratings), builder.WithResource(ratings))
	require.Len(t, guards, 8)
}

func TestBuildGuards_Invalid(t *testing.T) {
	b := builder.New(
		builder.WithResource(builder.Resource{Kind: "partial"}),
		builder.WithResource(builder.Resource{
			Kind:     "orphan",
			StoreKey: "nowhere",
			Prefix:   "ORPHAN",
			Schema:   registry.One("nowhere"),
			Path:     func(apis.Key) string { return "orphan" },
		}),
	)
	cfg := config.DefaultConfig()
	reg, err := b.BuildRegistry(cfg)
	require.NoError(t, err)

	_, err = b.BuildGuards(cfg, reg)
	require.ErrorIs(t, err, builder.ErrBadResource)
	require.ErrorContains(t, err, `"partial"`)
	require.ErrorContains(t, err, `"orphan"`)

	_, err = b.BuildGuards(cfg, nil)
	require.ErrorIs(t, err, builder.ErrBadResource)
}

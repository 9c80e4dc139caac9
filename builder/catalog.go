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

package builder

import (
	"fmt"
	"net/url"
	"strings"

	"dirpx.dev/trn/apis"
	"dirpx.dev/trn/cache/policy"
	"dirpx.dev/trn/registry"
	"dirpx.dev/trn/utils/jsonv"
)

// Store keys of the TRN entity graph.
const (
	StoreConfig                  = "config"
	StoreComp                    = "comp"
	StoreRounds                  = "rounds"
	StoreMatches                 = "matches"
	StoreTeams                   = "teams"
	StoreSimpleScoreMatchResults = "simpleScoreMatchResults"
	StoreTeamMatchStatsByMatchID = "teamMatchStatsByMatchId"
	StoreTeamMatchStats          = "teamMatchStats"
	StorePlayerStats             = "playerStats"
	StorePlayerMatchStats        = "playerMatchStats"
	StoreCompStandingsByID       = "compStandingsById"
	StoreStanding                = "standing"
	StoreUniversalRoundFnR       = "universalRoundFnR"
	StoreCompFandRs              = "compFandRs"
	StoreRatingQuery             = "ratingQuery"
	StorePlayerRatings           = "playerRatings"
)

// Resource kinds served by the default catalog.
const (
	KindConfiguration      = "configuration"
	KindCompetition        = "competition"
	KindMatch              = "match"
	KindTeamMatchStats     = "teamMatchStats"
	KindPlayerMatchStats   = "playerMatchStats"
	KindCompStandings      = "compStandings"
	KindFixturesAndResults = "fixturesAndResults"
)

// node is one schema declaration: identity plus outgoing edges.
type node struct {
	storeKey  string
	id        apis.IDFunc
	relations map[string]apis.Ref
}

var byID = registry.ByField("id")

// schemas returns the TRN entity graph.
func schemas() []node {
	return []node{
		{StoreConfig, byID, nil},
		{StoreComp, byID, map[string]apis.Ref{"rounds": registry.Many(StoreRounds)}},
		{StoreRounds, byID, map[string]apis.Ref{"matches": registry.Many(StoreMatches)}},
		{StoreMatches, byID, map[string]apis.Ref{
			"homeTeam":               registry.One(StoreTeams),
			"visitingTeam":           registry.One(StoreTeams),
			"simpleScoreMatchResult": registry.One(StoreSimpleScoreMatchResults),
		}},
		{StoreTeams, byID, nil},
		{StoreSimpleScoreMatchResults, byID, nil},
		{StoreTeamMatchStatsByMatchID, registry.ByField("matchId"), map[string]apis.Ref{"tmsList": registry.Many(StoreTeamMatchStats)}},
		{StoreTeamMatchStats, registry.ByFields("matchId", "teamId"), nil},
		{StorePlayerStats, registry.ByFields("matchId", "playerId"), nil},
		{StorePlayerMatchStats, registry.ByField("matchId"), map[string]apis.Ref{"players": registry.Many(StorePlayerStats)}},
		{StoreCompStandingsByID, registry.ByField("compId"), map[string]apis.Ref{"standingsList": registry.Many(StoreStanding)}},
		{StoreStanding, registry.ByFields("compId", "teamId"), nil},
		{StoreUniversalRoundFnR, roundGroupID, map[string]apis.Ref{"compFandRs": registry.Many(StoreCompFandRs)}},
		{StoreCompFandRs, registry.ByFields("universalRoundOrdinal", "compId"), map[string]apis.Ref{"matches": registry.Many(StoreMatches)}},
		{StoreRatingQuery, byID, map[string]apis.Ref{"playerRatings": registry.Many(StorePlayerRatings)}},
		{StorePlayerRatings, byID, map[string]apis.Ref{
			"player":     registry.One(StorePlayerStats),
			"matchStats": registry.One(StorePlayerMatchStats),
		}},
	}
}

// StoreKeys returns every store key of the TRN graph, in declaration order.
func StoreKeys() []string {
	nodes := schemas()
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.storeKey
	}
	return out
}

// roundGroupID keys a fixtures-and-results group by its round ordinal and
// competition set. The set may arrive as a list or as a comma-joined string.
func roundGroupID(record map[string]any) (apis.Key, error) {
	uro, ok := jsonv.KeyOf(record["universalRoundOrdinal"])
	if !ok {
		return nil, fmt.Errorf("%w: %q", registry.ErrMissingID, "universalRoundOrdinal")
	}
	ids, err := joinIDs(record["compIds"])
	if err != nil {
		return nil, err
	}
	return apis.Key{uro, ids}, nil
}

func joinIDs(v any) (string, error) {
	if list, ok := jsonv.List(v); ok && len(list) > 0 {
		parts := make([]string, len(list))
		for i, e := range list {
			s, ok := jsonv.KeyOf(e)
			if !ok {
				return "", fmt.Errorf("%w: %q", registry.ErrMissingID, "compIds")
			}
			parts[i] = s
		}
		return strings.Join(parts, ","), nil
	}
	if s, ok := jsonv.KeyOf(v); ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", registry.ErrMissingID, "compIds")
}

// Resource declares one loadable kind: where its records live, how the
// cache is consulted, and how a fetch is described.
type Resource struct {
	// Kind names the resource, e.g. "match".
	Kind string
	// StoreKey is the store key the guard consults.
	StoreKey string
	// Policy is the declared cache-consult policy.
	Policy policy.Policy
	// Schema is the shape of the response body.
	Schema apis.Ref
	// Prefix is the event type prefix: <Prefix>_REQUEST, _SUCCESS, _FAILURE.
	Prefix string
	// Path renders the endpoint of key, relative to the base URL.
	Path func(key apis.Key) string
}

// Describe returns the fetch descriptor of key.
func (r Resource) Describe(key apis.Key) apis.Descriptor {
	return apis.Descriptor{
		Kind:     r.Kind,
		Key:      key,
		Endpoint: apis.Literal(r.Path(key)),
		Types:    []string{r.Prefix + "_REQUEST", r.Prefix + "_SUCCESS", r.Prefix + "_FAILURE"},
		Schema:   r.Schema,
	}
}

// query renders "<path>?<param>=<escaped key segment i>".
func query(path, param string, i int) func(apis.Key) string {
	return func(k apis.Key) string {
		return path + "?" + param + "=" + url.QueryEscape(segment(k, i))
	}
}

func segment(k apis.Key, i int) string {
	if i < len(k) {
		return k[i]
	}
	return ""
}

// Resources returns the default TRN resource catalog.
//
// Match is declared NONE: live scores change while a match is watched, so
// a cached match is always refreshed.
func Resources() []Resource {
	return []Resource{
		{
			Kind:     KindConfiguration,
			StoreKey: StoreConfig,
			Policy:   policy.ExistsWithFields,
			Schema:   registry.One(StoreConfig),
			Prefix:   "CONF",
			Path:     func(apis.Key) string { return "configuration" },
		},
		{
			Kind:     KindCompetition,
			StoreKey: StoreComp,
			Policy:   policy.ExistsWithFields,
			Schema:   registry.One(StoreComp),
			Prefix:   "COMP",
			Path:     query("competitions/get", "id", 0),
		},
		{
			Kind:     KindMatch,
			StoreKey: StoreMatches,
			Policy:   policy.None,
			Schema:   registry.One(StoreMatches),
			Prefix:   "MATCH",
			Path:     query("match/get", "id", 0),
		},
		{
			Kind:     KindTeamMatchStats,
			StoreKey: StoreTeamMatchStats,
			Policy:   policy.ExistsWithFields,
			Schema:   registry.One(StoreTeamMatchStatsByMatchID),
			Prefix:   "MATCH_TEAM_STATS",
			Path:     query("teamMatchStats/get", "matchId", 0),
		},
		{
			Kind:     KindPlayerMatchStats,
			StoreKey: StorePlayerMatchStats,
			Policy:   policy.ExistsWithFields,
			Schema:   registry.One(StorePlayerMatchStats),
			Prefix:   "MATCH_PLAYER_STATS",
			Path:     query("match/getScrumPlayerMatchStats", "matchId", 0),
		},
		{
			Kind:     KindCompStandings,
			StoreKey: StoreCompStandingsByID,
			Policy:   policy.Exists,
			Schema:   registry.One(StoreCompStandingsByID),
			Prefix:   "COMP_STANDINGS",
			Path:     query("competitions/getStandings", "compId", 0),
		},
		{
			Kind:     KindFixturesAndResults,
			StoreKey: StoreUniversalRoundFnR,
			Policy:   policy.Exists,
			Schema:   registry.One(StoreUniversalRoundFnR),
			Prefix:   "FIXTURES_AND_RESULTS",
			Path: func(k apis.Key) string {
				return "fixturesAndResults/get?universalRoundOrdinal=" + url.QueryEscape(segment(k, 0)) +
					"&compIds=" + url.QueryEscape(segment(k, 1))
			},
		},
	}
}

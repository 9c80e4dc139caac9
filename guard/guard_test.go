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

package guard_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"dirpx.dev/trn/apis"
	"dirpx.dev/trn/cache"
	"dirpx.dev/trn/cache/policy"
	"dirpx.dev/trn/guard"
	"dirpx.dev/trn/registry"
)

func describe(key apis.Key) apis.Descriptor {
	return apis.Descriptor{
		Endpoint: apis.Literal("competitions/getStandings?compId=" + key.String()),
		Types:    []string{"REQ", "OK", "FAIL"},
		Schema:   registry.One("compStandingsById"),
	}
}

// An EXISTS guard asks for a fetch until the identity has been merged.
func TestShouldFetch_ExistsAfterMerge(t *testing.T) {
	store := cache.New("compStandingsById")
	g := guard.New("compStandings", "compStandingsById", policy.Exists, describe)

	d := g.ShouldFetch(store.Snapshot(), apis.Key{"7"}, nil)
	require.NotNil(t, d)
	require.Equal(t, "compStandings", d.Kind)
	require.Equal(t, apis.Key{"7"}, d.Key)
	require.Equal(t, "competitions/getStandings?compId=7", d.Endpoint(store.Snapshot()))

	store.Merge(apis.Entities{"compStandingsById": {"7": map[string]any{"compId": "7"}}})

	require.Nil(t, g.ShouldFetch(store.Snapshot(), apis.Key{"7"}, nil))
}

func TestShouldFetch_ExistsWithFields(t *testing.T) {
	store := cache.New("matches")
	store.Merge(apis.Entities{"matches": {"100": map[string]any{"id": "100", "status": "final"}}})
	g := guard.New("competition", "matches", policy.ExistsWithFields, describe)

	require.Nil(t, g.ShouldFetch(store.Snapshot(), apis.Key{"100"}, []string{"status"}))
	require.NotNil(t, g.ShouldFetch(store.Snapshot(), apis.Key{"100"}, []string{"status", "score"}))
}

func TestShouldFetch_NoneAlwaysFetches(t *testing.T) {
	store := cache.New("matches")
	store.Merge(apis.Entities{"matches": {"100": map[string]any{"id": "100", "status": "live"}}})
	g := guard.New("match", "matches", policy.None, describe)

	require.NotNil(t, g.ShouldFetch(store.Snapshot(), apis.Key{"100"}, nil))
	require.NotNil(t, g.ShouldFetch(store.Snapshot(), apis.Key{"100"}, []string{"status"}))
}

func TestShouldFetch_AbsentCompositeLevels(t *testing.T) {
	store := cache.New("teamMatchStats")
	store.Merge(apis.Entities{"teamMatchStats": {"10": map[string]any{"t1": map[string]any{"matchId": "10"}}}})
	g := guard.New("teamMatchStats", "teamMatchStats", policy.ExistsWithFields, describe)

	keys := []apis.Key{{"10", "t2"}, {"11", "t1"}, {"10", "t1", "deeper"}}
	for _, k := range keys {
		require.NotPanics(t, func() {
			require.NotNil(t, g.ShouldFetch(store.Snapshot(), k, nil), "key %v", k)
		})
	}
	require.Nil(t, g.ShouldFetch(store.Snapshot(), apis.Key{"10", "t1"}, []string{"matchId"}))
}

func TestShouldFetch_SingletonAndNilSnapshot(t *testing.T) {
	g := guard.New("configuration", "config", policy.ExistsWithFields, describe)

	require.NotNil(t, g.ShouldFetch(nil, nil, nil))

	store := cache.New("config")
	store.Merge(apis.Entities{"config": {"c": map[string]any{"id": "c", "currentRound": 3}}})
	require.Nil(t, g.ShouldFetch(store.Snapshot(), nil, []string{"currentRound"}))
	require.NotNil(t, g.ShouldFetch(store.Snapshot(), nil, []string{"seasons"}))
}

func TestSet(t *testing.T) {
	a := guard.New("match", "matches", policy.None, describe)
	b := guard.New("competition", "comp", policy.ExistsWithFields, describe)
	s := guard.NewSet(a, b)

	require.Equal(t, 2, s.Len())
	require.Equal(t, []string{"competition", "match"}, s.Kinds())
	got, ok := s.Get("match")
	require.True(t, ok)
	require.Same(t, a, got)
	_, ok = s.Get("ghost")
	require.False(t, ok)
}

func TestNewSet_PanicsOnDuplicate(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, guard.ErrDuplicateKind) {
			t.Fatalf("recover() = %v, want ErrDuplicateKind", r)
		}
	}()
	guard.NewSet(
		guard.New("match", "matches", policy.None, describe),
		guard.New("match", "matches", policy.Exists, describe),
	)
}

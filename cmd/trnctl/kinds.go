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


package main

import (
	"context"
	"maps"
	"slices"
	"strings"

	"dirpx.dev/trn"
	"dirpx.dev/trn/pipeline"
)

// kind binds a command-line kind to a client load.
type kind struct {
	arity int
	usage string
	load  func(c *trn.Client, args, fields []string) trn.LoadFunc
}

var kinds = map[string]kind{
	"configuration": {0, "", func(c *trn.Client, _, fields []string) trn.LoadFunc {
		return func(ctx context.Context) (*pipeline.Request, error) { return c.LoadConfiguration(ctx, fields...) }
	}},
	"competition": {1, "<id>", func(c *trn.Client, args, fields []string) trn.LoadFunc {
		return func(ctx context.Context) (*pipeline.Request, error) { return c.LoadCompetition(ctx, args[0], fields...) }
	}},
	"match": {1, "<id>", func(c *trn.Client, args, fields []string) trn.LoadFunc {
		return func(ctx context.Context) (*pipeline.Request, error) { return c.LoadMatch(ctx, args[0], fields...) }
	}},
	"team-stats": {2, "<matchId> <teamId>", func(c *trn.Client, args, fields []string) trn.LoadFunc {
		return func(ctx context.Context) (*pipeline.Request, error) {
			return c.LoadTeamMatchStats(ctx, args[0], args[1], fields...)
		}
	}},
	"player-stats": {1, "<matchId>", func(c *trn.Client, args, fields []string) trn.LoadFunc {
		return func(ctx context.Context) (*pipeline.Request, error) {
			return c.LoadPlayerMatchStats(ctx, args[0], fields...)
		}
	}},
	"standings": {1, "<compId>", func(c *trn.Client, args, _ []string) trn.LoadFunc {
		return func(ctx context.Context) (*pipeline.Request, error) { return c.LoadCompStandings(ctx, args[0]) }
	}},
	"fixtures": {2, "<universalRoundOrdinal> <compIds>", func(c *trn.Client, args, _ []string) trn.LoadFunc {
		return func(ctx context.Context) (*pipeline.Request, error) {
			return c.LoadFixturesAndResults(ctx, args[0], splitList(args[1]))
		}
	}},
}

func kindNames() []string {
	return slices.Sorted(maps.Keys(kinds))
}

func describeKinds() string {
	return strings.Join(kindNames(), ", ")
}

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

// Package guard decides, per resource kind, whether the entity cache
// already satisfies a request.
package guard

import (
	"errors"
	"fmt"
	"slices"

	"dirpx.dev/trn/apis"
	"dirpx.dev/trn/cache/policy"
	"dirpx.dev/trn/strategy"
)

var (
	// ErrNilGuard is raised by NewSet when a nil guard is provided.
	ErrNilGuard = errors.New("trn(guard): nil guard provided")
	// ErrDuplicateKind is raised by NewSet when two guards serve one kind.
	ErrDuplicateKind = errors.New("trn(guard): duplicate resource kind")
)

// DescriptorFunc builds the fetch descriptor of one identity.
type DescriptorFunc func(key apis.Key) apis.Descriptor

// Guard is the cache-consult step of one resource kind.
type Guard struct {
	kind     string
	storeKey string
	policy   policy.Policy
	strat    apis.Policy
	describe DescriptorFunc
}

var _ apis.Guard = (*Guard)(nil)

// New constructs a Guard that consults storeKey under p and describes
// fetches with describe.
func New(kind, storeKey string, p policy.Policy, describe DescriptorFunc) *Guard {
	return &Guard{
		kind:     kind,
		storeKey: storeKey,
		policy:   p,
		strat:    strategy.For(p),
		describe: describe,
	}
}

// Kind returns the resource kind this guard serves.
func (g *Guard) Kind() string { return g.kind }

// StoreKey returns the store key the guard consults.
func (g *Guard) StoreKey() string { return g.storeKey }

// Policy returns the declared policy.
func (g *Guard) Policy() policy.Policy { return g.policy }

// ShouldFetch returns the descriptor for key when the policy asks for a
// fetch, nil otherwise. A nil snapshot is treated as an empty cache.
// An empty key consults the singleton record of the store key.
func (g *Guard) ShouldFetch(snap apis.Snapshot, key apis.Key, fields []string) *apis.Descriptor {
	var (
		rec   map[string]any
		found bool
	)
	if snap != nil {
		rec, found = snap.Get(g.storeKey, key)
	}
	if !g.strat.NeedsFetch(rec, found, fields) {
		return nil
	}

	d := g.describe(key)
	if d.Kind == "" {
		d.Kind = g.kind
	}
	if d.Key == nil {
		d.Key = key
	}
	return &d
}

// Set indexes guards by kind. It is immutable after construction.
type Set struct {
	byKind map[string]apis.Guard
}

// NewSet builds a Set. It panics on a nil guard or a duplicate kind:
// both are catalog construction mistakes.
func NewSet(guards ...apis.Guard) *Set {
	s := &Set{byKind: make(map[string]apis.Guard, len(guards))}
	for _, g := range guards {
		if g == nil {
			panic(ErrNilGuard)
		}
		if _, dup := s.byKind[g.Kind()]; dup {
			panic(fmt.Errorf("%w: %q", ErrDuplicateKind, g.Kind()))
		}
		s.byKind[g.Kind()] = g
	}
	return s
}

// Get returns the guard for kind if present.
func (s *Set) Get(kind string) (apis.Guard, bool) {
	g, ok := s.byKind[kind]
	return g, ok
}

// Kinds returns the served kinds in sorted order.
func (s *Set) Kinds() []string {
	out := make([]string, 0, len(s.byKind))
	for k := range s.byKind {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of guards.
func (s *Set) Len() int { return len(s.byKind) }

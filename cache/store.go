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

package cache

import (
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"dirpx.dev/trn/apis"
	"dirpx.dev/trn/utils/jsonv"
)

// Store is the merge-only entity cache.
//
// Readers load the current snapshot without locking. Writers are
// serialized by mu and publish a whole new snapshot, so a reader sees
// either the state before a merge or the state after it, never a mix.
type Store struct {
	// mu serializes Merge.
	mu sync.Mutex
	// cur holds the current immutable snapshot.
	cur atomic.Pointer[snapshot]
}

var _ apis.Store = (*Store)(nil)

// New returns a Store whose initial state holds an empty map for every
// given store key.
func New(storeKeys ...string) *Store {
	ents := make(apis.Entities, len(storeKeys))
	for _, k := range storeKeys {
		ents[k] = map[string]any{}
	}
	s := &Store{}
	s.cur.Store(&snapshot{entities: ents})
	return s
}

// Snapshot returns the current immutable view.
func (s *Store) Snapshot() apis.Snapshot {
	return s.cur.Load()
}

// Merge deep-merges incoming and publishes the result. incoming is copied
// first, so the caller may reuse it.
func (s *Store) Merge(incoming apis.Entities) apis.Snapshot {
	owned := make(apis.Entities, len(incoming))
	for k, ids := range incoming {
		owned[k] = jsonv.CloneObject(ids)
		if owned[k] == nil {
			owned[k] = map[string]any{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := &snapshot{entities: Merge(s.cur.Load().entities, owned)}
	s.cur.Store(next)
	return next
}

// Lookup is shorthand for Snapshot().Get.
func (s *Store) Lookup(storeKey string, key apis.Key) (map[string]any, bool) {
	return s.cur.Load().Get(storeKey, key)
}

// snapshot is one published cache state. It is never modified.
type snapshot struct {
	entities apis.Entities
}

var _ apis.Snapshot = (*snapshot)(nil)

// Get returns the record at the key path. The returned map is shared with
// the snapshot and must not be modified.
func (s *snapshot) Get(storeKey string, key apis.Key) (map[string]any, bool) {
	ids, ok := s.entities[storeKey]
	if !ok || len(ids) == 0 {
		return nil, false
	}
	if len(key) == 0 {
		// Singleton resources such as the configuration carry their own id;
		// the smallest id in string order (so "10" before "9") stands for
		// the whole store key.
		first := slices.Min(slices.Collect(maps.Keys(ids)))
		return jsonv.Object(ids[first])
	}

	var cur any = ids
	for _, seg := range key {
		m, ok := jsonv.Object(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return jsonv.Object(cur)
}

// Entities returns a deep copy of the whole cache.
func (s *snapshot) Entities() apis.Entities {
	out := make(apis.Entities, len(s.entities))
	for k, ids := range s.entities {
		out[k] = jsonv.CloneObject(ids)
	}
	return out
}

// Len returns the number of ids directly under storeKey.
func (s *snapshot) Len(storeKey string) int {
	return len(s.entities[storeKey])
}

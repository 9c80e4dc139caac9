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

package registry_test

import (
	"runtime"
	"sync"
	"testing"

	"dirpx.dev/trn/apis"
	"dirpx.dev/trn/registry"
)

// TestConcurrentDefineRelateAndLookup verifies that Define/Relate/Lookup/
// Entries/Count are race-free and consistent under concurrent use.
func TestConcurrentDefineRelateAndLookup(t *testing.T) {
	reg := registry.New()

	keys := []string{"config", "comp", "rounds", "matches", "teams", "standing"}

	for _, k := range keys {
		if err := reg.Define(k, matchID); err != nil {
			t.Fatalf("define %s: %v", k, err)
		}
	}

	wg := sync.WaitGroup{}
	workers := runtime.GOMAXPROCS(0) * 4

	// Readers
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < 5000; i++ {
				k := keys[i%len(keys)]
				if n, ok := reg.Lookup(k); !ok || n.StoreKey != k {
					t.Errorf("lookup failed for %s: ok=%v got=%q", k, ok, n.StoreKey)
					return
				}
				_ = reg.Count()
				_ = reg.Entries()
			}
		}()
	}

	// Writers (idempotent re-define plus relation extension)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				j := (i + id) % len(keys)
				_ = reg.Define(keys[j], matchID)
				_ = reg.Relate(keys[j], map[string]apis.Ref{
					"next": registry.One(keys[(j+1)%len(keys)]),
				})
			}
		}(w)
	}

	wg.Wait()

	if reg.Count() != len(keys) {
		t.Fatalf("count mismatch: got %d want %d", reg.Count(), len(keys))
	}
	if err := reg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

// TestEntriesSnapshot ensures Entries returns copies that later Relate calls
// do not alter.
func TestEntriesSnapshot(t *testing.T) {
	reg := registry.New()
	_ = reg.Define("matches", matchID)

	snap := reg.Entries()
	_ = reg.Relate("matches", map[string]apis.Ref{"homeTeam": registry.One("teams")})

	if len(snap) != 1 || len(snap[0].Relations) != 0 {
		t.Fatalf("snapshot changed after Relate: %+v", snap)
	}
}

// This ensures the interface is satisfied; not a test but a compile-time check.
var _ apis.Registry = registry.New()

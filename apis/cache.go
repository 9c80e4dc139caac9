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

package apis

// Entities is the flat, normalized form: store key -> id -> record.
// Composite identities nest further maps below the first id segment.
type Entities map[string]map[string]any

// Response is the outcome of normalizing one payload.
type Response struct {
	// Result mirrors the payload shape with references in place of entities.
	Result any
	// Entities holds every record discovered in the payload.
	Entities Entities
}

// Snapshot is an immutable view of the entity cache.
type Snapshot interface {
	// Get returns the record at (storeKey, key). Any missing level of a
	// composite key reports absence. An empty key selects the singleton
	// record of storeKey (the smallest id in string order).
	Get(storeKey string, key Key) (map[string]any, bool)
	// Entities returns a deep copy of the whole cache.
	Entities() Entities
	// Len returns the number of ids directly under storeKey.
	Len(storeKey string) int
}

// Store is the merge-only entity cache. There is no delete operation.
type Store interface {
	// Snapshot returns the current immutable view.
	Snapshot() Snapshot
	// Merge deep-merges incoming into the cache as a single atomic
	// transition and returns the resulting view.
	Merge(incoming Entities) Snapshot
}

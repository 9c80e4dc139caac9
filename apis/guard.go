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

// Endpoint produces the request path from the current cache state.
type Endpoint func(Snapshot) string

// Literal returns an Endpoint that always yields path.
func Literal(path string) Endpoint {
	return func(Snapshot) string { return path }
}

// Descriptor is the declarative description of one fetch.
type Descriptor struct {
	// Kind names the resource kind, e.g. "match".
	Kind string
	// Key is the identity being fetched; it is echoed on every event.
	Key Key
	// Endpoint resolves to the request path.
	Endpoint Endpoint
	// Types holds the request, success and failure event types, in order.
	Types []string
	// Schema is the shape used to normalize a successful body.
	Schema Ref
}

// Policy is a cache-consult step: it decides from a cached record (if any)
// whether a fetch is required.
type Policy interface {
	// NeedsFetch reports whether record (found or not) fails to satisfy
	// the policy for the given required fields.
	NeedsFetch(record map[string]any, found bool, fields []string) bool
}

// Guard decides, for one resource kind, whether a fetch is necessary.
type Guard interface {
	// Kind returns the resource kind this guard serves.
	Kind() string
	// ShouldFetch returns a descriptor when a fetch is needed, nil otherwise.
	// It never panics for a well-formed but absent identity.
	ShouldFetch(snap Snapshot, key Key, fields []string) *Descriptor
}

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

import "strings"

// Key identifies a record inside a store key. A single segment is the
// common case; composite identities use one segment per level and are
// stored as a nested path (entities[storeKey][seg0][seg1]...).
type Key []string

// String joins the segments with "/", for logs and record keys.
func (k Key) String() string {
	return strings.Join(k, "/")
}

// Ref returns the reference form stored in relation fields: the bare
// segment for single keys, a list of segments for composite keys.
func (k Key) Ref() any {
	if len(k) == 1 {
		return k[0]
	}
	out := make([]any, len(k))
	for i, s := range k {
		out[i] = s
	}
	return out
}

// IDFunc extracts the identity of a raw record. It must be pure.
type IDFunc func(record map[string]any) (Key, error)

// Ref is a relation edge: the store key of the target node and whether
// the field holds a list of such entities. Edges are keys, never node
// pointers, so the schema graph may contain cycles and forward references.
type Ref struct {
	Key  string
	List bool
}

// IsZero reports whether no target is named.
func (r Ref) IsZero() bool {
	return r.Key == ""
}

// Node is a registered entity schema.
type Node struct {
	// StoreKey is the top-level key under which records are cached.
	StoreKey string
	// ID extracts the identity of a raw record.
	ID IDFunc
	// Relations maps field names to their target schemas.
	Relations map[string]Ref
}

// Registry holds the schema graph. Definition happens in two phases:
// Define creates nodes, Relate attaches edges that may point anywhere.
type Registry interface {
	// Define creates a node for storeKey. Redefinition with a different
	// IDFunc is a conflict.
	Define(storeKey string, id IDFunc) error
	// Relate attaches (or extends) relation edges of an existing node.
	Relate(storeKey string, relations map[string]Ref) error
	// Lookup returns the node for storeKey if present.
	Lookup(storeKey string) (Node, bool)
	// Validate reports every relation whose target is not defined.
	Validate() error
	// Entries returns a snapshot of all nodes (order is unspecified).
	Entries() []Node
	// Count returns the number of defined nodes.
	Count() int
}

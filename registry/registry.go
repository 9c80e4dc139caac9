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

package registry

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"dirpx.dev/trn/apis"
)

var (
	// ErrEmptyKey is returned when an empty store key is provided.
	ErrEmptyKey = errors.New("trn(registry): empty store key provided")
	// ErrNilIDFunc is returned when a nil identity function is provided.
	ErrNilIDFunc = errors.New("trn(registry): nil id function provided")
	// ErrConflictingDefinition indicates an attempt to redefine a store key
	// with a different identity function.
	ErrConflictingDefinition = errors.New("trn(registry): conflicting schema definition")
	// ErrUnknownNode is returned when relations are attached to an undefined node.
	ErrUnknownNode = errors.New("trn(registry): unknown schema node")
	// ErrDanglingRelation is reported by Validate for every edge whose
	// target is not defined.
	ErrDanglingRelation = errors.New("trn(registry): relation targets undefined node")
)

// New constructs an empty Registry.
func New() apis.Registry {
	return &registry{}
}

// registry is an arena of schema nodes backed by sync.Map.
// Stored nodes are never mutated; Relate publishes a fresh copy.
type registry struct {
	// mu serializes writers and guards count.
	mu sync.Mutex
	// m maps store key to apis.Node.
	m sync.Map // map[string]apis.Node
	// count tracks the number of defined nodes.
	count int
}

// Define creates the node for storeKey. Identity functions are compared by
// entry point, so redefining with the same function value is a no-op.
func (r *registry) Define(storeKey string, id apis.IDFunc) error {
	if storeKey == "" {
		return ErrEmptyKey
	}
	if id == nil {
		return ErrNilIDFunc
	}

	// Fast read path.
	if old, ok := r.m.Load(storeKey); ok {
		return sameID(old.(apis.Node).ID, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under lock in case another goroutine stored meanwhile.
	if old, ok := r.m.Load(storeKey); ok {
		return sameID(old.(apis.Node).ID, id)
	}

	r.m.Store(storeKey, apis.Node{StoreKey: storeKey, ID: id})
	r.count++
	return nil
}

// Relate attaches relation edges to an existing node. Targets may be
// defined later; Validate reports the ones that never were. A field that
// is related twice keeps the latest edge.
func (r *registry) Relate(storeKey string, relations map[string]apis.Ref) error {
	if storeKey == "" {
		return ErrEmptyKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.m.Load(storeKey)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, storeKey)
	}
	n := v.(apis.Node)

	merged := make(map[string]apis.Ref, len(n.Relations)+len(relations))
	maps.Copy(merged, n.Relations)
	for field, ref := range relations {
		if field == "" || ref.IsZero() {
			return fmt.Errorf("trn(registry): invalid relation %q on %q", field, storeKey)
		}
		merged[field] = ref
	}
	n.Relations = merged
	r.m.Store(storeKey, n)
	return nil
}

// Lookup returns the node for storeKey if present.
func (r *registry) Lookup(storeKey string) (apis.Node, bool) {
	if storeKey == "" {
		return apis.Node{}, false
	}
	if v, ok := r.m.Load(storeKey); ok {
		return v.(apis.Node), true
	}
	return apis.Node{}, false
}

// Validate returns every dangling edge, combined, in store key then field order.
func (r *registry) Validate() error {
	nodes := r.Entries()
	slices.SortFunc(nodes, func(a, b apis.Node) int {
		return strings.Compare(a.StoreKey, b.StoreKey)
	})

	var err error
	for _, n := range nodes {
		for _, field := range slices.Sorted(maps.Keys(n.Relations)) {
			target := n.Relations[field].Key
			if _, ok := r.m.Load(target); !ok {
				err = multierr.Append(err, fmt.Errorf("%w: %s.%s -> %s", ErrDanglingRelation, n.StoreKey, field, target))
			}
		}
	}
	return err
}

// Entries returns a snapshot for diagnostics/docs (order is unspecified).
func (r *registry) Entries() []apis.Node {
	entries := make([]apis.Node, 0, r.Count())
	r.m.Range(func(_, value any) bool {
		entries = append(entries, value.(apis.Node))
		return true
	})
	return entries
}

// Count returns the number of defined nodes.
func (r *registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func sameID(old, id apis.IDFunc) error {
	if reflect.ValueOf(old).Pointer() == reflect.ValueOf(id).Pointer() {
		return nil
	}
	return ErrConflictingDefinition
}

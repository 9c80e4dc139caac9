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

// Package normalize flattens nested JSON payloads into ID-indexed entities
// following the relation edges of a schema registry.
package normalize

import (
	"errors"
	"fmt"

	"dirpx.dev/trn/apis"
	"dirpx.dev/trn/cache"
	"dirpx.dev/trn/utils/jsonv"
)

var (
	// ErrUnknownNode is returned when a ref names a store key that the
	// registry does not define.
	ErrUnknownNode = errors.New("trn(normalize): unknown schema node")
	// ErrShape is returned when a payload does not match its schema shape.
	ErrShape = errors.New("trn(normalize): payload shape mismatch")
)

// Normalize flattens raw against ref.
//
// Absent values (nil, JSON null, empty object) carry no entity: at the top
// level they yield a nil Result; as a relation value the field is dropped
// from the parent record. A list ref given a single value treats it as a
// one-element list. A scalar id where a record is expected is kept as the
// reference and adds no entity. raw is never modified.
func Normalize(reg apis.Registry, raw any, ref apis.Ref) (apis.Response, error) {
	n := &normalizer{reg: reg, entities: apis.Entities{}}
	if jsonv.IsAbsent(raw) {
		if _, ok := reg.Lookup(ref.Key); !ok {
			return apis.Response{}, fmt.Errorf("%w: %q", ErrUnknownNode, ref.Key)
		}
		return apis.Response{Entities: n.entities}, nil
	}
	result, err := n.visit(raw, ref)
	if err != nil {
		return apis.Response{}, err
	}
	return apis.Response{Result: result, Entities: n.entities}, nil
}

type normalizer struct {
	reg      apis.Registry
	entities apis.Entities
}

// visit returns the reference form of v.
func (n *normalizer) visit(v any, ref apis.Ref) (any, error) {
	node, ok := n.reg.Lookup(ref.Key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, ref.Key)
	}

	if !ref.List {
		if _, isList := jsonv.List(v); isList {
			return nil, fmt.Errorf("%w: %s expects an object, got a list", ErrShape, ref.Key)
		}
		return n.entity(v, node)
	}

	list, ok := jsonv.List(v)
	if !ok {
		list = []any{v}
	}
	refs := make([]any, 0, len(list))
	for _, e := range list {
		if jsonv.IsAbsent(e) {
			continue
		}
		r, err := n.entity(e, node)
		if err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, nil
}

// entity flattens one record and returns its reference.
func (n *normalizer) entity(v any, node apis.Node) (any, error) {
	obj, ok := jsonv.Object(v)
	if !ok {
		// An already-normalized reference passes through unchanged.
		if id, isID := jsonv.KeyOf(v); isID {
			return id, nil
		}
		return nil, fmt.Errorf("%w: %s record is %T", ErrShape, node.StoreKey, v)
	}
	key, err := node.ID(obj)
	if err != nil {
		return nil, fmt.Errorf("trn(normalize): %s id: %w", node.StoreKey, err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: %s id is empty", ErrShape, node.StoreKey)
	}

	flat := make(map[string]any, len(obj))
	for field, val := range obj {
		rel, isRel := node.Relations[field]
		if !isRel {
			flat[field] = jsonv.Clone(val)
			continue
		}
		if jsonv.IsAbsent(val) {
			continue
		}
		r, err := n.visit(val, rel)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", node.StoreKey, field, err)
		}
		flat[field] = r
	}

	n.put(node.StoreKey, key, flat)
	return key.Ref(), nil
}

// put merges record at entities[storeKey][key...], building intermediate
// levels of composite keys as needed.
func (n *normalizer) put(storeKey string, key apis.Key, record map[string]any) {
	ids, ok := n.entities[storeKey]
	if !ok {
		ids = map[string]any{}
		n.entities[storeKey] = ids
	}

	level := ids
	for _, seg := range key[:len(key)-1] {
		next, ok := jsonv.Object(level[seg])
		if !ok {
			next = map[string]any{}
			level[seg] = next
		}
		level = next
	}
	last := key[len(key)-1]
	level[last] = cache.MergeValue(level[last], record)
}

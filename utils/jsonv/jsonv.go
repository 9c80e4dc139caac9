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

// Package jsonv classifies and copies decoded JSON values, the
// map[string]any / []any / scalar trees produced by encoding/json.
package jsonv

import (
	"encoding/json"
	"strconv"
)

// Object reports whether v is a JSON object and returns it.
func Object(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// List reports whether v is a JSON array and returns it.
func List(v any) ([]any, bool) {
	l, ok := v.([]any)
	return l, ok
}

// IsAbsent reports whether v carries no entity: nil, JSON null, or an
// empty object.
func IsAbsent(v any) bool {
	if v == nil {
		return true
	}
	if m, ok := v.(map[string]any); ok {
		return len(m) == 0
	}
	return false
}

// KeyOf converts a scalar identity value to its key segment.
//
// Accepted inputs:
//   - non-empty string          -> as-is
//   - json.Number               -> its literal text
//   - float64 / float32         -> shortest decimal form ("3", "2.5")
//   - signed / unsigned integer -> base-10 form
//
// Anything else (nil, bool, objects, lists, empty strings) reports false.
func KeyOf(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, x != ""
	case json.Number:
		return x.String(), x != ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case int:
		return strconv.Itoa(x), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	case uint32:
		return strconv.FormatUint(uint64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	default:
		return "", false
	}
}

// Clone deep-copies objects and arrays. Scalars are returned as-is.
func Clone(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return CloneObject(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Clone(e)
		}
		return out
	default:
		return x
	}
}

// CloneObject deep-copies m. A nil map stays nil.
func CloneObject(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, e := range m {
		out[k] = Clone(e)
	}
	return out
}

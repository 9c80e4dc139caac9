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
	"dirpx.dev/trn/apis"
	"dirpx.dev/trn/utils/jsonv"
)

// Merge returns state with incoming deep-merged on top of it.
//
// Merge rules:
//   - object + object -> recursive merge, keys of both sides kept
//   - anything else   -> incoming replaces the old value wholesale
//     (lists and scalars are never merged element-wise)
//
// Neither argument is modified. Subtrees that incoming does not touch are
// shared with state, so callers must treat both as read-only afterwards.
func Merge(state, incoming apis.Entities) apis.Entities {
	out := make(apis.Entities, len(state)+len(incoming))
	for k, ids := range state {
		out[k] = ids
	}
	for k, ids := range incoming {
		out[k] = MergeValue(state[k], ids).(map[string]any)
	}
	return out
}

// MergeValue applies the Merge rules to one pair of values.
func MergeValue(old, incoming any) any {
	om, ok := jsonv.Object(old)
	if !ok {
		return incoming
	}
	im, ok := jsonv.Object(incoming)
	if !ok {
		return incoming
	}
	out := make(map[string]any, len(om)+len(im))
	for k, v := range om {
		out[k] = v
	}
	for k, v := range im {
		if ov, exists := om[k]; exists {
			out[k] = MergeValue(ov, v)
			continue
		}
		out[k] = v
	}
	return out
}

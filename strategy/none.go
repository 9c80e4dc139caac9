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

package strategy

import (
	"dirpx.dev/trn/apis"
	"dirpx.dev/trn/cache/policy"
)

// NewNoneStrategy creates an apis.Policy that always fetches.
func NewNoneStrategy() apis.Policy {
	return noneStrategy{}
}

// noneStrategy never trusts the cache.
type noneStrategy struct{}

// Ensure noneStrategy implements apis.Policy.
var _ apis.Policy = (*noneStrategy)(nil)

// NeedsFetch always returns true.
func (noneStrategy) NeedsFetch(map[string]any, bool, []string) bool {
	return true
}

// For returns the strategy implementing p. Unknown values fall back to
// the None strategy, so a corrupted policy fetches rather than serving
// stale data.
func For(p policy.Policy) apis.Policy {
	switch p {
	case policy.Exists:
		return NewExistsStrategy()
	case policy.ExistsWithFields:
		return NewExistsWithFieldsStrategy()
	default:
		return NewNoneStrategy()
	}
}

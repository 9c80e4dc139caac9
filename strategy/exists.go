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
)

// NewExistsStrategy creates an apis.Policy that fetches only when nothing
// is cached under the identity.
func NewExistsStrategy() apis.Policy {
	return existsStrategy{}
}

// existsStrategy trusts any cached record, whatever its shape.
type existsStrategy struct{}

// Ensure existsStrategy implements apis.Policy.
var _ apis.Policy = (*existsStrategy)(nil)

// NeedsFetch reports whether the record is missing. Fields are ignored.
func (existsStrategy) NeedsFetch(_ map[string]any, found bool, _ []string) bool {
	return !found
}

// NewExistsWithFieldsStrategy creates an apis.Policy that fetches when the
// record is missing or lacks any required field.
func NewExistsWithFieldsStrategy() apis.Policy {
	return existsWithFieldsStrategy{}
}

// existsWithFieldsStrategy checks key presence only; a null value counts
// as present.
type existsWithFieldsStrategy struct{}

// Ensure existsWithFieldsStrategy implements apis.Policy.
var _ apis.Policy = (*existsWithFieldsStrategy)(nil)

// NeedsFetch reports whether the record is missing or partial.
func (existsWithFieldsStrategy) NeedsFetch(record map[string]any, found bool, fields []string) bool {
	if !found {
		return true
	}
	for _, f := range fields {
		if _, ok := record[f]; !ok {
			return true
		}
	}
	return false
}

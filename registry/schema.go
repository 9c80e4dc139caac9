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

	"dirpx.dev/trn/apis"
	"dirpx.dev/trn/utils/jsonv"
)

// ErrMissingID is returned by identity functions when a key field is
// absent or not a usable scalar.
var ErrMissingID = errors.New("trn(registry): missing identity field")

// One returns an edge to a single entity of storeKey.
func One(storeKey string) apis.Ref {
	return apis.Ref{Key: storeKey}
}

// Many returns an edge to a list of entities of storeKey.
func Many(storeKey string) apis.Ref {
	return apis.Ref{Key: storeKey, List: true}
}

// ByField returns an IDFunc that reads the scalar at field.
func ByField(field string) apis.IDFunc {
	return func(record map[string]any) (apis.Key, error) {
		seg, err := segment(record, field)
		if err != nil {
			return nil, err
		}
		return apis.Key{seg}, nil
	}
}

// ByFields returns an IDFunc for a composite identity, one segment per
// field, in the given order.
func ByFields(fields ...string) apis.IDFunc {
	return func(record map[string]any) (apis.Key, error) {
		key := make(apis.Key, 0, len(fields))
		for _, f := range fields {
			seg, err := segment(record, f)
			if err != nil {
				return nil, err
			}
			key = append(key, seg)
		}
		return key, nil
	}
}

func segment(record map[string]any, field string) (string, error) {
	seg, ok := jsonv.KeyOf(record[field])
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingID, field)
	}
	return seg, nil
}

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

package pipeline

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iancoleman/strcase"
)

// Camelize rewrites every object key of v to lowerCamel form, recursively.
// Keys made of digits only are left alone since they are ids, not names.
// v is rebuilt, not modified.
func Camelize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[camelKey(k)] = Camelize(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Camelize(e)
		}
		return out
	default:
		return x
	}
}

// camelKey lowercases the first letter of k. Keys holding "_", "-" or
// whitespace separators are converted by strcase; anything else keeps its
// inner casing and punctuation, so "teamID" stays "teamID".
func camelKey(k string) string {
	if k == "" || strings.Trim(k, "0123456789") == "" {
		return k
	}
	if strings.ContainsFunc(k, isSeparator) {
		return strcase.ToLowerCamel(k)
	}
	r, size := utf8.DecodeRuneInString(k)
	return string(unicode.ToLower(r)) + k[size:]
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || unicode.IsSpace(r)
}

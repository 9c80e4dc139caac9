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

package policy

import (
	"fmt"
	"strings"
)

// Policy controls how a cache-consult guard treats a cached record.
//
// # Overview
//
// Policy is a small enumerated type declared once per resource kind. It
// selects the rule a guard applies before dispatching a fetch: always
// fetch, fetch only when the identity is missing, or fetch when the
// identity is missing or lacks a required field.
//
// Policy does not name the fields themselves; those are passed by the
// caller on every consult.
//
// # Values
//
//   - None             - always fetch; the cache is never trusted.
//   - Exists           - fetch only when the identity is absent.
//   - ExistsWithFields - fetch when the identity is absent or any
//     required field is missing from the cached record.
//
// # Contract
//
//   - Values are persisted in configuration and metric labels; existing
//     values MUST NOT change spelling or meaning.
//   - Policy values are plain integers and safe to share across goroutines.
type Policy int

const (
	// None always requests a fetch.
	//
	// # Semantics
	//
	// None is the declared policy of resources whose cached copy goes stale
	// while it is being watched, such as a live match. Its presence in a
	// resource catalog marks a deliberate live-refresh override.
	None Policy = iota

	// Exists requests a fetch only when no record is cached under the
	// identity. Required fields are ignored.
	//
	// # Semantics
	//
	// Exists suits aggregate resources that are fetched whole and carry no
	// partially-loaded shape, for example standings tables.
	Exists

	// ExistsWithFields requests a fetch unless a record is cached under the
	// identity and has every required field as a key.
	//
	// # Semantics
	//
	// A field counts as present when the key exists, even if its value is
	// null. An empty field list degrades to Exists.
	ExistsWithFields
)

// String returns the canonical token of the Policy value.
//
// For defined values the tokens are:
//
//   - None             -> "NONE"
//   - Exists           -> "EXISTS"
//   - ExistsWithFields -> "EXISTS_WITH_FIELDS"
//
// Unknown values render as "Unknown(<n>)". String MUST NOT panic, so
// corrupted values still surface in logs.
func (p Policy) String() string {
	switch p {
	case None:
		return "NONE"
	case Exists:
		return "EXISTS"
	case ExistsWithFields:
		return "EXISTS_WITH_FIELDS"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// Parse parses a textual representation of a Policy.
//
// # Overview
//
// Parse accepts the tokens produced by String, matched case-insensitively.
// Hyphens and inner spaces are read as underscores, so "exists-with-fields"
// and "Exists With Fields" both parse.
//
// # Contract
//
//   - s MAY contain surrounding whitespace; it will be trimmed.
//   - On failure, Parse returns None and a non-nil error; callers MUST NOT
//     rely on the returned value in the error case.
//   - Parse MUST NOT panic for any input.
//
// Example:
//
//	p, err := Parse("exists")
//	if err != nil {
//	    // handle invalid configuration
//	}
//
//	_ = p // Exists
func Parse(s string) (Policy, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return None, fmt.Errorf("policy: empty policy")
	}

	token := strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(trimmed))
	switch token {
	case "NONE":
		return None, nil
	case "EXISTS":
		return Exists, nil
	case "EXISTS_WITH_FIELDS":
		return ExistsWithFields, nil
	default:
		return None, fmt.Errorf("policy: unknown policy %q", s)
	}
}

// MustParse is like Parse but panics on invalid input.
//
// It is intended for hard-coded resource catalogs and tests, where an
// invalid token is a programmer error. Callers MUST NOT use it on
// user-supplied data.
//
//	var live = MustParse("NONE")
func MustParse(s string) Policy {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// MarshalText implements encoding.TextMarshaler.
//
// # Contract
//
//   - Defined values encode to the same tokens as String.
//   - Unknown values return an error instead of persisting an
//     "Unknown(...)" form.
func (p Policy) MarshalText() ([]byte, error) {
	switch p {
	case None, Exists, ExistsWithFields:
		return []byte(p.String()), nil
	default:
		return nil, fmt.Errorf("policy: cannot marshal unknown policy %d", p)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler with the rules of Parse.
//
// # Contract
//
//   - An empty or whitespace-only text is an error.
//   - On failure, *p is left unchanged.
func (p *Policy) UnmarshalText(text []byte) error {
	value, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = value
	return nil
}

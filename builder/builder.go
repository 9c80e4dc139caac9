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

package builder

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"dirpx.dev/trn/apis"
	"dirpx.dev/trn/cache/policy"
	"dirpx.dev/trn/guard"
	"dirpx.dev/trn/registry"
)

// ErrBadResource is returned by BuildGuards for a resource that cannot be served.
var ErrBadResource = errors.New("trn(builder): invalid resource")

// Option customizes the catalog of a builder.
type Option func(*builder)

// WithResource adds r to the catalog, replacing any resource of the same kind.
func WithResource(r Resource) Option {
	return func(b *builder) {
		for i := range b.resources {
			if b.resources[i].Kind == r.Kind {
				b.resources[i] = r
				return
			}
		}
		b.resources = append(b.resources, r)
	}
}

// WithPolicy overrides the declared policy of kind. Unknown kinds are ignored.
func WithPolicy(kind string, p policy.Policy) Option {
	return func(b *builder) {
		for i := range b.resources {
			if b.resources[i].Kind == kind {
				b.resources[i].Policy = p
			}
		}
	}
}

// New creates an apis.Builder over the TRN catalog.
func New(opts ...Option) apis.Builder {
	b := &builder{resources: Resources()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// builder composes the TRN schema graph and its guards.
type builder struct {
	resources []Resource
}

// BuildRegistry defines every node first and relates them second, so
// declaration order never matters. The graph is validated before return.
func (b *builder) BuildRegistry(_ apis.Config) (apis.Registry, error) {
	reg := registry.New()
	nodes := schemas()

	var err error
	for _, n := range nodes {
		err = multierr.Append(err, reg.Define(n.storeKey, n.id))
	}
	if err != nil {
		return nil, fmt.Errorf("define schemas: %w", err)
	}
	for _, n := range nodes {
		if len(n.relations) > 0 {
			err = multierr.Append(err, reg.Relate(n.storeKey, n.relations))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("relate schemas: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("validate schemas: %w", err)
	}
	return reg, nil
}

// BuildGuards builds one guard per resource. Every resource must name a
// kind, a store key, a path and a schema registered in reg.
func (b *builder) BuildGuards(_ apis.Config, reg apis.Registry) ([]apis.Guard, error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: nil registry", ErrBadResource)
	}

	var err error
	guards := make([]apis.Guard, 0, len(b.resources))
	for _, r := range b.resources {
		switch {
		case r.Kind == "" || r.StoreKey == "" || r.Prefix == "" || r.Path == nil:
			err = multierr.Append(err, fmt.Errorf("%w: %q is incomplete", ErrBadResource, r.Kind))
			continue
		case r.Schema.IsZero():
			err = multierr.Append(err, fmt.Errorf("%w: %q has no schema", ErrBadResource, r.Kind))
			continue
		}
		if _, ok := reg.Lookup(r.Schema.Key); !ok {
			err = multierr.Append(err, fmt.Errorf("%w: %q schema %q is not registered", ErrBadResource, r.Kind, r.Schema.Key))
			continue
		}
		guards = append(guards, guard.New(r.Kind, r.StoreKey, r.Policy, r.Describe))
	}
	if err != nil {
		return nil, err
	}
	return guards, nil
}

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

package config

import (
	"fmt"
	"strings"
	"time"

	"dirpx.dev/trn/apis"
)

const (
	// DefaultBaseURL is the root of the TRN read-only API.
	DefaultBaseURL = "https://fantasyrugbyengine-hrd.appspot.com/_ah/api/topten/v1/"
	// DefaultTimeout of zero leaves HTTP exchanges unbounded.
	DefaultTimeout time.Duration = 0
	// DefaultDedup issues one request per descriptor.
	DefaultDedup = apis.DedupNone
)

// NewConfig constructs an apis.Config from the given options.
func NewConfig(opts ...Option) apis.Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	// Ensure Timeout is valid.
	if cfg.Timeout < 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg
}

// DefaultConfig is the default configuration used when none is provided.
func DefaultConfig() apis.Config {
	return apis.Config{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
		Dedup:   DefaultDedup,
	}
}

// Option is a functional option that mutates an apis.Config during construction.
type Option func(*apis.Config)

// WithBaseURL sets the BaseURL option. An empty value keeps the default.
func WithBaseURL(u string) Option {
	return func(c *apis.Config) {
		if u == "" {
			return
		}
		c.BaseURL = u
	}
}

// WithTimeout sets the Timeout option.
// A negative value resets to the default.
func WithTimeout(d time.Duration) Option {
	return func(c *apis.Config) {
		if d < 0 {
			c.Timeout = DefaultTimeout
			return
		}
		c.Timeout = d
	}
}

// WithDedup sets the Dedup option.
func WithDedup(d apis.Dedup) Option {
	return func(c *apis.Config) {
		c.Dedup = d
	}
}

// WithUserAgent sets the UserAgent option.
func WithUserAgent(ua string) Option {
	return func(c *apis.Config) {
		c.UserAgent = ua
	}
}

// ParseDedup parses a dedup token, case-insensitively. Empty means none.
func ParseDedup(s string) (apis.Dedup, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(apis.DedupNone):
		return apis.DedupNone, nil
	case string(apis.DedupInflight):
		return apis.DedupInflight, nil
	default:
		return apis.DedupNone, fmt.Errorf("trn(config): unknown dedup policy %q", s)
	}
}

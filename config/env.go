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
	"time"

	"github.com/caarlos0/env/v11"

	"dirpx.dev/trn/apis"
)

// envConfig holds raw environment values.
type envConfig struct {
	BaseURL   string        `env:"TRN_BASE_URL"`
	Timeout   time.Duration `env:"TRN_TIMEOUT"`
	Dedup     string        `env:"TRN_DEDUP"`
	UserAgent string        `env:"TRN_USER_AGENT"`
}

// FromEnv returns the default configuration overlaid with TRN_* variables.
func FromEnv() (apis.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return apis.Config{}, fmt.Errorf("parse env: %w", err)
	}
	dedup, err := ParseDedup(raw.Dedup)
	if err != nil {
		return apis.Config{}, err
	}
	return NewConfig(
		WithBaseURL(raw.BaseURL),
		WithTimeout(raw.Timeout),
		WithDedup(dedup),
		WithUserAgent(raw.UserAgent),
	), nil
}

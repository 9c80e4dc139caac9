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

package apis

import "time"

// Config carries read-only transport knobs for the request pipeline.
// It is passed by value and should be treated as immutable by implementations.
type Config struct {
	// BaseURL is prefixed to every relative endpoint.
	BaseURL string

	// Timeout bounds a single HTTP exchange. Zero means no timeout.
	Timeout time.Duration

	// Dedup selects how concurrent dispatches of the same URL are handled.
	Dedup Dedup

	// UserAgent is sent with every request when non-empty.
	UserAgent string
}

// Dedup controls in-flight request coalescing.
type Dedup string

const (
	// DedupNone issues one HTTP request per dispatched descriptor.
	DedupNone Dedup = "none"
	// DedupInflight shares one HTTP round-trip between concurrent
	// dispatches that resolve to the same URL.
	DedupInflight Dedup = "inflight"
)

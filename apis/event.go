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

import (
	"context"
	"fmt"
	"time"
)

// Phase is the lifecycle position of a dispatched descriptor.
type Phase int

const (
	// Idle is the state before dispatch. No event carries it.
	Idle Phase = iota
	// Requested is emitted synchronously before the network call starts.
	Requested
	// Succeeded is terminal: the body was fetched and normalized.
	Succeeded
	// Failed is terminal: the call, the status or the body was unusable.
	Failed
)

// String returns a stable token for logs and metric labels.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Requested:
		return "requested"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// Terminal reports whether p ends a lifecycle.
func (p Phase) Terminal() bool {
	return p == Succeeded || p == Failed
}

// Event is one lifecycle notification.
type Event struct {
	// Type is the descriptor's event type for this phase.
	Type string
	// Phase is the lifecycle position.
	Phase Phase
	// Kind and Key echo the descriptor identity.
	Kind string
	Key  Key
	// Response is set on Succeeded.
	Response *Response
	// Error is a human-readable message, set on Failed.
	Error string
	// Err is the classified cause, set on Failed.
	Err error
}

// EmitFunc receives lifecycle events. The pipeline calls it from the
// dispatching goroutine for Requested and from a worker goroutine for
// the terminal event.
type EmitFunc func(Event)

// Sink consumes lifecycle events after the cache has applied them.
type Sink interface {
	Handle(ctx context.Context, ev Event) error
}

// Recorder receives pipeline and guard observations.
type Recorder interface {
	// ObserveRequest records a terminal outcome for kind.
	ObserveRequest(kind string, phase Phase, d time.Duration)
	// ObserveGuard records whether a guard asked for a fetch.
	ObserveGuard(kind string, fetch bool)
}

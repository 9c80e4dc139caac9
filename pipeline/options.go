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
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"dirpx.dev/trn/apis"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConfig sets the transport configuration.
func WithConfig(cfg apis.Config) Option {
	return func(p *Pipeline) {
		p.cfg = cfg
	}
}

// WithHTTPClient sets the HTTP client. Nil keeps the default.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.client = c
		}
	}
}

// WithLogger sets the logger. Nil keeps the discarding default.
func WithLogger(log *slog.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// WithRecorder sets the metrics recorder. Nil keeps the no-op default.
func WithRecorder(r apis.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.rec = r
		}
	}
}

// WithTracerProvider sets the provider of the fetch tracer. Nil keeps the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Pipeline) {
		if tp != nil {
			p.tp = tp
		}
	}
}

// NullWriter is a writer that discards all data.
type NullWriter struct{}

func (NullWriter) Write(b []byte) (int, error) { return len(b), nil }

// NullLogger creates a logger that discards all output.
func NullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(NullWriter{}, nil))
}

// NopRecorder discards observations.
type NopRecorder struct{}

var _ apis.Recorder = NopRecorder{}

func (NopRecorder) ObserveRequest(string, apis.Phase, time.Duration) {}
func (NopRecorder) ObserveGuard(string, bool)                        {}

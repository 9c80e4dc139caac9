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

// Package metrics records request outcomes and guard decisions as
// Prometheus series.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"dirpx.dev/trn/apis"
)

// Namespace prefixes every series.
const Namespace = "trn"

// Recorder is the Prometheus implementation of apis.Recorder.
type Recorder struct {
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	guards    *prometheus.CounterVec
}

var _ apis.Recorder = (*Recorder)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_total",
			Help:      "Terminal request outcomes by resource kind.",
		}, []string{"kind", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "request_duration_seconds",
			Help:      "Time from dispatch to terminal event by resource kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		guards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "guard_decisions_total",
			Help:      "Cache-consult decisions by resource kind.",
		}, []string{"kind", "decision"}),
	}
	for _, c := range []prometheus.Collector{r.requests, r.durations, r.guards} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return r, nil
}

// ObserveRequest records one terminal outcome.
func (r *Recorder) ObserveRequest(kind string, phase apis.Phase, d time.Duration) {
	r.requests.WithLabelValues(kind, phase.String()).Inc()
	r.durations.WithLabelValues(kind).Observe(d.Seconds())
}

// ObserveGuard records one guard decision: "fetch" or "cached".
func (r *Recorder) ObserveGuard(kind string, fetch bool) {
	decision := "cached"
	if fetch {
		decision = "fetch"
	}
	r.guards.WithLabelValues(kind, decision).Inc()
}

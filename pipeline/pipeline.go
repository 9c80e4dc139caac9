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

// Package pipeline runs the three-phase request lifecycle: it validates a
// descriptor, emits the request event, fetches and normalizes the body in
// the background, and emits exactly one terminal event.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"dirpx.dev/trn/apis"
	"dirpx.dev/trn/config"
)

// TracerName is the instrumentation scope of fetch spans.
const TracerName = "dirpx.dev/trn/pipeline"

// Pipeline dispatches descriptors. It is safe for concurrent use.
type Pipeline struct {
	cfg    apis.Config
	reg    apis.Registry
	client *http.Client
	log    *slog.Logger
	rec    apis.Recorder
	tp     trace.TracerProvider
	tracer trace.Tracer
	group  singleflight.Group
}

// New constructs a Pipeline normalizing against reg. It panics on a nil
// registry.
func New(reg apis.Registry, opts ...Option) *Pipeline {
	if reg == nil {
		panic(ErrNilRegistry)
	}
	p := &Pipeline{
		cfg:    config.DefaultConfig(),
		reg:    reg,
		client: http.DefaultClient,
		log:    NullLogger(),
		rec:    NopRecorder{},
		tp:     otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.tracer = p.tp.Tracer(TracerName)
	return p
}

// Config returns the transport configuration in use.
func (p *Pipeline) Config() apis.Config { return p.cfg }

// Request is the future of one dispatched descriptor.
type Request struct {
	done chan struct{}
	ev   apis.Event
}

// Done is closed once the terminal event has been emitted.
func (r *Request) Done() <-chan struct{} { return r.done }

// Wait blocks until the terminal event has been emitted and returns it.
func (r *Request) Wait() apis.Event {
	<-r.done
	return r.ev
}

// Dispatch validates d, emits its request event and starts the fetch.
//
// Validation failures return a *ConfigError and emit nothing. Otherwise
// the Requested event is emitted before Dispatch returns and the terminal
// event follows from another goroutine. The fetch keeps ctx values but
// not its cancellation: once started, a request runs to completion.
func (p *Pipeline) Dispatch(ctx context.Context, d apis.Descriptor, snap apis.Snapshot, emit apis.EmitFunc) (*Request, error) {
	url, err := p.validate(d, snap)
	if err != nil {
		return nil, &ConfigError{Kind: d.Kind, Err: err}
	}
	if emit == nil {
		emit = func(apis.Event) {}
	}

	req := &Request{done: make(chan struct{})}
	p.log.Debug("trn: request", "kind", d.Kind, "key", d.Key.String(), "url", url)
	emit(apis.Event{Type: d.Types[0], Phase: apis.Requested, Kind: d.Kind, Key: d.Key})

	go p.run(context.WithoutCancel(ctx), d, url, emit, req)
	return req, nil
}

func (p *Pipeline) validate(d apis.Descriptor, snap apis.Snapshot) (string, error) {
	if d.Endpoint == nil {
		return "", ErrNoEndpoint
	}
	endpoint := d.Endpoint(snap)
	if strings.TrimSpace(endpoint) == "" {
		return "", ErrEmptyEndpoint
	}
	if d.Schema.IsZero() {
		return "", ErrNoSchema
	}
	if _, ok := p.reg.Lookup(d.Schema.Key); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSchema, d.Schema.Key)
	}
	if len(d.Types) != 3 {
		return "", ErrTypes
	}
	for _, t := range d.Types {
		if t == "" {
			return "", ErrTypes
		}
	}
	return p.resolve(endpoint), nil
}

// resolve prefixes relative endpoints with the base URL.
func (p *Pipeline) resolve(endpoint string) string {
	base := p.cfg.BaseURL
	if base == "" || strings.Contains(endpoint, base) {
		return endpoint
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return base + endpoint
}

func (p *Pipeline) run(ctx context.Context, d apis.Descriptor, url string, emit apis.EmitFunc, req *Request) {
	defer close(req.done)

	start := time.Now()
	ev := p.execute(ctx, d, url)
	elapsed := time.Since(start)
	p.rec.ObserveRequest(d.Kind, ev.Phase, elapsed)

	if ev.Phase == apis.Failed {
		p.log.Debug("trn: failure", "kind", d.Kind, "key", d.Key.String(), "url", url, "err", ev.Err, "elapsed", elapsed)
	} else {
		p.log.Debug("trn: success", "kind", d.Kind, "key", d.Key.String(), "url", url, "elapsed", elapsed)
	}

	req.ev = ev
	emit(ev)
}

// execute performs the fetch and always returns a terminal event.
func (p *Pipeline) execute(ctx context.Context, d apis.Descriptor, url string) (ev apis.Event) {
	ctx, span := p.tracer.Start(ctx, "trn.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("trn.kind", d.Kind),
			attribute.String("trn.key", d.Key.String()),
			attribute.String("url.full", url),
		),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			ev = p.failure(d, &DecodeError{URL: url, Err: fmt.Errorf("panic: %v", r)})
		}
		if ev.Phase == apis.Failed {
			span.RecordError(ev.Err)
			span.SetStatus(codes.Error, ev.Error)
		}
	}()

	body, err := p.fetch(ctx, url)
	if err != nil {
		return p.failure(d, err)
	}
	resp, err := p.decode(url, body, d.Schema)
	if err != nil {
		return p.failure(d, err)
	}
	return apis.Event{
		Type:     d.Types[1],
		Phase:    apis.Succeeded,
		Kind:     d.Kind,
		Key:      d.Key,
		Response: &resp,
	}
}

func (p *Pipeline) failure(d apis.Descriptor, err error) apis.Event {
	return apis.Event{
		Type:  d.Types[2],
		Phase: apis.Failed,
		Kind:  d.Kind,
		Key:   d.Key,
		Error: failureMessage(err),
		Err:   err,
	}
}

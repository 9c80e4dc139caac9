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


package trn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"dirpx.dev/trn/apis"
	"dirpx.dev/trn/builder"
	"dirpx.dev/trn/cache"
	"dirpx.dev/trn/config"
	"dirpx.dev/trn/guard"
	"dirpx.dev/trn/pipeline"
)

var (
	// ErrNilRegistry is returned when a builder returns a nil registry.
	ErrNilRegistry = errors.New("trn: builder returned nil registry")
	// ErrUnknownKind is returned by Load for a kind no guard serves.
	ErrUnknownKind = errors.New("trn: unknown resource kind")
)

// Option configures a Client.
type Option func(*options)

type options struct {
	cfg       apis.Config
	http      *http.Client
	log       *slog.Logger
	rec       apis.Recorder
	tp        trace.TracerProvider
	bld       apis.Builder
	preloaded apis.Entities
	sinks     []apis.Sink
}

// WithConfig sets the transport configuration.
func WithConfig(cfg apis.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithHTTPClient sets the HTTP client used for every fetch.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.http = c }
}

// WithLogger sets the logger. Nil keeps the discarding default.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithRecorder sets the metrics recorder. Nil keeps the no-op default.
func WithRecorder(r apis.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.rec = r
		}
	}
}

// WithTracerProvider sets the provider of fetch spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tp = tp }
}

// WithBuilder replaces the resource catalog. Nil keeps the TRN catalog.
func WithBuilder(b apis.Builder) Option {
	return func(o *options) {
		if b != nil {
			o.bld = b
		}
	}
}

// WithPreloaded seeds the cache with entities, typically a persisted snapshot.
func WithPreloaded(entities apis.Entities) Option {
	return func(o *options) { o.preloaded = entities }
}

// WithSink forwards every lifecycle event to s. May be repeated.
func WithSink(s apis.Sink) Option {
	return func(o *options) {
		if s != nil {
			o.sinks = append(o.sinks, s)
		}
	}
}

// SinkFunc adapts a function to apis.Sink.
type SinkFunc func(ctx context.Context, ev apis.Event) error

// Handle calls f(ctx, ev).
func (f SinkFunc) Handle(ctx context.Context, ev apis.Event) error { return f(ctx, ev) }

// state is an immutable build of one configuration. Readers load it
// without locks; writers build a new one under buildMu and swap it in.
type state struct {
	cfg    apis.Config
	bld    apis.Builder
	reg    apis.Registry
	guards *guard.Set
	pipe   *pipeline.Pipeline
}

// Client coordinates the entity cache, the guards and the fetch pipeline
// of one resource catalog. It is safe for concurrent use.
type Client struct {
	opts  options
	store *cache.Store

	st      atomic.Pointer[state]
	buildMu sync.Mutex

	errMu  sync.Mutex
	errMsg string
}

// New builds a Client. Catalog errors (bad definitions, dangling
// relations, unservable resources) are returned here rather than at load
// time.
func New(opts ...Option) (*Client, error) {
	o := options{
		cfg: config.DefaultConfig(),
		log: pipeline.NullLogger(),
		rec: pipeline.NopRecorder{},
		bld: builder.New(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{opts: o}
	s, err := c.build(o.cfg, o.bld)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, s.reg.Count())
	for _, n := range s.reg.Entries() {
		keys = append(keys, n.StoreKey)
	}
	c.store = cache.New(keys...)
	if len(o.preloaded) > 0 {
		c.store.Merge(o.preloaded)
	}
	c.st.Store(s)
	return c, nil
}

func (c *Client) build(cfg apis.Config, bld apis.Builder) (*state, error) {
	reg, err := bld.BuildRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}
	if reg == nil {
		return nil, ErrNilRegistry
	}
	guards, err := bld.BuildGuards(cfg, reg)
	if err != nil {
		return nil, fmt.Errorf("build guards: %w", err)
	}
	pipe := pipeline.New(reg,
		pipeline.WithConfig(cfg),
		pipeline.WithHTTPClient(c.opts.http),
		pipeline.WithLogger(c.opts.log),
		pipeline.WithRecorder(c.opts.rec),
		pipeline.WithTracerProvider(c.opts.tp),
	)
	return &state{
		cfg:    cfg,
		bld:    bld,
		reg:    reg,
		guards: guard.NewSet(guards...),
		pipe:   pipe,
	}, nil
}

// Config returns the configuration in use.
func (c *Client) Config() apis.Config { return c.st.Load().cfg }

// Registry returns the schema graph in use.
func (c *Client) Registry() apis.Registry { return c.st.Load().reg }

// Kinds returns the served resource kinds, sorted.
func (c *Client) Kinds() []string { return c.st.Load().guards.Kinds() }

// SetConfig rebuilds the catalog and pipeline under cfg. The cache and
// requests already in flight are unaffected.
func (c *Client) SetConfig(cfg apis.Config) error {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	s, err := c.build(cfg, c.st.Load().bld)
	if err != nil {
		return err
	}
	c.st.Store(s)
	return nil
}

// SetBuilder swaps the resource catalog. Nil is ignored.
func (c *Client) SetBuilder(b apis.Builder) error {
	if b == nil {
		return nil
	}
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	s, err := c.build(c.st.Load().cfg, b)
	if err != nil {
		return err
	}
	c.st.Store(s)
	return nil
}

// Load consults the guard of kind and dispatches a fetch when the cache
// does not satisfy (key, fields). It returns nil, nil when nothing needs
// fetching.
//
// Every event of the dispatched request passes through the client: a
// success merges its entities into the cache, a failure replaces the
// error message, and both are then forwarded to the sinks.
func (c *Client) Load(ctx context.Context, kind string, key apis.Key, fields ...string) (*pipeline.Request, error) {
	s := c.st.Load()
	g, ok := s.guards.Get(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	snap := c.store.Snapshot()
	d := g.ShouldFetch(snap, key, fields)
	c.opts.rec.ObserveGuard(kind, d != nil)
	if d == nil {
		c.opts.log.Debug("trn: cached", "kind", kind, "key", key.String())
		return nil, nil
	}
	return s.pipe.Dispatch(ctx, *d, snap, c.reduce(ctx))
}

// reduce returns the event handler of one dispatch.
func (c *Client) reduce(ctx context.Context) apis.EmitFunc {
	ctx = context.WithoutCancel(ctx)
	return func(ev apis.Event) {
		switch ev.Phase {
		case apis.Succeeded:
			if ev.Response != nil {
				c.store.Merge(ev.Response.Entities)
			}
		case apis.Failed:
			c.setErrorMessage(ev.Error)
		}
		for _, sink := range c.opts.sinks {
			if err := sink.Handle(ctx, ev); err != nil {
				c.opts.log.Warn("trn: sink failed", "type", ev.Type, "err", err)
			}
		}
	}
}

// LoadConfiguration loads the singleton configuration record.
func (c *Client) LoadConfiguration(ctx context.Context, fields ...string) (*pipeline.Request, error) {
	return c.Load(ctx, builder.KindConfiguration, nil, fields...)
}

// LoadCompetition loads competition id with its rounds and matches.
func (c *Client) LoadCompetition(ctx context.Context, id string, fields ...string) (*pipeline.Request, error) {
	return c.Load(ctx, builder.KindCompetition, apis.Key{id}, fields...)
}

// LoadMatch always refetches match id.
func (c *Client) LoadMatch(ctx context.Context, id string, fields ...string) (*pipeline.Request, error) {
	return c.Load(ctx, builder.KindMatch, apis.Key{id}, fields...)
}

// LoadTeamMatchStats loads the team stats of a match. The cache is
// consulted for the (matchID, teamID) record; the fetch returns both teams.
func (c *Client) LoadTeamMatchStats(ctx context.Context, matchID, teamID string, fields ...string) (*pipeline.Request, error) {
	return c.Load(ctx, builder.KindTeamMatchStats, apis.Key{matchID, teamID}, fields...)
}

// LoadPlayerMatchStats loads the player stats of a match.
func (c *Client) LoadPlayerMatchStats(ctx context.Context, matchID string, fields ...string) (*pipeline.Request, error) {
	return c.Load(ctx, builder.KindPlayerMatchStats, apis.Key{matchID}, fields...)
}

// LoadCompStandings loads the standings of competition compID.
func (c *Client) LoadCompStandings(ctx context.Context, compID string) (*pipeline.Request, error) {
	return c.Load(ctx, builder.KindCompStandings, apis.Key{compID})
}

// LoadFixturesAndResults loads round uro across compIDs.
func (c *Client) LoadFixturesAndResults(ctx context.Context, uro string, compIDs []string) (*pipeline.Request, error) {
	return c.Load(ctx, builder.KindFixturesAndResults, apis.Key{uro, strings.Join(compIDs, ",")})
}

// LoadFunc is one deferred Load call, as accepted by LoadAll.
type LoadFunc func(ctx context.Context) (*pipeline.Request, error)

// LoadAll runs loads concurrently and waits for every dispatched request
// to finish. Fetch failures are reported through events and the error
// message, not here: only dispatch errors and ctx cancellation surface.
func (c *Client) LoadAll(ctx context.Context, loads ...LoadFunc) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, load := range loads {
		g.Go(func() error {
			req, err := load(gctx)
			if err != nil || req == nil {
				return err
			}
			select {
			case <-req.Done():
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	return g.Wait()
}

// Snapshot returns the current immutable view of the cache.
func (c *Client) Snapshot() apis.Snapshot { return c.store.Snapshot() }

// Entities returns a deep copy of the cache.
func (c *Client) Entities() apis.Entities { return c.store.Snapshot().Entities() }

// ErrorMessage returns the message of the latest failure, "" if none.
func (c *Client) ErrorMessage() string {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.errMsg
}

// ResetErrorMessage clears the error message.
func (c *Client) ResetErrorMessage() { c.setErrorMessage("") }

func (c *Client) setErrorMessage(msg string) {
	c.errMu.Lock()
	c.errMsg = msg
	c.errMu.Unlock()
}

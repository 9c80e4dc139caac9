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


package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"dirpx.dev/trn"
	"dirpx.dev/trn/config"
	"dirpx.dev/trn/metrics"
	"dirpx.dev/trn/persist/sqlite"
	"dirpx.dev/trn/sink/kafka"
)

// run parses args, loads the requested resource and writes the entity
// cache to outW. Logs go to errW.
func run(ctx context.Context, outW, errW io.Writer, args []string) (err error) {
	opts, shouldExit, err := Parse(args, outW)
	if err != nil || shouldExit {
		return err
	}
	log := newLogger(opts.LogLevel, opts.LogFormat, errW)

	shutdown, err := setupTracing(ctx, "trnctl")
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() { err = multierr.Append(err, shutdown(context.WithoutCancel(ctx))) }()

	cfg, err := config.FromEnv()
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Timeout > 0 {
		cfg.Timeout = opts.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "trnctl"
	}
	clientOpts := []trn.Option{trn.WithConfig(cfg), trn.WithLogger(log)}

	if opts.Metrics != "" {
		reg := prometheus.NewRegistry()
		rec, err := metrics.New(reg)
		if err != nil {
			return err
		}
		clientOpts = append(clientOpts, trn.WithRecorder(rec))
		defer func() {
			if werr := prometheus.WriteToTextfile(opts.Metrics, reg); werr != nil {
				err = multierr.Append(err, fmt.Errorf("write metrics: %w", werr))
			}
		}()
	}

	var store *sqlite.Store
	if opts.DB != "" {
		store, err = sqlite.Open(ctx, opts.DB)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, store.Close()) }()

		preloaded, err := store.Load(ctx)
		if err != nil {
			return err
		}
		log.Debug("trnctl: preloaded snapshot", "path", store.Path(), "storeKeys", len(preloaded))
		clientOpts = append(clientOpts, trn.WithPreloaded(preloaded))
	}

	if len(opts.KafkaBrokers) > 0 {
		cl, err := kafka.NewClient(opts.KafkaBrokers)
		if err != nil {
			return err
		}
		defer cl.Close()
		sink, err := kafka.New(cl, opts.KafkaTopic)
		if err != nil {
			return &ExitError{Code: 2, Message: err.Error()}
		}
		clientOpts = append(clientOpts, trn.WithSink(sink))
	}

	c, err := trn.New(clientOpts...)
	if err != nil {
		return err
	}

	load := kinds[opts.Kind].load(c, opts.Args, opts.Fields)
	if err := c.LoadAll(ctx, load); err != nil {
		return err
	}
	log.Info("trnctl: loaded", "kind", opts.Kind, "args", opts.Args)

	if store != nil {
		if err := store.Save(ctx, c.Entities()); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(outW)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c.Entities()); err != nil {
		return fmt.Errorf("write entities: %w", err)
	}

	if msg := c.ErrorMessage(); msg != "" {
		return fmt.Errorf("load %s: %s", opts.Kind, msg)
	}
	return nil
}

// newLogger builds a logger writing to outW. It does not set the global
// logger.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}
	return slog.New(handler)
}

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
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
)

// ExitError carries the process exit code of a usage error.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Options is the parsed command line.
type Options struct {
	Kind         string
	Args         []string
	Fields       []string
	BaseURL      string
	Timeout      time.Duration
	DB           string
	KafkaBrokers []string
	KafkaTopic   string
	Metrics      string
	LogLevel     string
	LogFormat    string
}

// Parse processes command-line arguments. It returns the options, whether
// the program should exit cleanly (help or no kind), or an *ExitError.
func Parse(args []string, output io.Writer) (*Options, bool, error) {
	fs := flag.NewFlagSet("trnctl", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, `
trnctl - load TRN resources into a normalized entity cache.

Usage:
  trnctl [options] <kind> [args...]

Kinds:
`)
		for _, name := range kindNames() {
			fmt.Fprintf(output, "  %s %s\n", name, kinds[name].usage)
		}
		fmt.Fprint(output, "\nOptions:\n")
		fs.PrintDefaults()
	}

	fields := fs.String("fields", "", "Comma-separated fields the cached record must carry.")
	baseURL := fs.String("base-url", "", "API base URL. Overrides TRN_BASE_URL.")
	timeout := fs.Duration("timeout", 0, "Per-request timeout. 0 keeps TRN_TIMEOUT.")
	db := fs.String("db", "", "SQLite snapshot: preloaded before loading, saved after.")
	brokers := fs.String("kafka-brokers", "", "Comma-separated Kafka seed brokers for the event sink.")
	topic := fs.String("kafka-topic", "trn-events", "Kafka topic of the event sink.")
	metricsPath := fs.String("metrics", "", "Write Prometheus metrics to this file on exit.")
	logFormat := fs.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevel := fs.String("log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return nil, true, nil
	}
	kind := fs.Arg(0)
	k, ok := kinds[kind]
	if !ok {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown kind %q: want one of %s", kind, describeKinds())}
	}
	rest := fs.Args()[1:]
	if len(rest) != k.arity {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("usage: trnctl %s %s", kind, k.usage)}
	}

	format := strings.ToLower(*logFormat)
	if format != "text" && format != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	level := strings.ToLower(*logLevel)
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, level) {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	if *timeout < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid timeout: must not be negative"}
	}

	return &Options{
		Kind:         kind,
		Args:         rest,
		Fields:       splitList(*fields),
		BaseURL:      *baseURL,
		Timeout:      *timeout,
		DB:           *db,
		KafkaBrokers: splitList(*brokers),
		KafkaTopic:   *topic,
		Metrics:      *metricsPath,
		LogLevel:     level,
		LogFormat:    format,
	}, false, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

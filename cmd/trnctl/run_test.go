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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_LoadsAndPersists(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/competitions/getStandings" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		hits.Add(1)
		_, _ = w.Write([]byte(`{"compId":7,"standingsList":[{"compId":7,"teamId":5,"points":10}]}`))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	db := filepath.Join(dir, "cache.db")
	metricsPath := filepath.Join(dir, "trn.prom")
	args := []string{"-base-url", srv.URL + "/v1/", "-db", db, "-metrics", metricsPath, "standings", "7"}

	out := &bytes.Buffer{}
	require.NoError(t, run(context.Background(), out, &bytes.Buffer{}, args))

	var got map[string]map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Contains(t, got["compStandingsById"], "7")
	require.Contains(t, got["standing"], "7")

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	require.Contains(t, string(prom), `trn_guard_decisions_total{decision="fetch",kind="compStandings"} 1`)

	// The second run starts warm from the snapshot and never hits the API.
	out.Reset()
	require.NoError(t, run(context.Background(), out, &bytes.Buffer{}, args))
	require.Equal(t, int32(1), hits.Load())
	require.Contains(t, out.String(), `"points": 10`)
}

func TestRun_FailureExitsNonZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"match not found"}`))
	}))
	t.Cleanup(srv.Close)

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"-base-url", srv.URL + "/", "match", "1"})
	require.ErrorContains(t, err, "match not found")
}

func TestRun_ShouldExit(t *testing.T) {
	out := &bytes.Buffer{}
	require.NoError(t, run(context.Background(), out, out, []string{"-h"}))
}

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


package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"dirpx.dev/trn/apis"
	"dirpx.dev/trn/sink/kafka"
)

type fakeProducer struct {
	mu      sync.Mutex
	records []*kgo.Record
	err     error
}

func (p *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		if p.err == nil {
			p.records = append(p.records, r)
		}
		out = append(out, kgo.ProduceResult{Record: r, Err: p.err})
	}
	return out
}

func TestSink_Handle(t *testing.T) {
	p := &fakeProducer{}
	s, err := kafka.New(p, "trn-events")
	require.NoError(t, err)

	ev := apis.Event{
		Type:  "MATCH_SUCCESS",
		Phase: apis.Succeeded,
		Kind:  "match",
		Key:   apis.Key{"100"},
		Response: &apis.Response{
			Result:   "100",
			Entities: apis.Entities{"matches": {"100": map[string]any{"id": "100"}}},
		},
	}
	require.NoError(t, s.Handle(context.Background(), ev))
	require.Len(t, p.records, 1)

	rec := p.records[0]
	require.Equal(t, "trn-events", rec.Topic)
	require.Equal(t, "match/100", string(rec.Key))
	require.Equal(t, []kgo.RecordHeader{{Key: "type", Value: []byte("MATCH_SUCCESS")}}, rec.Headers)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Value, &got))
	want := map[string]any{
		"type":     "MATCH_SUCCESS",
		"phase":    "succeeded",
		"kind":     "match",
		"key":      []any{"100"},
		"result":   "100",
		"entities": map[string]any{"matches": map[string]any{"100": map[string]any{"id": "100"}}},
	}
	require.Equal(t, want, got)
}

func TestEncode_Failure(t *testing.T) {
	b, err := kafka.Encode(apis.Event{Type: "COMP_FAILURE", Phase: apis.Failed, Kind: "competition", Key: apis.Key{"7"}, Error: "Not found"})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"COMP_FAILURE","phase":"failed","kind":"competition","key":["7"],"error":"Not found"}`, string(b))
}

func TestSink_ProduceError(t *testing.T) {
	boom := errors.New("broker unavailable")
	s, err := kafka.New(&fakeProducer{err: boom}, "trn-events")
	require.NoError(t, err)

	err = s.Handle(context.Background(), apis.Event{Type: "CONF_REQUEST", Phase: apis.Requested, Kind: "configuration"})
	require.ErrorIs(t, err, boom)
}

func TestNew_Invalid(t *testing.T) {
	_, err := kafka.New(&fakeProducer{}, "")
	require.ErrorIs(t, err, kafka.ErrNoTopic)
	_, err = kafka.New(nil, "t")
	require.Error(t, err)
}

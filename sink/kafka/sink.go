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


// Package kafka publishes lifecycle events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"dirpx.dev/trn/apis"
)

// ErrNoTopic is returned by New when topic is empty.
var ErrNoTopic = errors.New("trn(kafka): topic is required")

// Producer is the subset of *kgo.Client used by Sink.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Sink implements apis.Sink over a Kafka producer. Records are keyed by
// "<kind>/<key>" so every event of one identity lands on one partition.
type Sink struct {
	producer Producer
	topic    string
}

var _ apis.Sink = (*Sink)(nil)

// New returns a sink producing to topic.
func New(producer Producer, topic string) (*Sink, error) {
	if producer == nil {
		return nil, errors.New("trn(kafka): nil producer")
	}
	if topic == "" {
		return nil, ErrNoTopic
	}
	return &Sink{producer: producer, topic: topic}, nil
}

// NewClient dials brokers and returns a client suitable for New.
func NewClient(brokers []string, opts ...kgo.Opt) (*kgo.Client, error) {
	opts = append([]kgo.Opt{kgo.SeedBrokers(brokers...)}, opts...)
	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return cl, nil
}

// message is the wire form of one event.
type message struct {
	Type     string        `json:"type"`
	Phase    string        `json:"phase"`
	Kind     string        `json:"kind"`
	Key      apis.Key      `json:"key,omitempty"`
	Result   any           `json:"result,omitempty"`
	Entities apis.Entities `json:"entities,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Encode renders ev as the record value Handle produces.
func Encode(ev apis.Event) ([]byte, error) {
	m := message{
		Type:  ev.Type,
		Phase: ev.Phase.String(),
		Kind:  ev.Kind,
		Key:   ev.Key,
		Error: ev.Error,
	}
	if ev.Response != nil {
		m.Result = ev.Response.Result
		m.Entities = ev.Response.Entities
	}
	return json.Marshal(m)
}

// Handle produces ev synchronously and returns the first produce error.
func (s *Sink) Handle(ctx context.Context, ev apis.Event) error {
	value, err := Encode(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	rec := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(ev.Kind + "/" + ev.Key.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}
	if err := s.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce %s event: %w", ev.Type, err)
	}
	return nil
}

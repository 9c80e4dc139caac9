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
	"errors"
	"fmt"
)

// FallbackMessage is the failure message used when the cause carries none.
const FallbackMessage = "Something bad happened"

var (
	// ErrNoEndpoint is returned when a descriptor has no endpoint.
	ErrNoEndpoint = errors.New("trn(pipeline): specify a string endpoint URL")
	// ErrEmptyEndpoint is returned when the endpoint resolves to "".
	ErrEmptyEndpoint = errors.New("trn(pipeline): endpoint resolved to an empty URL")
	// ErrNoSchema is returned when a descriptor names no schema.
	ErrNoSchema = errors.New("trn(pipeline): specify a schema")
	// ErrUnknownSchema is returned when the schema is not registered.
	ErrUnknownSchema = errors.New("trn(pipeline): schema is not registered")
	// ErrTypes is returned unless exactly three non-empty event types are given.
	ErrTypes = errors.New("trn(pipeline): expected three non-empty event types")
	// ErrNilRegistry is raised by New when no registry is provided.
	ErrNilRegistry = errors.New("trn(pipeline): nil registry provided")
)

// ConfigError reports a malformed descriptor. It is returned synchronously
// by Dispatch and no event is emitted for it.
type ConfigError struct {
	Kind string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Kind == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NetworkError reports a transport failure: no response arrived or its
// body could not be read.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("trn(pipeline): GET %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPStatusError reports a non-2xx response. Message is taken from the
// response body when it carries one.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *HTTPStatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("trn(pipeline): GET %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("trn(pipeline): GET %s: status %d: %s", e.URL, e.StatusCode, e.Message)
}

// DecodeError reports a 2xx body that is not valid JSON or does not
// normalize against its schema.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("trn(pipeline): decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// failureMessage picks the human-readable message of a terminal cause.
func failureMessage(err error) string {
	var hs *HTTPStatusError
	if errors.As(err, &hs) && hs.Message != "" {
		return hs.Message
	}
	return FallbackMessage
}

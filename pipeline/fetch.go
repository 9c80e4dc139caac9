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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"dirpx.dev/trn/apis"
	"dirpx.dev/trn/normalize"
)

// fetch returns the 2xx body of url. Under DedupInflight concurrent calls
// for one url share a single round-trip and its body.
func (p *Pipeline) fetch(ctx context.Context, url string) ([]byte, error) {
	if p.cfg.Dedup != apis.DedupInflight {
		return p.get(ctx, url)
	}
	v, err, shared := p.group.Do(url, func() (any, error) {
		return p.get(ctx, url)
	})
	if shared {
		p.log.Debug("trn: shared in-flight request", "url", url)
	}
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (p *Pipeline) get(ctx context.Context, url string) ([]byte, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if p.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", p.cfg.UserAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{URL: url, StatusCode: resp.StatusCode, Message: bodyMessage(body)}
	}
	return body, nil
}

// decode parses body, camelizes its keys and normalizes it against schema.
// Each caller decodes its own copy, so shared bodies never alias.
func (p *Pipeline) decode(url string, body []byte, schema apis.Ref) (apis.Response, error) {
	raw, err := decodeJSON(body)
	if err != nil {
		return apis.Response{}, &DecodeError{URL: url, Err: err}
	}
	resp, err := normalize.Normalize(p.reg, Camelize(raw), schema)
	if err != nil {
		return apis.Response{}, &DecodeError{URL: url, Err: err}
	}
	return resp, nil
}

func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// bodyMessage extracts an error message from a non-2xx body. It looks at
// "message", then "error.message", then a string "error".
func bodyMessage(body []byte) string {
	v, err := decodeJSON(body)
	if err != nil {
		return ""
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	if s, ok := obj["message"].(string); ok && s != "" {
		return s
	}
	switch e := obj["error"].(type) {
	case map[string]any:
		if s, ok := e["message"].(string); ok {
			return s
		}
	case string:
		return e
	}
	return ""
}

// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//  http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package chttp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"gitlab.com/flimzy/testy"
)

func TestHTTPResponse(t *testing.T) {
	tests := []struct {
		name      string
		trace     func(t *testing.T) *ClientTrace
		resp      *http.Response
		finalResp *http.Response
	}{
		{
			name:      "no hook defined",
			trace:     func(_ *testing.T) *ClientTrace { return &ClientTrace{} },
			resp:      &http.Response{StatusCode: 200},
			finalResp: &http.Response{StatusCode: 200},
		},
		{
			name: "HTTPResponseBody/cloned response",
			trace: func(t *testing.T) *ClientTrace {
				return &ClientTrace{
					HTTPResponseBody: func(r *http.Response) {
						if r.StatusCode != 200 {
							t.Errorf("Unexpected status code: %d", r.StatusCode)
						}
						r.StatusCode = 0
						defer r.Body.Close() // nolint: errcheck
						if _, err := io.ReadAll(r.Body); err != nil {
							t.Fatal(err)
						}
					},
				}
			},
			resp:      &http.Response{StatusCode: 200, Body: Body("testing")},
			finalResp: &http.Response{StatusCode: 200, Body: Body("testing")},
		},
		{
			name: "HTTPResponse/cloned response",
			trace: func(t *testing.T) *ClientTrace {
				return &ClientTrace{
					HTTPResponse: func(r *http.Response) {
						if r.StatusCode != 200 {
							t.Errorf("Unexpected status code: %d", r.StatusCode)
						}
						r.StatusCode = 0
						if r.Body != nil {
							t.Errorf("non-nil body")
						}
					},
				}
			},
			resp:      &http.Response{StatusCode: 200, Body: Body("testing")},
			finalResp: &http.Response{StatusCode: 200, Body: Body("testing")},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			trace := test.trace(t)
			trace.httpResponseBody(test.resp)
			trace.httpResponse(test.resp)
			if d := testy.DiffHTTPResponse(test.finalResp, test.resp); d != nil {
				t.Error(d)
			}
		})
	}
}

func TestHTTPRequest(t *testing.T) {
	var seen *http.Request
	trace := &ClientTrace{
		HTTPRequest: func(r *http.Request) {
			seen = r
			r.Header.Set("X-Modified", "yes")
		},
	}
	req, _ := http.NewRequest(http.MethodGet, "http://example.com/db/doc", nil)
	req.Header.Set("Accept", typeJSON)
	trace.httpRequest(req)
	if seen == nil || seen == req {
		t.Fatal("hook did not receive a copy")
	}
	if req.Header.Get("X-Modified") != "" {
		t.Error("hook modified the outgoing request")
	}
	if seen.Header.Get("Accept") != typeJSON {
		t.Error("copy lost headers")
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("read failure") }
func (errReader) Close() error             { return nil }

func TestHTTPResponseBodyReadError(t *testing.T) {
	trace := &ClientTrace{
		HTTPResponseBody: func(r *http.Response) {
			if _, err := io.ReadAll(r.Body); err == nil {
				t.Error("hook should see the read error")
			}
		},
	}
	resp := &http.Response{StatusCode: 200, Body: errReader{}}
	trace.httpResponseBody(resp)
	if _, err := io.ReadAll(resp.Body); err == nil || err.Error() != "read failure" {
		t.Errorf("caller should see the read error, got %v", err)
	}
}

func TestSendTrace(t *testing.T) {
	var (
		requests  []string
		responses []int
		bodies    []string
	)
	ctx := WithClientTrace(context.Background(), &ClientTrace{
		HTTPRequest: func(r *http.Request) {
			requests = append(requests, r.Method+" "+r.URL.EscapedPath())
		},
		HTTPResponse: func(r *http.Response) {
			responses = append(responses, r.StatusCode)
		},
		HTTPResponseBody: func(r *http.Response) {
			body, _ := io.ReadAll(r.Body)
			bodies = append(bodies, string(body))
		},
	})
	c := newTestClient(&http.Response{StatusCode: http.StatusOK, Body: Body(`{"_id":"foo"}`)}, nil)
	resp, err := c.Send(ctx, &Request{Method: http.MethodGet, Path: "/db/foo"})
	if err != nil {
		t.Fatal(err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "{\"_id\":\"foo\"}\n" {
		t.Errorf("caller body altered: %q", body)
	}
	want := struct {
		Requests  []string
		Responses []int
		Bodies    []string
	}{
		Requests:  []string{"GET /db/foo"},
		Responses: []int{200},
		Bodies:    []string{"{\"_id\":\"foo\"}\n"},
	}
	got := want
	got.Requests, got.Responses, got.Bodies = requests, responses, bodies
	if d := testy.DiffInterface(want, got); d != nil {
		t.Error(d)
	}
}

func TestContextClientTrace(t *testing.T) {
	if ContextClientTrace(context.Background()) != nil {
		t.Error("expected nil trace")
	}
	trace := &ClientTrace{}
	if ContextClientTrace(WithClientTrace(context.Background(), trace)) != trace {
		t.Error("trace not retrieved")
	}
}

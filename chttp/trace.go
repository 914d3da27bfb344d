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
	"bytes"
	"context"
	"io"
	"net/http"
)

// ClientTrace is a set of hooks to run at various stages of an outgoing
// HTTP request. Any particular hook may be nil.
type ClientTrace struct {
	// HTTPRequest is called just before the request is sent. The request is
	// a shallow copy; modifying it has no effect on the outgoing request.
	HTTPRequest func(*http.Request)

	// HTTPResponse is called after the response headers are received. The
	// response is a copy with a nil Body.
	HTTPResponse func(*http.Response)

	// HTTPResponseBody is called after the response headers are received,
	// with a copy of the response whose Body holds the full payload. The
	// original body is restored for the caller, so this hook buffers the
	// entire response in memory.
	HTTPResponseBody func(*http.Response)
}

type clientTraceContextKey struct{}

// ContextClientTrace returns the ClientTrace associated with the
// provided context. If none, it returns nil.
func ContextClientTrace(ctx context.Context) *ClientTrace {
	trace, _ := ctx.Value(clientTraceContextKey{}).(*ClientTrace)
	return trace
}

// WithClientTrace returns a new context based on the provided parent
// ctx. HTTP client requests made with the returned context will use the
// provided trace hooks.
func WithClientTrace(ctx context.Context, trace *ClientTrace) context.Context {
	return context.WithValue(ctx, clientTraceContextKey{}, trace)
}

func (t *ClientTrace) httpRequest(r *http.Request) {
	if t.HTTPRequest == nil {
		return
	}
	clone := new(http.Request)
	*clone = *r
	clone.Header = r.Header.Clone()
	t.HTTPRequest(clone)
}

func (t *ClientTrace) httpResponse(r *http.Response) {
	if t.HTTPResponse == nil || r == nil {
		return
	}
	clone := new(http.Response)
	*clone = *r
	clone.Body = nil
	t.HTTPResponse(clone)
}

func (t *ClientTrace) httpResponseBody(r *http.Response) {
	if t.HTTPResponseBody == nil || r == nil {
		return
	}
	clone := new(http.Response)
	*clone = *r
	if r.Body != nil {
		body, readErr := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = newReplayBody(body, readErr)
		clone.Body = newReplayBody(body, readErr)
	}
	t.HTTPResponseBody(clone)
}

// replayBody returns the buffered bytes, then the read error (if any) that
// ended the original read.
type replayBody struct {
	*bytes.Reader
	err error
}

func newReplayBody(body []byte, err error) io.ReadCloser {
	return &replayBody{Reader: bytes.NewReader(body), err: err}
}

func (b *replayBody) Read(p []byte) (int, error) {
	n, err := b.Reader.Read(p)
	if err == io.EOF && b.err != nil {
		err = b.err
	}
	return n, err
}

func (*replayBody) Close() error { return nil }

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

// Package chttp builds CouchDB document requests and sends them over
// net/http.
package chttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	internal "github.com/go-kivik/couchreq/internal/errors"
)

// The default UserAgent values. Version is also the couchreq library
// version.
const (
	UserAgent = "couchreq chttp"
	Version   = "1.0.0"
)

const tracerName = "github.com/go-kivik/couchreq/chttp"

// Client sends [Request] values to a single CouchDB server. It embeds an
// *http.Client, which owns connection pooling, TLS and redirects. A Client
// is safe for concurrent use.
type Client struct {
	// UserAgents is appended to set the User-Agent header. Typically it should
	// contain pairs of product name and version.
	UserAgents []string

	*http.Client

	rawDSN   string
	dsn      *url.URL
	basePath string
}

// New returns a client for the CouchDB server at dsn. If client is nil,
// [net/http.DefaultClient] is used. The scheme defaults to http, and any
// path in dsn is prefixed to every request path.
func New(client *http.Client, dsn string) (*Client, error) {
	dsnURL, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		Client:   client,
		rawDSN:   dsn,
		dsn:      dsnURL,
		basePath: strings.TrimSuffix(dsnURL.EscapedPath(), "/"),
	}, nil
}

func parseDSN(dsn string) (*url.URL, error) {
	if dsn == "" {
		return nil, internal.Validation(errors.New("no URL specified"))
	}
	if !strings.HasPrefix(dsn, "http://") && !strings.HasPrefix(dsn, "https://") {
		dsn = "http://" + dsn
	}
	dsnURL, err := url.Parse(dsn)
	if err != nil {
		return nil, internal.Validation(err)
	}
	if dsnURL.Host == "" {
		return nil, internal.Validation(fmt.Errorf("no host in URL %q", dsn))
	}
	if dsnURL.Path == "" {
		dsnURL.Path = "/"
	}
	return dsnURL, nil
}

// DSN returns the unparsed DSN used to connect.
func (c *Client) DSN() string {
	return c.rawDSN
}

// NewRequest returns a new *http.Request for r against the client's server.
// Escaping in r.Path is preserved on the wire.
func (c *Client) NewRequest(ctx context.Context, r *Request) (*http.Request, error) {
	if r == nil || r.Method == "" {
		return nil, internal.Validation(errors.New("chttp: method required"))
	}
	fullPath := c.basePath + r.Path
	reqPath, err := url.Parse(fullPath)
	if err != nil {
		return nil, internal.Validation(err)
	}
	u := *c.dsn // Make a copy
	u.Path = reqPath.Path
	u.RawPath = fullPath
	u.RawQuery = r.RawQuery
	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), nil)
	if err != nil {
		return nil, internal.Validation(err)
	}
	fixPath(req, fullPath)
	for k, v := range r.Header {
		req.Header[k] = append([]string(nil), v...)
	}
	req.Header.Set("User-Agent", c.userAgent())
	return req, nil
}

// fixPath sets the request's URL.RawPath so that escaped characters in
// document IDs, such as %2F and %3A, reach the server unaltered.
func fixPath(req *http.Request, path string) {
	req.URL.RawPath = path
}

// Send sends r to the server. An error is returned only if no response was
// obtained; an error status, such as 404 or 500, does _not_ cause an error to
// be returned. The caller must close the response body.
func (c *Client) Send(ctx context.Context, r *Request) (*http.Response, error) {
	req, err := c.NewRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "couchdb "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.URL.EscapedPath()),
		),
	)
	defer span.End()
	req = req.WithContext(ctx)

	ct := ContextClientTrace(ctx)
	if ct != nil {
		ct.httpRequest(req)
	}

	response, err := c.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, netError(err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", response.StatusCode))
	if response.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, response.Status)
	}
	if ct != nil {
		ct.httpResponse(response)
		ct.httpResponseBody(response)
	}
	return response, nil
}

func netError(err error) error {
	if err == nil {
		return nil
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// A typed error from a custom RoundTripper keeps its classification.
		var e *internal.Error
		if errors.As(urlErr.Err, &e) {
			return e
		}
	}
	return internal.Network(err)
}

func (c *Client) userAgent() string {
	ua := fmt.Sprintf("%s/%s (Language=%s; Platform=%s/%s)",
		UserAgent, Version, runtime.Version(), runtime.GOARCH, runtime.GOOS)
	return strings.Join(append([]string{ua}, c.UserAgents...), " ")
}

// CloseBody drains and closes body, so the underlying connection may be
// reused. It is safe to call with a nil body.
func CloseBody(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

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

package couchreq

import (
	"context"
	"net/http"

	"github.com/go-kivik/couchreq/chttp"
)

// Transport delivers a built request and returns the raw response. An error
// must be returned only if no response was obtained; error statuses are
// classified by the caller. The caller closes the response body.
//
// [*chttp.Client] is the default implementation.
type Transport interface {
	Send(ctx context.Context, req *chttp.Request) (*http.Response, error)
}

var _ Transport = (*chttp.Client)(nil)

// Client is a handle to a CouchDB server. It carries the server address and
// transport shared by every [DB] handle it returns, and is safe for
// concurrent use.
type Client struct {
	dsn       string
	transport Transport
}

// New returns a client for the CouchDB server at dsn, such as
// "http://localhost:5984/". No request is made.
//
// If [OptionTransport] is passed, dsn is only recorded; the transport decides
// where requests go.
func New(dsn string, options ...Option) (*Client, error) {
	opts := multiOptions(options)
	c := &Client{dsn: dsn}
	opts.Apply(c)
	if c.transport != nil {
		return c, nil
	}
	httpClient := &http.Client{}
	opts.Apply(httpClient)
	transport, err := chttp.New(httpClient, dsn)
	if err != nil {
		return nil, err
	}
	opts.Apply(transport)
	c.transport = transport
	return c, nil
}

// DSN returns the data source name used to connect this client.
func (c *Client) DSN() string {
	return c.dsn
}

// DB returns a handle to the named database. No request is made; an invalid
// name is reported by the first call on the handle.
func (c *Client) DB(dbName string) *DB {
	return &DB{
		client: c,
		name:   dbName,
	}
}

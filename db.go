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
	"errors"
	"net/http"

	"github.com/go-kivik/couchreq/chttp"
	internal "github.com/go-kivik/couchreq/internal/errors"
)

// DB is a handle to a specific database.
type DB struct {
	client *Client
	name   string
}

// Client returns the [Client] used to connect to the database.
func (db *DB) Client() *Client {
	return db.client
}

// Name returns the database name as passed when creating the DB connection.
func (db *DB) Name() string {
	return db.name
}

// Callback receives the outcome of a call made in callback mode. Exactly one
// of doc and err is non-nil.
type Callback func(doc Document, err error)

// Get fetches the document docID, passing options as query parameters.
//
// Without callbacks, Get returns a [Deferred] that settles with the document
// or an error. With one or more non-nil callbacks, Get returns nil and calls
// each callback once, in order, with the outcome. Invalid input (an empty
// docID, an unsupported option type) is reported before Get returns, on the
// caller's goroutine; otherwise the outcome is delivered from the goroutine
// that performed the request.
//
// The document body is returned exactly as the server sent it. A non-2xx
// status yields an [*Error] whose message is the server's reason.
func (db *DB) Get(ctx context.Context, docID string, options Options, callbacks ...Callback) *Deferred {
	req, err := chttp.Build(chttp.OpGet, db.name, docID, options)
	return db.client.invoke(ctx, req, err, nonNil(callbacks))
}

// Rev returns the current revision of docID, read from the ETag header of a
// HEAD request. It blocks until the response arrives.
func (db *DB) Rev(ctx context.Context, docID string, options Options) (string, error) {
	req, err := chttp.Build(chttp.OpHead, db.name, docID, options)
	if err != nil {
		return "", err
	}
	resp, err := db.client.send(ctx, req)
	if err != nil {
		return "", err
	}
	defer chttp.CloseBody(resp.Body)
	if err := chttp.ResponseError(resp); err != nil {
		return "", err
	}
	if rev, ok := chttp.ETag(resp); ok {
		return rev, nil
	}
	return "", &internal.Error{
		Kind:   internal.KindServer,
		Status: http.StatusBadGateway,
		Err:    errors.New("unable to determine document revision"),
	}
}

func nonNil(callbacks []Callback) []Callback {
	var cbs []Callback
	for _, cb := range callbacks {
		if cb != nil {
			cbs = append(cbs, cb)
		}
	}
	return cbs
}

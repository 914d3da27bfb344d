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
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-kivik/couchreq/chttp"
	internal "github.com/go-kivik/couchreq/internal/errors"
)

// invoke runs a single document fetch. A non-nil buildErr settles the call
// immediately without touching the transport. The outcome goes to callbacks
// if there are any, or to the returned Deferred otherwise.
func (c *Client) invoke(ctx context.Context, req *chttp.Request, buildErr error, callbacks []Callback) *Deferred {
	var d *Deferred
	if len(callbacks) == 0 {
		d = newDeferred()
	}
	finish := func(doc Document, err error) {
		if d != nil {
			d.settle(doc, err)
			return
		}
		for _, cb := range callbacks {
			cb(doc, err)
		}
	}
	if buildErr != nil {
		finish(nil, buildErr)
		return d
	}
	go func() {
		finish(c.getDocument(ctx, req))
	}()
	return d
}

func (c *Client) getDocument(ctx context.Context, req *chttp.Request) (Document, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer chttp.CloseBody(resp.Body)
	if err := chttp.ResponseError(resp); err != nil {
		return nil, err
	}
	return decodeDocument(resp.Body)
}

// send passes req to the transport. Any transport error that is not already
// classified becomes a network error.
func (c *Client) send(ctx context.Context, req *chttp.Request) (*http.Response, error) {
	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		if resp != nil {
			chttp.CloseBody(resp.Body)
		}
		return nil, internal.Network(err)
	}
	if resp == nil {
		return nil, internal.Network(errors.New("transport returned no response"))
	}
	return resp, nil
}

func decodeDocument(body io.Reader) (Document, error) {
	if body == nil {
		return nil, badGateway(errors.New("empty response body"))
	}
	var doc Document
	if err := json.NewDecoder(body).Decode(&doc); err != nil {
		return nil, badGateway(err)
	}
	if doc == nil {
		return nil, badGateway(errors.New("response body is not a JSON object"))
	}
	return doc, nil
}

func badGateway(err error) error {
	return &internal.Error{
		Kind:   internal.KindServer,
		Status: http.StatusBadGateway,
		Err:    err,
	}
}

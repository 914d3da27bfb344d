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
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/go-kivik/couchreq/chttp"
)

type transportFunc func(context.Context, *chttp.Request) (*http.Response, error)

var _ Transport = transportFunc(nil)

func (f transportFunc) Send(ctx context.Context, req *chttp.Request) (*http.Response, error) {
	return f(ctx, req)
}

type errTest string

func (e errTest) Error() string { return string(e) }

func newDB(t *testing.T, transport Transport) *DB {
	t.Helper()
	client, err := New("", OptionTransport(transport))
	if err != nil {
		t.Fatal(err)
	}
	return client.DB("db")
}

func body(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

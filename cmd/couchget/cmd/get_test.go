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

package cmd

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gitlab.com/flimzy/testy"

	"github.com/go-kivik/couchreq/cmd/couchget/errors"
	"github.com/go-kivik/couchreq/internal/couchtest"
)

func newServer(t *testing.T) *couchtest.Server {
	t.Helper()
	s := couchtest.New(t)
	s.Put("db", "doc", map[string]interface{}{"_rev": "1-abc", "foo": "bar"})
	s.Put("db", "doc2", map[string]interface{}{"_rev": "2-def", "foo": "baz"})
	s.Put("db", "partkey:id", map[string]interface{}{"_rev": "1-ghi"})
	s.Put("db", "_local/id", map[string]interface{}{"_rev": "0-1"})
	return s
}

func wantRequests(s *couchtest.Server, want ...string) func(*testing.T) {
	return func(t *testing.T) {
		t.Helper()
		if d := testy.DiffTextSlices(want, s.Requests()); d != nil {
			t.Errorf("Unexpected requests:\n%s", d)
		}
	}
}

func Test_get_RunE(t *testing.T) {
	tests := testy.NewTable()

	tests.Add("missing document", cmdTest{
		args:   []string{"get", "db"},
		status: errors.ErrUsage,
	})
	tests.Add("server unreachable", cmdTest{
		args:   []string{"--dsn", "http://localhost:1/", "get", "db", "doc"},
		status: errors.ErrUnavailable,
	})
	tests.Add("invalid jobs", cmdTest{
		args:   []string{"--dsn", "http://localhost:1/", "get", "db", "doc", "-j", "0"},
		status: errors.ErrUsage,
		stderr: []string{"invalid configuration"},
	})
	tests.Add("success", func(t *testing.T) interface{} {
		s := newServer(t)
		return cmdTest{
			args: []string{"--dsn", s.URL, "get", "db", "doc"},
			stdout: `{
    "_id": "doc",
    "_rev": "1-abc",
    "foo": "bar"
}
`,
			check: wantRequests(s, "GET /db/doc"),
		}
	})
	tests.Add("dsn from environment", func(t *testing.T) interface{} {
		s := newServer(t)
		return cmdTest{
			args:   []string{"-f", "json", "get", "db", "doc"},
			env:    map[string]string{"COUCHGET_DSN": s.URL},
			stdout: `{"_id":"doc","_rev":"1-abc","foo":"bar"}` + "\n",
		}
	})
	tests.Add("json", func(t *testing.T) interface{} {
		s := newServer(t)
		return cmdTest{
			args:   []string{"--dsn", s.URL, "-f", "json", "get", "db", "doc"},
			stdout: `{"_id":"doc","_rev":"1-abc","foo":"bar"}` + "\n",
		}
	})
	tests.Add("yaml", func(t *testing.T) interface{} {
		s := newServer(t)
		return cmdTest{
			args:   []string{"--dsn", s.URL, "-f", "yaml", "get", "db", "doc"},
			stdout: "_id: doc\n_rev: 1-abc\nfoo: bar\n",
		}
	})
	tests.Add("jq", func(t *testing.T) interface{} {
		s := newServer(t)
		return cmdTest{
			args:   []string{"--dsn", s.URL, "-f", "jq=.foo", "get", "db", "doc"},
			stdout: `"bar"` + "\n",
		}
	})
	tests.Add("go template", func(t *testing.T) interface{} {
		s := newServer(t)
		return cmdTest{
			args:   []string{"--dsn", s.URL, "-f", "go-template={{ ._id }}={{ .foo }}", "get", "db", "doc"},
			stdout: "doc=bar\n",
		}
	})
	tests.Add("partitioned id", func(t *testing.T) interface{} {
		s := newServer(t)
		return cmdTest{
			args:   []string{"--dsn", s.URL, "-f", "json", "get", "db", "partkey:id"},
			stdout: `{"_id":"partkey:id","_rev":"1-ghi"}` + "\n",
			check:  wantRequests(s, "GET /db/partkey%3Aid"),
		}
	})
	tests.Add("local doc", func(t *testing.T) interface{} {
		s := newServer(t)
		return cmdTest{
			args:   []string{"--dsn", s.URL, "-f", "json", "get", "db", "_local/id"},
			stdout: `{"_id":"_local/id","_rev":"0-1"}` + "\n",
			check:  wantRequests(s, "GET /db/_local/id"),
		}
	})
	tests.Add("options", func(t *testing.T) interface{} {
		s := newServer(t)
		return cmdTest{
			args:  []string{"--dsn", s.URL, "-B", "conflicts=true", "-O", "rev=1-abc", "-N", "r=1", "get", "db", "doc"},
			check: wantRequests(s, "GET /db/doc?conflicts=true&r=1&rev=1-abc"),
		}
	})
	tests.Add("multiple documents", func(t *testing.T) interface{} {
		s := newServer(t)
		return cmdTest{
			args:   []string{"--dsn", s.URL, "-f", "json", "get", "db", "doc", "doc2", "-j", "1"},
			stdout: `[{"_id":"doc","_rev":"1-abc","foo":"bar"},{"_id":"doc2","_rev":"2-def","foo":"baz"}]` + "\n",
			check:  wantRequests(s, "GET /db/doc", "GET /db/doc2"),
		}
	})
	tests.Add("multiple documents, concurrent", func(t *testing.T) interface{} {
		s := newServer(t)
		return cmdTest{
			args:   []string{"--dsn", s.URL, "-f", "json", "get", "db", "doc2", "doc", "doc2"},
			stdout: `[{"_id":"doc2","_rev":"2-def","foo":"baz"},{"_id":"doc","_rev":"1-abc","foo":"bar"},{"_id":"doc2","_rev":"2-def","foo":"baz"}]` + "\n",
		}
	})
	tests.Add("multiple documents, one missing", func(t *testing.T) interface{} {
		s := newServer(t)
		return cmdTest{
			args:   []string{"--dsn", s.URL, "get", "db", "doc", "nope"},
			status: errors.ErrNotFound,
			stderr: []string{"Error: missing"},
		}
	})
	tests.Add("not found", func(t *testing.T) interface{} {
		s := newServer(t)
		return cmdTest{
			args:   []string{"--dsn", s.URL, "get", "db", "nope"},
			status: errors.ErrNotFound,
			stderr: []string{"Error: missing"},
		}
	})
	tests.Add("missing database", func(t *testing.T) interface{} {
		s := newServer(t)
		return cmdTest{
			args:   []string{"--dsn", s.URL, "get", "nodb", "doc"},
			status: errors.ErrNotFound,
			stderr: []string{"Error: Database does not exist."},
		}
	})
	tests.Add("invalid JSON response", func(t *testing.T) interface{} {
		s := testy.ServeResponse(&http.Response{
			StatusCode: http.StatusOK,
			Header: http.Header{
				"Content-Type": []string{"application/json"},
			},
			Body: io.NopCloser(strings.NewReader("invalid")),
		})

		return cmdTest{
			args:   []string{"--dsn", s.URL, "get", "db", "doc"},
			status: errors.ErrProtocol,
		}
	})
	tests.Add("user agent", func(t *testing.T) interface{} {
		var ua string
		s := testy.ServeResponseValidator(t, &http.Response{
			StatusCode: http.StatusOK,
			Header: http.Header{
				"Content-Type": []string{"application/json"},
			},
			Body: io.NopCloser(strings.NewReader(`{"_id":"doc"}`)),
		}, func(_ *testing.T, r *http.Request) {
			ua = r.Header.Get("User-Agent")
		})

		return cmdTest{
			args: []string{"--dsn", s.URL, "--user-agent", "nightly/2.0", "get", "db", "doc"},
			check: func(t *testing.T) {
				if !strings.HasSuffix(ua, " couchget/1.0.0 nightly/2.0") {
					t.Errorf("Unexpected User-Agent: %s", ua)
				}
			},
		}
	})
	tests.Add("retry transient failure", func(t *testing.T) interface{} {
		s := newServer(t)
		s.Expect(http.MethodGet, "/db/doc").Reply(http.StatusServiceUnavailable, map[string]string{
			"error":  "service_unavailable",
			"reason": "try later",
		})
		return cmdTest{
			args:   []string{"--dsn", s.URL, "--retry", "2", "--retry-delay", "0", "-f", "json", "get", "db", "doc"},
			stdout: `{"_id":"doc","_rev":"1-abc","foo":"bar"}` + "\n",
			stderr: []string{"Warning: Transient problem: try later. Will retry in 0.00s. 2 retries left."},
			check:  wantRequests(s, "GET /db/doc", "GET /db/doc"),
		}
	})
	tests.Add("retries exhausted", func(t *testing.T) interface{} {
		s := newServer(t)
		for i := 0; i < 2; i++ {
			s.Expect(http.MethodGet, "/db/doc").Reply(http.StatusServiceUnavailable, map[string]string{
				"error":  "service_unavailable",
				"reason": "try later",
			})
		}
		return cmdTest{
			args:   []string{"--dsn", s.URL, "--retry", "1", "--retry-delay", "1ms", "get", "db", "doc"},
			status: errors.ErrUnknown,
			stderr: []string{"1 retries left.", "Error: try later"},
			check:  wantRequests(s, "GET /db/doc", "GET /db/doc"),
		}
	})
	tests.Add("no retry when not found", func(t *testing.T) interface{} {
		s := newServer(t)
		return cmdTest{
			args:   []string{"--dsn", s.URL, "--retry", "3", "get", "db", "nope"},
			status: errors.ErrNotFound,
			check:  wantRequests(s, "GET /db/nope"),
		}
	})
	tests.Add("verbose", func(t *testing.T) interface{} {
		s := newServer(t)
		return cmdTest{
			args: []string{"--dsn", s.URL, "-v", "-f", "json", "get", "db", "doc"},
			stderr: []string{
				"> GET /db/doc HTTP/1.1",
				"> Accept: application/json",
				"< HTTP/1.1 200 OK",
				`< {"_id":"doc","_rev":"1-abc","foo":"bar"}`,
			},
			stdout: `{"_id":"doc","_rev":"1-abc","foo":"bar"}` + "\n",
		}
	})
	tests.Add("response header", func(t *testing.T) interface{} {
		s := newServer(t)
		return cmdTest{
			args: []string{"--dsn", s.URL, "-H", "-f", "json", "get", "db", "doc"},
			stderr: []string{
				"< HTTP/1.1 200 OK",
				"< Content-Type: application/json",
				`< Etag: "1-abc"`,
			},
			stdout: `{"_id":"doc","_rev":"1-abc","foo":"bar"}` + "\n",
		}
	})
	tests.Add("output file", func(t *testing.T) interface{} {
		s := newServer(t)
		path := filepath.Join(t.TempDir(), "doc.json")
		return cmdTest{
			args: []string{"--dsn", s.URL, "-f", "json", "-o", path, "get", "db", "doc"},
			check: func(t *testing.T) {
				got, err := os.ReadFile(path)
				if err != nil {
					t.Fatal(err)
				}
				want := `{"_id":"doc","_rev":"1-abc","foo":"bar"}`
				if strings.TrimSpace(string(got)) != want {
					t.Errorf("Unexpected file content: %s", got)
				}
			},
		}
	})
	tests.Add("output file exists", func(t *testing.T) interface{} {
		s := newServer(t)
		path := filepath.Join(t.TempDir(), "doc.json")
		if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
			t.Fatal(err)
		}
		return cmdTest{
			args:   []string{"--dsn", s.URL, "-o", path, "get", "db", "doc"},
			status: errors.ErrCantCreate,
		}
	})

	tests.Run(t, func(t *testing.T, tt cmdTest) {
		tt.Test(t)
	})
}

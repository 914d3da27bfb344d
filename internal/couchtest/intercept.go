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

package couchtest

import (
	"net/http"
	"sync"
)

// Interceptor answers one expected request with a canned response.
type Interceptor struct {
	method string
	uri    string

	mu     sync.Mutex
	status int
	header http.Header
	body   interface{}
	done   bool
}

// Expect registers an interceptor for a request with the given method and
// escaped request URI (path plus query string), such as
// "/db/partkey%3Aid?conflicts=true". Each interceptor answers at most one
// request, and takes precedence over stored documents. The default reply is
// 200 with an empty JSON object.
func (s *Server) Expect(method, uri string) *Interceptor {
	i := &Interceptor{
		method: method,
		uri:    uri,
		status: http.StatusOK,
		header: http.Header{},
		body:   map[string]interface{}{},
	}
	s.mu.Lock()
	s.interceptors = append(s.interceptors, i)
	s.mu.Unlock()
	return i
}

// Reply sets the response status and body. body is JSON-encoded, unless it
// is a []byte or string, which are sent as-is.
func (i *Interceptor) Reply(status int, body interface{}) *Interceptor {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.status = status
	i.body = body
	return i
}

// Header sets a response header.
func (i *Interceptor) Header(key, value string) *Interceptor {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.header.Set(key, value)
	return i
}

// Done reports whether the interceptor has answered a request.
func (i *Interceptor) Done() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.done
}

// claim marks i as used if it matches r and has not been used yet.
func (i *Interceptor) claim(r *http.Request) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.done || i.method != r.Method || i.uri != r.RequestURI {
		return false
	}
	i.done = true
	return true
}

func (i *Interceptor) serve(w http.ResponseWriter) {
	i.mu.Lock()
	status, body := i.status, i.body
	for k, v := range i.header {
		w.Header()[k] = v
	}
	i.mu.Unlock()
	switch b := body.(type) {
	case []byte:
		w.WriteHeader(status)
		_, _ = w.Write(b)
	case string:
		w.WriteHeader(status)
		_, _ = w.Write([]byte(b))
	default:
		_ = serveJSON(w, status, b)
	}
}

func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		interceptors := append([]*Interceptor(nil), s.interceptors...)
		s.mu.Unlock()
		for _, i := range interceptors {
			if i.claim(r) {
				i.serve(w)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

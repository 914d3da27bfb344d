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

// Package couchtest provides an in-process fake CouchDB server for tests.
//
// The server serves documents stored with [Server.Put], and supports
// one-shot interceptors ([Server.Expect]) that answer a specific request
// with a canned response. Every request is recorded, escaped exactly as it
// arrived on the wire.
package couchtest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"gitlab.com/flimzy/httpe"
)

// Server is a fake CouchDB server.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	dbs          map[string]map[string]map[string]interface{}
	interceptors []*Interceptor
	requests     []string
}

// New starts a new server, which is closed when the test completes.
func New(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		dbs: map[string]map[string]map[string]interface{}{},
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	mux := chi.NewMux()
	mux.Use(
		s.record,
		s.intercept,
		middleware.GetHead,
		httpe.ToMiddleware(handleErrors),
	)
	mux.Get("/{db}/_local/{docid}", httpe.ToHandler(s.doc(localPrefix)).ServeHTTP)
	mux.Get("/{db}/{docid}", httpe.ToHandler(s.doc("")).ServeHTTP)
	mux.NotFound(httpe.ToHandler(notFound()).ServeHTTP)
	return mux
}

const localPrefix = "_local/"

// Requests returns the request line (method and escaped URI) of each request
// received so far, in order.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Put stores doc in db under id, creating db if needed. _id is set to id,
// and _rev to a new revision if doc does not carry one. The stored revision
// is returned.
func (s *Server) Put(db, id string, doc map[string]interface{}) string {
	stored := make(map[string]interface{}, len(doc)+2)
	for k, v := range doc {
		stored[k] = v
	}
	stored["_id"] = id
	rev, _ := stored["_rev"].(string)
	if rev == "" {
		rev = "1-" + strings.ReplaceAll(uuid.NewString(), "-", "")
		stored["_rev"] = rev
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dbs[db] == nil {
		s.dbs[db] = map[string]map[string]interface{}{}
	}
	s.dbs[db][id] = stored
	return rev
}

// CreateDB creates an empty database.
func (s *Server) CreateDB(db string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dbs[db] == nil {
		s.dbs[db] = map[string]map[string]interface{}{}
	}
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.RequestURI)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) doc(prefix string) httpe.HandlerWithError {
	return httpe.HandlerWithErrorFunc(func(w http.ResponseWriter, r *http.Request) error {
		db, err := url.PathUnescape(chi.URLParam(r, "db"))
		if err != nil {
			return &couchError{status: http.StatusBadRequest, Err: "bad_request", Reason: err.Error()}
		}
		id, err := url.PathUnescape(chi.URLParam(r, "docid"))
		if err != nil {
			return &couchError{status: http.StatusBadRequest, Err: "bad_request", Reason: err.Error()}
		}
		s.mu.Lock()
		docs, ok := s.dbs[db]
		doc := docs[prefix+id]
		s.mu.Unlock()
		if !ok {
			return &couchError{status: http.StatusNotFound, Err: "not_found", Reason: "Database does not exist."}
		}
		if doc == nil {
			return &couchError{status: http.StatusNotFound, Err: "not_found", Reason: "missing"}
		}
		w.Header().Set("ETag", fmt.Sprintf("%q", doc["_rev"]))
		return serveJSON(w, http.StatusOK, doc)
	})
}

func notFound() httpe.HandlerWithError {
	return httpe.HandlerWithErrorFunc(func(http.ResponseWriter, *http.Request) error {
		return &couchError{status: http.StatusNotFound, Err: "not_found", Reason: "Database does not exist."}
	})
}

type couchError struct {
	status int
	Err    string `json:"error"`
	Reason string `json:"reason"`
}

func (e *couchError) Error() string {
	return e.Reason
}

func (e *couchError) HTTPStatus() int {
	return e.status
}

func handleErrors(next httpe.HandlerWithError) httpe.HandlerWithError {
	return httpe.HandlerWithErrorFunc(func(w http.ResponseWriter, r *http.Request) error {
		if err := next.ServeHTTPWithError(w, r); err != nil {
			ce := &couchError{}
			if !errors.As(err, &ce) {
				ce = &couchError{
					status: http.StatusInternalServerError,
					Err:    "unknown_error",
					Reason: err.Error(),
				}
			}
			return serveJSON(w, ce.status, ce)
		}
		return nil
	})
}

func serveJSON(w http.ResponseWriter, status int, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = io.Copy(w, bytes.NewReader(body))
	return err
}

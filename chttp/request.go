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
	"net/http"

	internal "github.com/go-kivik/couchreq/internal/errors"
)

const typeJSON = "application/json"

// Operation names a logical document operation.
type Operation string

// Supported operations.
const (
	// OpGet fetches a document body.
	OpGet Operation = "get"
	// OpHead fetches only the document's headers, notably its ETag.
	OpHead Operation = "head"
)

var methods = map[Operation]string{
	OpGet:  http.MethodGet,
	OpHead: http.MethodHead,
}

// Request describes a single HTTP request to a CouchDB server. It must not
// be modified once returned by [Build].
type Request struct {
	// Method is the HTTP verb.
	Method string

	// Path is the escaped request path, relative to the server root, always
	// beginning with '/'.
	Path string

	// RawQuery is the serialized query string, without the leading '?'. It
	// is empty when there are no options.
	RawQuery string

	// Header holds headers to send with the request.
	Header http.Header
}

// URI returns the request path with its query string, as it appears on the
// wire.
func (r *Request) URI() string {
	if r.RawQuery == "" {
		return r.Path
	}
	return r.Path + "?" + r.RawQuery
}

// Build returns the request descriptor for op against document docID in
// database dbName. It performs no I/O.
//
// An empty dbName or docID (including a bare "_local/"), an unknown op, or an option value of an
// unsupported type yields a validation error.
func Build(op Operation, dbName, docID string, options map[string]interface{}) (*Request, error) {
	method, ok := methods[op]
	if !ok {
		return nil, internal.Validationf("unknown operation %q", op)
	}
	if dbName == "" {
		return nil, internal.Validationf("database name required")
	}
	if docID == "" {
		return nil, internal.Validationf("document ID required")
	}
	if docID == prefixLocal {
		return nil, internal.Validationf("document ID required after %q", prefixLocal)
	}
	query, err := EncodeQuery(options)
	if err != nil {
		return nil, err
	}
	return &Request{
		Method:   method,
		Path:     "/" + EncodeDBName(dbName) + "/" + EncodeDocID(docID),
		RawQuery: query,
		Header: http.Header{
			"Accept": []string{typeJSON},
		},
	}, nil
}

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
	"encoding/json"
	"net/http"
	"strings"

	internal "github.com/go-kivik/couchreq/internal/errors"
)

// errorBody is the failure payload CouchDB sends with error statuses.
type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// ResponseError returns a server error if resp has a non-2xx status, and nil
// otherwise. The error message is the server-supplied reason, verbatim, or
// the status text if the body has none. For error statuses the body is
// consumed and closed.
func ResponseError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 { // nolint:gomnd
		return nil
	}
	defer CloseBody(resp.Body)
	httpErr := &internal.Error{
		Kind:   internal.KindServer,
		Status: resp.StatusCode,
	}
	if resp.Body != nil && !isHead(resp) {
		var body errorBody
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			httpErr.Name = body.Error
			httpErr.Message = body.Reason
		}
	}
	if httpErr.Message == "" {
		httpErr.Message = internal.StatusMessage(resp.StatusCode)
	}
	return httpErr
}

func isHead(resp *http.Response) bool {
	return resp.Request != nil && resp.Request.Method == http.MethodHead
}

// ETag returns the unquoted ETag value, and a bool indicating whether it was
// found.
func ETag(resp *http.Response) (string, bool) {
	if resp == nil {
		return "", false
	}
	etag, ok := resp.Header["Etag"]
	if !ok {
		etag, ok = resp.Header["ETag"] // nolint: staticcheck
	}
	if !ok || len(etag) == 0 {
		return "", false
	}
	return strings.Trim(etag[0], `"`), true
}

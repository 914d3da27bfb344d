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
	"net/url"
	"strings"
)

const prefixLocal = "_local/"

// EncodeDocID encodes a document ID for use in a request path.
//
// The '_local/' prefix is kept as a literal path segment. Everything else,
// including the ':' of a partitioned ID and any '/', is escaped into a single
// path segment.
func EncodeDocID(docID string) string {
	if strings.HasPrefix(docID, prefixLocal) {
		return prefixLocal + encodeSegment(strings.TrimPrefix(docID, prefixLocal))
	}
	return encodeSegment(docID)
}

// EncodeDBName encodes a database name as a single path segment.
func EncodeDBName(dbName string) string {
	return encodeSegment(dbName)
}

func encodeSegment(s string) string {
	s = url.QueryEscape(s)
	return strings.ReplaceAll(s, "+", "%20") // Spaces as %20; a literal '+' is already %2B
}

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

// Package couchreq fetches CouchDB documents over HTTP.
//
// A [Client] holds the server address and the transport. [Client.DB] returns
// a handle scoped to one database, and [DB.Get] fetches a document:
//
//	client, err := couchreq.New("http://localhost:5984/")
//	if err != nil {
//	    panic(err)
//	}
//	doc, err := client.DB("db").Get(ctx, "id", nil).Await(ctx)
//
// Get supports two calling conventions. Without a callback it returns a
// [Deferred], which is settled once the round trip completes. With one or
// more callbacks it returns nil, and each callback is invoked exactly once
// with the outcome:
//
//	client.DB("db").Get(ctx, "id", couchreq.Options{"conflicts": true}, func(doc couchreq.Document, err error) {
//	    // ...
//	})
//
// Failures are reported as [*Error] values, tagged with a [ErrorKind]:
// validation errors for bad input (never sent to the server), server errors
// carrying the server's reason verbatim, and network errors when no response
// was obtained.
package couchreq // import "github.com/go-kivik/couchreq"

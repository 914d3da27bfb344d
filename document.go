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
	"encoding/json"

	"github.com/icza/dyno"
)

// Document is a CouchDB document as returned by the server. Fields are kept
// exactly as decoded from JSON: objects are map[string]interface{}, arrays
// []interface{}, and numbers float64.
type Document map[string]interface{}

// ID returns the document's _id field, or "" if absent.
func (d Document) ID() string {
	id, _ := d["_id"].(string)
	return id
}

// Rev returns the document's _rev field, or "" if absent.
func (d Document) Rev() string {
	rev, _ := d["_rev"].(string)
	return rev
}

// Get returns the value at path, where each element is a string (object
// key) or an int (array index).
//
//	v, err := doc.Get("address", "lines", 0)
func (d Document) Get(path ...interface{}) (interface{}, error) {
	return dyno.Get(map[string]interface{}(d), path...)
}

// Decode unmarshals the document into v, which should be a pointer to a
// struct or map.
func (d Document) Decode(v interface{}) error {
	body, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

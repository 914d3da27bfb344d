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

// Package friendly is the default, human-oriented output format.
package friendly

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/go-kivik/couchreq/cmd/couchget/output"
)

type format struct{}

var _ output.Format = &format{}

// New returns the friendly formatter. Results that know how to render
// themselves do so; everything else is printed as indented JSON.
func New() output.Format {
	return &format{}
}

func (format) Output(w io.Writer, r io.Reader) error {
	if fr, ok := r.(output.FriendlyOutput); ok {
		return fr.Execute(w)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "    "); err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}

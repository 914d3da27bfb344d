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

// Package json renders output as JSON.
package json

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/go-kivik/couchreq/cmd/couchget/output"
)

type format struct {
	indent string
}

var _ output.FormatArg = &format{}

// New returns the JSON formatter. By default output is compact; an optional
// argument sets the indent width in spaces.
func New() output.Format {
	return &format{}
}

func (format) Required() bool { return false }

func (f *format) Arg(arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return err
	}
	f.indent = strings.Repeat(" ", n)
	return nil
}

func (f *format) Output(w io.Writer, r io.Reader) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if f.indent == "" {
		err = json.Compact(&buf, body)
	} else {
		err = json.Indent(&buf, body, "", f.indent)
	}
	if err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}

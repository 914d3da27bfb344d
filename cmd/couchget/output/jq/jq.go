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

// Package jq filters output through a jq expression.
package jq

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/go-kivik/couchreq/cmd/couchget/output"
)

type format struct {
	query *gojq.Query
}

var _ output.FormatArg = &format{}

// New returns a jq formatter.
func New() output.Format {
	return &format{}
}

func (format) Required() bool { return true }

func (f *format) Arg(arg string) error {
	// Shells escape ! even inside single quotes.
	query, err := gojq.Parse(strings.ReplaceAll(arg, `\!`, `!`))
	if err != nil {
		return fmt.Errorf("invalid jq expression: %w", err)
	}
	f.query = query
	return nil
}

// Output writes each result of the query as one line of JSON.
func (f *format) Output(w io.Writer, r io.Reader) error {
	obj, err := output.Decode(r)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	iter := f.query.Run(obj)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := v.(error); ok {
			return fmt.Errorf("jq: %w", err)
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
}

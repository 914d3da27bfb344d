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
	"testing"
)

func TestEncodeDocID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"foo", "foo"},
		{"partkey:id", "partkey%3Aid"},
		{"foo/bar", "foo%2Fbar"},
		{"foo bar", "foo%20bar"},
		{"a+b", "a%2Bb"},
		{"100%", "100%25"},
		{"über", "%C3%BCber"},
		{"_local/foo", "_local/foo"},
		{"_local/foo/bar", "_local/foo%2Fbar"},
		{"_local/part:id", "_local/part%3Aid"},
		{"_localfoo", "_localfoo"},
		{"_design/foo", "_design%2Ffoo"},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			result := EncodeDocID(test.input)
			if result != test.expected {
				t.Errorf("Unexpected result: %s (expected %s)", result, test.expected)
			}
		})
	}
}

func TestEncodeDocIDRoundTrip(t *testing.T) {
	ids := []string{
		"id", "partkey:id", "a/b/c", "50% off", "q?x=y&z", "#hash", "tab\there",
		"日本語", "semi;colon", "comma,separated", "plus+sign", "~tilde", "%2F",
	}
	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			encoded := EncodeDocID(id)
			if strings.Contains(encoded, "/") {
				t.Errorf("encoded ID %q spans more than one segment", encoded)
			}
			decoded, err := url.PathUnescape(encoded)
			if err != nil {
				t.Fatal(err)
			}
			if decoded != id {
				t.Errorf("round trip: got %q, want %q", decoded, id)
			}
		})
	}
}

func TestEncodeDBName(t *testing.T) {
	if got, want := EncodeDBName("foo/bar"), "foo%2Fbar"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

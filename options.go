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
	"fmt"
	"net/http"

	"github.com/go-kivik/couchreq/chttp"
)

// Option configures a [Client]. Options are passed to [New].
type Option interface {
	// Apply applies the option to target, if target is of the expected type.
	// Unsupported targets are silently ignored.
	Apply(target interface{})
	String() string
}

type multiOptions []Option

var _ Option = multiOptions(nil)

func (o multiOptions) Apply(t interface{}) {
	for _, opt := range o {
		if opt != nil {
			opt.Apply(t)
		}
	}
}

func (o multiOptions) String() string {
	return fmt.Sprintf("%v", []Option(o))
}

// Options are the query parameters of a single request, such as
// {"conflicts": true} or {"rev": "1-abc"}. Values must be strings, bools, or
// numbers; any other type is rejected before the request is sent.
type Options map[string]interface{}

type optionHTTPClient struct {
	*http.Client
}

func (c optionHTTPClient) Apply(target interface{}) {
	if client, ok := target.(*http.Client); ok {
		*client = *c.Client
	}
}

func (optionHTTPClient) String() string { return "custom *http.Client" }

// OptionHTTPClient specifies a custom [net/http.Client] to be used by the
// default transport. Ignored when [OptionTransport] is also given.
func OptionHTTPClient(client *http.Client) Option {
	return optionHTTPClient{Client: client}
}

type optionUserAgent string

func (a optionUserAgent) Apply(target interface{}) {
	if client, ok := target.(*chttp.Client); ok {
		client.UserAgents = append(client.UserAgents, string(a))
	}
}

func (a optionUserAgent) String() string {
	return fmt.Sprintf("[UserAgent:%s]", string(a))
}

// OptionUserAgent appends ua to the default User-Agent header sent on all
// requests by the default transport.
func OptionUserAgent(ua string) Option {
	return optionUserAgent(ua)
}

type optionTransport struct {
	Transport
}

func (o optionTransport) Apply(target interface{}) {
	if c, ok := target.(*Client); ok {
		c.transport = o.Transport
	}
}

func (optionTransport) String() string { return "custom Transport" }

// OptionTransport replaces the default net/http transport. Requests are
// handed to t fully built; t only has to deliver them.
func OptionTransport(t Transport) Option {
	return optionTransport{Transport: t}
}

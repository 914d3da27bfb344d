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

import "context"

// Deferred is the eventual outcome of a call made without callbacks. It is
// settled exactly once, and may be awaited from any number of goroutines.
type Deferred struct {
	done chan struct{}
	doc  Document
	err  error
}

func newDeferred() *Deferred {
	return &Deferred{done: make(chan struct{})}
}

func (d *Deferred) settle(doc Document, err error) {
	d.doc, d.err = doc, err
	close(d.done)
}

// Done returns a channel that is closed once the outcome is available.
func (d *Deferred) Done() <-chan struct{} {
	return d.done
}

// Await blocks until the outcome is available or ctx is done. ctx only
// bounds the wait; the request itself is governed by the context passed to
// the call that produced d. If ctx ends first, ctx.Err() is returned.
func (d *Deferred) Await(ctx context.Context) (Document, error) {
	select {
	case <-d.done:
		return d.doc, d.err
	default:
	}
	select {
	case <-d.done:
		return d.doc, d.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

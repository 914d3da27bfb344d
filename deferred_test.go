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
	"context"
	"errors"
	"testing"
	"time"

	"gitlab.com/flimzy/testy"
)

func TestDeferred(t *testing.T) {
	t.Run("settled", func(t *testing.T) {
		d := newDeferred()
		d.settle(Document{"_id": "foo"}, nil)
		doc, err := d.Await(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if d := testy.DiffInterface(Document{"_id": "foo"}, doc); d != nil {
			t.Error(d)
		}
	})
	t.Run("settled wins over cancelled context", func(t *testing.T) {
		d := newDeferred()
		d.settle(nil, errors.New("boom"))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := d.Await(ctx)
		testy.Error(t, "boom", err)
	})
	t.Run("cancelled wait", func(t *testing.T) {
		d := newDeferred()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := d.Await(ctx)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Unexpected error: %v", err)
		}
		select {
		case <-d.Done():
			t.Error("deferred settled unexpectedly")
		default:
		}
	})
	t.Run("await repeatedly", func(t *testing.T) {
		d := newDeferred()
		go d.settle(Document{"a": "b"}, nil)
		<-d.Done()
		for i := 0; i < 3; i++ {
			doc, err := d.Await(context.Background())
			if err != nil || doc["a"] != "b" {
				t.Errorf("Unexpected result: %v, %v", doc, err)
			}
		}
	})
}

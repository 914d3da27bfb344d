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
	internal "github.com/go-kivik/couchreq/internal/errors"
)

// Error is the error type returned by all client operations. Its Error method
// returns the server-supplied reason unmodified for server errors, and
// "Invalid parameters" for validation errors.
type Error = internal.Error

// ErrorKind classifies an [Error].
type ErrorKind = internal.Kind

// Error kinds.
const (
	KindUnknown    = internal.KindUnknown
	KindValidation = internal.KindValidation
	KindServer     = internal.KindServer
	KindNetwork    = internal.KindNetwork
)

// MsgInvalidParameters is the message of every validation error.
const MsgInvalidParameters = internal.MsgInvalidParameters

// HTTPStatus returns the HTTP status code embedded in the error, or 500 if
// there is no embedded status code. nil yields 0.
func HTTPStatus(err error) int {
	return internal.HTTPStatus(err)
}

// KindOf returns the kind of err, or [KindUnknown] if err is not an [*Error].
func KindOf(err error) ErrorKind {
	return internal.KindOf(err)
}

// IsValidation reports whether err was raised before any request was sent,
// because of invalid input.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsServer reports whether err reflects a failure response from the server.
func IsServer(err error) bool {
	return KindOf(err) == KindServer
}

// IsNetwork reports whether err means no response was obtained.
func IsNetwork(err error) bool {
	return KindOf(err) == KindNetwork
}

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

// Package errors holds the error type shared by the request builder, the
// transport and the public client package.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// MsgInvalidParameters is the message carried by every validation failure.
const MsgInvalidParameters = "Invalid parameters"

// Kind classifies an [Error].
type Kind int

// The error kinds.
const (
	// KindUnknown is reported by [KindOf] for errors that did not originate
	// from this module.
	KindUnknown Kind = iota
	// KindValidation means the caller's input was rejected before any I/O.
	KindValidation
	// KindServer means the server answered with a non-2xx status, or with a
	// body that could not be decoded.
	KindServer
	// KindNetwork means no response was obtained from the server.
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Error is an error with a kind tag and an HTTP status.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// Status is the HTTP status code. Validation errors use 400, network
	// errors 502.
	Status int

	// Name is the server-supplied error name, such as "not_found". Only set
	// for server errors.
	Name string

	// Message is returned verbatim by Error() when set. For server errors
	// this is the server-supplied reason.
	Message string

	// Err is the wrapped cause, if any.
	Err error
}

var _ error = (*Error)(nil)

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return StatusMessage(e.Status)
}

// HTTPStatus returns the embedded status code.
func (e *Error) HTTPStatus() int {
	return e.Status
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// StatusMessage is the message used for a failure response that carries no
// reason.
func StatusMessage(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("unexpected status %d", status)
}

// Validation returns a validation error. cause may be nil.
func Validation(cause error) *Error {
	return &Error{
		Kind:    KindValidation,
		Status:  http.StatusBadRequest,
		Message: MsgInvalidParameters,
		Err:     cause,
	}
}

// Validationf returns a validation error with a formatted cause.
func Validationf(format string, args ...interface{}) *Error {
	return Validation(fmt.Errorf(format, args...))
}

// Network wraps err as a network error. nil in, nil out. If err is already an
// *Error it is returned unchanged.
func Network(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{
		Kind:   KindNetwork,
		Status: http.StatusBadGateway,
		Err:    err,
	}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus returns the HTTP status embedded in err. nil yields 0, and
// errors without a status yield 500.
func HTTPStatus(err error) int {
	if err == nil {
		return 0
	}
	var coder interface {
		HTTPStatus() int
	}
	if errors.As(err, &coder) {
		return coder.HTTPStatus()
	}
	return http.StatusInternalServerError
}

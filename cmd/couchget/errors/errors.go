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

// Package errors maps failures to process exit codes.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-kivik/couchreq"
)

// Exit status codes
//
// See https://man.openbsd.org/sysexits.3
const (
	// ErrUsage indicates an incorrect command, option, or unparseable
	// configuration or command line options.
	ErrUsage = 2
	// ErrUnknown indicates that the server responded with an HTTP status > 500.
	// Probably an indication of a proxy server interfering.
	ErrUnknown = 3
	// ErrInternalServerError indicates that the server responded with a 500
	// error.
	ErrInternalServerError = 4

	// ErrBadRequest indicates that the server responded with a 400 error.
	ErrBadRequest = 10
	// ErrUnauthorized indicates that the server responded with a 401 error.
	ErrUnauthorized = 11
	// ErrForbidden indicates that the server responded with a 403 error.
	ErrForbidden = 13
	// ErrNotFound indicates that the server responded with a 404 error.
	ErrNotFound = 14

	// ErrData indicates an input file is invalid, such as malformed YAML.
	ErrData = 65
	// ErrUnavailable indicates that the server could not be reached, such as
	// a connection refused.
	ErrUnavailable = 69
	// ErrCantCreate indicates that an output file cannot be created.
	ErrCantCreate = 73
	// ErrProtocol indicates a protocol error, such as a CouchDB server
	// returning a non-JSON response.
	ErrProtocol = 76
)

type statusErr struct {
	error
	code int
}

func (e *statusErr) Error() string {
	return e.error.Error()
}

func (e *statusErr) Unwrap() error {
	return e.error
}

func (e *statusErr) ExitStatus() int {
	return e.code
}

// WithCode wraps err with an exit code.
func WithCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return &statusErr{
		error: err,
		code:  code,
	}
}

// InspectErrorCode returns the exit code for err, or 0 if err carries no
// recognizable classification.
func InspectErrorCode(err error) int {
	if err == nil {
		return 0
	}
	exitErr := new(statusErr)
	if errors.As(err, &exitErr) {
		return exitErr.ExitStatus()
	}

	switch couchreq.KindOf(err) {
	case couchreq.KindValidation:
		return ErrUsage
	case couchreq.KindNetwork:
		return ErrUnavailable
	case couchreq.KindServer:
		var e *couchreq.Error
		if errors.As(err, &e) && e.Status == http.StatusBadGateway && e.Name == "" && e.Err != nil {
			// The server answered, but not with something we understand.
			return ErrProtocol
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrUnavailable
	}

	jsonSyntax := new(json.SyntaxError)
	if errors.As(err, &jsonSyntax) {
		return ErrProtocol
	}

	var statusErr interface {
		HTTPStatus() int
	}
	if errors.As(err, &statusErr) {
		return fromHTTPStatus(statusErr.HTTPStatus())
	}

	return 0
}

func fromHTTPStatus(status int) int {
	switch {
	case status == http.StatusInternalServerError:
		return ErrInternalServerError
	case status >= 400 && status < 500:
		return status - 390 // nolint:gomnd
	default:
		return ErrUnknown
	}
}

// Code returns a new error with an error code. If err is an existing error, it
// is wrapped with the error code. All other values are passed to fmt.Sprint.
//
// If err is a single nil value, nil is returned.
func Code(code int, err ...interface{}) error {
	if len(err) == 1 {
		if err[0] == nil {
			return nil
		}
		if e, ok := err[0].(error); ok {
			return &statusErr{
				error: e,
				code:  code,
			}
		}
	}
	return &statusErr{
		error: errors.New(fmt.Sprint(err...)),
		code:  code,
	}
}

// Codef wraps the output of fmt.Errorf with a code.
func Codef(code int, format string, args ...interface{}) error {
	return &statusErr{
		error: fmt.Errorf(format, args...),
		code:  code,
	}
}

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

// Package log handles logging.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the standard logger interface.
type Logger interface {
	// SetOut sets the destination for normal output.
	SetOut(io.Writer)
	// SetErr sets the destination for error output.
	SetErr(io.Writer)
	// SetDebug turns debug mode on or off.
	SetDebug(bool)
	// Debug logs debug output.
	Debug(...any)
	// Debugf logs formatted debug output.
	Debugf(string, ...any)
	// Info logs normal priority messages.
	Info(...any)
	// Infof logs formatted normal priority messages.
	Infof(string, ...any)
	// Error logs error messages.
	Error(...any)
	// Errorf logs formatted error messages.
	Errorf(string, ...any)
}

type logger struct {
	stdout zerolog.Logger
	stderr zerolog.Logger
	level  zerolog.Level
}

var _ Logger = &logger{}

// New returns a new logger instance, backed by zerolog console writers on
// stdout and stderr.
func New() Logger {
	l := &logger{level: zerolog.InfoLevel}
	l.SetOut(os.Stdout)
	l.SetErr(os.Stderr)
	return l
}

func console(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		PartsOrder: []string{zerolog.MessageFieldName},
	})
}

func (l *logger) SetOut(out io.Writer) { l.stdout = console(out) }
func (l *logger) SetErr(err io.Writer) { l.stderr = console(err).Level(l.level) }

func (l *logger) SetDebug(debug bool) {
	l.level = zerolog.InfoLevel
	if debug {
		l.level = zerolog.DebugLevel
	}
	l.stderr = l.stderr.Level(l.level)
}

func line(s string) string {
	return strings.TrimSpace(s)
}

func (l *logger) Debug(args ...any) {
	l.stderr.Debug().Msg(line(fmt.Sprint(args...)))
}

func (l *logger) Debugf(format string, args ...any) {
	l.stderr.Debug().Msg(line(fmt.Sprintf(format, args...)))
}

func (l *logger) Info(args ...any) {
	l.stdout.Info().Msg(line(fmt.Sprint(args...)))
}

func (l *logger) Infof(format string, args ...any) {
	l.stdout.Info().Msg(line(fmt.Sprintf(format, args...)))
}

func (l *logger) Error(args ...any) {
	l.stderr.Error().Msg(line(fmt.Sprint(args...)))
}

func (l *logger) Errorf(format string, args ...any) {
	l.stderr.Error().Msg(line(fmt.Sprintf(format, args...)))
}

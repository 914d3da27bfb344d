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

// Package cmd implements the couchget command line.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"github.com/go-kivik/couchreq"
	"github.com/go-kivik/couchreq/chttp"
	"github.com/go-kivik/couchreq/cmd/couchget/config"
	"github.com/go-kivik/couchreq/cmd/couchget/errors"
	"github.com/go-kivik/couchreq/cmd/couchget/log"
	"github.com/go-kivik/couchreq/cmd/couchget/output"
	"github.com/go-kivik/couchreq/cmd/couchget/output/friendly"
	"github.com/go-kivik/couchreq/cmd/couchget/output/gotmpl"
	"github.com/go-kivik/couchreq/cmd/couchget/output/jq"
	outjson "github.com/go-kivik/couchreq/cmd/couchget/output/json"
	"github.com/go-kivik/couchreq/cmd/couchget/output/raw"
	"github.com/go-kivik/couchreq/cmd/couchget/output/yaml"
)

type root struct {
	confFile string
	debug    bool
	log      log.Logger
	conf     *config.Config
	cmd      *cobra.Command
	fmt      *output.Formatter

	retryDelay     string
	retryTimeout   string
	options        couchreq.Options
	stringOptions  map[string]string
	boolOptions    map[string]string
	numberOptions  map[string]string
	requestTimeout time.Duration
	connectTimeout time.Duration

	trace      *chttp.ClientTrace
	dumpHeader bool
	verbose    bool

	// retry attempts
	retryCount         int
	retryDelayParsed   time.Duration
	retryTimeoutParsed time.Duration

	// resolveHome is used to resolve ~ in the default config file path
	resolveHome func(string) string
}

// Execute runs the couchget command line, and exits.
func Execute(ctx context.Context) {
	lg := log.New()
	root := rootCmd(lg)
	os.Exit(root.execute(ctx))
}

func (r *root) execute(ctx context.Context) int {
	ctx = chttp.WithClientTrace(ctx, r.clientTrace())
	err := r.cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	return extractExitCode(err)
}

func extractExitCode(err error) int {
	if code := errors.InspectErrorCode(err); code != 0 {
		return code
	}

	// Any unhandled errors are assumed to be from Cobra, so return a "failed
	// to initialize" error
	return errors.ErrUsage
}

func formatter() *output.Formatter {
	f := output.New()
	f.Register("", friendly.New())
	f.Register("json", outjson.New())
	f.Register("raw", raw.New())
	f.Register("yaml", yaml.New())
	f.Register("go-template", gotmpl.New())
	f.Register("jq", jq.New())
	return f
}

func resolveHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	usr, err := user.Current()
	if err != nil {
		return path
	}
	return filepath.Join(usr.HomeDir, path[2:])
}

func rootCmd(lg log.Logger) *root {
	r := &root{
		log:         lg,
		fmt:         formatter(),
		resolveHome: resolveHome,
	}
	r.cmd = &cobra.Command{
		Use:               "couchget",
		Short:             "couchget fetches CouchDB documents",
		Long:              `Fetch documents and document revisions from a CouchDB server`,
		PersistentPreRunE: r.init,
		SilenceUsage:      true,
	}

	pf := r.cmd.PersistentFlags()

	r.fmt.ConfigFlags(pf)
	pf.StringVar(&r.confFile, "config", "~/.couchget.yaml", "Path to config file to use for CLI requests")
	pf.BoolVar(&r.debug, "debug", false, "Enable debug output")
	pf.StringP(config.KeyDSN, "d", config.DefaultDSN, "CouchDB server URL")
	pf.String(config.KeyUserAgent, "", "Additional User-Agent product token")
	pf.IntVar(&r.retryCount, "retry", 0, "In case of transient error, retry up to this many times. A negative value retries forever.")
	pf.StringToStringVarP(&r.stringOptions, "option", "O", nil, "CouchDB string option, specified as key=value. May be repeated.")
	pf.StringToStringVarP(&r.boolOptions, "option-bool", "B", nil, "CouchDB bool option, specified as key=value. May be repeated.")
	pf.StringToStringVarP(&r.numberOptions, "option-number", "N", nil, "CouchDB numeric option, specified as key=value. May be repeated.")
	pf.BoolVarP(&r.dumpHeader, "header", "H", false, "Output response header")
	pf.BoolVarP(&r.verbose, "verbose", "v", false, "Output bi-directional network traffic")

	// Timeouts
	pf.DurationVar(&r.requestTimeout, config.KeyRequestTimeout, 0, "The time limit for each request.")
	pf.DurationVar(&r.connectTimeout, config.KeyConnectTimeout, 0, "Limits the time spent establishing a TCP connection.")
	pf.StringVar(&r.retryDelay, "retry-delay", "", "Delay between retry attempts. Disables the default exponential backoff algorithm.")
	pf.StringVar(&r.retryTimeout, "retry-timeout", "", "When used with --retry, no more retries will be attempted after this timeout.")

	r.cmd.AddCommand(getCmd(r))
	r.cmd.AddCommand(revCmd(r))
	r.cmd.AddCommand(versionCmd(r))

	return r
}

func parseDuration(val string) (time.Duration, error) {
	if val == "" {
		return 0, nil
	}
	if d, err := strconv.ParseFloat(val, 64); err == nil {
		if d < 0 {
			return 0, errors.Code(errors.ErrUsage, "negative timeout not permitted")
		}
		return time.Duration(d * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.Code(errors.ErrUsage, err)
	}
	if d < 0 {
		return 0, errors.Code(errors.ErrUsage, "negative timeout not permitted")
	}
	return d, nil
}

func (r *root) init(cmd *cobra.Command, _ []string) error {
	r.log.SetOut(cmd.OutOrStdout())
	r.log.SetErr(cmd.ErrOrStderr())
	r.log.SetDebug(r.debug)

	r.log.Debug("Debug mode enabled")

	var err error
	r.retryDelayParsed, err = parseDuration(r.retryDelay)
	if err != nil {
		return err
	}
	r.retryTimeoutParsed, err = parseDuration(r.retryTimeout)
	if err != nil {
		return err
	}
	if err := r.fmt.Validate(); err != nil {
		return err
	}

	r.conf, err = config.Load(r.resolveHome(r.confFile), cmd.Flags(), r.log)
	if err != nil {
		return err
	}

	if err := r.parseOptions(); err != nil {
		return err
	}
	if len(r.options) > 0 {
		r.log.Debugf("CouchDB options: %v", map[string]interface{}(r.options))
	}

	r.setTrace()

	return nil
}

// parseOptions merges -O, -B and -N into r.options. The first occurrence of
// a key wins.
func (r *root) parseOptions() error {
	r.options = couchreq.Options{}
	for k, v := range r.stringOptions {
		r.options[k] = v
	}
	for k, v := range r.boolOptions {
		if _, ok := r.options[k]; ok {
			continue
		}
		switch strings.ToLower(v) {
		case "true", "t":
			r.options[k] = true
		case "false", "f":
			r.options[k] = false
		default:
			return errors.Codef(errors.ErrUsage, "invalid boolean value: %s", v)
		}
	}
	for k, v := range r.numberOptions {
		if _, ok := r.options[k]; ok {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return errors.Codef(errors.ErrUsage, "invalid numeric value: %s", v)
		}
		r.options[k] = json.Number(v)
	}
	return nil
}

func (r *root) client() (*couchreq.Client, error) {
	opts := []couchreq.Option{
		couchreq.OptionHTTPClient(&http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout: r.conf.ConnectTimeout,
				}).DialContext,
			},
			Timeout: r.conf.RequestTimeout,
		}),
		couchreq.OptionUserAgent("couchget/" + couchreq.Version),
	}
	if r.conf.UserAgent != "" {
		opts = append(opts, couchreq.OptionUserAgent(r.conf.UserAgent))
	}
	client, err := couchreq.New(r.conf.DSN, opts...)
	if err != nil {
		return nil, errors.WithCode(err, errors.ErrUsage)
	}
	return client, nil
}

// transient reports whether err is worth retrying: network failures and
// 5xx responses.
func transient(err error) bool {
	switch couchreq.KindOf(err) {
	case couchreq.KindNetwork:
		return true
	case couchreq.KindServer:
		return couchreq.HTTPStatus(err) >= http.StatusInternalServerError
	}
	return false
}

func (r *root) retry(ctx context.Context, fn func() error) error {
	if r.retryCount == 0 {
		return fn()
	}
	var bo backoff.BackOff
	switch {
	case r.retryDelayParsed == 0 && r.retryDelay != "": // Disables retry delay
		bo = &backoff.ZeroBackOff{}
	case r.retryDelayParsed != 0:
		bo = backoff.NewConstantBackOff(r.retryDelayParsed)
	default:
		bo = backoff.NewExponentialBackOff()
	}
	if r.retryCount > 0 {
		bo = backoff.WithMaxRetries(bo, uint64(r.retryCount))
	}
	if r.retryTimeoutParsed > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.retryTimeoutParsed)
		defer cancel()
	}
	bo = backoff.WithContext(bo, ctx)
	var count int
	var err error
	return backoff.RetryNotify(func() error {
		count++
		err = fn()
		if err != nil && !transient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, bo, func(err error, next time.Duration) {
		msg := fmt.Sprintf("Warning: Transient problem: %s. Will retry in %s.", err, fmtDuration(next))
		if r.retryCount > 0 {
			msg += fmt.Sprintf(" %d retries left.", r.retryCount-count+1)
		}
		r.log.Error(msg)
	})
}

// nolint:gomnd
func fmtDuration(dur time.Duration) string {
	s := dur.Seconds()
	if s < 60 {
		return fmt.Sprintf("%0.2fs", s)
	}
	m := int(s / 60)
	s -= float64(m) * 60
	if m < 60 {
		return fmt.Sprintf("%dm%ds", m, int(s))
	}
	h := m / 60
	m -= h * 60
	if h < 24 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	d := h / 24
	h -= d * 24
	return fmt.Sprintf("%dd%dh%dm", d, h, m)
}

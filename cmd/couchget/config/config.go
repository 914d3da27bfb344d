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

// Package config loads couchget settings from a config file, the
// environment, and command line flags.
package config

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	clierrors "github.com/go-kivik/couchreq/cmd/couchget/errors"
	"github.com/go-kivik/couchreq/cmd/couchget/log"
)

// EnvPrefix is prepended to upper-cased setting names to form environment
// variable names, as in COUCHGET_DSN.
const EnvPrefix = "COUCHGET"

// Setting keys. Flags of the same name override them.
const (
	KeyDSN            = "dsn"
	KeyJobs           = "jobs"
	KeyRequestTimeout = "request-timeout"
	KeyConnectTimeout = "connect-timeout"
	KeyUserAgent      = "user-agent"
)

// Defaults
const (
	DefaultDSN  = "http://localhost:5984/"
	DefaultJobs = 4
)

// Config is the effective couchget configuration.
type Config struct {
	DSN            string        `mapstructure:"dsn" validate:"required,url"`
	Jobs           int           `mapstructure:"jobs" validate:"min=1,max=64"`
	RequestTimeout time.Duration `mapstructure:"request-timeout" validate:"min=0"`
	ConnectTimeout time.Duration `mapstructure:"connect-timeout" validate:"min=0"`
	UserAgent      string        `mapstructure:"user-agent"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads filename (YAML), then COUCHGET_* environment variables, then any
// changed flags in flags, in increasing order of precedence. A missing file
// is not an error.
func Load(filename string, flags *pflag.FlagSet, lg log.Logger) (*Config, error) {
	v := viper.New()
	v.SetDefault(KeyDSN, DefaultDSN)
	v.SetDefault(KeyJobs, DefaultJobs)
	v.SetDefault(KeyRequestTimeout, time.Duration(0))
	v.SetDefault(KeyConnectTimeout, time.Duration(0))
	v.SetDefault(KeyUserAgent, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := readFile(v, filename, lg); err != nil {
		return nil, clierrors.WithCode(err, clierrors.ErrData)
	}

	if flags != nil {
		for _, key := range []string{KeyDSN, KeyJobs, KeyRequestTimeout, KeyConnectTimeout, KeyUserAgent} {
			if f := flags.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "bind flag %s", key)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, clierrors.WithCode(errors.Wrap(err, "invalid configuration"), clierrors.ErrUsage)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, clierrors.WithCode(errors.Wrap(err, "invalid configuration"), clierrors.ErrUsage)
	}
	lg.Debugf("DSN: %s", redact(cfg.DSN))
	return cfg, nil
}

func readFile(v *viper.Viper, filename string, lg log.Logger) error {
	if filename == "" {
		lg.Debug("no config file specified")
		return nil
	}
	if _, err := os.Stat(filename); err != nil {
		if os.IsNotExist(err) {
			lg.Debugf("config file %q not found", filename)
			return nil
		}
		return errors.Wrap(err, "read config")
	}
	v.SetConfigFile(filename)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "read config %s", filename)
	}
	lg.Debugf("successfully read config file %q", filename)
	return nil
}

// redact hides the password in a DSN.
func redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}

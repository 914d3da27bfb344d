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
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	internal "github.com/go-kivik/couchreq/internal/errors"
)

// EncodeQuery serializes options into a query string, without the leading
// '?'. Keys are sorted. Booleans and numbers are written in their literal
// form, strings are escaped. Any other value type is a validation error.
func EncodeQuery(options map[string]interface{}) (string, error) {
	if len(options) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(options))
	for key := range options {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		value, err := optionValue(key, options[key])
		if err != nil {
			return "", err
		}
		pairs = append(pairs, encodeSegment(key)+"="+value)
	}
	return strings.Join(pairs, "&"), nil
}

func optionValue(key string, i interface{}) (string, error) {
	switch v := i.(type) {
	case string:
		return encodeSegment(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.FormatInt(int64(v), 10), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return formatFloat(key, float64(v), 32)
	case float64:
		return formatFloat(key, v, 64)
	case json.Number:
		if _, err := v.Float64(); err != nil {
			return "", internal.Validationf("invalid number %q for option %q", v.String(), key)
		}
		return v.String(), nil
	default:
		return "", internal.Validationf("invalid type %T for option %q", i, key)
	}
}

func formatFloat(key string, f float64, bitSize int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", internal.Validationf("invalid value %v for option %q", f, key)
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize), nil
}

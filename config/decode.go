/*
Copyright 2025 The Runwell Authors
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config decodes loosely typed configuration maps into option
// structs.
package config

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"

	kitstrings "github.com/runwell/kit/strings"
	kittime "github.com/runwell/kit/time"
)

// Decode decodes input into output, which must be a pointer to a struct.
// Input may be a map (string or any keyed) or a JSON object string.
// Durations accept Go duration strings, ISO8601 durations, or integer
// milliseconds; booleans accept any truthy string.
func Decode(input any, output any) error {
	normalized, err := Normalize(input)
	if err != nil {
		return err
	}

	if s, ok := normalized.(string); ok {
		normalized, err = cast.ToStringMapE(s)
		if err != nil {
			return fmt.Errorf("input string is not a JSON object: %w", err)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			toTimeDurationHookFunc(),
			toTruthyBoolHookFunc(),
		),
		Result:           output,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(normalized)
}

func toTimeDurationHookFunc() mapstructure.DecodeHookFunc {
	durationType := reflect.TypeOf(time.Duration(0))

	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != durationType || f == durationType {
			return data, nil
		}

		switch f.Kind() {
		case reflect.String:
			return kittime.ParseDuration(data.(string))
		case reflect.Float32, reflect.Float64:
			ms := reflect.ValueOf(data).Float()
			if ms != math.Trunc(ms) {
				return nil, fmt.Errorf("duration in milliseconds must be an integer, got %v", ms)
			}
			return kittime.FromMilliseconds(int64(ms)), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			// Bare numbers are milliseconds.
			ms, err := cast.ToInt64E(data)
			if err != nil {
				return nil, err
			}
			return kittime.FromMilliseconds(ms), nil
		default:
			return data, nil
		}
	}
}

func toTruthyBoolHookFunc() mapstructure.DecodeHookFunc {
	boolType := reflect.TypeOf(true)

	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() == reflect.String && t == boolType {
			return kitstrings.IsTruthy(data.(string)), nil
		}
		return data, nil
	}
}

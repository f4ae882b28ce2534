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

package config

import (
	"fmt"
)

// Normalize converts map[any]any values, as produced by some YAML decoders,
// into map[string]any recursively, so the result can be decoded by
// mapstructure.
func Normalize(i any) (any, error) {
	var err error
	switch x := i.(type) {
	case map[any]any:
		m2 := make(map[string]any, len(x))
		for k, v := range x {
			strKey, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("error parsing config field: %v", k)
			}
			if m2[strKey], err = Normalize(v); err != nil {
				return nil, err
			}
		}
		return m2, nil
	case map[string]any:
		m2 := make(map[string]any, len(x))
		for k, v := range x {
			if m2[k], err = Normalize(v); err != nil {
				return nil, err
			}
		}
		return m2, nil
	case []any:
		s2 := make([]any, len(x))
		for i, v := range x {
			if s2[i], err = Normalize(v); err != nil {
				return nil, err
			}
		}
		return s2, nil
	}

	return i, nil
}

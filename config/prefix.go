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
	"strings"
	"unicode"
)

// PrefixedBy returns only the entries of input whose key starts with prefix,
// with the prefix removed and the first letter of the remainder lowercased.
// "retryMaxRetries" with prefix "retry" becomes "maxRetries".
// Inputs that are not maps are returned unchanged.
func PrefixedBy(input any, prefix string) (any, error) {
	normalized, err := Normalize(input)
	if err != nil {
		return input, err
	}

	switch m := normalized.(type) {
	case map[string]any:
		return stripPrefix(m, prefix), nil
	case map[string]string:
		return stripPrefix(m, prefix), nil
	default:
		return normalized, nil
	}
}

func stripPrefix[V any](in map[string]V, prefix string) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		if strings.HasPrefix(k, prefix) {
			out[uncapitalize(strings.TrimPrefix(k, prefix))] = v
		}
	}
	return out
}

func uncapitalize(str string) string {
	if len(str) == 0 {
		return str
	}

	vv := []rune(str)
	vv[0] = unicode.ToLower(vv[0])

	return string(vv)
}

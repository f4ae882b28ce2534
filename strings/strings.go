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

// Package strings contains string helpers used by configuration decoding.
package strings

import "strings"

// IsTruthy returns true if a string is a truthy value.
// Truthy values are "y", "yes", "true", "t", "on", "1" (case-insensitive); everything else is false.
func IsTruthy(val string) bool {
	val = strings.TrimSpace(val)
	if len(val) > 4 {
		// Short-circuit, this can never be a truthy value
		return false
	}
	switch strings.ToLower(val) {
	case "y", "yes", "true", "t", "on", "1":
		return true
	default:
		return false
	}
}

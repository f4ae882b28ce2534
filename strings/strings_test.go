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

package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTruthy(t *testing.T) {
	for _, v := range []string{"y", "Yes", "TRUE", "t", " on ", "1"} {
		assert.True(t, IsTruthy(v), v)
	}
	for _, v := range []string{"", "n", "no", "false", "0", "enabled", "truthy"} {
		assert.False(t, IsTruthy(v), v)
	}
}

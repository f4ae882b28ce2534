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

package background

import (
	"context"
	"time"

	"github.com/runwell/kit/logger"
	"github.com/runwell/kit/retry"
)

// Retrying returns an Action that runs action until it succeeds or the
// backoff policy in cfg gives up. The last error is returned.
// Wrap an error in backoff.Permanent to stop retrying early.
func Retrying(action Action, cfg retry.Config) Action {
	return retrying(action, cfg, log)
}

func retrying(action Action, cfg retry.Config, l logger.Logger) Action {
	return func(ctx context.Context) error {
		return retry.NotifyRecover(
			func() error {
				return action(ctx)
			},
			cfg.NewBackOffWithContext(ctx),
			func(err error, d time.Duration) {
				l.Debugf("Background action failed, retrying in %v: %v", d, err)
			},
			func() {
				l.Debug("Background action succeeded after retrying")
			},
		)
	}
}

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
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cast"
	"k8s.io/utils/clock"

	"github.com/runwell/kit/config"
	"github.com/runwell/kit/logger"
	"github.com/runwell/kit/retry"
)

const (
	defaultBreakInterval = time.Second
	disposePollInterval  = 10 * time.Millisecond
)

// Options configures a Processor.
type Options struct {
	// DefaultErrorHandler handles the errors of actions enqueued without their
	// own error handler.
	// Defaults to logging the error.
	DefaultErrorHandler ErrorHandler

	// BreakInterval is how long the processor waits between two ticks.
	// Must be >= 0. Defaults to 1s.
	BreakInterval *time.Duration

	// BreakOnlyWhenNoWork makes the processor skip the break interval while
	// actions are pending, so the queue is drained as fast as possible and
	// the interval only applies when idle. When false, every action is
	// followed by a full break interval.
	// Defaults to true.
	BreakOnlyWhenNoWork *bool

	// Retry, if set, retries every action with this backoff policy before
	// its error reaches the error handler.
	Retry *retry.Config

	// Logger receives the failures of error handlers.
	// Defaults to the package logger.
	Logger logger.Logger

	// Internal clock property, used for testing.
	clock clock.Clock
}

func (o Options) validate() error {
	if o.BreakInterval != nil && *o.BreakInterval < 0 {
		return fmt.Errorf("break interval must be >= 0, got %v", *o.BreakInterval)
	}
	return nil
}

// Config is the decodable form of Options.
//
// Durations accept Go duration strings, ISO8601 durations, or integer
// milliseconds. "breakIntervalMilliseconds" is accepted as an alias of
// "breakInterval". Keys starting with "retry" (for example "retryPolicy",
// "retryMaxRetries") configure Options.Retry.
type Config struct {
	BreakInterval             *time.Duration `mapstructure:"breakInterval"`
	BreakIntervalMilliseconds *time.Duration `mapstructure:"breakIntervalMilliseconds"`
	BreakOnlyWhenNoWork       *bool          `mapstructure:"breakOnlyWhenNoWork"`

	Retry *retry.Config `mapstructure:"-"`
}

// DecodeConfig decodes a configuration map, or JSON object string, into a
// Config.
func DecodeConfig(input any) (Config, error) {
	if s, ok := input.(string); ok {
		m, err := cast.ToStringMapE(s)
		if err != nil {
			return Config{}, fmt.Errorf("invalid background processor configuration: %w", err)
		}
		input = m
	}

	var c Config
	if err := config.Decode(input, &c); err != nil {
		return Config{}, fmt.Errorf("invalid background processor configuration: %w", err)
	}

	retryInput, err := config.PrefixedBy(input, "retry")
	if err != nil {
		return Config{}, err
	}
	if m, ok := retryInput.(map[string]any); ok && len(m) > 0 {
		c.Retry = new(retry.Config)
		err = retry.DecodeConfig(c.Retry, m)
	} else if m, ok := retryInput.(map[string]string); ok && len(m) > 0 {
		c.Retry = new(retry.Config)
		err = retry.DecodeConfig(c.Retry, m)
	}
	if err != nil {
		return Config{}, fmt.Errorf("invalid background processor retry configuration: %w", err)
	}

	if c.BreakInterval != nil && c.BreakIntervalMilliseconds != nil && *c.BreakInterval != *c.BreakIntervalMilliseconds {
		return Config{}, errors.New("breakInterval and breakIntervalMilliseconds are both set and differ")
	}

	return c, nil
}

// Options returns the Options described by c. Handlers and logger are left
// to the caller.
func (c Config) Options() Options {
	opts := Options{
		BreakInterval:       c.BreakInterval,
		BreakOnlyWhenNoWork: c.BreakOnlyWhenNoWork,
		Retry:               c.Retry,
	}
	if opts.BreakInterval == nil {
		opts.BreakInterval = c.BreakIntervalMilliseconds
	}
	return opts
}

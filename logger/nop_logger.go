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

package logger

import "io"

type nopLogger struct{}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger {
	return &nopLogger{}
}

func (n *nopLogger) EnableJSONOutput(bool) {}
func (n *nopLogger) SetOutputLevel(LogLevel) {}
func (n *nopLogger) SetOutput(io.Writer) {}
func (n *nopLogger) IsOutputLevelEnabled(LogLevel) bool { return false }
func (n *nopLogger) WithFields(map[string]any) Logger { return n }
func (n *nopLogger) Info(...any) {}
func (n *nopLogger) Infof(string, ...any) {}
func (n *nopLogger) Debug(...any) {}
func (n *nopLogger) Debugf(string, ...any) {}
func (n *nopLogger) Warn(...any) {}
func (n *nopLogger) Warnf(string, ...any) {}
func (n *nopLogger) Error(...any) {}
func (n *nopLogger) Errorf(string, ...any) {}

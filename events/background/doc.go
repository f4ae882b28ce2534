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

// Package background implements a queue of actions run in the background by
// a single processing loop.
//
// Actions start in the order they were enqueued, one at a time. The loop
// wakes up on a timer: while actions are pending it moves on to the next one
// right away (unless BreakOnlyWhenNoWork is false), and when the queue is
// empty it waits for the break interval before looking again.
// The failure of an action, returned or panicked, is routed to its error
// handler; failures of error handlers are logged. Neither stops the queue.
package background

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

// Package time contains helpers to turn configuration values into durations.
package time

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var pattern = regexp.MustCompile(`^(R(?P<repetition>\d+)/)?P((?P<year>\d+)Y)?((?P<month>\d+)M)?((?P<week>\d+)W)?((?P<day>\d+)D)?(T((?P<hour>\d+)H)?((?P<minute>\d+)M)?((?P<second>\d+)S)?)?$`)

// ISO8601Duration is the decomposed form of an ISO8601 duration.
// Repetition is -1 when the duration does not repeat.
type ISO8601Duration struct {
	Years      int
	Months     int
	Days       int
	Duration   time.Duration
	Repetition int
}

// ParseISO8601Duration parses a duration from a string in the ISO8601 duration format.
func ParseISO8601Duration(from string) (ISO8601Duration, error) {
	match := pattern.FindStringSubmatch(from)
	if match == nil {
		return ISO8601Duration{}, fmt.Errorf("unsupported ISO8601 duration format %q", from)
	}
	res := ISO8601Duration{Repetition: -1}
	for i, name := range pattern.SubexpNames() {
		part := match[i]
		if i == 0 || name == "" || part == "" {
			continue
		}
		val, err := strconv.Atoi(part)
		if err != nil {
			return ISO8601Duration{}, err
		}
		switch name {
		case "year":
			res.Years = val
		case "month":
			res.Months = val
		case "week":
			res.Days += 7 * val
		case "day":
			res.Days += val
		case "hour":
			res.Duration += time.Hour * time.Duration(val)
		case "minute":
			res.Duration += time.Minute * time.Duration(val)
		case "second":
			res.Duration += time.Second * time.Duration(val)
		case "repetition":
			res.Repetition = val
		}
	}
	return res, nil
}

// ParseDuration returns a time.Duration from either:
// - time.Duration string format ("1m30s")
// - ISO8601 duration format without years, months or repetitions ("PT1M30S")
// - an integer number of milliseconds ("90000")
func ParseDuration(from string) (time.Duration, error) {
	from = strings.TrimSpace(from)
	if from == "" {
		return 0, errors.New("empty duration")
	}

	if d, err := time.ParseDuration(from); err == nil {
		return d, nil
	}

	if ms, err := strconv.ParseInt(from, 10, 64); err == nil {
		return FromMilliseconds(ms), nil
	}

	iso, err := ParseISO8601Duration(from)
	if err != nil {
		return 0, fmt.Errorf("unsupported duration format %q", from)
	}
	if iso.Years != 0 || iso.Months != 0 {
		return 0, fmt.Errorf("duration %q has calendar components and no fixed length", from)
	}
	if iso.Repetition != -1 {
		return 0, errors.New("repetitions are not allowed")
	}
	return time.Duration(iso.Days)*24*time.Hour + iso.Duration, nil
}

// Milliseconds returns d as a whole number of milliseconds.
func Milliseconds(d time.Duration) int64 {
	return d.Milliseconds()
}

// FromMilliseconds is the inverse of Milliseconds.
func FromMilliseconds(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

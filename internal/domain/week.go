// Package domain contains the core business entities and interfaces.
package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// WeekKey is the composite identity of a training week.
type WeekKey struct {
	Year int `json:"isoYear"`
	Week int `json:"isoWeek"`
}

// String serializes the key in the "{isoYear}-W{isoWeek}" form used by both
// backends.
func (k WeekKey) String() string {
	return fmt.Sprintf("%d-W%d", k.Year, k.Week)
}

// Validate checks the key against the supported ISO range.
func (k WeekKey) Validate() error {
	if k.Year < 2000 {
		return fmt.Errorf("isoYear %d out of range (>= 2000)", k.Year)
	}
	if k.Week < 1 || k.Week > 53 {
		return fmt.Errorf("isoWeek %d out of range [1,53]", k.Week)
	}
	return nil
}

// ParseWeekKey parses a "{isoYear}-W{isoWeek}" string. The whole input must
// match; trailing characters are rejected.
func ParseWeekKey(s string) (WeekKey, error) {
	year, week, ok := strings.Cut(s, "-W")
	if !ok {
		return WeekKey{}, fmt.Errorf("invalid week key %q", s)
	}
	var k WeekKey
	var err error
	if k.Year, err = strconv.Atoi(year); err != nil {
		return WeekKey{}, fmt.Errorf("invalid week key %q", s)
	}
	if k.Week, err = strconv.Atoi(week); err != nil {
		return WeekKey{}, fmt.Errorf("invalid week key %q", s)
	}
	if err := k.Validate(); err != nil {
		return WeekKey{}, err
	}
	return k, nil
}

// Target is the weekly training goal.
type Target struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// DailyLog is a single day's recorded value within a week.
type DailyLog struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// WeekRecord is the persisted unit of training data, keyed by ISO year/week.
// DailyLogs are kept in chronological order with unique dates.
type WeekRecord struct {
	Year         int        `json:"isoYear"`
	Week         int        `json:"isoWeek"`
	Target       Target     `json:"target"`
	DailyLogs    []DailyLog `json:"dailyLogs"`
	LastModified time.Time  `json:"lastModified"`
}

// Key returns the record's composite identity.
func (r WeekRecord) Key() WeekKey {
	return WeekKey{Year: r.Year, Week: r.Week}
}

// Validate rejects records a caller should never hand to the storage layer:
// bad keys, duplicate log dates, negative or NaN values.
func (r WeekRecord) Validate() error {
	if err := r.Key().Validate(); err != nil {
		return err
	}
	if badNumber(r.Target.Value) {
		return errors.New("target value must be a non-negative number")
	}
	seen := make(map[string]bool, len(r.DailyLogs))
	for _, l := range r.DailyLogs {
		if l.Date == "" {
			return errors.New("daily log date must not be empty")
		}
		if seen[l.Date] {
			return fmt.Errorf("duplicate daily log date %q", l.Date)
		}
		seen[l.Date] = true
		if badNumber(l.Value) {
			return fmt.Errorf("daily log value for %s must be a non-negative number", l.Date)
		}
	}
	return nil
}

// Normalize defensively zeroes malformed numeric fields instead of letting
// corruption propagate between backends.
func (r *WeekRecord) Normalize() {
	if badNumber(r.Target.Value) {
		r.Target.Value = 0
	}
	for i := range r.DailyLogs {
		if badNumber(r.DailyLogs[i].Value) {
			r.DailyLogs[i].Value = 0
		}
	}
}

// Equal reports structural equality of the record payloads. DailyLogs are
// compared order-sensitively. LastModified is excluded: a save that only
// refreshes the timestamp is still an unchanged record and must be
// suppressible.
func (r WeekRecord) Equal(other WeekRecord) bool {
	if r.Year != other.Year || r.Week != other.Week {
		return false
	}
	if r.Target != other.Target {
		return false
	}
	if len(r.DailyLogs) != len(other.DailyLogs) {
		return false
	}
	for i := range r.DailyLogs {
		if r.DailyLogs[i] != other.DailyLogs[i] {
			return false
		}
	}
	return true
}

func badNumber(v float64) bool {
	return v < 0 || math.IsNaN(v)
}

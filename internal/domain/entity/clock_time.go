package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const secondsPerDay = 24 * 60 * 60

var ErrInvalidClockTime = errors.New("invalid time of day, use HH:MM")

// ClockTime is a wall-clock time of day with second precision, stored as
// seconds since midnight. Valid values lie in [00:00:00, 24:00:00).
type ClockTime int32

// NewClockTime builds a ClockTime from its components.
func NewClockTime(hour, minute, second int) (ClockTime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return 0, ErrInvalidClockTime
	}
	return ClockTime(hour*3600 + minute*60 + second), nil
}

// MustClockTime is NewClockTime for constant inputs.
func MustClockTime(hour, minute int) ClockTime {
	c, err := NewClockTime(hour, minute, 0)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseClockTime accepts "HH:MM" and "HH:MM:SS". A fractional second suffix,
// as returned by postgres for time columns, is ignored.
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}

	layout := "15:04:05"
	if strings.Count(s, ":") == 1 {
		layout = "15:04"
	}

	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, ErrInvalidClockTime
	}
	return NewClockTime(t.Hour(), t.Minute(), t.Second())
}

func (c ClockTime) Hour() int { return int(c) / 3600 }
func (c ClockTime) Minute() int { return int(c) % 3600 / 60 }
func (c ClockTime) Second() int { return int(c) % 60 }

// Add returns c+d. ok is false when the result leaves the day, so callers
// never see a wrapped-around time that looks valid.
func (c ClockTime) Add(d time.Duration) (ClockTime, bool) {
	sum := int64(c) + int64(d/time.Second)
	if sum < 0 || sum >= secondsPerDay {
		return 0, false
	}
	return ClockTime(sum), true
}

func (c ClockTime) String() string {
	if c.Second() != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", c.Hour(), c.Minute(), c.Second())
	}
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidClockTime
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value implements driver.Valuer for postgres time columns.
func (c ClockTime) Value() (driver.Value, error) {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour(), c.Minute(), c.Second()), nil
}

// Scan implements sql.Scanner.
func (c *ClockTime) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*c = 0
		return nil
	case string:
		parsed, err := ParseClockTime(v)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case []byte:
		parsed, err := ParseClockTime(string(v))
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case time.Time:
		*c = ClockTime(v.Hour()*3600 + v.Minute()*60 + v.Second())
		return nil
	case int64:
		// microseconds since midnight
		secs := v / 1_000_000
		if secs < 0 || secs >= secondsPerDay {
			return ErrInvalidClockTime
		}
		*c = ClockTime(secs)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ClockTime", value)
	}
}

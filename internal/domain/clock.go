package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MinuteOfDay is a time of day with minute precision, counted from midnight.
type MinuteOfDay int

const minutesPerDay = 24 * 60

var ErrInvalidClock = errors.New("invalid time of day")

// ParseClock parses "HH:MM" (24-hour). A trailing ":SS" is tolerated and
// discarded, matching the upstream wire format.
func ParseClock(s string) (MinuteOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, ErrInvalidClock
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, ErrInvalidClock
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, ErrInvalidClock
	}
	return MinuteOfDay(hour*60 + minute), nil
}

func (m MinuteOfDay) Valid() bool {
	return m >= 0 && m < minutesPerDay
}

// Hour is the hour the time falls in; minutes past the hour do not shift it.
func (m MinuteOfDay) Hour() int {
	return int(m) / 60
}

func (m MinuteOfDay) Minute() int {
	return int(m) % 60
}

func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", m.Hour(), m.Minute())
}

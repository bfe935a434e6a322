package domain

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Weekday is a teaching day, Monday through Saturday. The institution holds
// no Sunday classes, so Sunday is not a member of the set.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var ErrInvalidWeekday = errors.New("invalid weekday")

var weekdayNames = [...]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
}

func (d Weekday) Valid() bool {
	return d >= Monday && d <= Saturday
}

func (d Weekday) String() string {
	if !d.Valid() {
		return "Weekday(" + strconv.Itoa(int(d)) + ")"
	}
	return weekdayNames[d]
}

// ParseWeekday accepts full English day names, case-insensitively.
func ParseWeekday(s string) (Weekday, error) {
	name := strings.TrimSpace(s)
	for d := Monday; d <= Saturday; d++ {
		if strings.EqualFold(name, weekdayNames[d]) {
			return d, nil
		}
	}
	return 0, ErrInvalidWeekday
}

// WeekdayOf computes the teaching weekday of an absolute date. Sunday dates
// fall outside the teaching week and yield ErrInvalidWeekday.
func WeekdayOf(date time.Time) (Weekday, error) {
	wd := date.Weekday()
	if wd == time.Sunday {
		return 0, ErrInvalidWeekday
	}
	return Weekday(int(wd)), nil
}

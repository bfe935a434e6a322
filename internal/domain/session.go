package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SessionStatus is derived from the clock, never stored.
type SessionStatus string

const (
	SessionUpcoming  SessionStatus = "upcoming"
	SessionLive      SessionStatus = "live"
	SessionCompleted SessionStatus = "completed"
)

// OnlineSession is a single instructor-scheduled live class instance on an
// absolute date. Unlike a RecurringSlot it does not repeat; its weekday is
// always derived from the date when merging into the calendar.
type OnlineSession struct {
	bun.BaseModel `bun:"table:online_sessions"`

	ID              uuid.UUID   `bun:"id,pk,type:uuid"`
	CourseID        uuid.UUID   `bun:"course_id,notnull,type:uuid"`
	InstructorID    string      `bun:"instructor_id,notnull"`
	Title           string      `bun:"title,notnull"`
	Description     string      `bun:"description"`
	Date            time.Time   `bun:"date,notnull,type:date"`
	StartMinutes    MinuteOfDay `bun:"start_minutes,notnull"`
	DurationMinutes int         `bun:"duration_minutes,notnull"`
	MeetingLink     string      `bun:"meeting_link"`
	RecordingURL    string      `bun:"recording_url"`
	ThumbnailURL    string      `bun:"thumbnail_url"`
	CreatedAt       time.Time   `bun:"created_at,notnull"`
	UpdatedAt       time.Time   `bun:"updated_at,notnull"`

	Course *Course `bun:"rel:belongs-to,join:course_id=id"`
}

func (s *OnlineSession) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if s.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			s.ID = id
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		s.UpdatedAt = now
	}
	return nil
}

func (s *OnlineSession) EndMinutes() MinuteOfDay {
	return s.StartMinutes + MinuteOfDay(s.DurationMinutes)
}

// StartsAt anchors the session's date and start time in the given location.
// The system runs in a single institutional timezone, so callers pass the
// configured location (or time.Local).
func (s *OnlineSession) StartsAt(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(),
		s.StartMinutes.Hour(), s.StartMinutes.Minute(), 0, 0, loc)
}

func (s *OnlineSession) EndsAt(loc *time.Location) time.Time {
	return s.StartsAt(loc).Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// Status derives upcoming/live/completed from the current time. A session is
// live from its start up to, but not including, its end.
func (s *OnlineSession) Status(now time.Time) SessionStatus {
	start := s.StartsAt(now.Location())
	if now.Before(start) {
		return SessionUpcoming
	}
	if now.Before(s.EndsAt(now.Location())) {
		return SessionLive
	}
	return SessionCompleted
}

func (s *OnlineSession) Validate() error {
	if s.Date.IsZero() {
		return errors.New("date is required")
	}
	if !s.StartMinutes.Valid() {
		return ErrInvalidClock
	}
	if s.DurationMinutes <= 0 {
		return errors.New("duration must be positive")
	}
	if int(s.StartMinutes)+s.DurationMinutes > minutesPerDay {
		return errors.New("session must not cross midnight")
	}
	return nil
}

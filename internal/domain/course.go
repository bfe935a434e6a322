package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Course struct {
	bun.BaseModel `bun:"table:courses"`

	ID             uuid.UUID `bun:"id,pk,type:uuid"`
	Name           string    `bun:"name,notnull"`
	Code           string    `bun:"code,notnull"`
	InstructorID   string    `bun:"instructor_id,notnull"`
	InstructorName string    `bun:"instructor_name"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
	UpdatedAt      time.Time `bun:"updated_at,notnull"`

	Slots []*RecurringSlot `bun:"rel:has-many,join:id=course_id"`
}

func (c *Course) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if c.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			c.ID = id
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		c.UpdatedAt = now
	}
	return nil
}

// RecurringSlot is a standing weekly meeting time owned by a course. Slots are
// immutable once persisted; editing a course's schedule replaces them
// wholesale.
type RecurringSlot struct {
	bun.BaseModel `bun:"table:course_slots"`

	ID              uuid.UUID   `bun:"id,pk,type:uuid"`
	CourseID        uuid.UUID   `bun:"course_id,notnull,type:uuid"`
	Weekday         Weekday     `bun:"weekday,notnull"`
	StartMinutes    MinuteOfDay `bun:"start_minutes,notnull"`
	DurationMinutes int         `bun:"duration_minutes,notnull"`

	Course *Course `bun:"rel:belongs-to,join:course_id=id"`
}

func (s *RecurringSlot) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && s.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		s.ID = id
	}
	return nil
}

// EndMinutes is the exclusive end of the slot's interval.
func (s *RecurringSlot) EndMinutes() MinuteOfDay {
	return s.StartMinutes + MinuteOfDay(s.DurationMinutes)
}

// Validate enforces the slot invariants: a known weekday, a valid start time,
// a positive duration, and no crossing of midnight.
func (s *RecurringSlot) Validate() error {
	if !s.Weekday.Valid() {
		return ErrInvalidWeekday
	}
	if !s.StartMinutes.Valid() {
		return ErrInvalidClock
	}
	if s.DurationMinutes <= 0 {
		return errors.New("duration must be positive")
	}
	if int(s.StartMinutes)+s.DurationMinutes > minutesPerDay {
		return errors.New("slot must not cross midnight")
	}
	return nil
}

type Enrollment struct {
	bun.BaseModel `bun:"table:enrollments"`

	CourseID  uuid.UUID `bun:"course_id,pk,type:uuid"`
	StudentID string    `bun:"student_id,pk"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (e *Enrollment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return nil
}

package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"classgrid/server/internal/domain"
	"classgrid/server/internal/store"
)

// ValidationError marks malformed caller input: unknown weekdays, unparseable
// times, non-positive durations. It is never silently swallowed.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// UpstreamDataError marks malformed or missing fields in records returned by
// the persistence layer. The whole composition fails rather than rendering a
// partial grid, so a misleading schedule is never presented.
type UpstreamDataError struct {
	msg string
	err error
}

func (e *UpstreamDataError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *UpstreamDataError) Unwrap() error {
	return e.err
}

func upstreamDataError(msg string, err error) error {
	return &UpstreamDataError{msg: msg, err: err}
}

type Service struct {
	repo   store.ScheduleRepository
	window domain.WeekWindow
	loc    *time.Location
	clock  func() time.Time
}

// NewService builds the schedule service over the given repository. The week
// window is the institution's configured teaching-hours grid; loc is the
// single institutional timezone.
func NewService(repo store.ScheduleRepository, window domain.WeekWindow, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		repo:   repo,
		window: window,
		loc:    loc,
		clock:  time.Now,
	}
}

func (s *Service) Window() domain.WeekWindow {
	return s.window
}

func (s *Service) Location() *time.Location {
	return s.loc
}

// Now returns the service clock reading, in the institutional timezone.
func (s *Service) Now() time.Time {
	return s.clock().In(s.loc)
}

// RegularSchedule lists the courses visible to the user (taught or enrolled),
// each with its recurring weekly slots.
func (s *Service) RegularSchedule(ctx context.Context, userID string) ([]domain.Course, error) {
	if userID == "" {
		return nil, validationError("user_id is required")
	}
	return s.repo.ListCourseSchedules(ctx, userID)
}

// WeekGrid composes the user's template-week calendar: the recurring slots of
// their courses overlaid with online sessions dated within the next seven
// days. Any malformed stored record aborts the whole composition.
func (s *Service) WeekGrid(ctx context.Context, userID string) (domain.WeekGrid, error) {
	if userID == "" {
		return domain.WeekGrid{}, validationError("user_id is required")
	}

	courses, err := s.repo.ListCourseSchedules(ctx, userID)
	if err != nil {
		return domain.WeekGrid{}, err
	}

	from := dateOnly(s.Now())
	to := from.AddDate(0, 0, 6)
	sessions, err := s.repo.ListOnlineSessions(ctx, userID, from, to)
	if err != nil {
		return domain.WeekGrid{}, err
	}

	grid, err := domain.ComposeWeekGrid(s.window, courses, sessions)
	if err != nil {
		return domain.WeekGrid{}, upstreamDataError("schedule data is corrupt", err)
	}
	return grid, nil
}

// OnlineClass pairs a stored session with its derived status.
type OnlineClass struct {
	domain.OnlineSession
	Status domain.SessionStatus
}

// ListOnlineClasses lists the user's online sessions in the given date range.
// Empty bounds default to a window from today to thirty days out.
func (s *Service) ListOnlineClasses(ctx context.Context, userID, fromStr, toStr string) ([]OnlineClass, error) {
	if userID == "" {
		return nil, validationError("user_id is required")
	}

	now := s.Now()
	from := dateOnly(now)
	to := from.AddDate(0, 0, 30)

	var err error
	if fromStr != "" {
		if from, err = s.parseDate(fromStr); err != nil {
			return nil, validationError("from must be a YYYY-MM-DD date")
		}
	}
	if toStr != "" {
		if to, err = s.parseDate(toStr); err != nil {
			return nil, validationError("to must be a YYYY-MM-DD date")
		}
	}
	if to.Before(from) {
		return nil, validationError("to must not be before from")
	}

	sessions, err := s.repo.ListOnlineSessions(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]OnlineClass, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, OnlineClass{OnlineSession: sess, Status: sess.Status(now)})
	}
	return out, nil
}

func (s *Service) parseDate(str string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(str), s.loc)
	if err != nil {
		return time.Time{}, err
	}
	return d, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SlotInput is one authored recurring meeting time, in the wire shape
// {day, time, duration}.
type SlotInput struct {
	Day             string
	Time            string
	DurationMinutes int
}

type CreateCourseInput struct {
	InstructorID   string
	InstructorName string
	Name           string
	Code           string
	Slots          []SlotInput
}

func (s *Service) CreateCourse(ctx context.Context, in CreateCourseInput) (domain.Course, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Course{}, validationError("name is required")
	}
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return domain.Course{}, validationError("code is required")
	}
	if in.InstructorID == "" {
		return domain.Course{}, validationError("instructor_id is required")
	}

	slots, err := s.parseSlots(in.Slots)
	if err != nil {
		return domain.Course{}, err
	}

	course := domain.Course{
		Name:           name,
		Code:           code,
		InstructorID:   in.InstructorID,
		InstructorName: strings.TrimSpace(in.InstructorName),
	}
	return s.repo.CreateCourse(ctx, course, slots)
}

// ReplaceCourseSlots swaps a course's full slot set. Slots are immutable once
// persisted, so edits always arrive as a complete replacement.
func (s *Service) ReplaceCourseSlots(ctx context.Context, instructorID string, courseID uuid.UUID, in []SlotInput) error {
	if instructorID == "" {
		return validationError("instructor_id is required")
	}
	if courseID == uuid.Nil {
		return validationError("course_id is required")
	}
	slots, err := s.parseSlots(in)
	if err != nil {
		return err
	}
	return s.repo.ReplaceCourseSlots(ctx, instructorID, courseID, slots)
}

func (s *Service) DeleteCourse(ctx context.Context, instructorID string, courseID uuid.UUID) error {
	if instructorID == "" {
		return validationError("instructor_id is required")
	}
	if courseID == uuid.Nil {
		return validationError("course_id is required")
	}
	return s.repo.DeleteCourse(ctx, instructorID, courseID)
}

func (s *Service) EnrollStudent(ctx context.Context, courseID uuid.UUID, studentID string) error {
	if courseID == uuid.Nil {
		return validationError("course_id is required")
	}
	if studentID == "" {
		return validationError("student_id is required")
	}
	return s.repo.EnrollStudent(ctx, courseID, studentID)
}

func (s *Service) parseSlots(in []SlotInput) ([]domain.RecurringSlot, error) {
	slots := make([]domain.RecurringSlot, 0, len(in))
	for i, raw := range in {
		weekday, err := domain.ParseWeekday(raw.Day)
		if err != nil {
			return nil, validationError(fmt.Sprintf("schedule[%d]: unknown day %q", i, raw.Day))
		}
		start, err := domain.ParseClock(raw.Time)
		if err != nil {
			return nil, validationError(fmt.Sprintf("schedule[%d]: time must be HH:MM", i))
		}
		slot := domain.RecurringSlot{
			Weekday:         weekday,
			StartMinutes:    start,
			DurationMinutes: raw.DurationMinutes,
		}
		if err := slot.Validate(); err != nil {
			return nil, validationError(fmt.Sprintf("schedule[%d]: %v", i, err))
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"classgrid/server/internal/domain"
)

// ScheduleRepository is the persistence collaborator the schedule engine
// composes over. Reads return records scoped to the viewer (courses they
// teach or are enrolled in); instructor writes run inside an
// instructor-scoped transaction via InInstructorTransaction.
type ScheduleRepository interface {
	CreateCourse(ctx context.Context, course domain.Course, slots []domain.RecurringSlot) (domain.Course, error)
	ReplaceCourseSlots(ctx context.Context, instructorID string, courseID uuid.UUID, slots []domain.RecurringSlot) error
	DeleteCourse(ctx context.Context, instructorID string, courseID uuid.UUID) error
	EnrollStudent(ctx context.Context, courseID uuid.UUID, studentID string) error

	ListCourseSchedules(ctx context.Context, userID string) ([]domain.Course, error)
	ListOnlineSessions(ctx context.Context, userID string, from, to time.Time) ([]domain.OnlineSession, error)
	GetOnlineSession(ctx context.Context, sessionID uuid.UUID) (domain.OnlineSession, error)

	InInstructorTransaction(ctx context.Context, instructorID string, fn func(ctx context.Context, tx ScheduleTx) error) error
}

// ScheduleTx exposes the commitment reads and session writes available inside
// an instructor transaction. Conflict checks and the write they guard share
// the same transaction so racing bookings serialize on the instructor lock.
type ScheduleTx interface {
	ListInstructorSlots(ctx context.Context, instructorID string, weekday domain.Weekday) ([]domain.RecurringSlot, error)
	ListInstructorSessionsOn(ctx context.Context, instructorID string, date time.Time) ([]domain.OnlineSession, error)

	CreateOnlineSession(ctx context.Context, sess domain.OnlineSession) (domain.OnlineSession, error)
	RescheduleOnlineSession(ctx context.Context, instructorID string, sessionID uuid.UUID, date time.Time, start domain.MinuteOfDay, durationMinutes int) error
	AttachRecording(ctx context.Context, instructorID string, sessionID uuid.UUID, recordingURL, thumbnailURL string) error
	DeleteOnlineSession(ctx context.Context, instructorID string, sessionID uuid.UUID) error

	CreateCourse(ctx context.Context, course domain.Course, slots []domain.RecurringSlot) (domain.Course, error)
	ReplaceCourseSlots(ctx context.Context, instructorID string, courseID uuid.UUID, slots []domain.RecurringSlot) error
	DeleteCourse(ctx context.Context, instructorID string, courseID uuid.UUID) error
}

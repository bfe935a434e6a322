package schedule

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"classgrid/server/internal/domain"
	"classgrid/server/internal/store"
)

// OnlineClassInput is an instructor's proposed booking: a single dated session
// for one of their courses.
type OnlineClassInput struct {
	InstructorID    string
	CourseID        uuid.UUID
	Title           string
	Description     string
	Date            string
	StartTime       string
	DurationMinutes int
	MeetingLink     string
}

type RescheduleInput struct {
	InstructorID    string
	SessionID       uuid.UUID
	Date            string
	StartTime       string
	DurationMinutes int
}

type AttachRecordingInput struct {
	InstructorID string
	SessionID    uuid.UUID
	RecordingURL string
	ThumbnailURL string
}

func (s *Service) validateProposal(instructorID string, courseID uuid.UUID, dateStr, timeStr string, durationMinutes int) (time.Time, domain.MinuteOfDay, error) {
	if instructorID == "" {
		return time.Time{}, 0, validationError("instructor_id is required")
	}
	if courseID == uuid.Nil {
		return time.Time{}, 0, validationError("course_id is required")
	}
	date, err := s.parseDate(dateStr)
	if err != nil {
		return time.Time{}, 0, validationError("scheduled_date must be a YYYY-MM-DD date")
	}
	if _, err := domain.WeekdayOf(date); err != nil {
		return time.Time{}, 0, validationError("classes cannot be scheduled on a Sunday")
	}
	start, err := domain.ParseClock(timeStr)
	if err != nil {
		return time.Time{}, 0, validationError("scheduled_time must be HH:MM")
	}
	if durationMinutes <= 0 {
		return time.Time{}, 0, validationError("duration must be positive")
	}
	if int(start)+durationMinutes > 24*60 {
		return time.Time{}, 0, validationError("class must not cross midnight")
	}
	return date, start, nil
}

// CheckConflict is the advisory pre-check of the booking flow: it reports
// whether the proposal overlaps an existing recurring slot or session without
// writing anything. A clean verdict here is no guarantee against a concurrent
// booking; CreateOnlineClass re-checks inside the instructor transaction.
func (s *Service) CheckConflict(ctx context.Context, in OnlineClassInput) (domain.ConflictVerdict, error) {
	date, start, err := s.validateProposal(in.InstructorID, in.CourseID, in.Date, in.StartTime, in.DurationMinutes)
	if err != nil {
		return domain.ConflictVerdict{}, err
	}

	proposal := domain.ProposedSession{
		InstructorID:    in.InstructorID,
		CourseID:        in.CourseID,
		Date:            date,
		StartMinutes:    start,
		DurationMinutes: in.DurationMinutes,
	}

	var verdict domain.ConflictVerdict
	err = s.repo.InInstructorTransaction(ctx, in.InstructorID, func(ctx context.Context, tx store.ScheduleTx) error {
		v, err := s.detect(ctx, tx, proposal)
		if err != nil {
			return err
		}
		verdict = v
		return nil
	})
	if err != nil {
		return domain.ConflictVerdict{}, err
	}
	return verdict, nil
}

// CreateOnlineClass books a new session. The conflict check and the insert
// share one instructor-locked transaction, and the database exclusion
// constraint backstops anything that still races through.
func (s *Service) CreateOnlineClass(ctx context.Context, in OnlineClassInput) (domain.OnlineSession, domain.ConflictVerdict, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.OnlineSession{}, domain.ConflictVerdict{}, validationError("title is required")
	}
	date, start, err := s.validateProposal(in.InstructorID, in.CourseID, in.Date, in.StartTime, in.DurationMinutes)
	if err != nil {
		return domain.OnlineSession{}, domain.ConflictVerdict{}, err
	}

	proposal := domain.ProposedSession{
		InstructorID:    in.InstructorID,
		CourseID:        in.CourseID,
		Date:            date,
		StartMinutes:    start,
		DurationMinutes: in.DurationMinutes,
	}

	var created domain.OnlineSession
	var verdict domain.ConflictVerdict
	err = s.repo.InInstructorTransaction(ctx, in.InstructorID, func(ctx context.Context, tx store.ScheduleTx) error {
		v, err := s.detect(ctx, tx, proposal)
		if err != nil {
			return err
		}
		if v.Conflict {
			verdict = v
			return nil
		}

		sess, err := tx.CreateOnlineSession(ctx, domain.OnlineSession{
			CourseID:        in.CourseID,
			InstructorID:    in.InstructorID,
			Title:           title,
			Description:     strings.TrimSpace(in.Description),
			Date:            date,
			StartMinutes:    start,
			DurationMinutes: in.DurationMinutes,
			MeetingLink:     strings.TrimSpace(in.MeetingLink),
		})
		if err != nil {
			return err
		}
		created = sess
		return nil
	})
	if err != nil {
		return domain.OnlineSession{}, domain.ConflictVerdict{}, err
	}
	return created, verdict, nil
}

// RescheduleOnlineClass moves an existing session, applying the same conflict
// policy but ignoring overlaps with the session being moved.
func (s *Service) RescheduleOnlineClass(ctx context.Context, in RescheduleInput) (domain.ConflictVerdict, error) {
	if in.SessionID == uuid.Nil {
		return domain.ConflictVerdict{}, validationError("session_id is required")
	}
	if in.InstructorID == "" {
		return domain.ConflictVerdict{}, validationError("instructor_id is required")
	}
	date, err := s.parseDate(in.Date)
	if err != nil {
		return domain.ConflictVerdict{}, validationError("scheduled_date must be a YYYY-MM-DD date")
	}
	if _, err := domain.WeekdayOf(date); err != nil {
		return domain.ConflictVerdict{}, validationError("classes cannot be scheduled on a Sunday")
	}
	start, err := domain.ParseClock(in.StartTime)
	if err != nil {
		return domain.ConflictVerdict{}, validationError("scheduled_time must be HH:MM")
	}
	if in.DurationMinutes <= 0 {
		return domain.ConflictVerdict{}, validationError("duration must be positive")
	}
	if int(start)+in.DurationMinutes > 24*60 {
		return domain.ConflictVerdict{}, validationError("class must not cross midnight")
	}

	proposal := domain.ProposedSession{
		InstructorID:     in.InstructorID,
		ExcludeSessionID: in.SessionID,
		Date:             date,
		StartMinutes:     start,
		DurationMinutes:  in.DurationMinutes,
	}

	var verdict domain.ConflictVerdict
	err = s.repo.InInstructorTransaction(ctx, in.InstructorID, func(ctx context.Context, tx store.ScheduleTx) error {
		v, err := s.detect(ctx, tx, proposal)
		if err != nil {
			return err
		}
		if v.Conflict {
			verdict = v
			return nil
		}
		return tx.RescheduleOnlineSession(ctx, in.InstructorID, in.SessionID, date, start, in.DurationMinutes)
	})
	if err != nil {
		return domain.ConflictVerdict{}, err
	}
	return verdict, nil
}

// AttachRecording stores the recording and thumbnail links after a session has
// taken place.
func (s *Service) AttachRecording(ctx context.Context, in AttachRecordingInput) error {
	if in.SessionID == uuid.Nil {
		return validationError("session_id is required")
	}
	if in.InstructorID == "" {
		return validationError("instructor_id is required")
	}
	recording := strings.TrimSpace(in.RecordingURL)
	if recording == "" {
		return validationError("recording_url is required")
	}
	return s.repo.InInstructorTransaction(ctx, in.InstructorID, func(ctx context.Context, tx store.ScheduleTx) error {
		return tx.AttachRecording(ctx, in.InstructorID, in.SessionID, recording, strings.TrimSpace(in.ThumbnailURL))
	})
}

// DeleteOnlineClass removes a session permanently. There is no soft delete.
func (s *Service) DeleteOnlineClass(ctx context.Context, instructorID string, sessionID uuid.UUID) error {
	if instructorID == "" {
		return validationError("instructor_id is required")
	}
	if sessionID == uuid.Nil {
		return validationError("session_id is required")
	}
	return s.repo.InInstructorTransaction(ctx, instructorID, func(ctx context.Context, tx store.ScheduleTx) error {
		return tx.DeleteOnlineSession(ctx, instructorID, sessionID)
	})
}

func (s *Service) detect(ctx context.Context, tx store.ScheduleTx, p domain.ProposedSession) (domain.ConflictVerdict, error) {
	weekday, err := domain.WeekdayOf(p.Date)
	if err != nil {
		// Sunday proposals are rejected during validation.
		return domain.ConflictVerdict{}, err
	}
	slots, err := tx.ListInstructorSlots(ctx, p.InstructorID, weekday)
	if err != nil {
		return domain.ConflictVerdict{}, err
	}
	sessions, err := tx.ListInstructorSessionsOn(ctx, p.InstructorID, p.Date)
	if err != nil {
		return domain.ConflictVerdict{}, err
	}
	return domain.DetectConflict(p, slots, sessions), nil
}

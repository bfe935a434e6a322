package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"classgrid/server/internal/domain"
	"classgrid/server/internal/store"
)

type ScheduleRepo struct {
	db *bun.DB
}

func NewScheduleRepo(db *bun.DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

type scheduleTx struct {
	tx bun.Tx
}

func (r *ScheduleRepo) CreateCourse(ctx context.Context, course domain.Course, slots []domain.RecurringSlot) (domain.Course, error) {
	var out domain.Course
	err := r.InInstructorTransaction(ctx, course.InstructorID, func(ctx context.Context, tx store.ScheduleTx) error {
		c, err := tx.CreateCourse(ctx, course, slots)
		if err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return domain.Course{}, err
	}
	return out, nil
}

func (r *ScheduleRepo) ReplaceCourseSlots(ctx context.Context, instructorID string, courseID uuid.UUID, slots []domain.RecurringSlot) error {
	return r.InInstructorTransaction(ctx, instructorID, func(ctx context.Context, tx store.ScheduleTx) error {
		return tx.ReplaceCourseSlots(ctx, instructorID, courseID, slots)
	})
}

func (r *ScheduleRepo) DeleteCourse(ctx context.Context, instructorID string, courseID uuid.UUID) error {
	return r.InInstructorTransaction(ctx, instructorID, func(ctx context.Context, tx store.ScheduleTx) error {
		return tx.DeleteCourse(ctx, instructorID, courseID)
	})
}

func (r *ScheduleRepo) EnrollStudent(ctx context.Context, courseID uuid.UUID, studentID string) error {
	e := domain.Enrollment{CourseID: courseID, StudentID: studentID}
	_, err := r.db.NewInsert().
		Model(&e).
		On("CONFLICT (course_id, student_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return store.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *ScheduleRepo) ListCourseSchedules(ctx context.Context, userID string) ([]domain.Course, error) {
	var rows []domain.Course
	err := r.db.NewSelect().
		Model(&rows).
		Relation("Slots", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("weekday ASC, start_minutes ASC")
		}).
		Where("instructor_id = ? OR id IN (SELECT course_id FROM enrollments WHERE student_id = ?)", userID, userID).
		OrderExpr("code ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ScheduleRepo) ListOnlineSessions(ctx context.Context, userID string, from, to time.Time) ([]domain.OnlineSession, error) {
	var rows []domain.OnlineSession
	err := r.db.NewSelect().
		Model(&rows).
		Relation("Course").
		Where("online_session.instructor_id = ? OR online_session.course_id IN (SELECT course_id FROM enrollments WHERE student_id = ?)", userID, userID).
		Where("online_session.date >= ?", from).
		Where("online_session.date <= ?", to).
		OrderExpr("online_session.date ASC, online_session.start_minutes ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ScheduleRepo) GetOnlineSession(ctx context.Context, sessionID uuid.UUID) (domain.OnlineSession, error) {
	var row domain.OnlineSession
	err := r.db.NewSelect().
		Model(&row).
		Relation("Course").
		Where("online_session.id = ?", sessionID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.OnlineSession{}, store.ErrNotFound
		}
		return domain.OnlineSession{}, err
	}
	return row, nil
}

func (r *ScheduleRepo) InInstructorTransaction(ctx context.Context, instructorID string, fn func(ctx context.Context, tx store.ScheduleTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockInstructorCalendar(ctx, tx, instructorID); err != nil {
			return err
		}
		return fn(ctx, scheduleTx{tx: tx})
	})
}

func lockInstructorCalendar(ctx context.Context, tx bun.Tx, instructorID string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", instructorID).Exec(ctx)
	return err
}

func (t scheduleTx) ListInstructorSlots(ctx context.Context, instructorID string, weekday domain.Weekday) ([]domain.RecurringSlot, error) {
	var rows []domain.RecurringSlot
	err := t.tx.NewSelect().
		Model(&rows).
		Relation("Course").
		Join("JOIN courses AS c ON c.id = recurring_slot.course_id").
		Where("c.instructor_id = ?", instructorID).
		Where("recurring_slot.weekday = ?", weekday).
		OrderExpr("recurring_slot.start_minutes ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (t scheduleTx) ListInstructorSessionsOn(ctx context.Context, instructorID string, date time.Time) ([]domain.OnlineSession, error) {
	var rows []domain.OnlineSession
	err := t.tx.NewSelect().
		Model(&rows).
		Where("instructor_id = ?", instructorID).
		Where("date = ?", date).
		OrderExpr("start_minutes ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (t scheduleTx) CreateOnlineSession(ctx context.Context, sess domain.OnlineSession) (domain.OnlineSession, error) {
	m := sess
	m.Course = nil
	_, err := t.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		return domain.OnlineSession{}, mapSessionWriteError(err)
	}
	sess.ID = m.ID
	sess.CreatedAt = m.CreatedAt
	sess.UpdatedAt = m.UpdatedAt
	return sess, nil
}

func (t scheduleTx) RescheduleOnlineSession(ctx context.Context, instructorID string, sessionID uuid.UUID, date time.Time, start domain.MinuteOfDay, durationMinutes int) error {
	res, err := t.tx.NewUpdate().
		Model((*domain.OnlineSession)(nil)).
		Set("date = ?", date).
		Set("start_minutes = ?", start).
		Set("duration_minutes = ?", durationMinutes).
		Set("updated_at = now()").
		Where("id = ?", sessionID).
		Where("instructor_id = ?", instructorID).
		Exec(ctx)
	if err != nil {
		return mapSessionWriteError(err)
	}
	return requireAffected(res)
}

func (t scheduleTx) AttachRecording(ctx context.Context, instructorID string, sessionID uuid.UUID, recordingURL, thumbnailURL string) error {
	res, err := t.tx.NewUpdate().
		Model((*domain.OnlineSession)(nil)).
		Set("recording_url = ?", recordingURL).
		Set("thumbnail_url = ?", thumbnailURL).
		Set("updated_at = now()").
		Where("id = ?", sessionID).
		Where("instructor_id = ?", instructorID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (t scheduleTx) DeleteOnlineSession(ctx context.Context, instructorID string, sessionID uuid.UUID) error {
	res, err := t.tx.NewDelete().
		Model((*domain.OnlineSession)(nil)).
		Where("id = ?", sessionID).
		Where("instructor_id = ?", instructorID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (t scheduleTx) CreateCourse(ctx context.Context, course domain.Course, slots []domain.RecurringSlot) (domain.Course, error) {
	m := course
	m.Slots = nil
	if _, err := t.tx.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Course{}, err
	}
	course.ID = m.ID
	course.CreatedAt = m.CreatedAt
	course.UpdatedAt = m.UpdatedAt

	course.Slots = course.Slots[:0]
	for i := range slots {
		s := slots[i]
		s.CourseID = m.ID
		if _, err := t.tx.NewInsert().Model(&s).Exec(ctx); err != nil {
			return domain.Course{}, err
		}
		course.Slots = append(course.Slots, &s)
	}
	return course, nil
}

func (t scheduleTx) ReplaceCourseSlots(ctx context.Context, instructorID string, courseID uuid.UUID, slots []domain.RecurringSlot) error {
	exists, err := t.tx.NewSelect().
		Model((*domain.Course)(nil)).
		Where("id = ?", courseID).
		Where("instructor_id = ?", instructorID).
		Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}

	if _, err := t.tx.NewDelete().
		Model((*domain.RecurringSlot)(nil)).
		Where("course_id = ?", courseID).
		Exec(ctx); err != nil {
		return err
	}

	for i := range slots {
		s := slots[i]
		s.ID = uuid.Nil
		s.CourseID = courseID
		if _, err := t.tx.NewInsert().Model(&s).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (t scheduleTx) DeleteCourse(ctx context.Context, instructorID string, courseID uuid.UUID) error {
	res, err := t.tx.NewDelete().
		Model((*domain.Course)(nil)).
		Where("id = ?", courseID).
		Where("instructor_id = ?", instructorID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// mapSessionWriteError translates the database backstop into store sentinels:
// the online_sessions_no_overlap exclusion constraint catches bookings that
// raced past the advisory conflict check, and a foreign key failure means the
// course is gone.
func mapSessionWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23P01" && pgErr.ConstraintName == "online_sessions_no_overlap" {
			return store.ErrConflict
		}
		if pgErr.Code == "23503" {
			return store.ErrNotFound
		}
	}
	return err
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

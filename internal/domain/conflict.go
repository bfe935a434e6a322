package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type ConflictReason string

const (
	ReasonNone             ConflictReason = ""
	ReasonRecurringOverlap ConflictReason = "recurring-overlap"
	ReasonSessionOverlap   ConflictReason = "session-overlap"
)

// ConflictVerdict is the structured result of checking a proposed booking
// against existing commitments. It is advice, not an error: the caller decides
// whether to block or warn.
type ConflictVerdict struct {
	Conflict bool
	Reason   ConflictReason
	Slot     *RecurringSlot
	Session  *OnlineSession
}

func NoConflict() ConflictVerdict {
	return ConflictVerdict{}
}

// ProposedSession is a booking under consideration by the conflict detector.
// ExcludeSessionID lets a reschedule skip the session being moved.
type ProposedSession struct {
	InstructorID     string
	CourseID         uuid.UUID
	ExcludeSessionID uuid.UUID
	Date             time.Time
	StartMinutes     MinuteOfDay
	DurationMinutes  int
}

// overlaps is the half-open interval test: exact touching at a boundary, such
// as one class ending at 10:00 and the next starting at 10:00, is not a
// conflict.
func overlaps(aStart, aEnd, bStart, bEnd MinuteOfDay) bool {
	return aStart < bEnd && bStart < aEnd
}

// DetectConflict checks the proposal against the instructor's recurring slots
// on the proposal's weekday and against other sessions on the same date.
// Recurring slots are checked first, matching the composer's cell ordering;
// the first overlap found wins.
//
// Callers pass the instructor's existing commitments; the detector does not
// fetch. It is advisory only: serializing against concurrent bookings is the
// persistence layer's job.
func DetectConflict(p ProposedSession, slots []RecurringSlot, sessions []OnlineSession) ConflictVerdict {
	pStart := p.StartMinutes
	pEnd := p.StartMinutes + MinuteOfDay(p.DurationMinutes)

	weekday, err := WeekdayOf(p.Date)
	if err == nil {
		ordered := make([]RecurringSlot, len(slots))
		copy(ordered, slots)
		sort.SliceStable(ordered, func(i, j int) bool {
			if ordered[i].Weekday != ordered[j].Weekday {
				return ordered[i].Weekday < ordered[j].Weekday
			}
			return ordered[i].StartMinutes < ordered[j].StartMinutes
		})
		for i := range ordered {
			slot := ordered[i]
			if slot.Weekday != weekday {
				continue
			}
			if overlaps(pStart, pEnd, slot.StartMinutes, slot.EndMinutes()) {
				return ConflictVerdict{Conflict: true, Reason: ReasonRecurringOverlap, Slot: &ordered[i]}
			}
		}
	}

	ordered := make([]OnlineSession, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartMinutes < ordered[j].StartMinutes
	})
	proposedDay := p.Date.Format("2006-01-02")
	for i := range ordered {
		sess := ordered[i]
		if sess.ID != uuid.Nil && sess.ID == p.ExcludeSessionID {
			continue
		}
		if sess.Date.Format("2006-01-02") != proposedDay {
			continue
		}
		if overlaps(pStart, pEnd, sess.StartMinutes, sess.EndMinutes()) {
			return ConflictVerdict{Conflict: true, Reason: ReasonSessionOverlap, Session: &ordered[i]}
		}
	}

	return NoConflict()
}

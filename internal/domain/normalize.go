package domain

// EntryKind distinguishes the two schedulable sources when they meet in a
// calendar cell.
type EntryKind string

const (
	KindRecurring EntryKind = "recurring"
	KindOnline    EntryKind = "online"
)

// NormalizedEntry is the common placement form for anything that can occupy a
// calendar cell: a (weekday, hour bucket) key plus display fields and a
// pointer back to the source record.
type NormalizedEntry struct {
	Kind            EntryKind
	Weekday         Weekday
	HourBucket      int
	StartMinutes    MinuteOfDay
	DisplayTime     string
	DurationMinutes int
	Title           string
	CourseCode      string

	Slot    *RecurringSlot
	Session *OnlineSession
}

// NormalizeSlot places a recurring course slot. The weekday is taken directly
// from the slot; the hour bucket is the hour the start time falls in, so a
// 09:30 start buckets at 9.
func NormalizeSlot(course Course, slot RecurringSlot) (NormalizedEntry, error) {
	if err := slot.Validate(); err != nil {
		return NormalizedEntry{}, err
	}
	s := slot
	return NormalizedEntry{
		Kind:            KindRecurring,
		Weekday:         slot.Weekday,
		HourBucket:      slot.StartMinutes.Hour(),
		StartMinutes:    slot.StartMinutes,
		DisplayTime:     slot.StartMinutes.String(),
		DurationMinutes: slot.DurationMinutes,
		Title:           course.Name,
		CourseCode:      course.Code,
		Slot:            &s,
	}, nil
}

// NormalizeSession places a dated online session. The weekday must be derived
// from the absolute date, never assumed from the stored record.
func NormalizeSession(sess OnlineSession) (NormalizedEntry, error) {
	if err := sess.Validate(); err != nil {
		return NormalizedEntry{}, err
	}
	weekday, err := WeekdayOf(sess.Date)
	if err != nil {
		return NormalizedEntry{}, err
	}

	title := sess.Title
	code := ""
	if sess.Course != nil {
		code = sess.Course.Code
		if title == "" {
			title = sess.Course.Name
		}
	}

	s := sess
	return NormalizedEntry{
		Kind:            KindOnline,
		Weekday:         weekday,
		HourBucket:      sess.StartMinutes.Hour(),
		StartMinutes:    sess.StartMinutes,
		DisplayTime:     sess.StartMinutes.String(),
		DurationMinutes: sess.DurationMinutes,
		Title:           title,
		CourseCode:      code,
		Session:         &s,
	}, nil
}

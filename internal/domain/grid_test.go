package domain

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

func mustClock(t *testing.T, s string) MinuteOfDay {
	t.Helper()
	m, err := ParseClock(s)
	if err != nil {
		t.Fatalf("ParseClock(%q): %v", s, err)
	}
	return m
}

func testCourse(t *testing.T, name, code string, slots ...RecurringSlot) Course {
	t.Helper()
	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("uuid: %v", err)
	}
	c := Course{ID: id, Name: name, Code: code, InstructorID: "t1"}
	for i := range slots {
		s := slots[i]
		s.CourseID = id
		c.Slots = append(c.Slots, &s)
	}
	return c
}

func TestComposeWeekGrid_BucketBoundary(t *testing.T) {
	course := testCourse(t, "Algebra", "MATH101", RecurringSlot{
		Weekday:         Monday,
		StartMinutes:    mustClock(t, "09:30"),
		DurationMinutes: 60,
	})

	grid, err := ComposeWeekGrid(DefaultWeekWindow(), []Course{course}, nil)
	if err != nil {
		t.Fatalf("ComposeWeekGrid error: %v", err)
	}

	if got := grid.Cell(Monday, 9); len(got) != 1 {
		t.Fatalf("cell (Monday, 9) entries = %d, want 1", len(got))
	}
	if got := grid.Cell(Monday, 10); len(got) != 0 {
		t.Fatalf("cell (Monday, 10) entries = %d, want 0", len(got))
	}
}

func TestComposeWeekGrid_SingleBucketForLongSessions(t *testing.T) {
	// Starts 09:45, runs 90 minutes into the 10 and 11 buckets; stays at 9.
	sess := OnlineSession{
		CourseID:        uuid.New(),
		InstructorID:    "t1",
		Title:           "Live revision",
		Date:            time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), // Monday
		StartMinutes:    mustClock(t, "09:45"),
		DurationMinutes: 90,
	}

	grid, err := ComposeWeekGrid(DefaultWeekWindow(), nil, []OnlineSession{sess})
	if err != nil {
		t.Fatalf("ComposeWeekGrid error: %v", err)
	}
	if got := grid.Cell(Monday, 9); len(got) != 1 {
		t.Fatalf("cell (Monday, 9) entries = %d, want 1", len(got))
	}
	for h := 10; h <= 11; h++ {
		if got := grid.Cell(Monday, h); len(got) != 0 {
			t.Fatalf("cell (Monday, %d) entries = %d, want 0", h, len(got))
		}
	}
}

func TestComposeWeekGrid_CellStackingRecurringFirst(t *testing.T) {
	course := testCourse(t, "Physics", "PHY201", RecurringSlot{
		Weekday:         Tuesday,
		StartMinutes:    mustClock(t, "14:30"),
		DurationMinutes: 60,
	})
	sess := OnlineSession{
		CourseID:        course.ID,
		InstructorID:    "t1",
		Title:           "Doubt clearing",
		Date:            time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), // Tuesday
		StartMinutes:    mustClock(t, "14:00"),
		DurationMinutes: 30,
	}

	grid, err := ComposeWeekGrid(DefaultWeekWindow(), []Course{course}, []OnlineSession{sess})
	if err != nil {
		t.Fatalf("ComposeWeekGrid error: %v", err)
	}

	entries := grid.Cell(Tuesday, 14)
	if len(entries) != 2 {
		t.Fatalf("cell (Tuesday, 14) entries = %d, want 2", len(entries))
	}
	// Recurring sorts first even though the online session starts earlier.
	if entries[0].Kind != KindRecurring || entries[1].Kind != KindOnline {
		t.Fatalf("order = %s, %s; want recurring, online", entries[0].Kind, entries[1].Kind)
	}
}

func TestComposeWeekGrid_OutOfRangeExcludedSilently(t *testing.T) {
	course := testCourse(t, "Evening club", "CLB001", RecurringSlot{
		Weekday:         Friday,
		StartMinutes:    mustClock(t, "18:00"),
		DurationMinutes: 60,
	})

	grid, err := ComposeWeekGrid(DefaultWeekWindow(), []Course{course}, nil)
	if err != nil {
		t.Fatalf("ComposeWeekGrid error: %v", err)
	}
	for _, col := range grid.Days {
		for _, cell := range col.Cells {
			if len(cell.Entries) != 0 {
				t.Fatalf("unexpected entry at (%v, %d)", col.Weekday, cell.Hour)
			}
		}
	}
}

func TestComposeWeekGrid_SundaySessionExcluded(t *testing.T) {
	sess := OnlineSession{
		CourseID:        uuid.New(),
		InstructorID:    "t1",
		Title:           "Weekend special",
		Date:            time.Date(2024, 4, 7, 0, 0, 0, 0, time.UTC), // Sunday
		StartMinutes:    mustClock(t, "10:00"),
		DurationMinutes: 60,
	}

	grid, err := ComposeWeekGrid(DefaultWeekWindow(), nil, []OnlineSession{sess})
	if err != nil {
		t.Fatalf("ComposeWeekGrid error: %v", err)
	}
	for _, col := range grid.Days {
		for _, cell := range col.Cells {
			if len(cell.Entries) != 0 {
				t.Fatalf("unexpected entry at (%v, %d)", col.Weekday, cell.Hour)
			}
		}
	}
}

func TestComposeWeekGrid_MalformedSlotFailsComposition(t *testing.T) {
	course := testCourse(t, "Broken", "BRK000", RecurringSlot{
		Weekday:         Monday,
		StartMinutes:    mustClock(t, "10:00"),
		DurationMinutes: -30,
	})

	if _, err := ComposeWeekGrid(DefaultWeekWindow(), []Course{course}, nil); err == nil {
		t.Fatalf("expected error for malformed slot")
	}
}

func TestComposeWeekGrid_Deterministic(t *testing.T) {
	course := testCourse(t, "Chemistry", "CHE110",
		RecurringSlot{Weekday: Monday, StartMinutes: mustClock(t, "09:00"), DurationMinutes: 60},
		RecurringSlot{Weekday: Wednesday, StartMinutes: mustClock(t, "11:15"), DurationMinutes: 90},
	)
	sessions := []OnlineSession{
		{
			CourseID:        course.ID,
			InstructorID:    "t1",
			Title:           "Lab briefing",
			Date:            time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC),
			StartMinutes:    mustClock(t, "11:45"),
			DurationMinutes: 30,
		},
	}

	first, err := ComposeWeekGrid(DefaultWeekWindow(), []Course{course}, sessions)
	if err != nil {
		t.Fatalf("ComposeWeekGrid error: %v", err)
	}
	second, err := ComposeWeekGrid(DefaultWeekWindow(), []Course{course}, sessions)
	if err != nil {
		t.Fatalf("ComposeWeekGrid error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("grids differ between identical compositions")
	}
}

func TestComposeWeekGrid_EmptyCellsPresent(t *testing.T) {
	grid, err := ComposeWeekGrid(DefaultWeekWindow(), nil, nil)
	if err != nil {
		t.Fatalf("ComposeWeekGrid error: %v", err)
	}
	if len(grid.Days) != 6 {
		t.Fatalf("days = %d, want 6", len(grid.Days))
	}
	for _, col := range grid.Days {
		if len(col.Cells) != 9 {
			t.Fatalf("%v cells = %d, want 9", col.Weekday, len(col.Cells))
		}
		for _, cell := range col.Cells {
			if cell.Entries == nil {
				t.Fatalf("cell (%v, %d) entries is nil, want empty list", col.Weekday, cell.Hour)
			}
		}
	}
}

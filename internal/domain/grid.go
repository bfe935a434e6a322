package domain

import (
	"errors"
	"sort"
)

// WeekWindow is the institution's teaching-hours window: which weekdays the
// grid shows and the inclusive range of hour buckets. It is configuration,
// not a constant, so a deployment can widen or shrink the teaching day.
type WeekWindow struct {
	Days      []Weekday
	StartHour int
	EndHour   int
}

// DefaultWeekWindow is Monday through Saturday, 09:00-17:00 inclusive
// (nine hour buckets).
func DefaultWeekWindow() WeekWindow {
	return WeekWindow{
		Days:      []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday},
		StartHour: 9,
		EndHour:   17,
	}
}

func (w WeekWindow) Validate() error {
	if len(w.Days) == 0 {
		return errors.New("week window needs at least one day")
	}
	seen := make(map[Weekday]struct{}, len(w.Days))
	for _, d := range w.Days {
		if !d.Valid() {
			return ErrInvalidWeekday
		}
		if _, ok := seen[d]; ok {
			return errors.New("duplicate weekday in week window")
		}
		seen[d] = struct{}{}
	}
	if w.StartHour < 0 || w.EndHour > 23 || w.StartHour > w.EndHour {
		return errors.New("invalid hour range")
	}
	return nil
}

func (w WeekWindow) containsDay(d Weekday) bool {
	for _, day := range w.Days {
		if day == d {
			return true
		}
	}
	return false
}

func (w WeekWindow) containsHour(h int) bool {
	return h >= w.StartHour && h <= w.EndHour
}

// Cell is one (weekday, hour bucket) coordinate of the grid. Multiple entries
// per cell are expected when a recurring class and an online session coincide;
// both are retained.
type Cell struct {
	Hour    int
	Entries []NormalizedEntry
}

// DayColumn holds one weekday's cells, ordered by hour bucket.
type DayColumn struct {
	Weekday Weekday
	Cells   []Cell
}

// WeekGrid is a template week: a generic Monday-Saturday grid not tied to a
// specific calendar week. Online sessions land in the weekday bucket their
// date falls on, regardless of which week that date is in.
type WeekGrid struct {
	Window WeekWindow
	Days   []DayColumn
}

// Cell returns the entries at (weekday, hour), or nil when the coordinate is
// outside the window.
func (g WeekGrid) Cell(d Weekday, hour int) []NormalizedEntry {
	for _, col := range g.Days {
		if col.Weekday != d {
			continue
		}
		for _, c := range col.Cells {
			if c.Hour == hour {
				return c.Entries
			}
		}
	}
	return nil
}

// ComposeWeekGrid builds the weekly grid from recurring course slots and dated
// online sessions. Composition is pure and deterministic: the same inputs
// always produce an identical grid.
//
// Items that are valid but fall outside the window (a weekday the grid does
// not show, or an hour bucket outside the teaching day) are excluded without
// error. Malformed items abort the whole composition so a corrupt grid is
// never returned.
//
// A session that starts in one bucket and runs past the next hour still
// occupies only its starting bucket; the entry carries its duration for
// renderers that want to extend it.
func ComposeWeekGrid(window WeekWindow, courses []Course, sessions []OnlineSession) (WeekGrid, error) {
	if err := window.Validate(); err != nil {
		return WeekGrid{}, err
	}

	days := make([]Weekday, len(window.Days))
	copy(days, window.Days)
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	grid := WeekGrid{Window: window, Days: make([]DayColumn, 0, len(days))}
	index := make(map[Weekday]int, len(days))
	for _, d := range days {
		cells := make([]Cell, 0, window.EndHour-window.StartHour+1)
		for h := window.StartHour; h <= window.EndHour; h++ {
			cells = append(cells, Cell{Hour: h, Entries: []NormalizedEntry{}})
		}
		index[d] = len(grid.Days)
		grid.Days = append(grid.Days, DayColumn{Weekday: d, Cells: cells})
	}

	place := func(e NormalizedEntry) {
		di, ok := index[e.Weekday]
		if !ok || !window.containsHour(e.HourBucket) {
			return
		}
		ci := e.HourBucket - window.StartHour
		cell := &grid.Days[di].Cells[ci]
		cell.Entries = append(cell.Entries, e)
	}

	for _, course := range courses {
		for _, slot := range course.Slots {
			if slot == nil {
				continue
			}
			entry, err := NormalizeSlot(course, *slot)
			if err != nil {
				return WeekGrid{}, err
			}
			place(entry)
		}
	}

	for _, sess := range sessions {
		entry, err := NormalizeSession(sess)
		if err != nil {
			// A Sunday-dated session is outside the teaching week, not
			// corrupt data; it is excluded like any other out-of-window item.
			if errors.Is(err, ErrInvalidWeekday) {
				continue
			}
			return WeekGrid{}, err
		}
		place(entry)
	}

	for di := range grid.Days {
		for ci := range grid.Days[di].Cells {
			entries := grid.Days[di].Cells[ci].Entries
			sort.SliceStable(entries, func(i, j int) bool {
				if entries[i].Kind != entries[j].Kind {
					return entries[i].Kind == KindRecurring
				}
				return entries[i].StartMinutes < entries[j].StartMinutes
			})
		}
	}

	return grid, nil
}

// Package view renders the composed week grid into the shape the dashboard
// consumes: one row per hour bucket, one column per weekday, stacked entries
// per cell with type-specific affordances.
package view

import (
	"fmt"
	"time"

	"classgrid/server/internal/domain"
)

type Entry struct {
	Kind            string `json:"kind"`
	Title           string `json:"title"`
	CourseCode      string `json:"course_code,omitempty"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration"`
	Status          string `json:"status,omitempty"`
	JoinURL         string `json:"join_url,omitempty"`
	RecordingURL    string `json:"recording_url,omitempty"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
}

type RowCell struct {
	Day     string  `json:"day"`
	Entries []Entry `json:"entries"`
}

type Row struct {
	Hour  int       `json:"hour"`
	Label string    `json:"label"`
	Cells []RowCell `json:"cells"`
}

type Week struct {
	Days []string `json:"days"`
	Rows []Row    `json:"rows"`
}

// Render projects the grid row-by-row. Online entries get a join link while
// upcoming or live, and recording links once completed; recurring entries are
// plain. now decides which affordance applies.
func Render(grid domain.WeekGrid, now time.Time) Week {
	week := Week{
		Days: make([]string, 0, len(grid.Days)),
		Rows: make([]Row, 0, grid.Window.EndHour-grid.Window.StartHour+1),
	}
	for _, col := range grid.Days {
		week.Days = append(week.Days, col.Weekday.String())
	}

	for hour := grid.Window.StartHour; hour <= grid.Window.EndHour; hour++ {
		row := Row{
			Hour:  hour,
			Label: fmt.Sprintf("%02d:00", hour),
			Cells: make([]RowCell, 0, len(grid.Days)),
		}
		for _, col := range grid.Days {
			cell := RowCell{Day: col.Weekday.String(), Entries: []Entry{}}
			for _, e := range grid.Cell(col.Weekday, hour) {
				cell.Entries = append(cell.Entries, renderEntry(e, now))
			}
			row.Cells = append(row.Cells, cell)
		}
		week.Rows = append(week.Rows, row)
	}
	return week
}

func renderEntry(e domain.NormalizedEntry, now time.Time) Entry {
	out := Entry{
		Kind:            string(e.Kind),
		Title:           e.Title,
		CourseCode:      e.CourseCode,
		Time:            e.DisplayTime,
		DurationMinutes: e.DurationMinutes,
	}
	if e.Kind != domain.KindOnline || e.Session == nil {
		return out
	}

	status := e.Session.Status(now)
	out.Status = string(status)
	switch status {
	case domain.SessionUpcoming, domain.SessionLive:
		out.JoinURL = e.Session.MeetingLink
	case domain.SessionCompleted:
		out.RecordingURL = e.Session.RecordingURL
		out.ThumbnailURL = e.Session.ThumbnailURL
	}
	return out
}

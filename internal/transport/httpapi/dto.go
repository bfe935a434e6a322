package httpapi

import (
	"classgrid/server/internal/domain"
	"classgrid/server/internal/service/schedule"
)

type slotDTO struct {
	Day      string `json:"day" validate:"required"`
	Time     string `json:"time" validate:"required"`
	Duration int    `json:"duration" validate:"required,min=1"`
}

type courseDTO struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Code       string    `json:"code"`
	Instructor string    `json:"instructor"`
	Schedule   []slotDTO `json:"schedule"`
}

type onlineClassDTO struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	CourseName   string `json:"course_name"`
	CourseCode   string `json:"course_code"`
	Instructor   string `json:"instructor"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Duration     int    `json:"duration"`
	MeetingLink  string `json:"meeting_link,omitempty"`
	RecordingURL string `json:"recording_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Status       string `json:"status"`
}

type createCourseRequest struct {
	Name           string    `json:"name" validate:"required"`
	Code           string    `json:"code" validate:"required"`
	InstructorName string    `json:"instructor_name"`
	Schedule       []slotDTO `json:"schedule" validate:"dive"`
}

type replaceSlotsRequest struct {
	Schedule []slotDTO `json:"schedule" validate:"dive"`
}

type enrollRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

type createOnlineClassRequest struct {
	Title         string `json:"title" validate:"required"`
	CourseID      string `json:"course_id" validate:"required,uuid"`
	ScheduledDate string `json:"scheduled_date" validate:"required"`
	ScheduledTime string `json:"scheduled_time" validate:"required"`
	Duration      int    `json:"duration" validate:"required,min=1"`
	MeetingLink   string `json:"meeting_link" validate:"omitempty,url"`
	Description   string `json:"description"`
}

type rescheduleRequest struct {
	ScheduledDate string `json:"scheduled_date" validate:"required"`
	ScheduledTime string `json:"scheduled_time" validate:"required"`
	Duration      int    `json:"duration" validate:"required,min=1"`
}

type attachRecordingRequest struct {
	RecordingURL string `json:"recording_url" validate:"required,url"`
	ThumbnailURL string `json:"thumbnail_url" validate:"omitempty,url"`
}

type conflictingEntryDTO struct {
	Kind  string `json:"kind"`
	Day   string `json:"day,omitempty"`
	Date  string `json:"date,omitempty"`
	Time  string `json:"time"`
	Title string `json:"title,omitempty"`
}

type verdictDTO struct {
	Conflict        bool                 `json:"conflict"`
	Reason          string               `json:"reason,omitempty"`
	ConflictingWith *conflictingEntryDTO `json:"conflicting_with,omitempty"`
}

func toCourseDTO(c domain.Course) courseDTO {
	out := courseDTO{
		ID:         c.ID.String(),
		Name:       c.Name,
		Code:       c.Code,
		Instructor: c.InstructorName,
		Schedule:   make([]slotDTO, 0, len(c.Slots)),
	}
	for _, s := range c.Slots {
		if s == nil {
			continue
		}
		out.Schedule = append(out.Schedule, slotDTO{
			Day:      s.Weekday.String(),
			Time:     s.StartMinutes.String(),
			Duration: s.DurationMinutes,
		})
	}
	return out
}

func toOnlineClassDTO(c schedule.OnlineClass) onlineClassDTO {
	out := onlineClassDTO{
		ID:           c.ID.String(),
		Title:        c.Title,
		Date:         c.Date.Format("2006-01-02"),
		Time:         c.StartMinutes.String(),
		Duration:     c.DurationMinutes,
		MeetingLink:  c.MeetingLink,
		RecordingURL: c.RecordingURL,
		ThumbnailURL: c.ThumbnailURL,
		Status:       string(c.Status),
	}
	if c.Course != nil {
		out.CourseName = c.Course.Name
		out.CourseCode = c.Course.Code
		out.Instructor = c.Course.InstructorName
	}
	return out
}

func toVerdictDTO(v domain.ConflictVerdict) verdictDTO {
	out := verdictDTO{Conflict: v.Conflict, Reason: string(v.Reason)}
	switch {
	case v.Slot != nil:
		entry := conflictingEntryDTO{
			Kind: string(domain.KindRecurring),
			Day:  v.Slot.Weekday.String(),
			Time: v.Slot.StartMinutes.String(),
		}
		if v.Slot.Course != nil {
			entry.Title = v.Slot.Course.Name
		}
		out.ConflictingWith = &entry
	case v.Session != nil:
		out.ConflictingWith = &conflictingEntryDTO{
			Kind:  string(domain.KindOnline),
			Date:  v.Session.Date.Format("2006-01-02"),
			Time:  v.Session.StartMinutes.String(),
			Title: v.Session.Title,
		}
	}
	return out
}

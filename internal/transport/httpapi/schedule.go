package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"classgrid/server/internal/domain"
	"classgrid/server/internal/service/schedule"
	"classgrid/server/internal/store"
	"classgrid/server/internal/view"
)

// userHeader carries the authenticated caller's id. Authentication itself is
// an upstream collaborator; by the time a request reaches this service the
// gateway has already resolved the user.
const userHeader = "X-User-Id"

type scheduleService interface {
	RegularSchedule(ctx context.Context, userID string) ([]domain.Course, error)
	WeekGrid(ctx context.Context, userID string) (domain.WeekGrid, error)
	ListOnlineClasses(ctx context.Context, userID, from, to string) ([]schedule.OnlineClass, error)

	CheckConflict(ctx context.Context, in schedule.OnlineClassInput) (domain.ConflictVerdict, error)
	CreateOnlineClass(ctx context.Context, in schedule.OnlineClassInput) (domain.OnlineSession, domain.ConflictVerdict, error)
	RescheduleOnlineClass(ctx context.Context, in schedule.RescheduleInput) (domain.ConflictVerdict, error)
	AttachRecording(ctx context.Context, in schedule.AttachRecordingInput) error
	DeleteOnlineClass(ctx context.Context, instructorID string, sessionID uuid.UUID) error

	CreateCourse(ctx context.Context, in schedule.CreateCourseInput) (domain.Course, error)
	ReplaceCourseSlots(ctx context.Context, instructorID string, courseID uuid.UUID, slots []schedule.SlotInput) error
	DeleteCourse(ctx context.Context, instructorID string, courseID uuid.UUID) error
	EnrollStudent(ctx context.Context, courseID uuid.UUID, studentID string) error

	Now() time.Time
}

type scheduleAPI struct {
	svc scheduleService
	log *slog.Logger
}

func RegisterScheduleAPI(g *echo.Group, svc scheduleService, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	api := scheduleAPI{
		svc: svc,
		log: log.With(slog.String("component", "httpapi.schedule")),
	}

	g.GET("/schedule/regular", api.regularSchedule)
	g.GET("/schedule/week", api.weekView)

	g.GET("/online-classes", api.listOnlineClasses)
	g.POST("/online-classes", api.createOnlineClass)
	g.POST("/online-classes/check", api.checkConflict)
	g.PUT("/online-classes/:id/schedule", api.rescheduleOnlineClass)
	g.PUT("/online-classes/:id/recording", api.attachRecording)
	g.DELETE("/online-classes/:id", api.deleteOnlineClass)

	g.POST("/courses", api.createCourse)
	g.PUT("/courses/:id/slots", api.replaceCourseSlots)
	g.DELETE("/courses/:id", api.deleteCourse)
	g.POST("/courses/:id/enroll", api.enroll)
}

func (api *scheduleAPI) regularSchedule(c echo.Context) error {
	userID := c.QueryParam("user_id")
	courses, err := api.svc.RegularSchedule(c.Request().Context(), userID)
	if err != nil {
		return api.fail(c, "regular schedule failed", err, slog.String("user_id", userID))
	}

	out := make([]courseDTO, 0, len(courses))
	for _, course := range courses {
		out = append(out, toCourseDTO(course))
	}
	return c.JSON(http.StatusOK, out)
}

func (api *scheduleAPI) weekView(c echo.Context) error {
	userID := c.QueryParam("user_id")
	grid, err := api.svc.WeekGrid(c.Request().Context(), userID)
	if err != nil {
		return api.fail(c, "week grid failed", err, slog.String("user_id", userID))
	}
	return c.JSON(http.StatusOK, view.Render(grid, api.svc.Now()))
}

func (api *scheduleAPI) listOnlineClasses(c echo.Context) error {
	userID := c.QueryParam("user_id")
	classes, err := api.svc.ListOnlineClasses(c.Request().Context(), userID, c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return api.fail(c, "online classes list failed", err, slog.String("user_id", userID))
	}

	out := make([]onlineClassDTO, 0, len(classes))
	for _, class := range classes {
		out = append(out, toOnlineClassDTO(class))
	}
	return c.JSON(http.StatusOK, out)
}

func (api *scheduleAPI) createOnlineClass(c echo.Context) error {
	instructorID := c.Request().Header.Get(userHeader)

	req := new(createOnlineClassRequest)
	if err := c.Bind(req); err != nil {
		return err
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	sess, verdict, err := api.svc.CreateOnlineClass(c.Request().Context(), schedule.OnlineClassInput{
		InstructorID:    instructorID,
		CourseID:        parseUUID(req.CourseID),
		Title:           req.Title,
		Description:     req.Description,
		Date:            req.ScheduledDate,
		StartTime:       req.ScheduledTime,
		DurationMinutes: req.Duration,
		MeetingLink:     req.MeetingLink,
	})
	if err != nil {
		return api.fail(c, "online class create failed", err, slog.String("instructor_id", instructorID))
	}
	if verdict.Conflict {
		api.log.Info("online class booking conflict",
			slog.String("instructor_id", instructorID),
			slog.String("reason", string(verdict.Reason)),
		)
		return c.JSON(http.StatusConflict, echo.Map{
			"success": false,
			"message": "The proposed time overlaps an existing commitment.",
			"verdict": toVerdictDTO(verdict),
		})
	}

	api.log.Info("online class created",
		slog.String("class_id", sess.ID.String()),
		slog.String("instructor_id", instructorID),
		slog.String("date", req.ScheduledDate),
		slog.String("time", req.ScheduledTime),
	)
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "class_id": sess.ID.String()})
}

func (api *scheduleAPI) checkConflict(c echo.Context) error {
	instructorID := c.Request().Header.Get(userHeader)

	req := new(createOnlineClassRequest)
	if err := c.Bind(req); err != nil {
		return err
	}
	// Title is not needed for an advisory check; skip struct validation and
	// let the service validate the scheduling fields.
	verdict, err := api.svc.CheckConflict(c.Request().Context(), schedule.OnlineClassInput{
		InstructorID:    instructorID,
		CourseID:        parseUUID(req.CourseID),
		Date:            req.ScheduledDate,
		StartTime:       req.ScheduledTime,
		DurationMinutes: req.Duration,
	})
	if err != nil {
		return api.fail(c, "conflict check failed", err, slog.String("instructor_id", instructorID))
	}
	return c.JSON(http.StatusOK, toVerdictDTO(verdict))
}

func (api *scheduleAPI) rescheduleOnlineClass(c echo.Context) error {
	instructorID := c.Request().Header.Get(userHeader)
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id must be a UUID")
	}

	req := new(rescheduleRequest)
	if err := c.Bind(req); err != nil {
		return err
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	verdict, err := api.svc.RescheduleOnlineClass(c.Request().Context(), schedule.RescheduleInput{
		InstructorID:    instructorID,
		SessionID:       sessionID,
		Date:            req.ScheduledDate,
		StartTime:       req.ScheduledTime,
		DurationMinutes: req.Duration,
	})
	if err != nil {
		return api.fail(c, "online class reschedule failed", err,
			slog.String("instructor_id", instructorID), slog.String("class_id", sessionID.String()))
	}
	if verdict.Conflict {
		return c.JSON(http.StatusConflict, echo.Map{
			"success": false,
			"message": "The proposed time overlaps an existing commitment.",
			"verdict": toVerdictDTO(verdict),
		})
	}

	api.log.Info("online class rescheduled",
		slog.String("class_id", sessionID.String()),
		slog.String("instructor_id", instructorID),
	)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (api *scheduleAPI) attachRecording(c echo.Context) error {
	instructorID := c.Request().Header.Get(userHeader)
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id must be a UUID")
	}

	req := new(attachRecordingRequest)
	if err := c.Bind(req); err != nil {
		return err
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	err = api.svc.AttachRecording(c.Request().Context(), schedule.AttachRecordingInput{
		InstructorID: instructorID,
		SessionID:    sessionID,
		RecordingURL: req.RecordingURL,
		ThumbnailURL: req.ThumbnailURL,
	})
	if err != nil {
		return api.fail(c, "recording attach failed", err,
			slog.String("instructor_id", instructorID), slog.String("class_id", sessionID.String()))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (api *scheduleAPI) deleteOnlineClass(c echo.Context) error {
	instructorID := c.Request().Header.Get(userHeader)
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id must be a UUID")
	}

	if err := api.svc.DeleteOnlineClass(c.Request().Context(), instructorID, sessionID); err != nil {
		return api.fail(c, "online class delete failed", err,
			slog.String("instructor_id", instructorID), slog.String("class_id", sessionID.String()))
	}

	api.log.Info("online class deleted",
		slog.String("class_id", sessionID.String()),
		slog.String("instructor_id", instructorID),
	)
	return c.NoContent(http.StatusNoContent)
}

func (api *scheduleAPI) createCourse(c echo.Context) error {
	instructorID := c.Request().Header.Get(userHeader)

	req := new(createCourseRequest)
	if err := c.Bind(req); err != nil {
		return err
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	course, err := api.svc.CreateCourse(c.Request().Context(), schedule.CreateCourseInput{
		InstructorID:   instructorID,
		InstructorName: req.InstructorName,
		Name:           req.Name,
		Code:           req.Code,
		Slots:          toSlotInputs(req.Schedule),
	})
	if err != nil {
		return api.fail(c, "course create failed", err, slog.String("instructor_id", instructorID))
	}

	api.log.Info("course created",
		slog.String("course_id", course.ID.String()),
		slog.String("code", course.Code),
		slog.String("instructor_id", instructorID),
	)
	return c.JSON(http.StatusCreated, toCourseDTO(course))
}

func (api *scheduleAPI) replaceCourseSlots(c echo.Context) error {
	instructorID := c.Request().Header.Get(userHeader)
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id must be a UUID")
	}

	req := new(replaceSlotsRequest)
	if err := c.Bind(req); err != nil {
		return err
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if err := api.svc.ReplaceCourseSlots(c.Request().Context(), instructorID, courseID, toSlotInputs(req.Schedule)); err != nil {
		return api.fail(c, "course slots replace failed", err,
			slog.String("instructor_id", instructorID), slog.String("course_id", courseID.String()))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (api *scheduleAPI) deleteCourse(c echo.Context) error {
	instructorID := c.Request().Header.Get(userHeader)
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id must be a UUID")
	}

	if err := api.svc.DeleteCourse(c.Request().Context(), instructorID, courseID); err != nil {
		return api.fail(c, "course delete failed", err,
			slog.String("instructor_id", instructorID), slog.String("course_id", courseID.String()))
	}
	return c.NoContent(http.StatusNoContent)
}

func (api *scheduleAPI) enroll(c echo.Context) error {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id must be a UUID")
	}

	req := new(enrollRequest)
	if err := c.Bind(req); err != nil {
		return err
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if err := api.svc.EnrollStudent(c.Request().Context(), courseID, req.StudentID); err != nil {
		return api.fail(c, "enrollment failed", err,
			slog.String("course_id", courseID.String()), slog.String("student_id", req.StudentID))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// fail translates service and store errors into HTTP responses, logging at a
// severity that matches who got it wrong.
func (api *scheduleAPI) fail(c echo.Context, msg string, err error, fields ...any) error {
	var vErr *schedule.ValidationError
	if errors.As(err, &vErr) {
		api.log.Warn(msg, append([]any{slog.Any("err", err)}, fields...)...)
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": vErr.Error()})
	}
	var uErr *schedule.UpstreamDataError
	if errors.As(err, &uErr) {
		api.log.Error(msg, append([]any{slog.Any("err", err)}, fields...)...)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "schedule data could not be composed"})
	}
	if errors.Is(err, store.ErrNotFound) {
		api.log.Info(msg, append([]any{slog.Any("err", err)}, fields...)...)
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "not found"})
	}
	if errors.Is(err, store.ErrConflict) {
		api.log.Info(msg, append([]any{slog.Any("err", err)}, fields...)...)
		return c.JSON(http.StatusConflict, echo.Map{"success": false, "message": "That time was just booked. Pick a different slot."})
	}
	api.log.Error(msg, append([]any{slog.Any("err", err)}, fields...)...)
	return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "internal error"})
}

func toSlotInputs(in []slotDTO) []schedule.SlotInput {
	out := make([]schedule.SlotInput, 0, len(in))
	for _, s := range in {
		out = append(out, schedule.SlotInput{Day: s.Day, Time: s.Time, DurationMinutes: s.Duration})
	}
	return out
}

// parseUUID is used where the service re-validates: a zero UUID fails there
// with a ValidationError.
func parseUUID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"classgrid/server/internal/domain"
	"classgrid/server/internal/service/schedule"
	"classgrid/server/internal/store"
)

type fakeService struct {
	regularSchedule   func(ctx context.Context, userID string) ([]domain.Course, error)
	weekGrid          func(ctx context.Context, userID string) (domain.WeekGrid, error)
	listOnlineClasses func(ctx context.Context, userID, from, to string) ([]schedule.OnlineClass, error)

	checkConflict         func(ctx context.Context, in schedule.OnlineClassInput) (domain.ConflictVerdict, error)
	createOnlineClass     func(ctx context.Context, in schedule.OnlineClassInput) (domain.OnlineSession, domain.ConflictVerdict, error)
	rescheduleOnlineClass func(ctx context.Context, in schedule.RescheduleInput) (domain.ConflictVerdict, error)
	attachRecording       func(ctx context.Context, in schedule.AttachRecordingInput) error
	deleteOnlineClass     func(ctx context.Context, instructorID string, sessionID uuid.UUID) error

	createCourse       func(ctx context.Context, in schedule.CreateCourseInput) (domain.Course, error)
	replaceCourseSlots func(ctx context.Context, instructorID string, courseID uuid.UUID, slots []schedule.SlotInput) error
	deleteCourse       func(ctx context.Context, instructorID string, courseID uuid.UUID) error
	enrollStudent      func(ctx context.Context, courseID uuid.UUID, studentID string) error

	now time.Time
}

func (f *fakeService) RegularSchedule(ctx context.Context, userID string) ([]domain.Course, error) {
	return f.regularSchedule(ctx, userID)
}

func (f *fakeService) WeekGrid(ctx context.Context, userID string) (domain.WeekGrid, error) {
	return f.weekGrid(ctx, userID)
}

func (f *fakeService) ListOnlineClasses(ctx context.Context, userID, from, to string) ([]schedule.OnlineClass, error) {
	return f.listOnlineClasses(ctx, userID, from, to)
}

func (f *fakeService) CheckConflict(ctx context.Context, in schedule.OnlineClassInput) (domain.ConflictVerdict, error) {
	return f.checkConflict(ctx, in)
}

func (f *fakeService) CreateOnlineClass(ctx context.Context, in schedule.OnlineClassInput) (domain.OnlineSession, domain.ConflictVerdict, error) {
	return f.createOnlineClass(ctx, in)
}

func (f *fakeService) RescheduleOnlineClass(ctx context.Context, in schedule.RescheduleInput) (domain.ConflictVerdict, error) {
	return f.rescheduleOnlineClass(ctx, in)
}

func (f *fakeService) AttachRecording(ctx context.Context, in schedule.AttachRecordingInput) error {
	return f.attachRecording(ctx, in)
}

func (f *fakeService) DeleteOnlineClass(ctx context.Context, instructorID string, sessionID uuid.UUID) error {
	return f.deleteOnlineClass(ctx, instructorID, sessionID)
}

func (f *fakeService) CreateCourse(ctx context.Context, in schedule.CreateCourseInput) (domain.Course, error) {
	return f.createCourse(ctx, in)
}

func (f *fakeService) ReplaceCourseSlots(ctx context.Context, instructorID string, courseID uuid.UUID, slots []schedule.SlotInput) error {
	return f.replaceCourseSlots(ctx, instructorID, courseID, slots)
}

func (f *fakeService) DeleteCourse(ctx context.Context, instructorID string, courseID uuid.UUID) error {
	return f.deleteCourse(ctx, instructorID, courseID)
}

func (f *fakeService) EnrollStudent(ctx context.Context, courseID uuid.UUID, studentID string) error {
	return f.enrollStudent(ctx, courseID, studentID)
}

func (f *fakeService) Now() time.Time {
	if f.now.IsZero() {
		return time.Now()
	}
	return f.now
}

func do(t *testing.T, svc *fakeService, method, target, body, userID string) *httptest.ResponseRecorder {
	t.Helper()
	e := NewServer(svc, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Second)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echoHeaderContentType, "application/json")
	}
	if userID != "" {
		req.Header.Set(userHeader, userID)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return out
}

func TestCreateOnlineClassCreated(t *testing.T) {
	classID := uuid.New()
	svc := &fakeService{
		createOnlineClass: func(ctx context.Context, in schedule.OnlineClassInput) (domain.OnlineSession, domain.ConflictVerdict, error) {
			if in.InstructorID != "t1" {
				t.Fatalf("instructor_id = %q, want header value", in.InstructorID)
			}
			if in.Title != "Revision class" || in.Date != "2024-04-02" {
				t.Fatalf("input = %+v", in)
			}
			return domain.OnlineSession{ID: classID}, domain.ConflictVerdict{}, nil
		},
	}

	body := `{"title":"Revision class","course_id":"` + uuid.NewString() + `","scheduled_date":"2024-04-02","scheduled_time":"10:00","duration":60}`
	rec := do(t, svc, http.MethodPost, "/v1/online-classes", body, "t1")

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201\n%s", rec.Code, rec.Body.String())
	}
	got := decodeBody(t, rec)
	if got["success"] != true || got["class_id"] != classID.String() {
		t.Fatalf("body = %v", got)
	}
}

func TestCreateOnlineClassConflictEnvelope(t *testing.T) {
	existing := domain.OnlineSession{
		ID:              uuid.New(),
		Title:           "Existing class",
		Date:            time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC),
		StartMinutes:    600,
		DurationMinutes: 60,
	}
	svc := &fakeService{
		createOnlineClass: func(ctx context.Context, in schedule.OnlineClassInput) (domain.OnlineSession, domain.ConflictVerdict, error) {
			return domain.OnlineSession{}, domain.ConflictVerdict{
				Conflict: true,
				Reason:   domain.ReasonSessionOverlap,
				Session:  &existing,
			}, nil
		},
	}

	body := `{"title":"Clashing","course_id":"` + uuid.NewString() + `","scheduled_date":"2024-04-02","scheduled_time":"10:30","duration":60}`
	rec := do(t, svc, http.MethodPost, "/v1/online-classes", body, "t1")

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409\n%s", rec.Code, rec.Body.String())
	}
	got := decodeBody(t, rec)
	if got["success"] != false {
		t.Fatalf("body = %v", got)
	}
	verdict, ok := got["verdict"].(map[string]any)
	if !ok {
		t.Fatalf("verdict missing: %v", got)
	}
	if verdict["reason"] != string(domain.ReasonSessionOverlap) {
		t.Fatalf("verdict = %v", verdict)
	}
	with, ok := verdict["conflicting_with"].(map[string]any)
	if !ok || with["title"] != "Existing class" || with["time"] != "10:00" {
		t.Fatalf("conflicting_with = %v", verdict["conflicting_with"])
	}
}

func TestCreateOnlineClassValidationFailure(t *testing.T) {
	svc := &fakeService{
		createOnlineClass: func(ctx context.Context, in schedule.OnlineClassInput) (domain.OnlineSession, domain.ConflictVerdict, error) {
			t.Fatal("service reached with invalid payload")
			return domain.OnlineSession{}, domain.ConflictVerdict{}, nil
		},
	}

	// Missing title and duration.
	body := `{"course_id":"` + uuid.NewString() + `","scheduled_date":"2024-04-02","scheduled_time":"10:00"}`
	rec := do(t, svc, http.MethodPost, "/v1/online-classes", body, "t1")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400\n%s", rec.Code, rec.Body.String())
	}
}

func TestServiceValidationErrorMapsTo400(t *testing.T) {
	svc := &fakeService{
		listOnlineClasses: func(ctx context.Context, userID, from, to string) ([]schedule.OnlineClass, error) {
			return nil, &schedule.ValidationError{}
		},
	}

	rec := do(t, svc, http.MethodGet, "/v1/online-classes?user_id=u1&from=bogus", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400\n%s", rec.Code, rec.Body.String())
	}
}

func TestStoreConflictMapsTo409(t *testing.T) {
	svc := &fakeService{
		createOnlineClass: func(ctx context.Context, in schedule.OnlineClassInput) (domain.OnlineSession, domain.ConflictVerdict, error) {
			return domain.OnlineSession{}, domain.ConflictVerdict{}, store.ErrConflict
		},
	}

	body := `{"title":"Raced","course_id":"` + uuid.NewString() + `","scheduled_date":"2024-04-02","scheduled_time":"10:00","duration":60}`
	rec := do(t, svc, http.MethodPost, "/v1/online-classes", body, "t1")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409\n%s", rec.Code, rec.Body.String())
	}
}

func TestDeleteOnlineClassNotFound(t *testing.T) {
	svc := &fakeService{
		deleteOnlineClass: func(ctx context.Context, instructorID string, sessionID uuid.UUID) error {
			return store.ErrNotFound
		},
	}

	rec := do(t, svc, http.MethodDelete, "/v1/online-classes/"+uuid.NewString(), "", "t1")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404\n%s", rec.Code, rec.Body.String())
	}
}

func TestDeleteOnlineClassBadID(t *testing.T) {
	svc := &fakeService{
		deleteOnlineClass: func(ctx context.Context, instructorID string, sessionID uuid.UUID) error {
			t.Fatal("service reached with malformed id")
			return nil
		},
	}

	rec := do(t, svc, http.MethodDelete, "/v1/online-classes/not-a-uuid", "", "t1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400\n%s", rec.Code, rec.Body.String())
	}
}

func TestWeekViewRendersGrid(t *testing.T) {
	window := domain.WeekWindow{
		Days:      []domain.Weekday{domain.Monday, domain.Tuesday},
		StartHour: 9,
		EndHour:   10,
	}
	course := domain.Course{
		ID:   uuid.New(),
		Name: "Linear Algebra",
		Code: "MATH201",
		Slots: []*domain.RecurringSlot{{
			ID:              uuid.New(),
			Weekday:         domain.Monday,
			StartMinutes:    9 * 60,
			DurationMinutes: 60,
		}},
	}
	course.Slots[0].CourseID = course.ID

	svc := &fakeService{
		now: time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC),
		weekGrid: func(ctx context.Context, userID string) (domain.WeekGrid, error) {
			return domain.ComposeWeekGrid(window, []domain.Course{course}, nil)
		},
	}

	rec := do(t, svc, http.MethodGet, "/v1/schedule/week?user_id=u1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d\n%s", rec.Code, rec.Body.String())
	}

	var week struct {
		Days []string `json:"days"`
		Rows []struct {
			Hour  int `json:"hour"`
			Cells []struct {
				Day     string `json:"day"`
				Entries []struct {
					Kind  string `json:"kind"`
					Title string `json:"title"`
					Time  string `json:"time"`
				} `json:"entries"`
			} `json:"cells"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &week); err != nil {
		t.Fatalf("decode week view: %v\n%s", err, rec.Body.String())
	}
	if len(week.Days) != 2 || len(week.Rows) != 2 {
		t.Fatalf("grid shape = %d days, %d rows", len(week.Days), len(week.Rows))
	}
	entries := week.Rows[0].Cells[0].Entries
	if len(entries) != 1 || entries[0].Title != "Linear Algebra" || entries[0].Time != "09:00" {
		t.Fatalf("monday 9am cell = %+v", week.Rows[0].Cells[0])
	}
}

func TestRegularScheduleListsCourses(t *testing.T) {
	course := domain.Course{
		ID:             uuid.New(),
		Name:           "Linear Algebra",
		Code:           "MATH201",
		InstructorName: "Dr. Okafor",
		Slots: []*domain.RecurringSlot{{
			Weekday:         domain.Wednesday,
			StartMinutes:    14*60 + 30,
			DurationMinutes: 90,
		}},
	}
	svc := &fakeService{
		regularSchedule: func(ctx context.Context, userID string) ([]domain.Course, error) {
			if userID != "u1" {
				t.Fatalf("userID = %q", userID)
			}
			return []domain.Course{course}, nil
		},
	}

	rec := do(t, svc, http.MethodGet, "/v1/schedule/regular?user_id=u1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d\n%s", rec.Code, rec.Body.String())
	}

	var courses []courseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &courses); err != nil {
		t.Fatal(err)
	}
	if len(courses) != 1 || courses[0].Code != "MATH201" {
		t.Fatalf("courses = %+v", courses)
	}
	if len(courses[0].Schedule) != 1 || courses[0].Schedule[0].Day != "Wednesday" || courses[0].Schedule[0].Time != "14:30" {
		t.Fatalf("schedule = %+v", courses[0].Schedule)
	}
}

package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/pkg/pdf"
)

const testSchoolID = "sch-1"

// fakeRecords is an in-memory read side scoped to testSchoolID. Lookups
// from any other school behave like missing rows.
type fakeRecords struct {
	mu    sync.Mutex
	calls []string

	school       *models.School
	students     map[string]*models.Student
	guardians    map[string][]models.Guardian
	enrollments  map[string]*models.EnrollmentDetail
	periods      map[string][]models.Period
	subjects     map[string][]models.ClassSubject
	schedule     map[string][]models.ScheduleSlot
	assessments  map[string][]models.Assessment
	grades       map[string][]models.StudentGrade
	periodGrades map[string][]models.PeriodGrade
	finals       map[string][]models.FinalGrade
	sessions     map[string][]models.AttendanceSession
	records      map[string][]models.AttendanceRecord
	documents    map[string]*models.IssuedDocument
	templates    map[string]*models.DocumentTemplate
	delivered    map[string][]models.IssuedDocument

	marked  []time.Time
	listErr error
}

func (f *fakeRecords) track(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeRecords) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRecords) sources() DocumentSources {
	return DocumentSources{
		Schools:     fakeSchools{f},
		Students:    fakeStudents{f},
		Enrollments: f,
		Academics:   f,
		Grades:      f,
		Attendance:  f,
		Documents:   fakeDocuments{f},
	}
}

type fakeSchools struct{ *fakeRecords }

func (f fakeSchools) FindByID(_ context.Context, schoolID string) (*models.School, error) {
	f.track("school")
	if schoolID != testSchoolID || f.school == nil {
		return nil, sql.ErrNoRows
	}
	return f.school, nil
}

type fakeStudents struct{ *fakeRecords }

func (f fakeStudents) FindByID(_ context.Context, schoolID, id string) (*models.Student, error) {
	f.track("student")
	if s, ok := f.students[id]; ok && schoolID == testSchoolID {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (f fakeStudents) ListGuardians(_ context.Context, schoolID, studentID string) ([]models.Guardian, error) {
	f.track("guardians")
	if schoolID != testSchoolID {
		return nil, nil
	}
	return f.guardians[studentID], f.listErr
}

func (f *fakeRecords) FindDetailByID(_ context.Context, schoolID, id string) (*models.EnrollmentDetail, error) {
	f.track("enrollment")
	if e, ok := f.enrollments[id]; ok && schoolID == testSchoolID {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRecords) ListByStudent(_ context.Context, schoolID, studentID string) ([]models.EnrollmentDetail, error) {
	f.track("enrollments")
	var out []models.EnrollmentDetail
	for _, e := range f.enrollments {
		if schoolID == testSchoolID && e.StudentID == studentID {
			out = append(out, *e)
		}
	}
	sortEnrollments(out)
	return out, f.listErr
}

func sortEnrollments(list []models.EnrollmentDetail) {
	for i := 1; i < len(list); i++ {
		for j := i; j > 0 && list[j].AcademicYear < list[j-1].AcademicYear; j-- {
			list[j], list[j-1] = list[j-1], list[j]
		}
	}
}

func (f *fakeRecords) ListPeriods(_ context.Context, _, academicYearID string) ([]models.Period, error) {
	f.track("periods")
	return f.periods[academicYearID], f.listErr
}

func (f *fakeRecords) ListClassSubjects(_ context.Context, _, classroomID string) ([]models.ClassSubject, error) {
	f.track("subjects")
	return f.subjects[classroomID], f.listErr
}

func (f *fakeRecords) ListSchedule(_ context.Context, _, classroomID string) ([]models.ScheduleSlot, error) {
	f.track("schedule")
	return f.schedule[classroomID], f.listErr
}

func (f *fakeRecords) ListAssessments(_ context.Context, _, classroomID string) ([]models.Assessment, error) {
	f.track("assessments")
	return f.assessments[classroomID], f.listErr
}

func (f *fakeRecords) ListGrades(_ context.Context, _, enrollmentID string) ([]models.StudentGrade, error) {
	f.track("grades")
	return f.grades[enrollmentID], f.listErr
}

func (f *fakeRecords) ListPeriodGrades(_ context.Context, _, enrollmentID string) ([]models.PeriodGrade, error) {
	f.track("period_grades")
	return f.periodGrades[enrollmentID], f.listErr
}

func (f *fakeRecords) ListFinalGrades(_ context.Context, _, enrollmentID string) ([]models.FinalGrade, error) {
	f.track("final_grades")
	return f.finals[enrollmentID], f.listErr
}

func (f *fakeRecords) ListSessions(_ context.Context, _, classroomID string) ([]models.AttendanceSession, error) {
	f.track("sessions")
	return f.sessions[classroomID], f.listErr
}

func (f *fakeRecords) ListRecords(_ context.Context, _, enrollmentID string) ([]models.AttendanceRecord, error) {
	f.track("records")
	return f.records[enrollmentID], f.listErr
}

type fakeDocuments struct{ *fakeRecords }

func (f fakeDocuments) FindByID(_ context.Context, schoolID, id string) (*models.IssuedDocument, error) {
	f.track("document")
	if d, ok := f.documents[id]; ok && schoolID == testSchoolID {
		copied := *d
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f fakeDocuments) FindTemplate(_ context.Context, schoolID, id string) (*models.DocumentTemplate, error) {
	f.track("template")
	if t, ok := f.templates[id]; ok && schoolID == testSchoolID {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (f fakeDocuments) ListDelivered(_ context.Context, _, studentID string) ([]models.IssuedDocument, error) {
	f.track("delivered")
	return f.delivered[studentID], f.listErr
}

// MarkIssued mirrors the conditional update: only a draft transitions.
func (f fakeDocuments) MarkIssued(_ context.Context, schoolID, id string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.documents[id]
	if !ok || schoolID != testSchoolID || d.Status != models.DocumentStatusDraft {
		return false, nil
	}
	d.Status = models.DocumentStatusIssued
	d.IssuedAt = &at
	f.marked = append(f.marked, at)
	return true, nil
}

type stubLogos struct {
	image *pdf.Image
}

func (s stubLogos) Fetch(context.Context, string, string) *pdf.Image { return s.image }

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

// newFakeRecords builds a school with one student enrolled in 2024: two
// trimesters, Matemática with a precomputed 7.0 in the first and scores 6
// and 8 in the second, and 18 of 20 weighted slots attended.
func newFakeRecords() *fakeRecords {
	birth := time.Date(2009, 3, 14, 0, 0, 0, 0, time.UTC)
	enrolledAt := time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC)
	return &fakeRecords{
		school: &models.School{ID: testSchoolID, Name: "Escola Estadual Aurora", DirectorName: "Maria Souza", City: "Campinas", State: "SP"},
		students: map[string]*models.Student{
			"stu-1": {
				ID: "stu-1", SchoolID: testSchoolID, FullName: "Ana Beatriz Lima", CPF: "123.456.789-00",
				BirthDate: &birth, Nationality: "Brasileira", Birthplace: "Campinas/SP",
				Email: "ana@example.com", City: "Campinas", State: "SP",
				BloodType: "O+", Allergies: "Dipirona", HealthNotes: "Usa óculos.",
			},
		},
		guardians: map[string][]models.Guardian{
			"stu-1": {
				{ID: "g-2", StudentID: "stu-1", FullName: "Paula Lima", Relationship: "Mãe"},
				{ID: "g-1", StudentID: "stu-1", FullName: "Carlos Lima", Relationship: "Pai", IsPrimary: true},
			},
		},
		enrollments: map[string]*models.EnrollmentDetail{
			"enr-1": {
				Enrollment: models.Enrollment{
					ID: "enr-1", SchoolID: testSchoolID, StudentID: "stu-1", ClassroomID: "cls-1",
					AcademicYearID: "ay-2024", Number: "2024-0001", Status: models.EnrollmentStatusActive, EnrolledAt: enrolledAt,
				},
				StudentName: "Ana Beatriz Lima", ClassroomName: "1º Ano A", Shift: "Manhã", GradeLevel: "1ª série", AcademicYear: 2024,
			},
		},
		periods: map[string][]models.Period{
			"ay-2024": {
				{ID: "p1", AcademicYearID: "ay-2024", Name: "1º Trimestre", Sequence: 1},
				{ID: "p2", AcademicYearID: "ay-2024", Name: "2º Trimestre", Sequence: 2},
			},
		},
		subjects: map[string][]models.ClassSubject{
			"cls-1": {
				{SubjectID: "sub-mat", SubjectName: "Matemática", TeacherName: "João Prado", Workload: 160},
				{SubjectID: "sub-por", SubjectName: "Português", Workload: 160},
			},
		},
		schedule: map[string][]models.ScheduleSlot{
			"cls-1": {
				{DayOfWeek: 1, StartTime: "07:30", EndTime: "08:20", SubjectName: "Matemática", TeacherName: "João Prado"},
				{DayOfWeek: 1, StartTime: "08:20", EndTime: "09:10", SubjectName: "Português"},
				{DayOfWeek: 2, StartTime: "07:30", EndTime: "08:20", SubjectName: "Matemática", TeacherName: "João Prado"},
			},
		},
		assessments: map[string][]models.Assessment{
			"cls-1": {
				{ID: "a1", ClassroomID: "cls-1", SubjectID: "sub-mat", PeriodID: "p2", MaxScore: dec("10"), Status: models.AssessmentStatusPublished},
				{ID: "a2", ClassroomID: "cls-1", SubjectID: "sub-mat", PeriodID: "p2", MaxScore: dec("10"), Status: models.AssessmentStatusClosed},
				{ID: "a3", ClassroomID: "cls-1", SubjectID: "sub-mat", PeriodID: "p2", MaxScore: dec("10"), Status: models.AssessmentStatusDraft},
			},
		},
		grades: map[string][]models.StudentGrade{
			"enr-1": {
				{AssessmentID: "a1", EnrollmentID: "enr-1", Score: dec("6")},
				{AssessmentID: "a2", EnrollmentID: "enr-1", Score: dec("8")},
				{AssessmentID: "a3", EnrollmentID: "enr-1", Score: dec("1")},
			},
		},
		periodGrades: map[string][]models.PeriodGrade{
			"enr-1": {{EnrollmentID: "enr-1", SubjectID: "sub-mat", PeriodID: "p1", Average: dec("7.0")}},
		},
		finals: map[string][]models.FinalGrade{
			"enr-1": {{EnrollmentID: "enr-1", SubjectID: "sub-mat", Passed: true}},
		},
		sessions: map[string][]models.AttendanceSession{
			"cls-1": {
				{ID: "s1", ClassroomID: "cls-1", SubjectID: "sub-mat", SubjectName: "Matemática", TotalSlots: intPtr(18)},
				{ID: "s2", ClassroomID: "cls-1", SubjectID: "sub-mat", SubjectName: "Matemática", TotalSlots: intPtr(2)},
			},
		},
		records: map[string][]models.AttendanceRecord{
			"enr-1": {
				{SessionID: "s1", EnrollmentID: "enr-1", Present: true},
				{SessionID: "s2", EnrollmentID: "enr-1", Present: false, Justified: true},
			},
		},
		documents: map[string]*models.IssuedDocument{},
		templates: map[string]*models.DocumentTemplate{},
		delivered: map[string][]models.IssuedDocument{},
	}
}

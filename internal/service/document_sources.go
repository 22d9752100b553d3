package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
	"github.com/noah-isme/sma-records-api/pkg/pdf"
)

type schoolReader interface {
	FindByID(ctx context.Context, schoolID string) (*models.School, error)
}

type studentReader interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.Student, error)
	ListGuardians(ctx context.Context, schoolID, studentID string) ([]models.Guardian, error)
}

type enrollmentReader interface {
	FindDetailByID(ctx context.Context, schoolID, id string) (*models.EnrollmentDetail, error)
	ListByStudent(ctx context.Context, schoolID, studentID string) ([]models.EnrollmentDetail, error)
}

type academicReader interface {
	ListPeriods(ctx context.Context, schoolID, academicYearID string) ([]models.Period, error)
	ListClassSubjects(ctx context.Context, schoolID, classroomID string) ([]models.ClassSubject, error)
	ListSchedule(ctx context.Context, schoolID, classroomID string) ([]models.ScheduleSlot, error)
}

type gradeReader interface {
	ListAssessments(ctx context.Context, schoolID, classroomID string) ([]models.Assessment, error)
	ListGrades(ctx context.Context, schoolID, enrollmentID string) ([]models.StudentGrade, error)
	ListPeriodGrades(ctx context.Context, schoolID, enrollmentID string) ([]models.PeriodGrade, error)
	ListFinalGrades(ctx context.Context, schoolID, enrollmentID string) ([]models.FinalGrade, error)
}

type attendanceReader interface {
	ListSessions(ctx context.Context, schoolID, classroomID string) ([]models.AttendanceSession, error)
	ListRecords(ctx context.Context, schoolID, enrollmentID string) ([]models.AttendanceRecord, error)
}

type documentStore interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.IssuedDocument, error)
	FindTemplate(ctx context.Context, schoolID, id string) (*models.DocumentTemplate, error)
	ListDelivered(ctx context.Context, schoolID, studentID string) ([]models.IssuedDocument, error)
	MarkIssued(ctx context.Context, schoolID, id string, at time.Time) (bool, error)
}

type logoFetcher interface {
	Fetch(ctx context.Context, schoolID, url string) *pdf.Image
}

// DocumentSources bundles the read side the renderers pull from. Every
// method is scoped by school.
type DocumentSources struct {
	Schools     schoolReader
	Students    studentReader
	Enrollments enrollmentReader
	Academics   academicReader
	Grades      gradeReader
	Attendance  attendanceReader
	Documents   documentStore
	Logos       logoFetcher
}

// lookupError maps a repository error for the named entity.
func lookupError(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+entity)
}

// listError wraps a failed list query.
func listError(err error, what string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+what)
}

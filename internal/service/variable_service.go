package service

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

var variablePattern = regexp.MustCompile(`\{\{\s*([a-z_]+)\.([a-z_]+)\s*\}\}`)

// ResolveVariablesRequest carries free text and the record it refers to.
type ResolveVariablesRequest struct {
	Text         string `json:"text" validate:"required"`
	StudentID    string `json:"studentId"`
	EnrollmentID string `json:"enrollmentId"`
}

// VariableService substitutes {{namespace.field}} tokens in free text.
type VariableService struct {
	students    studentReader
	enrollments enrollmentReader
	validator   *validator.Validate
	location    *time.Location
	now         func() time.Time
}

// NewVariableService constructs the service. Dates are printed in loc.
func NewVariableService(students studentReader, enrollments enrollmentReader, validate *validator.Validate, loc *time.Location) *VariableService {
	if validate == nil {
		validate = validator.New()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &VariableService{students: students, enrollments: enrollments, validator: validate, location: loc, now: time.Now}
}

// Resolve validates the request and substitutes the known tokens.
func (s *VariableService) Resolve(ctx context.Context, schoolID string, req ResolveVariablesRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid variables payload")
	}
	values, err := s.Values(ctx, schoolID, req.StudentID, req.EnrollmentID)
	if err != nil {
		return "", err
	}
	return substituteVariables(req.Text, values), nil
}

// Values loads the token table for the given targets. Either id may be
// empty; the student is taken from the enrollment when only that is known.
func (s *VariableService) Values(ctx context.Context, schoolID, studentID, enrollmentID string) (map[string]string, error) {
	values := map[string]string{
		"date.today": s.now().In(s.location).Format("02/01/2006"),
	}

	var enrollment *models.EnrollmentDetail
	if enrollmentID != "" {
		detail, err := s.enrollments.FindDetailByID(ctx, schoolID, enrollmentID)
		if err != nil {
			return nil, lookupError(err, "enrollment")
		}
		enrollment = detail
		if studentID == "" {
			studentID = detail.StudentID
		}
		values["enrollment.number"] = detail.Number
		values["classroom.name"] = detail.ClassroomName
		values["academic_year.year"] = strconv.Itoa(detail.AcademicYear)
	}
	if enrollment != nil && enrollment.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment does not belong to student")
	}
	if studentID == "" {
		return values, nil
	}

	var (
		student   *models.Student
		guardians []models.Guardian
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := s.students.FindByID(gctx, schoolID, studentID)
		if err != nil {
			return lookupError(err, "student")
		}
		student = found
		return nil
	})
	g.Go(func() error {
		list, err := s.students.ListGuardians(gctx, schoolID, studentID)
		if err != nil {
			return listError(err, "guardians")
		}
		guardians = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	values["student.name"] = student.FullName
	if student.CPF != "" {
		values["student.cpf"] = student.CPF
	}
	if guardian := models.PrimaryGuardian(guardians); guardian != nil {
		values["guardian.name"] = guardian.FullName
	}
	return values, nil
}

// substituteVariables replaces known tokens and leaves the rest verbatim.
func substituteVariables(text string, values map[string]string) string {
	return variablePattern.ReplaceAllStringFunc(text, func(token string) string {
		m := variablePattern.FindStringSubmatch(token)
		if value, ok := values[m[1]+"."+m[2]]; ok {
			return value
		}
		return token
	})
}

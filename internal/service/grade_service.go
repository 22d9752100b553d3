package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

type assessmentReader interface {
	FindAssessment(ctx context.Context, schoolID, id string) (*models.Assessment, error)
}

type scoreWriter interface {
	SaveScore(ctx context.Context, schoolID, assessmentID, enrollmentID string, score decimal.Decimal, actorID string) (*models.StudentGrade, bool, error)
}

type gradeStore interface {
	assessmentReader
	scoreWriter
}

// RecordScoreRequest is the payload of a single score entry.
type RecordScoreRequest struct {
	AssessmentID string           `json:"assessmentId" validate:"required" binding:"required"`
	EnrollmentID string           `json:"enrollmentId" validate:"required" binding:"required"`
	Score        *decimal.Decimal `json:"score" validate:"required" binding:"required"`
}

// RecordScoreResult reports the stored grade and whether it changed.
type RecordScoreResult struct {
	Grade   *models.StudentGrade `json:"grade"`
	Changed bool                 `json:"changed"`
}

// GradeService is the write boundary for assessment scores. Scores outside
// [0, max_score] are rejected here; aggregation assumes stored scores are
// in range.
type GradeService struct {
	grades      gradeStore
	enrollments enrollmentReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(grades gradeStore, enrollments enrollmentReader, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{grades: grades, enrollments: enrollments, validator: validate, logger: logger}
}

// RecordScore validates and stores a score, auditing the change.
func (s *GradeService) RecordScore(ctx context.Context, schoolID, actorID string, req RecordScoreRequest) (*RecordScoreResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}

	assessment, err := s.grades.FindAssessment(ctx, schoolID, req.AssessmentID)
	if err != nil {
		return nil, lookupError(err, "assessment")
	}
	enrollment, err := s.enrollments.FindDetailByID(ctx, schoolID, req.EnrollmentID)
	if err != nil {
		return nil, lookupError(err, "enrollment")
	}
	if enrollment.ClassroomID != assessment.ClassroomID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment is not part of the assessment classroom")
	}
	score := *req.Score
	if score.IsNegative() || score.GreaterThan(assessment.MaxScore) {
		return nil, appErrors.Clone(appErrors.ErrScoreOutOfRange, "score must be between 0 and "+assessment.MaxScore.String())
	}

	grade, changed, err := s.grades.SaveScore(ctx, schoolID, assessment.ID, enrollment.ID, score, actorID)
	if errors.Is(err, appErrors.ErrConflict) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "score was recorded concurrently, retry")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save score")
	}
	if changed {
		s.logger.Sugar().Infow("score recorded",
			"school_id", schoolID,
			"assessment_id", assessment.ID,
			"enrollment_id", enrollment.ID,
			"actor_id", actorID,
		)
	}
	return &RecordScoreResult{Grade: grade, Changed: changed}, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

// GradeRepository reads assessments and grades and owns the score write path.
type GradeRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db, now: time.Now}
}

// FindAssessment returns an assessment of the school or sql.ErrNoRows.
func (r *GradeRepository) FindAssessment(ctx context.Context, schoolID, id string) (*models.Assessment, error) {
	const query = `SELECT id, school_id, classroom_id, subject_id, period_id, title, max_score, status
        FROM assessments WHERE school_id = $1 AND id = $2`
	var assessment models.Assessment
	if err := r.db.GetContext(ctx, &assessment, query, schoolID, id); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// ListAssessments returns every assessment of a classroom.
func (r *GradeRepository) ListAssessments(ctx context.Context, schoolID, classroomID string) ([]models.Assessment, error) {
	const query = `SELECT id, school_id, classroom_id, subject_id, period_id, title, max_score, status
        FROM assessments WHERE school_id = $1 AND classroom_id = $2`
	var assessments []models.Assessment
	if err := r.db.SelectContext(ctx, &assessments, query, schoolID, classroomID); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return assessments, nil
}

// ListGrades returns the live scores of an enrollment.
func (r *GradeRepository) ListGrades(ctx context.Context, schoolID, enrollmentID string) ([]models.StudentGrade, error) {
	const query = `SELECT id, school_id, assessment_id, enrollment_id, score, updated_at
        FROM student_grades WHERE school_id = $1 AND enrollment_id = $2`
	var grades []models.StudentGrade
	if err := r.db.SelectContext(ctx, &grades, query, schoolID, enrollmentID); err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	return grades, nil
}

// ListPeriodGrades returns the precomputed period averages of an enrollment.
func (r *GradeRepository) ListPeriodGrades(ctx context.Context, schoolID, enrollmentID string) ([]models.PeriodGrade, error) {
	const query = `SELECT enrollment_id, subject_id, period_id, average
        FROM period_grades WHERE school_id = $1 AND enrollment_id = $2`
	var grades []models.PeriodGrade
	if err := r.db.SelectContext(ctx, &grades, query, schoolID, enrollmentID); err != nil {
		return nil, fmt.Errorf("list period grades: %w", err)
	}
	return grades, nil
}

// ListFinalGrades returns the pass/fail verdicts of an enrollment.
func (r *GradeRepository) ListFinalGrades(ctx context.Context, schoolID, enrollmentID string) ([]models.FinalGrade, error) {
	const query = `SELECT enrollment_id, COALESCE(subject_id, '') AS subject_id, average, passed
        FROM final_grades WHERE school_id = $1 AND enrollment_id = $2`
	var grades []models.FinalGrade
	if err := r.db.SelectContext(ctx, &grades, query, schoolID, enrollmentID); err != nil {
		return nil, fmt.Errorf("list final grades: %w", err)
	}
	return grades, nil
}

// SaveScore upserts the live grade of (assessment, enrollment) and appends
// an audit row in the same transaction. changed is false when the stored
// score already equals score; nothing is written in that case.
func (r *GradeRepository) SaveScore(ctx context.Context, schoolID, assessmentID, enrollmentID string, score decimal.Decimal, actorID string) (grade *models.StudentGrade, changed bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin save score: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	const selectQuery = `SELECT id, school_id, assessment_id, enrollment_id, score, updated_at
        FROM student_grades WHERE school_id = $1 AND assessment_id = $2 AND enrollment_id = $3 FOR UPDATE`
	var current models.StudentGrade
	var old decimal.NullDecimal
	err = tx.GetContext(ctx, &current, selectQuery, schoolID, assessmentID, enrollmentID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		current = models.StudentGrade{ID: uuid.NewString(), SchoolID: schoolID, AssessmentID: assessmentID, EnrollmentID: enrollmentID}
	case err != nil:
		return nil, false, fmt.Errorf("load student grade: %w", err)
	default:
		if current.Score.Equal(score) {
			if err := tx.Commit(); err != nil {
				return nil, false, fmt.Errorf("commit save score: %w", err)
			}
			commit = true
			return &current, false, nil
		}
		old = decimal.NullDecimal{Decimal: current.Score, Valid: true}
	}

	now := r.now().UTC()
	current.Score = score
	current.UpdatedAt = now
	if old.Valid {
		const updateQuery = `UPDATE student_grades SET score = $2, updated_at = $3 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, updateQuery, current.ID, current.Score, current.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("update student grade: %w", err)
		}
	} else {
		// a missing row cannot be locked, so a concurrent first score shows up as a skipped insert
		const insertQuery = `INSERT INTO student_grades (id, school_id, assessment_id, enrollment_id, score, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (assessment_id, enrollment_id) DO NOTHING`
		res, err := tx.ExecContext(ctx, insertQuery, current.ID, current.SchoolID, current.AssessmentID, current.EnrollmentID, current.Score, current.UpdatedAt)
		if err != nil {
			return nil, false, fmt.Errorf("insert student grade: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, false, fmt.Errorf("insert student grade: %w", appErrors.ErrConflict)
		}
	}

	audit := models.GradeAudit{
		ID:             uuid.NewString(),
		StudentGradeID: current.ID,
		OldScore:       old,
		NewScore:       score,
		ActorID:        actorID,
		ChangedAt:      now,
	}
	const auditQuery = `INSERT INTO grade_audits (id, student_grade_id, old_score, new_score, actor_id, changed_at)
        VALUES (:id, :student_grade_id, :old_score, :new_score, :actor_id, :changed_at)`
	if _, err := tx.NamedExecContext(ctx, auditQuery, audit); err != nil {
		return nil, false, fmt.Errorf("insert grade audit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit save score: %w", err)
	}
	commit = true
	return &current, true, nil
}

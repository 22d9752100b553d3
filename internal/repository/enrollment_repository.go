package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-records-api/internal/models"
)

const enrollmentDetailSelect = `SELECT e.id, e.school_id, e.student_id, e.classroom_id, e.academic_year_id, e.number, e.status, e.enrolled_at,
        s.full_name AS student_name, c.name AS classroom_name, COALESCE(c.shift, '') AS shift,
        COALESCE(c.grade_level, '') AS grade_level, y.year AS academic_year
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN classrooms c ON c.id = e.classroom_id
        JOIN academic_years y ON y.id = e.academic_year_id`

// EnrollmentRepository reads enrollments. Soft-deleted rows are never returned.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindDetailByID returns an enrollment with classroom and year info.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, schoolID, id string) (*models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + ` WHERE e.school_id = $1 AND e.id = $2 AND e.deleted_at IS NULL`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, schoolID, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByStudent returns the enrollment history of a student, oldest year first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, schoolID, studentID string) ([]models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + ` WHERE e.school_id = $1 AND e.student_id = $2 AND e.deleted_at IS NULL
        ORDER BY y.year, e.enrolled_at`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, schoolID, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

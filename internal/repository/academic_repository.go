package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-records-api/internal/models"
)

// AcademicRepository reads the structure of a school year: periods, the
// subjects of a classroom and its weekly schedule.
type AcademicRepository struct {
	db *sqlx.DB
}

// NewAcademicRepository constructs the repository.
func NewAcademicRepository(db *sqlx.DB) *AcademicRepository {
	return &AcademicRepository{db: db}
}

// ListPeriods returns the periods of an academic year ordered by sequence.
func (r *AcademicRepository) ListPeriods(ctx context.Context, schoolID, academicYearID string) ([]models.Period, error) {
	const query = `SELECT id, academic_year_id, name, sequence, start_date, end_date
        FROM periods WHERE school_id = $1 AND academic_year_id = $2 ORDER BY sequence`
	var periods []models.Period
	if err := r.db.SelectContext(ctx, &periods, query, schoolID, academicYearID); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return periods, nil
}

// ListClassSubjects returns the subjects taught in a classroom with their teachers.
func (r *AcademicRepository) ListClassSubjects(ctx context.Context, schoolID, classroomID string) ([]models.ClassSubject, error) {
	const query = `SELECT cs.subject_id, sub.name AS subject_name, COALESCE(t.full_name, '') AS teacher_name, COALESCE(cs.workload, 0) AS workload
        FROM class_subjects cs
        JOIN subjects sub ON sub.id = cs.subject_id
        LEFT JOIN teachers t ON t.id = cs.teacher_id
        WHERE cs.school_id = $1 AND cs.classroom_id = $2
        ORDER BY sub.name`
	var subjects []models.ClassSubject
	if err := r.db.SelectContext(ctx, &subjects, query, schoolID, classroomID); err != nil {
		return nil, fmt.Errorf("list class subjects: %w", err)
	}
	return subjects, nil
}

// ListSchedule returns the weekly slots of a classroom ordered by day and time.
func (r *AcademicRepository) ListSchedule(ctx context.Context, schoolID, classroomID string) ([]models.ScheduleSlot, error) {
	const query = `SELECT ss.day_of_week, ss.start_time, ss.end_time, sub.name AS subject_name, COALESCE(t.full_name, '') AS teacher_name
        FROM schedule_slots ss
        JOIN subjects sub ON sub.id = ss.subject_id
        LEFT JOIN teachers t ON t.id = ss.teacher_id
        WHERE ss.school_id = $1 AND ss.classroom_id = $2
        ORDER BY ss.day_of_week, ss.start_time`
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, schoolID, classroomID); err != nil {
		return nil, fmt.Errorf("list schedule: %w", err)
	}
	return slots, nil
}

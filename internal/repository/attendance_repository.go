package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-records-api/internal/models"
)

// AttendanceRepository reads class sessions and presence records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListSessions returns the sessions held for a classroom.
func (r *AttendanceRepository) ListSessions(ctx context.Context, schoolID, classroomID string) ([]models.AttendanceSession, error) {
	const query = `SELECT a.id, a.classroom_id, a.subject_id, sub.name AS subject_name, a.date, a.total_slots
        FROM attendance_sessions a
        JOIN subjects sub ON sub.id = a.subject_id
        WHERE a.school_id = $1 AND a.classroom_id = $2
        ORDER BY a.date`
	var sessions []models.AttendanceSession
	if err := r.db.SelectContext(ctx, &sessions, query, schoolID, classroomID); err != nil {
		return nil, fmt.Errorf("list attendance sessions: %w", err)
	}
	return sessions, nil
}

// ListRecords returns the presence records of an enrollment.
func (r *AttendanceRepository) ListRecords(ctx context.Context, schoolID, enrollmentID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT session_id, enrollment_id, present, justified
        FROM attendance_records WHERE school_id = $1 AND enrollment_id = $2`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, schoolID, enrollmentID); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	return records, nil
}

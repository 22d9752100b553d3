package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-records-api/internal/models"
)

const studentColumns = `s.id, s.school_id, s.full_name, COALESCE(s.cpf, '') AS cpf, COALESCE(s.rg, '') AS rg, s.birth_date,
        COALESCE(s.gender, '') AS gender, COALESCE(s.nationality, '') AS nationality, COALESCE(s.birthplace, '') AS birthplace,
        COALESCE(s.email, '') AS email, COALESCE(s.phone, '') AS phone, COALESCE(s.address, '') AS address,
        COALESCE(s.city, '') AS city, COALESCE(s.state, '') AS state, COALESCE(s.zip_code, '') AS zip_code,
        COALESCE(s.blood_type, '') AS blood_type, COALESCE(s.allergies, '') AS allergies, COALESCE(s.medications, '') AS medications,
        COALESCE(s.special_needs, '') AS special_needs, COALESCE(s.health_notes, '') AS health_notes, s.created_at`

// StudentRepository reads students and their guardians.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student of the school or sql.ErrNoRows.
func (r *StudentRepository) FindByID(ctx context.Context, schoolID, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students s WHERE s.school_id = $1 AND s.id = $2 AND s.deleted_at IS NULL`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, schoolID, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListGuardians returns the guardians of a student, primary first.
func (r *StudentRepository) ListGuardians(ctx context.Context, schoolID, studentID string) ([]models.Guardian, error) {
	const query = `SELECT g.id, g.student_id, g.full_name, COALESCE(g.relationship, '') AS relationship, COALESCE(g.cpf, '') AS cpf,
        COALESCE(g.phone, '') AS phone, COALESCE(g.email, '') AS email, g.is_primary
        FROM guardians g
        JOIN students s ON s.id = g.student_id
        WHERE s.school_id = $1 AND g.student_id = $2
        ORDER BY g.is_primary DESC, g.full_name`
	var guardians []models.Guardian
	if err := r.db.SelectContext(ctx, &guardians, query, schoolID, studentID); err != nil {
		return nil, fmt.Errorf("list guardians: %w", err)
	}
	return guardians, nil
}

package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-records-api/internal/models"
)

// SchoolRepository reads tenant records.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository constructs the repository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// FindByID returns the school or sql.ErrNoRows.
func (r *SchoolRepository) FindByID(ctx context.Context, schoolID string) (*models.School, error) {
	const query = `SELECT id, name, COALESCE(director_name, '') AS director_name, COALESCE(logo_url, '') AS logo_url,
        COALESCE(city, '') AS city, COALESCE(state, '') AS state
        FROM schools WHERE id = $1`
	var school models.School
	if err := r.db.GetContext(ctx, &school, query, schoolID); err != nil {
		return nil, err
	}
	return &school, nil
}

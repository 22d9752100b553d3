package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-records-api/internal/models"
)

const issuedDocumentColumns = `id, school_id, template_id, type, number, title, student_id, enrollment_id, status,
        COALESCE(header_text, '') AS header_text, COALESCE(body_text, '') AS body_text, COALESCE(footer_text, '') AS footer_text,
        payload, issued_at, delivered_at, created_at`

// DocumentRepository persists issued documents and reads templates.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// FindByID returns an issued document of the school or sql.ErrNoRows.
func (r *DocumentRepository) FindByID(ctx context.Context, schoolID, id string) (*models.IssuedDocument, error) {
	query := `SELECT ` + issuedDocumentColumns + ` FROM issued_documents WHERE school_id = $1 AND id = $2`
	var doc models.IssuedDocument
	if err := r.db.GetContext(ctx, &doc, query, schoolID, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindTemplate returns a template of the school or sql.ErrNoRows.
func (r *DocumentRepository) FindTemplate(ctx context.Context, schoolID, id string) (*models.DocumentTemplate, error) {
	const query = `SELECT id, school_id, name, type, config, COALESCE(header_text, '') AS header_text, COALESCE(footer_text, '') AS footer_text
        FROM document_templates WHERE school_id = $1 AND id = $2`
	var tpl models.DocumentTemplate
	if err := r.db.GetContext(ctx, &tpl, query, schoolID, id); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// ListDelivered returns the documents already handed to a student.
func (r *DocumentRepository) ListDelivered(ctx context.Context, schoolID, studentID string) ([]models.IssuedDocument, error) {
	query := `SELECT ` + issuedDocumentColumns + ` FROM issued_documents
        WHERE school_id = $1 AND student_id = $2 AND status IN ($3, $4)
        ORDER BY created_at`
	var docs []models.IssuedDocument
	if err := r.db.SelectContext(ctx, &docs, query, schoolID, studentID, models.DocumentStatusIssued, models.DocumentStatusDelivered); err != nil {
		return nil, fmt.Errorf("list delivered documents: %w", err)
	}
	return docs, nil
}

// MarkIssued flips a draft document to issued. The update is conditional
// on the draft status so only the first caller observes true.
func (r *DocumentRepository) MarkIssued(ctx context.Context, schoolID, id string, at time.Time) (bool, error) {
	const query = `UPDATE issued_documents SET status = $3, issued_at = $4
        WHERE school_id = $1 AND id = $2 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, schoolID, id, models.DocumentStatusIssued, at, models.DocumentStatusDraft)
	if err != nil {
		return false, fmt.Errorf("mark document issued: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark document issued: %w", err)
	}
	return affected == 1, nil
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// DocumentType tags the renderer a document is produced by.
type DocumentType string

const (
	DocumentTypeReportCard            DocumentType = "report_card"
	DocumentTypeEnrollmentProof       DocumentType = "enrollment_proof"
	DocumentTypeTranscript            DocumentType = "transcript"
	DocumentTypeAttendanceDeclaration DocumentType = "attendance_declaration"
	DocumentTypeStudentFile           DocumentType = "student_file"
	DocumentTypeFreeForm              DocumentType = "free_form"
)

var documentTypeTitles = map[DocumentType]string{
	DocumentTypeReportCard:            "Boletim Escolar",
	DocumentTypeEnrollmentProof:       "Comprovante de Matrícula",
	DocumentTypeTranscript:            "Histórico Escolar",
	DocumentTypeAttendanceDeclaration: "Declaração de Frequência",
	DocumentTypeStudentFile:           "Ficha do Aluno",
	DocumentTypeFreeForm:              "Documento",
}

// Valid reports whether the tag names a known renderer.
func (t DocumentType) Valid() bool {
	_, ok := documentTypeTitles[t]
	return ok
}

// Title is the default printed title of the document type.
func (t DocumentType) Title() string {
	return documentTypeTitles[t]
}

// TargetKind names the identifier a document type is rendered for.
type TargetKind string

const (
	TargetNone       TargetKind = ""
	TargetStudent    TargetKind = "student"
	TargetEnrollment TargetKind = "enrollment"
)

// Target reports which identifier must accompany the document type.
func (t DocumentType) Target() TargetKind {
	switch t {
	case DocumentTypeReportCard, DocumentTypeEnrollmentProof, DocumentTypeAttendanceDeclaration:
		return TargetEnrollment
	case DocumentTypeTranscript, DocumentTypeStudentFile:
		return TargetStudent
	default:
		return TargetNone
	}
}

// DocumentStatus represents the lifecycle of an issued document.
type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "draft"
	DocumentStatusIssued    DocumentStatus = "issued"
	DocumentStatusDelivered DocumentStatus = "delivered"
	DocumentStatusCancelled DocumentStatus = "cancelled"
)

var documentStatusLabels = map[DocumentStatus]string{
	DocumentStatusDraft:     "Rascunho",
	DocumentStatusIssued:    "Emitido",
	DocumentStatusDelivered: "Entregue",
	DocumentStatusCancelled: "Cancelado",
}

// Label is the printable name of the status.
func (s DocumentStatus) Label() string {
	if label, ok := documentStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// DocumentTemplate is a tenant owned document preset.
type DocumentTemplate struct {
	ID         string         `db:"id" json:"id"`
	SchoolID   string         `db:"school_id" json:"school_id"`
	Name       string         `db:"name" json:"name"`
	Type       DocumentType   `db:"type" json:"type"`
	Config     types.JSONText `db:"config" json:"config"`
	HeaderText string         `db:"header_text" json:"header_text"`
	FooterText string         `db:"footer_text" json:"footer_text"`
}

// IssuedDocument is a numbered document with a frozen snapshot of its text.
type IssuedDocument struct {
	ID           string          `db:"id" json:"id"`
	SchoolID     string          `db:"school_id" json:"school_id"`
	TemplateID   *string         `db:"template_id" json:"template_id,omitempty"`
	Type         DocumentType    `db:"type" json:"type"`
	Number       string          `db:"number" json:"number"`
	Title        string          `db:"title" json:"title"`
	StudentID    *string         `db:"student_id" json:"student_id,omitempty"`
	EnrollmentID *string         `db:"enrollment_id" json:"enrollment_id,omitempty"`
	Status       DocumentStatus  `db:"status" json:"status"`
	HeaderText   string          `db:"header_text" json:"header_text"`
	BodyText     string          `db:"body_text" json:"body_text"`
	FooterText   string          `db:"footer_text" json:"footer_text"`
	Payload      DocumentPayload `db:"payload" json:"payload"`
	IssuedAt     *time.Time      `db:"issued_at" json:"issued_at,omitempty"`
	DeliveredAt  *time.Time      `db:"delivered_at" json:"delivered_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// DocumentPayload is the structured override stored with a document.
type DocumentPayload struct {
	Config       json.RawMessage `json:"config,omitempty"`
	Observations string          `json:"observations,omitempty"`
}

// Value marshals the payload to JSON for persistence.
func (p DocumentPayload) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal document payload: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB column into the payload.
func (p *DocumentPayload) Scan(value interface{}) error {
	if value == nil {
		*p = DocumentPayload{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for DocumentPayload", value)
	}
	if len(data) == 0 {
		*p = DocumentPayload{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal document payload: %w", err)
	}
	return nil
}

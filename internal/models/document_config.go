package models

import (
	"bytes"
	"encoding/json"

	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

// RenderConfig is the section visibility configuration of one document
// type. Concrete values are the *XConfig structs below.
type RenderConfig interface {
	DocumentType() DocumentType
}

// ReportCardConfig controls the report card. An empty PeriodID renders
// every period of the year.
type ReportCardConfig struct {
	ShowFrequency      bool   `json:"showFrequency"`
	ShowFinalGrade     bool   `json:"showFinalGrade"`
	ShowSituation      bool   `json:"showSituation"`
	ShowSignatureLines bool   `json:"showSignatureLines"`
	PeriodID           string `json:"periodId,omitempty"`
}

// EnrollmentProofConfig toggles the optional sections of an enrollment proof.
type EnrollmentProofConfig struct {
	ShowGuardian       bool `json:"showGuardian"`
	ShowSchedule       bool `json:"showSchedule"`
	ShowSubjects       bool `json:"showSubjects"`
	ShowSignatureLines bool `json:"showSignatureLines"`
}

// TranscriptConfig toggles the optional sections of a transcript.
type TranscriptConfig struct {
	ShowSignatureLines bool `json:"showSignatureLines"`
	ShowObservations   bool `json:"showObservations"`
}

// AttendanceDeclarationConfig toggles the per-subject table and signatures.
type AttendanceDeclarationConfig struct {
	ShowBySubject      bool `json:"showBySubject"`
	ShowSignatureLines bool `json:"showSignatureLines"`
}

// StudentFileConfig selects which blocks of the student file are printed.
type StudentFileConfig struct {
	ShowHealth         bool `json:"showHealth"`
	ShowGuardians      bool `json:"showGuardians"`
	ShowDocuments      bool `json:"showDocuments"`
	ShowEnrollments    bool `json:"showEnrollments"`
	ShowSignatureLines bool `json:"showSignatureLines"`
}

// FreeFormConfig controls the masthead and footer of free-form documents.
type FreeFormConfig struct {
	ShowHeader bool `json:"showHeader"`
	ShowFooter bool `json:"showFooter"`
}

// DocumentType implements RenderConfig.
func (*ReportCardConfig) DocumentType() DocumentType { return DocumentTypeReportCard }

// DocumentType implements RenderConfig.
func (*EnrollmentProofConfig) DocumentType() DocumentType { return DocumentTypeEnrollmentProof }

// DocumentType implements RenderConfig.
func (*TranscriptConfig) DocumentType() DocumentType { return DocumentTypeTranscript }

// DocumentType implements RenderConfig.
func (*AttendanceDeclarationConfig) DocumentType() DocumentType {
	return DocumentTypeAttendanceDeclaration
}

// DocumentType implements RenderConfig.
func (*StudentFileConfig) DocumentType() DocumentType { return DocumentTypeStudentFile }

// DocumentType implements RenderConfig.
func (*FreeFormConfig) DocumentType() DocumentType { return DocumentTypeFreeForm }

// DefaultRenderConfig returns the defaults of the document type.
func DefaultRenderConfig(t DocumentType) (RenderConfig, error) {
	switch t {
	case DocumentTypeReportCard:
		return &ReportCardConfig{ShowFrequency: true, ShowFinalGrade: true, ShowSituation: true}, nil
	case DocumentTypeEnrollmentProof:
		return &EnrollmentProofConfig{ShowGuardian: true, ShowSubjects: true, ShowSignatureLines: true}, nil
	case DocumentTypeTranscript:
		return &TranscriptConfig{ShowSignatureLines: true}, nil
	case DocumentTypeAttendanceDeclaration:
		return &AttendanceDeclarationConfig{ShowBySubject: true, ShowSignatureLines: true}, nil
	case DocumentTypeStudentFile:
		return &StudentFileConfig{ShowHealth: true, ShowGuardians: true, ShowDocuments: true, ShowEnrollments: true}, nil
	case DocumentTypeFreeForm:
		return &FreeFormConfig{ShowHeader: true, ShowFooter: true}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrUnknownDocumentType, "unknown document type: "+string(t))
	}
}

// ResolveRenderConfig starts from the type defaults and applies each JSON
// layer in order. Keys present in a later layer override earlier values;
// absent keys keep them. Empty and null layers are skipped.
func ResolveRenderConfig(t DocumentType, layers ...[]byte) (RenderConfig, error) {
	cfg, err := DefaultRenderConfig(t)
	if err != nil {
		return nil, err
	}
	for _, layer := range layers {
		trimmed := bytes.TrimSpace(layer)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			continue
		}
		if err := json.Unmarshal(trimmed, cfg); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document configuration")
		}
	}
	return cfg, nil
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssessmentStatus is the publication state of an assessment.
type AssessmentStatus string

const (
	AssessmentStatusDraft     AssessmentStatus = "draft"
	AssessmentStatusPublished AssessmentStatus = "published"
	AssessmentStatusClosed    AssessmentStatus = "closed"
)

// Counts reports whether assessments in this state feed aggregation.
func (s AssessmentStatus) Counts() bool {
	return s == AssessmentStatusPublished || s == AssessmentStatusClosed
}

// Assessment is a gradable event of a classroom subject within a period.
type Assessment struct {
	ID          string           `db:"id" json:"id"`
	SchoolID    string           `db:"school_id" json:"school_id"`
	ClassroomID string           `db:"classroom_id" json:"classroom_id"`
	SubjectID   string           `db:"subject_id" json:"subject_id"`
	PeriodID    string           `db:"period_id" json:"period_id"`
	Title       string           `db:"title" json:"title"`
	MaxScore    decimal.Decimal  `db:"max_score" json:"max_score"`
	Status      AssessmentStatus `db:"status" json:"status"`
}

// StudentGrade is the single live score of an enrollment in an assessment.
type StudentGrade struct {
	ID           string          `db:"id" json:"id"`
	SchoolID     string          `db:"school_id" json:"school_id"`
	AssessmentID string          `db:"assessment_id" json:"assessment_id"`
	EnrollmentID string          `db:"enrollment_id" json:"enrollment_id"`
	Score        decimal.Decimal `db:"score" json:"score"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// GradeAudit records a score change.
type GradeAudit struct {
	ID             string              `db:"id" json:"id"`
	StudentGradeID string              `db:"student_grade_id" json:"student_grade_id"`
	OldScore       decimal.NullDecimal `db:"old_score" json:"old_score"`
	NewScore       decimal.Decimal     `db:"new_score" json:"new_score"`
	ActorID        string              `db:"actor_id" json:"actor_id"`
	ChangedAt      time.Time           `db:"changed_at" json:"changed_at"`
}

// PeriodGrade is a precomputed average of a subject in a period.
type PeriodGrade struct {
	EnrollmentID string          `db:"enrollment_id" json:"enrollment_id"`
	SubjectID    string          `db:"subject_id" json:"subject_id"`
	PeriodID     string          `db:"period_id" json:"period_id"`
	Average      decimal.Decimal `db:"average" json:"average"`
}

// FinalGrade is the externally derived pass/fail verdict. An empty
// SubjectID means the verdict covers the whole enrollment.
type FinalGrade struct {
	EnrollmentID string              `db:"enrollment_id" json:"enrollment_id"`
	SubjectID    string              `db:"subject_id" json:"subject_id,omitempty"`
	Average      decimal.NullDecimal `db:"average" json:"average"`
	Passed       bool                `db:"passed" json:"passed"`
}

// FindFinalGrade prefers a subject specific verdict over an enrollment wide one.
func FindFinalGrade(finals []FinalGrade, subjectID string) *FinalGrade {
	var general *FinalGrade
	for i := range finals {
		switch finals[i].SubjectID {
		case subjectID:
			return &finals[i]
		case "":
			if general == nil {
				general = &finals[i]
			}
		}
	}
	return general
}

// SituationLabel renders a verdict for report tables.
func SituationLabel(final *FinalGrade) string {
	switch {
	case final == nil:
		return "—"
	case final.Passed:
		return "Aprovado"
	default:
		return "Reprovado"
	}
}

package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive      EnrollmentStatus = "active"
	EnrollmentStatusConcluded   EnrollmentStatus = "concluded"
	EnrollmentStatusCancelled   EnrollmentStatus = "cancelled"
	EnrollmentStatusTransferred EnrollmentStatus = "transferred"
	EnrollmentStatusSuspended   EnrollmentStatus = "suspended"
	EnrollmentStatusLocked      EnrollmentStatus = "locked"
)

var enrollmentStatusLabels = map[EnrollmentStatus]string{
	EnrollmentStatusActive:      "Ativa",
	EnrollmentStatusConcluded:   "Concluída",
	EnrollmentStatusCancelled:   "Cancelada",
	EnrollmentStatusTransferred: "Transferida",
	EnrollmentStatusSuspended:   "Suspensa",
	EnrollmentStatusLocked:      "Trancada",
}

// Label is the printable name of the status.
func (s EnrollmentStatus) Label() string {
	if label, ok := enrollmentStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Enrollment binds a student to a classroom for one academic year.
type Enrollment struct {
	ID             string           `db:"id" json:"id"`
	SchoolID       string           `db:"school_id" json:"school_id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	ClassroomID    string           `db:"classroom_id" json:"classroom_id"`
	AcademicYearID string           `db:"academic_year_id" json:"academic_year_id"`
	Number         string           `db:"number" json:"number"`
	Status         EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt     time.Time        `db:"enrolled_at" json:"enrolled_at"`
}

// EnrollmentDetail enriches Enrollment with classroom and year info.
type EnrollmentDetail struct {
	Enrollment
	StudentName   string `db:"student_name" json:"student_name"`
	ClassroomName string `db:"classroom_name" json:"classroom_name"`
	Shift         string `db:"shift" json:"shift"`
	GradeLevel    string `db:"grade_level" json:"grade_level"`
	AcademicYear  int    `db:"academic_year" json:"academic_year"`
}

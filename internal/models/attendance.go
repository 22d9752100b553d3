package models

import "time"

// AttendanceSession is one class meeting.
type AttendanceSession struct {
	ID          string    `db:"id" json:"id"`
	ClassroomID string    `db:"classroom_id" json:"classroom_id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	SubjectName string    `db:"subject_name" json:"subject_name"`
	Date        time.Time `db:"date" json:"date"`
	TotalSlots  *int      `db:"total_slots" json:"total_slots,omitempty"`
}

// Weight is the number of slots the session counts for; missing or
// non-positive values count as one.
func (s AttendanceSession) Weight() int {
	if s.TotalSlots == nil || *s.TotalSlots < 1 {
		return 1
	}
	return *s.TotalSlots
}

// AttendanceRecord is the presence flag of one enrollment in one session.
type AttendanceRecord struct {
	SessionID    string `db:"session_id" json:"session_id"`
	EnrollmentID string `db:"enrollment_id" json:"enrollment_id"`
	Present      bool   `db:"present" json:"present"`
	Justified    bool   `db:"justified" json:"justified"`
}

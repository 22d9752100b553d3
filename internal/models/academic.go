package models

import "time"

// Period is a grading sub-interval of an academic year.
type Period struct {
	ID             string     `db:"id" json:"id"`
	AcademicYearID string     `db:"academic_year_id" json:"academic_year_id"`
	Name           string     `db:"name" json:"name"`
	Sequence       int        `db:"sequence" json:"sequence"`
	StartDate      *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate        *time.Time `db:"end_date" json:"end_date,omitempty"`
}

// ClassSubject is a subject taught in a classroom, with its teacher.
type ClassSubject struct {
	SubjectID   string `db:"subject_id" json:"subject_id"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	Workload    int    `db:"workload" json:"workload"`
}

// ScheduleSlot is one weekly lesson of a classroom.
type ScheduleSlot struct {
	DayOfWeek   int    `db:"day_of_week" json:"day_of_week"`
	StartTime   string `db:"start_time" json:"start_time"`
	EndTime     string `db:"end_time" json:"end_time"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

var weekdayLabels = [...]string{"Domingo", "Segunda-feira", "Terça-feira", "Quarta-feira", "Quinta-feira", "Sexta-feira", "Sábado"}

// DayLabel names the weekday, 0 being Sunday.
func (s ScheduleSlot) DayLabel() string {
	if s.DayOfWeek < 0 || s.DayOfWeek >= len(weekdayLabels) {
		return "—"
	}
	return weekdayLabels[s.DayOfWeek]
}

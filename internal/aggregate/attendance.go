package aggregate

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/sma-records-api/internal/models"
)

// RegularThreshold is the minimum integer attendance rate labelled regular.
const RegularThreshold = 75

var hundred = decimal.NewFromInt(100)

// AttendanceSummary is the weighted attendance of an enrollment. Rate is
// rounded to an integer percent.
type AttendanceSummary struct {
	Total       int
	Present     int
	Absent      int
	Justified   int
	Unjustified int
	Rate        int
}

// Regular reports whether the rate reaches the threshold.
func (s AttendanceSummary) Regular() bool {
	return s.Rate >= RegularThreshold
}

// Situation labels the rate against the threshold.
func (s AttendanceSummary) Situation() string {
	if s.Regular() {
		return fmt.Sprintf("Regular (≥ %d%%)", RegularThreshold)
	}
	return fmt.Sprintf("Irregular (< %d%%)", RegularThreshold)
}

// SubjectAttendance is the weighted attendance of one subject. Rate keeps
// one decimal place.
type SubjectAttendance struct {
	SubjectID   string
	SubjectName string
	Total       int
	Present     int
	Absent      int
	Justified   int
	Rate        decimal.Decimal
}

// RateDisplay formats the rate as "87.5%".
func (s SubjectAttendance) RateDisplay() string {
	return s.Rate.StringFixed(1) + "%"
}

type tally struct {
	total, present, justified int
}

func (t *tally) add(session models.AttendanceSession, record *models.AttendanceRecord) {
	w := session.Weight()
	t.total += w
	switch {
	case record == nil:
	case record.Present:
		t.present += w
	case record.Justified:
		t.justified += w
	}
}

func (t tally) ratio() decimal.Decimal {
	if t.total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(t.present)).Mul(hundred).Div(decimal.NewFromInt(int64(t.total)))
}

func recordsFor(enrollmentID string, records []models.AttendanceRecord) map[string]*models.AttendanceRecord {
	out := make(map[string]*models.AttendanceRecord, len(records))
	for i := range records {
		if records[i].EnrollmentID == enrollmentID {
			out[records[i].SessionID] = &records[i]
		}
	}
	return out
}

// Attendance summarises the sessions of an enrollment. Sessions without a
// record count as unjustified absences.
func Attendance(enrollmentID string, sessions []models.AttendanceSession, records []models.AttendanceRecord) AttendanceSummary {
	byID := recordsFor(enrollmentID, records)
	var t tally
	for _, s := range sessions {
		t.add(s, byID[s.ID])
	}
	absent := t.total - t.present
	return AttendanceSummary{
		Total:       t.total,
		Present:     t.present,
		Absent:      absent,
		Justified:   t.justified,
		Unjustified: absent - t.justified,
		Rate:        int(t.ratio().Round(0).IntPart()),
	}
}

// AttendanceBySubject groups sessions by subject and applies the same
// weighting. Results are ordered by subject name.
func AttendanceBySubject(enrollmentID string, sessions []models.AttendanceSession, records []models.AttendanceRecord) []SubjectAttendance {
	byID := recordsFor(enrollmentID, records)
	tallies := map[string]*tally{}
	names := map[string]string{}
	for _, s := range sessions {
		t, ok := tallies[s.SubjectID]
		if !ok {
			t = &tally{}
			tallies[s.SubjectID] = t
			names[s.SubjectID] = s.SubjectName
		}
		t.add(s, byID[s.ID])
	}

	out := make([]SubjectAttendance, 0, len(tallies))
	for subjectID, t := range tallies {
		out = append(out, SubjectAttendance{
			SubjectID:   subjectID,
			SubjectName: names[subjectID],
			Total:       t.total,
			Present:     t.present,
			Absent:      t.total - t.present,
			Justified:   t.justified,
			Rate:        t.ratio().Round(1),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubjectName != out[j].SubjectName {
			return out[i].SubjectName < out[j].SubjectName
		}
		return out[i].SubjectID < out[j].SubjectID
	})
	return out
}

package aggregate

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-records-api/internal/models"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func slots(n int) *int { return &n }

func exampleBook() Gradebook {
	return Gradebook{
		EnrollmentID: "enr-1",
		Assessments: []models.Assessment{
			{ID: "a1", SubjectID: "math", PeriodID: "p2", MaxScore: dec("10"), Status: models.AssessmentStatusPublished},
			{ID: "a2", SubjectID: "math", PeriodID: "p2", MaxScore: dec("10"), Status: models.AssessmentStatusClosed},
			{ID: "a3", SubjectID: "math", PeriodID: "p2", MaxScore: dec("10"), Status: models.AssessmentStatusDraft},
			{ID: "a4", SubjectID: "math", PeriodID: "p2", MaxScore: dec("10"), Status: models.AssessmentStatusPublished},
		},
		Grades: []models.StudentGrade{
			{AssessmentID: "a1", EnrollmentID: "enr-1", Score: dec("6")},
			{AssessmentID: "a2", EnrollmentID: "enr-1", Score: dec("8")},
			{AssessmentID: "a3", EnrollmentID: "enr-1", Score: dec("0")},
			{AssessmentID: "a4", EnrollmentID: "enr-2", Score: dec("1")},
		},
		PeriodGrades: []models.PeriodGrade{
			{EnrollmentID: "enr-1", SubjectID: "math", PeriodID: "p1", Average: dec("7.0")},
		},
	}
}

func TestGradebookExample(t *testing.T) {
	book := exampleBook()

	p1 := book.SubjectPeriod("math", "p1")
	require.True(t, p1.Valid)
	assert.Equal(t, "7.0", p1.Display())

	p2 := book.SubjectPeriod("math", "p2")
	require.True(t, p2.Valid)
	assert.True(t, p2.Value.Equal(dec("7")), "draft and foreign scores are ignored")

	final := book.Final("math", []string{"p1", "p2"})
	assert.Equal(t, "7.0", final.Display())
}

func TestGradebookPrecomputedWins(t *testing.T) {
	book := exampleBook()
	book.PeriodGrades = append(book.PeriodGrades, models.PeriodGrade{EnrollmentID: "enr-1", SubjectID: "math", PeriodID: "p2", Average: dec("9.25")})

	avg := book.SubjectPeriod("math", "p2")
	assert.True(t, avg.Value.Equal(dec("9.25")))
}

func TestGradebookRoundTrip(t *testing.T) {
	raw := exampleBook()
	computed := raw.SubjectPeriod("math", "p2")

	stored := exampleBook()
	stored.PeriodGrades = append(stored.PeriodGrades, models.PeriodGrade{EnrollmentID: "enr-1", SubjectID: "math", PeriodID: "p2", Average: computed.Value})
	assert.True(t, stored.SubjectPeriod("math", "p2").Value.Equal(computed.Value))
}

func TestGradebookNoData(t *testing.T) {
	book := exampleBook()
	avg := book.SubjectPeriod("history", "p1")
	assert.False(t, avg.Valid)
	assert.Equal(t, NoData, avg.Display())

	assert.False(t, book.Final("history", []string{"p1", "p2"}).Valid)
	assert.False(t, book.Final("math", nil).Valid)
}

func TestGradebookOrderIndependent(t *testing.T) {
	book := exampleBook()
	want := book.SubjectPeriod("math", "p2")

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		rng.Shuffle(len(book.Assessments), func(a, b int) { book.Assessments[a], book.Assessments[b] = book.Assessments[b], book.Assessments[a] })
		rng.Shuffle(len(book.Grades), func(a, b int) { book.Grades[a], book.Grades[b] = book.Grades[b], book.Grades[a] })
		assert.True(t, book.SubjectPeriod("math", "p2").Value.Equal(want.Value))
	}
}

func TestAverageDisplayRounding(t *testing.T) {
	avg := Mean([]decimal.Decimal{dec("7"), dec("8"), dec("8")})
	assert.Equal(t, "7.7", avg.Display())
	assert.Equal(t, "6.5", Average{Value: dec("6.45"), Valid: true}.Display())
}

func sessionsOf(n int, subject string, weight *int) []models.AttendanceSession {
	out := make([]models.AttendanceSession, n)
	for i := range out {
		out[i] = models.AttendanceSession{ID: subject + "-" + string(rune('a'+i)), SubjectID: subject, SubjectName: subject, TotalSlots: weight}
	}
	return out
}

func TestAttendanceExample(t *testing.T) {
	sessions := sessionsOf(10, "math", slots(2))
	var records []models.AttendanceRecord
	for i, s := range sessions {
		records = append(records, models.AttendanceRecord{SessionID: s.ID, EnrollmentID: "enr-1", Present: i != 0})
	}

	summary := Attendance("enr-1", sessions, records)
	assert.Equal(t, 20, summary.Total)
	assert.Equal(t, 18, summary.Present)
	assert.Equal(t, 90, summary.Rate)
	assert.True(t, summary.Regular())
	assert.Equal(t, "Regular (≥ 75%)", summary.Situation())
}

func TestAttendanceEmpty(t *testing.T) {
	summary := Attendance("enr-1", nil, nil)
	assert.Equal(t, 0, summary.Rate)
	assert.Equal(t, 0, summary.Total)
	assert.False(t, summary.Regular())
}

func TestAttendanceDefaultWeight(t *testing.T) {
	sessions := []models.AttendanceSession{
		{ID: "s1", SubjectID: "math", TotalSlots: nil},
		{ID: "s2", SubjectID: "math", TotalSlots: slots(0)},
		{ID: "s3", SubjectID: "math", TotalSlots: slots(-3)},
		{ID: "s4", SubjectID: "math", TotalSlots: slots(3)},
	}
	records := []models.AttendanceRecord{{SessionID: "s4", EnrollmentID: "enr-1", Present: true}}
	summary := Attendance("enr-1", sessions, records)
	assert.Equal(t, 6, summary.Total)
	assert.Equal(t, 3, summary.Present)
	assert.Equal(t, 50, summary.Rate)
}

func TestAttendanceJustifiedSplit(t *testing.T) {
	sessions := sessionsOf(4, "art", nil)
	records := []models.AttendanceRecord{
		{SessionID: sessions[0].ID, EnrollmentID: "enr-1", Present: true},
		{SessionID: sessions[1].ID, EnrollmentID: "enr-1", Justified: true},
		{SessionID: sessions[2].ID, EnrollmentID: "enr-1"},
		{SessionID: sessions[3].ID, EnrollmentID: "enr-2", Present: true},
	}
	summary := Attendance("enr-1", sessions, records)
	assert.Equal(t, 3, summary.Absent)
	assert.Equal(t, 1, summary.Justified)
	assert.Equal(t, 2, summary.Unjustified)
	assert.Equal(t, 25, summary.Rate)
}

func TestAttendanceRateBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := rng.Intn(15)
		sessions := sessionsOf(n, "math", slots(rng.Intn(4)))
		var records []models.AttendanceRecord
		for _, s := range sessions {
			records = append(records, models.AttendanceRecord{SessionID: s.ID, EnrollmentID: "enr-1", Present: rng.Intn(2) == 0})
		}
		summary := Attendance("enr-1", sessions, records)
		assert.GreaterOrEqual(t, summary.Rate, 0)
		assert.LessOrEqual(t, summary.Rate, 100)
		for _, sub := range AttendanceBySubject("enr-1", sessions, records) {
			assert.True(t, sub.Rate.GreaterThanOrEqual(decimal.Zero))
			assert.True(t, sub.Rate.LessThanOrEqual(hundred))
		}
	}
}

// The summary rounds to an integer while the per-subject table keeps one
// decimal. At 74.5% the two disagree about the 75% threshold; both values
// are kept as computed.
func TestAttendanceRoundingAsymmetry(t *testing.T) {
	sessions := []models.AttendanceSession{
		{ID: "s1", SubjectID: "math", SubjectName: "Matemática", TotalSlots: slots(149)},
		{ID: "s2", SubjectID: "math", SubjectName: "Matemática", TotalSlots: slots(51)},
	}
	records := []models.AttendanceRecord{
		{SessionID: "s1", EnrollmentID: "enr-1", Present: true},
		{SessionID: "s2", EnrollmentID: "enr-1"},
	}

	summary := Attendance("enr-1", sessions, records)
	require.Equal(t, 200, summary.Total)
	require.Equal(t, 149, summary.Present)
	assert.Equal(t, 75, summary.Rate)
	assert.True(t, summary.Regular())

	bySubject := AttendanceBySubject("enr-1", sessions, records)
	require.Len(t, bySubject, 1)
	assert.Equal(t, "74.5%", bySubject[0].RateDisplay())
	assert.True(t, bySubject[0].Rate.LessThan(decimal.NewFromInt(RegularThreshold)))
}

func TestAttendanceBySubjectGroups(t *testing.T) {
	sessions := append(sessionsOf(3, "math", nil), sessionsOf(2, "art", nil)...)
	records := []models.AttendanceRecord{
		{SessionID: sessions[0].ID, EnrollmentID: "enr-1", Present: true},
		{SessionID: sessions[1].ID, EnrollmentID: "enr-1", Present: true},
		{SessionID: sessions[3].ID, EnrollmentID: "enr-1", Justified: true},
	}
	got := AttendanceBySubject("enr-1", sessions, records)
	require.Len(t, got, 2)
	assert.Equal(t, "art", got[0].SubjectID)
	assert.Equal(t, "0.0%", got[0].RateDisplay())
	assert.Equal(t, 1, got[0].Justified)
	assert.Equal(t, "math", got[1].SubjectID)
	assert.Equal(t, "66.7%", got[1].RateDisplay())
	assert.Equal(t, 67, Attendance("enr-1", sessions[:3], records).Rate)
}

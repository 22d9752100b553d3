// Package aggregate derives period averages, final averages and attendance
// rates from raw academic records. Functions are pure: results do not
// depend on input order and nothing here touches storage or rendering.
package aggregate

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/sma-records-api/internal/models"
)

// NoData is printed in place of an absent average.
const NoData = "—"

// Average is a mean score; Valid is false when there was nothing to average.
type Average struct {
	Value decimal.Decimal
	Valid bool
}

// Display formats the average with one decimal place.
func (a Average) Display() string {
	if !a.Valid {
		return NoData
	}
	return a.Value.StringFixed(1)
}

// Mean averages values, returning an invalid Average for an empty input.
func Mean(values []decimal.Decimal) Average {
	if len(values) == 0 {
		return Average{}
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return Average{Value: sum.Div(decimal.NewFromInt(int64(len(values)))), Valid: true}
}

// Gradebook holds the grading rows of one enrollment.
type Gradebook struct {
	EnrollmentID string
	Assessments  []models.Assessment
	Grades       []models.StudentGrade
	PeriodGrades []models.PeriodGrade
}

// SubjectPeriod returns the precomputed period grade when one exists,
// otherwise the mean of the recorded scores of published or closed
// assessments of the subject in the period.
func (g Gradebook) SubjectPeriod(subjectID, periodID string) Average {
	for _, pg := range g.PeriodGrades {
		if pg.EnrollmentID == g.EnrollmentID && pg.SubjectID == subjectID && pg.PeriodID == periodID {
			return Average{Value: pg.Average, Valid: true}
		}
	}

	scores := make(map[string]decimal.Decimal, len(g.Grades))
	for _, grade := range g.Grades {
		if grade.EnrollmentID == g.EnrollmentID {
			scores[grade.AssessmentID] = grade.Score
		}
	}

	var values []decimal.Decimal
	for _, a := range g.Assessments {
		if a.SubjectID != subjectID || a.PeriodID != periodID || !a.Status.Counts() {
			continue
		}
		if score, ok := scores[a.ID]; ok {
			values = append(values, score)
		}
	}
	return Mean(values)
}

// Final averages the subject's period averages over periodIDs, ignoring
// periods without data.
func (g Gradebook) Final(subjectID string, periodIDs []string) Average {
	averages := make([]Average, 0, len(periodIDs))
	for _, periodID := range periodIDs {
		averages = append(averages, g.SubjectPeriod(subjectID, periodID))
	}
	return FinalAverage(averages)
}

// FinalAverage is the mean of the valid averages.
func FinalAverage(averages []Average) Average {
	values := make([]decimal.Decimal, 0, len(averages))
	for _, a := range averages {
		if a.Valid {
			values = append(values, a.Value)
		}
	}
	return Mean(values)
}

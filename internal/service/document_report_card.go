package service

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-records-api/internal/aggregate"
	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
	"github.com/noah-isme/sma-records-api/pkg/pdf"
)

type reportCardRenderer struct {
	env *renderEnv
}

func (r *reportCardRenderer) Type() models.DocumentType { return models.DocumentTypeReportCard }

type reportCardData struct {
	enrollment *models.EnrollmentDetail
	periods    []models.Period
	subjects   []models.ClassSubject
	book       aggregate.Gradebook
	finals     []models.FinalGrade
	sessions   []models.AttendanceSession
	records    []models.AttendanceRecord
}

func (r *reportCardRenderer) Prepare(ctx context.Context, req renderRequest) (*renderPlan, error) {
	cfg := req.Config.(*models.ReportCardConfig)
	plan := r.env.newPlan(req)
	src := r.env.src
	d := reportCardData{book: aggregate.Gradebook{EnrollmentID: req.EnrollmentID}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(r.env.loadSchool(gctx, req.SchoolID, plan))
	g.Go(func() error {
		enrollment, err := src.Enrollments.FindDetailByID(gctx, req.SchoolID, req.EnrollmentID)
		if err != nil {
			return lookupError(err, "enrollment")
		}
		d.enrollment = enrollment
		return nil
	})
	g.Go(func() (err error) {
		d.book.Grades, err = src.Grades.ListGrades(gctx, req.SchoolID, req.EnrollmentID)
		return wrapList(err, "grades")
	})
	g.Go(func() (err error) {
		d.book.PeriodGrades, err = src.Grades.ListPeriodGrades(gctx, req.SchoolID, req.EnrollmentID)
		return wrapList(err, "period grades")
	})
	g.Go(func() (err error) {
		d.finals, err = src.Grades.ListFinalGrades(gctx, req.SchoolID, req.EnrollmentID)
		return wrapList(err, "final grades")
	})
	g.Go(func() (err error) {
		d.records, err = src.Attendance.ListRecords(gctx, req.SchoolID, req.EnrollmentID)
		return wrapList(err, "attendance records")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	classroomID := d.enrollment.ClassroomID
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.periods, err = src.Academics.ListPeriods(gctx, req.SchoolID, d.enrollment.AcademicYearID)
		return wrapList(err, "periods")
	})
	g.Go(func() (err error) {
		d.subjects, err = src.Academics.ListClassSubjects(gctx, req.SchoolID, classroomID)
		return wrapList(err, "subjects")
	})
	g.Go(func() (err error) {
		d.book.Assessments, err = src.Grades.ListAssessments(gctx, req.SchoolID, classroomID)
		return wrapList(err, "assessments")
	})
	g.Go(func() (err error) {
		d.sessions, err = src.Attendance.ListSessions(gctx, req.SchoolID, classroomID)
		return wrapList(err, "attendance sessions")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	periods := d.periods
	if cfg.PeriodID != "" {
		periods = nil
		for _, p := range d.periods {
			if p.ID == cfg.PeriodID {
				periods = append(periods, p)
			}
		}
		if len(periods) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "period does not belong to the enrollment academic year")
		}
	}

	e := d.enrollment
	plan.Subtitle = fmt.Sprintf("Ano letivo %d · %s", e.AcademicYear, e.ClassroomName)
	if cfg.PeriodID != "" {
		plan.Subtitle += " · " + periods[0].Name
	}

	plan.add(func(c *pdf.Canvas) {
		c.SectionTitle("Dados do aluno")
		c.InfoGrid([]pdf.Field{
			{Label: "Aluno", Value: e.StudentName},
			{Label: "Matrícula", Value: e.Number},
			{Label: "Turma", Value: e.ClassroomName},
			{Label: "Turno", Value: e.Shift},
			{Label: "Ano letivo", Value: strconv.Itoa(e.AcademicYear)},
			{Label: "Situação da matrícula", Value: e.Status.Label()},
		}, 3)
	})

	bySubject := map[string]aggregate.SubjectAttendance{}
	for _, a := range aggregate.AttendanceBySubject(req.EnrollmentID, d.sessions, d.records) {
		bySubject[a.SubjectID] = a
	}
	plan.add(func(c *pdf.Canvas) {
		c.SectionTitle("Rendimento escolar")
		c.Table(reportCardColumns(periods, cfg), reportCardRows(d, periods, cfg, bySubject), pdf.TableOptions{
			EmptyText: "Nenhuma disciplina vinculada à turma.",
			Zebra:     true,
		})
	})

	summary := aggregate.Attendance(req.EnrollmentID, d.sessions, d.records)
	plan.addIf(cfg.ShowFrequency, func(c *pdf.Canvas) {
		c.SectionTitle("Frequência")
		c.InfoGrid([]pdf.Field{
			{Label: "Aulas previstas", Value: strconv.Itoa(summary.Total)},
			{Label: "Presenças", Value: strconv.Itoa(summary.Present)},
			{Label: "Faltas", Value: strconv.Itoa(summary.Absent)},
			{Label: "Faltas justificadas", Value: strconv.Itoa(summary.Justified)},
			{Label: "Frequência", Value: fmt.Sprintf("%d%%", summary.Rate)},
			{Label: "Situação", Value: summary.Situation()},
		}, 3)
	})

	plan.addIf(cfg.ShowSignatureLines, func(c *pdf.Canvas) {
		c.Space(8)
		c.SignatureLines([]string{"Direção", "Secretaria", "Responsável"})
	})
	return plan, nil
}

func reportCardColumns(periods []models.Period, cfg *models.ReportCardConfig) []pdf.Column {
	cols := []pdf.Column{{Header: "Disciplina", Weight: 3}}
	for _, p := range periods {
		cols = append(cols, pdf.Column{Header: p.Name, Weight: 1, Align: pdf.AlignCenter})
	}
	if cfg.ShowFinalGrade {
		cols = append(cols, pdf.Column{Header: "Média final", Weight: 1.2, Align: pdf.AlignCenter})
	}
	if cfg.ShowSituation {
		cols = append(cols, pdf.Column{Header: "Situação", Weight: 1.4, Align: pdf.AlignCenter})
	}
	if cfg.ShowFrequency {
		cols = append(cols, pdf.Column{Header: "Frequência", Weight: 1.2, Align: pdf.AlignCenter})
	}
	return cols
}

func reportCardRows(d reportCardData, periods []models.Period, cfg *models.ReportCardConfig, attendance map[string]aggregate.SubjectAttendance) [][]string {
	periodIDs := make([]string, len(periods))
	for i, p := range periods {
		periodIDs[i] = p.ID
	}
	rows := make([][]string, 0, len(d.subjects))
	for _, subject := range d.subjects {
		row := []string{subject.SubjectName}
		for _, id := range periodIDs {
			row = append(row, d.book.SubjectPeriod(subject.SubjectID, id).Display())
		}
		if cfg.ShowFinalGrade {
			row = append(row, d.book.Final(subject.SubjectID, periodIDs).Display())
		}
		if cfg.ShowSituation {
			row = append(row, models.SituationLabel(models.FindFinalGrade(d.finals, subject.SubjectID)))
		}
		if cfg.ShowFrequency {
			freq := pdf.Placeholder
			if a, ok := attendance[subject.SubjectID]; ok && a.Total > 0 {
				freq = a.RateDisplay()
			}
			row = append(row, freq)
		}
		rows = append(rows, row)
	}
	return rows
}

// wrapList passes nil through and wraps list query failures.
func wrapList(err error, what string) error {
	if err == nil {
		return nil
	}
	return listError(err, what)
}

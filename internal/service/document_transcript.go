package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-records-api/internal/aggregate"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/pkg/pdf"
)

// transcriptFetchLimit caps concurrent per-year loads.
const transcriptFetchLimit = 4

type transcriptRenderer struct {
	env *renderEnv
}

func (r *transcriptRenderer) Type() models.DocumentType { return models.DocumentTypeTranscript }

type transcriptYear struct {
	enrollment models.EnrollmentDetail
	periods    []models.Period
	subjects   []models.ClassSubject
	book       aggregate.Gradebook
	finals     []models.FinalGrade
}

func (r *transcriptRenderer) Prepare(ctx context.Context, req renderRequest) (*renderPlan, error) {
	cfg := req.Config.(*models.TranscriptConfig)
	plan := r.env.newPlan(req)
	src := r.env.src

	var (
		student     *models.Student
		enrollments []models.EnrollmentDetail
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(r.env.loadSchool(gctx, req.SchoolID, plan))
	g.Go(func() error {
		found, err := src.Students.FindByID(gctx, req.SchoolID, req.StudentID)
		if err != nil {
			return lookupError(err, "student")
		}
		student = found
		return nil
	})
	g.Go(func() (err error) {
		enrollments, err = src.Enrollments.ListByStudent(gctx, req.SchoolID, req.StudentID)
		return wrapList(err, "enrollments")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	years := make([]transcriptYear, len(enrollments))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(transcriptFetchLimit)
	for i := range enrollments {
		y := &years[i]
		y.enrollment = enrollments[i]
		y.book.EnrollmentID = enrollments[i].ID
		g.Go(func() error { return r.loadYear(gctx, req.SchoolID, y) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	plan.Subtitle = student.FullName

	plan.add(func(c *pdf.Canvas) {
		c.SectionTitle("Identificação do aluno")
		c.InfoGrid([]pdf.Field{
			{Label: "Nome", Value: student.FullName},
			{Label: "CPF", Value: student.CPF},
			{Label: "RG", Value: student.RG},
			{Label: "Data de nascimento", Value: shortDate(student.BirthDate)},
			{Label: "Naturalidade", Value: student.Birthplace},
			{Label: "Nacionalidade", Value: student.Nationality},
		}, 3)
	})

	if len(years) == 0 {
		plan.add(func(c *pdf.Canvas) {
			c.TextLine("Nenhuma matrícula registrada para o aluno.", pdf.StyleItalic, 10, pdf.AlignLeft)
		})
	}
	for i := range years {
		y := years[i]
		plan.add(func(c *pdf.Canvas) { drawTranscriptYear(c, y) })
	}

	plan.addIf(cfg.ShowObservations, func(c *pdf.Canvas) {
		c.SectionTitle("Observações")
		text := strings.TrimSpace(req.Observations)
		if text == "" {
			text = "Sem observações."
		}
		c.Paragraphs(text, 10)
	})

	plan.addIf(cfg.ShowSignatureLines, func(c *pdf.Canvas) {
		c.Space(8)
		c.SignatureLines([]string{"Secretário(a) escolar", "Diretor(a)"})
	})
	return plan, nil
}

func (r *transcriptRenderer) loadYear(ctx context.Context, schoolID string, y *transcriptYear) error {
	src := r.env.src
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		y.periods, err = src.Academics.ListPeriods(gctx, schoolID, y.enrollment.AcademicYearID)
		return wrapList(err, "periods")
	})
	g.Go(func() (err error) {
		y.subjects, err = src.Academics.ListClassSubjects(gctx, schoolID, y.enrollment.ClassroomID)
		return wrapList(err, "subjects")
	})
	g.Go(func() (err error) {
		y.book.Assessments, err = src.Grades.ListAssessments(gctx, schoolID, y.enrollment.ClassroomID)
		return wrapList(err, "assessments")
	})
	g.Go(func() (err error) {
		y.book.Grades, err = src.Grades.ListGrades(gctx, schoolID, y.enrollment.ID)
		return wrapList(err, "grades")
	})
	g.Go(func() (err error) {
		y.book.PeriodGrades, err = src.Grades.ListPeriodGrades(gctx, schoolID, y.enrollment.ID)
		return wrapList(err, "period grades")
	})
	g.Go(func() (err error) {
		y.finals, err = src.Grades.ListFinalGrades(gctx, schoolID, y.enrollment.ID)
		return wrapList(err, "final grades")
	})
	return g.Wait()
}

func drawTranscriptYear(c *pdf.Canvas, y transcriptYear) {
	e := y.enrollment
	c.SectionTitle(fmt.Sprintf("Ano letivo %d · %s", e.AcademicYear, e.ClassroomName))
	status := "Situação da matrícula: " + e.Status.Label()
	if len(y.subjects) == 0 {
		c.TextLine(status+" (sem disciplinas registradas no ano).", pdf.StyleItalic, 10, pdf.AlignLeft)
		c.Space(3)
		return
	}

	periodIDs := make([]string, len(y.periods))
	for i, p := range y.periods {
		periodIDs[i] = p.ID
	}
	rows := make([][]string, 0, len(y.subjects))
	for _, s := range y.subjects {
		workload := pdf.Placeholder
		if s.Workload > 0 {
			workload = fmt.Sprintf("%d h", s.Workload)
		}
		rows = append(rows, []string{
			s.SubjectName,
			workload,
			y.book.Final(s.SubjectID, periodIDs).Display(),
			models.SituationLabel(models.FindFinalGrade(y.finals, s.SubjectID)),
		})
	}
	c.Table([]pdf.Column{
		{Header: "Disciplina", Weight: 3},
		{Header: "Carga horária", Weight: 1, Align: pdf.AlignCenter},
		{Header: "Média final", Weight: 1, Align: pdf.AlignCenter},
		{Header: "Situação", Weight: 1.2, Align: pdf.AlignCenter},
	}, rows, pdf.TableOptions{Zebra: true})
	c.TextLine(status, pdf.StyleRegular, 9, pdf.AlignLeft)
	c.Space(3)
}

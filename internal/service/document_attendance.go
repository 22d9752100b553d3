package service

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-records-api/internal/aggregate"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/pkg/pdf"
)

type attendanceDeclarationRenderer struct {
	env *renderEnv
}

func (r *attendanceDeclarationRenderer) Type() models.DocumentType {
	return models.DocumentTypeAttendanceDeclaration
}

func (r *attendanceDeclarationRenderer) Prepare(ctx context.Context, req renderRequest) (*renderPlan, error) {
	cfg := req.Config.(*models.AttendanceDeclarationConfig)
	plan := r.env.newPlan(req)
	src := r.env.src

	var (
		enrollment *models.EnrollmentDetail
		records    []models.AttendanceRecord
		sessions   []models.AttendanceSession
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(r.env.loadSchool(gctx, req.SchoolID, plan))
	g.Go(func() error {
		found, err := src.Enrollments.FindDetailByID(gctx, req.SchoolID, req.EnrollmentID)
		if err != nil {
			return lookupError(err, "enrollment")
		}
		enrollment = found
		return nil
	})
	g.Go(func() (err error) {
		records, err = src.Attendance.ListRecords(gctx, req.SchoolID, req.EnrollmentID)
		return wrapList(err, "attendance records")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sessions, err := src.Attendance.ListSessions(ctx, req.SchoolID, enrollment.ClassroomID)
	if err != nil {
		return nil, listError(err, "attendance sessions")
	}

	summary := aggregate.Attendance(enrollment.ID, sessions, records)
	bySubject := aggregate.AttendanceBySubject(enrollment.ID, sessions, records)
	today := r.env.today()
	plan.Subtitle = fmt.Sprintf("Ano letivo %d", enrollment.AcademicYear)

	plan.add(func(c *pdf.Canvas) {
		c.SectionTitle("Dados do aluno")
		c.InfoGrid([]pdf.Field{
			{Label: "Aluno", Value: enrollment.StudentName},
			{Label: "Matrícula", Value: enrollment.Number},
			{Label: "Turma", Value: enrollment.ClassroomName},
			{Label: "Ano letivo", Value: strconv.Itoa(enrollment.AcademicYear)},
		}, 2)
	})

	plan.add(func(c *pdf.Canvas) {
		c.SectionTitle("Resumo de frequência")
		c.InfoGrid([]pdf.Field{
			{Label: "Aulas previstas", Value: strconv.Itoa(summary.Total)},
			{Label: "Presenças", Value: strconv.Itoa(summary.Present)},
			{Label: "Faltas", Value: strconv.Itoa(summary.Absent)},
			{Label: "Faltas justificadas", Value: strconv.Itoa(summary.Justified)},
			{Label: "Faltas não justificadas", Value: strconv.Itoa(summary.Unjustified)},
			{Label: "Frequência", Value: fmt.Sprintf("%d%%", summary.Rate)},
			{Label: "Situação", Value: summary.Situation()},
		}, 3)
	})

	plan.add(func(c *pdf.Canvas) {
		c.Space(2)
		c.Paragraphs(attendanceStatement(enrollment, summary), 11)
		c.TextLine(placeAndDate(plan.School, today), pdf.StyleRegular, 10, pdf.AlignRight)
		c.Space(3)
	})

	plan.addIf(cfg.ShowBySubject, func(c *pdf.Canvas) {
		c.SectionTitle("Frequência por disciplina")
		rows := make([][]string, 0, len(bySubject))
		for _, s := range bySubject {
			rows = append(rows, []string{
				s.SubjectName,
				strconv.Itoa(s.Total),
				strconv.Itoa(s.Present),
				strconv.Itoa(s.Absent),
				strconv.Itoa(s.Justified),
				s.RateDisplay(),
			})
		}
		c.Table([]pdf.Column{
			{Header: "Disciplina", Weight: 3},
			{Header: "Aulas", Weight: 1, Align: pdf.AlignCenter},
			{Header: "Presenças", Weight: 1, Align: pdf.AlignCenter},
			{Header: "Faltas", Weight: 1, Align: pdf.AlignCenter},
			{Header: "Justificadas", Weight: 1.2, Align: pdf.AlignCenter},
			{Header: "Frequência", Weight: 1.2, Align: pdf.AlignCenter},
		}, rows, pdf.TableOptions{EmptyText: "Nenhuma aula registrada.", Zebra: true})
	})

	plan.addIf(cfg.ShowSignatureLines, func(c *pdf.Canvas) {
		c.Space(8)
		c.SignatureLines([]string{"Secretaria escolar", "Direção"})
	})
	return plan, nil
}

func attendanceStatement(e *models.EnrollmentDetail, s aggregate.AttendanceSummary) string {
	situation := "irregular"
	if s.Regular() {
		situation = "regular"
	}
	return fmt.Sprintf("Declaramos, para os devidos fins, que %s, matrícula nº %s, aluno(a) da turma %s no ano letivo de %d, "+
		"apresenta frequência de %d%% às aulas ministradas até a presente data, situação considerada %s.",
		e.StudentName, e.Number, e.ClassroomName, e.AcademicYear, s.Rate, situation)
}

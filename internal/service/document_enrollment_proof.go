package service

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/pkg/pdf"
)

type enrollmentProofRenderer struct {
	env *renderEnv
}

func (r *enrollmentProofRenderer) Type() models.DocumentType { return models.DocumentTypeEnrollmentProof }

func (r *enrollmentProofRenderer) Prepare(ctx context.Context, req renderRequest) (*renderPlan, error) {
	cfg := req.Config.(*models.EnrollmentProofConfig)
	plan := r.env.newPlan(req)
	src := r.env.src

	var enrollment *models.EnrollmentDetail
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
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		student   *models.Student
		guardians []models.Guardian
		subjects  []models.ClassSubject
		schedule  []models.ScheduleSlot
	)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := src.Students.FindByID(gctx, req.SchoolID, enrollment.StudentID)
		if err != nil {
			return lookupError(err, "student")
		}
		student = found
		return nil
	})
	if cfg.ShowGuardian {
		g.Go(func() (err error) {
			guardians, err = src.Students.ListGuardians(gctx, req.SchoolID, enrollment.StudentID)
			return wrapList(err, "guardians")
		})
	}
	if cfg.ShowSubjects {
		g.Go(func() (err error) {
			subjects, err = src.Academics.ListClassSubjects(gctx, req.SchoolID, enrollment.ClassroomID)
			return wrapList(err, "subjects")
		})
	}
	if cfg.ShowSchedule {
		g.Go(func() (err error) {
			schedule, err = src.Academics.ListSchedule(gctx, req.SchoolID, enrollment.ClassroomID)
			return wrapList(err, "schedule")
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	plan.Subtitle = fmt.Sprintf("Ano letivo %d", enrollment.AcademicYear)
	today := r.env.today()

	plan.add(func(c *pdf.Canvas) {
		c.SectionTitle("Dados do aluno")
		c.InfoGrid([]pdf.Field{
			{Label: "Nome", Value: student.FullName},
			{Label: "CPF", Value: student.CPF},
			{Label: "RG", Value: student.RG},
			{Label: "Data de nascimento", Value: shortDate(student.BirthDate)},
		}, 2)
	})

	plan.add(func(c *pdf.Canvas) {
		c.SectionTitle("Dados da matrícula")
		c.InfoGrid([]pdf.Field{
			{Label: "Número", Value: enrollment.Number},
			{Label: "Turma", Value: enrollment.ClassroomName},
			{Label: "Série", Value: enrollment.GradeLevel},
			{Label: "Turno", Value: enrollment.Shift},
			{Label: "Ano letivo", Value: strconv.Itoa(enrollment.AcademicYear)},
			{Label: "Situação", Value: enrollment.Status.Label()},
			{Label: "Data da matrícula", Value: shortDate(&enrollment.EnrolledAt)},
		}, 3)
		c.Paragraphs(enrollmentStatement(student, enrollment, plan.schoolName()), 10)
		c.TextLine(placeAndDate(plan.School, today), pdf.StyleRegular, 10, pdf.AlignRight)
	})

	plan.addIf(cfg.ShowGuardian, func(c *pdf.Canvas) {
		c.SectionTitle("Responsável")
		guardian := models.PrimaryGuardian(guardians)
		if guardian == nil {
			guardian = &models.Guardian{}
		}
		c.InfoGrid([]pdf.Field{
			{Label: "Nome", Value: guardian.FullName},
			{Label: "Parentesco", Value: guardian.Relationship},
			{Label: "CPF", Value: guardian.CPF},
			{Label: "Telefone", Value: guardian.Phone},
		}, 2)
	})

	plan.addIf(cfg.ShowSubjects, func(c *pdf.Canvas) {
		c.SectionTitle("Disciplinas")
		rows := make([][]string, 0, len(subjects))
		for _, s := range subjects {
			workload := pdf.Placeholder
			if s.Workload > 0 {
				workload = fmt.Sprintf("%d h", s.Workload)
			}
			rows = append(rows, []string{s.SubjectName, orPlaceholder(s.TeacherName), workload})
		}
		c.Table([]pdf.Column{
			{Header: "Disciplina", Weight: 2},
			{Header: "Professor(a)", Weight: 2},
			{Header: "Carga horária", Weight: 1, Align: pdf.AlignCenter},
		}, rows, pdf.TableOptions{EmptyText: "Nenhuma disciplina vinculada à turma.", Zebra: true})
	})

	plan.addIf(cfg.ShowSchedule, func(c *pdf.Canvas) {
		c.SectionTitle("Horário semanal")
		c.Table([]pdf.Column{
			{Header: "Dia", Weight: 1.4},
			{Header: "Horário", Weight: 1.2, Align: pdf.AlignCenter},
			{Header: "Disciplina", Weight: 2},
			{Header: "Professor(a)", Weight: 2},
		}, scheduleRows(schedule), pdf.TableOptions{EmptyText: "Horário não cadastrado."})
	})

	plan.addIf(cfg.ShowSignatureLines, func(c *pdf.Canvas) {
		c.Space(8)
		c.SignatureLines([]string{"Secretaria escolar", "Direção"})
	})
	return plan, nil
}

func enrollmentStatement(student *models.Student, e *models.EnrollmentDetail, schoolName string) string {
	if e.Status != models.EnrollmentStatusActive {
		return fmt.Sprintf("Declaramos, para os devidos fins, que %s esteve matriculado(a) nesta instituição na turma %s, ano letivo de %d, sob o número %s, encontrando-se atualmente com a matrícula na situação: %s.",
			student.FullName, e.ClassroomName, e.AcademicYear, e.Number, e.Status.Label())
	}
	where := "nesta instituição"
	if schoolName != "" {
		where = "em " + schoolName
	}
	return fmt.Sprintf("Declaramos, para os devidos fins, que %s encontra-se regularmente matriculado(a) %s na turma %s, ano letivo de %d, sob o número %s.",
		student.FullName, where, e.ClassroomName, e.AcademicYear, e.Number)
}

// scheduleRows groups slots by weekday; the day is printed on the first
// row of each group only.
func scheduleRows(slots []models.ScheduleSlot) [][]string {
	rows := make([][]string, 0, len(slots))
	lastDay := -1
	for _, s := range slots {
		day := ""
		if s.DayOfWeek != lastDay {
			day = s.DayLabel()
			lastDay = s.DayOfWeek
		}
		rows = append(rows, []string{day, s.StartTime + " - " + s.EndTime, s.SubjectName, orPlaceholder(s.TeacherName)})
	}
	return rows
}

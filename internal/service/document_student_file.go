package service

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/pkg/pdf"
)

type studentFileRenderer struct {
	env *renderEnv
}

func (r *studentFileRenderer) Type() models.DocumentType { return models.DocumentTypeStudentFile }

func (r *studentFileRenderer) Prepare(ctx context.Context, req renderRequest) (*renderPlan, error) {
	cfg := req.Config.(*models.StudentFileConfig)
	plan := r.env.newPlan(req)
	src := r.env.src

	var (
		student     *models.Student
		guardians   []models.Guardian
		documents   []models.IssuedDocument
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
	if cfg.ShowGuardians {
		g.Go(func() (err error) {
			guardians, err = src.Students.ListGuardians(gctx, req.SchoolID, req.StudentID)
			return wrapList(err, "guardians")
		})
	}
	if cfg.ShowDocuments {
		g.Go(func() (err error) {
			documents, err = src.Documents.ListDelivered(gctx, req.SchoolID, req.StudentID)
			return wrapList(err, "documents")
		})
	}
	if cfg.ShowEnrollments {
		g.Go(func() (err error) {
			enrollments, err = src.Enrollments.ListByStudent(gctx, req.SchoolID, req.StudentID)
			return wrapList(err, "enrollments")
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	plan.Subtitle = student.FullName

	plan.add(func(c *pdf.Canvas) {
		c.SectionTitle("Dados pessoais")
		c.InfoGrid([]pdf.Field{
			{Label: "Nome", Value: student.FullName},
			{Label: "CPF", Value: student.CPF},
			{Label: "RG", Value: student.RG},
			{Label: "Data de nascimento", Value: shortDate(student.BirthDate)},
			{Label: "Sexo", Value: student.Gender},
			{Label: "Nacionalidade", Value: student.Nationality},
			{Label: "Naturalidade", Value: student.Birthplace},
		}, 3)
	})

	plan.add(func(c *pdf.Canvas) {
		c.SectionTitle("Contato e endereço")
		c.InfoGrid([]pdf.Field{
			{Label: "E-mail", Value: student.Email},
			{Label: "Telefone", Value: student.Phone},
			{Label: "Endereço", Value: student.Address},
			{Label: "Cidade", Value: student.City},
			{Label: "UF", Value: student.State},
			{Label: "CEP", Value: student.ZipCode},
		}, 3)
	})

	plan.addIf(cfg.ShowHealth, func(c *pdf.Canvas) {
		c.SectionTitle("Saúde")
		c.InfoGrid([]pdf.Field{
			{Label: "Tipo sanguíneo", Value: student.BloodType},
			{Label: "Alergias", Value: student.Allergies},
			{Label: "Medicamentos", Value: student.Medications},
			{Label: "Necessidades especiais", Value: student.SpecialNeeds},
		}, 2)
		if notes := strings.TrimSpace(student.HealthNotes); notes != "" {
			c.Paragraphs(notes, 9)
		}
	})

	plan.addIf(cfg.ShowGuardians, func(c *pdf.Canvas) {
		c.SectionTitle("Responsáveis")
		rows := make([][]string, 0, len(guardians))
		for _, gd := range guardians {
			name := gd.FullName
			if gd.IsPrimary {
				name += " (principal)"
			}
			rows = append(rows, []string{name, orPlaceholder(gd.Relationship), orPlaceholder(gd.CPF), orPlaceholder(gd.Phone), orPlaceholder(gd.Email)})
		}
		c.Table([]pdf.Column{
			{Header: "Nome", Weight: 2.5},
			{Header: "Parentesco", Weight: 1.2},
			{Header: "CPF", Weight: 1.4},
			{Header: "Telefone", Weight: 1.4},
			{Header: "E-mail", Weight: 2},
		}, rows, pdf.TableOptions{EmptyText: "Nenhum responsável cadastrado.", FontSize: 8})
	})

	plan.addIf(cfg.ShowDocuments, func(c *pdf.Canvas) {
		c.SectionTitle("Documentos entregues")
		rows := make([][]string, 0, len(documents))
		for _, d := range documents {
			rows = append(rows, []string{orPlaceholder(d.Number), orPlaceholder(d.Title), d.Status.Label(), orPlaceholder(shortDate(d.IssuedAt))})
		}
		c.Table([]pdf.Column{
			{Header: "Número", Weight: 1.2},
			{Header: "Documento", Weight: 3},
			{Header: "Situação", Weight: 1, Align: pdf.AlignCenter},
			{Header: "Emissão", Weight: 1, Align: pdf.AlignCenter},
		}, rows, pdf.TableOptions{EmptyText: "Nenhum documento emitido.", Zebra: true})
	})

	plan.addIf(cfg.ShowEnrollments, func(c *pdf.Canvas) {
		c.SectionTitle("Histórico de matrículas")
		rows := make([][]string, 0, len(enrollments))
		for _, e := range enrollments {
			rows = append(rows, []string{strconv.Itoa(e.AcademicYear), e.Number, e.ClassroomName, orPlaceholder(e.Shift), e.Status.Label()})
		}
		c.Table([]pdf.Column{
			{Header: "Ano", Weight: 0.8, Align: pdf.AlignCenter},
			{Header: "Matrícula", Weight: 1.4},
			{Header: "Turma", Weight: 1.6},
			{Header: "Turno", Weight: 1},
			{Header: "Situação", Weight: 1.2, Align: pdf.AlignCenter},
		}, rows, pdf.TableOptions{EmptyText: "Nenhuma matrícula registrada.", Zebra: true})
	})

	plan.addIf(cfg.ShowSignatureLines, func(c *pdf.Canvas) {
		c.Space(8)
		c.SignatureLines([]string{"Responsável", "Secretaria escolar"})
	})
	return plan, nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/pkg/pdf"
)

// renderRequest is a fully resolved render: type checked, configuration
// merged and targets present for the type.
type renderRequest struct {
	SchoolID     string
	Type         models.DocumentType
	Config       models.RenderConfig
	StudentID    string
	EnrollmentID string
	DocumentID   string
	Title        string
	Header       string
	Body         string
	Footer       string
	Observations string
}

// section draws one block of a document.
type section func(c *pdf.Canvas)

// renderPlan is everything a renderer decided before drawing starts. Data
// is fully loaded by the time a plan exists; drawing does no I/O.
type renderPlan struct {
	Title      string
	Subtitle   string
	Filename   string
	School     *models.School
	Logo       *pdf.Image
	Masthead   bool
	HeaderText string
	Footer     bool
	FooterText string
	Sections   []section
}

func (p *renderPlan) add(s section) {
	p.Sections = append(p.Sections, s)
}

func (p *renderPlan) addIf(cond bool, s section) {
	if cond {
		p.add(s)
	}
}

func (p *renderPlan) schoolName() string {
	if p.School == nil {
		return ""
	}
	return p.School.Name
}

// draw runs the masthead, the sections in order, then the footer.
func (p *renderPlan) draw(c *pdf.Canvas, issuedAt time.Time, documentID string) {
	switch {
	case p.HeaderText != "":
		c.CustomHeader(p.HeaderText)
	case p.Masthead:
		m := pdf.Masthead{SchoolName: p.schoolName(), Title: p.Title, Subtitle: p.Subtitle, Logo: p.Logo}
		if p.School != nil {
			m.DirectorName = p.School.DirectorName
		}
		c.Header(m)
	}
	for _, s := range p.Sections {
		s(c)
	}
	if p.Footer {
		c.Footer(pdf.FooterInfo{IssuedAt: issuedAt, DocumentID: documentID, SchoolName: p.schoolName(), Text: p.FooterText})
	}
}

// documentRenderer builds the plan of one document type.
type documentRenderer interface {
	Type() models.DocumentType
	Prepare(ctx context.Context, req renderRequest) (*renderPlan, error)
}

// renderEnv is shared by every renderer.
type renderEnv struct {
	src       DocumentSources
	variables *VariableService
	location  *time.Location
	now       func() time.Time
}

func (e *renderEnv) newPlan(req renderRequest) *renderPlan {
	title := req.Title
	if title == "" {
		title = req.Type.Title()
	}
	return &renderPlan{Title: title, Masthead: true, Footer: true}
}

// loadSchool fetches the tenant and then its logo into plan. The logo
// lookup never fails the task.
func (e *renderEnv) loadSchool(ctx context.Context, schoolID string, plan *renderPlan) func() error {
	return func() error {
		school, err := e.src.Schools.FindByID(ctx, schoolID)
		if err != nil {
			return lookupError(err, "school")
		}
		plan.School = school
		if e.src.Logos != nil {
			plan.Logo = e.src.Logos.Fetch(ctx, schoolID, school.LogoURL)
		}
		return nil
	}
}

func (e *renderEnv) today() time.Time {
	return e.now().In(e.location)
}

var monthNames = [...]string{"janeiro", "fevereiro", "março", "abril", "maio", "junho", "julho", "agosto", "setembro", "outubro", "novembro", "dezembro"}

// longDate formats t as "10 de maio de 2024".
func longDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), monthNames[t.Month()-1], t.Year())
}

func shortDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

// placeAndDate renders the "City, 10 de maio de 2024." line.
func placeAndDate(school *models.School, t time.Time) string {
	if school != nil && school.City != "" {
		return school.City + ", " + longDate(t) + "."
	}
	return longDate(t) + "."
}

func orPlaceholder(v string) string {
	if v == "" {
		return pdf.Placeholder
	}
	return v
}

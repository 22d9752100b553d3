package service

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/pkg/pdf"
)

const emptyFreeFormText = "Este documento não possui conteúdo."

var (
	lineBreakTags = regexp.MustCompile(`(?i)<br\s*/?>|</p\s*>|</div\s*>`)
	anyTag        = regexp.MustCompile(`<[^>]*>`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

// stripMarkup turns the limited rich text stored with free-form documents
// into plain paragraphs.
func stripMarkup(s string) string {
	s = lineBreakTags.ReplaceAllString(s, "\n")
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

type freeFormRenderer struct {
	env *renderEnv
}

func (r *freeFormRenderer) Type() models.DocumentType { return models.DocumentTypeFreeForm }

func (r *freeFormRenderer) Prepare(ctx context.Context, req renderRequest) (*renderPlan, error) {
	cfg := req.Config.(*models.FreeFormConfig)
	plan := r.env.newPlan(req)
	plan.Masthead = false
	plan.Footer = false

	header := stripMarkup(req.Header)
	body := stripMarkup(req.Body)
	footer := stripMarkup(req.Footer)

	if body == "" {
		plan.add(func(c *pdf.Canvas) {
			c.Space(20)
			c.TextLine(emptyFreeFormText, pdf.StyleItalic, 11, pdf.AlignCenter)
		})
		return plan, nil
	}

	if r.env.variables != nil && (req.StudentID != "" || req.EnrollmentID != "") && hasVariables(header, body, footer) {
		values, err := r.env.variables.Values(ctx, req.SchoolID, req.StudentID, req.EnrollmentID)
		if err != nil {
			return nil, err
		}
		header = substituteVariables(header, values)
		body = substituteVariables(body, values)
		footer = substituteVariables(footer, values)
	}

	if cfg.ShowHeader {
		if header != "" {
			plan.HeaderText = header
		} else {
			plan.Masthead = true
		}
	}
	if cfg.ShowFooter {
		plan.Footer = true
		plan.FooterText = footer
	}
	if plan.Masthead || plan.Footer {
		if err := r.env.loadSchool(ctx, req.SchoolID, plan)(); err != nil {
			return nil, err
		}
	}

	plan.add(func(c *pdf.Canvas) {
		c.Paragraphs(body, 11)
	})
	return plan, nil
}

func hasVariables(texts ...string) bool {
	for _, t := range texts {
		if variablePattern.MatchString(t) {
			return true
		}
	}
	return false
}

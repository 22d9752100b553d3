package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
	"github.com/noah-isme/sma-records-api/pkg/pdf"
	"github.com/noah-isme/sma-records-api/pkg/slug"
	"github.com/noah-isme/sma-records-api/pkg/storage"
)

const (
	renderModeIssued  = "issued"
	renderModePreview = "preview"
)

// PreviewRequest describes an ad hoc render. Nothing is persisted.
type PreviewRequest struct {
	Type         models.DocumentType `json:"type" validate:"required"`
	TemplateID   string              `json:"templateId"`
	StudentID    string              `json:"studentId"`
	EnrollmentID string              `json:"enrollmentId"`
	Title        string              `json:"title"`
	Header       string              `json:"header"`
	Body         string              `json:"body"`
	Footer       string              `json:"footer"`
	Observations string              `json:"observations"`
	Config       json.RawMessage     `json:"config" swaggertype:"object"`
}

// RenderedDocument is a document whose data is loaded and validated. The
// first byte reaches the writer only when Stream is called.
type RenderedDocument struct {
	Filename   string
	Title      string
	ArchiveURL string

	stream func(w io.Writer) error
}

// Stream writes the PDF into w. An error after the first byte leaves a
// truncated document behind.
func (d *RenderedDocument) Stream(w io.Writer) error {
	return d.stream(w)
}

// NewRenderedDocument wraps stream as a document named filename.
func NewRenderedDocument(filename, title string, stream func(w io.Writer) error) *RenderedDocument {
	return &RenderedDocument{Filename: filename, Title: title, stream: stream}
}

type sinkFactory func(geo pdf.Geometry, meta pdf.Metadata) pdf.Sink

// DocumentService maps document types to renderers for issued documents
// and previews.
type DocumentService struct {
	env       *renderEnv
	renderers map[models.DocumentType]documentRenderer
	archive   *ArchiveService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	newSink   sinkFactory
	geometry  pdf.Geometry
}

// NewDocumentService wires the six renderers over src. Dates printed in
// documents use loc.
func NewDocumentService(src DocumentSources, variables *VariableService, archive *ArchiveService, metrics *MetricsService, validate *validator.Validate, loc *time.Location, logger *zap.Logger) *DocumentService {
	if validate == nil {
		validate = validator.New()
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	env := &renderEnv{src: src, variables: variables, location: loc, now: time.Now}
	svc := &DocumentService{
		env:       env,
		renderers: make(map[models.DocumentType]documentRenderer),
		archive:   archive,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		newSink: func(geo pdf.Geometry, meta pdf.Metadata) pdf.Sink {
			return pdf.NewGofpdfSink(geo, meta)
		},
		geometry: pdf.A4(),
	}
	for _, r := range []documentRenderer{
		&reportCardRenderer{env: env},
		&enrollmentProofRenderer{env: env},
		&transcriptRenderer{env: env},
		&attendanceDeclarationRenderer{env: env},
		&studentFileRenderer{env: env},
		&freeFormRenderer{env: env},
	} {
		svc.renderers[r.Type()] = r
	}
	return svc
}

func (s *DocumentService) renderer(t models.DocumentType) (documentRenderer, error) {
	r, ok := s.renderers[t]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnknownDocumentType, "unknown document type: "+string(t))
	}
	return r, nil
}

// PrepareIssued loads a persisted document and everything it shows. The
// first successful stream of a draft flips it to issued.
func (s *DocumentService) PrepareIssued(ctx context.Context, schoolID, documentID string) (*RenderedDocument, error) {
	start := time.Now()
	doc, err := s.env.src.Documents.FindByID(ctx, schoolID, documentID)
	if err != nil {
		return nil, lookupError(err, "document")
	}
	renderer, err := s.renderer(doc.Type)
	if err != nil {
		s.observe(doc.Type, renderModeIssued, err, start)
		return nil, err
	}

	var templateConfig []byte
	if doc.TemplateID != nil && *doc.TemplateID != "" {
		tpl, err := s.env.src.Documents.FindTemplate(ctx, schoolID, *doc.TemplateID)
		if err != nil {
			err = lookupError(err, "template")
			s.observe(doc.Type, renderModeIssued, err, start)
			return nil, err
		}
		if tpl.Type != doc.Type {
			err = appErrors.Clone(appErrors.ErrValidation, "template type does not match document type")
			s.observe(doc.Type, renderModeIssued, err, start)
			return nil, err
		}
		templateConfig = tpl.Config
	}
	cfg, err := models.ResolveRenderConfig(doc.Type, templateConfig, doc.Payload.Config)
	if err != nil {
		s.observe(doc.Type, renderModeIssued, err, start)
		return nil, err
	}

	req := renderRequest{
		SchoolID:     schoolID,
		Type:         doc.Type,
		Config:       cfg,
		StudentID:    deref(doc.StudentID),
		EnrollmentID: deref(doc.EnrollmentID),
		DocumentID:   doc.ID,
		Title:        doc.Title,
		Header:       doc.HeaderText,
		Body:         doc.BodyText,
		Footer:       doc.FooterText,
		Observations: doc.Payload.Observations,
	}
	if err := s.resolveTargets(ctx, &req); err != nil {
		s.observe(doc.Type, renderModeIssued, err, start)
		return nil, err
	}
	plan, err := renderer.Prepare(ctx, req)
	if err != nil {
		s.observe(doc.Type, renderModeIssued, err, start)
		return nil, err
	}

	issuedAt := s.env.now()
	if doc.IssuedAt != nil && !doc.IssuedAt.IsZero() {
		issuedAt = *doc.IssuedAt
	}
	draft := doc.Status == models.DocumentStatusDraft
	rendered := s.newRendered(plan)
	archiving := draft && s.archive.Enabled()
	if archiving {
		url, err := s.archive.URL(schoolID, doc.ID)
		if err != nil {
			s.logger.Sugar().Warnw("document archive url failed", "document_id", doc.ID, "error", err)
			archiving = false
		} else {
			rendered.ArchiveURL = url
		}
	}

	rendered.stream = func(w io.Writer) error {
		tee := &archiveTee{w: w}
		if archiving {
			file, err := s.archive.Begin(schoolID, doc.ID)
			if err != nil {
				s.logger.Sugar().Warnw("document archive unavailable", "document_id", doc.ID, "error", err)
			} else {
				tee.file = file
			}
		}
		if err := s.write(plan, tee, issuedAt, doc.ID); err != nil {
			tee.abort()
			s.observe(doc.Type, renderModeIssued, err, start)
			return err
		}
		if err := tee.commit(); err != nil {
			s.logger.Sugar().Warnw("document archive failed", "document_id", doc.ID, "error", err)
		}
		if draft {
			// runs even when the client has already gone away
			marked, err := s.env.src.Documents.MarkIssued(context.WithoutCancel(ctx), schoolID, doc.ID, issuedAt)
			if err != nil {
				s.logger.Sugar().Warnw("mark document issued failed", "document_id", doc.ID, "error", err)
			} else if marked {
				s.logger.Sugar().Infow("document issued", "document_id", doc.ID, "school_id", schoolID, "type", doc.Type)
			}
		}
		s.observe(doc.Type, renderModeIssued, nil, start)
		return nil
	}
	return rendered, nil
}

// PreparePreview validates an ad hoc request and loads its data. The type
// is checked before anything is fetched.
func (s *DocumentService) PreparePreview(ctx context.Context, schoolID string, req PreviewRequest) (*RenderedDocument, error) {
	start := time.Now()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preview payload")
	}
	renderer, err := s.renderer(req.Type)
	if err != nil {
		s.observe(req.Type, renderModePreview, err, start)
		return nil, err
	}

	var templateConfig []byte
	if req.TemplateID != "" {
		tpl, err := s.env.src.Documents.FindTemplate(ctx, schoolID, req.TemplateID)
		if err != nil {
			err = lookupError(err, "template")
			s.observe(req.Type, renderModePreview, err, start)
			return nil, err
		}
		templateConfig = tpl.Config
	}
	cfg, err := models.ResolveRenderConfig(req.Type, templateConfig, req.Config)
	if err != nil {
		s.observe(req.Type, renderModePreview, err, start)
		return nil, err
	}

	rreq := renderRequest{
		SchoolID:     schoolID,
		Type:         req.Type,
		Config:       cfg,
		StudentID:    strings.TrimSpace(req.StudentID),
		EnrollmentID: strings.TrimSpace(req.EnrollmentID),
		Title:        req.Title,
		Header:       req.Header,
		Body:         req.Body,
		Footer:       req.Footer,
		Observations: req.Observations,
	}
	if err := s.resolveTargets(ctx, &rreq); err != nil {
		s.observe(req.Type, renderModePreview, err, start)
		return nil, err
	}
	plan, err := renderer.Prepare(ctx, rreq)
	if err != nil {
		s.observe(req.Type, renderModePreview, err, start)
		return nil, err
	}

	rendered := s.newRendered(plan)
	rendered.stream = func(w io.Writer) error {
		err := s.write(plan, w, s.env.now(), "")
		s.observe(req.Type, renderModePreview, err, start)
		return err
	}
	return rendered, nil
}

// RenderIssued prepares and streams a persisted document.
func (s *DocumentService) RenderIssued(ctx context.Context, schoolID, documentID string, w io.Writer) error {
	doc, err := s.PrepareIssued(ctx, schoolID, documentID)
	if err != nil {
		return err
	}
	return doc.Stream(w)
}

// RenderPreview prepares and streams an ad hoc document.
func (s *DocumentService) RenderPreview(ctx context.Context, schoolID string, req PreviewRequest, w io.Writer) error {
	doc, err := s.PreparePreview(ctx, schoolID, req)
	if err != nil {
		return err
	}
	return doc.Stream(w)
}

// resolveTargets checks the identifier the type renders for. Student
// documents accept an enrollment and take its student.
func (s *DocumentService) resolveTargets(ctx context.Context, req *renderRequest) error {
	switch req.Type.Target() {
	case models.TargetEnrollment:
		if req.EnrollmentID == "" {
			return appErrors.Clone(appErrors.ErrMissingTarget, "enrollmentId is required for "+string(req.Type))
		}
	case models.TargetStudent:
		if req.StudentID != "" {
			return nil
		}
		if req.EnrollmentID == "" {
			return appErrors.Clone(appErrors.ErrMissingTarget, "studentId is required for "+string(req.Type))
		}
		enrollment, err := s.env.src.Enrollments.FindDetailByID(ctx, req.SchoolID, req.EnrollmentID)
		if err != nil {
			return lookupError(err, "enrollment")
		}
		req.StudentID = enrollment.StudentID
	}
	return nil
}

func (s *DocumentService) newRendered(plan *renderPlan) *RenderedDocument {
	filename := plan.Filename
	if filename == "" {
		filename = slug.Filename(plan.Title) + ".pdf"
	}
	return NewRenderedDocument(filename, plan.Title, nil)
}

// write draws plan onto a fresh sink and writes it out.
func (s *DocumentService) write(plan *renderPlan, w io.Writer, issuedAt time.Time, documentID string) error {
	sink := s.newSink(s.geometry, pdf.Metadata{Title: plan.Title, Author: plan.schoolName(), Subject: plan.Subtitle})
	canvas := pdf.NewCanvas(sink, s.geometry)
	plan.draw(canvas, issuedAt.In(s.env.location), documentID)
	return sink.Output(w)
}

func (s *DocumentService) observe(t models.DocumentType, mode string, err error, start time.Time) {
	outcome := renderOutcomeOK
	if err != nil {
		outcome = renderOutcomeFailed
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Status < http.StatusInternalServerError {
			outcome = renderOutcomeRejected
		}
	}
	label := string(t)
	if !t.Valid() {
		label = "unknown"
	}
	s.metrics.ObserveDocument(label, mode, outcome, time.Since(start))
}

// archiveTee copies the response into the archive file. An archive write
// error drops the copy and leaves the response untouched.
type archiveTee struct {
	w    io.Writer
	file *storage.PendingFile
	err  error
}

func (t *archiveTee) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if t.file != nil && t.err == nil && n > 0 {
		if _, werr := t.file.Write(p[:n]); werr != nil {
			t.err = werr
		}
	}
	return n, err
}

func (t *archiveTee) commit() error {
	if t.file == nil {
		return nil
	}
	if t.err != nil {
		t.file.Abort()
		return t.err
	}
	return t.file.Commit()
}

func (t *archiveTee) abort() {
	if t.file != nil {
		t.file.Abort()
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

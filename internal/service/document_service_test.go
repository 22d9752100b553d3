package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
	"github.com/noah-isme/sma-records-api/pkg/storage"
)

func draftReportCard(f *fakeRecords) *models.IssuedDocument {
	doc := &models.IssuedDocument{
		ID:           "doc-1",
		SchoolID:     testSchoolID,
		Type:         models.DocumentTypeReportCard,
		Number:       "DOC-2024-0001",
		Title:        "Boletim 1º Trimestre",
		EnrollmentID: strPtr("enr-1"),
		Status:       models.DocumentStatusDraft,
	}
	f.documents[doc.ID] = doc
	return doc
}

func TestPreviewRejectsUnknownTypeBeforeFetching(t *testing.T) {
	f := newFakeRecords()
	svc, sinks := newTestDocumentService(f, nil)

	_, err := svc.PreparePreview(context.Background(), testSchoolID, PreviewRequest{Type: "diploma", StudentID: "stu-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUnknownDocumentType)
	assert.Zero(t, f.callCount())
	assert.Empty(t, sinks.list)
}

func TestPreviewRequiresType(t *testing.T) {
	f := newFakeRecords()
	svc, _ := newTestDocumentService(f, nil)

	_, err := svc.PreparePreview(context.Background(), testSchoolID, PreviewRequest{EnrollmentID: "enr-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Zero(t, f.callCount())
}

func TestPreviewRejectsMissingTargetBeforeFetching(t *testing.T) {
	cases := []models.DocumentType{
		models.DocumentTypeReportCard,
		models.DocumentTypeEnrollmentProof,
		models.DocumentTypeAttendanceDeclaration,
		models.DocumentTypeTranscript,
		models.DocumentTypeStudentFile,
	}
	for _, docType := range cases {
		t.Run(string(docType), func(t *testing.T) {
			f := newFakeRecords()
			svc, _ := newTestDocumentService(f, nil)

			_, err := svc.PreparePreview(context.Background(), testSchoolID, PreviewRequest{Type: docType})
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrMissingTarget)
			assert.Zero(t, f.callCount())
		})
	}
}

func TestPreviewRejectsInvalidConfig(t *testing.T) {
	f := newFakeRecords()
	svc, _ := newTestDocumentService(f, nil)

	_, err := svc.PreparePreview(context.Background(), testSchoolID, PreviewRequest{
		Type:         models.DocumentTypeReportCard,
		EnrollmentID: "enr-1",
		Config:       []byte(`{"showFrequency":"yes"}`),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Zero(t, f.callCount())
}

func TestStudentDocumentTakesStudentFromEnrollment(t *testing.T) {
	f := newFakeRecords()
	rec := renderPreview(t, f, PreviewRequest{Type: models.DocumentTypeTranscript, EnrollmentID: "enr-1"})

	assert.True(t, rec.Contains("Ana Beatriz Lima"))
}

func TestPreviewFilenameFromTitle(t *testing.T) {
	f := newFakeRecords()
	svc, _ := newTestDocumentService(f, nil)

	doc, err := svc.PreparePreview(context.Background(), testSchoolID, PreviewRequest{
		Type:  models.DocumentTypeFreeForm,
		Title: "Declaração: João & Cia!",
		Body:  "Texto",
	})
	require.NoError(t, err)
	assert.Equal(t, "Declaração_João_Cia.pdf", doc.Filename)
	assert.Equal(t, "Declaração: João & Cia!", doc.Title)
	assert.Empty(t, doc.ArchiveURL)

	doc, err = svc.PreparePreview(context.Background(), testSchoolID, PreviewRequest{Type: models.DocumentTypeReportCard, EnrollmentID: "enr-1"})
	require.NoError(t, err)
	assert.Equal(t, "Boletim_Escolar.pdf", doc.Filename)
}

func TestPreviewPersistsNothing(t *testing.T) {
	f := newFakeRecords()
	draftReportCard(f)
	rec := renderPreview(t, f, PreviewRequest{Type: models.DocumentTypeReportCard, EnrollmentID: "enr-1"})

	require.NotNil(t, rec)
	assert.Empty(t, f.marked)
	assert.Equal(t, models.DocumentStatusDraft, f.documents["doc-1"].Status)
}

func TestIssuedPayloadConfigWinsOverTemplate(t *testing.T) {
	f := newFakeRecords()
	doc := draftReportCard(f)
	f.templates["tpl-1"] = &models.DocumentTemplate{
		ID:       "tpl-1",
		SchoolID: testSchoolID,
		Type:     models.DocumentTypeReportCard,
		Config:   types.JSONText(`{"showSignatureLines":true,"showFrequency":false}`),
	}
	doc.TemplateID = strPtr("tpl-1")
	doc.Payload.Config = []byte(`{"showSignatureLines":false}`)
	svc, sinks := newTestDocumentService(f, nil)

	rendered, err := svc.PrepareIssued(context.Background(), testSchoolID, "doc-1")
	require.NoError(t, err)
	require.NoError(t, rendered.Stream(&bytes.Buffer{}))
	rec := sinks.last()

	assert.Equal(t, 0, rec.Count("FREQUÊNCIA"), "template flag applies")
	assert.Equal(t, 0, rec.Count("Responsável"), "payload flag overrides template")
	assert.Equal(t, 1, rec.Count("BOLETIM 1º TRIMESTRE"))
	assert.True(t, rec.Contains("Documento doc-1"))
}

func TestIssuedTemplateOfAnotherTypeRejected(t *testing.T) {
	f := newFakeRecords()
	doc := draftReportCard(f)
	f.templates["tpl-2"] = &models.DocumentTemplate{ID: "tpl-2", SchoolID: testSchoolID, Type: models.DocumentTypeTranscript}
	doc.TemplateID = strPtr("tpl-2")
	svc, _ := newTestDocumentService(f, nil)

	_, err := svc.PrepareIssued(context.Background(), testSchoolID, "doc-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestIssuedUnknownTypeRejectedBeforeFetchingData(t *testing.T) {
	f := newFakeRecords()
	doc := draftReportCard(f)
	doc.Type = "certificate"
	svc, _ := newTestDocumentService(f, nil)

	_, err := svc.PrepareIssued(context.Background(), testSchoolID, "doc-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUnknownDocumentType)
	assert.Equal(t, []string{"document"}, f.calls)
}

func TestIssuedDocumentOfAnotherSchoolNotFound(t *testing.T) {
	f := newFakeRecords()
	draftReportCard(f)
	svc, _ := newTestDocumentService(f, nil)

	_, err := svc.PrepareIssued(context.Background(), "sch-other", "doc-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestIssuedDraftMarkedExactlyOnce(t *testing.T) {
	f := newFakeRecords()
	draftReportCard(f)
	svc, _ := newTestDocumentService(f, nil)

	for i := 0; i < 3; i++ {
		rendered, err := svc.PrepareIssued(context.Background(), testSchoolID, "doc-1")
		require.NoError(t, err)
		require.NoError(t, rendered.Stream(&bytes.Buffer{}))
	}

	require.Len(t, f.marked, 1)
	assert.Equal(t, fixedNow, f.marked[0])
	assert.Equal(t, models.DocumentStatusIssued, f.documents["doc-1"].Status)
}

func TestRenderIssuedStreamsAndMarks(t *testing.T) {
	f := newFakeRecords()
	draftReportCard(f)
	svc, _ := newTestDocumentService(f, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.RenderIssued(context.Background(), testSchoolID, "doc-1", &buf))
	assert.NotZero(t, buf.Len())
	assert.Len(t, f.marked, 1)

	buf.Reset()
	err := svc.RenderIssued(context.Background(), "sch-other", "doc-1", &buf)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Zero(t, buf.Len())
}

func TestRenderPreviewWritesNothingOnError(t *testing.T) {
	f := newFakeRecords()
	svc, _ := newTestDocumentService(f, nil)

	var buf bytes.Buffer
	err := svc.RenderPreview(context.Background(), testSchoolID, PreviewRequest{Type: "diploma", StudentID: "stu-1"}, &buf)
	assert.ErrorIs(t, err, appErrors.ErrUnknownDocumentType)
	assert.Zero(t, buf.Len())

	require.NoError(t, svc.RenderPreview(context.Background(), testSchoolID, PreviewRequest{
		Type: models.DocumentTypeReportCard, EnrollmentID: "enr-1",
	}, &buf))
	assert.NotZero(t, buf.Len())
	assert.Empty(t, f.marked)
}

func TestIssuedNotMarkedUntilStreamed(t *testing.T) {
	f := newFakeRecords()
	draftReportCard(f)
	svc, sinks := newTestDocumentService(f, nil)

	rendered, err := svc.PrepareIssued(context.Background(), testSchoolID, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, f.marked)

	sinks.fail = errors.New("connection reset")
	err = rendered.Stream(&bytes.Buffer{})
	require.Error(t, err)
	assert.Empty(t, f.marked)
	assert.Equal(t, models.DocumentStatusDraft, f.documents["doc-1"].Status)
}

func TestIssuedMarkSurvivesCancelledRequest(t *testing.T) {
	f := newFakeRecords()
	draftReportCard(f)
	svc, _ := newTestDocumentService(f, nil)
	ctx, cancel := context.WithCancel(context.Background())

	rendered, err := svc.PrepareIssued(ctx, testSchoolID, "doc-1")
	require.NoError(t, err)
	cancel()
	require.NoError(t, rendered.Stream(&bytes.Buffer{}))
	assert.Len(t, f.marked, 1)
}

func TestIssuedCancelledDocumentRendersWithoutTransition(t *testing.T) {
	f := newFakeRecords()
	doc := draftReportCard(f)
	doc.Status = models.DocumentStatusCancelled
	issued := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	doc.IssuedAt = &issued
	svc, sinks := newTestDocumentService(f, nil)

	rendered, err := svc.PrepareIssued(context.Background(), testSchoolID, "doc-1")
	require.NoError(t, err)
	require.NoError(t, rendered.Stream(&bytes.Buffer{}))

	assert.Empty(t, f.marked)
	assert.True(t, sinks.last().Contains("Emitido em 01/03/2024 09:00"))
}

func TestIssuedMissingTarget(t *testing.T) {
	f := newFakeRecords()
	doc := draftReportCard(f)
	doc.EnrollmentID = nil
	svc, _ := newTestDocumentService(f, nil)

	_, err := svc.PrepareIssued(context.Background(), testSchoolID, "doc-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrMissingTarget)
}

func TestIssuedFreeFormUsesFrozenText(t *testing.T) {
	f := newFakeRecords()
	f.documents["doc-2"] = &models.IssuedDocument{
		ID:         "doc-2",
		SchoolID:   testSchoolID,
		Type:       models.DocumentTypeFreeForm,
		Title:      "Comunicado",
		StudentID:  strPtr("stu-1"),
		Status:     models.DocumentStatusIssued,
		HeaderText: "",
		BodyText:   "<p>Prezados responsáveis de {{student.name}},</p>",
		FooterText: "Secretaria Escolar",
	}
	svc, sinks := newTestDocumentService(f, nil)

	rendered, err := svc.PrepareIssued(context.Background(), testSchoolID, "doc-2")
	require.NoError(t, err)
	require.NoError(t, rendered.Stream(&bytes.Buffer{}))
	rec := sinks.last()

	assert.Equal(t, "Comunicado.pdf", rendered.Filename)
	assert.Contains(t, rec.Joined(), "Prezados responsáveis de Ana Beatriz Lima,")
	assert.Equal(t, 1, rec.Count("Secretaria Escolar"))
	assert.Equal(t, 1, rec.Count("COMUNICADO"))
	assert.Empty(t, f.marked)
}

func newTestArchive(t *testing.T) (*ArchiveService, *storage.LocalStorage) {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewArchiveService(files, storage.NewSignedURLSigner("test-secret", time.Hour), "/api/v1/"), files
}

func TestIssuedDraftIsArchivedOnFirstRender(t *testing.T) {
	f := newFakeRecords()
	draftReportCard(f)
	archive, files := newTestArchive(t)
	svc, _ := newTestDocumentService(f, archive)

	rendered, err := svc.PrepareIssued(context.Background(), testSchoolID, "doc-1")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(rendered.ArchiveURL, "/api/v1/documents/archive/"))

	var out bytes.Buffer
	require.NoError(t, rendered.Stream(&out))

	var stored bytes.Buffer
	_, err = files.Copy(&stored, "sch-1/doc-1.pdf")
	require.NoError(t, err)
	assert.Equal(t, out.Bytes(), stored.Bytes())

	token := strings.TrimPrefix(rendered.ArchiveURL, "/api/v1/documents/archive/")
	var served bytes.Buffer
	documentID, err := archive.Serve(&served, testSchoolID, token)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", documentID)
	assert.Equal(t, out.Bytes(), served.Bytes())

	_, err = archive.Serve(&bytes.Buffer{}, "sch-other", token)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	again, err := svc.PrepareIssued(context.Background(), testSchoolID, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, again.ArchiveURL)
}

func TestIssuedFailedStreamLeavesNoArchive(t *testing.T) {
	f := newFakeRecords()
	draftReportCard(f)
	archive, files := newTestArchive(t)
	svc, sinks := newTestDocumentService(f, archive)
	sinks.fail = errors.New("broken pipe")

	rendered, err := svc.PrepareIssued(context.Background(), testSchoolID, "doc-1")
	require.NoError(t, err)
	require.Error(t, rendered.Stream(&bytes.Buffer{}))

	_, err = files.Copy(&bytes.Buffer{}, "sch-1/doc-1.pdf")
	assert.Error(t, err)
}

func TestArchiveServeRejectsBadTokens(t *testing.T) {
	archive, _ := newTestArchive(t)

	_, err := archive.Serve(&bytes.Buffer{}, testSchoolID, "garbage")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	url, err := archive.URL(testSchoolID, "doc-404")
	require.NoError(t, err)
	_, err = archive.Serve(&bytes.Buffer{}, testSchoolID, strings.TrimPrefix(url, "/api/v1/documents/archive/"))
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	var disabled *ArchiveService
	assert.False(t, disabled.Enabled())
	_, err = disabled.Serve(&bytes.Buffer{}, testSchoolID, "x")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

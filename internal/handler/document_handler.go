package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/service"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
	"github.com/noah-isme/sma-records-api/pkg/response"
)

// ArchiveURLHeader carries the signed link of a freshly archived document.
const ArchiveURLHeader = "X-Document-Archive-URL"

type documentRenderer interface {
	PrepareIssued(ctx context.Context, schoolID, documentID string) (*service.RenderedDocument, error)
	PreparePreview(ctx context.Context, schoolID string, req service.PreviewRequest) (*service.RenderedDocument, error)
}

type variableResolver interface {
	Resolve(ctx context.Context, schoolID string, req service.ResolveVariablesRequest) (string, error)
}

// DocumentHandler streams issued documents and previews as PDF.
type DocumentHandler struct {
	documents     documentRenderer
	variables     variableResolver
	renderTimeout time.Duration
	logger        *zap.Logger
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(documents documentRenderer, variables variableResolver, renderTimeout time.Duration, logger *zap.Logger) *DocumentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentHandler{documents: documents, variables: variables, renderTimeout: renderTimeout, logger: logger}
}

// VariablesResponse is the body returned by ResolveVariables.
type VariablesResponse struct {
	Text string `json:"text"`
}

// Render godoc
// @Summary Render an issued document
// @Description Streams the PDF. A draft document becomes issued once it has been streamed successfully.
// @Tags Documents
// @Produce application/pdf
// @Param id path string true "Document ID"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id}/pdf [get]
func (h *DocumentHandler) Render(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "document id is required"))
		return
	}

	ctx, cancel := h.renderContext(c)
	defer cancel()

	doc, err := h.documents.PrepareIssued(ctx, claims.SchoolID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.stream(c, doc, "inline")
}

// Preview godoc
// @Summary Preview a document without persisting it
// @Tags Documents
// @Accept json
// @Produce application/pdf
// @Param payload body service.PreviewRequest true "Preview payload"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/preview [post]
func (h *DocumentHandler) Preview(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	ctx, cancel := h.renderContext(c)
	defer cancel()

	doc, err := h.documents.PreparePreview(ctx, claims.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.stream(c, doc, "inline")
}

// ResolveVariables godoc
// @Summary Substitute {{namespace.field}} variables in free text
// @Tags Documents
// @Accept json
// @Produce json
// @Param payload body service.ResolveVariablesRequest true "Text and target"
// @Success 200 {object} response.Envelope{data=VariablesResponse}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/variables [post]
func (h *DocumentHandler) ResolveVariables(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.ResolveVariablesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	text, err := h.variables.Resolve(c.Request.Context(), claims.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, VariablesResponse{Text: text}, nil)
}

func (h *DocumentHandler) renderContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.renderTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.renderTimeout)
}

func (h *DocumentHandler) stream(c *gin.Context, doc *service.RenderedDocument, disposition string) {
	out := newPDFResponse(c, doc.Filename, disposition)
	if doc.ArchiveURL != "" {
		out.extra[ArchiveURLHeader] = doc.ArchiveURL
	}
	if err := doc.Stream(out); err != nil {
		if !out.Started() {
			response.Error(c, err)
			return
		}
		h.logger.Sugar().Errorw("document stream aborted", "filename", doc.Filename, "error", err)
		c.Abort()
	}
}

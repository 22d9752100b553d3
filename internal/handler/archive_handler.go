package handler

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
	"github.com/noah-isme/sma-records-api/pkg/response"
)

type archiveReader interface {
	Serve(w io.Writer, schoolID, token string) (string, error)
}

// ArchiveHandler serves archived copies of issued documents.
type ArchiveHandler struct {
	archive archiveReader
	logger  *zap.Logger
}

// NewArchiveHandler constructs the handler.
func NewArchiveHandler(archive archiveReader, logger *zap.Logger) *ArchiveHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveHandler{archive: archive, logger: logger}
}

// Download godoc
// @Summary Download an archived document via signed token
// @Tags Documents
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/archive/{token} [get]
func (h *ArchiveHandler) Download(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	if h.archive == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "document archive disabled"))
		return
	}

	out := newPDFResponse(c, "documento.pdf", "attachment")
	if _, err := h.archive.Serve(out, claims.SchoolID, token); err != nil {
		if !out.Started() {
			response.Error(c, err)
			return
		}
		h.logger.Sugar().Errorw("archive download aborted", "error", err)
		c.Abort()
	}
}

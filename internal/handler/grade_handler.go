package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-records-api/internal/service"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
	"github.com/noah-isme/sma-records-api/pkg/response"
)

type scoreRecorder interface {
	RecordScore(ctx context.Context, schoolID, actorID string, req service.RecordScoreRequest) (*service.RecordScoreResult, error)
}

// GradeHandler exposes grade endpoints.
type GradeHandler struct {
	grades scoreRecorder
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades scoreRecorder) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// Record godoc
// @Summary Record an assessment score
// @Description Scores outside [0, max_score] of the assessment are rejected.
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.RecordScoreRequest true "Score payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /grades [put]
func (h *GradeHandler) Record(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.RecordScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.grades.RecordScore(c.Request.Context(), claims.SchoolID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SeelanGov/thandi/internal/logging"
	"github.com/SeelanGov/thandi/internal/model"
	"github.com/SeelanGov/thandi/internal/request"
)

const maxBodyBytes = 64 << 10

// Guider answers one guidance query
type Guider interface {
	Guide(ctx context.Context, q model.Query) (*model.GenerationResult, error)
}

// GuidanceHandler serves POST /api/v1/guidance
type GuidanceHandler struct {
	guider  Guider
	timeout time.Duration
	logger  logging.Logger
}

// NewGuidanceHandler creates the handler; timeout 0 leaves the request context as is
func NewGuidanceHandler(guider Guider, timeout time.Duration, logger logging.Logger) *GuidanceHandler {
	return &GuidanceHandler{
		guider:  guider,
		timeout: timeout,
		logger:  logging.OrNop(logger).With(map[string]interface{}{"component": "httpapi"}),
	}
}

// Guide decodes the payload, runs the pipeline and maps the outcome
func (h *GuidanceHandler) Guide(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, model.NewError(model.CodeInvalidQuery, "request body too large", err), "")
			return
		}
		respondError(c, model.NewError(model.CodeInvalidQuery, "unreadable request body", err), "")
		return
	}

	env, err := request.Decode(body)
	if err != nil {
		respondError(c, err, "")
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	res, err := h.guider.Guide(ctx, env.Query)
	requestID := ""
	if res != nil {
		requestID = res.Meta.RequestID
		c.Header("X-Request-ID", requestID)
	}
	if err != nil {
		h.logger.Warn("Guidance request failed", map[string]interface{}{
			"request_id": requestID,
			"code":       string(model.CodeOf(err)),
			"error":      err.Error(),
		})
		respondError(c, err, requestID)
		return
	}

	c.JSON(http.StatusOK, GuidanceResponse{
		Success:          res.Success,
		AnswerText:       res.Answer,
		ValidationReport: res.Validation,
		Metadata:         res.Meta,
	})
}

// Health reports liveness
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

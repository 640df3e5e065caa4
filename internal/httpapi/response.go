package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SeelanGov/thandi/internal/model"
)

// APIError is the error body of a failed request
type APIError struct {
	Message   string          `json:"message"`
	Code      model.ErrorCode `json:"code,omitempty"`
	Retryable bool            `json:"retryable"`
}

// ErrorEnvelope wraps APIError
type ErrorEnvelope struct {
	Error     APIError `json:"error"`
	RequestID string   `json:"requestId,omitempty"`
}

// GuidanceResponse is the body of a successful guidance request
type GuidanceResponse struct {
	Success          bool                   `json:"success"`
	AnswerText       string                 `json:"answerText"`
	ValidationReport model.ValidationReport `json:"validationReport"`
	Metadata         model.GenerationMeta   `json:"metadata"`
}

// statusFor maps pipeline errors onto HTTP status codes
func statusFor(err error) int {
	switch model.CodeOf(err) {
	case model.CodeInvalidQuery:
		return http.StatusBadRequest
	case "":
		return http.StatusInternalServerError
	}
	return http.StatusBadGateway
}

func respondError(c *gin.Context, err error, requestID string) {
	body := ErrorEnvelope{
		Error:     APIError{Message: "unknown error", Code: model.CodeOf(err)},
		RequestID: requestID,
	}
	var e *model.Error
	if errors.As(err, &e) {
		body.Error.Message = e.Message
		body.Error.Retryable = e.Retryable
	} else if err != nil {
		body.Error.Message = err.Error()
	}
	c.JSON(statusFor(err), body)
}

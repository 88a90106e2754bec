package server

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrz1836/patchbay/internal/errors"
)

// ErrorBody is returned for every failed request.
type ErrorBody struct {
	Error  string `json:"error"`
	Kind   string `json:"kind"`
	File   string `json:"file,omitempty"`
	Action string `json:"action,omitempty"`
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case stderrors.Is(err, errors.ErrDiffParse),
		stderrors.Is(err, errors.ErrInvalidArgument),
		stderrors.Is(err, errors.ErrEmptyValue):
		return http.StatusBadRequest
	case stderrors.Is(err, errors.ErrPathViolation):
		return http.StatusForbidden
	case stderrors.Is(err, errors.ErrUnknownTool):
		return http.StatusNotFound
	case stderrors.Is(err, errors.ErrApplyConflict),
		stderrors.Is(err, errors.ErrLockTimeout):
		return http.StatusConflict
	case stderrors.Is(err, errors.ErrCommandTimeout):
		return http.StatusGatewayTimeout
	case stderrors.Is(err, errors.ErrExternalService),
		stderrors.Is(err, errors.ErrNoDiffFound):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// abortWith writes the error body for err and stops the handler chain.
func abortWith(c *gin.Context, err error) {
	status := statusFor(err)
	_, action := errors.Actionable(err)
	body := ErrorBody{
		Error: err.Error(),
		Kind:  errors.Kind(err),
		File:  errors.OffendingFile(err),
	}
	if status != http.StatusInternalServerError {
		body.Action = action
	}
	zerolog.Ctx(c.Request.Context()).Debug().Err(err).Int("status", status).Msg("request failed")
	c.AbortWithStatusJSON(status, body)
}

// bind decodes the JSON body into v, reporting failures as 400 (or 413).
func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			abortWith(c, err)
			return false
		}
		abortWith(c, errors.Wrap(errors.ErrInvalidArgument, err.Error()))
		return false
	}
	return true
}

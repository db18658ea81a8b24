package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnedge/learnedge/internal/apperr"
	"github.com/learnedge/learnedge/internal/logger"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func respondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// respondError writes the envelope for err. Internal errors expose only
// their message; the wrapped cause goes to the log.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	kind := apperr.KindOf(err)
	msg := publicMessage(err, kind)
	if kind == apperr.KindInternal {
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(apperr.Status(kind), ErrorEnvelope{
		Error: APIError{Message: msg, Code: string(kind)},
	})
}

func respondBadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorEnvelope{
		Error: APIError{Message: msg, Code: string(apperr.KindBadRequest)},
	})
}

func publicMessage(err error, kind apperr.Kind) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if kind == apperr.KindInternal {
		return "Internal server error"
	}
	return err.Error()
}

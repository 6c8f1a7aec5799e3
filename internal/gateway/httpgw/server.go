// Package httpgw exposes a Gateway over HTTP and provides the matching
// client. A shell configured with the client instead of the embedded
// backend behaves identically; the wire format is one POST per command
// with the request record as the body and the response record as the
// reply.
package httpgw

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "wolfquant/internal/errors"
	"wolfquant/internal/gateway"
)

// NewRouter builds the HTTP surface over any Gateway implementation.
func NewRouter(gw gateway.Gateway) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogging())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.POST("/invoke/:command", invokeHandler(gw))
	return router
}

func invokeHandler(gw gateway.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		command := c.Param("command")
		req, ok := gateway.NewRequest(command)
		if !ok {
			writeError(c, apperrors.WithMessage(apperrors.ErrUnknownCommand, "unknown command: "+command))
			return
		}
		if req != nil {
			if err := c.ShouldBindJSON(req); err != nil {
				writeError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
				return
			}
		}

		var out json.RawMessage
		if err := gw.Invoke(c.Request.Context(), command, req, &out); err != nil {
			writeError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", out)
	}
}

func writeError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	c.JSON(appErr.StatusCode, gin.H{"error": appErr})
}

package handlers

import (
	"io"
	"net/http"

	"github.com/daignostics/report-backend/internal/core/dispatch"

	"github.com/gin-gonic/gin"
)

type InvokeHandler struct {
	D *dispatch.Dispatcher
}

func NewInvokeHandler(d *dispatch.Dispatcher) *InvokeHandler {
	return &InvokeHandler{D: d}
}

// Invoke mirrors a direct invocation: the whole envelope is the response
// body, statusCode and headers included.
func (h *InvokeHandler) Invoke(c *gin.Context) {
	event, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}
	c.JSON(http.StatusOK, h.D.Handle(c.Request.Context(), event))
}

// Report and Speech unwrap the envelope onto the HTTP response the way a
// gateway would, with the route fixing the operation.
func (h *InvokeHandler) Report(c *gin.Context) {
	h.proxy(c, dispatch.ActionGenerateReport)
}

func (h *InvokeHandler) Speech(c *gin.Context) {
	h.proxy(c, dispatch.ActionTextToSpeech)
}

func (h *InvokeHandler) proxy(c *gin.Context, action string) {
	event, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}
	env := h.D.HandleAction(c.Request.Context(), action, event)
	for k, v := range env.Headers {
		c.Writer.Header().Set(k, v)
	}
	c.Data(env.StatusCode, env.Headers["Content-Type"], []byte(env.Body))
}

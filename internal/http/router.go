package http

import (
	"net/http"

	"github.com/daignostics/report-backend/internal/core/dispatch"
	"github.com/daignostics/report-backend/internal/http/handlers"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func NewRouter(d *dispatch.Dispatcher) *gin.Engine {
	r := gin.Default()
	r.Use(requestID())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	ih := handlers.NewInvokeHandler(d)
	api := r.Group("/v1")
	api.POST("/invoke", ih.Invoke)
	api.POST("/reports", ih.Report)
	api.POST("/tts", ih.Speech)
	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-Id", "req_"+uuid.NewString())
		c.Next()
	}
}

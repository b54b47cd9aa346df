package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/voicememo/internal/api/handlers"
	"github.com/yoockh/voicememo/internal/api/middleware"
)

type Deps struct {
	Transcribe *handlers.TranscribeHandler
	Memo       *handlers.MemoHandler
	Jobs       *handlers.JobHandler // nil without Redis
	WS         *handlers.WSHandler

	// BodyLimit caps JSON bodies under /api; 0 disables it.
	BodyLimit int64
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := r.Group("/api")
	api.Use(middleware.BodyLimit(d.BodyLimit))
	api.POST("/transcribe", d.Transcribe.Transcribe)
	api.POST("/process", d.Memo.Process)
	api.POST("/memos", d.Memo.Create)

	if d.Jobs != nil {
		api.POST("/jobs", d.Jobs.Create)
		api.GET("/jobs/:job_id", d.Jobs.Get)
	}

	// WebSocket
	r.GET("/ws/record", d.WS.Record)
}

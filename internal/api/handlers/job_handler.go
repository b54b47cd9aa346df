package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/voicememo/internal/models"
	"github.com/yoockh/voicememo/internal/services"
)

type JobHandler struct {
	jobs services.JobService
}

func NewJobHandler(jobs services.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// Create handles POST /api/jobs.
func (h *JobHandler) Create(c *gin.Context) {
	var req models.TranscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, badBody("JobHandler.Create", err))
		return
	}

	job, err := h.jobs.Enqueue(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, job)
}

// Get handles GET /api/jobs/:job_id.
func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.jobs.Get(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

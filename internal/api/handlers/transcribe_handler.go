package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/voicememo/internal/models"
	"github.com/yoockh/voicememo/internal/services"
)

type TranscribeHandler struct {
	svc services.TranscriptionService
}

func NewTranscribeHandler(svc services.TranscriptionService) *TranscribeHandler {
	return &TranscribeHandler{svc: svc}
}

type TranscribeResponse struct {
	Transcription string `json:"transcription"`
}

// Transcribe handles POST /api/transcribe.
func (h *TranscribeHandler) Transcribe(c *gin.Context) {
	var req models.TranscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, badBody("TranscribeHandler.Transcribe", err))
		return
	}

	text, err := h.svc.TranscribeRequest(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, TranscribeResponse{Transcription: text})
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/voicememo/internal/codec"
	"github.com/yoockh/voicememo/internal/models"
	"github.com/yoockh/voicememo/internal/services"
	"github.com/yoockh/voicememo/internal/utils"
)

type MemoHandler struct {
	processing services.ProcessingService
	memos      services.MemoService
}

func NewMemoHandler(processing services.ProcessingService, memos services.MemoService) *MemoHandler {
	return &MemoHandler{processing: processing, memos: memos}
}

type ProcessRequest struct {
	Text string `json:"text"`
}

type MemoResponse struct {
	ID    string                 `json:"id,omitempty"`
	State models.ProcessingState `json:"state,omitempty"`
	models.Transcript
}

// Process handles POST /api/process. One failed derivation still answers
// 200 with the other variant and a per-slot error.
func (h *MemoHandler) Process(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, badBody("MemoHandler.Process", err))
		return
	}

	tr, err := h.processing.Process(c.Request.Context(), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MemoResponse{Transcript: tr})
}

// Create handles POST /api/memos: transcribe and post-process in one call.
func (h *MemoHandler) Create(c *gin.Context) {
	const op = "MemoHandler.Create"

	var req models.TranscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, badBody(op, err))
		return
	}
	audio, err := codec.Decode(req.AudioBase64)
	if err != nil {
		writeError(c, err)
		return
	}
	mime := strings.TrimSpace(req.MIMEType)
	if mime == "" {
		mime = codec.MIMETypeOfDataURL(req.AudioBase64)
	}
	if mime == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "mimeType is required", nil))
		return
	}

	sess, tr, err := h.memos.Create(c.Request.Context(), models.NewAudioArtifact(audio, mime))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MemoResponse{ID: sess.ID(), State: sess.State(), Transcript: tr})
}

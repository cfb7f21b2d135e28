package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const defaultDescribePrompt = "Describe this image in one or two sentences."

type transcribeAudioReq struct {
	AudioURL string `json:"audioUrl" binding:"required"`
}

// TranscribeAudio handles POST /transcribe-audio, per spec.md §6.
func (h *Handler) TranscribeAudio(c *gin.Context) {
	var req transcribeAudioReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "audioUrl is required")
		return
	}

	result, _, err := h.MediaClient.Transcribe(c.Request.Context(), req.AudioURL, "")
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	ok(c, gin.H{"text": result.Text, "audioUrl": req.AudioURL})
}

type describeImageReq struct {
	ImageURL string `json:"imageUrl" binding:"required"`
	Prompt   string `json:"prompt"`
}

// DescribeImage handles POST /describe-image, per spec.md §6.
func (h *Handler) DescribeImage(c *gin.Context) {
	var req describeImageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "imageUrl is required")
		return
	}
	prompt := req.Prompt
	if prompt == "" {
		prompt = defaultDescribePrompt
	}

	result, _, err := h.MediaClient.Describe(c.Request.Context(), req.ImageURL, prompt)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	ok(c, gin.H{"description": result.Description, "imageUrl": req.ImageURL, "prompt": prompt})
}

type extractTextReq struct {
	ImageURL string `json:"imageUrl" binding:"required"`
}

// ExtractText handles POST /extract-text, per spec.md §6.
func (h *Handler) ExtractText(c *gin.Context) {
	var req extractTextReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "imageUrl is required")
		return
	}

	result, _, err := h.MediaClient.ExtractText(c.Request.Context(), req.ImageURL, nil)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	ok(c, gin.H{"text": result.Text, "imageUrl": req.ImageURL})
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/storyloom-backend/internal/requestdata"
	"github.com/yungbote/storyloom-backend/internal/services"
)

type SceneHandler struct {
	pipeline     services.ScenePipeline
	storyService services.StoryService
}

func NewSceneHandler(pipeline services.ScenePipeline, storyService services.StoryService) *SceneHandler {
	return &SceneHandler{pipeline: pipeline, storyService: storyService}
}

// GenerateScene runs the full pipeline and streams progress as NDJSON, one
// JSON object per line, flushed as each stage completes. The final line is
// either the complete event or an error event.
func (sh *SceneHandler) GenerateScene(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	storyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	var req struct {
		Act         int `json:"act"`
		Chapter     int `json:"chapter"`
		SceneNumber int `json:"scene_number"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	c.Writer.Header().Set("Content-Type", "application/x-ndjson")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.WriteHeader(http.StatusOK)

	flusher, canFlush := c.Writer.(http.Flusher)
	enc := json.NewEncoder(c.Writer)

	progress := func(status string, data map[string]interface{}) {
		if err := enc.Encode(data); err != nil {
			return
		}
		if canFlush {
			flusher.Flush()
		}
	}

	// Status mapping happens inside the stream once headers are out, so pre-
	// stream failures (bad slot, busy slot, unknown story) still surface as a
	// terminal NDJSON error line rather than a broken response.
	if _, err := sh.pipeline.GenerateScene(c.Request.Context(), rd.UserID, storyID, req.Act, req.Chapter, req.SceneNumber, progress); err != nil {
		progress(services.StatusError, map[string]interface{}{
			"status":  services.StatusError,
			"message": err.Error(),
		})
	}
}

func (sh *SceneHandler) EditParagraph(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	sceneID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	var req struct {
		Content         string `json:"content"`
		RegenerateImage bool   `json:"regenerate_image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	scene, err := sh.storyService.EditParagraph(c.Request.Context(), rd.UserID, sceneID, index, req.Content, req.RegenerateImage)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"scene": scene})
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/storyloom-backend/internal/requestdata"
	"github.com/yungbote/storyloom-backend/internal/services"
	"github.com/yungbote/storyloom-backend/internal/types"
)

type fakePipeline struct {
	err error
}

func (f *fakePipeline) GenerateScene(ctx context.Context, userID uuid.UUID, storyID uuid.UUID, act, chapter, sceneNumber int, progress services.ProgressFunc) (*types.Scene, error) {
	if f.err != nil {
		return nil, f.err
	}
	progress(services.StatusGeneratingParagraphs, map[string]interface{}{"status": services.StatusGeneratingParagraphs})
	progress(services.StatusComplete, map[string]interface{}{"status": services.StatusComplete, "scene_id": uuid.New().String()})
	return &types.Scene{ID: uuid.New()}, nil
}

type fakeStoryService struct {
	editErr error
}

func (f *fakeStoryService) CreateStory(ctx context.Context, userID uuid.UUID, topic string, acts, chaptersPerAct, scenesPerChapter int) (*types.Story, error) {
	return nil, nil
}

func (f *fakeStoryService) GetStory(ctx context.Context, userID uuid.UUID, storyID uuid.UUID) (*types.Story, []*types.Scene, error) {
	return nil, nil, nil
}

func (f *fakeStoryService) ListStories(ctx context.Context, userID uuid.UUID) ([]*types.Story, error) {
	return nil, nil
}

func (f *fakeStoryService) DeleteStory(ctx context.Context, userID uuid.UUID, storyID uuid.UUID) error {
	return nil
}

func (f *fakeStoryService) NextScene(ctx context.Context, userID uuid.UUID, storyID uuid.UUID) (*services.NextSlot, error) {
	return nil, nil
}

func (f *fakeStoryService) EditParagraph(ctx context.Context, userID uuid.UUID, sceneID uuid.UUID, index int, content string, regenerateImage bool) (*types.Scene, error) {
	if f.editErr != nil {
		return nil, f.editErr
	}
	return &types.Scene{ID: sceneID}, nil
}

func (f *fakeStoryService) PreviewChapterScenes(ctx context.Context, userID uuid.UUID, storyID uuid.UUID, act, chapter int) (string, error) {
	return "", nil
}

func newSceneRouter(pipeline services.ScenePipeline, storySvc services.StoryService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{UserID: uuid.New()})
		c.Request = c.Request.WithContext(ctx)
	})
	handler := NewSceneHandler(pipeline, storySvc)
	router.POST("/api/stories/:id/scenes/generate", handler.GenerateScene)
	router.POST("/api/scenes/:id/paragraphs/:index", handler.EditParagraph)
	return router
}

func TestGenerateSceneStreamsNDJSON(t *testing.T) {
	router := newSceneRouter(&fakePipeline{}, &fakeStoryService{})

	body := `{"act":1,"chapter":1,"scene_number":1}`
	req := httptest.NewRequest("POST", "/api/stories/"+uuid.New().String()+"/scenes/generate", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Fatalf("content type: want=application/x-ndjson got=%q", ct)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines: want=2 got=%d (%q)", len(lines), w.Body.String())
	}

	var last map[string]interface{}
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &last); err != nil {
		t.Fatalf("decode last line: %v", err)
	}
	if last["status"] != services.StatusComplete {
		t.Fatalf("last status: want=%q got=%v", services.StatusComplete, last["status"])
	}
}

func TestGenerateSceneErrorIsTerminalLine(t *testing.T) {
	router := newSceneRouter(&fakePipeline{err: services.ErrSlotBusy}, &fakeStoryService{})

	body := `{"act":1,"chapter":1,"scene_number":1}`
	req := httptest.NewRequest("POST", "/api/stories/"+uuid.New().String()+"/scenes/generate", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var last map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(w.Body.String())), &last); err != nil {
		t.Fatalf("decode error line: %v", err)
	}
	if last["status"] != services.StatusError {
		t.Fatalf("status: want=%q got=%v", services.StatusError, last["status"])
	}
}

func TestGenerateSceneRejectsBadStoryID(t *testing.T) {
	router := newSceneRouter(&fakePipeline{}, &fakeStoryService{})

	req := httptest.NewRequest("POST", "/api/stories/not-a-uuid/scenes/generate", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", w.Code)
	}
}

func TestEditParagraphMapsServiceErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrNotFoundOrForbidden, http.StatusNotFound},
		{services.ErrValidation, http.StatusBadRequest},
		{services.ErrProvider, http.StatusBadGateway},
		{services.ErrPersistence, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		router := newSceneRouter(&fakePipeline{}, &fakeStoryService{editErr: tc.err})
		body := `{"content":"new text"}`
		req := httptest.NewRequest("POST", "/api/scenes/"+uuid.New().String()+"/paragraphs/0", strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != tc.want {
			t.Fatalf("error %v: status want=%d got=%d", tc.err, tc.want, w.Code)
		}
	}
}

package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storyloom-backend/internal/repos"
	"github.com/yungbote/storyloom-backend/internal/sse"
	"github.com/yungbote/storyloom-backend/internal/types"
)

type fakeGenerator struct {
	paragraphs []string
	sceneErr   error
}

func (f *fakeGenerator) GenerateBookSpec(ctx context.Context, topic string) (string, error) {
	return "Topic: " + topic + "\nLog Line: test line", nil
}

func (f *fakeGenerator) GenerateOutline(ctx context.Context, bookSpec string, acts int, chaptersPerAct int) (string, error) {
	return "outline", nil
}

func (f *fakeGenerator) GenerateScene(ctx context.Context, outline string, act int, chapter int, sceneNumber int) ([]string, error) {
	if f.sceneErr != nil {
		return nil, f.sceneErr
	}
	return f.paragraphs, nil
}

func (f *fakeGenerator) GenerateChapterScenes(ctx context.Context, outline string, act int, chapter int, sceneCount int) (string, error) {
	return "preview", nil
}

type fakeEnricher struct {
	imageURL string
	audioURL string
}

func (f *fakeEnricher) ImageFor(ctx context.Context, topic string, paragraph string) string {
	return f.imageURL
}

func (f *fakeEnricher) AudioFor(ctx context.Context, paragraph string) string {
	return f.audioURL
}

type captureEmitter struct {
	mu     sync.Mutex
	events []sse.SSEEvent
}

func (c *captureEmitter) Emit(userID uuid.UUID, event sse.SSEEvent, data map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

type pipelineFixture struct {
	db        *gorm.DB
	storyRepo repos.StoryRepo
	sceneRepo repos.SceneRepo
	emitter   *captureEmitter
	pipeline  ScenePipeline
	userID    uuid.UUID
	story     *types.Story
}

func newPipelineFixture(t *testing.T, gen StoryGenerator) *pipelineFixture {
	t.Helper()
	log := newTestLogger(t)
	gdb := newTestDB(t)
	storyRepo := repos.NewStoryRepo(gdb, log)
	sceneRepo := repos.NewSceneRepo(gdb, log)
	emitter := &captureEmitter{}

	userID := uuid.New()
	story := &types.Story{
		ID:               uuid.New(),
		UserID:           userID,
		Topic:            "lighthouses",
		BookSpec:         "Topic: lighthouses\nLog Line: test",
		Outline:          "outline",
		Acts:             2,
		ChaptersPerAct:   2,
		ScenesPerChapter: 2,
	}
	if _, err := storyRepo.Create(context.Background(), nil, []*types.Story{story}); err != nil {
		t.Fatalf("seed story: %v", err)
	}

	enricher := &fakeEnricher{imageURL: "/static/images/x.png", audioURL: "/static/audio/x.mp3"}
	return &pipelineFixture{
		db:        gdb,
		storyRepo: storyRepo,
		sceneRepo: sceneRepo,
		emitter:   emitter,
		pipeline:  NewScenePipeline(gdb, log, storyRepo, sceneRepo, gen, enricher, emitter),
		userID:    userID,
		story:     story,
	}
}

func TestGenerateScenePersistsContent(t *testing.T) {
	fx := newPipelineFixture(t, &fakeGenerator{paragraphs: []string{"one", "two"}})

	var statuses []string
	progress := func(status string, data map[string]interface{}) {
		statuses = append(statuses, status)
	}

	scene, err := fx.pipeline.GenerateScene(context.Background(), fx.userID, fx.story.ID, 1, 1, 1, progress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !scene.Generated {
		t.Fatalf("scene should be marked generated")
	}

	paragraphs, err := scene.Paragraphs()
	if err != nil {
		t.Fatalf("decode paragraphs: %v", err)
	}
	if len(paragraphs) != 2 {
		t.Fatalf("paragraphs: want=2 got=%d", len(paragraphs))
	}
	if paragraphs[0].Content != "one" || paragraphs[0].ImageURL != "/static/images/x.png" || paragraphs[0].AudioURL != "/static/audio/x.mp3" {
		t.Fatalf("paragraph not enriched: %+v", paragraphs[0])
	}

	if statuses[0] != StatusGeneratingParagraphs {
		t.Fatalf("first status: want=%q got=%q", StatusGeneratingParagraphs, statuses[0])
	}
	if statuses[len(statuses)-1] != StatusComplete {
		t.Fatalf("last status: want=%q got=%q", StatusComplete, statuses[len(statuses)-1])
	}

	stored, err := fx.sceneRepo.GetBySlot(context.Background(), nil, fx.story.ID, 1, 1, 1)
	if err != nil {
		t.Fatalf("load slot: %v", err)
	}
	if stored == nil || stored.ID != scene.ID {
		t.Fatalf("stored scene mismatch: %+v", stored)
	}
}

func TestGenerateSceneRegenerateKeepsSceneID(t *testing.T) {
	fx := newPipelineFixture(t, &fakeGenerator{paragraphs: []string{"first pass"}})

	scene1, err := fx.pipeline.GenerateScene(context.Background(), fx.userID, fx.story.ID, 1, 2, 1, nil)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}

	fx2 := fx.pipeline.(*scenePipeline)
	fx2.generator = &fakeGenerator{paragraphs: []string{"second pass"}}

	scene2, err := fx.pipeline.GenerateScene(context.Background(), fx.userID, fx.story.ID, 1, 2, 1, nil)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if scene1.ID != scene2.ID {
		t.Fatalf("regeneration changed scene id: %s vs %s", scene1.ID, scene2.ID)
	}

	paragraphs, err := scene2.Paragraphs()
	if err != nil {
		t.Fatalf("decode paragraphs: %v", err)
	}
	if len(paragraphs) != 1 || paragraphs[0].Content != "second pass" {
		t.Fatalf("regeneration did not overwrite content: %+v", paragraphs)
	}
}

func TestGenerateSceneEmitsEnrichedParagraphs(t *testing.T) {
	fx := newPipelineFixture(t, &fakeGenerator{paragraphs: []string{"one", "two"}})

	var enriched []types.Paragraph
	progress := func(status string, data map[string]interface{}) {
		if status != StatusImageGenerated {
			return
		}
		p, ok := data["paragraph"].(types.Paragraph)
		if !ok {
			t.Fatalf("event paragraph: want types.Paragraph, got %T", data["paragraph"])
		}
		if idx, ok := data["index"].(int); !ok || idx != len(enriched) {
			t.Fatalf("event index: want=%d got=%v", len(enriched), data["index"])
		}
		enriched = append(enriched, p)
	}

	if _, err := fx.pipeline.GenerateScene(context.Background(), fx.userID, fx.story.ID, 1, 1, 1, progress); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(enriched) != 2 {
		t.Fatalf("paragraph events: want=2 got=%d", len(enriched))
	}
	for i, p := range enriched {
		if p.Content == "" || p.ImageURL == "" || p.AudioURL == "" {
			t.Fatalf("paragraph %d event missing media: %+v", i, p)
		}
	}
	if enriched[0].Content != "one" || enriched[1].Content != "two" {
		t.Fatalf("paragraph order wrong: %+v", enriched)
	}
}

// selectiveEnricher degrades to placeholders for one specific paragraph and
// returns content-derived URLs for everything else.
type selectiveEnricher struct {
	failContent string
}

func (f *selectiveEnricher) ImageFor(ctx context.Context, topic string, paragraph string) string {
	if paragraph == f.failContent {
		return DefaultPlaceholderImageURL
	}
	return "/static/images/" + paragraph + ".png"
}

func (f *selectiveEnricher) AudioFor(ctx context.Context, paragraph string) string {
	if paragraph == f.failContent {
		return DefaultPlaceholderAudioURL
	}
	return "/static/audio/" + paragraph + ".mp3"
}

func TestGenerateSceneEnrichmentFailureIsIsolated(t *testing.T) {
	fx := newPipelineFixture(t, &fakeGenerator{paragraphs: []string{"calm", "storm"}})
	fx.pipeline.(*scenePipeline).enricher = &selectiveEnricher{failContent: "storm"}

	scene, err := fx.pipeline.GenerateScene(context.Background(), fx.userID, fx.story.ID, 1, 1, 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	paragraphs, err := scene.Paragraphs()
	if err != nil {
		t.Fatalf("decode paragraphs: %v", err)
	}
	if len(paragraphs) != 2 {
		t.Fatalf("paragraphs: want=2 got=%d", len(paragraphs))
	}
	if paragraphs[0].ImageURL != "/static/images/calm.png" || paragraphs[0].AudioURL != "/static/audio/calm.mp3" {
		t.Fatalf("sibling paragraph degraded too: %+v", paragraphs[0])
	}
	if paragraphs[1].ImageURL != DefaultPlaceholderImageURL || paragraphs[1].AudioURL != DefaultPlaceholderAudioURL {
		t.Fatalf("failing paragraph should carry placeholders: %+v", paragraphs[1])
	}
}

func TestGenerateSceneForeignStoryIsNotFound(t *testing.T) {
	fx := newPipelineFixture(t, &fakeGenerator{paragraphs: []string{"p"}})

	_, err := fx.pipeline.GenerateScene(context.Background(), uuid.New(), fx.story.ID, 1, 1, 1, nil)
	if !errors.Is(err, ErrNotFoundOrForbidden) {
		t.Fatalf("want ErrNotFoundOrForbidden, got=%v", err)
	}

	count, cErr := fx.sceneRepo.CountByStoryID(context.Background(), nil, fx.story.ID)
	if cErr != nil {
		t.Fatalf("count scenes: %v", cErr)
	}
	if count != 0 {
		t.Fatalf("forbidden request must not persist scenes, got=%d", count)
	}
}

func TestGenerateSceneSlotOutsideGrid(t *testing.T) {
	fx := newPipelineFixture(t, &fakeGenerator{paragraphs: []string{"p"}})

	_, err := fx.pipeline.GenerateScene(context.Background(), fx.userID, fx.story.ID, 3, 1, 1, nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("want ErrValidation, got=%v", err)
	}
}

func TestGenerateSceneSlotBusy(t *testing.T) {
	fx := newPipelineFixture(t, &fakeGenerator{paragraphs: []string{"p"}})

	p := fx.pipeline.(*scenePipeline)
	key := slotKey(fx.story.ID, 1, 1, 2)
	if !p.acquireSlot(key) {
		t.Fatalf("could not acquire slot for test")
	}
	defer p.releaseSlot(key)

	_, err := fx.pipeline.GenerateScene(context.Background(), fx.userID, fx.story.ID, 1, 1, 2, nil)
	if !errors.Is(err, ErrSlotBusy) {
		t.Fatalf("want ErrSlotBusy, got=%v", err)
	}
}

func TestGenerateSceneGeneratorFailureEmitsError(t *testing.T) {
	fx := newPipelineFixture(t, &fakeGenerator{sceneErr: ErrEmptyGeneration})

	var last string
	progress := func(status string, data map[string]interface{}) {
		last = status
	}

	_, err := fx.pipeline.GenerateScene(context.Background(), fx.userID, fx.story.ID, 1, 1, 1, progress)
	if !errors.Is(err, ErrEmptyGeneration) {
		t.Fatalf("want ErrEmptyGeneration, got=%v", err)
	}
	if last != StatusError {
		t.Fatalf("last status: want=%q got=%q", StatusError, last)
	}

	failed := false
	for _, ev := range fx.emitter.events {
		if ev == sse.SSEEventSceneGenerationFailed {
			failed = true
		}
	}
	if !failed {
		t.Fatalf("expected a failure event, got=%v", fx.emitter.events)
	}
}

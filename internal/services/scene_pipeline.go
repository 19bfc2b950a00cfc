package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/repos"
	"github.com/yungbote/storyloom-backend/internal/sse"
	"github.com/yungbote/storyloom-backend/internal/types"
)

// ProgressFunc receives each pipeline status update in order. The HTTP layer
// uses it to stream NDJSON lines while the pipeline is still running.
type ProgressFunc func(status string, data map[string]interface{})

const (
	StatusGeneratingParagraphs = "generating_paragraphs"
	StatusParagraphsGenerated  = "paragraphs_generated"
	StatusImageGenerated       = "image_generated"
	StatusComplete             = "complete"
	StatusError                = "error"
)

type ScenePipeline interface {
	GenerateScene(ctx context.Context, userID uuid.UUID, storyID uuid.UUID, act, chapter, sceneNumber int, progress ProgressFunc) (*types.Scene, error)
}

type scenePipeline struct {
	db  *gorm.DB
	log *logger.Logger

	storyRepo repos.StoryRepo
	sceneRepo repos.SceneRepo

	generator StoryGenerator
	enricher  MediaEnricher
	emitter   EventEmitter

	mu    sync.Mutex
	slots map[string]struct{}
}

func NewScenePipeline(
	db *gorm.DB,
	baseLog *logger.Logger,
	storyRepo repos.StoryRepo,
	sceneRepo repos.SceneRepo,
	generator StoryGenerator,
	enricher MediaEnricher,
	emitter EventEmitter,
) ScenePipeline {
	return &scenePipeline{
		db:        db,
		log:       baseLog.With("service", "ScenePipeline"),
		storyRepo: storyRepo,
		sceneRepo: sceneRepo,
		generator: generator,
		enricher:  enricher,
		emitter:   emitter,
		slots:     make(map[string]struct{}),
	}
}

func slotKey(storyID uuid.UUID, act, chapter, sceneNumber int) string {
	return fmt.Sprintf("%s/%d/%d/%d", storyID.String(), act, chapter, sceneNumber)
}

func (p *scenePipeline) acquireSlot(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, held := p.slots[key]; held {
		return false
	}
	p.slots[key] = struct{}{}
	return true
}

func (p *scenePipeline) releaseSlot(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.slots, key)
}

func (p *scenePipeline) GenerateScene(ctx context.Context, userID uuid.UUID, storyID uuid.UUID, act, chapter, sceneNumber int, progress ProgressFunc) (*types.Scene, error) {
	story, err := p.loadOwnedStory(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}

	if act < 1 || act > story.Acts ||
		chapter < 1 || chapter > story.ChaptersPerAct ||
		sceneNumber < 1 || sceneNumber > story.ScenesPerChapter {
		return nil, fmt.Errorf("%w: slot (%d,%d,%d) outside story grid", ErrValidation, act, chapter, sceneNumber)
	}

	key := slotKey(storyID, act, chapter, sceneNumber)
	if !p.acquireSlot(key) {
		return nil, fmt.Errorf("%w: slot (%d,%d,%d)", ErrSlotBusy, act, chapter, sceneNumber)
	}
	defer p.releaseSlot(key)

	emit := func(status string, data map[string]interface{}) {
		if data == nil {
			data = map[string]interface{}{}
		}
		data["status"] = status
		data["story_id"] = storyID.String()
		data["act"] = act
		data["chapter"] = chapter
		data["scene_number"] = sceneNumber
		if progress != nil {
			progress(status, data)
		}
		if p.emitter != nil {
			p.emitter.Emit(userID, sse.SSEEventSceneGenerationProgress, data)
		}
	}

	fail := func(stage string, err error) (*types.Scene, error) {
		p.log.Error("Scene generation failed", "stage", stage, "story_id", storyID.String(), "error", err.Error())
		data := map[string]interface{}{"stage": stage, "message": err.Error()}
		if progress != nil {
			data["status"] = StatusError
			progress(StatusError, data)
		}
		if p.emitter != nil {
			p.emitter.Emit(userID, sse.SSEEventSceneGenerationFailed, data)
		}
		return nil, err
	}

	emit(StatusGeneratingParagraphs, nil)

	texts, err := p.generator.GenerateScene(ctx, story.Outline, act, chapter, sceneNumber)
	if err != nil {
		return fail("generate_paragraphs", err)
	}
	emit(StatusParagraphsGenerated, map[string]interface{}{"paragraphs": texts})

	paragraphs := make([]types.Paragraph, len(texts))
	for i, text := range texts {
		paragraphs[i] = types.Paragraph{Content: text}
	}

	// One pass per paragraph: illustration, then narration, then a single
	// progress event carrying the paragraph's final state.
	for i := range paragraphs {
		paragraphs[i].ImageURL = p.enricher.ImageFor(ctx, story.Topic, paragraphs[i].Content)
		paragraphs[i].AudioURL = p.enricher.AudioFor(ctx, paragraphs[i].Content)
		emit(StatusImageGenerated, map[string]interface{}{
			"index":     i,
			"paragraph": paragraphs[i],
		})
	}

	scene, err := p.persistScene(ctx, storyID, act, chapter, sceneNumber, paragraphs)
	if err != nil {
		return fail("persist", fmt.Errorf("%w: %v", ErrPersistence, err))
	}

	emit(StatusComplete, map[string]interface{}{"scene_id": scene.ID.String()})
	if p.emitter != nil {
		p.emitter.Emit(userID, sse.SSEEventSceneGenerationDone, map[string]interface{}{
			"story_id": storyID.String(),
			"scene_id": scene.ID.String(),
		})
	}

	return scene, nil
}

func (p *scenePipeline) loadOwnedStory(ctx context.Context, userID, storyID uuid.UUID) (*types.Story, error) {
	stories, err := p.storyRepo.GetByIDs(ctx, nil, []uuid.UUID{storyID})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if len(stories) == 0 || stories[0].UserID != userID {
		return nil, ErrNotFoundOrForbidden
	}
	return stories[0], nil
}

// persistScene writes content into the slot, creating the row when the grid
// was never preallocated there. Regeneration keeps the scene ID stable.
func (p *scenePipeline) persistScene(ctx context.Context, storyID uuid.UUID, act, chapter, sceneNumber int, paragraphs []types.Paragraph) (*types.Scene, error) {
	var scene *types.Scene

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := p.sceneRepo.GetBySlot(ctx, tx, storyID, act, chapter, sceneNumber)
		if err != nil {
			return err
		}

		if existing == nil {
			fresh := &types.Scene{
				ID:          uuid.New(),
				StoryID:     storyID,
				Act:         act,
				Chapter:     chapter,
				SceneNumber: sceneNumber,
			}
			if err := fresh.SetParagraphs(paragraphs); err != nil {
				return err
			}
			fresh.Generated = true
			created, err := p.sceneRepo.Create(ctx, tx, []*types.Scene{fresh})
			if err != nil {
				return err
			}
			scene = created[0]
			return nil
		}

		if err := existing.SetParagraphs(paragraphs); err != nil {
			return err
		}
		if err := p.sceneRepo.SetContent(ctx, tx, existing.ID, existing.Content, true); err != nil {
			return err
		}
		existing.Generated = true
		scene = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scene, nil
}

package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/repos"
	"github.com/yungbote/storyloom-backend/internal/sse"
	"github.com/yungbote/storyloom-backend/internal/types"
)

const (
	DefaultActs             = 5
	DefaultChaptersPerAct   = 3
	DefaultScenesPerChapter = 3
)

// NextSlot names the next position in the story grid a client should
// generate. Done is true once every scene has content.
type NextSlot struct {
	Act         int  `json:"act"`
	Chapter     int  `json:"chapter"`
	SceneNumber int  `json:"scene_number"`
	Done        bool `json:"done"`
}

type StoryService interface {
	CreateStory(ctx context.Context, userID uuid.UUID, topic string, acts, chaptersPerAct, scenesPerChapter int) (*types.Story, error)
	GetStory(ctx context.Context, userID uuid.UUID, storyID uuid.UUID) (*types.Story, []*types.Scene, error)
	ListStories(ctx context.Context, userID uuid.UUID) ([]*types.Story, error)
	DeleteStory(ctx context.Context, userID uuid.UUID, storyID uuid.UUID) error
	NextScene(ctx context.Context, userID uuid.UUID, storyID uuid.UUID) (*NextSlot, error)
	EditParagraph(ctx context.Context, userID uuid.UUID, sceneID uuid.UUID, index int, content string, regenerateImage bool) (*types.Scene, error)
	PreviewChapterScenes(ctx context.Context, userID uuid.UUID, storyID uuid.UUID, act, chapter int) (string, error)
}

type storyService struct {
	db  *gorm.DB
	log *logger.Logger

	storyRepo repos.StoryRepo
	sceneRepo repos.SceneRepo

	generator StoryGenerator
	enricher  MediaEnricher
	emitter   EventEmitter
}

func NewStoryService(
	db *gorm.DB,
	baseLog *logger.Logger,
	storyRepo repos.StoryRepo,
	sceneRepo repos.SceneRepo,
	generator StoryGenerator,
	enricher MediaEnricher,
	emitter EventEmitter,
) StoryService {
	return &storyService{
		db:        db,
		log:       baseLog.With("service", "StoryService"),
		storyRepo: storyRepo,
		sceneRepo: sceneRepo,
		generator: generator,
		enricher:  enricher,
		emitter:   emitter,
	}
}

func (s *storyService) CreateStory(ctx context.Context, userID uuid.UUID, topic string, acts, chaptersPerAct, scenesPerChapter int) (*types.Story, error) {
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrValidation)
	}
	if acts <= 0 {
		acts = DefaultActs
	}
	if chaptersPerAct <= 0 {
		chaptersPerAct = DefaultChaptersPerAct
	}
	if scenesPerChapter <= 0 {
		scenesPerChapter = DefaultScenesPerChapter
	}

	bookSpec, err := s.generator.GenerateBookSpec(ctx, topic)
	if err != nil {
		return nil, err
	}
	outline, err := s.generator.GenerateOutline(ctx, bookSpec, acts, chaptersPerAct)
	if err != nil {
		return nil, err
	}

	story := &types.Story{
		ID:               uuid.New(),
		UserID:           userID,
		Topic:            topic,
		BookSpec:         bookSpec,
		Outline:          outline,
		Acts:             acts,
		ChaptersPerAct:   chaptersPerAct,
		ScenesPerChapter: scenesPerChapter,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.storyRepo.Create(ctx, tx, []*types.Story{story}); err != nil {
			return err
		}

		// Preallocate the full grid so progress and scheduling are just row
		// lookups. Empty slots hold an empty paragraph list.
		scenes := make([]*types.Scene, 0, acts*chaptersPerAct*scenesPerChapter)
		for act := 1; act <= acts; act++ {
			for chapter := 1; chapter <= chaptersPerAct; chapter++ {
				for num := 1; num <= scenesPerChapter; num++ {
					scenes = append(scenes, &types.Scene{
						ID:          uuid.New(),
						StoryID:     story.ID,
						Act:         act,
						Chapter:     chapter,
						SceneNumber: num,
						Content:     datatypes.JSON([]byte("[]")),
						Generated:   false,
					})
				}
			}
		}
		_, err := s.sceneRepo.Create(ctx, tx, scenes)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if s.emitter != nil {
		s.emitter.Emit(userID, sse.SSEEventStoryCreated, map[string]interface{}{
			"story_id": story.ID.String(),
			"topic":    story.Topic,
		})
	}

	s.log.Info("Story created", "story_id", story.ID.String(), "acts", acts, "chapters_per_act", chaptersPerAct, "scenes_per_chapter", scenesPerChapter)
	return story, nil
}

func (s *storyService) GetStory(ctx context.Context, userID uuid.UUID, storyID uuid.UUID) (*types.Story, []*types.Scene, error) {
	story, err := s.loadOwnedStory(ctx, userID, storyID)
	if err != nil {
		return nil, nil, err
	}
	scenes, err := s.sceneRepo.GetByStoryID(ctx, nil, storyID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return story, scenes, nil
}

func (s *storyService) ListStories(ctx context.Context, userID uuid.UUID) ([]*types.Story, error) {
	stories, err := s.storyRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return stories, nil
}

func (s *storyService) DeleteStory(ctx context.Context, userID uuid.UUID, storyID uuid.UUID) error {
	if _, err := s.loadOwnedStory(ctx, userID, storyID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.sceneRepo.FullDeleteByStoryIDs(ctx, tx, []uuid.UUID{storyID}); err != nil {
			return err
		}
		return s.storyRepo.SoftDeleteByIDs(ctx, tx, []uuid.UUID{storyID})
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if s.emitter != nil {
		s.emitter.Emit(userID, sse.SSEEventStoryDeleted, map[string]interface{}{
			"story_id": storyID.String(),
		})
	}
	return nil
}

func (s *storyService) NextScene(ctx context.Context, userID uuid.UUID, storyID uuid.UUID) (*NextSlot, error) {
	if _, err := s.loadOwnedStory(ctx, userID, storyID); err != nil {
		return nil, err
	}

	scene, err := s.sceneRepo.FirstUngenerated(ctx, nil, storyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if scene == nil {
		return &NextSlot{Done: true}, nil
	}
	return &NextSlot{
		Act:         scene.Act,
		Chapter:     scene.Chapter,
		SceneNumber: scene.SceneNumber,
	}, nil
}

func (s *storyService) EditParagraph(ctx context.Context, userID uuid.UUID, sceneID uuid.UUID, index int, content string, regenerateImage bool) (*types.Scene, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: paragraph content is required", ErrValidation)
	}

	scenes, err := s.sceneRepo.GetByIDs(ctx, nil, []uuid.UUID{sceneID})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if len(scenes) == 0 {
		return nil, ErrNotFoundOrForbidden
	}
	scene := scenes[0]

	story, err := s.loadOwnedStory(ctx, userID, scene.StoryID)
	if err != nil {
		return nil, err
	}

	paragraphs, err := scene.Paragraphs()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if index < 0 || index >= len(paragraphs) {
		return nil, fmt.Errorf("%w: paragraph index %d out of range", ErrValidation, index)
	}

	paragraphs[index].Content = content
	if regenerateImage {
		paragraphs[index].ImageURL = s.enricher.ImageFor(ctx, story.Topic, content)
	}

	if err := scene.SetParagraphs(paragraphs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := s.sceneRepo.SetContent(ctx, nil, scene.ID, scene.Content, scene.Generated); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return scene, nil
}

func (s *storyService) PreviewChapterScenes(ctx context.Context, userID uuid.UUID, storyID uuid.UUID, act, chapter int) (string, error) {
	story, err := s.loadOwnedStory(ctx, userID, storyID)
	if err != nil {
		return "", err
	}
	if act < 1 || act > story.Acts || chapter < 1 || chapter > story.ChaptersPerAct {
		return "", fmt.Errorf("%w: chapter (%d,%d) outside story grid", ErrValidation, act, chapter)
	}
	return s.generator.GenerateChapterScenes(ctx, story.Outline, act, chapter, story.ScenesPerChapter)
}

func (s *storyService) loadOwnedStory(ctx context.Context, userID, storyID uuid.UUID) (*types.Story, error) {
	stories, err := s.storyRepo.GetByIDs(ctx, nil, []uuid.UUID{storyID})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if len(stories) == 0 || stories[0].UserID != userID {
		return nil, ErrNotFoundOrForbidden
	}
	return stories[0], nil
}

package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/types"
)

type SceneRepo interface {
	Create(ctx context.Context, tx *gorm.DB, scenes []*types.Scene) ([]*types.Scene, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, sceneIDs []uuid.UUID) ([]*types.Scene, error)
	GetByStoryID(ctx context.Context, tx *gorm.DB, storyID uuid.UUID) ([]*types.Scene, error)
	GetBySlot(ctx context.Context, tx *gorm.DB, storyID uuid.UUID, act, chapter, sceneNumber int) (*types.Scene, error)
	FirstUngenerated(ctx context.Context, tx *gorm.DB, storyID uuid.UUID) (*types.Scene, error)
	CountByStoryID(ctx context.Context, tx *gorm.DB, storyID uuid.UUID) (int64, error)
	SetContent(ctx context.Context, tx *gorm.DB, sceneID uuid.UUID, content datatypes.JSON, generated bool) error
	FullDeleteByStoryIDs(ctx context.Context, tx *gorm.DB, storyIDs []uuid.UUID) error
}

type sceneRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSceneRepo(db *gorm.DB, baseLog *logger.Logger) SceneRepo {
	repoLog := baseLog.With("repo", "SceneRepo")
	return &sceneRepo{db: db, log: repoLog}
}

func (r *sceneRepo) Create(ctx context.Context, tx *gorm.DB, scenes []*types.Scene) ([]*types.Scene, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(scenes) == 0 {
		return []*types.Scene{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&scenes).Error; err != nil {
		return nil, err
	}
	return scenes, nil
}

func (r *sceneRepo) GetByIDs(ctx context.Context, tx *gorm.DB, sceneIDs []uuid.UUID) ([]*types.Scene, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Scene
	if len(sceneIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", sceneIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sceneRepo) GetByStoryID(ctx context.Context, tx *gorm.DB, storyID uuid.UUID) ([]*types.Scene, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Scene
	if err := transaction.WithContext(ctx).
		Where("story_id = ?", storyID).
		Order("act, chapter, scene_number ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetBySlot returns nil without error when the slot has no row.
func (r *sceneRepo) GetBySlot(ctx context.Context, tx *gorm.DB, storyID uuid.UUID, act, chapter, sceneNumber int) (*types.Scene, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Scene
	err := transaction.WithContext(ctx).
		Where("story_id = ? AND act = ? AND chapter = ? AND scene_number = ?", storyID, act, chapter, sceneNumber).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

// FirstUngenerated returns the grid-order-first scene with generated=false,
// or nil when every scene of the story is generated.
func (r *sceneRepo) FirstUngenerated(ctx context.Context, tx *gorm.DB, storyID uuid.UUID) (*types.Scene, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Scene
	err := transaction.WithContext(ctx).
		Where("story_id = ? AND generated = ?", storyID, false).
		Order("act, chapter, scene_number ASC").
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *sceneRepo) CountByStoryID(ctx context.Context, tx *gorm.DB, storyID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Scene{}).
		Where("story_id = ?", storyID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *sceneRepo) SetContent(ctx context.Context, tx *gorm.DB, sceneID uuid.UUID, content datatypes.JSON, generated bool) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Scene{}).
		Where("id = ?", sceneID).
		Updates(map[string]any{
			"content":    content,
			"generated":  generated,
			"updated_at": time.Now(),
		}).Error; err != nil {
		return err
	}
	return nil
}

func (r *sceneRepo) FullDeleteByStoryIDs(ctx context.Context, tx *gorm.DB, storyIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(storyIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Unscoped().
		Where("story_id IN ?", storyIDs).
		Delete(&types.Scene{}).Error; err != nil {
		return err
	}
	return nil
}

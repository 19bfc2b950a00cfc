package repos

import (
	"context"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/types"
)

type StoryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, stories []*types.Story) ([]*types.Story, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, storyIDs []uuid.UUID) ([]*types.Story, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Story, error)
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, storyIDs []uuid.UUID) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, storyIDs []uuid.UUID) error
}

type storyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStoryRepo(db *gorm.DB, baseLog *logger.Logger) StoryRepo {
	repoLog := baseLog.With("repo", "StoryRepo")
	return &storyRepo{db: db, log: repoLog}
}

func (r *storyRepo) Create(ctx context.Context, tx *gorm.DB, stories []*types.Story) ([]*types.Story, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(stories) == 0 {
		return []*types.Story{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&stories).Error; err != nil {
		return nil, err
	}
	return stories, nil
}

func (r *storyRepo) GetByIDs(ctx context.Context, tx *gorm.DB, storyIDs []uuid.UUID) ([]*types.Story, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Story
	if len(storyIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", storyIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *storyRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Story, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Story
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *storyRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, storyIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(storyIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", storyIDs).
		Delete(&types.Story{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *storyRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, storyIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(storyIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Unscoped().
		Where("id IN ?", storyIDs).
		Delete(&types.Story{}).Error; err != nil {
		return err
	}
	return nil
}

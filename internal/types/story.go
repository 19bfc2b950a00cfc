package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Story struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User             *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Topic            string         `gorm:"column:topic;not null" json:"topic"`
	BookSpec         string         `gorm:"column:book_spec;type:text" json:"book_spec"`
	Outline          string         `gorm:"column:outline;type:text" json:"outline"`
	Acts             int            `gorm:"column:acts;not null" json:"acts"`
	ChaptersPerAct   int            `gorm:"column:chapters_per_act;not null" json:"chapters_per_act"`
	ScenesPerChapter int            `gorm:"column:scenes_per_chapter;not null" json:"scenes_per_chapter"`
	Scenes           []*Scene       `gorm:"foreignKey:StoryID;references:ID" json:"scenes,omitempty"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Story) TableName() string { return "story" }

package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Paragraph is one unit of scene text with its attached media URLs. It is
// embedded in Scene.Content as a JSON array, never stored as its own row.
type Paragraph struct {
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
	AudioURL string `json:"audio_url"`
}

type Scene struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StoryID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_scene_slot,priority:1" json:"story_id"`
	Story       *Story         `gorm:"constraint:OnDelete:CASCADE;foreignKey:StoryID;references:ID" json:"story,omitempty"`
	Act         int            `gorm:"column:act;not null;uniqueIndex:idx_scene_slot,priority:2" json:"act"`
	Chapter     int            `gorm:"column:chapter;not null;uniqueIndex:idx_scene_slot,priority:3" json:"chapter"`
	SceneNumber int            `gorm:"column:scene_number;not null;uniqueIndex:idx_scene_slot,priority:4" json:"scene_number"`
	Content     datatypes.JSON `gorm:"column:content;not null" json:"content"`
	Generated   bool           `gorm:"column:generated;not null;default:false;index" json:"generated"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (Scene) TableName() string { return "scene" }

func (s *Scene) Paragraphs() ([]Paragraph, error) {
	if len(s.Content) == 0 {
		return []Paragraph{}, nil
	}
	var out []Paragraph
	if err := json.Unmarshal(s.Content, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Scene) SetParagraphs(paragraphs []Paragraph) error {
	if paragraphs == nil {
		paragraphs = []Paragraph{}
	}
	b, err := json.Marshal(paragraphs)
	if err != nil {
		return err
	}
	s.Content = datatypes.JSON(b)
	return nil
}

package entities

import (
	"time"

	"clipforge/constant"

	"github.com/google/uuid"
)

type Composition struct {
	ID            uuid.UUID                  `json:"id"`
	SourceId      string                     `json:"source_id"`
	StartTime     float64                    `json:"start_time"`
	Duration      float64                    `json:"duration"`
	SoundEffect   string                     `json:"sound_effect"`
	Status        constant.CompositionStatus `json:"status"`
	OutputPath    string                     `json:"output_path"`
	ThumbnailPath string                     `json:"thumbnail_path"`
	RealDuration  float64                    `json:"real_duration"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

func (Composition) TableName() string {
	return "compositions"
}

package entities

import (
	"time"

	"clipforge/constant"

	"github.com/google/uuid"
)

type SourceVideo struct {
	ID         uuid.UUID             `json:"id"`
	Origin     constant.SourceOrigin `json:"origin"`
	OriginalId string                `json:"original_id"`
	Path       string                `json:"path"`
	CreatedAt  time.Time             `json:"created_at"`
}

func (SourceVideo) TableName() string {
	return "source_videos"
}

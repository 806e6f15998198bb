package repository

import (
	"context"
	"database/sql"

	"clipforge/constant"
	"clipforge/entities"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type CompositionRepository interface {
	GetDB() *gorm.DB
	CreateSourceVideo(ctx context.Context, video *entities.SourceVideo) error
	CreateComposition(ctx context.Context, composition *entities.Composition) error
	UpdateCompositionStatus(ctx context.Context, id uuid.UUID, status constant.CompositionStatus) error
	FinishComposition(ctx context.Context, id uuid.UUID, realDuration float64, outputPath, thumbnailPath string) error
	FindCompositionById(ctx context.Context, id uuid.UUID) (*entities.Composition, error)
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) (CompositionRepository, error) {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		},
	)
	if err != nil {
		return nil, err
	}
	return &repo{
		db: gormDB,
	}, nil
}

func (r *repo) GetDB() *gorm.DB {
	return r.db
}

func (r *repo) CreateSourceVideo(ctx context.Context, video *entities.SourceVideo) error {
	return r.GetDB().WithContext(ctx).Create(video).Error
}

func (r *repo) CreateComposition(ctx context.Context, composition *entities.Composition) error {
	return r.GetDB().WithContext(ctx).Create(composition).Error
}

func (r *repo) UpdateCompositionStatus(ctx context.Context, id uuid.UUID, status constant.CompositionStatus) error {
	composition := &entities.Composition{}
	err := r.GetDB().WithContext(ctx).Model(composition).Where("id = ?", id).Update("status", status).Error
	if err != nil {
		return err
	}
	return nil
}

func (r *repo) FinishComposition(ctx context.Context, id uuid.UUID, realDuration float64, outputPath, thumbnailPath string) error {
	composition := &entities.Composition{}
	updates := map[string]interface{}{
		"status":         constant.CompositionStatusCompleted,
		"real_duration":  realDuration,
		"output_path":    outputPath,
		"thumbnail_path": thumbnailPath,
	}
	err := r.GetDB().WithContext(ctx).Model(composition).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return err
	}
	return nil
}

func (r *repo) FindCompositionById(ctx context.Context, id uuid.UUID) (*entities.Composition, error) {
	composition := &entities.Composition{}
	err := r.GetDB().WithContext(ctx).First(composition, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return composition, nil
}

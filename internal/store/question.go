package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnedge/learnedge/internal/logger"
)

type QuestionRepo interface {
	// CreateBatch persists questions in slice order.
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*Question) error
	// GetWithMaterial loads a question and its parent material.
	GetWithMaterial(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Question, error)
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{db: db, log: baseLog.With("repo", "QuestionRepo")}
}

func (r *questionRepo) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*Question) error {
	if len(questions) == 0 {
		return nil
	}
	for i, q := range questions {
		q.Position = i
	}
	return pick(r.db, tx).WithContext(ctx).Omit("Material").Create(&questions).Error
}

func (r *questionRepo) GetWithMaterial(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Question, error) {
	var out []Question
	if err := pick(r.db, tx).WithContext(ctx).
		Preload("Material").
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnedge/learnedge/internal/logger"
)

type StudyPlanRepo interface {
	Create(ctx context.Context, tx *gorm.DB, plan *StudyPlan) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]StudyPlan, error)
}

type studyPlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudyPlanRepo(db *gorm.DB, baseLog *logger.Logger) StudyPlanRepo {
	return &studyPlanRepo{db: db, log: baseLog.With("repo", "StudyPlanRepo")}
}

func (r *studyPlanRepo) Create(ctx context.Context, tx *gorm.DB, plan *StudyPlan) error {
	return pick(r.db, tx).WithContext(ctx).Create(plan).Error
}

func (r *studyPlanRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]StudyPlan, error) {
	var out []StudyPlan
	if err := pick(r.db, tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

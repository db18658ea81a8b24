package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnedge/learnedge/internal/logger"
)

type AttemptRepo interface {
	Create(ctx context.Context, tx *gorm.DB, a *Attempt) error
	// ListRecent returns up to limit attempts, newest first, each with its
	// question preloaded. Attempts sharing a timestamp are ordered by ID
	// descending.
	ListRecent(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]Attempt, error)
	// ListIncorrect returns up to limit incorrect attempts, newest first,
	// each with its question and the question's material preloaded.
	ListIncorrect(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]Attempt, error)
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type attemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AttemptRepo {
	return &attemptRepo{db: db, log: baseLog.With("repo", "AttemptRepo")}
}

func (r *attemptRepo) Create(ctx context.Context, tx *gorm.DB, a *Attempt) error {
	return pick(r.db, tx).WithContext(ctx).Omit("Question").Create(a).Error
}

func (r *attemptRepo) ListRecent(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]Attempt, error) {
	var out []Attempt
	if err := pick(r.db, tx).WithContext(ctx).
		Preload("Question").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attemptRepo) ListIncorrect(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]Attempt, error) {
	var out []Attempt
	if err := pick(r.db, tx).WithContext(ctx).
		Preload("Question.Material", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title", "user_id", "created_at")
		}).
		Where("user_id = ? AND is_correct = ?", userID, false).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attemptRepo) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	res := pick(r.db, tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&Attempt{})
	return res.RowsAffected, res.Error
}

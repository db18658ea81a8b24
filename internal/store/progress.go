package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/learnedge/learnedge/internal/logger"
)

type ProgressRepo interface {
	Get(ctx context.Context, tx *gorm.DB, userID uuid.UUID, topic string) (*Progress, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]Progress, error)
	// ListByRecency orders by lastAttemptAt, newest first.
	ListByRecency(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]Progress, error)
	// ListWeak returns up to limit rows with mastery below threshold,
	// weakest first.
	ListWeak(ctx context.Context, tx *gorm.DB, userID uuid.UUID, threshold, limit int) ([]Progress, error)
	// Save inserts p when it has no ID yet and otherwise overwrites the row
	// with p's values. No read-modify-write check is made. An insert that
	// races another insert for the same (user, topic) overwrites that row.
	Save(ctx context.Context, tx *gorm.DB, p *Progress) error
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return &progressRepo{db: db, log: baseLog.With("repo", "ProgressRepo")}
}

func (r *progressRepo) Get(ctx context.Context, tx *gorm.DB, userID uuid.UUID, topic string) (*Progress, error) {
	var out []Progress
	if err := pick(r.db, tx).WithContext(ctx).
		Where("user_id = ? AND topic = ?", userID, topic).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (r *progressRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]Progress, error) {
	var out []Progress
	if err := pick(r.db, tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("topic ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *progressRepo) ListByRecency(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]Progress, error) {
	var out []Progress
	if err := pick(r.db, tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_attempt_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *progressRepo) ListWeak(ctx context.Context, tx *gorm.DB, userID uuid.UUID, threshold, limit int) ([]Progress, error) {
	var out []Progress
	if err := pick(r.db, tx).WithContext(ctx).
		Where("user_id = ? AND mastery_level < ?", userID, threshold).
		Order("mastery_level ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *progressRepo) Save(ctx context.Context, tx *gorm.DB, p *Progress) error {
	db := pick(r.db, tx).WithContext(ctx)
	if p.ID == uuid.Nil {
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "topic"}},
			DoUpdates: clause.AssignmentColumns(progressColumns),
		}).Create(p).Error
	}
	return db.Model(&Progress{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{
			"mastery_level":   p.MasteryLevel,
			"confidence":      p.Confidence,
			"total_attempts":  p.TotalAttempts,
			"correct_count":   p.CorrectCount,
			"last_attempt_at": p.LastAttemptAt,
		}).Error
}

func (r *progressRepo) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	res := pick(r.db, tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&Progress{})
	return res.RowsAffected, res.Error
}

var progressColumns = []string{"mastery_level", "confidence", "total_attempts", "correct_count", "last_attempt_at"}

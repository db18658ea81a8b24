package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnedge/learnedge/internal/logger"
)

type MaterialRepo interface {
	Create(ctx context.Context, tx *gorm.DB, m *Material) error
	// GetOwned returns the material only if it belongs to userID.
	GetOwned(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*Material, error)
	// GetOwnedWithQuestions also loads the material's questions in
	// generation order.
	GetOwnedWithQuestions(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*Material, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]Material, error)
	// FindByContentSubstring returns the newest owned material whose raw
	// content contains needle (case-sensitive).
	FindByContentSubstring(ctx context.Context, tx *gorm.DB, userID uuid.UUID, needle string) (*Material, error)
}

type materialRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialRepo(db *gorm.DB, baseLog *logger.Logger) MaterialRepo {
	return &materialRepo{db: db, log: baseLog.With("repo", "MaterialRepo")}
}

func (r *materialRepo) Create(ctx context.Context, tx *gorm.DB, m *Material) error {
	return pick(r.db, tx).WithContext(ctx).Omit("Questions").Create(m).Error
}

func (r *materialRepo) GetOwned(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*Material, error) {
	var out []Material
	if err := pick(r.db, tx).WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (r *materialRepo) GetOwnedWithQuestions(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*Material, error) {
	var out []Material
	if err := pick(r.db, tx).WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, position ASC")
		}).
		Where("id = ? AND user_id = ?", id, userID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (r *materialRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]Material, error) {
	var out []Material
	if err := pick(r.db, tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Matched in Go: case-sensitive and free of LIKE wildcards on every dialect.
func (r *materialRepo) FindByContentSubstring(ctx context.Context, tx *gorm.DB, userID uuid.UUID, needle string) (*Material, error) {
	materials, err := r.ListByUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	for i := range materials {
		if strings.Contains(materials[i].Content, needle) {
			return &materials[i], nil
		}
	}
	return nil, nil
}

package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/learnedge/learnedge/internal/logger"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, user *User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*User, error)
	EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
	// EnsureGuest creates the shared guest row if it does not exist yet.
	EnsureGuest(ctx context.Context, tx *gorm.DB) (*User, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, user *User) error {
	return pick(r.db, tx).WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error) {
	var users []User
	if err := pick(r.db, tx).WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&users).Error; err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (r *userRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*User, error) {
	var users []User
	if err := pick(r.db, tx).WithContext(ctx).
		Where("email = ?", email).
		Limit(1).
		Find(&users).Error; err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (r *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	var count int64
	if err := pick(r.db, tx).WithContext(ctx).
		Model(&User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepo) EnsureGuest(ctx context.Context, tx *gorm.DB) (*User, error) {
	guest := &User{ID: GuestUserID, Email: GuestEmail, Name: "Guest"}
	if err := pick(r.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(guest).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, tx, GuestUserID)
}

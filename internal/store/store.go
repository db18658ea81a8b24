package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/learnedge/learnedge/internal/logger"

	// Pure Go SQLite driver (no CGO), registered as "sqlite".
	_ "modernc.org/sqlite"
)

// Store holds the gorm handle and hands out repositories.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects to dsn and runs auto-migration. A postgres:// or
// postgresql:// URL selects Postgres; anything else is treated as a SQLite
// DSN (file path or file: URI).
func Open(dsn string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	cfg := &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: false,
	}

	var (
		db  *gorm.DB
		err error
	)
	if isPostgres(dsn) {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		db, err = gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, log: log.With("component", "Store")}

	if !isPostgres(dsn) {
		if err := s.applyPragmas(); err != nil {
			s.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	}

	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates or updates all tables.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// DB returns the underlying gorm handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Transaction runs fn in a single unit of work. Repositories called with
// the tx argument participate in it.
func (s *Store) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *Store) Users() UserRepo           { return NewUserRepo(s.db, s.log) }
func (s *Store) Materials() MaterialRepo   { return NewMaterialRepo(s.db, s.log) }
func (s *Store) Questions() QuestionRepo   { return NewQuestionRepo(s.db, s.log) }
func (s *Store) Attempts() AttemptRepo     { return NewAttemptRepo(s.db, s.log) }
func (s *Store) Progress() ProgressRepo    { return NewProgressRepo(s.db, s.log) }
func (s *Store) StudyPlans() StudyPlanRepo { return NewStudyPlanRepo(s.db, s.log) }
func (s *Store) EventRepo() EventRepo      { return NewEventRepo(s.db, s.log) }

// applyPragmas configures SQLite. A single connection keeps the pragmas
// (and in-memory databases) stable across the pool.
func (s *Store) applyPragmas() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if err := s.db.Exec(p).Error; err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// pick returns tx when set, otherwise the base handle.
func pick(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

// EnsureDir creates the parent directory of a SQLite database file. URIs,
// in-memory databases and Postgres URLs are left alone.
func EnsureDir(dsn string) error {
	if dsn == "" || isPostgres(dsn) || strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, ":memory:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(dsn), 0o755)
}

// Package storetest provides throwaway databases and seed helpers for tests.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/learnedge/learnedge/internal/logger"
	"github.com/learnedge/learnedge/internal/store"
)

// Open returns a migrated in-memory SQLite store private to tb.
func Open(tb testing.TB) *store.Store {
	tb.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	s, err := store.Open(dsn, logger.Nop())
	if err != nil {
		tb.Fatalf("open test store: %v", err)
	}
	tb.Cleanup(func() { s.Close() })
	return s
}

func SeedUser(tb testing.TB, s *store.Store, email string) *store.User {
	tb.Helper()
	u := &store.User{Email: email, Password: "x", Name: "Test"}
	if err := s.Users().Create(context.Background(), nil, u); err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedMaterial(tb testing.TB, s *store.Store, userID uuid.UUID, title, content string, createdAt time.Time) *store.Material {
	tb.Helper()
	m := &store.Material{
		UserID:        userID,
		Title:         title,
		Content:       content,
		TopicAnalysis: datatypes.JSON(`[]`),
		CreatedAt:     createdAt,
	}
	if err := s.Materials().Create(context.Background(), nil, m); err != nil {
		tb.Fatalf("seed material: %v", err)
	}
	return m
}

func SeedQuestion(tb testing.TB, s *store.Store, materialID uuid.UUID, subTopic string) *store.Question {
	tb.Helper()
	opts, _ := json.Marshal([]string{"A", "B", "C", "D"})
	q := &store.Question{
		MaterialID:    materialID,
		Type:          store.QuestionMCQ,
		QuestionText:  "Which option is right?",
		Difficulty:    "MEDIUM",
		Options:       datatypes.JSON(opts),
		CorrectAnswer: "A",
		Explanation:   "Because.",
		SubTopic:      subTopic,
	}
	if err := s.Questions().CreateBatch(context.Background(), nil, []*store.Question{q}); err != nil {
		tb.Fatalf("seed question: %v", err)
	}
	return q
}

func SeedProgress(tb testing.TB, s *store.Store, userID uuid.UUID, topic string, mastery int, lastAttempt time.Time) *store.Progress {
	tb.Helper()
	p := &store.Progress{
		UserID:        userID,
		Topic:         topic,
		MasteryLevel:  mastery,
		Confidence:    mastery,
		TotalAttempts: 1,
		LastAttemptAt: lastAttempt,
	}
	if err := s.Progress().Save(context.Background(), nil, p); err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
	return p
}

func SeedAttempt(tb testing.TB, s *store.Store, userID, questionID uuid.UUID, correct bool, createdAt time.Time) *store.Attempt {
	tb.Helper()
	score := 30
	if correct {
		score = 90
	}
	a := &store.Attempt{
		UserID:        userID,
		QuestionID:    questionID,
		StudentAnswer: "answer",
		Score:         score,
		IsCorrect:     correct,
		CreatedAt:     createdAt,
	}
	if err := s.Attempts().Create(context.Background(), nil, a); err != nil {
		tb.Fatalf("seed attempt: %v", err)
	}
	return a
}

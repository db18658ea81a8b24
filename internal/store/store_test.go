package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/learnedge/learnedge/internal/store"
	"github.com/learnedge/learnedge/internal/store/storetest"
)

func TestPragmasApplied(t *testing.T) {
	s := storetest.Open(t)

	tests := []struct {
		pragma string
		want   string
	}{
		// journal_mode reports "memory" for in-memory databases.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}
	for _, tt := range tests {
		var got string
		if err := s.DB().Raw("PRAGMA " + tt.pragma).Scan(&got).Error; err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestUserRepo_EmailLookupAndGuest(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()
	u := storetest.SeedUser(t, s, "ada@example.test")

	got, err := s.Users().GetByEmail(ctx, nil, "ada@example.test")
	if err != nil || got == nil || got.ID != u.ID {
		t.Fatalf("GetByEmail = %v, %v", got, err)
	}
	missing, err := s.Users().GetByEmail(ctx, nil, "nobody@example.test")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown email, got %v, %v", missing, err)
	}

	for range 2 {
		g, err := s.Users().EnsureGuest(ctx, nil)
		if err != nil {
			t.Fatalf("EnsureGuest: %v", err)
		}
		if g.ID != store.GuestUserID {
			t.Fatalf("guest id = %s", g.ID)
		}
	}
}

func TestMaterialRepo_OwnershipAndOrder(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()
	owner := storetest.SeedUser(t, s, "owner@example.test")
	other := storetest.SeedUser(t, s, "other@example.test")

	base := time.Now().Add(-time.Hour)
	old := storetest.SeedMaterial(t, s, owner.ID, "Old", "Photosynthesis basics", base)
	newer := storetest.SeedMaterial(t, s, owner.ID, "New", "photosynthesis advanced", base.Add(time.Minute))

	list, err := s.Materials().ListByUser(ctx, nil, owner.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID || list[1].ID != old.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}

	if m, _ := s.Materials().GetOwned(ctx, nil, old.ID, other.ID); m != nil {
		t.Fatal("material visible to non-owner")
	}

	// Case-sensitive match skips the newer material.
	m, err := s.Materials().FindByContentSubstring(ctx, nil, owner.ID, "Photosynthesis")
	if err != nil {
		t.Fatalf("FindByContentSubstring: %v", err)
	}
	if m == nil || m.ID != old.ID {
		t.Fatalf("expected %s, got %+v", old.ID, m)
	}
}

func TestQuestionRepo_PreservesGenerationOrder(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()
	u := storetest.SeedUser(t, s, "q@example.test")
	m := storetest.SeedMaterial(t, s, u.ID, "T", "content", time.Now())

	qs := []*store.Question{
		{MaterialID: m.ID, Type: store.QuestionShort, QuestionText: "first"},
		{MaterialID: m.ID, Type: store.QuestionShort, QuestionText: "second"},
		{MaterialID: m.ID, Type: store.QuestionLong, QuestionText: "third"},
	}
	if err := s.Questions().CreateBatch(ctx, nil, qs); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	got, err := s.Materials().GetOwnedWithQuestions(ctx, nil, m.ID, u.ID)
	if err != nil {
		t.Fatalf("GetOwnedWithQuestions: %v", err)
	}
	if len(got.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(got.Questions))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got.Questions[i].QuestionText != want {
			t.Errorf("question %d = %q, want %q", i, got.Questions[i].QuestionText, want)
		}
	}

	q, err := s.Questions().GetWithMaterial(ctx, nil, qs[1].ID)
	if err != nil || q == nil || q.Material == nil || q.Material.ID != m.ID {
		t.Fatalf("GetWithMaterial = %+v, %v", q, err)
	}
}

func TestAttemptRepo_IncorrectNewestFirst(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()
	u := storetest.SeedUser(t, s, "a@example.test")
	m := storetest.SeedMaterial(t, s, u.ID, "Biology", "content", time.Now())
	q := storetest.SeedQuestion(t, s, m.ID, "cells")

	base := time.Now().Add(-time.Hour)
	for i := range 25 {
		storetest.SeedAttempt(t, s, u.ID, q.ID, i%5 == 0, base.Add(time.Duration(i)*time.Second))
	}

	got, err := s.Attempts().ListIncorrect(ctx, nil, u.ID, 20)
	if err != nil {
		t.Fatalf("ListIncorrect: %v", err)
	}
	if len(got) != 20 {
		t.Fatalf("expected 20 rows, got %d", len(got))
	}
	for i, a := range got {
		if a.IsCorrect {
			t.Errorf("row %d is correct", i)
		}
		if i > 0 && !a.CreatedAt.Before(got[i-1].CreatedAt) {
			t.Errorf("row %d not strictly older than row %d", i, i-1)
		}
		if a.Question == nil || a.Question.Material == nil || a.Question.Material.Title != "Biology" {
			t.Fatalf("row %d missing question/material join", i)
		}
	}
}

func TestProgressRepo_ListWeak(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()
	u := uuid.New()
	now := time.Now()

	storetest.SeedProgress(t, s, u, "algebra", 80, now)
	storetest.SeedProgress(t, s, u, "geometry", 40, now)
	storetest.SeedProgress(t, s, u, "calculus", 55, now)
	storetest.SeedProgress(t, s, u, "trig", 10, now)
	storetest.SeedProgress(t, s, u, "stats", 59, now)

	weak, err := s.Progress().ListWeak(ctx, nil, u, 60, 3)
	if err != nil {
		t.Fatalf("ListWeak: %v", err)
	}
	want := []string{"trig", "geometry", "calculus"}
	if len(weak) != len(want) {
		t.Fatalf("expected %d weak topics, got %d", len(want), len(weak))
	}
	for i, w := range want {
		if weak[i].Topic != w {
			t.Errorf("weak[%d] = %q, want %q", i, weak[i].Topic, w)
		}
	}
}

func TestProgressRepo_InsertRaceOverwrites(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()
	u := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	// Both writers saw no row for the topic, so both insert.
	first := &store.Progress{UserID: u, Topic: "osmosis", MasteryLevel: 100, Confidence: 100, TotalAttempts: 1, CorrectCount: 1, LastAttemptAt: now}
	second := &store.Progress{UserID: u, Topic: "osmosis", MasteryLevel: 0, Confidence: 50, TotalAttempts: 1, LastAttemptAt: now.Add(time.Second)}
	if err := s.Progress().Save(ctx, nil, first); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := s.Progress().Save(ctx, nil, second); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	rows, err := s.Progress().ListByUser(ctx, nil, u)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row for (user, topic), got %d", len(rows))
	}
	got := rows[0]
	if got.MasteryLevel != 0 || got.Confidence != 50 || got.CorrectCount != 0 || got.TotalAttempts != 1 {
		t.Fatalf("row = %+v, want the second write", got)
	}
	if !got.LastAttemptAt.Equal(now.Add(time.Second)) {
		t.Errorf("lastAttemptAt = %v, want %v", got.LastAttemptAt, now.Add(time.Second))
	}
}

func TestAttemptRepo_SameTimestampOrderIsStable(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()
	u := storetest.SeedUser(t, s, "tie@example.test")
	m := storetest.SeedMaterial(t, s, u.ID, "Physics", "content", time.Now())
	q := storetest.SeedQuestion(t, s, m.ID, "forces")

	at := time.Now().Add(-time.Minute)
	for range 4 {
		storetest.SeedAttempt(t, s, u.ID, q.ID, false, at)
	}

	list := map[string]func() ([]store.Attempt, error){
		"recent":    func() ([]store.Attempt, error) { return s.Attempts().ListRecent(ctx, nil, u.ID, 10) },
		"incorrect": func() ([]store.Attempt, error) { return s.Attempts().ListIncorrect(ctx, nil, u.ID, 10) },
	}
	for name, fn := range list {
		t.Run(name, func(t *testing.T) {
			got, err := fn()
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 4 {
				t.Fatalf("expected 4 rows, got %d", len(got))
			}
			for i := 1; i < len(got); i++ {
				if got[i].ID.String() >= got[i-1].ID.String() {
					t.Errorf("row %d (%s) not after row %d (%s) in ID order", i, got[i].ID, i-1, got[i-1].ID)
				}
			}
			again, _ := fn()
			for i := range got {
				if again[i].ID != got[i].ID {
					t.Fatalf("order changed between calls at row %d", i)
				}
			}
		})
	}
}

func TestEventRepo_AppendAndQuery(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()
	repo := s.EventRepo()

	for _, purpose := range []string{"analysis", "question-gen", "question-gen"} {
		if err := repo.AppendLLMRequest(ctx, store.LLMRequestEventData{
			Provider: "mock", Model: "mock", Purpose: purpose,
			InputTokens: 10, OutputTokens: 5, LatencyMs: 20, Success: true,
			RequestBody: "req", ResponseBody: "resp",
		}); err != nil {
			t.Fatalf("AppendLLMRequest: %v", err)
		}
	}

	events, err := repo.QueryLLMEvents(ctx, store.QueryOpts{Purpose: "question-gen"})
	if err != nil {
		t.Fatalf("QueryLLMEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	if err := repo.AppendLLMRequest(ctx, store.LLMRequestEventData{
		Provider: "mock", Model: "mock", Purpose: "evaluation", ErrorMessage: "LLM provider unavailable",
	}); err != nil {
		t.Fatalf("AppendLLMRequest: %v", err)
	}
	failed, err := repo.QueryLLMEvents(ctx, store.QueryOpts{FailedOnly: true})
	if err != nil {
		t.Fatalf("QueryLLMEvents: %v", err)
	}
	if len(failed) != 1 || failed[0].Purpose != "evaluation" {
		t.Fatalf("failed events = %+v", failed)
	}

	e, err := repo.GetLLMEvent(ctx, events[0].ID)
	if err != nil || e == nil || e.ResponseBody != "resp" {
		t.Fatalf("GetLLMEvent = %+v, %v", e, err)
	}

	usage, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("LLMUsageByPurpose: %v", err)
	}
	if len(usage) != 3 || usage[2].Purpose != "question-gen" || usage[2].Calls != 2 || usage[2].InputTokens != 20 {
		t.Fatalf("unexpected usage: %+v", usage)
	}
}

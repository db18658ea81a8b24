package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnedge/learnedge/internal/ai"
	"github.com/learnedge/learnedge/internal/apperr"
	"github.com/learnedge/learnedge/internal/evaluation"
	"github.com/learnedge/learnedge/internal/llm"
	"github.com/learnedge/learnedge/internal/questiongen"
	"github.com/learnedge/learnedge/internal/store"
	"github.com/learnedge/learnedge/internal/store/storetest"
)

const questionSet = `{"questions":[
	{"type":"SHORT","questionText":"Define osmosis.","difficulty":"EASY","correctAnswer":"Water moving across a membrane","explanation":"e","subTopic":"Osmosis"},
	{"type":"MCQ","questionText":"Which moves in diffusion?","difficulty":"MEDIUM","options":["Particles","Walls","Light","Sound"],"correctAnswer":"Particles","explanation":"e","subTopic":"Diffusion"},
	{"type":"LONG","questionText":"Compare both.","difficulty":"HARD","correctAnswer":"...","explanation":"e","subTopic":""}
]}`

func evaluationJSON(score int, correct bool) json.RawMessage {
	out, _ := json.Marshal(map[string]any{
		"score": score, "isCorrect": correct, "feedback": "fb", "explanation": "ex",
		"analogy": "an", "memoryTrick": "mt", "realWorldExample": "rw",
	})
	return out
}

type fixture struct {
	st   *store.Store
	mock *llm.MockProvider
	svc  *Service
	user *store.User
}

func newFixture(t *testing.T, responses ...llm.MockResponse) *fixture {
	t.Helper()
	st := storetest.Open(t)
	mock := llm.NewMockProvider(responses...)
	gw := ai.NewGateway(mock, 0, nil)
	svc := NewService(Deps{
		Tx:            st,
		Materials:     st.Materials(),
		Questions:     st.Questions(),
		Attempts:      st.Attempts(),
		Progress:      st.Progress(),
		Generator:     questiongen.New(gw, questiongen.DefaultConfig()),
		Evaluator:     evaluation.NewEvaluator(gw, evaluation.DefaultConfig()),
		QuestionCount: 10,
	})
	return &fixture{st: st, mock: mock, svc: svc, user: storetest.SeedUser(t, st, "student@school.test")}
}

func TestGenerateQuestions(t *testing.T) {
	f := newFixture(t, llm.MockResponse{Content: json.RawMessage(questionSet)})
	ctx := context.Background()
	m := storetest.SeedMaterial(t, f.st, f.user.ID, "Bio", "Osmosis and Diffusion", time.Now())
	storetest.SeedProgress(t, f.st, f.user.ID, "a", 40, time.Now())
	storetest.SeedProgress(t, f.st, f.user.ID, "b", 61, time.Now())

	qs, err := f.svc.GenerateQuestions(ctx, m.ID, f.user.ID)
	if err != nil {
		t.Fatalf("GenerateQuestions: %v", err)
	}
	wantText := []string{"Define osmosis.", "Which moves in diffusion?", "Compare both."}
	if len(qs) != len(wantText) {
		t.Fatalf("got %d questions", len(qs))
	}
	for i, q := range qs {
		if q.QuestionText != wantText[i] || q.MaterialID != m.ID {
			t.Errorf("question %d = %+v", i, q)
		}
	}
	if qs[0].Options != nil {
		t.Errorf("SHORT question has options %s", qs[0].Options)
	}
	var opts []string
	if err := json.Unmarshal(qs[1].Options, &opts); err != nil || len(opts) != 4 {
		t.Errorf("MCQ options = %s (%v)", qs[1].Options, err)
	}

	// (40 + 61) / 2 = 50.5 rounds to 51.
	if msg := f.mock.Calls[0].Messages[0].Content; !strings.Contains(msg, "Mastery Level: 51%") {
		t.Errorf("difficulty signal missing from prompt")
	}

	stored, err := f.st.Materials().GetOwnedWithQuestions(ctx, nil, m.ID, f.user.ID)
	if err != nil {
		t.Fatal(err)
	}
	for i, q := range stored.Questions {
		if q.QuestionText != wantText[i] {
			t.Errorf("stored order %d = %q", i, q.QuestionText)
		}
	}
}

func TestGenerateQuestions_DefaultDifficulty(t *testing.T) {
	f := newFixture(t, llm.MockResponse{Content: json.RawMessage(questionSet)})
	m := storetest.SeedMaterial(t, f.st, f.user.ID, "Bio", "c", time.Now())

	if _, err := f.svc.GenerateQuestions(context.Background(), m.ID, f.user.ID); err != nil {
		t.Fatal(err)
	}
	if msg := f.mock.Calls[0].Messages[0].Content; !strings.Contains(msg, "Mastery Level: 50%") {
		t.Errorf("expected default mastery 50 in prompt")
	}
}

func TestGenerateQuestions_Failures(t *testing.T) {
	t.Run("not owned", func(t *testing.T) {
		f := newFixture(t)
		other := storetest.SeedUser(t, f.st, "other@school.test")
		m := storetest.SeedMaterial(t, f.st, other.ID, "Theirs", "c", time.Now())

		_, err := f.svc.GenerateQuestions(context.Background(), m.ID, f.user.ID)
		if !apperr.Is(err, apperr.KindNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
		if f.mock.CallCount() != 0 {
			t.Fatal("AI called for foreign material")
		}
	})

	t.Run("malformed AI output", func(t *testing.T) {
		f := newFixture(t, llm.MockResponse{Content: json.RawMessage(
			`{"questions":[{"type":"MCQ","questionText":"Q","difficulty":"EASY","correctAnswer":"A","explanation":"","subTopic":"t"}]}`)})
		m := storetest.SeedMaterial(t, f.st, f.user.ID, "Bio", "c", time.Now())

		_, err := f.svc.GenerateQuestions(context.Background(), m.ID, f.user.ID)
		if !apperr.Is(err, apperr.KindInternal) || !errors.Is(err, ai.ErrMalformedResponse) {
			t.Fatalf("expected internal malformed error, got %v", err)
		}
		stored, _ := f.st.Materials().GetOwnedWithQuestions(context.Background(), nil, m.ID, f.user.ID)
		if len(stored.Questions) != 0 {
			t.Fatalf("questions stored despite failure")
		}
	})
}

func TestSubmitAnswer_UpdatesProgress(t *testing.T) {
	f := newFixture(t,
		llm.MockResponse{Content: evaluationJSON(80, true)},
		llm.MockResponse{Content: evaluationJSON(40, false)},
	)
	ctx := context.Background()
	m := storetest.SeedMaterial(t, f.st, f.user.ID, "Bio", "Osmosis moves water.", time.Now())
	q := storetest.SeedQuestion(t, f.st, m.ID, "Osmosis")

	fast := 12
	a, err := f.svc.SubmitAnswer(ctx, f.user.ID, q.ID, "water moves", &fast)
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if a.Score != 80 || !a.IsCorrect || a.MemoryTrick != "mt" || a.TimeTaken == nil || *a.TimeTaken != 12 {
		t.Fatalf("attempt = %+v", a)
	}
	if msg := f.mock.Calls[0].Messages[0].Content; !strings.Contains(msg, "Osmosis moves water.") || !strings.Contains(msg, "Student: water moves") {
		t.Errorf("evaluation prompt missing context or answer")
	}

	p, err := f.st.Progress().Get(ctx, nil, f.user.ID, "Osmosis")
	if err != nil || p == nil {
		t.Fatalf("progress row: %v %v", p, err)
	}
	if p.MasteryLevel != 80 || p.Confidence != 90 || p.TotalAttempts != 1 || p.CorrectCount != 1 {
		t.Fatalf("first progress = %+v", p)
	}

	if _, err := f.svc.SubmitAnswer(ctx, f.user.ID, q.ID, "no idea", nil); err != nil {
		t.Fatalf("second SubmitAnswer: %v", err)
	}
	p, _ = f.st.Progress().Get(ctx, nil, f.user.ID, "Osmosis")
	if p.MasteryLevel != 60 || p.Confidence != 65 || p.TotalAttempts != 2 || p.CorrectCount != 1 {
		t.Fatalf("second progress = %+v", p)
	}
}

func TestSubmitAnswer_FlattensMistakeAnalysis(t *testing.T) {
	f := newFixture(t, llm.MockResponse{Content: json.RawMessage(
		`{"score":20,"isCorrect":false,"feedback":"Not quite.","explanation":"","mistakeAnalysis":{"misconception":"Mixed up terms"}}`)})
	m := storetest.SeedMaterial(t, f.st, f.user.ID, "Bio", "c", time.Now())
	q := storetest.SeedQuestion(t, f.st, m.ID, "")

	a, err := f.svc.SubmitAnswer(context.Background(), f.user.ID, q.ID, "x", nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.Feedback != "Not quite.\n\nMistake analysis:\n- Misconception: Mixed up terms" {
		t.Fatalf("feedback = %q", a.Feedback)
	}
	rows, _ := f.st.Progress().ListByUser(context.Background(), nil, f.user.ID)
	if len(rows) != 0 {
		t.Fatalf("question without subtopic touched progress: %+v", rows)
	}
}

func TestSubmitAnswer_NotFound(t *testing.T) {
	f := newFixture(t)
	other := storetest.SeedUser(t, f.st, "other@school.test")
	m := storetest.SeedMaterial(t, f.st, other.ID, "Theirs", "c", time.Now())
	q := storetest.SeedQuestion(t, f.st, m.ID, "t")

	for name, id := range map[string]uuid.UUID{"missing": uuid.New(), "foreign": q.ID} {
		if _, err := f.svc.SubmitAnswer(context.Background(), f.user.ID, id, "x", nil); !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("%s: expected not found, got %v", name, err)
		}
	}
	if f.mock.CallCount() != 0 {
		t.Fatal("AI called without a valid question")
	}
}

type failingProgress struct {
	store.ProgressRepo
}

func (failingProgress) Save(context.Context, *gorm.DB, *store.Progress) error {
	return errors.New("disk full")
}

func TestSubmitAnswer_ProgressFailureRollsBackAttempt(t *testing.T) {
	f := newFixture(t, llm.MockResponse{Content: evaluationJSON(90, true)})
	f.svc.progress = failingProgress{ProgressRepo: f.st.Progress()}
	m := storetest.SeedMaterial(t, f.st, f.user.ID, "Bio", "c", time.Now())
	q := storetest.SeedQuestion(t, f.st, m.ID, "Osmosis")

	_, err := f.svc.SubmitAnswer(context.Background(), f.user.ID, q.ID, "x", nil)
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	attempts, err := f.st.Attempts().ListRecent(context.Background(), nil, f.user.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(attempts) != 0 {
		t.Fatalf("attempt survived a failed progress write")
	}
}

func TestSaveProgress_LostUpdateWithStaleSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	storetest.SeedProgress(t, f.st, f.user.ID, "Osmosis", 40, time.Now())

	// Two submissions read the same row before either writes.
	stale, err := f.st.Progress().Get(ctx, nil, f.user.ID, "Osmosis")
	if err != nil || stale == nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := f.svc.saveProgress(ctx, nil, stale, f.user.ID, "Osmosis", 100, nil); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.saveProgress(ctx, nil, stale, f.user.ID, "Osmosis", 0, nil); err != nil {
		t.Fatal(err)
	}

	final, _ := f.st.Progress().Get(ctx, nil, f.user.ID, "Osmosis")
	// Last write wins: (40+0)/2, and only one of the two attempts is counted.
	if final.MasteryLevel != 20 || final.TotalAttempts != 2 {
		t.Fatalf("final = %+v", final)
	}
}

func TestSaveProgress_FirstAttemptsRaceOnNewTopic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Neither submission found a row, so both start from an empty snapshot.
	if err := f.svc.saveProgress(ctx, nil, nil, f.user.ID, "Osmosis", 100, nil); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := f.svc.saveProgress(ctx, nil, nil, f.user.ID, "Osmosis", 0, nil); err != nil {
		t.Fatalf("second save: %v", err)
	}

	rows, _ := f.st.Progress().ListByUser(ctx, nil, f.user.ID)
	if len(rows) != 1 {
		t.Fatalf("expected one progress row, got %d", len(rows))
	}
	if rows[0].MasteryLevel != 0 || rows[0].TotalAttempts != 1 || rows[0].CorrectCount != 0 {
		t.Fatalf("final = %+v, want the later write", rows[0])
	}
}

func TestGetMistakesForReview(t *testing.T) {
	f := newFixture(t)
	m := storetest.SeedMaterial(t, f.st, f.user.ID, "Chemistry", "c", time.Now())
	q := storetest.SeedQuestion(t, f.st, m.ID, "Bonds")
	base := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		storetest.SeedAttempt(t, f.st, f.user.ID, q.ID, i%6 == 0, base.Add(time.Duration(i)*time.Minute))
	}

	got, err := f.svc.GetMistakesForReview(context.Background(), f.user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 20 {
		t.Fatalf("expected 20 mistakes, got %d", len(got))
	}
	for i, a := range got {
		if a.IsCorrect {
			t.Fatalf("row %d is correct", i)
		}
		if i > 0 && !a.CreatedAt.Before(got[i-1].CreatedAt) {
			t.Fatalf("row %d not strictly older than row %d", i, i-1)
		}
		if a.Question == nil || a.Question.Material == nil || a.Question.Material.Title != "Chemistry" {
			t.Fatalf("row %d missing question/material join", i)
		}
	}
}

func TestGetPerformance(t *testing.T) {
	f := newFixture(t)
	m := storetest.SeedMaterial(t, f.st, f.user.ID, "Bio", "c", time.Now())
	q := storetest.SeedQuestion(t, f.st, m.ID, "Cells")
	base := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 55; i++ {
		storetest.SeedAttempt(t, f.st, f.user.ID, q.ID, true, base.Add(time.Duration(i)*time.Second))
	}
	storetest.SeedProgress(t, f.st, f.user.ID, "Cells", 90, base)

	perf, err := f.svc.GetPerformance(context.Background(), f.user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(perf.Attempts) != 50 || len(perf.Progress) != 1 {
		t.Fatalf("attempts=%d progress=%d", len(perf.Attempts), len(perf.Progress))
	}
	if !perf.Attempts[0].CreatedAt.Equal(base.Add(54 * time.Second)) {
		t.Fatalf("newest attempt first expected, got %v", perf.Attempts[0].CreatedAt)
	}
	if perf.Attempts[0].Question == nil || perf.Attempts[0].Question.SubTopic != "Cells" {
		t.Fatal("question not joined")
	}
}

func TestGenerateRevisionQuiz(t *testing.T) {
	t.Run("no weak topics", func(t *testing.T) {
		f := newFixture(t)
		storetest.SeedProgress(t, f.st, f.user.ID, "Osmosis", 60, time.Now())
		_, err := f.svc.GenerateRevisionQuiz(context.Background(), f.user.ID)
		if !apperr.Is(err, apperr.KindNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("weak topic found in material", func(t *testing.T) {
		f := newFixture(t, llm.MockResponse{Content: json.RawMessage(questionSet)})
		storetest.SeedProgress(t, f.st, f.user.ID, "Osmosis", 40, time.Now())
		storetest.SeedProgress(t, f.st, f.user.ID, "Diffusion", 55, time.Now())
		storetest.SeedMaterial(t, f.st, f.user.ID, "Physics", "Forces and motion", time.Now())
		bio := storetest.SeedMaterial(t, f.st, f.user.ID, "Bio", "Chapter 2: Osmosis in plant cells", time.Now().Add(-time.Hour))

		qs, err := f.svc.GenerateRevisionQuiz(context.Background(), f.user.ID)
		if err != nil {
			t.Fatalf("GenerateRevisionQuiz: %v", err)
		}
		if len(qs) == 0 || qs[0].MaterialID != bio.ID {
			t.Fatalf("questions not generated from the matching material: %+v", qs)
		}
	})

	t.Run("match is case-sensitive", func(t *testing.T) {
		f := newFixture(t)
		storetest.SeedProgress(t, f.st, f.user.ID, "Osmosis", 40, time.Now())
		storetest.SeedMaterial(t, f.st, f.user.ID, "Bio", "osmosis in lowercase only", time.Now())

		_, err := f.svc.GenerateRevisionQuiz(context.Background(), f.user.ID)
		if !apperr.Is(err, apperr.KindNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
		if f.mock.CallCount() != 0 {
			t.Fatal("AI called without a source material")
		}
	})
}

package study

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/learnedge/learnedge/internal/ai"
	"github.com/learnedge/learnedge/internal/apperr"
	"github.com/learnedge/learnedge/internal/llm"
	"github.com/learnedge/learnedge/internal/store"
	"github.com/learnedge/learnedge/internal/store/storetest"
	"github.com/learnedge/learnedge/internal/studyplan"
)

const days = `[{"day":1,"focus":"Cells","minutes":30,"tasks":[{"title":"Read","minutes":30}]}]`

func newService(t *testing.T, responses ...llm.MockResponse) (*Service, *store.Store, *llm.MockProvider) {
	t.Helper()
	st := storetest.Open(t)
	mock := llm.NewMockProvider(responses...)
	svc := NewService(Deps{
		Materials: st.Materials(),
		Plans:     st.StudyPlans(),
		Progress:  st.Progress(),
		Planner:   studyplan.New(ai.NewGateway(mock, 0, nil)),
	})
	return svc, st, mock
}

func TestCreatePlan(t *testing.T) {
	svc, st, mock := newService(t, llm.MockResponse{Content: json.RawMessage(`{"days":` + days + `}`)})
	ctx := context.Background()
	u := storetest.SeedUser(t, st, "s@school.test")
	m := storetest.SeedMaterial(t, st, u.ID, "Cell Biology", "Cells divide by mitosis.", time.Now())

	plan, err := svc.CreatePlan(ctx, u.ID, m.ID, 45, "medium")
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if plan.Title != "Plan for Cell Biology" || plan.DailyTimeBudget != 45 || plan.SyllabusSize != "medium" || plan.IsCompleted {
		t.Fatalf("plan = %+v", plan)
	}
	if string(plan.Tasks) != days {
		t.Fatalf("tasks = %s", plan.Tasks)
	}
	if !strings.Contains(mock.Calls[0].Messages[0].Content, "Cells divide by mitosis.") {
		t.Error("material content not in prompt")
	}

	plans, err := svc.ListPlans(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) != 1 || plans[0].ID != plan.ID || string(plans[0].Tasks) != days {
		t.Fatalf("plans = %+v", plans)
	}
}

func TestCreatePlan_Errors(t *testing.T) {
	t.Run("unknown material", func(t *testing.T) {
		svc, st, mock := newService(t)
		u := storetest.SeedUser(t, st, "s@school.test")
		other := storetest.SeedUser(t, st, "o@school.test")
		m := storetest.SeedMaterial(t, st, other.ID, "Theirs", "c", time.Now())

		_, err := svc.CreatePlan(context.Background(), u.ID, m.ID, 30, "small")
		if !apperr.Is(err, apperr.KindNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
		if mock.CallCount() != 0 {
			t.Fatal("AI called for foreign material")
		}
	})

	t.Run("AI failure stores nothing", func(t *testing.T) {
		svc, st, _ := newService(t, llm.MockResponse{Content: json.RawMessage("no plan today")})
		u := storetest.SeedUser(t, st, "s@school.test")
		m := storetest.SeedMaterial(t, st, u.ID, "Bio", "c", time.Now())

		_, err := svc.CreatePlan(context.Background(), u.ID, m.ID, 30, "small")
		if !apperr.Is(err, apperr.KindInternal) {
			t.Fatalf("expected internal, got %v", err)
		}
		plans, _ := svc.ListPlans(context.Background(), u.ID)
		if len(plans) != 0 {
			t.Fatalf("plan stored after failure")
		}
	})
}

func TestConfidenceMetrics(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()
	u := storetest.SeedUser(t, st, "s@school.test")
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	old := storetest.SeedProgress(t, st, u.ID, "Genetics", 30, base)
	recent := storetest.SeedProgress(t, st, u.ID, "Cells", 80, base.Add(time.Hour))
	recent.TotalAttempts, recent.CorrectCount = 4, 3
	if err := st.Progress().Save(ctx, nil, recent); err != nil {
		t.Fatal(err)
	}

	got, err := svc.ConfidenceMetrics(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 metrics, got %d", len(got))
	}
	if got[0].Topic != "Cells" || got[0].Attempts != 4 || got[0].SuccessRate != 75 || got[0].Mastery != 80 {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Topic != old.Topic || got[1].SuccessRate != 0 {
		t.Errorf("second = %+v", got[1])
	}

	empty, err := svc.ConfidenceMetrics(ctx, storetest.SeedUser(t, st, "new@school.test").ID)
	if err != nil || len(empty) != 0 {
		t.Fatalf("new user metrics = %v, %v", empty, err)
	}
}

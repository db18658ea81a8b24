// Package study builds study plans and reports per-topic confidence.
package study

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/learnedge/learnedge/internal/apperr"
	"github.com/learnedge/learnedge/internal/logger"
	"github.com/learnedge/learnedge/internal/mastery"
	"github.com/learnedge/learnedge/internal/store"
	"github.com/learnedge/learnedge/internal/studyplan"
)

// Planner turns material into day-by-day tasks.
type Planner interface {
	Plan(ctx context.Context, in studyplan.Input) (json.RawMessage, error)
}

// Deps groups the collaborators of a Service.
type Deps struct {
	Materials store.MaterialRepo
	Plans     store.StudyPlanRepo
	Progress  store.ProgressRepo
	Planner   Planner
	Log       *logger.Logger
}

// Service is the study plan use-case layer.
type Service struct {
	materials store.MaterialRepo
	plans     store.StudyPlanRepo
	progress  store.ProgressRepo
	planner   Planner
	log       *logger.Logger
}

// NewService creates a Service.
func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		materials: d.Materials,
		plans:     d.Plans,
		progress:  d.Progress,
		planner:   d.Planner,
		log:       log.With("service", "StudyService"),
	}
}

// TopicMetric is the confidence view of one Progress row.
type TopicMetric struct {
	Topic         string    `json:"topic"`
	Mastery       int       `json:"mastery"`
	Confidence    int       `json:"confidence"`
	Attempts      int       `json:"attempts"`
	SuccessRate   float64   `json:"successRate"`
	LastAttemptAt time.Time `json:"lastAttemptAt"`
}

// CreatePlan asks the model for a plan over an owned material and stores
// the tasks exactly as returned.
func (s *Service) CreatePlan(ctx context.Context, userID, materialID uuid.UUID, dailyMinutes int, syllabusSize string) (*store.StudyPlan, error) {
	m, err := s.materials.GetOwned(ctx, nil, materialID, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if m == nil {
		return nil, apperr.NotFound("Material not found")
	}

	tasks, err := s.planner.Plan(ctx, studyplan.Input{
		Content:      m.Content,
		DailyMinutes: dailyMinutes,
		SyllabusSize: syllabusSize,
	})
	if err != nil {
		s.log.Warn("study plan generation failed", "material_id", m.ID.String(), "error", err)
		return nil, apperr.Internalf("AI study plan generation failed", err)
	}

	plan := &store.StudyPlan{
		UserID:          userID,
		MaterialID:      m.ID,
		Title:           "Plan for " + m.Title,
		SyllabusSize:    syllabusSize,
		DailyTimeBudget: dailyMinutes,
		Tasks:           datatypes.JSON(tasks),
	}
	if err := s.plans.Create(ctx, nil, plan); err != nil {
		return nil, apperr.Internalf("save study plan", err)
	}
	s.log.Info("study plan created", "plan_id", plan.ID.String(), "material_id", m.ID.String())
	return plan, nil
}

// ListPlans returns the user's plans, newest first.
func (s *Service) ListPlans(ctx context.Context, userID uuid.UUID) ([]store.StudyPlan, error) {
	out, err := s.plans.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// ConfidenceMetrics reports every practised topic, most recently attempted
// first.
func (s *Service) ConfidenceMetrics(ctx context.Context, userID uuid.UUID) ([]TopicMetric, error) {
	rows, err := s.progress.ListByRecency(ctx, nil, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	out := make([]TopicMetric, 0, len(rows))
	for _, p := range rows {
		out = append(out, TopicMetric{
			Topic:         p.Topic,
			Mastery:       p.MasteryLevel,
			Confidence:    p.Confidence,
			Attempts:      p.TotalAttempts,
			SuccessRate:   mastery.SuccessRate(p),
			LastAttemptAt: p.LastAttemptAt,
		})
	}
	return out, nil
}

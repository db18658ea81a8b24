// Package dashboard assembles the landing view from independent reads.
package dashboard

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/learnedge/learnedge/internal/quiz"
	"github.com/learnedge/learnedge/internal/store"
	"github.com/learnedge/learnedge/internal/study"
)

type MaterialLister interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]store.Material, error)
}

type QuizReader interface {
	GetPerformance(ctx context.Context, userID uuid.UUID) (*quiz.Performance, error)
	WeakTopics(ctx context.Context, userID uuid.UUID) ([]store.Progress, error)
}

type StudyReader interface {
	ListPlans(ctx context.Context, userID uuid.UUID) ([]store.StudyPlan, error)
	ConfidenceMetrics(ctx context.Context, userID uuid.UUID) ([]study.TopicMetric, error)
}

// View is everything the dashboard shows.
type View struct {
	Materials   []store.Material    `json:"materials"`
	Performance *quiz.Performance   `json:"performance"`
	Plans       []store.StudyPlan   `json:"plans"`
	Metrics     []study.TopicMetric `json:"metrics"`
	WeakTopics  []store.Progress    `json:"weakTopics"`
}

type Loader struct {
	materials MaterialLister
	quiz      QuizReader
	study     StudyReader
}

func NewLoader(m MaterialLister, q QuizReader, s StudyReader) *Loader {
	return &Loader{materials: m, quiz: q, study: s}
}

// Load runs the reads concurrently. The first failure cancels the rest and
// is returned.
func (l *Loader) Load(ctx context.Context, userID uuid.UUID) (*View, error) {
	var v View
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		v.Materials, err = l.materials.List(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		v.Performance, err = l.quiz.GetPerformance(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		v.WeakTopics, err = l.quiz.WeakTopics(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		v.Plans, err = l.study.ListPlans(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		v.Metrics, err = l.study.ConfidenceMetrics(gctx, userID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &v, nil
}

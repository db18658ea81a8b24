// Package quiz generates question sets, grades answers and tracks the
// resulting per-topic progress.
package quiz

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/learnedge/learnedge/internal/analysis"
	"github.com/learnedge/learnedge/internal/apperr"
	"github.com/learnedge/learnedge/internal/evaluation"
	"github.com/learnedge/learnedge/internal/logger"
	"github.com/learnedge/learnedge/internal/mastery"
	"github.com/learnedge/learnedge/internal/questiongen"
	"github.com/learnedge/learnedge/internal/store"
)

const (
	performanceLimit = 50
	mistakesLimit    = 20
	weakTopicsLimit  = 3
)

// QuestionGenerator produces a question set.
type QuestionGenerator interface {
	Generate(ctx context.Context, input questiongen.GenerateInput) ([]questiongen.Question, error)
}

// Evaluator grades an answer.
type Evaluator interface {
	Evaluate(ctx context.Context, req evaluation.Request) (*evaluation.Result, error)
}

// Transactor opens a unit of work.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Deps groups the collaborators of a Service.
type Deps struct {
	Tx        Transactor
	Materials store.MaterialRepo
	Questions store.QuestionRepo
	Attempts  store.AttemptRepo
	Progress  store.ProgressRepo
	Generator QuestionGenerator
	Evaluator Evaluator
	// QuestionCount is the size of a generated set.
	QuestionCount int
	Log           *logger.Logger
}

// Service is the quiz engine.
type Service struct {
	tx        Transactor
	materials store.MaterialRepo
	questions store.QuestionRepo
	attempts  store.AttemptRepo
	progress  store.ProgressRepo
	generator QuestionGenerator
	evaluator Evaluator
	count     int
	log       *logger.Logger
	now       func() time.Time
}

// NewService creates a Service.
func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		tx:        d.Tx,
		materials: d.Materials,
		questions: d.Questions,
		attempts:  d.Attempts,
		progress:  d.Progress,
		generator: d.Generator,
		evaluator: d.Evaluator,
		count:     d.QuestionCount,
		log:       log.With("service", "QuizService"),
		now:       time.Now,
	}
}

// Performance is the recent-history view of a user.
type Performance struct {
	Attempts []store.Attempt  `json:"attempts"`
	Progress []store.Progress `json:"progress"`
}

// GenerateQuestions creates a question set from an owned material. The
// user's average mastery steers difficulty; questions are stored and
// returned in the order the model produced them.
func (s *Service) GenerateQuestions(ctx context.Context, materialID, userID uuid.UUID) ([]store.Question, error) {
	m, err := s.materials.GetOwned(ctx, nil, materialID, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if m == nil {
		return nil, apperr.NotFound("Material not found")
	}

	rows, err := s.progress.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	level := mastery.AverageMastery(rows)

	generated, err := s.generator.Generate(ctx, questiongen.GenerateInput{
		Content:      m.Content,
		Count:        s.count,
		MasteryLevel: level,
		Topics:       analysis.NamesFrom(m.TopicAnalysis),
	})
	if err != nil {
		s.log.Warn("question generation failed", "material_id", m.ID.String(), "error", err)
		return nil, apperr.Internalf("AI question generation failed", err)
	}

	batch := make([]*store.Question, 0, len(generated))
	for _, g := range generated {
		q := &store.Question{
			MaterialID:    m.ID,
			Type:          g.Type,
			QuestionText:  g.QuestionText,
			Difficulty:    g.Difficulty,
			CorrectAnswer: g.CorrectAnswer,
			Explanation:   g.Explanation,
			SubTopic:      strings.TrimSpace(g.SubTopic),
		}
		if len(g.Options) > 0 {
			opts, err := json.Marshal(g.Options)
			if err != nil {
				return nil, apperr.Internal(err)
			}
			q.Options = datatypes.JSON(opts)
		}
		batch = append(batch, q)
	}
	if err := s.questions.CreateBatch(ctx, nil, batch); err != nil {
		return nil, apperr.Internalf("save questions", err)
	}

	out := make([]store.Question, len(batch))
	for i, q := range batch {
		out[i] = *q
	}
	s.log.Info("questions generated", "material_id", m.ID.String(), "count", len(out), "mastery", level)
	return out, nil
}

// SubmitAnswer grades answer against the question and records the attempt.
// When the question has a subtopic the user's progress on it is updated in
// the same transaction.
func (s *Service) SubmitAnswer(ctx context.Context, userID, questionID uuid.UUID, answer string, timeTaken *int) (*store.Attempt, error) {
	q, err := s.questions.GetWithMaterial(ctx, nil, questionID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if q == nil || q.Material == nil || q.Material.UserID != userID {
		return nil, apperr.NotFound("Question not found")
	}

	res, err := s.evaluator.Evaluate(ctx, evaluation.Request{
		Context:       q.Material.Content,
		Question:      q.QuestionText,
		StudentAnswer: answer,
		IdealAnswer:   q.CorrectAnswer,
	})
	if err != nil {
		s.log.Warn("answer evaluation failed", "question_id", q.ID.String(), "error", err)
		return nil, apperr.Internalf("AI evaluation failed", err)
	}

	attempt := &store.Attempt{
		UserID:           userID,
		QuestionID:       q.ID,
		StudentAnswer:    answer,
		Score:            res.Score,
		IsCorrect:        res.IsCorrect,
		Feedback:         res.FlattenedFeedback(),
		Explanation:      res.Explanation,
		Analogy:          res.Analogy,
		MemoryTrick:      res.MemoryTrick,
		RealWorldExample: res.RealWorldExample,
		TimeTaken:        timeTaken,
	}

	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.attempts.Create(ctx, tx, attempt); err != nil {
			return err
		}
		if q.SubTopic == "" {
			return nil
		}
		current, err := s.progress.Get(ctx, tx, userID, q.SubTopic)
		if err != nil {
			return err
		}
		return s.saveProgress(ctx, tx, current, userID, q.SubTopic, res.Score, timeTaken)
	})
	if err != nil {
		return nil, apperr.Internalf("record attempt", err)
	}
	return attempt, nil
}

// saveProgress applies one score to snapshot and writes the result. The
// write overwrites whatever is stored, so two writers holding the same
// snapshot lose one update.
func (s *Service) saveProgress(ctx context.Context, tx *gorm.DB, snapshot *store.Progress, userID uuid.UUID, topic string, score int, timeTaken *int) error {
	next := mastery.Apply(snapshot, userID, topic, score, timeTaken, s.now())
	return s.progress.Save(ctx, tx, &next)
}

// GetPerformance returns the user's latest attempts and all progress rows.
func (s *Service) GetPerformance(ctx context.Context, userID uuid.UUID) (*Performance, error) {
	attempts, err := s.attempts.ListRecent(ctx, nil, userID, performanceLimit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	progress, err := s.progress.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Performance{Attempts: attempts, Progress: progress}, nil
}

// GetMistakesForReview returns the latest incorrect attempts with their
// question and material title.
func (s *Service) GetMistakesForReview(ctx context.Context, userID uuid.UUID) ([]store.Attempt, error) {
	out, err := s.attempts.ListIncorrect(ctx, nil, userID, mistakesLimit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// WeakTopics returns up to three topics below the revision threshold,
// weakest first.
func (s *Service) WeakTopics(ctx context.Context, userID uuid.UUID) ([]store.Progress, error) {
	out, err := s.progress.ListWeak(ctx, nil, userID, mastery.WeakThreshold, weakTopicsLimit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// GenerateRevisionQuiz builds a new set for the user's weakest topic from
// the newest material whose text contains the topic name verbatim.
func (s *Service) GenerateRevisionQuiz(ctx context.Context, userID uuid.UUID) ([]store.Question, error) {
	weak, err := s.WeakTopics(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(weak) == 0 {
		return nil, apperr.NotFound("No weak topics found for revision.")
	}

	target := weak[0]
	m, err := s.materials.FindByContentSubstring(ctx, nil, userID, target.Topic)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if m == nil {
		return nil, apperr.NotFound("Source material for weak topic not found.")
	}
	s.log.Debug("revision quiz", "topic", target.Topic, "mastery", target.MasteryLevel, "material_id", m.ID.String())
	return s.GenerateQuestions(ctx, m.ID, userID)
}

// Package mastery maintains per-topic mastery and confidence scores.
//
// Both scores are running averages with weight one half: each attempt moves
// the stored value halfway towards the new observation. Confidence blends
// the score with a bonus for fast answers.
package mastery

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/learnedge/learnedge/internal/store"
)

const (
	// CorrectThreshold is the score an attempt must exceed to count as correct.
	CorrectThreshold = 70

	// WeakThreshold is the mastery level below which a topic needs revision.
	WeakThreshold = 60

	// DefaultMastery is the difficulty signal used before any history exists.
	DefaultMastery = 50
)

// SpeedBonus returns the confidence bonus for an answer that took
// timeTaken seconds: +10 under 20s, +5 under 40s, otherwise none. A nil
// timeTaken earns nothing.
func SpeedBonus(timeTaken *int) int {
	if timeTaken == nil || *timeTaken < 0 {
		return 0
	}
	switch t := *timeTaken; {
	case t < 20:
		return 10
	case t < 40:
		return 5
	default:
		return 0
	}
}

// ConfidenceCandidate is the confidence observed for one attempt.
func ConfidenceCandidate(score int, timeTaken *int) int {
	return min(100, clamp(score)+SpeedBonus(timeTaken))
}

// Apply returns the progress row after an attempt scoring score on topic.
// existing is the current row or nil; it is not modified. The result keeps
// the existing ID so the caller can tell an update from a create.
func Apply(existing *store.Progress, userID uuid.UUID, topic string, score int, timeTaken *int, now time.Time) store.Progress {
	s := clamp(score)
	candidate := ConfidenceCandidate(s, timeTaken)
	correct := 0
	if s > CorrectThreshold {
		correct = 1
	}

	if existing == nil {
		return store.Progress{
			UserID:        userID,
			Topic:         topic,
			MasteryLevel:  s,
			Confidence:    candidate,
			TotalAttempts: 1,
			CorrectCount:  correct,
			LastAttemptAt: now,
		}
	}

	next := *existing
	next.MasteryLevel = halfway(existing.MasteryLevel, s)
	next.Confidence = halfway(existing.Confidence, candidate)
	next.TotalAttempts = existing.TotalAttempts + 1
	next.CorrectCount = existing.CorrectCount + correct
	next.LastAttemptAt = now
	return next
}

// AverageMastery is round(mean mastery) over rows, or DefaultMastery when
// rows is empty.
func AverageMastery(rows []store.Progress) int {
	if len(rows) == 0 {
		return DefaultMastery
	}
	sum := 0
	for _, r := range rows {
		sum += r.MasteryLevel
	}
	return round(float64(sum) / float64(len(rows)))
}

// SuccessRate is correct/total as a percentage, 0 with no attempts.
func SuccessRate(p store.Progress) float64 {
	if p.TotalAttempts == 0 {
		return 0
	}
	return float64(p.CorrectCount) / float64(p.TotalAttempts) * 100
}

func halfway(prev, obs int) int {
	return clamp(round(float64(clamp(prev)+obs) / 2))
}

// round rounds half away from zero; all inputs here are non-negative.
func round(f float64) int {
	return int(math.Round(f))
}

func clamp(v int) int {
	return max(0, min(100, v))
}

// Package health probes the database and the AI provider.
package health

import (
	"context"
	"time"
)

const statusOK = "OK"

// Pinger is anything that can confirm it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Report is the health response body.
type Report struct {
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
	AI        string    `json:"ai"`
}

// Healthy reports whether every probe passed.
func (r Report) Healthy() bool {
	return r.Database == statusOK && r.AI == statusOK
}

type Checker struct {
	db  Pinger
	ai  Pinger
	now func() time.Time
}

func NewChecker(db, ai Pinger) *Checker {
	return &Checker{db: db, ai: ai, now: time.Now}
}

// Check runs both probes. Failures are reported in the body, never returned.
func (c *Checker) Check(ctx context.Context) Report {
	return Report{
		Timestamp: c.now().UTC(),
		Database:  probe(ctx, c.db),
		AI:        probe(ctx, c.ai),
	}
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "ERROR: not configured"
	}
	if err := p.Ping(ctx); err != nil {
		return "ERROR: " + err.Error()
	}
	return statusOK
}

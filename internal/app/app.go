// Package app wires configuration, storage, the AI gateway and the
// services into a runnable HTTP application.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/learnedge/learnedge/internal/ai"
	"github.com/learnedge/learnedge/internal/analysis"
	"github.com/learnedge/learnedge/internal/auth"
	"github.com/learnedge/learnedge/internal/config"
	"github.com/learnedge/learnedge/internal/dashboard"
	"github.com/learnedge/learnedge/internal/evaluation"
	"github.com/learnedge/learnedge/internal/explain"
	"github.com/learnedge/learnedge/internal/health"
	"github.com/learnedge/learnedge/internal/httpapi"
	"github.com/learnedge/learnedge/internal/llm"
	"github.com/learnedge/learnedge/internal/logger"
	"github.com/learnedge/learnedge/internal/materials"
	"github.com/learnedge/learnedge/internal/questiongen"
	"github.com/learnedge/learnedge/internal/quiz"
	"github.com/learnedge/learnedge/internal/store"
	"github.com/learnedge/learnedge/internal/study"
	"github.com/learnedge/learnedge/internal/studyplan"
)

// ServiceName labels traces and logs.
const ServiceName = "learnedge"

// Options are the inputs to New.
type Options struct {
	Config *config.Config
	Log    *logger.Logger
	// Provider overrides the provider built from Config.LLM.
	Provider llm.Provider
	// Version is the build version reported in startup logs.
	Version string
}

// App is the assembled application.
type App struct {
	Store     *store.Store
	Gateway   *ai.Gateway
	Auth      *auth.Service
	Materials *materials.Service
	Quiz      *quiz.Service
	Study     *study.Service
	Engine    *gin.Engine
	Version   string

	cfg *config.Config
	log *logger.Logger
}

// New opens the store and builds every service. The caller owns Close.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}

	if err := llm.CheckSchemas(analysis.AnalysisSchema, questiongen.QuestionSetSchema, evaluation.EvaluationSchema, studyplan.PlanSchema); err != nil {
		return nil, fmt.Errorf("AI response schemas: %w", err)
	}

	st, err := store.Open(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	provider := opts.Provider
	if provider == nil {
		provider, err = llm.NewProvider(ctx, cfg.LLM, st.EventRepo(), log)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("LLM provider: %w", err)
		}
	}
	gw := ai.NewGateway(provider, cfg.LLM.Timeout, log)
	guest := cfg.AuthMode == config.AuthModeGuest

	a := &App{
		Store:   st,
		Gateway: gw,
		Auth:    auth.NewService(st.Users(), cfg.JWTSecret, cfg.AccessTokenTTL, log),
		Materials: materials.NewService(materials.Deps{
			Users:     st.Users(),
			Materials: st.Materials(),
			Analyzer:  analysis.NewAnalyzer(gw),
			Explainer: explain.New(gw),
			GuestMode: guest,
			Log:       log,
		}),
		Quiz: quiz.NewService(quiz.Deps{
			Tx:            st,
			Materials:     st.Materials(),
			Questions:     st.Questions(),
			Attempts:      st.Attempts(),
			Progress:      st.Progress(),
			Generator:     questiongen.New(gw, questiongen.DefaultConfig()),
			Evaluator:     evaluation.NewEvaluator(gw, evaluation.DefaultConfig()),
			QuestionCount: cfg.QuestionCount,
			Log:           log,
		}),
		Study: study.NewService(study.Deps{
			Materials: st.Materials(),
			Plans:     st.StudyPlans(),
			Progress:  st.Progress(),
			Planner:   studyplan.New(gw),
			Log:       log,
		}),
		Version: opts.Version,
		cfg:     cfg,
		log:     log,
	}
	if a.Version == "" {
		a.Version = "(devel)"
	}

	serviceName := ""
	if cfg.Tracing.Enabled {
		serviceName = ServiceName
	}
	a.Engine = httpapi.NewRouter(httpapi.RouterConfig{
		Auth:        a.Auth,
		Materials:   a.Materials,
		Quiz:        a.Quiz,
		Study:       a.Study,
		Dashboard:   dashboard.NewLoader(a.Materials, a.Quiz, a.Study),
		Health:      health.NewChecker(st, gw),
		CORSOrigins: cfg.CORSOrigins,
		GuestMode:   guest,
		ServiceName: serviceName,
		Log:         log,
	})

	log.Info("application assembled",
		"version", a.Version, "auth_mode", string(cfg.AuthMode), "llm_provider", cfg.LLM.Provider, "model", gw.ModelID())
	return a, nil
}

// Serve runs the HTTP server until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	a.log.Info("starting server", "version", a.Version, "addr", a.cfg.Addr())
	return httpapi.NewServer(a.cfg.Addr(), a.Engine, a.log).Run(ctx, a.shutdownTimeout())
}

func (a *App) shutdownTimeout() time.Duration {
	if a.cfg.ShutdownTimeout > 0 {
		return a.cfg.ShutdownTimeout
	}
	return 10 * time.Second
}

func (a *App) Close() error {
	return a.Store.Close()
}

// Package httpapi exposes the services over HTTP with gin.
package httpapi

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/learnedge/learnedge/internal/logger"
)

// RouterConfig wires services into the router.
type RouterConfig struct {
	Auth      AuthService
	Materials MaterialService
	Quiz      QuizService
	Study     StudyService
	Dashboard DashboardLoader
	Health    HealthChecker

	CORSOrigins []string
	// GuestMode attributes unauthenticated requests to the guest identity.
	GuestMode bool
	// ServiceName labels otel spans; empty disables the otel middleware.
	ServiceName string
	Log         *logger.Logger
}

// NewRouter builds the engine. Every route is served both at the root and
// under /api.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("component", "HTTP")

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(CORS(cfg.CORSOrigins))

	h := &handler{
		auth:      cfg.Auth,
		materials: cfg.Materials,
		quiz:      cfg.Quiz,
		study:     cfg.Study,
		dashboard: cfg.Dashboard,
		health:    cfg.Health,
		log:       log,
	}
	requireUser := RequireUser(cfg.Auth, cfg.GuestMode, log)

	for _, g := range []*gin.RouterGroup{&r.RouterGroup, r.Group("/api")} {
		register(g, h, requireUser)
	}
	return r
}

func register(g *gin.RouterGroup, h *handler, requireUser gin.HandlerFunc) {
	g.GET("/health", h.healthCheck)

	a := g.Group("/auth")
	a.POST("/signup", h.signup)
	a.POST("/login", h.login)

	p := g.Group("/", requireUser)

	p.POST("/materials/upload", h.uploadMaterial)
	p.POST("/materials/raw", h.createRawMaterial)
	p.GET("/materials", h.listMaterials)
	p.GET("/materials/:id", h.getMaterial)
	p.POST("/materials/:id/explain", h.explainMaterial)

	p.POST("/quiz/generate/:materialId", h.generateQuiz)
	p.POST("/quiz/submit/:questionId", h.submitAnswer)
	p.GET("/quiz/performance", h.performance)
	p.GET("/quiz/mistakes", h.mistakes)
	p.POST("/quiz/revision", h.revisionQuiz)

	p.POST("/study/plan", h.createPlan)
	p.GET("/study/plans", h.listPlans)
	p.GET("/study/metrics", h.metrics)

	p.GET("/dashboard", h.dashboardView)
}

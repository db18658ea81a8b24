package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/learnedge/learnedge/internal/apperr"
	"github.com/learnedge/learnedge/internal/auth"
	"github.com/learnedge/learnedge/internal/dashboard"
	"github.com/learnedge/learnedge/internal/extract"
	"github.com/learnedge/learnedge/internal/health"
	"github.com/learnedge/learnedge/internal/logger"
	"github.com/learnedge/learnedge/internal/quiz"
	"github.com/learnedge/learnedge/internal/store"
	"github.com/learnedge/learnedge/internal/study"
)

// MaxUploadBytes bounds an uploaded material file.
const MaxUploadBytes = 20 << 20

type AuthService interface {
	TokenVerifier
	Signup(ctx context.Context, email, password, name string) (*auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
}

type MaterialService interface {
	Create(ctx context.Context, ownerID uuid.UUID, title, content string) (*store.Material, error)
	CreateFromUpload(ctx context.Context, ownerID uuid.UUID, title string, u *extract.Upload) (*store.Material, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]store.Material, error)
	Get(ctx context.Context, id, ownerID uuid.UUID) (*store.Material, error)
	Explain(ctx context.Context, ownerID, materialID uuid.UUID, topic, style string) (string, error)
}

type QuizService interface {
	GenerateQuestions(ctx context.Context, materialID, userID uuid.UUID) ([]store.Question, error)
	SubmitAnswer(ctx context.Context, userID, questionID uuid.UUID, answer string, timeTaken *int) (*store.Attempt, error)
	GetPerformance(ctx context.Context, userID uuid.UUID) (*quiz.Performance, error)
	GetMistakesForReview(ctx context.Context, userID uuid.UUID) ([]store.Attempt, error)
	GenerateRevisionQuiz(ctx context.Context, userID uuid.UUID) ([]store.Question, error)
}

type StudyService interface {
	CreatePlan(ctx context.Context, userID, materialID uuid.UUID, dailyMinutes int, syllabusSize string) (*store.StudyPlan, error)
	ListPlans(ctx context.Context, userID uuid.UUID) ([]store.StudyPlan, error)
	ConfidenceMetrics(ctx context.Context, userID uuid.UUID) ([]study.TopicMetric, error)
}

type DashboardLoader interface {
	Load(ctx context.Context, userID uuid.UUID) (*dashboard.View, error)
}

type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

type handler struct {
	auth      AuthService
	materials MaterialService
	quiz      QuizService
	study     StudyService
	dashboard DashboardLoader
	health    HealthChecker
	log       *logger.Logger
}

func (h *handler) fail(c *gin.Context, err error) {
	respondError(c, h.log, err)
}

// Auth

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *handler) signup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, err := h.auth.Signup(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondCreated(c, sess)
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondOK(c, sess)
}

// Materials

type rawMaterialRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type explainRequest struct {
	Topic string `json:"topic" validate:"required"`
	Style string `json:"style"`
}

func (h *handler) uploadMaterial(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)

	var upload *extract.Upload
	fh, err := c.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		respondBadRequest(c, "Invalid multipart upload")
		return
	default:
		f, err := fh.Open()
		if err != nil {
			h.fail(c, apperr.Internalf("Failed to read upload", err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.fail(c, apperr.Internalf("Failed to read upload", err))
			return
		}
		upload = &extract.Upload{Name: fh.Filename, MIMEType: fh.Header.Get("Content-Type"), Data: data}
	}

	m, err := h.materials.CreateFromUpload(c.Request.Context(), currentUser(c), c.PostForm("title"), upload)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondCreated(c, m)
}

func (h *handler) createRawMaterial(c *gin.Context) {
	var req rawMaterialRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.materials.Create(c.Request.Context(), currentUser(c), req.Title, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondCreated(c, m)
}

func (h *handler) listMaterials(c *gin.Context) {
	out, err := h.materials.List(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondOK(c, out)
}

func (h *handler) getMaterial(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		h.fail(c, apperr.NotFound("Material not found"))
		return
	}
	m, err := h.materials.Get(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondOK(c, m)
}

func (h *handler) explainMaterial(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		h.fail(c, apperr.NotFound("Material not found"))
		return
	}
	var req explainRequest
	if !bindJSON(c, &req) {
		return
	}
	text, err := h.materials.Explain(c.Request.Context(), currentUser(c), id, req.Topic, req.Style)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondOK(c, gin.H{"explanation": text})
}

// Quiz

type submitRequest struct {
	Answer    string `json:"answer"`
	TimeTaken *int   `json:"timeTaken" validate:"omitempty,gte=0"`
}

func (h *handler) generateQuiz(c *gin.Context) {
	id, ok := pathUUID(c, "materialId")
	if !ok {
		h.fail(c, apperr.NotFound("Material not found"))
		return
	}
	qs, err := h.quiz.GenerateQuestions(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondCreated(c, qs)
}

func (h *handler) submitAnswer(c *gin.Context) {
	id, ok := pathUUID(c, "questionId")
	if !ok {
		h.fail(c, apperr.NotFound("Question not found"))
		return
	}
	var req submitRequest
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.quiz.SubmitAnswer(c.Request.Context(), currentUser(c), id, req.Answer, req.TimeTaken)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondCreated(c, a)
}

func (h *handler) performance(c *gin.Context) {
	p, err := h.quiz.GetPerformance(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondOK(c, p)
}

func (h *handler) mistakes(c *gin.Context) {
	out, err := h.quiz.GetMistakesForReview(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondOK(c, out)
}

func (h *handler) revisionQuiz(c *gin.Context) {
	qs, err := h.quiz.GenerateRevisionQuiz(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondCreated(c, qs)
}

// Study

type planRequest struct {
	MaterialID   string `json:"materialId" validate:"required,uuid"`
	DailyMinutes int    `json:"dailyMinutes" validate:"required,gt=0,lte=1440"`
	SyllabusSize string `json:"syllabusSize" validate:"required"`
}

func (h *handler) createPlan(c *gin.Context) {
	var req planRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.study.CreatePlan(c.Request.Context(), currentUser(c), uuid.MustParse(req.MaterialID), req.DailyMinutes, req.SyllabusSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondCreated(c, plan)
}

func (h *handler) listPlans(c *gin.Context) {
	out, err := h.study.ListPlans(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondOK(c, out)
}

func (h *handler) metrics(c *gin.Context) {
	out, err := h.study.ConfidenceMetrics(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondOK(c, out)
}

// Dashboard and health

func (h *handler) dashboardView(c *gin.Context) {
	v, err := h.dashboard.Load(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondOK(c, v)
}

func (h *handler) healthCheck(c *gin.Context) {
	respondOK(c, h.health.Check(c.Request.Context()))
}

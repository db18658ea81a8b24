// Package materials stores uploaded study material with its topic analysis.
package materials

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/learnedge/learnedge/internal/analysis"
	"github.com/learnedge/learnedge/internal/apperr"
	"github.com/learnedge/learnedge/internal/explain"
	"github.com/learnedge/learnedge/internal/extract"
	"github.com/learnedge/learnedge/internal/logger"
	"github.com/learnedge/learnedge/internal/store"
)

// Analyzer produces a topic analysis for material content.
type Analyzer interface {
	Analyze(ctx context.Context, content string) (analysis.TopicAnalysis, error)
}

// Explainer rewrites a topic explanation in a style.
type Explainer interface {
	Explain(ctx context.Context, content, topic string, style explain.Style) (string, error)
}

// Service is the materials use-case layer.
type Service struct {
	users     store.UserRepo
	materials store.MaterialRepo
	analyzer  Analyzer
	explainer Explainer
	guestMode bool
	log       *logger.Logger
}

// Deps groups the collaborators of a Service.
type Deps struct {
	Users     store.UserRepo
	Materials store.MaterialRepo
	Analyzer  Analyzer
	Explainer Explainer
	// GuestMode lets the shared guest identity own material; its user row
	// is created on first use.
	GuestMode bool
	Log       *logger.Logger
}

// NewService creates a Service.
func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		users:     d.Users,
		materials: d.Materials,
		analyzer:  d.Analyzer,
		explainer: d.Explainer,
		guestMode: d.GuestMode,
		log:       log.With("service", "MaterialsService"),
	}
}

// Create analyzes content and stores it as a new material owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, title, content string) (*store.Material, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.BadRequest("title is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperr.BadRequest("content is empty")
	}
	if err := s.resolveOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	topics, err := s.analyzer.Analyze(ctx, content)
	if err != nil {
		s.log.Warn("material analysis failed", "user_id", ownerID.String(), "error", err)
		return nil, apperr.Internalf("AI analysis failed", err)
	}
	raw, err := analysis.Marshal(topics)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	m := &store.Material{
		UserID:        ownerID,
		Title:         title,
		Content:       content,
		TopicAnalysis: datatypes.JSON(raw),
	}
	if err := s.materials.Create(ctx, nil, m); err != nil {
		return nil, apperr.Internalf("save material", err)
	}
	s.log.Info("material created", "user_id", ownerID.String(), "material_id", m.ID.String(), "topics", len(topics.Topics()))
	return m, nil
}

// CreateFromUpload extracts the text of u and stores it. An empty title
// falls back to the file name without its extension.
func (s *Service) CreateFromUpload(ctx context.Context, ownerID uuid.UUID, title string, u *extract.Upload) (*store.Material, error) {
	text, err := s.ExtractText(u)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		title = strings.TrimSuffix(filepath.Base(u.Name), filepath.Ext(u.Name))
	}
	return s.Create(ctx, ownerID, title, text)
}

// ExtractText returns the plain text of an upload.
func (s *Service) ExtractText(u *extract.Upload) (string, error) {
	text, err := extract.Extract(u)
	switch {
	case err == nil:
		return text, nil
	case errors.Is(err, extract.ErrNoFile):
		return "", apperr.BadRequest("No file uploaded")
	case errors.Is(err, extract.ErrUnsupported):
		return "", &apperr.Error{Kind: apperr.KindBadRequest, Message: "Unsupported file type", Err: err}
	default:
		s.log.Warn("text extraction failed", "file", u.Name, "error", err)
		return "", apperr.Internalf("Failed to extract text", err)
	}
}

// List returns the owner's materials, newest first.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]store.Material, error) {
	out, err := s.materials.ListByUser(ctx, nil, ownerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// Get returns a material with its questions. Materials owned by someone
// else are reported as not found.
func (s *Service) Get(ctx context.Context, id, ownerID uuid.UUID) (*store.Material, error) {
	m, err := s.materials.GetOwnedWithQuestions(ctx, nil, id, ownerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if m == nil {
		return nil, apperr.NotFound("Material not found")
	}
	return m, nil
}

// Explain rewrites topic from the material in the requested style.
func (s *Service) Explain(ctx context.Context, ownerID, materialID uuid.UUID, topic, style string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", apperr.BadRequest("topic is required")
	}
	st, err := explain.ParseStyle(style)
	if err != nil {
		return "", &apperr.Error{Kind: apperr.KindBadRequest, Message: "Unknown style", Err: err}
	}

	m, err := s.materials.GetOwned(ctx, nil, materialID, ownerID)
	if err != nil {
		return "", apperr.Internal(err)
	}
	if m == nil {
		return "", apperr.NotFound("Material not found")
	}

	text, err := s.explainer.Explain(ctx, m.Content, topic, st)
	if err != nil {
		return "", apperr.Internalf("AI explanation failed", err)
	}
	return text, nil
}

func (s *Service) resolveOwner(ctx context.Context, ownerID uuid.UUID) error {
	if s.guestMode && ownerID == store.GuestUserID {
		if _, err := s.users.EnsureGuest(ctx, nil); err != nil {
			return apperr.Internalf("create guest user", err)
		}
		return nil
	}
	u, err := s.users.GetByID(ctx, nil, ownerID)
	if err != nil {
		return apperr.Internal(err)
	}
	if u == nil {
		return apperr.NotFound("User not found")
	}
	return nil
}

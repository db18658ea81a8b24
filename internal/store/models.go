package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Question types.
const (
	QuestionMCQ   = "MCQ"
	QuestionShort = "SHORT"
	QuestionLong  = "LONG"
)

// GuestUserID is the shared identity used when the server runs in guest mode.
var GuestUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

const GuestEmail = "guest@learnedge.local"

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

type Material struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"userId"`
	Title         string         `gorm:"not null" json:"title"`
	Content       string         `gorm:"type:text;not null" json:"content"`
	TopicAnalysis datatypes.JSON `json:"topicAnalysis"`
	Questions     []Question     `gorm:"foreignKey:MaterialID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"createdAt"`
}

func (Material) TableName() string { return "materials" }

func (m *Material) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

type Question struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	MaterialID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"materialId"`
	Material      *Material      `gorm:"foreignKey:MaterialID" json:"material,omitempty"`
	Type          string         `gorm:"not null" json:"type"`
	QuestionText  string         `gorm:"type:text;not null" json:"questionText"`
	Difficulty    string         `json:"difficulty"`
	Options       datatypes.JSON `json:"options"`
	CorrectAnswer string         `gorm:"type:text" json:"correctAnswer"`
	Explanation   string         `gorm:"type:text" json:"explanation"`
	SubTopic      string         `gorm:"index" json:"subTopic"`
	Position      int            `json:"-"`
	CreatedAt     time.Time      `json:"createdAt"`
}

func (Question) TableName() string { return "questions" }

func (q *Question) BeforeCreate(*gorm.DB) error {
	ensureID(&q.ID)
	return nil
}

type Attempt struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	QuestionID       uuid.UUID `gorm:"type:uuid;not null;index" json:"questionId"`
	Question         *Question `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
	StudentAnswer    string    `gorm:"type:text" json:"studentAnswer"`
	Score            int       `json:"score"`
	IsCorrect        bool      `gorm:"index" json:"isCorrect"`
	Feedback         string    `gorm:"type:text" json:"feedback"`
	Explanation      string    `gorm:"type:text" json:"explanation"`
	Analogy          string    `gorm:"type:text" json:"analogy"`
	MemoryTrick      string    `gorm:"type:text" json:"memoryTrick"`
	RealWorldExample string    `gorm:"type:text" json:"realWorldExample"`
	TimeTaken        *int      `json:"timeTaken"`
	CreatedAt        time.Time `gorm:"index" json:"createdAt"`
}

func (Attempt) TableName() string { return "attempts" }

func (a *Attempt) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// Progress is the per-(user, topic) mastery aggregate.
type Progress struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_topic" json:"userId"`
	Topic         string    `gorm:"not null;uniqueIndex:idx_progress_user_topic" json:"topic"`
	MasteryLevel  int       `gorm:"not null;default:0" json:"masteryLevel"`
	Confidence    int       `gorm:"not null;default:0" json:"confidence"`
	TotalAttempts int       `gorm:"not null;default:0" json:"totalAttempts"`
	CorrectCount  int       `gorm:"not null;default:0" json:"correctCount"`
	LastAttemptAt time.Time `json:"lastAttemptAt"`
}

func (Progress) TableName() string { return "progress" }

func (p *Progress) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

type StudyPlan struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"userId"`
	MaterialID      uuid.UUID      `gorm:"type:uuid;index" json:"materialId"`
	Title           string         `json:"title"`
	SyllabusSize    string         `json:"syllabusSize"`
	DailyTimeBudget int            `json:"dailyTimeBudget"`
	Tasks           datatypes.JSON `json:"tasks"`
	IsCompleted     bool           `json:"isCompleted"`
	CreatedAt       time.Time      `gorm:"index" json:"createdAt"`
}

func (StudyPlan) TableName() string { return "study_plans" }

func (s *StudyPlan) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// LLMRequestEvent is the audit row written for every provider call.
type LLMRequestEvent struct {
	ID           int       `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
	Provider     string    `json:"provider"`
	Model        string    `gorm:"index" json:"model"`
	Purpose      string    `gorm:"index" json:"purpose"`
	InputTokens  int       `json:"inputTokens"`
	OutputTokens int       `json:"outputTokens"`
	LatencyMs    int64     `json:"latencyMs"`
	Success      bool      `json:"success"`
	ErrorMessage string    `gorm:"type:text" json:"errorMessage,omitempty"`
	RequestBody  string    `gorm:"type:text" json:"requestBody,omitempty"`
	ResponseBody string    `gorm:"type:text" json:"responseBody,omitempty"`
}

func (LLMRequestEvent) TableName() string { return "llm_request_events" }

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func allModels() []any {
	return []any{
		&User{},
		&Material{},
		&Question{},
		&Attempt{},
		&Progress{},
		&StudyPlan{},
		&LLMRequestEvent{},
	}
}

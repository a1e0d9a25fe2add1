package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LectureType string

const (
	LectureVideo LectureType = "video"
	LectureQuiz  LectureType = "quiz"
)

type Course struct {
	ID          string  `json:"id" gorm:"primaryKey;size:36"`
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description string  `json:"description" gorm:"type:text"` // Rich text (sanitized upstream)
	Category    string  `json:"category" gorm:"size:100;index"`
	Price       float64 `json:"price" gorm:"not null" validate:"min=0"`

	// Discount applied at purchase time, percent of price
	DiscountPercent float64 `json:"discount_percent" gorm:"default:0" validate:"min=0,max=100"`

	Published    bool    `json:"published" gorm:"default:false;index"`
	ThumbnailURL *string `json:"thumbnail_url" gorm:"size:500"`

	// Metadata
	EducatorID string         `json:"educator_id" gorm:"not null;index;size:255"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Chapters    []Chapter      `json:"chapters,omitempty" gorm:"foreignKey:CourseID"`
	Enrollments []Enrollment   `json:"-" gorm:"foreignKey:CourseID"`
	Ratings     []CourseRating `json:"ratings,omitempty" gorm:"foreignKey:CourseID"`
	Educator    User           `json:"educator,omitempty" gorm:"foreignKey:EducatorID"`

	// Computed fields (not stored)
	EnrolledCount int `json:"enrolled_count" gorm:"-"`
	AverageRating int `json:"average_rating" gorm:"-"`
	LectureCount  int `json:"lecture_count" gorm:"-"`
}

type Chapter struct {
	ID       string `json:"id" gorm:"primaryKey;size:36"`
	CourseID string `json:"course_id" gorm:"not null;index;size:36"`
	Title    string `json:"title" gorm:"not null;size:200" validate:"required,max=200"`
	Order    int    `json:"order" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Lectures []Lecture `json:"lectures,omitempty" gorm:"foreignKey:ChapterID"`
}

// Lecture is a variant record: the shared scheduling fields live on the row,
// the type-specific payload lives in Content as JSONB keyed by Type.
type Lecture struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	ChapterID string `json:"chapter_id" gorm:"not null;index;size:36"`
	CourseID  string `json:"course_id" gorm:"not null;index;size:36"`

	Title           string      `json:"title" gorm:"not null;size:200" validate:"required,max=200"`
	Type            LectureType `json:"type" gorm:"not null;index" validate:"required,oneof=video quiz"`
	DurationMinutes int         `json:"duration_minutes" gorm:"default:0" validate:"min=0"`
	Order           int         `json:"order" gorm:"not null;default:0"`
	PreviewFree     bool        `json:"preview_free" gorm:"default:false"`

	// Content stored as JSONB, schema depends on Type
	Content datatypes.JSON `json:"content" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}

func (Chapter) TableName() string {
	return "chapters"
}

func (Lecture) TableName() string {
	return "lectures"
}

// ===== LECTURE CONTENT SCHEMAS =====

type VideoContent struct {
	URL string `json:"url" validate:"required,url"`
}

type QuizContent struct {
	Questions []QuizQuestion `json:"questions" validate:"min=1,dive"`
}

type QuizQuestion struct {
	Text         string   `json:"text" validate:"required"`
	Options      []string `json:"options" validate:"min=2,max=10"`
	CorrectIndex int      `json:"correct_index" validate:"min=0"`
}

// VideoContent decodes the lecture payload for video lectures.
func (l *Lecture) VideoContent() (*VideoContent, error) {
	if l.Type != LectureVideo {
		return nil, fmt.Errorf("lecture %s is not a video lecture", l.ID)
	}
	var content VideoContent
	if err := json.Unmarshal(l.Content, &content); err != nil {
		return nil, fmt.Errorf("invalid video content: %w", err)
	}
	return &content, nil
}

// QuizContent decodes the lecture payload for quiz lectures.
func (l *Lecture) QuizContent() (*QuizContent, error) {
	if l.Type != LectureQuiz {
		return nil, fmt.Errorf("lecture %s is not a quiz lecture", l.ID)
	}
	var content QuizContent
	if err := json.Unmarshal(l.Content, &content); err != nil {
		return nil, fmt.Errorf("invalid quiz content: %w", err)
	}
	return &content, nil
}

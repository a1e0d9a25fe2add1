package models

import (
	"time"
)

// CourseRating holds at most one rating per (user, course) pair; writes are
// upserts through the rating gate, which requires proof of enrollment.
type CourseRating struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	CourseID string `json:"course_id" gorm:"not null;size:36;uniqueIndex:idx_user_course_rating,priority:2;index"`
	UserID   string `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_user_course_rating,priority:1"`
	Rating   int    `json:"rating" gorm:"not null" validate:"required,min=1,max=5"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (CourseRating) TableName() string {
	return "course_ratings"
}

// LectureComment is a student comment on a lecture, gated on enrollment.
type LectureComment struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	LectureID string `json:"lecture_id" gorm:"not null;index;size:36"`
	CourseID  string `json:"course_id" gorm:"not null;index;size:36"`
	UserID    string `json:"user_id" gorm:"not null;index;size:255"`
	Text      string `json:"text" gorm:"type:text;not null" validate:"required,max=2000"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (LectureComment) TableName() string {
	return "lecture_comments"
}

package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// CourseProgress tracks per-lecture completion for one (user, course) pair.
// At most one row per pair; created lazily on the first completion call.
// Completed flips to true exactly when the completed-lecture count reaches
// the course's total lecture count, and CertificateID is assigned at that
// same transition, once.
type CourseProgress struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	UserID   string `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_user_course_progress,priority:1"`
	CourseID string `json:"course_id" gorm:"not null;size:36;uniqueIndex:idx_user_course_progress,priority:2;index"`

	// Completed lecture IDs, no duplicates ([]string)
	CompletedLectures datatypes.JSON `json:"completed_lectures" gorm:"type:jsonb"`

	Completed     bool       `json:"completed" gorm:"default:false;index"`
	CompletedAt   *time.Time `json:"completed_at"`
	CertificateID *string    `json:"certificate_id" gorm:"size:64"`

	// Optimistic concurrency token for the completion read-modify-write
	Version int `json:"-" gorm:"default:1"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User   User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Course Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

func (CourseProgress) TableName() string {
	return "course_progresses"
}

// LectureIDs decodes the completed-lecture set. A nil column is an empty set.
func (p *CourseProgress) LectureIDs() ([]string, error) {
	if len(p.CompletedLectures) == 0 {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(p.CompletedLectures, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetLectureIDs encodes the completed-lecture set back into the JSONB column.
func (p *CourseProgress) SetLectureIDs(ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	p.CompletedLectures = raw
	return nil
}

// HasLecture reports whether the lecture is already in the completed set.
func (p *CourseProgress) HasLecture(lectureID string) (bool, error) {
	ids, err := p.LectureIDs()
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == lectureID {
			return true, nil
		}
	}
	return false, nil
}

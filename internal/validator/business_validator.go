package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateCourseCreate validates course creation business rules
func (bv *BusinessValidator) ValidateCourseCreate(req *models.CourseCreateRequest) ValidationErrors {
	var errors ValidationErrors

	// Basic struct validation
	errors = append(errors, bv.Validate(req)...)

	// Additional business validations
	errors = append(errors, bv.validateCourseBusinessRules(req)...)

	return errors
}

// ValidateStatusTransition validates purchase status transitions
func (bv *BusinessValidator) ValidateStatusTransition(currentStatus, newStatus models.PurchaseStatus) ValidationErrors {
	var errors ValidationErrors

	// Define allowed transitions
	allowedTransitions := map[models.PurchaseStatus][]models.PurchaseStatus{
		models.PurchasePending:   {models.PurchaseCompleted, models.PurchaseFailed},
		models.PurchaseCompleted: {}, // Terminal
		models.PurchaseFailed:    {}, // Terminal
	}

	allowed := false
	for _, allowedStatus := range allowedTransitions[currentStatus] {
		if newStatus == allowedStatus {
			allowed = true
			break
		}
	}

	if !allowed {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot transition from %s to %s", currentStatus, newStatus),
			Value:   newStatus,
			Rule:    "status_transition",
		})
	}

	return errors
}

// ValidateCoursePublish validates if a course can be published
func (bv *BusinessValidator) ValidateCoursePublish(lectureCount int64) ValidationErrors {
	var errors ValidationErrors

	if lectureCount == 0 {
		errors = append(errors, ValidationError{
			Field:   "lectures",
			Message: "course must have at least one lecture before publishing",
			Value:   lectureCount,
			Rule:    "business_logic",
		})
	}

	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Course title validation (1-200 characters)
	bv.validate.RegisterValidation("course_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 200
	})

	// lecture type validation
	bv.validate.RegisterValidation("lecture_type", func(fl validator.FieldLevel) bool {
		lType := fl.Field().String()
		validTypes := []models.LectureType{models.LectureVideo, models.LectureQuiz}
		for _, vt := range validTypes {
			if models.LectureType(lType) == vt {
				return true
			}
		}
		return false
	})
}

// validateCourseBusinessRules validates business rules for course creation
func (bv *BusinessValidator) validateCourseBusinessRules(req *models.CourseCreateRequest) ValidationErrors {
	var errors ValidationErrors

	if req.DiscountPercent < 0 || req.DiscountPercent > 100 {
		errors = append(errors, ValidationError{
			Field:   "discount_percent",
			Message: "must be between 0 and 100",
			Value:   req.DiscountPercent,
			Rule:    "business_logic",
		})
	}

	for i, chapter := range req.Chapters {
		for j, lecture := range chapter.Lectures {
			if len(lecture.Content) == 0 {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("chapters[%d].lectures[%d].content", i, j),
					Message: "lecture content cannot be empty",
					Value:   nil,
					Rule:    "business_logic",
				})
			}
		}
	}

	return errors
}

package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
)

// fakeRepository is an in-memory repositories.Repository for service tests.
// Transactions run the closure against the same stores; TxErr forces them to
// fail without executing.
type fakeRepository struct {
	purchases   *fakePurchaseRepo
	enrollments *fakeEnrollmentRepo
	courses     *fakeCourseRepo
	progress    *fakeProgressRepo
	ratings     *fakeRatingRepo
	comments    *fakeCommentRepo
	users       *fakeUserRepo
	dashboard   *fakeDashboardRepo

	TxErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		purchases:   &fakePurchaseRepo{store: map[string]*models.Purchase{}},
		enrollments: &fakeEnrollmentRepo{store: map[string]*models.Enrollment{}},
		courses:     &fakeCourseRepo{store: map[string]*models.Course{}, lectures: map[string]map[string]bool{}},
		progress:    &fakeProgressRepo{store: map[string]*models.CourseProgress{}},
		ratings:     &fakeRatingRepo{store: map[string]*models.CourseRating{}},
		comments:    &fakeCommentRepo{},
		users:       &fakeUserRepo{store: map[string]*models.User{}},
		dashboard:   &fakeDashboardRepo{},
	}
}

func (f *fakeRepository) Course() repositories.CourseRepository         { return f.courses }
func (f *fakeRepository) Purchase() repositories.PurchaseRepository     { return f.purchases }
func (f *fakeRepository) Enrollment() repositories.EnrollmentRepository { return f.enrollments }
func (f *fakeRepository) Progress() repositories.ProgressRepository     { return f.progress }
func (f *fakeRepository) Rating() repositories.RatingRepository         { return f.ratings }
func (f *fakeRepository) Comment() repositories.CommentRepository       { return f.comments }
func (f *fakeRepository) User() repositories.UserRepository             { return f.users }
func (f *fakeRepository) Dashboard() repositories.DashboardRepository   { return f.dashboard }

func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	if f.TxErr != nil {
		return f.TxErr
	}
	return fn(f)
}

func (f *fakeRepository) Ping(ctx context.Context) error { return nil }
func (f *fakeRepository) Close() error                   { return nil }

func pairKey(userID, courseID string) string {
	return userID + "|" + courseID
}

// ===== PURCHASES =====

// fakePurchaseRepo is mutex-guarded so tests can race concurrent deliveries
// against it.
type fakePurchaseRepo struct {
	mu    sync.Mutex
	store map[string]*models.Purchase
}

func (r *fakePurchaseRepo) Create(_ context.Context, _ *gorm.DB, purchase *models.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *purchase
	r.store[purchase.ID] = &cp
	return nil
}

func (r *fakePurchaseRepo) GetByID(_ context.Context, _ *gorm.DB, id string) (*models.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	purchase, ok := r.store[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *purchase
	return &cp, nil
}

func (r *fakePurchaseRepo) GetBySessionID(_ context.Context, _ *gorm.DB, sessionID string) (*models.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, purchase := range r.store {
		if purchase.SessionID != nil && *purchase.SessionID == sessionID {
			cp := *purchase
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePurchaseRepo) SetSessionID(_ context.Context, _ *gorm.DB, id string, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	purchase, ok := r.store[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	purchase.SessionID = &sessionID
	return nil
}

func (r *fakePurchaseRepo) UpdateStatusIfPending(_ context.Context, _ *gorm.DB, id string, status models.PurchaseStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	purchase, ok := r.store[id]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if purchase.Status != models.PurchasePending {
		return false, nil
	}
	purchase.Status = status
	return true, nil
}

func (r *fakePurchaseRepo) List(_ context.Context, _ *gorm.DB, _ repositories.PurchaseFilters) ([]*models.Purchase, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Purchase, 0, len(r.store))
	for _, purchase := range r.store {
		cp := *purchase
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *fakePurchaseRepo) GetByUser(_ context.Context, _ *gorm.DB, userID string, _ repositories.PurchaseFilters) ([]*models.Purchase, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Purchase
	for _, purchase := range r.store {
		if purchase.UserID == userID {
			cp := *purchase
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakePurchaseRepo) ExpireStalePending(_ context.Context, _ *gorm.DB, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var swept int64
	for _, purchase := range r.store {
		if purchase.Status == models.PurchasePending && purchase.CreatedAt.Before(cutoff) {
			purchase.Status = models.PurchaseFailed
			swept++
		}
	}
	return swept, nil
}

// ===== ENROLLMENTS =====

// fakeEnrollmentRepo is mutex-guarded so tests can race concurrent deliveries
// against it.
type fakeEnrollmentRepo struct {
	mu            sync.Mutex
	store         map[string]*models.Enrollment
	invalidations int

	// EnrollErr forces Enroll to fail when set
	EnrollErr error
}

func (r *fakeEnrollmentRepo) Enroll(_ context.Context, _ *gorm.DB, enrollment *models.Enrollment) error {
	if r.EnrollErr != nil {
		return r.EnrollErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(enrollment.UserID, enrollment.CourseID)
	if _, ok := r.store[key]; ok {
		return nil // idempotent on the unique pair
	}
	cp := *enrollment
	cp.EnrolledAt = time.Now()
	r.store[key] = &cp
	return nil
}

func (r *fakeEnrollmentRepo) Exists(_ context.Context, _ *gorm.DB, userID, courseID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.store[pairKey(userID, courseID)]
	return ok, nil
}

func (r *fakeEnrollmentRepo) InvalidateMembership(_ context.Context, _, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidations++
}

func (r *fakeEnrollmentRepo) GetByUser(_ context.Context, _ *gorm.DB, userID string) ([]*models.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Enrollment
	for _, enrollment := range r.store {
		if enrollment.UserID == userID {
			cp := *enrollment
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeEnrollmentRepo) GetByCourse(_ context.Context, _ *gorm.DB, courseID string, _ repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Enrollment
	for _, enrollment := range r.store {
		if enrollment.CourseID == courseID {
			cp := *enrollment
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeEnrollmentRepo) CountByCourse(_ context.Context, _ *gorm.DB, courseID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, enrollment := range r.store {
		if enrollment.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func (r *fakeEnrollmentRepo) invalidationCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.invalidations
}

// ===== COURSES =====

type fakeCourseRepo struct {
	store map[string]*models.Course

	// lectures maps course ID to the set of lecture IDs it contains
	lectures map[string]map[string]bool
}

func (r *fakeCourseRepo) addLecture(courseID, lectureID string) {
	if r.lectures[courseID] == nil {
		r.lectures[courseID] = map[string]bool{}
	}
	r.lectures[courseID][lectureID] = true
}

func (r *fakeCourseRepo) Create(_ context.Context, _ *gorm.DB, course *models.Course) error {
	cp := *course
	r.store[course.ID] = &cp
	return nil
}

func (r *fakeCourseRepo) GetByID(_ context.Context, _ *gorm.DB, id string) (*models.Course, error) {
	course, ok := r.store[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *course
	return &cp, nil
}

func (r *fakeCourseRepo) GetByIDWithContent(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error) {
	return r.GetByID(ctx, tx, id)
}

func (r *fakeCourseRepo) Update(_ context.Context, _ *gorm.DB, course *models.Course) error {
	if _, ok := r.store[course.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *course
	r.store[course.ID] = &cp
	return nil
}

func (r *fakeCourseRepo) Delete(_ context.Context, _ *gorm.DB, id string) error {
	delete(r.store, id)
	return nil
}

func (r *fakeCourseRepo) List(_ context.Context, _ *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	var out []*models.Course
	for _, course := range r.store {
		if filters.Published != nil && course.Published != *filters.Published {
			continue
		}
		cp := *course
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *fakeCourseRepo) GetByEducator(_ context.Context, _ *gorm.DB, educatorID string, _ repositories.CourseFilters) ([]*models.Course, int64, error) {
	var out []*models.Course
	for _, course := range r.store {
		if course.EducatorID == educatorID {
			cp := *course
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeCourseRepo) SetPublished(_ context.Context, _ *gorm.DB, id string, published bool) error {
	course, ok := r.store[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	course.Published = published
	return nil
}

func (r *fakeCourseRepo) GetLecture(_ context.Context, _ *gorm.DB, lectureID string) (*models.Lecture, error) {
	for courseID, set := range r.lectures {
		if set[lectureID] {
			return &models.Lecture{ID: lectureID, CourseID: courseID}, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCourseRepo) LectureBelongsToCourse(_ context.Context, _ *gorm.DB, courseID, lectureID string) (bool, error) {
	return r.lectures[courseID][lectureID], nil
}

func (r *fakeCourseRepo) CountLectures(_ context.Context, _ *gorm.DB, courseID string) (int64, error) {
	return int64(len(r.lectures[courseID])), nil
}

func (r *fakeCourseRepo) ExistsByID(_ context.Context, _ *gorm.DB, id string) (bool, error) {
	_, ok := r.store[id]
	return ok, nil
}

func (r *fakeCourseRepo) IsOwnedBy(_ context.Context, _ *gorm.DB, courseID, educatorID string) (bool, error) {
	course, ok := r.store[courseID]
	return ok && course.EducatorID == educatorID, nil
}

// ===== PROGRESS =====

type fakeProgressRepo struct {
	store  map[string]*models.CourseProgress
	nextID uint

	// ForceConflicts makes the next N UpdateWithVersion calls report a lost
	// version race
	ForceConflicts int
}

func (r *fakeProgressRepo) Create(_ context.Context, _ *gorm.DB, progress *models.CourseProgress) error {
	key := pairKey(progress.UserID, progress.CourseID)
	if _, ok := r.store[key]; ok {
		return fmt.Errorf("duplicate key value violates unique constraint")
	}
	r.nextID++
	progress.ID = r.nextID
	cp := *progress
	r.store[key] = &cp
	return nil
}

func (r *fakeProgressRepo) GetByUserAndCourse(_ context.Context, _ *gorm.DB, userID, courseID string) (*models.CourseProgress, error) {
	progress, ok := r.store[pairKey(userID, courseID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *progress
	return &cp, nil
}

func (r *fakeProgressRepo) UpdateWithVersion(_ context.Context, _ *gorm.DB, progress *models.CourseProgress) (bool, error) {
	if r.ForceConflicts > 0 {
		r.ForceConflicts--
		return false, nil
	}
	key := pairKey(progress.UserID, progress.CourseID)
	stored, ok := r.store[key]
	if !ok || stored.Version != progress.Version {
		return false, nil
	}
	progress.Version++
	cp := *progress
	r.store[key] = &cp
	return true, nil
}

func (r *fakeProgressRepo) GetByUser(_ context.Context, _ *gorm.DB, userID string) ([]*models.CourseProgress, error) {
	var out []*models.CourseProgress
	for _, progress := range r.store {
		if progress.UserID == userID {
			cp := *progress
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeProgressRepo) CountCompletedByCourse(_ context.Context, _ *gorm.DB, courseID string) (int64, error) {
	var count int64
	for _, progress := range r.store {
		if progress.CourseID == courseID && progress.Completed {
			count++
		}
	}
	return count, nil
}

// ===== RATINGS =====

type fakeRatingRepo struct {
	store map[string]*models.CourseRating
}

func (r *fakeRatingRepo) Upsert(_ context.Context, _ *gorm.DB, rating *models.CourseRating) error {
	cp := *rating
	r.store[pairKey(rating.UserID, rating.CourseID)] = &cp
	return nil
}

func (r *fakeRatingRepo) GetByUserAndCourse(_ context.Context, _ *gorm.DB, userID, courseID string) (*models.CourseRating, error) {
	rating, ok := r.store[pairKey(userID, courseID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rating
	return &cp, nil
}

func (r *fakeRatingRepo) GetByCourse(_ context.Context, _ *gorm.DB, courseID string) ([]*models.CourseRating, error) {
	var out []*models.CourseRating
	for _, rating := range r.store {
		if rating.CourseID == courseID {
			cp := *rating
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRatingRepo) Summary(_ context.Context, _ *gorm.DB, courseID string) (*repositories.RatingSummary, error) {
	var count int64
	var sum float64
	for _, rating := range r.store {
		if rating.CourseID == courseID {
			count++
			sum += float64(rating.Rating)
		}
	}
	summary := &repositories.RatingSummary{Count: count}
	if count > 0 {
		summary.Mean = sum / float64(count)
	}
	return summary, nil
}

// ===== COMMENTS =====

type fakeCommentRepo struct {
	comments []*models.LectureComment
}

func (r *fakeCommentRepo) Create(_ context.Context, _ *gorm.DB, comment *models.LectureComment) error {
	cp := *comment
	r.comments = append(r.comments, &cp)
	return nil
}

func (r *fakeCommentRepo) GetByLecture(_ context.Context, _ *gorm.DB, lectureID string, _ repositories.CommentFilters) ([]*models.LectureComment, int64, error) {
	var out []*models.LectureComment
	for _, comment := range r.comments {
		if comment.LectureID == lectureID {
			cp := *comment
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

// ===== USERS =====

type fakeUserRepo struct {
	store map[string]*models.User
}

func (r *fakeUserRepo) Create(_ context.Context, _ *gorm.DB, user *models.User) error {
	cp := *user
	r.store[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, _ *gorm.DB, user *models.User) error {
	if _, ok := r.store[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *user
	r.store[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, _ *gorm.DB, id string) error {
	if _, ok := r.store[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.store, id)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := r.store[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range r.store {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	var out []*models.User
	for _, id := range ids {
		if user, ok := r.store[id]; ok {
			cp := *user
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) List(_ context.Context, _ repositories.UserFilters) ([]*models.User, int64, error) {
	var out []*models.User
	for _, user := range r.store {
		cp := *user
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) ExistsByID(_ context.Context, id string) (bool, error) {
	_, ok := r.store[id]
	return ok, nil
}

func (r *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, user := range r.store {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) HasRole(_ context.Context, id string, role models.UserRole) (bool, error) {
	user, ok := r.store[id]
	return ok && user.Role == role, nil
}

// ===== DASHBOARD =====

type fakeDashboardRepo struct {
	earnings float64
	courses  int64
	students []repositories.EnrolledStudentData
	revenue  []repositories.RevenueByDayData
}

func (r *fakeDashboardRepo) GetTotalEarnings(_ context.Context, _ *gorm.DB, _ string) (float64, error) {
	return r.earnings, nil
}

func (r *fakeDashboardRepo) GetTotalCourses(_ context.Context, _ *gorm.DB, _ string) (int64, error) {
	return r.courses, nil
}

func (r *fakeDashboardRepo) GetDistinctStudents(_ context.Context, _ *gorm.DB, _ string) (int64, error) {
	seen := map[string]bool{}
	for _, row := range r.students {
		seen[row.StudentID] = true
	}
	return int64(len(seen)), nil
}

func (r *fakeDashboardRepo) GetRevenueByDay(_ context.Context, _ *gorm.DB, _ string, _ int) ([]repositories.RevenueByDayData, error) {
	return r.revenue, nil
}

func (r *fakeDashboardRepo) GetEnrolledStudents(_ context.Context, _ *gorm.DB, _ string, limit, offset int) ([]repositories.EnrolledStudentData, int64, error) {
	total := int64(len(r.students))
	if offset >= len(r.students) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(r.students) {
		end = len(r.students)
	}
	return r.students[offset:end], total, nil
}

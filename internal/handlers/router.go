package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/enrollment-service/internal/config"
	"github.com/SAP-F-2025/enrollment-service/internal/models"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
	"github.com/SAP-F-2025/enrollment-service/internal/services"
	"github.com/SAP-F-2025/enrollment-service/internal/utils"
	"github.com/SAP-F-2025/enrollment-service/internal/validator"
)

type HandlerManager struct {
	courseHandler    *CourseHandler
	purchaseHandler  *PurchaseHandler
	progressHandler  *ProgressHandler
	dashboardHandler *DashboardHandler
	userHandler      *UserHandler
	webhookHandler   *WebhookHandler
	authMiddleware   *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
	identityWebhookSecret string,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		courseHandler:    NewCourseHandler(serviceManager.Course(), serviceManager.Rating(), serviceManager.Comment(), validator, logger),
		purchaseHandler:  NewPurchaseHandler(serviceManager.Purchase(), logger),
		progressHandler:  NewProgressHandler(serviceManager.Progress(), logger),
		dashboardHandler: NewDashboardHandler(serviceManager.Dashboard(), logger),
		userHandler:      NewUserHandler(serviceManager.User(), logger),
		webhookHandler:   NewWebhookHandler(serviceManager.Reconciler(), serviceManager.User(), identityWebhookSecret, logger),
		authMiddleware:   authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Webhooks are unauthenticated; HMAC signatures are the trust anchor
	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/payment", hm.webhookHandler.HandlePaymentWebhook)
		webhooks.POST("/identity", hm.webhookHandler.HandleIdentityWebhook)
	}

	v1 := router.Group("/api/v1")
	{
		// Course catalog: public, enriched when a valid token is present
		courses := v1.Group("/courses")
		courses.Use(hm.authMiddleware.OptionalAuthMiddleware())
		{
			courses.GET("", hm.courseHandler.ListCourses)
			courses.GET("/:id", hm.courseHandler.GetCourse)
			courses.GET("/:id/rating", hm.courseHandler.GetRatingSummary)
		}

		authed := v1.Group("")
		authed.Use(hm.authMiddleware.AuthMiddleware())
		{
			// Course authoring - Educators and Admins only
			authoring := authed.Group("/courses")
			{
				authoring.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleEducator), hm.courseHandler.CreateCourse)
				authoring.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleEducator), hm.courseHandler.DeleteCourse)
				authoring.POST("/:id/publish", hm.authMiddleware.RequireRoleMiddleware(models.RoleEducator), hm.courseHandler.PublishCourse)
				authoring.POST("/:id/unpublish", hm.authMiddleware.RequireRoleMiddleware(models.RoleEducator), hm.courseHandler.UnpublishCourse)

				// Learner interactions on enrolled courses
				authoring.POST("/:id/rating", hm.courseHandler.RateCourse)
				authoring.GET("/:id/lectures/:lecture_id/comments", hm.courseHandler.ListComments)
				authoring.POST("/:id/lectures/:lecture_id/comments", hm.courseHandler.CreateComment)
				authoring.POST("/:id/lectures/:lecture_id/complete", hm.progressHandler.CompleteLecture)
				authoring.GET("/:id/progress", hm.progressHandler.GetProgress)
			}

			// Purchase routes
			purchases := authed.Group("/purchases")
			{
				purchases.POST("", hm.purchaseHandler.CreatePurchase)
				purchases.GET("", hm.purchaseHandler.ListMyPurchases)
				purchases.GET("/:id", hm.purchaseHandler.GetPurchase)
			}

			// Enrollment routes
			authed.GET("/enrollments", hm.progressHandler.GetMyEnrollments)

			// Dashboard routes - Educators and Admins only
			dashboard := authed.Group("/dashboard")
			dashboard.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleEducator))
			{
				dashboard.GET("", hm.dashboardHandler.GetDashboard)
				dashboard.GET("/students", hm.dashboardHandler.GetEnrolledStudents)
				dashboard.GET("/enrollments/export", hm.dashboardHandler.ExportEnrollments)
			}

			// User routes
			users := authed.Group("/users")
			{
				users.GET("/me", hm.userHandler.GetMe)
				users.GET("/:id", hm.userHandler.GetUser)
				users.POST("/:id/promote", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.PromoteToEducator)
			}
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "enrollment-service",
		})
	})
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prehab/prehab-app/internal/domain"
	"prehab/prehab-app/internal/service"
)

// SetupRoutes wires every handler into the router.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	doctorService service.DoctorService,
	patientService service.PatientService,
	catalogService service.CatalogService,
	templateService service.TemplateService,
	prehabService service.PrehabService,
) {
	authHandler := NewAuthHandler(authService)
	doctorHandler := NewDoctorHandler(doctorService)
	patientHandler := NewPatientHandler(patientService)
	catalogHandler := NewCatalogHandler(catalogService)
	templateHandler := NewTemplateHandler(templateService)
	prehabHandler := NewPrehabHandler(prehabService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")

	authGroup := apiV1.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/activate", authHandler.Activate)
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := c.Get(ContextUserRoleKey)
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex(), "role": role})
		})

		// --- Catalogs ---
		taskGroup := protected.Group("/tasks")
		{
			taskGroup.POST("", RoleMiddleware(domain.RoleDoctor, domain.RoleAdmin), catalogHandler.CreateTask)
			taskGroup.GET("", catalogHandler.ListTasks)
			taskGroup.GET("/:taskId", catalogHandler.GetTask)
		}
		mealGroup := protected.Group("/meals")
		{
			mealGroup.POST("", RoleMiddleware(domain.RoleAdmin), catalogHandler.CreateMeal)
			mealGroup.GET("", catalogHandler.ListMeals)
			mealGroup.GET("/:mealId", catalogHandler.GetMeal)
		}
		constraintGroup := protected.Group("/constraints")
		{
			constraintGroup.POST("", RoleMiddleware(domain.RoleAdmin), catalogHandler.CreateConstraintType)
			constraintGroup.GET("", catalogHandler.ListConstraintTypes)
		}

		// --- Instruction media (two-step presigned upload) ---
		mediaGroup := protected.Group("/catalog/:itemType/:itemId/media")
		{
			mediaGroup.POST("", RoleMiddleware(domain.RoleDoctor, domain.RoleAdmin), catalogHandler.RequestMediaUpload)
			mediaGroup.POST("/confirm", RoleMiddleware(domain.RoleDoctor, domain.RoleAdmin), catalogHandler.ConfirmMediaUpload)
			mediaGroup.GET("", catalogHandler.GetMediaDownloadURL)
		}

		// --- Templates ---
		templateGroup := protected.Group("/templates")
		{
			templateGroup.POST("", RoleMiddleware(domain.RoleDoctor, domain.RoleAdmin), templateHandler.CreateTemplate)
			templateGroup.GET("", RoleMiddleware(domain.RoleDoctor, domain.RoleAdmin), templateHandler.ListTemplates)
			templateGroup.GET("/:templateId", RoleMiddleware(domain.RoleDoctor, domain.RoleAdmin), templateHandler.GetTemplate)
		}

		// --- Enrollments ---
		// Status transitions are open to every authenticated role; the
		// service decides who may apply which transition (patients can
		// only start their own plan).
		protected.PATCH("/prehabs/:prehabId/status", prehabHandler.UpdateStatus)

		// --- Doctor workflows ---
		doctorGroup := protected.Group("/doctor")
		doctorGroup.Use(RoleMiddleware(domain.RoleDoctor, domain.RoleAdmin))
		{
			doctorGroup.POST("/patients", doctorHandler.CreatePatient)
			doctorGroup.GET("/patients", doctorHandler.GetManagedPatients)
			doctorGroup.POST("/patients/:patientId/doctors", doctorHandler.AddDoctorToPatient)
			doctorGroup.GET("/patients/:patientId/schedule", prehabHandler.GetPatientSchedule)
			doctorGroup.GET("/patients/:patientId/statistics", prehabHandler.GetStatistics)

			doctorGroup.POST("/prehabs", prehabHandler.CreatePrehab)
			doctorGroup.GET("/prehabs", prehabHandler.ListMyPrehabs)
			doctorGroup.POST("/prehabs/:prehabId/seen", doctorHandler.MarkSeenBulk)
			doctorGroup.POST("/items/:itemId/seen", doctorHandler.MarkSeen)
		}

		// --- Admin oversight ---
		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			adminGroup.GET("/items", prehabHandler.ListAllItems)
		}

		// --- Patient workflows ---
		patientGroup := protected.Group("/patient")
		patientGroup.Use(RoleMiddleware(domain.RolePatient))
		{
			patientGroup.GET("/schedule", patientHandler.GetMySchedule)
			patientGroup.GET("/statistics", func(c *gin.Context) {
				userID, err := getUserIDFromContext(c)
				if err != nil {
					abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
					return
				}
				report, err := prehabService.GetStatistics(c.Request.Context(), userID, userID)
				if err != nil {
					handleServiceError(c, err)
					return
				}
				c.JSON(http.StatusOK, report)
			})
			patientGroup.POST("/items/:itemId/done", patientHandler.MarkDone)
		}
	}
}

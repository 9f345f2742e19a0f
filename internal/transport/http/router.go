package handlers

import (
	"net/http"
	"time"

	"coursehub/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Courses  *CourseHandler
	Educator *EducatorHandler
	Users    *UserHandler
	Webhooks *WebhookHandler

	Verifier    middleware.TokenVerifier
	UserLookup  middleware.UserLookup
	Limiter     *middleware.RateLimiter
	AllowOrigin []string
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.Default()
	r.MaxMultipartMemory = 8 << 20

	config := cors.DefaultConfig()
	if len(d.AllowOrigin) > 0 {
		config.AllowOrigins = d.AllowOrigin
		config.AllowCredentials = true
	} else {
		config.AllowAllOrigins = true
	}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}
	r.Use(cors.New(config))

	r.GET("/", func(c *gin.Context) {
		respondMessage(c, http.StatusOK, "API working")
	})

	r.POST("/stripe", d.Webhooks.Stripe)
	r.POST("/clerk", d.Webhooks.Clerk)

	api := r.Group("/api")
	{
		courses := api.Group("/courses")
		{
			courses.GET("", d.Courses.List)
			courses.GET("/:id", d.Courses.GetOne)
		}

		auth := middleware.AuthMiddleware(d.Verifier)

		educator := api.Group("/educator")
		educator.Use(auth)
		{
			educator.POST("/update-role", d.Educator.UpdateRole)

			owned := educator.Group("")
			owned.Use(middleware.EducatorOnly(d.UserLookup))
			owned.GET("/courses", d.Educator.Courses)
			owned.POST("/add-course", d.Educator.AddCourse)
			owned.DELETE("/courses/:id", d.Educator.DeleteCourse)
			owned.GET("/dashboard", d.Educator.Dashboard)
			owned.GET("/enrolled-students", d.Educator.EnrolledStudents)
		}

		user := api.Group("/user")
		user.Use(auth)
		{
			user.GET("/data", d.Users.GetData)
			user.GET("/enrolled-courses", d.Users.EnrolledCourses)
			user.POST("/purchase", d.Limiter.Limit("purchase", 5, time.Minute), d.Users.Purchase)
			user.POST("/update-course-progress", d.Users.UpdateProgress)
			user.POST("/course-progress", d.Users.GetProgress)
			user.POST("/add-rating", d.Users.AddRating)
			user.POST("/complete-profile", d.Users.CompleteProfile)
			user.GET("/profile-status", d.Users.ProfileStatus)
		}
	}

	return r
}

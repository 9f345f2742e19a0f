package handlers

import (
	"net/http"

	"coursehub/internal/application/usecase"
	"coursehub/internal/middleware"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	student *usecase.StudentUseCase
	errorMapper
}

func NewUserHandler(student *usecase.StudentUseCase, exposeErrors bool) *UserHandler {
	return &UserHandler{student: student, errorMapper: errorMapper{exposeInternal: exposeErrors}}
}

type courseReq struct {
	CourseID string `json:"courseId" binding:"required"`
}

type progressReq struct {
	CourseID  string `json:"courseId" binding:"required"`
	LectureID string `json:"lectureId" binding:"required"`
}

type ratingReq struct {
	CourseID string `json:"courseId" binding:"required"`
	Rating   int    `json:"rating" binding:"required"`
}

type profileReq struct {
	Name     string `json:"name" binding:"required"`
	ImageURL string `json:"imageUrl"`
}

// GET /api/user/data
func (h *UserHandler) GetData(c *gin.Context) {
	user, err := h.student.UserData(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"user": user})
}

// GET /api/user/enrolled-courses
func (h *UserHandler) EnrolledCourses(c *gin.Context) {
	courses, err := h.student.EnrolledCourses(c.Request.Context(), c.GetString(middleware.KeyUserID))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"enrolledCourses": courses})
}

// POST /api/user/purchase
func (h *UserHandler) Purchase(c *gin.Context) {
	var req courseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "Course ID is required")
		return
	}
	origin := c.GetHeader("Origin")
	if origin == "" {
		respondFail(c, http.StatusBadRequest, "Origin header is required")
		return
	}
	courseID, err := parseCourseID(req.CourseID)
	if err != nil {
		h.fail(c, err)
		return
	}

	url, err := h.student.Purchase(c.Request.Context(), identityFrom(c), courseID, origin)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"session_url": url})
}

// POST /api/user/update-course-progress
func (h *UserHandler) UpdateProgress(c *gin.Context) {
	var req progressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "courseId and lectureId are required")
		return
	}
	courseID, err := parseCourseID(req.CourseID)
	if err != nil {
		h.fail(c, err)
		return
	}

	already, err := h.student.UpdateProgress(c.Request.Context(), c.GetString(middleware.KeyUserID), courseID, req.LectureID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if already {
		respondMessage(c, http.StatusOK, "Lecture Already Completed")
		return
	}
	respondMessage(c, http.StatusOK, "Progress Updated")
}

// POST /api/user/course-progress
func (h *UserHandler) GetProgress(c *gin.Context) {
	var req courseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "Course ID is required")
		return
	}
	courseID, err := parseCourseID(req.CourseID)
	if err != nil {
		h.fail(c, err)
		return
	}

	progress, err := h.student.GetProgress(c.Request.Context(), c.GetString(middleware.KeyUserID), courseID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"progressData": progress})
}

// POST /api/user/add-rating
func (h *UserHandler) AddRating(c *gin.Context) {
	var req ratingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "courseId and rating are required")
		return
	}
	courseID, err := parseCourseID(req.CourseID)
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := h.student.AddRating(c.Request.Context(), c.GetString(middleware.KeyUserID), courseID, req.Rating); err != nil {
		h.fail(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Rating added")
}

// POST /api/user/complete-profile
func (h *UserHandler) CompleteProfile(c *gin.Context) {
	var req profileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "Name is required")
		return
	}

	user, err := h.student.CompleteProfile(c.Request.Context(), identityFrom(c), req.Name, req.ImageURL)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Profile completed successfully", "user": user})
}

// GET /api/user/profile-status
func (h *UserHandler) ProfileStatus(c *gin.Context) {
	status, err := h.student.ProfileStatus(c.Request.Context(), c.GetString(middleware.KeyUserID))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"profileComplete": status.IsProfileComplete, "user": status})
}

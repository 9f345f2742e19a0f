package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"coursehub/internal/application/usecase"
	"coursehub/internal/middleware"

	"github.com/gin-gonic/gin"
)

type EducatorHandler struct {
	educator *usecase.EducatorUseCase
	errorMapper
}

func NewEducatorHandler(educator *usecase.EducatorUseCase, exposeErrors bool) *EducatorHandler {
	return &EducatorHandler{educator: educator, errorMapper: errorMapper{exposeInternal: exposeErrors}}
}

// POST /api/educator/update-role
func (h *EducatorHandler) UpdateRole(c *gin.Context) {
	if err := h.educator.BecomeEducator(c.Request.Context(), identityFrom(c)); err != nil {
		h.fail(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "You can publish a course now")
}

// POST /api/educator/add-course (multipart: image, courseContent)
func (h *EducatorHandler) AddCourse(c *gin.Context) {
	var in usecase.AddCourseInput
	if err := json.Unmarshal([]byte(c.PostForm("courseContent")), &in); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid courseContent format")
		return
	}

	var thumbnail io.Reader
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			respondFail(c, http.StatusBadRequest, "Thumbnail could not be read")
			return
		}
		defer f.Close()
		thumbnail = f
	}

	course, err := h.educator.AddCourse(c.Request.Context(), c.GetString(middleware.KeyUserID), in, thumbnail)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"message": "Course Added", "course": course})
}

// GET /api/educator/courses
func (h *EducatorHandler) Courses(c *gin.Context) {
	courses, err := h.educator.EducatorCourses(c.Request.Context(), c.GetString(middleware.KeyUserID))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"courses": courses})
}

// DELETE /api/educator/courses/:id
func (h *EducatorHandler) DeleteCourse(c *gin.Context) {
	id, err := courseIDParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	res, err := h.educator.DeleteCourse(c.Request.Context(), c.GetString(middleware.KeyUserID), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Course deleted successfully", "deletedData": res})
}

// GET /api/educator/dashboard
func (h *EducatorHandler) Dashboard(c *gin.Context) {
	data, err := h.educator.Dashboard(c.Request.Context(), c.GetString(middleware.KeyUserID))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"dashboardData": data})
}

// GET /api/educator/enrolled-students
func (h *EducatorHandler) EnrolledStudents(c *gin.Context) {
	students, summary, err := h.educator.EnrolledStudents(c.Request.Context(), c.GetString(middleware.KeyUserID))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"enrolledStudents": students, "summary": summary})
}

func identityFrom(c *gin.Context) usecase.Identity {
	claims := middleware.ClaimsFrom(c)
	return usecase.Identity{
		UserID:   claims.UserID,
		Name:     claims.Name,
		Email:    claims.Email,
		ImageURL: claims.ImageURL,
	}
}

package handlers

import (
	"net/http"

	"coursehub/internal/application/usecase"
	"coursehub/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CourseHandler struct {
	catalog *usecase.CatalogUseCase
	errorMapper
}

func NewCourseHandler(catalog *usecase.CatalogUseCase, exposeErrors bool) *CourseHandler {
	return &CourseHandler{catalog: catalog, errorMapper: errorMapper{exposeInternal: exposeErrors}}
}

// GET /api/courses
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.catalog.ListCourses(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"courses": courses})
}

// GET /api/courses/:id
func (h *CourseHandler) GetOne(c *gin.Context) {
	id, err := courseIDParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	course, err := h.catalog.GetCourse(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"course": course})
}

// An id that does not parse cannot name a course.
func courseIDParam(c *gin.Context) (uuid.UUID, error) {
	return parseCourseID(c.Param("id"))
}

func parseCourseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, domain.ErrCourseNotFound
	}
	return id, nil
}

package handlers

import (
	"errors"
	"log"
	"net/http"

	"coursehub/internal/domain"

	"github.com/gin-gonic/gin"
)

// Every response is {"success": bool, "message"?: string, ...payload}.

func respond(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

func respondMessage(c *gin.Context, status int, msg string) {
	respond(c, status, gin.H{"message": msg})
}

func respondFail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "message": msg})
}

type errorMapper struct {
	exposeInternal bool
}

// fail maps domain errors to status codes. Internal errors are logged and
// only described to the client in development.
func (m errorMapper) fail(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "Internal server error"

	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		status, msg = http.StatusBadRequest, ve.Message
	case errors.Is(err, domain.ErrInvalidSignature):
		status, msg = http.StatusBadRequest, "Invalid signature"
	case errors.Is(err, domain.ErrCourseNotFound):
		status, msg = http.StatusNotFound, "Course not found"
	case errors.Is(err, domain.ErrUserNotFound):
		status, msg = http.StatusNotFound, "User not found"
	case errors.Is(err, domain.ErrPurchaseNotFound):
		status, msg = http.StatusNotFound, "Purchase not found"
	case errors.Is(err, domain.ErrLectureNotFound):
		status, msg = http.StatusNotFound, "Lecture not found in this course"
	case errors.Is(err, domain.ErrNotCourseOwner):
		status, msg = http.StatusForbidden, "You can only manage your own courses"
	case errors.Is(err, domain.ErrEducatorRequired):
		status, msg = http.StatusForbidden, "Unauthorized Access"
	case errors.Is(err, domain.ErrNotEnrolled):
		status, msg = http.StatusForbidden, "You are not enrolled in this course"
	case errors.Is(err, domain.ErrAlreadyEnrolled):
		status, msg = http.StatusConflict, "Already enrolled in this course"
	case errors.Is(err, domain.ErrCourseNotForSale):
		status, msg = http.StatusBadRequest, "Course is not available for purchase"
	case errors.Is(err, domain.ErrUploadUnavailable):
		status, msg = http.StatusServiceUnavailable, "Image upload is not available"
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		if m.exposeInternal {
			msg = err.Error()
		}
	}
	respondFail(c, status, msg)
}

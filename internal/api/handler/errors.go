package handler

import (
	"errors"
	"net/http"

	"caseflow/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// httpStatusOf maps engine errors to HTTP status codes.
func httpStatusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrSelfDependency),
		errors.Is(err, domain.ErrCrossCaseDependency),
		errors.Is(err, domain.ErrCircularDependency),
		errors.Is(err, domain.ErrDuplicateDependency),
		errors.Is(err, domain.ErrDepartmentMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(httpStatusOf(err), gin.H{"error": err.Error()})
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

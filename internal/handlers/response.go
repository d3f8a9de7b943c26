package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskify/backend/internal/services"
)

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondList(c *gin.Context, data interface{}, count int) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   count,
		"data":    data,
	})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// respondServiceError maps the service error taxonomy onto HTTP status
// codes. Unrecognized errors are logged by the recovery/metrics layers
// and reported as a bare 500 so internals never leak.
func respondServiceError(c *gin.Context, err error) {
	var verr *services.ValidationError
	var nferr *services.NotFoundError
	var fberr *services.ForbiddenError
	var cferr *services.ConflictError

	switch {
	case errors.As(err, &verr):
		respondError(c, http.StatusBadRequest, verr.Error())
	case errors.As(err, &nferr):
		respondError(c, http.StatusNotFound, nferr.Error())
	case errors.As(err, &fberr):
		respondError(c, http.StatusForbidden, fberr.Error())
	case errors.As(err, &cferr):
		respondError(c, http.StatusBadRequest, cferr.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrDuplicateEmail):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "Internal server error")
	}
}

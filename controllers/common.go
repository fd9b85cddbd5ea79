package controllers

import (
	"errors"
	"net/http"

	"pandora-box-api/services"

	"github.com/gin-gonic/gin"
)

// Package-level services, wired once at process start from main.
var (
	workflow   *services.WorkflowService
	auditSink  *services.AuditSink
	dispatcher *services.Dispatcher
)

// Init installs the constructed services for the handlers to use.
func Init(w *services.WorkflowService, a *services.AuditSink, d *services.Dispatcher) {
	workflow = w
	auditSink = a
	dispatcher = d
}

// respondServiceError maps service errors onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	if ve, ok := services.AsValidation(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": ve.Fields})
		return
	}
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrPermission):
		c.JSON(http.StatusForbidden, gin.H{"error": services.ErrPermission.Error()})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": services.ErrConflict.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// controllers/comment.go
package controllers

import (
	"net/http"
	"strconv"

	"pandora-box-api/middleware"

	"github.com/gin-gonic/gin"
)

// AddComment attaches a reviewer comment to a submission.
func AddComment(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission id"})
		return
	}

	type AddCommentRequest struct {
		Text       string `json:"text" binding:"required"`
		IsInternal bool   `json:"is_internal"`
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := workflow.AddComment(user, uint(id), req.Text, req.IsInternal, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Comment added",
		"comment": comment,
	})
}

// controllers/admin_macs.go
package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"pandora-box-api/config"
	"pandora-box-api/middleware"
	"pandora-box-api/models"
	"pandora-box-api/services"
	"pandora-box-api/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ===================== MAC ADMINISTRATION =====================

// GetMACs lists agencies. Available to any authenticated user so
// dropdowns and filters can populate.
func GetMACs(c *gin.Context) {
	query := config.DB.Model(&models.MAC{})
	if c.Query("active_only") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var macs []models.MAC
	if err := query.Order("name ASC").Find(&macs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch MACs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"macs":    macs,
		"total":   len(macs),
	})
}

// CreateMAC registers a new agency.
func CreateMAC(c *gin.Context) {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	type CreateMACRequest struct {
		Name        string `json:"name" binding:"required"`
		Acronym     string `json:"acronym" binding:"required"`
		Description string `json:"description"`
		Email       string `json:"email"`
		Phone       string `json:"phone"`
		Address     string `json:"address"`
	}

	var req CreateMACRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Email != "" && !utils.ValidateEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": []string{"Invalid email address"}})
		return
	}

	var count int64
	config.DB.Model(&models.MAC{}).
		Where("name = ? OR acronym = ?", req.Name, req.Acronym).
		Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "MAC name or acronym already in use"})
		return
	}

	mac := models.MAC{
		Name:        utils.SanitizeInput(req.Name),
		Acronym:     utils.SanitizeInput(req.Acronym),
		Description: req.Description,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		IsActive:    true,
	}

	adminID := admin.UserID
	txErr := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&mac).Error; err != nil {
			return err
		}
		return auditSink.Record(tx, services.AuditEntry{
			ActorID:     &adminID,
			Action:      models.ActionMACCreated,
			Description: fmt.Sprintf("Created MAC: %s (%s)", mac.Name, mac.Acronym),
			IPAddress:   c.ClientIP(),
		})
	})
	if txErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create MAC"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "MAC created successfully",
		"mac":     mac,
	})
}

// UpdateMAC modifies an agency.
func UpdateMAC(c *gin.Context) {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid MAC id"})
		return
	}

	var mac models.MAC
	if err := config.DB.Where("mac_id = ?", id).First(&mac).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	type UpdateMACRequest struct {
		Name        *string `json:"name"`
		Acronym     *string `json:"acronym"`
		Description *string `json:"description"`
		Email       *string `json:"email"`
		Phone       *string `json:"phone"`
		Address     *string `json:"address"`
		IsActive    *bool   `json:"is_active"`
	}

	var req UpdateMACRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		var count int64
		config.DB.Model(&models.MAC{}).
			Where("name = ? AND mac_id <> ?", *req.Name, mac.MACID).
			Count(&count)
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "MAC name already in use"})
			return
		}
		updates["name"] = utils.SanitizeInput(*req.Name)
	}
	if req.Acronym != nil {
		var count int64
		config.DB.Model(&models.MAC{}).
			Where("acronym = ? AND mac_id <> ?", *req.Acronym, mac.MACID).
			Count(&count)
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "MAC acronym already in use"})
			return
		}
		updates["acronym"] = utils.SanitizeInput(*req.Acronym)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Email != nil {
		if *req.Email != "" && !utils.ValidateEmail(*req.Email) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": []string{"Invalid email address"}})
			return
		}
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	adminID := admin.UserID
	txErr := config.DB.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&mac).Updates(updates).Error; err != nil {
				return err
			}
		}
		return auditSink.Record(tx, services.AuditEntry{
			ActorID:     &adminID,
			Action:      models.ActionMACUpdated,
			Description: fmt.Sprintf("Updated MAC: %s", mac.Name),
			IPAddress:   c.ClientIP(),
		})
	})
	if txErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update MAC"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "MAC updated successfully",
		"mac":     mac,
	})
}

// DeleteMAC deactivates an agency. Agencies with users or submissions
// are never hard-deleted.
func DeleteMAC(c *gin.Context) {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid MAC id"})
		return
	}

	var mac models.MAC
	if err := config.DB.Where("mac_id = ?", id).First(&mac).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	adminID := admin.UserID
	txErr := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&mac).Update("is_active", false).Error; err != nil {
			return err
		}
		return auditSink.Record(tx, services.AuditEntry{
			ActorID:     &adminID,
			Action:      models.ActionMACDeleted,
			Description: fmt.Sprintf("Deactivated MAC: %s", mac.Name),
			IPAddress:   c.ClientIP(),
		})
	})
	if txErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate MAC"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "MAC deactivated successfully",
	})
}

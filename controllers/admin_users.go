// controllers/admin_users.go
package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"pandora-box-api/config"
	"pandora-box-api/middleware"
	"pandora-box-api/models"
	"pandora-box-api/services"
	"pandora-box-api/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ===================== USER ADMINISTRATION =====================

// GetUsers lists user accounts for administrators.
func GetUsers(c *gin.Context) {
	query := config.DB.Model(&models.User{}).Preload("MAC")

	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if macFilter := c.Query("mac"); macFilter != "" {
		query = query.Where("mac_id = ?", macFilter)
	}
	if c.Query("active_only") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var users []models.User
	if err := query.Where("deleted_at IS NULL").Order("created_at DESC").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"users":   users,
		"total":   len(users),
	})
}

// CreateUser provisions a new account.
func CreateUser(c *gin.Context) {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	type CreateUserRequest struct {
		Username  string `json:"username" binding:"required"`
		Password  string `json:"password" binding:"required"`
		FirstName string `json:"first_name" binding:"required"`
		LastName  string `json:"last_name" binding:"required"`
		Email     string `json:"email" binding:"required"`
		Phone     string `json:"phone"`
		Role      string `json:"role" binding:"required"`
		MACID     *uint  `json:"mac_id"`
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var fields []string
	if !models.ValidRole(req.Role) {
		fields = append(fields, "Invalid role")
	}
	if req.Role == models.RoleMACOfficer && req.MACID == nil {
		fields = append(fields, "MAC officers must belong to an agency")
	}
	if !utils.ValidateEmail(req.Email) {
		fields = append(fields, "Invalid email address")
	}
	if len(req.Password) < 8 {
		fields = append(fields, "Password must be at least 8 characters")
	}
	if len(fields) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": fields})
		return
	}

	var count int64
	config.DB.Model(&models.User{}).
		Where("username = ? OR email = ?", req.Username, req.Email).
		Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Username or email already in use"})
		return
	}

	if req.MACID != nil {
		var mac models.MAC
		if err := config.DB.Where("mac_id = ?", *req.MACID).First(&mac).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": []string{"Unknown MAC"}})
			return
		}
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	user := models.User{
		Username:  utils.SanitizeInput(req.Username),
		Password:  hashed,
		FirstName: utils.SanitizeInput(req.FirstName),
		LastName:  utils.SanitizeInput(req.LastName),
		Email:     req.Email,
		Phone:     req.Phone,
		Role:      req.Role,
		MACID:     req.MACID,
		IsActive:  true,
	}

	adminID := admin.UserID
	txErr := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return auditSink.Record(tx, services.AuditEntry{
			ActorID:     &adminID,
			Action:      models.ActionUserCreated,
			Description: fmt.Sprintf("Created user: %s (%s)", user.Username, user.Role),
			IPAddress:   c.ClientIP(),
		})
	})
	if txErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User created successfully",
		"user":    user,
	})
}

// UpdateUser modifies an existing account.
func UpdateUser(c *gin.Context) {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	var user models.User
	if err := config.DB.Where("user_id = ? AND deleted_at IS NULL", id).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	type UpdateUserRequest struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Email     *string `json:"email"`
		Phone     *string `json:"phone"`
		Role      *string `json:"role"`
		MACID     *uint   `json:"mac_id"`
		IsActive  *bool   `json:"is_active"`
		Password  *string `json:"password"`
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = utils.SanitizeInput(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = utils.SanitizeInput(*req.LastName)
	}
	if req.Email != nil {
		if !utils.ValidateEmail(*req.Email) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": []string{"Invalid email address"}})
			return
		}
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Role != nil {
		if !models.ValidRole(*req.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": []string{"Invalid role"}})
			return
		}
		updates["role"] = *req.Role
	}
	if req.MACID != nil {
		var mac models.MAC
		if err := config.DB.Where("mac_id = ?", *req.MACID).First(&mac).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": []string{"Unknown MAC"}})
			return
		}
		updates["mac_id"] = *req.MACID
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": []string{"Password must be at least 8 characters"}})
			return
		}
		hashed, err := utils.HashPassword(*req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
			return
		}
		updates["password"] = hashed
	}

	role := user.Role
	if req.Role != nil {
		role = *req.Role
	}
	macID := user.MACID
	if req.MACID != nil {
		macID = req.MACID
	}
	if role == models.RoleMACOfficer && macID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": []string{"MAC officers must belong to an agency"}})
		return
	}

	adminID := admin.UserID
	txErr := config.DB.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&user).Updates(updates).Error; err != nil {
				return err
			}
		}
		return auditSink.Record(tx, services.AuditEntry{
			ActorID:     &adminID,
			Action:      models.ActionUserUpdated,
			Description: fmt.Sprintf("Updated user: %s", user.Username),
			IPAddress:   c.ClientIP(),
		})
	})
	if txErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User updated successfully",
		"user":    user,
	})
}

// DeleteUser soft-deletes an account. Admins cannot delete themselves.
func DeleteUser(c *gin.Context) {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}
	if uint(id) == admin.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete your own account"})
		return
	}

	var user models.User
	if err := config.DB.Where("user_id = ? AND deleted_at IS NULL", id).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	adminID := admin.UserID
	txErr := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).
			Updates(map[string]interface{}{"deleted_at": time.Now(), "is_active": false}).Error; err != nil {
			return err
		}
		return auditSink.Record(tx, services.AuditEntry{
			ActorID:     &adminID,
			Action:      models.ActionUserDeleted,
			Description: fmt.Sprintf("Deleted user: %s", user.Username),
			IPAddress:   c.ClientIP(),
		})
	})
	if txErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User deleted successfully",
	})
}

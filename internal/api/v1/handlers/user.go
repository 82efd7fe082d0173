package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"tugas-go/internal/config"
	"tugas-go/internal/models"
	"tugas-go/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// User handlers
// Endpoint user hanya bisa mengakses akun milik caller sendiri.

// GetUser mengambil data akun caller.
func GetUser(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	targetID, err := c.ParamsInt("id")
	if err != nil {
		logger.ErrorLogger.Error("Invalid user ID", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid user ID",
			"success": false,
			"status":  400,
		})
	}

	if userID != targetID {
		logger.SecurityLogger.Warn("Forbidden",
			zap.Int("user_id", userID), zap.Int("target_id", targetID))
		return c.Status(403).JSON(fiber.Map{
			"message": "Forbidden",
			"success": false,
			"status":  403,
		})
	}

	// Coba ambil data dari cache Redis
	cacheKey := fmt.Sprintf("user:%d", targetID)
	if cached, err := config.RedisClient.Get(config.Ctx, cacheKey).Result(); err == nil {
		var user models.User
		if err = json.Unmarshal([]byte(cached), &user); err == nil {
			return c.JSON(fiber.Map{
				"message": "User found (from cache)",
				"success": true,
				"status":  200,
				"data":    user,
			})
		}
	}

	var user models.User
	err = config.DB.QueryRow(
		"SELECT id, username, email, created_at, updated_at FROM users WHERE id = $1",
		targetID).Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		logger.SecurityLogger.Warn("User not found", zap.Error(err))
		return c.Status(404).JSON(fiber.Map{
			"message": "User not found",
			"success": false,
			"status":  404,
		})
	}

	// Simpan data user ke cache Redis selama 1 jam
	userJSON, err := json.Marshal(user)
	if err == nil {
		config.RedisClient.SetEX(config.Ctx, cacheKey, userJSON, time.Hour)
	}

	logger.AuditLogger.Info("User found", zap.Int("user_id", targetID))
	return c.JSON(fiber.Map{
		"message": "User found",
		"success": true,
		"status":  200,
		"data":    user,
	})
}

// UpdateUser memperbarui akun caller. Field yang tidak dikirim dibiarkan.
func UpdateUser(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	targetID, err := c.ParamsInt("id")
	if err != nil {
		logger.ErrorLogger.Error("Invalid user ID", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid user ID",
			"success": false,
			"status":  400,
		})
	}

	if userID != targetID {
		logger.SecurityLogger.Warn("You don't have permission to update this user",
			zap.Int("user_id", userID), zap.Int("target_id", targetID))
		return c.Status(403).JSON(fiber.Map{
			"message": "You don't have permission to update this user",
			"success": false,
			"status":  403,
		})
	}

	// pointer (*) untuk menandakan bahwa field bisa kosong
	type UpdateUserRequest struct {
		Username *string `json:"username" validate:"omitempty,alphanum,min=5"`
		Email    *string `json:"email" validate:"omitempty,email"`
		Password *string `json:"password" validate:"omitempty,min=8,max=12"`
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	if err := config.Validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during user update", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	// Hash password hanya kalau memang dikirim.
	var hashedPassword *string
	if req.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.ErrorLogger.Error("Error hashing password", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error hashing password",
				"success": false,
				"status":  500,
			})
		}
		s := string(hashed)
		hashedPassword = &s
	}

	// Update hanya field yang dikirim (gunakan COALESCE di SQL)
	_, err = config.DB.Exec(`
        UPDATE users
        SET username = COALESCE($1, username),
			email = COALESCE($2, email),
			password = COALESCE($3, password),
			updated_at = CURRENT_TIMESTAMP
        WHERE id = $4`,
		req.Username, req.Email, hashedPassword, targetID,
	)
	if err != nil {
		logger.ErrorLogger.Error("Error updating user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error updating user",
			"success": false,
			"status":  500,
		})
	}

	var updatedUser models.User
	err = config.DB.QueryRow(
		"SELECT id, username, email, created_at, updated_at FROM users WHERE id = $1",
		targetID).Scan(&updatedUser.ID, &updatedUser.Username, &updatedUser.Email,
		&updatedUser.CreatedAt, &updatedUser.UpdatedAt)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching updated user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching updated user",
			"success": false,
			"status":  500,
		})
	}

	// Perbarui cache Redis untuk user ini
	cacheKey := fmt.Sprintf("user:%d", targetID)
	config.RedisClient.Del(config.Ctx, cacheKey)
	userJSON, err := json.Marshal(updatedUser)
	if err == nil {
		config.RedisClient.SetEX(config.Ctx, cacheKey, userJSON, time.Hour)
	}

	logger.AuditLogger.Info("User updated", zap.Int("user_id", targetID))
	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"success": true,
		"status":  200,
		"data":    updatedUser,
	})
}

// DeleteUser menghapus akun caller beserta semua task-nya (ON DELETE CASCADE).
func DeleteUser(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	targetID, err := c.ParamsInt("id")
	if err != nil {
		logger.ErrorLogger.Error("Invalid user ID", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid user ID",
			"success": false,
			"status":  400,
		})
	}

	if userID != targetID {
		logger.SecurityLogger.Warn("You don't have permission to delete this user",
			zap.Int("user_id", userID), zap.Int("target_id", targetID))
		return c.Status(403).JSON(fiber.Map{
			"message": "Forbidden",
			"success": false,
			"status":  403,
		})
	}

	res, err := config.DB.Exec("DELETE FROM users WHERE id = $1", targetID)
	if err != nil {
		logger.ErrorLogger.Error("Error deleting user", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error deleting user",
			"success": false,
			"status":  500,
		})
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return c.Status(404).JSON(fiber.Map{
			"message": "User not found",
			"success": false,
			"status":  404,
		})
	}

	// Hapus cache Redis untuk user ini
	cacheKey := fmt.Sprintf("user:%d", targetID)
	config.RedisClient.Del(config.Ctx, cacheKey)

	logger.AuditLogger.Info("User deleted", zap.Int("user_id", targetID))
	return c.JSON(fiber.Map{
		"message": "User deleted successfully",
		"success": true,
		"status":  200,
	})
}

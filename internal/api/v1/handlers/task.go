package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tugas-go/internal/config"
	"tugas-go/internal/models"
	"tugas-go/internal/repository"
	"tugas-go/internal/taskorder"
	"tugas-go/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Task handlers

// filterLimit adalah limit default untuk endpoint filter.
const filterLimit = 10

// publishTaskEvent mengirim event mutasi task ke hub websocket, kalau ada.
func publishTaskEvent(action string, t models.Task) {
	if config.TaskEvents != nil {
		config.TaskEvents.Publish(action, t)
	}
}

// cacheTask menyimpan task di Redis selama 1 jam; best-effort.
func cacheTask(t models.Task) {
	cacheKey := fmt.Sprintf("task:%s", t.ID)
	taskJSON, err := json.Marshal(t)
	if err == nil {
		config.RedisClient.SetEX(config.Ctx, cacheKey, taskJSON, time.Hour)
	}
}

// CreateTask membuat task baru milik caller dengan status awal Pending.
func CreateTask(c *fiber.Ctx) error {
	// ambil user ID dari locals
	userID := c.Locals("userID").(int)

	type TaskRequest struct {
		Name        string    `json:"name" validate:"required"`
		Description string    `json:"description" validate:"required"`
		Deadline    time.Time `json:"deadline" validate:"required"`
	}

	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	if err := config.Validate.Struct(req); err != nil {
		logger.ErrorLogger.Error("Validation error in create task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	// Deadline di masa lalu ditolak; deadline yang persis sama dengan
	// "now" masih diterima.
	if models.DeadlineInPast(req.Deadline, time.Now()) {
		logger.AuditLogger.Warn("Past deadline in create task",
			zap.Time("deadline", req.Deadline))
		return c.Status(400).JSON(fiber.Map{
			"message": "Past dates can't be deadlines.",
			"success": false,
			"status":  400,
		})
	}

	task := models.Task{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Status:      models.StatusPending,
		Deadline:    req.Deadline,
	}
	if err := config.Tasks.Create(c.UserContext(), &task); err != nil {
		logger.ErrorLogger.Error("Error creating task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error creating task",
			"success": false,
			"status":  500,
		})
	}

	publishTaskEvent("created", task)

	logger.AuditLogger.Info("Task created successfully", zap.String("task_id", task.ID))
	return c.Status(201).JSON(fiber.Map{
		"message": "Task created successfully",
		"success": true,
		"status":  201,
		"data":    task,
	})
}

// ListTasks mengembalikan list task caller yang sudah diurutkan dan
// dipaginasi: task Default selalu di slot pertama halaman 1, sisanya urut
// status (Completed, Missed, Pending), lalu deadline, lalu waktu dibuat.
func ListTasks(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", taskorder.DefaultLimit)

	tasks, err := config.Tasks.ListByOwner(c.UserContext(), userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching tasks",
			"success": false,
			"status":  500,
		})
	}

	view, err := taskorder.SortedPage(tasks, page, limit)
	if err != nil {
		// User tanpa task sama sekali: kondisi beda dengan halaman kosong.
		if errors.Is(err, taskorder.ErrNoTasks) {
			return c.Status(404).JSON(fiber.Map{
				"message": "Oops! No tasks available for this user.",
				"success": false,
				"status":  404,
			})
		}
		logger.ErrorLogger.Error("Error sorting tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error sorting tasks",
			"success": false,
			"status":  500,
		})
	}

	logger.AuditLogger.Info("Tasks fetched successfully", zap.Int("user_id", userID))
	return c.JSON(fiber.Map{
		"message": "Tasks fetched successfully",
		"success": true,
		"status":  200,
		"data":    view,
	})
}

// TasksAnalytics mengembalikan semua task caller tanpa sorting dan
// tanpa pagination, untuk kebutuhan analitik di sisi klien.
func TasksAnalytics(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)

	tasks, err := config.Tasks.ListByOwner(c.UserContext(), userID)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching tasks",
			"success": false,
			"status":  500,
		})
	}
	if len(tasks) == 0 {
		return c.Status(404).JSON(fiber.Map{
			"message": "Oops! No tasks available for this user.",
			"success": false,
			"status":  404,
		})
	}

	return c.JSON(fiber.Map{
		"message": "Tasks fetched successfully",
		"success": true,
		"status":  200,
		"data":    tasks,
	})
}

// GetTask mengambil satu task milik caller berdasarkan id.
func GetTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	taskID := c.Params("id")

	// Coba ambil data task dari cache Redis
	cacheKey := fmt.Sprintf("task:%s", taskID)
	if cached, err := config.RedisClient.Get(config.Ctx, cacheKey).Result(); err == nil {
		var task models.Task
		if err = json.Unmarshal([]byte(cached), &task); err == nil {
			// Scoping per user: task orang lain diperlakukan tidak ada.
			if task.UserID != userID {
				return c.Status(404).JSON(fiber.Map{
					"message": "Task not found for this user",
					"success": false,
					"status":  404,
				})
			}
			logger.AuditLogger.Info("Task found (from cache)", zap.String("task_id", taskID))
			return c.JSON(fiber.Map{
				"message": "Task found (from cache)",
				"success": true,
				"status":  200,
				"data":    task,
			})
		}
	}

	task, err := config.Tasks.Get(c.UserContext(), userID, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return c.Status(404).JSON(fiber.Map{
				"message": "Task not found for this user",
				"success": false,
				"status":  404,
			})
		}
		logger.ErrorLogger.Error("Error fetching task", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching task",
			"success": false,
			"status":  500,
		})
	}

	cacheTask(*task)

	logger.AuditLogger.Info("Task found", zap.String("task_id", taskID))
	return c.JSON(fiber.Map{
		"message": "Task found",
		"success": true,
		"status":  200,
		"data":    task,
	})
}

// UpdateTask menerapkan partial update: field yang tidak dikirim dibiarkan
// tidak berubah. Task Default tidak bisa diubah sama sekali.
func UpdateTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	taskID := c.Params("id")

	// pointer (*) untuk menandakan bahwa field bisa kosong; field yang
	// dikirim tapi kosong ("") ditolak, bukan dipersist.
	type UpdateTaskRequest struct {
		Name        *string            `json:"name" validate:"omitempty,min=1"`
		Description *string            `json:"description" validate:"omitempty,min=1"`
		Deadline    *time.Time         `json:"deadline"`
		Status      *models.TaskStatus `json:"status"`
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in update task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Bad request",
			"success": false,
			"status":  400,
		})
	}

	if err := config.Validate.Struct(req); err != nil {
		logger.ErrorLogger.Error("Validation error in update task", zap.Error(err))
		return c.Status(400).JSON(fiber.Map{
			"message": "Validation error",
			"errors":  err.Error(),
			"success": false,
			"status":  400,
		})
	}

	if req.Status != nil && !models.ValidStatus(*req.Status) {
		logger.ErrorLogger.Error("Invalid status in update task",
			zap.String("status", string(*req.Status)))
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid status",
			"success": false,
			"status":  400,
		})
	}

	task, err := config.Tasks.Update(c.UserContext(), userID, taskID, repository.TaskUpdate{
		Name:        req.Name,
		Description: req.Description,
		Deadline:    req.Deadline,
		Status:      req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTaskNotFound):
			return c.Status(404).JSON(fiber.Map{
				"message": "Task not found for this user",
				"success": false,
				"status":  404,
			})
		case errors.Is(err, repository.ErrImmutableTask):
			logger.SecurityLogger.Warn("Attempt to update default task",
				zap.Int("user_id", userID), zap.String("task_id", taskID))
			return c.Status(403).JSON(fiber.Map{
				"message": "Default Task can't be Updated.",
				"success": false,
				"status":  403,
			})
		case errors.Is(err, models.ErrInvalidTransition):
			return c.Status(400).JSON(fiber.Map{
				"message": "Status transition not allowed",
				"success": false,
				"status":  400,
			})
		case errors.Is(err, repository.ErrConflict):
			return c.Status(409).JSON(fiber.Map{
				"message": "Task was modified concurrently, please retry",
				"success": false,
				"status":  409,
			})
		default:
			logger.ErrorLogger.Error("Error updating task", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error updating task",
				"success": false,
				"status":  500,
			})
		}
	}

	// Perbarui cache Redis untuk task ini
	cacheKey := fmt.Sprintf("task:%s", taskID)
	config.RedisClient.Del(config.Ctx, cacheKey)
	cacheTask(*task)

	publishTaskEvent("updated", *task)

	logger.AuditLogger.Info("Task updated", zap.String("task_id", taskID))
	return c.JSON(fiber.Map{
		"message": "Task updated successfully",
		"success": true,
		"status":  200,
		"data":    task,
	})
}

// DeleteTask menghapus task milik caller. Task Default tidak bisa dihapus.
func DeleteTask(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	taskID := c.Params("id")

	task, err := config.Tasks.Delete(c.UserContext(), userID, taskID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTaskNotFound):
			return c.Status(404).JSON(fiber.Map{
				"message": "Task not found for this user",
				"success": false,
				"status":  404,
			})
		case errors.Is(err, repository.ErrImmutableTask):
			logger.SecurityLogger.Warn("Attempt to delete default task",
				zap.Int("user_id", userID), zap.String("task_id", taskID))
			return c.Status(403).JSON(fiber.Map{
				"message": "Default Task can't be Deleted.",
				"success": false,
				"status":  403,
			})
		default:
			logger.ErrorLogger.Error("Error deleting task", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{
				"message": "Error deleting task",
				"success": false,
				"status":  500,
			})
		}
	}

	// Hapus cache Redis untuk task ini
	cacheKey := fmt.Sprintf("task:%s", taskID)
	config.RedisClient.Del(config.Ctx, cacheKey)

	publishTaskEvent("deleted", *task)

	logger.AuditLogger.Info("Task deleted", zap.String("task_id", taskID))
	return c.JSON(fiber.Map{
		"message": "Task deleted successfully",
		"success": true,
		"status":  200,
		"data":    task,
	})
}

// --- Filter endpoints ---
// Semua filter memakai pagination offset/limit di atas urutan natural
// store, tanpa composite sort dan tanpa pinning task Default.

func filterPagination(c *fiber.Ctx) (limit, offset int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", filterLimit)
	if limit < 1 {
		limit = filterLimit
	}
	return limit, (page - 1) * limit
}

func respondFilteredTasks(c *fiber.Ctx, tasks []models.Task, err error) error {
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{
			"message": "Error fetching tasks",
			"success": false,
			"status":  500,
		})
	}
	return c.JSON(fiber.Map{
		"message": "Tasks fetched successfully",
		"success": true,
		"status":  200,
		"data":    tasks,
	})
}

// TasksByStatus memfilter task dengan status yang persis sama.
func TasksByStatus(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	status := models.TaskStatus(c.Query("status"))
	if !models.ValidStatus(status) {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid status",
			"success": false,
			"status":  400,
		})
	}
	limit, offset := filterPagination(c)
	tasks, err := config.Tasks.ListByStatus(c.UserContext(), userID, status, limit, offset)
	return respondFilteredTasks(c, tasks, err)
}

// TasksByCreationDate memfilter task yang dibuat pada hari kalender yang
// diberikan (format date: 2006-01-02).
func TasksByCreationDate(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	day, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid date, expected YYYY-MM-DD",
			"success": false,
			"status":  400,
		})
	}
	limit, offset := filterPagination(c)
	tasks, err := config.Tasks.ListCreatedOn(c.UserContext(), userID, day, limit, offset)
	return respondFilteredTasks(c, tasks, err)
}

// TasksByDeadlineDate memfilter task dengan deadline pada atau sebelum
// tanggal yang diberikan.
func TasksByDeadlineDate(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	deadline, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "Invalid date, expected YYYY-MM-DD",
			"success": false,
			"status":  400,
		})
	}
	limit, offset := filterPagination(c)
	tasks, err := config.Tasks.ListByDeadlineBefore(c.UserContext(), userID, deadline, limit, offset)
	return respondFilteredTasks(c, tasks, err)
}

// TasksByTitle mencari task yang namanya mengandung substring title
// (case-insensitive).
func TasksByTitle(c *fiber.Ctx) error {
	userID := c.Locals("userID").(int)
	title := c.Query("title")
	if title == "" {
		return c.Status(400).JSON(fiber.Map{
			"message": "Title is required",
			"success": false,
			"status":  400,
		})
	}
	limit, offset := filterPagination(c)
	tasks, err := config.Tasks.SearchByName(c.UserContext(), userID, title, limit, offset)
	return respondFilteredTasks(c, tasks, err)
}

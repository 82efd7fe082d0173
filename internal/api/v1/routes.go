package v1

import (
	"tugas-go/internal/api/v1/handlers"
	"tugas-go/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// Auth
	api.Post("/register", handlers.Register)
	api.Post("/login", handlers.Login)
	api.Get("/verify-token", handlers.VerifyToken)

	// User (hanya akun milik sendiri)
	userRoutes := api.Group("/users", middleware.UseToken)
	userRoutes.Get("/:id", handlers.GetUser)
	userRoutes.Put("/:id", handlers.UpdateUser)
	userRoutes.Delete("/:id", handlers.DeleteUser)

	// Task
	taskRoutes := api.Group("/tasks", middleware.UseToken)
	taskRoutes.Post("/", handlers.CreateTask)
	taskRoutes.Get("/", handlers.ListTasks)
	taskRoutes.Get("/analytics", handlers.TasksAnalytics)
	taskRoutes.Get("/by-status", handlers.TasksByStatus)
	taskRoutes.Get("/by-create-date", handlers.TasksByCreationDate)
	taskRoutes.Get("/by-deadline-date", handlers.TasksByDeadlineDate)
	taskRoutes.Get("/by-title", handlers.TasksByTitle)
	taskRoutes.Get("/:id", handlers.GetTask)
	taskRoutes.Put("/:id", handlers.UpdateTask)
	taskRoutes.Patch("/:id", handlers.UpdateTask)
	taskRoutes.Delete("/:id", handlers.DeleteTask)
}

package main

import (
	"fmt"
	"time"

	"tugas-go/configs"
	v1 "tugas-go/internal/api/v1"
	"tugas-go/internal/config"
	"tugas-go/internal/middleware"
	"tugas-go/internal/repository"
	"tugas-go/internal/sweeper"
	myws "tugas-go/internal/websocket"
	"tugas-go/pkg/database"
	"tugas-go/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

func main() {
	// Inisialisasi logger
	logger.InitLoggers("logs")
	defer logger.SyncLoggers()
	logger.SystemLogger.Info("Starting application", zap.String("time", time.Now().Format(time.RFC3339)))

	// Load config
	cfg := configs.LoadConfig()
	config.SecretKey = []byte(cfg.JWTSecret)

	// Inisialisasi database
	config.DB = database.ConnectDB(cfg)
	defer config.DB.Close()
	logger.SystemLogger.Info("Database Connected")

	// Buat tabel jika belum ada
	repository.CreateTableIfNotExists(config.DB)
	config.Tasks = repository.NewTaskStore(config.DB)

	// Inisialisasi Redis
	config.RedisClient = database.ConnectRedis(config.Ctx, cfg)
	defer config.RedisClient.Close()

	// Hub websocket untuk feed event task
	hub := myws.NewHub()
	go hub.Run()
	config.TaskEvents = hub

	// Sweeper harian: task Pending yang lewat deadline menjadi Missed.
	// Scheduler ini dimiliki main secara eksplisit, start dan stop-nya
	// jelas, bukan side effect global.
	loc, err := time.LoadLocation(cfg.SweepTimezone)
	if err != nil {
		logger.SystemLogger.Warn("Invalid sweep timezone, falling back to local",
			zap.String("timezone", cfg.SweepTimezone), zap.Error(err))
		loc = time.Local
	}
	sw := sweeper.New(config.Tasks, loc, logger.SweepLogger, hub)
	sw.Start()
	defer sw.Stop()

	app := fiber.New()

	// Middleware
	app.Use(middleware.ErrorHandler())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	// Daftarkan route API v1
	v1.RegisterRoutes(app)

	// WebSocket: klien menerima event created/updated/deleted/missed
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		client := &myws.Client{Conn: c}
		hub.Register <- client
		defer func() {
			hub.Unregister <- client
		}()
		// Feed ini satu arah; baca hanya untuk mendeteksi koneksi putus.
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	addr := fmt.Sprintf(":%d", cfg.AppPort)
	logger.SystemLogger.Info("Application ready", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		logger.ErrorLogger.Error("Application failed to start", zap.Error(err))
	}
}

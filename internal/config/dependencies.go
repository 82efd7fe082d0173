package config

import (
	"context"
	"database/sql"

	"tugas-go/internal/repository"
	ws "tugas-go/internal/websocket"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
)

var (
	// Global dependency yang akan digunakan di seluruh aplikasi,
	// diisi oleh main saat startup.
	DB          *sql.DB
	SecretKey   []byte
	Validate    = validator.New()
	Ctx         = context.Background()
	RedisClient *redis.Client
	Tasks       *repository.TaskStore
	TaskEvents  *ws.Hub
)

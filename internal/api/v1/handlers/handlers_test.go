package handlers_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"tugas-go/internal/api/v1/handlers"
	"tugas-go/internal/config"
	"tugas-go/internal/models"
	"tugas-go/internal/repository"
	"tugas-go/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ory/dockertest/v3"
	_ "github.com/lib/pq"
)

// TestMain menyalakan Postgres sekali pakai lewat dockertest dan mengisi
// dependency global yang dipakai handler, jadi test bisa lewat jalur
// app.Test dari request sampai database.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "tugas-logs")
	if err != nil {
		log.Fatalf("cannot create temp log dir: %v", err)
	}
	logger.InitLoggers(dir)

	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct docker pool: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to docker: %v", err)
	}

	resource, err := pool.Run("postgres", "15-alpine", []string{
		"POSTGRES_USER=postgres",
		"POSTGRES_PASSWORD=secret",
		"POSTGRES_DB=tugas_test",
	})
	if err != nil {
		log.Fatalf("Could not start postgres container: %v", err)
	}
	_ = resource.Expire(180)

	databaseURL := fmt.Sprintf("postgres://postgres:secret@%s/tugas_test?sslmode=disable",
		resource.GetHostPort("5432/tcp"))

	pool.MaxWait = 120 * time.Second
	var db *sql.DB
	if err := pool.Retry(func() error {
		var err error
		db, err = sql.Open("postgres", databaseURL)
		if err != nil {
			return err
		}
		return db.Ping()
	}); err != nil {
		log.Fatalf("Could not connect to postgres container: %v", err)
	}

	repository.CreateTableIfNotExists(db)
	config.DB = db
	config.Tasks = repository.NewTaskStore(db)

	code := m.Run()

	logger.SyncLoggers()
	os.RemoveAll(dir)
	if err := pool.Purge(resource); err != nil {
		log.Fatalf("Could not purge resource: %v", err)
	}
	os.Exit(code)
}

var userSeq int

func newTestUser(t *testing.T) int {
	t.Helper()
	userSeq++
	username := fmt.Sprintf("handler%d%d", userSeq, time.Now().UnixNano())
	userID, err := repository.CreateUserWithDefaultTask(
		context.Background(), config.DB, username, username+"@example.com", "notahash")
	require.NoError(t, err)
	return userID
}

// newTestApp mendaftarkan handler dengan identitas caller yang sudah
// di-set, tanpa lewat middleware token.
func newTestApp(userID int) *fiber.App {
	app := fiber.New()
	asUser := func(h fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			c.Locals("userID", userID)
			c.Locals("username", "tester")
			return h(c)
		}
	}
	app.Post("/register", handlers.Register)
	app.Post("/tasks", asUser(handlers.CreateTask))
	app.Get("/tasks", asUser(handlers.ListTasks))
	app.Put("/tasks/:id", asUser(handlers.UpdateTask))
	app.Get("/tasks/by-status", asUser(handlers.TasksByStatus))
	app.Get("/tasks/by-create-date", asUser(handlers.TasksByCreationDate))
	app.Get("/tasks/by-title", asUser(handlers.TasksByTitle))
	return app
}

func postJSON(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestCreateThenListShowsDefaultFirst(t *testing.T) {
	userID := newTestUser(t)
	app := newTestApp(userID)

	resp := postJSON(t, app, "POST", "/tasks", map[string]any{
		"name":        "Laundry",
		"description": "Wash everything",
		"deadline":    time.Now().Add(time.Hour).Format(time.RFC3339Nano),
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Data models.Task `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.Data.ID)
	assert.Equal(t, models.StatusPending, created.Data.Status)

	req := httptest.NewRequest("GET", "/tasks", nil)
	listResp, err := app.Test(req)
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var listed struct {
		Data struct {
			Tasks       []models.Task `json:"tasks"`
			CurrentPage int           `json:"currentPage"`
			TotalPages  int           `json:"totalPages"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&listed))

	require.Len(t, listed.Data.Tasks, 2)
	assert.Equal(t, models.StatusDefault, listed.Data.Tasks[0].Status)
	assert.Equal(t, repository.DefaultTaskName, listed.Data.Tasks[0].Name)
	assert.Equal(t, created.Data.ID, listed.Data.Tasks[1].ID)
	assert.Equal(t, 1, listed.Data.CurrentPage)
	assert.Equal(t, 1, listed.Data.TotalPages)
}

func TestCreateTaskRejectsPastDeadline(t *testing.T) {
	app := newTestApp(newTestUser(t))

	resp := postJSON(t, app, "POST", "/tasks", map[string]any{
		"name":        "Laundry",
		"description": "Wash everything",
		"deadline":    time.Now().Add(-time.Second).Format(time.RFC3339Nano),
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "Past dates can't be deadlines.", result["message"])
}

func TestCreateTaskRequiresAllFields(t *testing.T) {
	app := newTestApp(newTestUser(t))

	resp := postJSON(t, app, "POST", "/tasks", map[string]any{
		"description": "no name here",
		"deadline":    time.Now().Add(time.Hour).Format(time.RFC3339Nano),
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateTaskRejectsEmptyText(t *testing.T) {
	userID := newTestUser(t)
	app := newTestApp(userID)

	resp := postJSON(t, app, "POST", "/tasks", map[string]any{
		"name":        "Groceries",
		"description": "Milk and bread",
		"deadline":    time.Now().Add(time.Hour).Format(time.RFC3339Nano),
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Data models.Task `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	// Field yang dikirim tapi kosong ditolak, bukan dipersist.
	for _, body := range []map[string]any{
		{"name": ""},
		{"description": ""},
	} {
		updResp := postJSON(t, app, "PUT", "/tasks/"+created.Data.ID, body)
		assert.Equal(t, http.StatusBadRequest, updResp.StatusCode)
		updResp.Body.Close()
	}

	// Task tidak berubah setelah kedua percobaan.
	got, err := config.Tasks.Get(context.Background(), userID, created.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Name)
	assert.Equal(t, "Milk and bread", got.Description)
}

func TestUpdateTaskRejectsUnknownStatus(t *testing.T) {
	app := newTestApp(newTestUser(t))

	resp := postJSON(t, app, "PUT", "/tasks/some-id", map[string]any{
		"status": "in_progress",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTasksByStatusRejectsUnknownStatus(t *testing.T) {
	app := newTestApp(newTestUser(t))

	req := httptest.NewRequest("GET", "/tasks/by-status?status=whatever", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTasksByCreationDateRejectsBadDate(t *testing.T) {
	app := newTestApp(newTestUser(t))

	req := httptest.NewRequest("GET", "/tasks/by-create-date?date=03-01-2026", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTasksByTitleRequiresTitle(t *testing.T) {
	app := newTestApp(newTestUser(t))

	req := httptest.NewRequest("GET", "/tasks/by-title", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(1)

	cases := []struct {
		name string
		body map[string]string
	}{
		{"short username", map[string]string{
			"username": "abc", "email": "a@b.com", "password": "password1"}},
		{"non-alphanumeric username", map[string]string{
			"username": "user@name", "email": "a@b.com", "password": "password1"}},
		{"bad email", map[string]string{
			"username": "user123", "email": "not-an-email", "password": "password1"}},
		{"password too short", map[string]string{
			"username": "user123", "email": "a@b.com", "password": "short12"}},
		{"password too long", map[string]string{
			"username": "user123", "email": "a@b.com", "password": "waytoolongpass"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, app, "POST", "/register", tc.body)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

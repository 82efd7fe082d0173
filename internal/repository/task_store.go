package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"tugas-go/internal/models"

	"github.com/google/uuid"
)

const queryTimeout = 5 * time.Second

// TaskStore adalah storage layer untuk task, di atas Postgres.
// Semua operasi tulis diserialkan per task lewat compare-and-swap di
// kolom status, jadi update user dan sweep tidak pernah saling menimpa
// record yang setengah jadi.
type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

// TaskUpdate adalah partial update: field nil dibiarkan tidak berubah.
type TaskUpdate struct {
	Name        *string
	Description *string
	Deadline    *time.Time
	Status      *models.TaskStatus
}

const taskColumns = "id, user_id, name, description, status, deadline, created_at"

func scanTask(row *sql.Row, t *models.Task) error {
	return row.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &t.Status, &t.Deadline, &t.CreatedAt)
}

func scanTasks(rows *sql.Rows) ([]models.Task, error) {
	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &t.Status, &t.Deadline, &t.CreatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Create menyimpan task baru dan mengisi ID serta CreatedAt yang dihasilkan.
func (s *TaskStore) Create(ctx context.Context, t *models.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO tasks (id, user_id, name, description, status, deadline)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		t.ID, t.UserID, t.Name, t.Description, t.Status, t.Deadline)
	return row.Scan(&t.CreatedAt)
}

// Get mengambil satu task milik ownerID.
func (s *TaskStore) Get(ctx context.Context, ownerID int, id string) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var t models.Task
	row := s.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = $1 AND user_id = $2", id, ownerID)
	if err := scanTask(row, &t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Update menerapkan partial update dengan guard:
//   - task ber-status Default tidak pernah bisa diubah (ErrImmutableTask)
//   - perubahan status divalidasi lewat models.CheckTransition
//   - UPDATE membawa predicate `status = <status saat dibaca>`; kalau row
//     sudah berubah di antara read dan write, kembalikan ErrConflict.
func (s *TaskStore) Update(ctx context.Context, ownerID int, id string, upd TaskUpdate) (*models.Task, error) {
	cur, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if cur.Status == models.StatusDefault {
		return nil, ErrImmutableTask
	}
	if upd.Status != nil && *upd.Status != cur.Status {
		if err := models.CheckTransition(cur.Status, *upd.Status); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var t models.Task
	row := s.db.QueryRowContext(ctx,
		`UPDATE tasks
		 SET name = COALESCE($1, name),
			 description = COALESCE($2, description),
			 deadline = COALESCE($3, deadline),
			 status = COALESCE($4, status)
		 WHERE id = $5 AND user_id = $6 AND status = $7
		 RETURNING `+taskColumns,
		upd.Name, upd.Description, upd.Deadline, upd.Status, id, ownerID, cur.Status)
	if err := scanTask(row, &t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Row hilang atau status berubah (misalnya sweep keburu jalan).
			return nil, ErrConflict
		}
		return nil, err
	}
	return &t, nil
}

// Delete menghapus task dan mengembalikan record yang dihapus.
// Task Default tidak pernah bisa dihapus.
func (s *TaskStore) Delete(ctx context.Context, ownerID int, id string) (*models.Task, error) {
	cur, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if cur.Status == models.StatusDefault {
		return nil, ErrImmutableTask
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE id = $1 AND user_id = $2", id, ownerID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrTaskNotFound
	}
	return cur, nil
}

// ListByOwner mengambil semua task milik ownerID, urut sesuai waktu dibuat.
func (s *TaskStore) ListByOwner(ctx context.Context, ownerID int) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE user_id = $1 ORDER BY created_at, id", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

// OverduePending mengambil task Pending yang deadline-nya sudah lewat.
func (s *TaskStore) OverduePending(ctx context.Context, now time.Time) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE status = $1 AND deadline < $2 ORDER BY created_at, id",
		models.StatusPending, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

// MarkMissed mentransisikan satu task Pending menjadi Missed.
// Predicate status = 'Pending' membuat operasi ini idempotent dan kalah
// dari Complete yang lebih dulu ter-commit; return false artinya tidak
// ada row yang berubah.
func (s *TaskStore) MarkMissed(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET status = $1 WHERE id = $2 AND status = $3",
		models.StatusMissed, id, models.StatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// --- Filter queries ---
// Semua filter memakai urutan natural store (created_at, id) dengan
// LIMIT/OFFSET, tanpa composite sort dan tanpa pinning task Default.

func (s *TaskStore) queryTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (s *TaskStore) ListByStatus(ctx context.Context, ownerID int, status models.TaskStatus, limit, offset int) ([]models.Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE user_id = $1 AND status = $2
		 ORDER BY created_at, id LIMIT $3 OFFSET $4`,
		ownerID, status, limit, offset)
}

// ListCreatedOn memfilter task yang dibuat pada hari kalender yang sama
// dengan day: [day, day+24h).
func (s *TaskStore) ListCreatedOn(ctx context.Context, ownerID int, day time.Time, limit, offset int) ([]models.Task, error) {
	next := day.Add(24 * time.Hour)
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		 ORDER BY created_at, id LIMIT $4 OFFSET $5`,
		ownerID, day, next, limit, offset)
}

// ListByDeadlineBefore memfilter task dengan deadline <= t.
func (s *TaskStore) ListByDeadlineBefore(ctx context.Context, ownerID int, t time.Time, limit, offset int) ([]models.Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE user_id = $1 AND deadline <= $2
		 ORDER BY created_at, id LIMIT $3 OFFSET $4`,
		ownerID, t, limit, offset)
}

// likeEscaper membuat %, _ dan \ di input user jadi karakter literal di
// pattern ILIKE, bukan wildcard.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchByName memfilter task yang namanya mengandung title sebagai
// substring literal (case-insensitive).
func (s *TaskStore) SearchByName(ctx context.Context, ownerID int, title string, limit, offset int) ([]models.Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE user_id = $1 AND name ILIKE '%' || $2 || '%'
		 ORDER BY created_at, id LIMIT $3 OFFSET $4`,
		ownerID, likeEscaper.Replace(title), limit, offset)
}

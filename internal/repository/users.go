package repository

import (
	"context"
	"database/sql"
	"time"

	"tugas-go/internal/models"

	"github.com/google/uuid"
)

// DefaultTaskName adalah nama task bootstrap yang dibuat saat registrasi.
const DefaultTaskName = "DFT"

const defaultTaskDescription = "This is the default task, created just after the user is created. " +
	"It defines the general structure of the tasks. You can't delete this task."

// CreateUserWithDefaultTask membuat user baru beserta task Default-nya dalam
// satu transaksi: tidak pernah ada user tanpa task Default, dan tidak pernah
// ada task Default tanpa user. Error unique violation dari pq diteruskan
// apa adanya supaya handler bisa membedakan duplikat username/email.
func CreateUserWithDefaultTask(ctx context.Context, db *sql.DB, username, email, passwordHash string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var userID int
	err = tx.QueryRowContext(ctx,
		"INSERT INTO users (username, email, password) VALUES ($1, $2, $3) RETURNING id",
		username, email, passwordHash).Scan(&userID)
	if err != nil {
		return 0, err
	}

	// Task Default memakai deadline = waktu dibuat; nilainya tidak pernah
	// dipakai karena task ini dikecualikan dari state machine.
	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, name, description, status, deadline, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		uuid.NewString(), userID, DefaultTaskName, defaultTaskDescription, models.StatusDefault, now)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return userID, nil
}

package models

import (
	"errors"
	"time"
)

// TaskStatus adalah status lifecycle dari sebuah task.
type TaskStatus string

const (
	// StatusDefault hanya dipakai oleh satu task bootstrap per user,
	// dibuat saat registrasi dan tidak pernah bisa diubah atau dihapus.
	StatusDefault   TaskStatus = "Default"
	StatusPending   TaskStatus = "Pending"
	StatusCompleted TaskStatus = "Completed"
	StatusMissed    TaskStatus = "Missed"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// ValidStatus mengembalikan true jika s adalah salah satu status yang dikenal.
func ValidStatus(s TaskStatus) bool {
	switch s {
	case StatusDefault, StatusPending, StatusCompleted, StatusMissed:
		return true
	default:
		return false
	}
}

// CheckTransition memvalidasi perubahan status lewat update eksplisit.
// Transisi yang diizinkan hanya dari Pending: Pending -> Pending dan
// Pending -> Completed. Missed hanya boleh di-set oleh sweeper dan Default
// hanya dibuat saat registrasi, jadi keduanya tidak pernah bisa di-set
// lewat API. Completed dan Missed adalah status terminal.
func CheckTransition(from, to TaskStatus) error {
	if from != StatusPending {
		return ErrInvalidTransition
	}
	switch to {
	case StatusPending, StatusCompleted:
		return nil
	default:
		return ErrInvalidTransition
	}
}

// DeadlineInPast melaporkan apakah deadline ditolak saat create.
// Pakai Before (bukan <=): deadline yang sama persis dengan "now" diterima.
func DeadlineInPast(deadline, now time.Time) bool {
	return deadline.Before(now)
}

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Task struct {
	ID          string     `json:"id"`
	UserID      int        `json:"user_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Deadline    time.Time  `json:"deadline"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Package taskorder menghasilkan tampilan list task yang deterministik:
// task Default selalu di posisi pertama, sisanya diurutkan dengan composite
// key (status rank, deadline, created_at), lalu dipaginasi.
package taskorder

import (
	"errors"
	"sort"

	"tugas-go/internal/models"
)

// ErrNoTasks dikembalikan kalau user sama sekali tidak punya task.
// Ini kondisi berbeda dari halaman valid yang kebetulan kosong.
var ErrNoTasks = errors.New("no tasks available for this user")

// DefaultLimit adalah limit per halaman kalau query tidak menyebutkan limit.
const DefaultLimit = 5

// Urutan status untuk primary sort key. Default tidak punya rank karena
// sudah dikeluarkan sebelum sorting.
var statusRank = map[models.TaskStatus]int{
	models.StatusCompleted: 1,
	models.StatusMissed:    2,
	models.StatusPending:   3,
}

type Page struct {
	Tasks       []models.Task `json:"tasks"`
	CurrentPage int           `json:"currentPage"`
	TotalPages  int           `json:"totalPages"`
}

// SortedPage menerapkan kontrak listing:
//  1. keluarkan task Default dari koleksi
//  2. stable sort sisanya: status rank naik, lalu deadline naik, lalu
//     created_at naik; seri setelah ketiganya mempertahankan urutan asal
//  3. sisipkan kembali task Default di posisi 0
//  4. paginasi 1-indexed di atas urutan lengkap, jadi task Default selalu
//     menempati slot pertama halaman 1 dan tidak pernah muncul di halaman
//     berikutnya; totalPages = ceil(total/limit).
func SortedPage(tasks []models.Task, page, limit int) (Page, error) {
	if len(tasks) == 0 {
		return Page{}, ErrNoTasks
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	var defaultTask *models.Task
	others := make([]models.Task, 0, len(tasks))
	for i := range tasks {
		if tasks[i].Status == models.StatusDefault && defaultTask == nil {
			defaultTask = &tasks[i]
			continue
		}
		others = append(others, tasks[i])
	}

	sort.SliceStable(others, func(i, j int) bool {
		a, b := others[i], others[j]
		if statusRank[a.Status] != statusRank[b.Status] {
			return statusRank[a.Status] < statusRank[b.Status]
		}
		if !a.Deadline.Equal(b.Deadline) {
			return a.Deadline.Before(b.Deadline)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return false
	})

	sorted := others
	if defaultTask != nil {
		sorted = append([]models.Task{*defaultTask}, others...)
	}

	total := len(sorted)
	totalPages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return Page{
		Tasks:       sorted[start:end],
		CurrentPage: page,
		TotalPages:  totalPages,
	}, nil
}

package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tugas-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore adalah in-memory Store untuk unit test sweep.
type fakeStore struct {
	mu      sync.Mutex
	tasks   map[string]models.Task
	failIDs map[string]bool

	// blockList menahan OverduePending sampai channel ditutup;
	// dipakai untuk mensimulasikan sweep yang masih berjalan.
	blockList chan struct{}
	listCalls int
}

func newFakeStore(tasks ...models.Task) *fakeStore {
	f := &fakeStore{
		tasks:   make(map[string]models.Task),
		failIDs: make(map[string]bool),
	}
	for _, t := range tasks {
		f.tasks[t.ID] = t
	}
	return f
}

func (f *fakeStore) OverduePending(ctx context.Context, now time.Time) ([]models.Task, error) {
	f.mu.Lock()
	f.listCalls++
	block := f.blockList
	var out []models.Task
	for _, t := range f.tasks {
		if t.Status == models.StatusPending && t.Deadline.Before(now) {
			out = append(out, t)
		}
	}
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return out, nil
}

func (f *fakeStore) MarkMissed(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[id] {
		return false, errors.New("storage failure")
	}
	t, ok := f.tasks[id]
	if !ok || t.Status != models.StatusPending {
		return false, nil
	}
	t.Status = models.StatusMissed
	f.tasks[id] = t
	return true, nil
}

func (f *fakeStore) status(id string) models.TaskStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tasks[id].Status
}

func (f *fakeStore) snapshot() map[string]models.TaskStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]models.TaskStatus, len(f.tasks))
	for id, t := range f.tasks {
		out[id] = t.Status
	}
	return out
}

type fakeNotifier struct {
	mu     sync.Mutex
	missed []string
}

func (n *fakeNotifier) TaskMissed(t models.Task) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.missed = append(n.missed, t.ID)
}

func task(id string, status models.TaskStatus, deadline time.Time) models.Task {
	return models.Task{ID: id, Status: status, Deadline: deadline}
}

func TestRunOnceMarksOverduePending(t *testing.T) {
	now := time.Now()
	store := newFakeStore(
		task("overdue", models.StatusPending, now.Add(-time.Hour)),
		task("future", models.StatusPending, now.Add(time.Hour)),
		task("done", models.StatusCompleted, now.Add(-time.Hour)),
		task("missed", models.StatusMissed, now.Add(-time.Hour)),
		task("dft", models.StatusDefault, now.Add(-time.Hour)),
	)
	notifier := &fakeNotifier{}
	s := New(store, time.UTC, zap.NewNop(), notifier)

	require.NoError(t, s.RunOnce(context.Background(), now))

	assert.Equal(t, models.StatusMissed, store.status("overdue"))
	assert.Equal(t, models.StatusPending, store.status("future"))
	assert.Equal(t, models.StatusCompleted, store.status("done"))
	assert.Equal(t, models.StatusMissed, store.status("missed"))
	assert.Equal(t, models.StatusDefault, store.status("dft"))
	assert.Equal(t, []string{"overdue"}, notifier.missed)
}

func TestRunOnceIsIdempotent(t *testing.T) {
	now := time.Now()
	store := newFakeStore(
		task("overdue", models.StatusPending, now.Add(-time.Hour)),
		task("future", models.StatusPending, now.Add(time.Hour)),
	)
	s := New(store, time.UTC, zap.NewNop(), nil)

	require.NoError(t, s.RunOnce(context.Background(), now))
	after1 := store.snapshot()
	require.NoError(t, s.RunOnce(context.Background(), now))
	after2 := store.snapshot()

	assert.Equal(t, after1, after2)
}

func TestRunOnceContinuesAfterTaskFailure(t *testing.T) {
	now := time.Now()
	store := newFakeStore(
		task("bad", models.StatusPending, now.Add(-3*time.Hour)),
		task("good1", models.StatusPending, now.Add(-2*time.Hour)),
		task("good2", models.StatusPending, now.Add(-time.Hour)),
	)
	store.failIDs["bad"] = true
	s := New(store, time.UTC, zap.NewNop(), nil)

	// Satu record rusak tidak boleh menghentikan sisa sweep.
	require.NoError(t, s.RunOnce(context.Background(), now))

	assert.Equal(t, models.StatusPending, store.status("bad"))
	assert.Equal(t, models.StatusMissed, store.status("good1"))
	assert.Equal(t, models.StatusMissed, store.status("good2"))
}

func TestRunOnceSkipsWhileSweepInProgress(t *testing.T) {
	now := time.Now()
	store := newFakeStore(task("overdue", models.StatusPending, now.Add(-time.Hour)))
	store.blockList = make(chan struct{})
	s := New(store, time.UTC, zap.NewNop(), nil)

	done := make(chan error, 1)
	go func() {
		done <- s.RunOnce(context.Background(), now)
	}()

	// Tunggu sweep pertama memegang lock.
	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.listCalls == 1
	}, time.Second, 5*time.Millisecond)

	// Trigger kedua selagi sweep pertama masih jalan: di-skip, bukan queue.
	require.NoError(t, s.RunOnce(context.Background(), now))
	store.mu.Lock()
	assert.Equal(t, 1, store.listCalls)
	store.mu.Unlock()

	close(store.blockList)
	require.NoError(t, <-done)
	assert.Equal(t, models.StatusMissed, store.status("overdue"))
}

func TestStartStop(t *testing.T) {
	store := newFakeStore()
	s := New(store, time.UTC, zap.NewNop(), nil)

	s.Start()
	s.Stop()

	// Stop harus kembali setelah loop benar-benar berhenti; kalau sampai
	// sini tanpa deadlock, lifecycle-nya beres.
}

func TestNextMidnight(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 23, 30, 0, 0, loc)
	next := nextMidnight(at)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, loc), next)

	// Tepat tengah malam: jadwal berikutnya tetap besok, bukan sekarang.
	atMidnight := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, loc), nextMidnight(atMidnight))
}

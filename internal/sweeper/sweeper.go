// Package sweeper menjalankan proses harian yang mentransisikan task
// Pending yang deadline-nya sudah lewat menjadi Missed.
package sweeper

import (
	"context"
	"sync"
	"time"

	"tugas-go/internal/models"

	"go.uber.org/zap"
)

// Store adalah bagian storage layer yang dibutuhkan sweep.
type Store interface {
	OverduePending(ctx context.Context, now time.Time) ([]models.Task, error)
	MarkMissed(ctx context.Context, id string) (bool, error)
}

// Notifier menerima event task yang baru saja di-mark Missed.
type Notifier interface {
	TaskMissed(task models.Task)
}

// Sweeper adalah scheduler yang dimiliki proses secara eksplisit: dibuat,
// di-Start, dan di-Stop oleh main, bukan didaftarkan sebagai side effect
// global. Sweep berjalan setiap tengah malam di timezone loc.
type Sweeper struct {
	store    Store
	loc      *time.Location
	log      *zap.Logger
	notifier Notifier

	// mu menjamin maksimal satu sweep berjalan pada satu waktu;
	// trigger yang overlap di-skip, tidak di-queue.
	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// New membuat Sweeper. notifier boleh nil.
func New(store Store, loc *time.Location, log *zap.Logger, notifier Notifier) *Sweeper {
	if loc == nil {
		loc = time.Local
	}
	return &Sweeper{
		store:    store,
		loc:      loc,
		log:      log,
		notifier: notifier,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start menjalankan loop jadwal di goroutine sendiri.
func (s *Sweeper) Start() {
	go s.run()
}

// Stop menghentikan loop jadwal dan menunggu sampai selesai.
// Sweep yang sedang berjalan dibiarkan selesai sendiri; sweep berikutnya
// akan mengevaluasi ulang semua task dari awal, jadi cycle yang hilang
// tidak masalah.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Sweeper) run() {
	defer close(s.done)
	for {
		next := nextMidnight(time.Now().In(s.loc))
		timer := time.NewTimer(time.Until(next))
		s.log.Info("sweep scheduled", zap.Time("next_run", next))
		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
			if err := s.RunOnce(context.Background(), time.Now()); err != nil {
				s.log.Error("sweep failed", zap.Error(err))
			}
		}
	}
}

// RunOnce melakukan satu full-scan sweep: semua task Pending dengan
// deadline < now di-mark Missed. Idempotent: task yang sudah Missed tidak
// terpilih lagi di run berikutnya. Kegagalan satu task hanya di-log dan
// sweep lanjut ke task berikutnya.
func (s *Sweeper) RunOnce(ctx context.Context, now time.Time) error {
	if !s.mu.TryLock() {
		s.log.Warn("sweep still running, skipping this cycle")
		return nil
	}
	defer s.mu.Unlock()

	overdue, err := s.store.OverduePending(ctx, now)
	if err != nil {
		return err
	}

	swept := 0
	for _, t := range overdue {
		ok, err := s.store.MarkMissed(ctx, t.ID)
		if err != nil {
			s.log.Error("error marking task missed",
				zap.String("task_id", t.ID), zap.Error(err))
			continue
		}
		if !ok {
			// Kalah race dengan update user (misalnya keburu Completed).
			continue
		}
		swept++
		if s.notifier != nil {
			t.Status = models.StatusMissed
			s.notifier.TaskMissed(t)
		}
	}

	s.log.Info("sweep finished",
		zap.Int("overdue", len(overdue)), zap.Int("swept", swept))
	return nil
}

func nextMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
}

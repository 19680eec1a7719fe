package workers

import (
	"context"
	"fmt"
	"time"

	"tourbook_backend/internal/logger"
)

// ResetTokenCleaner - часть хранилища аккаунтов, нужная воркеру
type ResetTokenCleaner interface {
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// ClearedRecorder получает число удаленных токенов после каждого прохода
type ClearedRecorder interface {
	RecordResetTokensCleared(n int64)
}

// ResetTokenWorker периодически убирает истекшие токены сброса пароля.
// Поиск по токену и так проверяет срок, воркер лишь не дает им копиться.
type ResetTokenWorker struct {
	users    ResetTokenCleaner
	interval time.Duration
	recorder ClearedRecorder
	now      func() time.Time
}

// recorder может быть nil
func NewResetTokenWorker(users ResetTokenCleaner, interval time.Duration, recorder ClearedRecorder) *ResetTokenWorker {
	return &ResetTokenWorker{
		users:    users,
		interval: interval,
		recorder: recorder,
		now:      time.Now,
	}
}

// Start запускает очистку в фоне до отмены ctx
func (w *ResetTokenWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		logger.Info("Reset token worker disabled")
		return
	}
	go w.run(ctx)
}

func (w *ResetTokenWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Reset token worker stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep выполняет один проход очистки. Паника логируется и пробрасывается дальше.
func (w *ResetTokenWorker) Sweep(ctx context.Context) int64 {
	defer func() {
		if r := recover(); r != nil {
			logger.CtxWithError(ctx, "Reset token sweep panicked", fmt.Errorf("panic: %v", r))
			panic(r)
		}
	}()

	cleared, err := w.users.ClearExpiredResetTokens(ctx, w.now())
	if err != nil {
		logger.CtxWithError(ctx, "Error clearing expired reset tokens", err)
		return 0
	}
	if cleared > 0 {
		logger.CtxInfo(ctx, "Cleared expired reset tokens", "count", cleared)
	}
	if w.recorder != nil {
		w.recorder.RecordResetTokensCleared(cleared)
	}
	return cleared
}

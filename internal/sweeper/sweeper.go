// sweeper периодически удаляет просроченные записи checklist.
//
// Удаление идемпотентно: пересекающиеся запуски и повторный проход без
// новых вставок безвредны (второй вызов удалит 0 записей). Ошибка
// хранилища считается временной — логируется и ждёт следующего тика,
// в пользовательские пути она не попадает.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pribylovaa/go-realty-platform/auth-service/internal/storage"
)

var tokensSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "auth",
	Subsystem: "sweeper",
	Name:      "deleted_total",
	Help:      "Number of expired token records removed by the sweeper.",
})

// Sweeper — фоновая очистка просроченных токенов.
type Sweeper struct {
	storage  storage.TokenStorage
	interval time.Duration
	log      *slog.Logger
}

// New создаёт Sweeper. Нулевой или отрицательный interval делает Run no-op.
func New(st storage.TokenStorage, interval time.Duration, log *slog.Logger) *Sweeper {
	if log == nil {
		log = slog.Default()
	}

	return &Sweeper{storage: st, interval: interval, log: log}
}

// Run крутит цикл очистки до отмены контекста.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.log.Error("sweep_failed", slog.String("err", err.Error()))
			}
		}
	}
}

// RunOnce выполняет один проход очистки и возвращает число удалённых записей.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	deleted, err := s.storage.DeleteExpiredTokens(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	tokensSweptTotal.Add(float64(deleted))

	if deleted > 0 {
		s.log.Info("expired_tokens_swept", slog.Int64("count", deleted))
	}

	return deleted, nil
}

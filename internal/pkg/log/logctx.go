// log связывает request-scoped *slog.Logger с context.Context.
//
// HTTP-мидлвар Logging кладёт в контекст логгер, уже обогащённый
// request_id; сервисный слой и фоновые задачи достают его через From и
// пишут доменные события, не зная ничего про транспорт. Код вне запроса
// (bootstrap, sweeper без своего логгера) получает slog.Default().
package log

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into возвращает контекст с привязанным логгером.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From извлекает логгер из контекста; если его там нет (или лежит мусор) —
// slog.Default().
func From(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok || l == nil {
		return slog.Default()
	}

	return l
}

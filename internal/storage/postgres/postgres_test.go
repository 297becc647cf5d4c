package postgres

// Интеграционные тесты пакета postgres:
// - поднимают реальный PostgreSQL через testcontainers-go (образ postgres:16-alpine);
// - применяют миграции из ./migrations (users, tokens, blacklisted_tokens);
// - проверяют happy-path, уникальные ограничения, каскады и транзакции.
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/postgres -v -race -count=1

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pribylovaa/go-realty-platform/auth-service/internal/models"
	"github.com/pribylovaa/go-realty-platform/auth-service/internal/storage"
)

// repoRootFromThisFile — определяет корень репозитория относительно текущего
// файла тестов. Нужен для поиска SQL-миграций независимо от рабочего каталога.
func repoRootFromThisFile() string {
	// internal/storage/postgres/... -> подняться на 3 уровня до корня.
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", ".."))
}

// readMigration — читает содержимое SQL-миграции из подкаталога ./migrations.
func readMigration(t *testing.T, name string) string {
	t.Helper()
	root := repoRootFromThisFile()
	path := filepath.Join(root, "migrations", name)
	b, err := os.ReadFile(path)
	require.NoError(t, err, "read migration %s", path)
	return string(b)
}

// startPostgres — поднимает временный экземпляр PostgreSQL через
// testcontainers-go, применяет все миграции и возвращает инициализированное
// хранилище и функцию очистки. Если переменная окружения GO_TEST_INTEGRATION
// не установлена — тест пропускается.
func startPostgres(t *testing.T) (*Storage, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "5432/tcp")
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	// применяем миграции.
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	for _, m := range []string{
		"1_init_users.up.sql",
		"2_init_tokens.up.sql",
		"3_init_blacklist.up.sql",
	} {
		_, err = pool.Exec(ctx, readMigration(t, m))
		require.NoError(t, err, "apply %s", m)
	}

	st, err := New(ctx, dsn)
	require.NoError(t, err)

	cleanup := func() {
		st.Close()
		_ = c.Terminate(context.Background())
	}
	return st, cleanup
}

// seedUser вставляет пользователя напрямую (запись пользователей — зона
// ответственности соседнего сервиса, у auth-сервиса только чтение).
func seedUser(t *testing.T, st *Storage, email string, active bool) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := st.db.Exec(context.Background(), `
        INSERT INTO users (id, email, password_hash, role, is_active)
        VALUES ($1, $2, $3, $4, $5)
    `, id, email, "hash", string(models.RoleSearcher), active)
	require.NoError(t, err)

	return id
}

// seedToken сохраняет запись checklist через SaveToken и возвращает её.
func seedToken(t *testing.T, st *Storage, userID uuid.UUID, tt models.TokenType, issuedAt time.Time, ttl time.Duration) models.TokenRecord {
	t.Helper()

	rec := models.TokenRecord{
		UserID:      uuid.NullUUID{UUID: userID, Valid: true},
		JTI:         uuid.New(),
		TokenType:   tt,
		SignedValue: "signed-" + uuid.NewString(),
		IssuedAt:    issuedAt,
		ExpiresAt:   issuedAt.Add(ttl),
	}
	require.NoError(t, st.SaveToken(context.Background(), &rec))
	require.NotZero(t, rec.ID)

	return rec
}

func TestIntegration_WithinTx_RollbackOnError(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	userID := seedUser(t, st, "tx@example.com", true)

	sentinel := errors.New("boom")
	err := st.WithinTx(ctx, func(txSt storage.Storage) error {
		rec := models.TokenRecord{
			UserID:      uuid.NullUUID{UUID: userID, Valid: true},
			JTI:         uuid.New(),
			TokenType:   models.TokenTypeAccess,
			SignedValue: "rollback-me",
			IssuedAt:    time.Now().UTC(),
			ExpiresAt:   time.Now().UTC().Add(time.Hour),
		}
		if err := txSt.SaveToken(ctx, &rec); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	// Вставка откатилась вместе с транзакцией.
	recs, err := st.ActiveTokensByUser(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestIntegration_WithinTx_CommitVisible(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	userID := seedUser(t, st, "tx-commit@example.com", true)

	var jti uuid.UUID
	err := st.WithinTx(ctx, func(txSt storage.Storage) error {
		rec := models.TokenRecord{
			UserID:      uuid.NullUUID{UUID: userID, Valid: true},
			JTI:         uuid.New(),
			TokenType:   models.TokenTypeRefresh,
			SignedValue: "commit-me",
			IssuedAt:    time.Now().UTC(),
			ExpiresAt:   time.Now().UTC().Add(time.Hour),
		}
		jti = rec.JTI
		return txSt.SaveToken(ctx, &rec)
	})
	require.NoError(t, err)

	got, err := st.TokenByJTI(ctx, jti)
	require.NoError(t, err)
	require.Equal(t, "commit-me", got.SignedValue)
}

func TestIntegration_WithinTx_NestedReusesTx(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	userID := seedUser(t, st, "tx-nested@example.com", true)

	err := st.WithinTx(ctx, func(outer storage.Storage) error {
		return outer.WithinTx(ctx, func(inner storage.Storage) error {
			rec := models.TokenRecord{
				UserID:      uuid.NullUUID{UUID: userID, Valid: true},
				JTI:         uuid.New(),
				TokenType:   models.TokenTypeAccess,
				SignedValue: "nested",
				IssuedAt:    time.Now().UTC(),
				ExpiresAt:   time.Now().UTC().Add(time.Hour),
			}
			return inner.SaveToken(ctx, &rec)
		})
	})
	require.NoError(t, err)

	recs, err := st.ActiveTokensByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

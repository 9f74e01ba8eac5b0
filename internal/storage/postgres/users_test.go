package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pribylovaa/go-account-service/internal/models"
	"github.com/pribylovaa/go-account-service/internal/storage"
)

// Интеграционные тесты для пакета postgres (реализация пользователей в users.go):
// — поднимают реальный PostgreSQL через testcontainers-go (образ postgres:16-alpine);
// — применяют встроенные goose-миграции через RunMigrations;
// — проверяют:
//    SaveUser: успешную вставку и ErrAlreadyExists при повторе email/username;
//    UserByID / UserByEmailOrUsername: успешные сценарии и ErrNotFound;
//    SetRefreshToken / RotateRefreshToken / ClearRefreshToken: жизненный цикл
//    хэша refresh-токена, включая проигрыш CAS при несовпадении хэша.
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/postgres -v -race -count=1

// startPostgres — поднимает PostgreSQL через testcontainers-go, применяет
// миграции и возвращает инициализированное хранилище и функцию очистки.
// Если переменная окружения GO_TEST_INTEGRATION не установлена — тест пропускается.
func startPostgres(t *testing.T) (*Storage, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "docker.io/postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	t.Logf("starting postgres container with image=%q", req.Image)
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
		ProviderType:     tc.ProviderDocker,
	})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "5432/tcp")
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	require.NoError(t, RunMigrations(ctx, dsn))

	st, err := New(ctx, dsn)
	require.NoError(t, err)

	cleanup := func() {
		st.Close()
		_ = c.Terminate(context.Background())
	}
	return st, cleanup
}

func newTestUser() *models.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.User{
		ID:           uuid.New(),
		Username:     "user_" + uuid.NewString()[:8],
		Email:        uuid.NewString()[:8] + "@example.com",
		FullName:     "Test User",
		PasswordHash: "$2a$10$fakefakefakefakefakefa.fakefakefakefakefakefakefakefa",
		AvatarURL:    "https://cdn.example.com/media/a.png",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestIntegration_SaveUser_And_UserByID_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	user := newTestUser()
	user.CoverImageURL = "https://cdn.example.com/media/c.jpg"

	require.NoError(t, st.SaveUser(ctx, user))

	got, err := st.UserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, user.Username, got.Username)
	require.Equal(t, user.Email, got.Email)
	require.Equal(t, user.FullName, got.FullName)
	require.Equal(t, user.AvatarURL, got.AvatarURL)
	require.Equal(t, user.CoverImageURL, got.CoverImageURL)
	require.Empty(t, got.RefreshTokenHash)
	require.WithinDuration(t, user.CreatedAt, got.CreatedAt, time.Second)
}

func TestIntegration_SaveUser_EmptyCoverStoredAsNull(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	user := newTestUser()

	require.NoError(t, st.SaveUser(ctx, user))

	got, err := st.UserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, got.CoverImageURL)
}

func TestIntegration_SaveUser_DuplicateEmail(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	user := newTestUser()
	require.NoError(t, st.SaveUser(ctx, user))

	dup := newTestUser()
	dup.Email = user.Email

	err := st.SaveUser(ctx, dup)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestIntegration_SaveUser_DuplicateUsername(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	user := newTestUser()
	require.NoError(t, st.SaveUser(ctx, user))

	dup := newTestUser()
	dup.Username = user.Username

	err := st.SaveUser(ctx, dup)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestIntegration_UserByID_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	_, err := st.UserByID(context.Background(), uuid.New())
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_UserByEmailOrUsername(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	user := newTestUser()
	require.NoError(t, st.SaveUser(ctx, user))

	// По email.
	got, err := st.UserByEmailOrUsername(ctx, user.Email, "")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	// По username.
	got, err = st.UserByEmailOrUsername(ctx, "", user.Username)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	// По обоим сразу.
	got, err = st.UserByEmailOrUsername(ctx, user.Email, user.Username)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	// Ни один аргумент не совпал.
	_, err = st.UserByEmailOrUsername(ctx, "ghost@example.com", "ghost")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Пустые аргументы не матчат NULL-сравнения.
	_, err = st.UserByEmailOrUsername(ctx, "", "")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_RefreshTokenLifecycle(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	user := newTestUser()
	require.NoError(t, st.SaveUser(ctx, user))

	// Login: безусловная запись хэша.
	require.NoError(t, st.SetRefreshToken(ctx, user.ID, "hash-1"))

	got, err := st.UserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "hash-1", got.RefreshTokenHash)

	// Успешная ротация по совпавшему хэшу.
	rotated, err := st.RotateRefreshToken(ctx, user.ID, "hash-1", "hash-2")
	require.NoError(t, err)
	require.True(t, rotated)

	got, err = st.UserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "hash-2", got.RefreshTokenHash)

	// Повторная ротация по старому хэшу проигрывает CAS.
	rotated, err = st.RotateRefreshToken(ctx, user.ID, "hash-1", "hash-3")
	require.NoError(t, err)
	require.False(t, rotated)

	// Logout: хэш сброшен.
	require.NoError(t, st.ClearRefreshToken(ctx, user.ID))

	got, err = st.UserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, got.RefreshTokenHash)

	// После сброса ротация невозможна.
	rotated, err = st.RotateRefreshToken(ctx, user.ID, "hash-2", "hash-4")
	require.NoError(t, err)
	require.False(t, rotated)
}

func TestIntegration_RefreshTokenOps_UnknownUser(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx := context.Background()
	unknown := uuid.New()

	err := st.SetRefreshToken(ctx, unknown, "hash")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.RotateRefreshToken(ctx, unknown, "old", "new")
	require.ErrorIs(t, err, storage.ErrNotFound)

	err = st.ClearRefreshToken(ctx, unknown)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_ExpiredContext(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := st.UserByID(ctx, uuid.New())
	require.Error(t, err)
}

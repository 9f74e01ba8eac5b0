package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-account-service/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/username).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
//
// Уникальность email/username гарантируется уникальными индексами БД:
// предварительные проверки в сервисном слое оптимистичны, финальный
// арбитр — SaveUser с маппингом unique violation в ErrAlreadyExists.
type UserStorage interface {
	// SaveUser создает нового пользователя в БД.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// UserByEmailOrUsername находит пользователя, у которого совпадает
	// email ИЛИ username (любой из аргументов может быть пустым).
	UserByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)
	// SetRefreshToken безусловно записывает хэш refresh-токена пользователя.
	SetRefreshToken(ctx context.Context, id uuid.UUID, hash string) error
	// RotateRefreshToken атомарно заменяет хэш refresh-токена при условии,
	// что текущий хэш равен oldHash. Возвращает false, если условие не
	// выполнено (токен уже ротирован конкурентным запросом).
	RotateRefreshToken(ctx context.Context, id uuid.UUID, oldHash, newHash string) (bool, error)
	// ClearRefreshToken сбрасывает хэш refresh-токена (logout).
	ClearRefreshToken(ctx context.Context, id uuid.UUID) error
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	Close()
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// User — учётная запись пользователя.
//
// Инварианты:
//   - Username и Email уникальны в системе и хранятся в нижнем регистре;
//   - PasswordHash — bcrypt-хэш, исходный пароль нигде не сохраняется;
//   - RefreshTokenHash — SHA-256 (base64url) последнего выданного
//     refresh-токена; пустая строка означает отсутствие активной сессии.
type User struct {
	ID               uuid.UUID
	Username         string
	Email            string
	FullName         string
	PasswordHash     string
	AvatarURL        string
	CoverImageURL    string
	RefreshTokenHash string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// APIUser — представление пользователя для ответов API:
// без хэша пароля и refresh-токена.
type APIUser struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// API возвращает представление пользователя без чувствительных полей.
func (u *User) API() APIUser {
	return APIUser{
		ID:            u.ID.String(),
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
	}
}

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TestUser_API — представление для API не содержит чувствительных полей.
func TestUser_API(t *testing.T) {
	t.Parallel()

	user := &User{
		ID:               uuid.New(),
		Username:         "newuser",
		Email:            "user@example.com",
		FullName:         "New User",
		PasswordHash:     "bcrypt-hash",
		AvatarURL:        "https://cdn.example.com/media/a.png",
		RefreshTokenHash: "refresh-hash",
		CreatedAt:        time.Now().UTC(),
	}

	raw, err := json.Marshal(user.API())
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))

	require.Equal(t, user.ID.String(), out["id"])
	require.Equal(t, "newuser", out["username"])
	require.Equal(t, "https://cdn.example.com/media/a.png", out["avatar"])

	require.NotContains(t, out, "password")
	require.NotContains(t, out, "passwordHash")
	require.NotContains(t, out, "refreshTokenHash")

	// Пустой coverImage опускается целиком.
	require.NotContains(t, out, "coverImage")
}

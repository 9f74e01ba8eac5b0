package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/go-account-service/internal/models"
	"github.com/pribylovaa/go-account-service/internal/pkg/log"
	"github.com/pribylovaa/go-account-service/internal/pkg/redact"
	"github.com/pribylovaa/go-account-service/internal/storage"
)

// RegisterInput — данные регистрации. AvatarPath/CoverImagePath — пути к
// локальным временным файлам, сохранённым транспортом из multipart-формы.
type RegisterInput struct {
	Username       string
	Email          string
	Password       string
	FullName       string
	AvatarPath     string
	CoverImagePath string
}

// LoginInput — данные входа: пароль плюс email или username (достаточно
// одного из двух).
type LoginInput struct {
	Email    string
	Username string
	Password string
}

// RegisterUser регистрирует нового пользователя.
//
// Порядок проверок (каждая ошибка — отдельный сентинел для транспорта):
//  1. обязательные поля: fullName/email/password/username -> ErrMissingField;
//  2. формат email -> ErrInvalidEmail;
//  3. занятость email ИЛИ username -> ErrUserExists (финальный арбитр —
//     уникальные индексы БД при SaveUser);
//  4. наличие файла аватара -> ErrAvatarRequired;
//  5. загрузка аватара на медиахостинг -> ErrUploadFailed; отказ загрузки
//     cover-изображения не фатален (URL остаётся пустым);
//  6. повторное чтение созданной записи -> ErrInternal (защитная проверка).
func (s *Service) RegisterUser(ctx context.Context, input RegisterInput) (*models.User, error) {
	const op = "service.auth.RegisterUser"

	lg := log.From(ctx)

	if input.FullName == "" || input.Email == "" || input.Password == "" || input.Username == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingField)
	}

	normEmail, err := validateEmail(input.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	normUsername := strings.ToLower(strings.TrimSpace(input.Username))
	if normUsername == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingField)
	}

	_, err = s.storage.UserByEmailOrUsername(ctx, normEmail, normUsername)
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUserExists)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if input.AvatarPath == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrAvatarRequired)
	}

	avatarURL, err := s.media.UploadLocalFile(ctx, input.AvatarPath)
	if err != nil {
		lg.Warn("avatar_upload_failed",
			slog.String("op", op),
			slog.String("email", redact.Email(normEmail)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrUploadFailed)
	}

	var coverURL string
	if input.CoverImagePath != "" {
		coverURL, err = s.media.UploadLocalFile(ctx, input.CoverImagePath)
		if err != nil {
			// Cover-изображение опционально: отказ не прерывает регистрацию.
			lg.Warn("cover_upload_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			coverURL = ""
		}
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:            uuid.New(),
		Username:      normUsername,
		Email:         normEmail,
		FullName:      input.FullName,
		PasswordHash:  hashedPassword,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.storage.UserByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Error("created_user_missing",
				slog.String("op", op),
				slog.String("user_id", user.ID.String()),
			)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

// LoginUser выполняет вход по email-или-username и паролю.
// Несуществующий пользователь и неверный пароль неразличимы для клиента:
// оба случая — ErrInvalidCredentials.
func (s *Service) LoginUser(ctx context.Context, input LoginInput) (*models.User, *models.TokenPair, error) {
	const op = "service.auth.LoginUser"

	if input.Email == "" && input.Username == "" {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrMissingField)
	}

	if input.Password == "" {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrMissingField)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.ToLower(strings.TrimSpace(input.Username))

	user, err := s.storage.UserByEmailOrUsername(ctx, email, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, input.Password) {
		log.From(ctx).Warn("login_failed",
			slog.String("op", op),
			slog.String("email", redact.Email(email)),
			slog.String("username", redact.Username(username)),
		)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.issueTokenPair(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, pair, nil
}

// LogoutUser завершает сессию пользователя: сбрасывает сохранённый хэш
// refresh-токена. Сама запись пользователя не удаляется.
func (s *Service) LogoutUser(ctx context.Context, userID uuid.UUID) error {
	const op = "service.auth.LogoutUser"

	if err := s.storage.ClearRefreshToken(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if s.rcache != nil {
		if err := s.rcache.Drop(ctx, userID); err != nil {
			log.From(ctx).Warn("refresh_cache_drop_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		}
	}

	return nil
}

// RefreshTokens обновляет пару токенов по refresh-токену.
//
// Предъявленный токен валиден, только если его хэш совпадает с текущим
// сохранённым на записи пользователя: предъявление ротированного токена —
// ErrTokenReused. Замена хэша атомарна (compare-and-swap по старому хэшу),
// поэтому из двух конкурентных refresh-запросов выигрывает ровно один.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*models.User, *models.TokenPair, error) {
	const op = "service.auth.RefreshTokens"

	lg := log.From(ctx)

	uid, err := ParseToken(refreshToken, s.cfg.RefreshSecret, s.cfg.Issuer)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	presentedHash := HashToken(refreshToken)

	currentHash := user.RefreshTokenHash
	if s.rcache != nil {
		if hash, ok, cerr := s.rcache.CurrentHash(ctx, uid); cerr == nil && ok {
			currentHash = hash
		}
	}

	if currentHash == "" || currentHash != presentedHash {
		lg.Warn("refresh_token_mismatch",
			slog.String("op", op),
			slog.String("user_id", uid.String()),
		)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrTokenReused)
	}

	now := time.Now().UTC()

	accessToken, err := GenerateToken(uid, s.cfg.AccessSecret, s.cfg.AccessTokenTTL, s.cfg.Issuer, now)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	newRefresh, err := GenerateToken(uid, s.cfg.RefreshSecret, s.cfg.RefreshTokenTTL, s.cfg.Issuer, now)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	newHash := HashToken(newRefresh)

	rotated, err := s.storage.RotateRefreshToken(ctx, uid, presentedHash, newHash)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if !rotated {
		// Конкурентный refresh успел заменить хэш между чтением и ротацией.
		return nil, nil, fmt.Errorf("%s: %w", op, ErrTokenReused)
	}

	s.cacheRefreshHash(ctx, uid, newHash)

	return user, &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    newRefresh,
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}, nil
}

// UserByAccessToken проверяет access-токен и возвращает пользователя из claims.
// Используется middleware аутентификации.
func (s *Service) UserByAccessToken(ctx context.Context, accessToken string) (*models.User, error) {
	const op = "service.auth.UserByAccessToken"

	uid, err := ParseToken(accessToken, s.cfg.AccessSecret, s.cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// issueTokenPair выпускает новую пару access+refresh токенов и безусловно
// записывает хэш refresh-токена на пользователя (login — новая сессия).
func (s *Service) issueTokenPair(ctx context.Context, userID uuid.UUID) (*models.TokenPair, error) {
	const op = "service.auth.issueTokenPair"

	now := time.Now().UTC()

	accessToken, err := GenerateToken(userID, s.cfg.AccessSecret, s.cfg.AccessTokenTTL, s.cfg.Issuer, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := GenerateToken(userID, s.cfg.RefreshSecret, s.cfg.RefreshTokenTTL, s.cfg.Issuer, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash := HashToken(refreshToken)
	if err := s.storage.SetRefreshToken(ctx, userID, hash); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cacheRefreshHash(ctx, userID, hash)

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}, nil
}

// cacheRefreshHash обновляет кэш текущего хэша refresh-токена (best-effort).
func (s *Service) cacheRefreshHash(ctx context.Context, userID uuid.UUID, hash string) {
	if s.rcache == nil {
		return
	}

	if err := s.rcache.SetCurrentHash(ctx, userID, hash, s.cfg.RefreshTokenTTL); err != nil {
		log.From(ctx).Warn("refresh_cache_set_failed",
			slog.String("user_id", userID.String()),
			slog.String("err", err.Error()),
		)
	}
}

// hashPassword хэширует пароль с помощью bcrypt.
func hashPassword(password string) (string, error) {
	const op = "service.auth.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validateEmail проверяет базовый формат email и обрезает пробелы снаружи.
func validateEmail(raw string) (string, error) {
	const op = "service.auth.validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(email), nil
}

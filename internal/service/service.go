// service содержит бизнес-логику account-сервиса:
// регистрацию с загрузкой изображений профиля, вход по паре логин/пароль,
// выпуск/ротацию пары токенов, выход и работу с хранилищами через
// интерфейсы из пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданные хранилища потокобезопасны.
//   - Ошибки возвращаются и далее маппятся транспортом на HTTP-статусы
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/pribylovaa/go-account-service/internal/cache"
	"github.com/pribylovaa/go-account-service/internal/config"
	"github.com/pribylovaa/go-account-service/internal/storage"
)

var (
	// ErrMissingField — в запросе отсутствует обязательное поле
	// (fullName/email/password/username). Транспорт: HTTP 400.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidEmail — e-mail имеет некорректный формат. Транспорт: HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrUserExists — пользователь с таким email или username уже
	// зарегистрирован. Транспорт: HTTP 409.
	ErrUserExists = errors.New("user already exists")

	// ErrAvatarRequired — при регистрации не передан файл аватара.
	// Транспорт: HTTP 400.
	ErrAvatarRequired = errors.New("avatar file is required")

	// ErrUploadFailed — загрузка аватара на медиахостинг завершилась
	// ошибкой. Транспорт: HTTP 400.
	ErrUploadFailed = errors.New("media upload failed")

	// ErrInvalidCredentials — пара логин/пароль неверна или пользователь
	// не найден. Транспорт: HTTP 400 (контракт эндпоинта /login).
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — токен (access/refresh) некорректен по формату или
	// подписи. Транспорт: HTTP 401 для access, HTTP 400 для refresh.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк.
	// Транспорт: HTTP 401 для access, HTTP 400 для refresh.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenReused — предъявленный refresh-токен не совпадает с текущим
	// сохранённым: токен уже ротирован либо сессия завершена.
	// Транспорт: HTTP 400.
	ErrTokenReused = errors.New("refresh token is expired or used")

	// ErrUserNotFound — пользователь из claims токена отсутствует в БД.
	// Транспорт: HTTP 400 (refresh) / HTTP 401 (middleware).
	ErrUserNotFound = errors.New("user not found")

	// ErrInternal — непредвиденная ошибка нижележащих слоёв.
	// Транспорт: HTTP 500 c единым безопасным сообщением.
	ErrInternal = errors.New("internal error")
)

// Service описывает бизнес-логику account-сервиса.
type Service struct {
	storage storage.Storage
	media   storage.MediaStorage
	cfg     config.AuthConfig
	rcache  cache.RefreshCache // может быть nil, если кэш не сконфигурирован
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, media storage.MediaStorage, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		media:   media,
		cfg:     cfg,
	}
}

// SetRefreshCache устанавливает кэш refresh-токенов (опционально).
func (s *Service) SetRefreshCache(c cache.RefreshCache) {
	s.rcache = c
}

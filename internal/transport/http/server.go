// transport/http содержит HTTP-эндпоинты account-сервиса на gin.
// Здесь выполняется только разбор запросов и маппинг данных и ошибок
// доменного слоя (service) в HTTP. Вся бизнес-логика — в пакете service.
//
// Принципы:
//   - Контекст запроса прокидывается в сервис без потерь;
//   - Ошибки сервиса явно транслируются в статусы:
//   - ErrMissingField/ErrInvalidEmail/ErrAvatarRequired/ErrUploadFailed -> 400;
//   - ErrUserExists -> 409;
//   - ErrInvalidCredentials/ErrUserNotFound/ErrTokenReused -> 400;
//   - ErrInvalidToken/ErrTokenExpired -> 401 (access) / 400 (refresh);
//   - иные ошибки -> 500 c единым безопасным сообщением.
//
// Безопасность:
//   - Для 500 наружу не утекают детали внутренних ошибок; подробности
//     попадают в логи через middleware.
package http

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pribylovaa/go-account-service/internal/config"
	"github.com/pribylovaa/go-account-service/internal/service"
)

type Server struct {
	service *service.Service
	cfg     *config.Config
	ready   atomic.Bool
}

// NewServer создаёт HTTP-сервер поверх сервисного слоя.
func NewServer(service *service.Service, cfg *config.Config) *Server {
	return &Server{service: service, cfg: cfg}
}

// SetReady переключает readiness-флаг для /healthz.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Router собирает gin-роутер со всеми маршрутами и middleware.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(nil))
	r.Use(Recovery(nil))
	r.Use(WithTimeout(s.cfg.Timeouts.Service))

	r.GET("/livez", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/healthz", func(c *gin.Context) {
		if s.ready.Load() {
			c.String(http.StatusOK, "ok")
			return
		}
		c.String(http.StatusServiceUnavailable, "not ready")
	})

	users := r.Group("/api/v1/users")
	{
		users.POST("/register", s.registerUser)
		users.POST("/login", s.loginUser)
		users.POST("/logout", s.authenticate(), s.logoutUser)
		users.POST("/refresh-access-token", s.refreshAccessToken)
	}

	return r
}

// registerUser — POST /api/v1/users/register (multipart/form-data).
// Поля: username, email, password, fullName; файлы: avatar (обязателен),
// coverImage (опционален). Успех — 201 с пользователем без чувствительных
// полей.
func (s *Server) registerUser(c *gin.Context) {
	input := service.RegisterInput{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
		FullName: c.PostForm("fullName"),
	}

	avatarPath, err := s.saveUploadedFile(c, "avatar")
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read avatar file")
		return
	}
	input.AvatarPath = avatarPath

	coverPath, err := s.saveUploadedFile(c, "coverImage")
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read cover image file")
		return
	}
	input.CoverImagePath = coverPath

	// Медиахранилище удаляет переданные ему файлы само; здесь подчищаются
	// только файлы, до которых сервис не дошёл (например, отказ до загрузки).
	defer func() {
		if avatarPath != "" {
			_ = os.Remove(avatarPath)
		}
		if coverPath != "" {
			_ = os.Remove(coverPath)
		}
	}()

	user, err := s.service.RegisterUser(c.Request.Context(), input)
	if err != nil {
		status, msg := mapServiceError(err)
		respondError(c, status, msg)
		return
	}

	respond(c, http.StatusCreated, user.API(), "user registered successfully")
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginUser — POST /api/v1/users/login.
// Принимает email или username плюс пароль; устанавливает HttpOnly-cookie
// accessToken/refreshToken и возвращает оба токена в теле.
func (s *Server) loginUser(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, pair, err := s.service.LoginUser(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		status, msg := mapServiceError(err)
		respondError(c, status, msg)
		return
	}

	s.setTokenCookies(c, pair.AccessToken, pair.RefreshToken)

	respond(c, http.StatusOK, gin.H{
		"user":         user.API(),
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "user logged in successfully")
}

// logoutUser — POST /api/v1/users/logout (требует аутентификации).
// Сбрасывает сохранённый refresh-токен и удаляет обе cookie.
func (s *Server) logoutUser(c *gin.Context) {
	user, ok := authUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized request")
		return
	}

	if err := s.service.LogoutUser(c.Request.Context(), user.ID); err != nil {
		status, msg := mapServiceError(err)
		respondError(c, status, msg)
		return
	}

	s.clearTokenCookies(c)

	respond(c, http.StatusOK, gin.H{}, "user logged out successfully")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// refreshAccessToken — POST /api/v1/users/refresh-access-token.
// Refresh-токен берётся из cookie либо из тела запроса; отсутствие — 401,
// отказ проверки — 400 с причиной.
func (s *Server) refreshAccessToken(c *gin.Context) {
	token, err := c.Cookie(refreshTokenCookie)
	if err != nil || token == "" {
		var req refreshRequest
		// Тело опционально: его отсутствие не является ошибкой.
		_ = c.ShouldBindJSON(&req)
		token = req.RefreshToken
	}

	if token == "" {
		respondError(c, http.StatusUnauthorized, "unauthorized request")
		return
	}

	_, pair, err := s.service.RefreshTokens(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenExpired):
			respondError(c, http.StatusBadRequest, "refresh token expired")
		case errors.Is(err, service.ErrInvalidToken):
			respondError(c, http.StatusBadRequest, "invalid refresh token")
		default:
			status, msg := mapServiceError(err)
			respondError(c, status, msg)
		}

		return
	}

	s.setTokenCookies(c, pair.AccessToken, pair.RefreshToken)

	respond(c, http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "access token refreshed")
}

// saveUploadedFile сохраняет файл из multipart-поля во временный каталог и
// возвращает путь. Отсутствие поля — не ошибка (путь пустой).
func (s *Server) saveUploadedFile(c *gin.Context, field string) (string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}

		return "", err
	}

	dir := s.cfg.Upload.TempDir
	if dir == "" {
		dir = os.TempDir()
	}

	path := filepath.Join(dir, uuid.NewString()+filepath.Ext(header.Filename))
	if err := c.SaveUploadedFile(header, path); err != nil {
		return "", err
	}

	return path, nil
}

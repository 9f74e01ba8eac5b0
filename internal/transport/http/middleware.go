package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pribylovaa/go-account-service/internal/models"
	"github.com/pribylovaa/go-account-service/internal/pkg/log"
	"github.com/pribylovaa/go-account-service/internal/service"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"

	ctxUserKey = "authUser"
)

// RequestLogger реализует логирование HTTP-запросов с контекстным логгером.
//
// Поведение и формат логов:
//   - Вытягивает X-Request-Id из заголовков, иначе генерирует UUID;
//   - Кладёт обогащённый *slog.Logger в context (pkg/log), чтобы он был
//     доступен глубже по стеку;
//   - После выполнения обработчика пишет одну строку уровня Info: msg="http",
//     status=<код ответа>, dur=<время выполнения>.
//
// Безопасность:
//   - Логи не содержат чувствительных данных (только метод/путь/peer/request_id).
func RequestLogger(base *slog.Logger) gin.HandlerFunc {
	if base == nil {
		base = slog.Default()
	}

	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader("X-Request-Id")
		if rid == "" {
			rid = uuid.NewString()
		}

		l := base.With(
			slog.String("request_id", rid),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("peer", c.ClientIP()),
		)

		c.Request = c.Request.WithContext(log.Into(c.Request.Context(), l))
		c.Writer.Header().Set("X-Request-Id", rid)

		c.Next()

		l.Info("http",
			slog.Int("status", c.Writer.Status()),
			slog.Duration("dur", time.Since(start)),
		)
	}
}

// Recovery перехватывает паники в обработчиках, логирует их со стеком и
// отвечает клиенту нейтральной ошибкой 500 в стандартном конверте.
func Recovery(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				l := log.From(c.Request.Context())
				if l == slog.Default() && base != nil {
					l = base
				}

				l.Error("panic_recovered",
					slog.String("path", c.Request.URL.Path),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)

				respondError(c, http.StatusInternalServerError, "internal server error")
			}
		}()

		c.Next()
	}
}

// WithTimeout навешивает дедлайн на контекст запроса, если его ещё нет.
func WithTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Request.Context().Deadline(); ok {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// authenticate — middleware аутентификации запроса.
//
// Машина состояний: извлечение токена -> проверка подписи/срока ->
// загрузка пользователя -> прикрепление к контексту. Отказ на любом шаге
// сохраняет свой статус (все клиентские отказы — 401, без сворачивания
// в 500).
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := extractAccessToken(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, "unauthorized request")
			return
		}

		user, err := s.service.UserByAccessToken(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrTokenExpired):
				respondError(c, http.StatusUnauthorized, "access token expired")
			case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrUserNotFound):
				respondError(c, http.StatusUnauthorized, "invalid access token")
			default:
				respondError(c, http.StatusInternalServerError, "internal server error")
			}

			return
		}

		// Пользователь доступен обработчикам; логгер обогащён его ID.
		c.Set(ctxUserKey, user)
		c.Request = c.Request.WithContext(
			log.With(c.Request.Context(), slog.String("user_id", user.ID.String())),
		)

		c.Next()
	}
}

// extractAccessToken достаёт access-токен из cookie accessToken либо из
// заголовка Authorization: Bearer <token>. Cookie имеет приоритет.
func extractAccessToken(c *gin.Context) (string, bool) {
	if token, err := c.Cookie(accessTokenCookie); err == nil && token != "" {
		return token, true
	}

	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}

// authUser возвращает пользователя, прикреплённого middleware аутентификации.
func authUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil, false
	}

	user, ok := v.(*models.User)
	return user, ok
}

package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pribylovaa/go-account-service/internal/service"
)

// apiResponse — единый конверт успешного ответа.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// apiError — единый конверт ошибки.
type apiError struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, apiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, apiError{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     []string{},
	})
}

// mapServiceError переводит сентинелы сервисного слоя в HTTP-статус и
// безопасное сообщение. Детали внутренних ошибок клиенту не отдаются.
func mapServiceError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrMissingField),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrAvatarRequired),
		errors.Is(err, service.ErrUploadFailed),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrTokenReused):
		return http.StatusBadRequest, serviceMessage(err)
	case errors.Is(err, service.ErrUserExists):
		return http.StatusConflict, serviceMessage(err)
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// serviceMessage возвращает текст сентинельной ошибки без префиксов
// обёрток ("op: ...").
func serviceMessage(err error) string {
	for _, sentinel := range []error{
		service.ErrMissingField,
		service.ErrInvalidEmail,
		service.ErrUserExists,
		service.ErrAvatarRequired,
		service.ErrUploadFailed,
		service.ErrInvalidCredentials,
		service.ErrInvalidToken,
		service.ErrTokenExpired,
		service.ErrTokenReused,
		service.ErrUserNotFound,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}

	return "internal server error"
}

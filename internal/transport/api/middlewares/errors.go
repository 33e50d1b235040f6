package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RetryAfterSeconds значение заголовка Retry-After для ответов 503: конфликт блокировок или таймаут БД
// обычно проходят за пару секунд.
const RetryAfterSeconds = 2

func statusErrorText(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not found"
	case http.StatusNotAcceptable:
		return "not acceptable"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "unprocessable entity"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable, retry later"
	default:
		return "internal server error"
	}
}

// Errors отдает клиенту первую ошибку запроса, если хендлер сам не записал тело ответа. Публичные ошибки
// отдаются как есть, для остальных только текст статуса. Детали приватных ошибок попадают только в лог
// (см. Logger).
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Size() > 0 {
			return
		}

		status := c.Writer.Status()
		firstErr := c.Errors[0]
		msg := statusErrorText(status)
		if firstErr.IsType(gin.ErrorTypePublic) {
			msg = firstErr.Error()
		}

		if wantsJSON(c) {
			body := gin.H{"error": msg}
			if requestID := c.GetString(RequestIDKey); requestID != "" {
				body["request_id"] = requestID
			}
			c.JSON(status, body)
		} else {
			c.String(status, msg)
		}
		c.Abort()
	}
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json") ||
		strings.Contains(c.GetHeader("Content-Type"), "application/json")
}

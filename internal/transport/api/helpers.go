package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/fsdevblog/study-billing/internal/transport/api/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	dateTimeLayout = time.RFC3339
	moneyPlaces    = 2
)

// getUserIDFromContext берет из контекста gin ID текущего юзера. ID устанавливается в
// middlewares.AuthRequired. В случае, если значения в контексте нет или ошибка утверждения типа -
// вернется 0.
func getUserIDFromContext(c *gin.Context) int64 {
	userIDStr, exist := c.Get(middlewares.CurrentUserIDKey)
	if !exist {
		return 0
	}
	userID, ok := userIDStr.(int64)
	if !ok {
		return 0
	}
	return userID
}

// abortWithServiceError переводит ошибку сервисного слоя в HTTP статус.
func abortWithServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotEnoughBalance):
		_ = c.AbortWithError(http.StatusNotAcceptable, domain.ErrNotEnoughBalance).SetType(gin.ErrorTypePublic)
	case errors.Is(err, domain.ErrCourseNotFound):
		_ = c.AbortWithError(http.StatusNotFound, domain.ErrCourseNotFound).SetType(gin.ErrorTypePublic)
	case errors.Is(err, domain.ErrRecordNotFound):
		_ = c.AbortWithError(http.StatusNotFound, err).SetType(gin.ErrorTypePrivate)
	case errors.Is(err, domain.ErrValidation):
		_ = c.AbortWithError(http.StatusUnprocessableEntity, err).SetType(gin.ErrorTypePrivate)
	case domain.IsRetryable(err), errors.Is(err, context.DeadlineExceeded):
		// заголовок нужно выставить до записи статуса
		c.Header("Retry-After", strconv.Itoa(middlewares.RetryAfterSeconds))
		_ = c.AbortWithError(http.StatusServiceUnavailable, err).SetType(gin.ErrorTypePrivate)
	default:
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
	}
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(moneyPlaces)
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateTimeLayout)
	return &s
}

package api

import (
	"cmp"
	"context"
	"net/http"

	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/gin-gonic/gin"
)

type TransactionHandler struct {
	balanceService BalanceServicer
}

func NewTransactionHandler(balanceService BalanceServicer) *TransactionHandler {
	return &TransactionHandler{
		balanceService: balanceService,
	}
}

// TransactionsQuery фильтры истории. Основные имена filter[...], короткие принимаются как алиасы,
// при указании обоих побеждает filter[...].
type TransactionsQuery struct {
	Type        string `binding:"omitempty,oneof=deposit payment" form:"filter[type]"`
	CourseCode  string `binding:"omitempty,course_code"           form:"filter[course_code]"`
	SkipExpired *bool  `form:"filter[skip_expired]"`

	TypeAlias        string `binding:"omitempty,oneof=deposit payment" form:"type"`
	CourseCodeAlias  string `binding:"omitempty,course_code"           form:"course_code"`
	SkipExpiredAlias *bool  `form:"skip_expired"`
}

func (q *TransactionsQuery) filter() domain.TransactionFilter {
	f := domain.TransactionFilter{
		Type:       domain.TransactionType(cmp.Or(q.Type, q.TypeAlias)),
		CourseCode: cmp.Or(q.CourseCode, q.CourseCodeAlias),
	}
	switch {
	case q.SkipExpired != nil:
		f.SkipExpired = *q.SkipExpired
	case q.SkipExpiredAlias != nil:
		f.SkipExpired = *q.SkipExpiredAlias
	}
	return f
}

type TransactionResponseItem struct {
	ID         int64   `json:"id"`
	CreatedAt  string  `json:"created_at"`
	Type       string  `json:"type"`
	Amount     string  `json:"amount"`
	CourseCode *string `json:"course_code,omitempty"`
	ExpiresAt  *string `json:"expires_at,omitempty"`
}

// Index GET RouteGroup + TransactionsRoute. История транзакций текущего юзера, новые первыми.
func (h *TransactionHandler) Index(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	var query TransactionsQuery
	if bindErr := c.ShouldBindQuery(&query); bindErr != nil {
		_ = c.AbortWithError(http.StatusUnprocessableEntity, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	transactions, err := h.balanceService.ListTransactions(ctx, currentUserID, query.filter())
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	response := make([]TransactionResponseItem, len(transactions))
	for i, t := range transactions {
		item := TransactionResponseItem{
			ID:        t.ID,
			CreatedAt: t.CreatedAt.Format(dateTimeLayout),
			Type:      string(t.Type),
			Amount:    formatMoney(t.Amount),
			ExpiresAt: formatTime(t.ExpiresAt),
		}
		if t.Course != nil {
			code := t.Course.Code
			item.CourseCode = &code
		}
		response[i] = item
	}
	c.JSON(http.StatusOK, response)
}

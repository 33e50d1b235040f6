package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService    UserServicer
	balanceService BalanceServicer
}

func NewUserHandler(userService UserServicer, balanceService BalanceServicer) *UserHandler {
	return &UserHandler{
		userService:    userService,
		balanceService: balanceService,
	}
}

type CurrentUserResponse struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Balance  string   `json:"balance"`
}

// Current GET RouteGroup + CurrentUserRoute. Баланс считается по леджеру, а не берется из профиля.
func (h *UserHandler) Current(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	user, err := h.userService.GetByID(ctx, currentUserID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	balance, err := h.balanceService.GetBalance(ctx, currentUserID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, CurrentUserResponse{
		Username: user.Email,
		Roles:    user.Roles,
		Balance:  formatMoney(balance),
	})
}

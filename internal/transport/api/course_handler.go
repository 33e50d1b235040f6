package api

import (
	"context"
	"net/http"

	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	courseService  CourseServicer
	paymentService PaymentServicer
	balanceService BalanceServicer
}

func NewCourseHandler(
	courseService CourseServicer,
	paymentService PaymentServicer,
	balanceService BalanceServicer,
) *CourseHandler {
	return &CourseHandler{
		courseService:  courseService,
		paymentService: paymentService,
		balanceService: balanceService,
	}
}

type CourseURI struct {
	Code string `binding:"required,course_code" uri:"code"`
}

type CourseResponse struct {
	Code  string  `json:"code"`
	Title string  `json:"title"`
	Type  string  `json:"type"`
	Price *string `json:"price,omitempty"`
}

func newCourseResponse(course domain.Course) CourseResponse {
	resp := CourseResponse{
		Code:  course.Code,
		Title: course.Title,
		Type:  string(course.Type),
	}
	if course.Type != domain.CourseTypeFree && course.Price != nil {
		price := formatMoney(*course.Price)
		resp.Price = &price
	}
	return resp
}

// bindCourseURI при невалидном коде курса отвечает 404: такого курса заведомо нет.
func bindCourseURI(c *gin.Context) (string, bool) {
	var uri CourseURI
	if err := c.ShouldBindUri(&uri); err != nil {
		_ = c.AbortWithError(http.StatusNotFound, domain.ErrCourseNotFound).SetType(gin.ErrorTypePublic)
		return "", false
	}
	return uri.Code, true
}

// Index GET RouteGroup + CoursesRoute.
func (h *CourseHandler) Index(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	courses, err := h.courseService.List(ctx)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	response := make([]CourseResponse, len(courses))
	for i, course := range courses {
		response[i] = newCourseResponse(course)
	}
	c.JSON(http.StatusOK, response)
}

// Show GET RouteGroup + CourseRoute.
func (h *CourseHandler) Show(c *gin.Context) {
	code, ok := bindCourseURI(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	course, err := h.courseService.GetByCode(ctx, code)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCourseResponse(*course))
}

type PayResponse struct {
	Success    bool    `json:"success"`
	CourseType string  `json:"course_type"`
	ExpiresAt  *string `json:"expires_at,omitempty"`
}

// Pay POST RouteGroup + CoursePayRoute. Оплата курса с баланса текущего юзера.
// При нехватке средств отвечает 406 Not Acceptable.
func (h *CourseHandler) Pay(c *gin.Context) {
	code, ok := bindCourseURI(c)
	if !ok {
		return
	}
	currentUserID := getUserIDFromContext(c)

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	result, err := h.paymentService.PayForCourse(ctx, currentUserID, code)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, PayResponse{
		Success:    result.Success,
		CourseType: string(result.CourseType),
		ExpiresAt:  formatTime(result.ExpiresAt),
	})
}

type AccessResponse struct {
	Access    bool    `json:"access"`
	State     string  `json:"state"`
	ExpiresAt *string `json:"expires_at,omitempty"`
}

// Access GET RouteGroup + CourseAccessRoute. Текущий доступ юзера к курсу.
func (h *CourseHandler) Access(c *gin.Context) {
	code, ok := bindCourseURI(c)
	if !ok {
		return
	}
	currentUserID := getUserIDFromContext(c)

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	access, err := h.balanceService.CourseAccess(ctx, currentUserID, code)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, AccessResponse{
		Access:    access.HasAccess(),
		State:     string(access.State),
		ExpiresAt: formatTime(access.ExpiresAt),
	})
}

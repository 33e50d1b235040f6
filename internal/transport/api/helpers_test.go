package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestAbortWithServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantPublic bool
	}{
		{name: "not enough balance", err: fmt.Errorf("pay: %w", domain.ErrNotEnoughBalance),
			wantStatus: http.StatusNotAcceptable, wantPublic: true},
		{name: "course not found", err: fmt.Errorf("pay: %w", domain.ErrCourseNotFound),
			wantStatus: http.StatusNotFound, wantPublic: true},
		{name: "record not found", err: domain.ErrRecordNotFound, wantStatus: http.StatusNotFound},
		{name: "validation", err: domain.ErrValidation, wantStatus: http.StatusUnprocessableEntity},
		{name: "retryable", err: fmt.Errorf("lock: %w", domain.ErrRetryable),
			wantStatus: http.StatusServiceUnavailable},
		{name: "deadline", err: context.DeadlineExceeded, wantStatus: http.StatusServiceUnavailable},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)

			abortWithServiceError(c, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.True(t, c.IsAborted())
			assert.Len(t, c.Errors, 1)
			assert.Equal(t, tc.wantPublic, c.Errors[0].IsType(gin.ErrorTypePublic))
			if tc.wantStatus == http.StatusServiceUnavailable {
				assert.Equal(t, "2", rec.Result().Header.Get("Retry-After")) //nolint:bodyclose
			}
		})
	}
}

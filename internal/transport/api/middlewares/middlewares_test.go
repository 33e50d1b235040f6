package middlewares

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fsdevblog/study-billing/internal/service/tokens"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type MiddlewaresTestSuite struct {
	suite.Suite
	router *gin.Engine
	secret []byte
}

func TestMiddlewaresSuite(t *testing.T) {
	suite.Run(t, new(MiddlewaresTestSuite))
}

func (s *MiddlewaresTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.secret = []byte("secret")

	l := logrus.New()
	l.SetOutput(io.Discard)

	s.router = gin.New()
	s.router.Use(Logger(l), Errors())
	s.router.GET("/public", func(c *gin.Context) {
		_ = c.AbortWithError(http.StatusNotAcceptable, errors.New("not enough funds on the account")).
			SetType(gin.ErrorTypePublic)
	})
	s.router.GET("/private", func(c *gin.Context) {
		_ = c.AbortWithError(http.StatusServiceUnavailable, errors.New("pg: deadlock detected")).
			SetType(gin.ErrorTypePrivate)
	})
	s.router.GET("/me", AuthRequired(s.secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetInt64(CurrentUserIDKey)})
	})
	s.router.POST("/login", NonAuthRequired(s.secret), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

func (s *MiddlewaresTestSuite) do(method, url string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *MiddlewaresTestSuite) TestErrors_Public() {
	rec := s.do(http.MethodGet, "/public", map[string]string{"Accept": "application/json"})
	s.Equal(http.StatusNotAcceptable, rec.Code)

	var body map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("not enough funds on the account", body["error"])
	s.Equal(rec.Header().Get(RequestIDHeader), body["request_id"])
}

func (s *MiddlewaresTestSuite) TestErrors_PrivateHidden() {
	rec := s.do(http.MethodGet, "/private", nil)
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Equal("service temporarily unavailable, retry later", rec.Body.String())
}

func (s *MiddlewaresTestSuite) TestLogger_RequestID() {
	given := uuid.NewString()
	rec := s.do(http.MethodGet, "/public", map[string]string{RequestIDHeader: given})
	s.Equal(given, rec.Header().Get(RequestIDHeader))

	rec = s.do(http.MethodGet, "/public", map[string]string{RequestIDHeader: "not-a-uuid"})
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	s.NoError(err)
}

func (s *MiddlewaresTestSuite) TestAuth() {
	token, err := tokens.GenerateUserJWT(7, time.Hour, s.secret)
	s.Require().NoError(err)

	rec := s.do(http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + token})
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"id":7}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/me", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/me", map[string]string{"Authorization": "Bearer broken"})
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/login", map[string]string{"Authorization": "Bearer " + token})
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/login", nil)
	s.Equal(http.StatusNoContent, rec.Code)
}

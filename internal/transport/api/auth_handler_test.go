package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/fsdevblog/study-billing/internal/logger"
	"github.com/fsdevblog/study-billing/internal/service"
	"github.com/fsdevblog/study-billing/internal/transport/api/mocks"
	"github.com/fsdevblog/study-billing/internal/transport/api/testutils"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

type AuthHandlerTestSuite struct {
	suite.Suite
	router          *gin.Engine
	mockUserService *mocks.MockUserServicer
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}

func (s *AuthHandlerTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())
	s.mockUserService = mocks.NewMockUserServicer(mockCtrl)

	router, err := New(RouterArgs{
		Logger:       logger.New(io.Discard),
		UserService:  s.mockUserService,
		JWTSecretKey: []byte("super secret key"),
	})
	s.Require().NoError(err)
	s.router = router
}

func (s *AuthHandlerTestSuite) post(url string, payload any) *http.Response {
	resp, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    url,
	}, testutils.WithJSON(payload))
	s.Require().NoError(err)
	return resp
}

func (s *AuthHandlerTestSuite) TestRegister() {
	email := gofakeit.Email()
	duplicate := gofakeit.Email()

	s.mockUserService.EXPECT().
		Register(gomock.Any(), service.RegisterUserArgs{Email: email, Password: "password"}).
		Return(&domain.User{ID: 1, Email: email}, "jwt-token", nil)
	s.mockUserService.EXPECT().
		Register(gomock.Any(), service.RegisterUserArgs{Email: duplicate, Password: "password"}).
		Return(nil, "", fmt.Errorf("registering user: %w", domain.ErrDuplicateKey))

	cases := []struct {
		name       string
		payload    map[string]string
		wantStatus int
		wantToken  string
	}{
		{
			name:       "ok",
			payload:    map[string]string{"username": email, "password": "password"},
			wantStatus: http.StatusCreated,
			wantToken:  "jwt-token",
		},
		{
			name:       "duplicate email",
			payload:    map[string]string{"username": duplicate, "password": "password"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "invalid email",
			payload:    map[string]string{"username": "not an email", "password": "password"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "password over 72 bytes",
			payload:    map[string]string{"username": email, "password": testutils.GenerateOverBytesUnderRunes(20)},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			resp := s.post(RouteGroup+RegisterRoute, t.payload)
			defer resp.Body.Close()
			s.Equal(t.wantStatus, resp.StatusCode)

			if t.wantToken != "" {
				var body TokenResponse
				s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
				s.Equal(t.wantToken, body.Token)
				s.Equal("Bearer "+t.wantToken, resp.Header.Get("Authorization"))
			}
		})
	}
}

func (s *AuthHandlerTestSuite) TestLogin() {
	s.mockUserService.EXPECT().
		Login(gomock.Any(), service.LoginUserArgs{Email: "user@example.com", Password: "password"}).
		Return(&domain.User{ID: 1}, "jwt-token", nil)
	s.mockUserService.EXPECT().
		Login(gomock.Any(), service.LoginUserArgs{Email: "user@example.com", Password: "wrong"}).
		Return(nil, "", fmt.Errorf("login: %w", domain.ErrPasswordMissMatch))

	resp := s.post(RouteGroup+LoginRoute, map[string]string{"username": "user@example.com", "password": "password"})
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	respWrong := s.post(RouteGroup+LoginRoute, map[string]string{"username": "user@example.com", "password": "wrong"})
	defer respWrong.Body.Close()
	s.Equal(http.StatusUnauthorized, respWrong.StatusCode)
}

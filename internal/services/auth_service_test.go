package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/ustock-backend/internal/config"
	"github.com/javajoker/ustock-backend/internal/database/dbtest"
	"github.com/javajoker/ustock-backend/internal/utils"
)

type AuthServiceTestSuite struct {
	suite.Suite
	db  *gorm.DB
	svc *AuthService
}

func (suite *AuthServiceTestSuite) SetupSuite() {
	utils.SetJWTSecret("auth-service-test-secret")
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.db = dbtest.New(suite.T())
	suite.svc = NewAuthService(suite.db, &config.Config{
		JWT: config.JWTConfig{AccessTokenTTL: 1, RefreshTokenTTL: 24},
	})
}

func (suite *AuthServiceTestSuite) registerRequest() *RegisterRequest {
	return &RegisterRequest{
		FirstName: "Marie",
		LastName:  "Curie",
		Username:  "marie_c",
		Email:     "Marie@Example.com",
		Password:  "radium1898",
	}
}

func (suite *AuthServiceTestSuite) TestRegisterAndVerify() {
	ctx := context.Background()

	resp, err := suite.svc.Register(ctx, suite.registerRequest())
	suite.Require().NoError(err)
	suite.Equal("marie@example.com", resp.User.Email)
	suite.NotEmpty(resp.AccessToken)
	suite.NotEmpty(resp.RefreshToken)
	suite.Equal("Bearer", resp.TokenType)
	suite.Equal(3600, resp.ExpiresIn)
	suite.NotEqual("radium1898", resp.User.PasswordHash)

	principal, err := suite.svc.Verify(ctx, resp.AccessToken)
	suite.Require().NoError(err)
	suite.Equal(resp.User.ID, principal.UserID)
	suite.Equal("marie_c", principal.Username)
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicates() {
	ctx := context.Background()
	_, err := suite.svc.Register(ctx, suite.registerRequest())
	suite.Require().NoError(err)

	sameUsername := suite.registerRequest()
	sameUsername.Email = "other@example.com"
	_, err = suite.svc.Register(ctx, sameUsername)
	suite.ErrorIs(err, ErrConflict)

	sameEmail := suite.registerRequest()
	sameEmail.Username = "someone_else"
	_, err = suite.svc.Register(ctx, sameEmail)
	suite.ErrorIs(err, ErrConflict)
}

func (suite *AuthServiceTestSuite) TestRegisterValidation() {
	req := suite.registerRequest()
	req.Username = "a b"
	_, err := suite.svc.Register(context.Background(), req)
	suite.ErrorIs(err, ErrInvalidInput)

	req = suite.registerRequest()
	req.Password = "short"
	_, err = suite.svc.Register(context.Background(), req)
	suite.ErrorIs(err, ErrInvalidInput)
}

func (suite *AuthServiceTestSuite) TestRegisterUnknownFamily() {
	req := suite.registerRequest()
	familyID := dbtest.NewID()
	req.FamilyID = &familyID

	_, err := suite.svc.Register(context.Background(), req)
	suite.ErrorIs(err, ErrNotFound)
}

func (suite *AuthServiceTestSuite) TestLogin() {
	ctx := context.Background()
	dbtest.CreateUser(suite.T(), suite.db, "alice")

	resp, err := suite.svc.Login(ctx, &LoginRequest{Username: "alice", Password: "Password123!"})
	suite.Require().NoError(err)
	suite.Equal("alice", resp.User.Username)

	_, err = suite.svc.Login(ctx, &LoginRequest{Username: "alice", Password: "wrong-password"})
	suite.ErrorIs(err, ErrUnauthorized)

	_, err = suite.svc.Login(ctx, &LoginRequest{Username: "nobody", Password: "Password123!"})
	suite.ErrorIs(err, ErrUnauthorized)
}

func (suite *AuthServiceTestSuite) TestVerifyRejectsBadTokens() {
	ctx := context.Background()
	user := dbtest.CreateUser(suite.T(), suite.db, "alice")

	_, err := suite.svc.Verify(ctx, "not-a-token")
	suite.ErrorIs(err, ErrUnauthorized)

	refresh, err := utils.GenerateRefreshToken(user.ID, 1)
	suite.Require().NoError(err)
	_, err = suite.svc.Verify(ctx, refresh)
	suite.ErrorIs(err, ErrUnauthorized)

	expired, err := utils.GenerateJWT(user.ID, user.Username, user.Email, -1)
	suite.Require().NoError(err)
	_, err = suite.svc.Verify(ctx, expired)
	suite.ErrorIs(err, ErrUnauthorized)
}

func (suite *AuthServiceTestSuite) TestTokensOfDeletedAccountStopWorking() {
	ctx := context.Background()
	resp, err := suite.svc.Register(ctx, suite.registerRequest())
	suite.Require().NoError(err)

	principal, err := suite.svc.Verify(ctx, resp.AccessToken)
	suite.Require().NoError(err)
	suite.Require().NoError(NewUserService(suite.db).DeleteAccount(ctx, *principal))

	_, err = suite.svc.Verify(ctx, resp.AccessToken)
	suite.ErrorIs(err, ErrUnauthorized)

	_, err = suite.svc.RefreshToken(ctx, resp.RefreshToken)
	suite.ErrorIs(err, ErrUnauthorized)
}

func (suite *AuthServiceTestSuite) TestRefreshToken() {
	ctx := context.Background()
	resp, err := suite.svc.Register(ctx, suite.registerRequest())
	suite.Require().NoError(err)

	refreshed, err := suite.svc.RefreshToken(ctx, resp.RefreshToken)
	suite.Require().NoError(err)
	suite.Equal(resp.User.ID, refreshed.User.ID)

	_, err = suite.svc.Verify(ctx, refreshed.AccessToken)
	suite.NoError(err)

	_, err = suite.svc.RefreshToken(ctx, "garbage")
	suite.ErrorIs(err, ErrUnauthorized)
}

func (suite *AuthServiceTestSuite) TestAccessTokenCannotRefresh() {
	ctx := context.Background()
	resp, err := suite.svc.Register(ctx, suite.registerRequest())
	suite.Require().NoError(err)

	refreshed, err := suite.svc.RefreshToken(ctx, resp.AccessToken)
	suite.ErrorIs(err, ErrUnauthorized)
	suite.Nil(refreshed)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

// internal/services/auth_service_test.go
package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/licensechain/internal/config"
	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/utils"
	"github.com/javajoker/licensechain/internal/wallet"
)

type AuthServiceTestSuite struct {
	suite.Suite
	redis   *miniredis.Miniredis
	store   *RedisSessionStore
	service *AuthService
	admin   actor
	user    actor
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.redis = miniredis.RunT(suite.T())
	client := redis.NewClient(&redis.Options{Addr: suite.redis.Addr()})
	suite.T().Cleanup(func() { client.Close() })

	suite.admin = newActor(suite.T())
	suite.user = newActor(suite.T())

	cfg := &config.Config{
		JWT:   config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: 1},
		Redis: config.RedisConfig{NonceTTL: 300},
	}
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	suite.store = NewRedisSessionStore(client)
	identity := NewIdentityService(staticAdmins{suite.admin.Address(): true}, testLogger())
	suite.service = NewAuthService(suite.store, identity, cfg, testLogger())
}

func (suite *AuthServiceTestSuite) login(who actor) (*AuthResponse, error) {
	ctx := context.Background()
	nonce, err := suite.service.IssueNonce(ctx, &NonceRequest{Address: strings.ToLower(who.Address())})
	suite.Require().NoError(err)
	suite.Equal(who.Address(), nonce.Address)
	suite.Contains(nonce.Message, nonce.Nonce)

	sig, err := wallet.SignMessage(who.key, []byte(nonce.Message))
	suite.Require().NoError(err)
	return suite.service.Connect(ctx, &ConnectRequest{Address: who.Address(), Signature: sig})
}

func (suite *AuthServiceTestSuite) TestAdminConnects() {
	resp, err := suite.login(suite.admin)
	suite.Require().NoError(err)
	suite.True(resp.Session.IsAuthorized)
	suite.Equal(suite.admin.Address(), resp.Session.ConnectedAddress)
	suite.Equal("Bearer", resp.TokenType)

	claims, err := utils.ValidateJWT(resp.AccessToken)
	suite.Require().NoError(err)
	suite.Equal(strings.ToLower(suite.admin.Address()), claims.Address)
}

func (suite *AuthServiceTestSuite) TestApplicantConnectsWithoutAdmin() {
	resp, err := suite.login(suite.user)
	suite.Require().NoError(err)
	suite.False(resp.Session.IsAuthorized)
	suite.True(resp.Session.IsConnected())
}

func (suite *AuthServiceTestSuite) TestNonceIsSingleUse() {
	ctx := context.Background()
	nonce, err := suite.service.IssueNonce(ctx, &NonceRequest{Address: suite.user.Address()})
	suite.Require().NoError(err)
	sig, err := wallet.SignMessage(suite.user.key, []byte(nonce.Message))
	suite.Require().NoError(err)

	req := &ConnectRequest{Address: suite.user.Address(), Signature: sig}
	_, err = suite.service.Connect(ctx, req)
	suite.Require().NoError(err)

	_, err = suite.service.Connect(ctx, req)
	suite.ErrorIs(err, models.ErrUserRejected)
}

func (suite *AuthServiceTestSuite) TestNonceExpires() {
	ctx := context.Background()
	nonce, err := suite.service.IssueNonce(ctx, &NonceRequest{Address: suite.user.Address()})
	suite.Require().NoError(err)
	sig, _ := wallet.SignMessage(suite.user.key, []byte(nonce.Message))

	suite.redis.FastForward(301 * time.Second)

	_, err = suite.service.Connect(ctx, &ConnectRequest{Address: suite.user.Address(), Signature: sig})
	suite.ErrorIs(err, models.ErrUserRejected)
}

func (suite *AuthServiceTestSuite) TestWrongSignerRejected() {
	ctx := context.Background()
	nonce, err := suite.service.IssueNonce(ctx, &NonceRequest{Address: suite.admin.Address()})
	suite.Require().NoError(err)

	// The applicant signs the admin's challenge.
	sig, _ := wallet.SignMessage(suite.user.key, []byte(nonce.Message))
	_, err = suite.service.Connect(ctx, &ConnectRequest{Address: suite.admin.Address(), Signature: sig})
	suite.ErrorIs(err, models.ErrUserRejected)
}

func (suite *AuthServiceTestSuite) TestInvalidAddress() {
	_, err := suite.service.IssueNonce(context.Background(), &NonceRequest{Address: "not-an-address"})
	suite.Error(err)
}

func (suite *AuthServiceTestSuite) TestDisconnectRevokesToken() {
	resp, err := suite.login(suite.user)
	suite.Require().NoError(err)
	claims, err := utils.ValidateJWT(resp.AccessToken)
	suite.Require().NoError(err)

	ctx := context.Background()
	revoked, err := suite.service.IsRevoked(ctx, claims.ID)
	suite.Require().NoError(err)
	suite.False(revoked)

	suite.Require().NoError(suite.service.Disconnect(ctx, claims))

	revoked, err = suite.service.IsRevoked(ctx, claims.ID)
	suite.Require().NoError(err)
	suite.True(revoked)
}

func (suite *AuthServiceTestSuite) TestSessionRecomputesAdmin() {
	session := suite.service.Session(strings.ToLower(suite.admin.Address()))
	suite.True(session.IsAuthorized)
	suite.Equal(suite.admin.Address(), session.ConnectedAddress)

	session = suite.service.Session(suite.user.Address())
	suite.False(session.IsAuthorized)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

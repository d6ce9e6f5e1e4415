// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/licensechain/internal/config"
	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/utils"
	"github.com/javajoker/licensechain/internal/wallet"
)

// AuthService implements wallet login: a one-time nonce is signed with
// personal_sign and exchanged for a session token that names the address.
type AuthService struct {
	store    SessionStore
	identity *IdentityService
	cfg      *config.Config
	log      *logrus.Entry
}

type NonceRequest struct {
	Address string `json:"address" validate:"required,eth_address"`
}

type NonceResponse struct {
	Address   string `json:"address"`
	Nonce     string `json:"nonce"`
	Message   string `json:"message"`
	ExpiresIn int    `json:"expires_in"` // in seconds
}

type ConnectRequest struct {
	Address   string `json:"address" validate:"required,eth_address"`
	Signature string `json:"signature" validate:"required"`
}

type AuthResponse struct {
	Session     models.AdminSession `json:"session"`
	AccessToken string              `json:"access_token"`
	TokenType   string              `json:"token_type"`
	ExpiresIn   int                 `json:"expires_in"` // in seconds
}

func NewAuthService(store SessionStore, identity *IdentityService, cfg *config.Config, logger *logrus.Logger) *AuthService {
	return &AuthService{
		store:    store,
		identity: identity,
		cfg:      cfg,
		log:      logger.WithField("component", "auth"),
	}
}

func (s *AuthService) IssueNonce(ctx context.Context, req *NonceRequest) (*NonceResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	nonce, err := utils.GenerateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	address := common.HexToAddress(req.Address).Hex()
	ttl := time.Duration(s.cfg.Redis.NonceTTL) * time.Second
	if err := s.store.SaveNonce(ctx, address, nonce, ttl); err != nil {
		return nil, fmt.Errorf("failed to store nonce: %w", err)
	}

	return &NonceResponse{
		Address:   address,
		Nonce:     nonce,
		Message:   wallet.LoginMessage(address, nonce),
		ExpiresIn: s.cfg.Redis.NonceTTL,
	}, nil
}

// Connect redeems the nonce. A missing nonce or a bad signature is a
// rejected connection.
func (s *AuthService) Connect(ctx context.Context, req *ConnectRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	address := common.HexToAddress(req.Address).Hex()
	nonce, err := s.store.ConsumeNonce(ctx, address)
	if err != nil {
		if errors.Is(err, ErrNonceNotFound) {
			return nil, fmt.Errorf("%w: %v", models.ErrUserRejected, err)
		}
		return nil, fmt.Errorf("failed to read nonce: %w", err)
	}

	if err := wallet.VerifySignature(address, []byte(wallet.LoginMessage(address, nonce)), req.Signature); err != nil {
		s.log.WithField("wallet", address).WithError(err).Warn("login signature rejected")
		return nil, fmt.Errorf("%w: %v", models.ErrUserRejected, err)
	}

	accessToken, err := utils.GenerateJWT(address, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	session := s.Session(address)
	s.log.WithFields(logrus.Fields{
		"wallet":   address,
		"is_admin": session.IsAuthorized,
	}).Info("wallet connected")

	return &AuthResponse{
		Session:     session,
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}

// Session recomputes the admin session for an already proven address.
func (s *AuthService) Session(address string) models.AdminSession {
	var session models.AdminSession
	if common.IsHexAddress(address) {
		address = common.HexToAddress(address).Hex()
	}
	session.Connect(address, s.identity)
	return session
}

// Disconnect revokes the token until it would have expired anyway.
func (s *AuthService) Disconnect(ctx context.Context, claims *utils.WalletClaims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Hour
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	return s.store.Revoke(ctx, claims.ID, ttl)
}

func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	return s.store.IsRevoked(ctx, jti)
}

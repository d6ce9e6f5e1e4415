// internal/services/identity_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/wallet"
)

// IdentityService resolves which wallet is connected and whether it is an
// admin. It keeps no session state of its own.
type IdentityService struct {
	admins models.AdminChecker
	log    *logrus.Entry
}

func NewIdentityService(admins models.AdminChecker, logger *logrus.Logger) *IdentityService {
	return &IdentityService{
		admins: admins,
		log:    logger.WithField("component", "identity"),
	}
}

// ResolveIdentity asks the provider for its active account and returns a
// session with authorization computed from that address.
func (s *IdentityService) ResolveIdentity(ctx context.Context, provider wallet.Provider) (models.AdminSession, error) {
	var session models.AdminSession
	if provider == nil {
		return session, models.ErrNoWalletProvider
	}

	accounts, err := provider.RequestAccounts(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNoWalletProvider) || errors.Is(err, models.ErrUserRejected) {
			return session, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return session, ctxErr
		}
		return session, fmt.Errorf("%w: %v", models.ErrUserRejected, err)
	}
	if len(accounts) == 0 || accounts[0] == (common.Address{}) {
		return session, models.ErrNoWalletProvider
	}

	session.Connect(accounts[0].Hex(), s.admins)
	s.log.WithFields(logrus.Fields{
		"wallet":   session.ConnectedAddress,
		"is_admin": session.IsAuthorized,
	}).Debug("identity resolved")
	return session, nil
}

func (s *IdentityService) IsAdmin(address string) bool {
	if s.admins == nil {
		return false
	}
	return s.admins.IsAdmin(address)
}

// internal/services/helpers_test.go
package services

import (
	"context"
	"crypto/ecdsa"
	"io"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/licensechain/internal/blockchain"
	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/wallet"
)

var testChainID = big.NewInt(1337)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type staticAdmins map[string]bool

func (s staticAdmins) IsAdmin(address string) bool {
	for admin := range s {
		if address != "" && strings.EqualFold(admin, address) {
			return true
		}
	}
	return false
}

type actor struct {
	key      *ecdsa.PrivateKey
	provider *wallet.PrivateKeyProvider
}

func newActor(t *testing.T) actor {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return actor{key: key, provider: wallet.NewPrivateKeyProvider(key, testChainID)}
}

func (a actor) Address() string {
	return a.provider.Address().Hex()
}

// ledgerFixture is a simulated ledger with one admin and one applicant.
type ledgerFixture struct {
	ledger    *blockchain.MemoryLedger
	admin     actor
	applicant actor
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	admin := newActor(t)
	return &ledgerFixture{
		ledger:    blockchain.NewMemoryLedger(admin.provider.Address()),
		admin:     admin,
		applicant: newActor(t),
	}
}

func (f *ledgerFixture) apply(t *testing.T, who actor, name string) uint64 {
	t.Helper()
	ctx := context.Background()
	opts, err := who.provider.Signer(ctx, who.provider.Address())
	require.NoError(t, err)

	tx, err := f.ledger.ApplyForLicense(ctx, opts, models.LicenseInput{
		BusinessName: name,
		Email:        "owner@example.com",
		LicenseType:  "Trading",
		Sector:       "Retail",
		DocumentRef:  "https://gateway.pinata.cloud/ipfs/QmDoc",
	})
	require.NoError(t, err)
	receipt, err := f.ledger.WaitMined(ctx, tx)
	require.NoError(t, err)
	id, err := blockchain.ParseLicenseApplied(receipt)
	require.NoError(t, err)
	return id
}

func (f *ledgerFixture) act(t *testing.T, id uint64, action models.AdminAction) {
	t.Helper()
	ctx := context.Background()
	opts, err := f.admin.provider.Signer(ctx, f.admin.provider.Address())
	require.NoError(t, err)

	switch action {
	case models.AdminActionApprove:
		_, err = f.ledger.ApproveLicense(ctx, opts, id)
	case models.AdminActionReject:
		_, err = f.ledger.RejectLicense(ctx, opts, id)
	case models.AdminActionRevoke:
		_, err = f.ledger.RevokeLicense(ctx, opts, id)
	}
	require.NoError(t, err)
}

func (f *ledgerFixture) admins() staticAdmins {
	return staticAdmins{f.admin.Address(): true}
}

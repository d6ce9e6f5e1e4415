// internal/blockchain/ledger.go
package blockchain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/javajoker/licensechain/internal/models"
)

// Ledger is the read/write surface of the LicenseChain contract. Writes
// return once the transaction is dispatched; WaitMined blocks until the
// ledger acknowledges it.
type Ledger interface {
	LicenseCount(ctx context.Context) (uint64, error)
	GetLicense(ctx context.Context, id uint64) (*models.LicenseRecord, error)
	ApplyForLicense(ctx context.Context, opts *bind.TransactOpts, input models.LicenseInput) (*types.Transaction, error)
	ApproveLicense(ctx context.Context, opts *bind.TransactOpts, id uint64) (*types.Transaction, error)
	RejectLicense(ctx context.Context, opts *bind.TransactOpts, id uint64) (*types.Transaction, error)
	RevokeLicense(ctx context.Context, opts *bind.TransactOpts, id uint64) (*types.Transaction, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// ClassifyWriteError maps a dispatch failure onto the failure taxonomy:
// signer refusals become ErrTransactionRejected and contract reverts become
// ErrTransactionReverted. Anything else is returned unchanged.
func ClassifyWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrTransactionRejected) || errors.Is(err, models.ErrTransactionReverted) {
		return err
	}
	if errors.Is(err, keystore.ErrLocked) || errors.Is(err, bind.ErrNotAuthorized) {
		return fmt.Errorf("%w: %v", models.ErrTransactionRejected, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "user denied"), strings.Contains(msg, "user rejected"):
		return fmt.Errorf("%w: %v", models.ErrTransactionRejected, err)
	case strings.Contains(msg, "execution reverted"), strings.Contains(msg, "revert"):
		return fmt.Errorf("%w: %v", models.ErrTransactionReverted, err)
	}
	return err
}

// RevertReason extracts the human readable part of a revert error, if any.
func RevertReason(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if idx := strings.Index(msg, "execution reverted:"); idx >= 0 {
		return strings.TrimSpace(msg[idx+len("execution reverted:"):])
	}
	return ""
}

// internal/services/blockchain_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/licensechain/internal/blockchain"
	"github.com/javajoker/licensechain/internal/metrics"
	"github.com/javajoker/licensechain/internal/models"
)

// BlockchainService wraps a Ledger with logging, metrics and the failure
// taxonomy. It satisfies blockchain.Ledger itself.
type BlockchainService struct {
	ledger blockchain.Ledger
	log    *logrus.Entry
}

func NewBlockchainService(ledger blockchain.Ledger, logger *logrus.Logger) *BlockchainService {
	return &BlockchainService{
		ledger: ledger,
		log:    logger.WithField("component", "ledger"),
	}
}

func (s *BlockchainService) LicenseCount(ctx context.Context) (uint64, error) {
	start := time.Now()
	count, err := s.ledger.LicenseCount(ctx)
	metrics.RecordLedgerCall(blockchain.MethodLicenseCount, start, err)
	if err != nil {
		s.log.WithError(err).Warn("licenseCount failed")
		return 0, readFailure(blockchain.MethodLicenseCount, err)
	}
	return count, nil
}

func (s *BlockchainService) GetLicense(ctx context.Context, id uint64) (*models.LicenseRecord, error) {
	start := time.Now()
	record, err := s.ledger.GetLicense(ctx, id)
	metrics.RecordLedgerCall(blockchain.MethodGetLicense, start, err)
	if err != nil {
		s.log.WithError(err).WithField("license_id", id).Warn("getLicense failed")
		return nil, readFailure(blockchain.MethodGetLicense, err)
	}
	return record, nil
}

func (s *BlockchainService) ApplyForLicense(ctx context.Context, opts *bind.TransactOpts, input models.LicenseInput) (*types.Transaction, error) {
	return s.write(blockchain.MethodApplyForLicense, 0, func() (*types.Transaction, error) {
		return s.ledger.ApplyForLicense(ctx, opts, input)
	})
}

func (s *BlockchainService) ApproveLicense(ctx context.Context, opts *bind.TransactOpts, id uint64) (*types.Transaction, error) {
	return s.write(blockchain.MethodApproveLicense, id, func() (*types.Transaction, error) {
		return s.ledger.ApproveLicense(ctx, opts, id)
	})
}

func (s *BlockchainService) RejectLicense(ctx context.Context, opts *bind.TransactOpts, id uint64) (*types.Transaction, error) {
	return s.write(blockchain.MethodRejectLicense, id, func() (*types.Transaction, error) {
		return s.ledger.RejectLicense(ctx, opts, id)
	})
}

func (s *BlockchainService) RevokeLicense(ctx context.Context, opts *bind.TransactOpts, id uint64) (*types.Transaction, error) {
	return s.write(blockchain.MethodRevokeLicense, id, func() (*types.Transaction, error) {
		return s.ledger.RevokeLicense(ctx, opts, id)
	})
}

func (s *BlockchainService) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	start := time.Now()
	receipt, err := s.ledger.WaitMined(ctx, tx)
	metrics.RecordLedgerCall("waitMined", start, err)

	fields := logrus.Fields{"tx_hash": tx.Hash().Hex()}
	if err != nil {
		s.log.WithFields(fields).WithError(err).Warn("transaction not confirmed")
		return receipt, blockchain.ClassifyWriteError(err)
	}
	fields["block"] = receipt.BlockNumber
	s.log.WithFields(fields).Info("transaction confirmed")
	return receipt, nil
}

func (s *BlockchainService) write(method string, id uint64, call func() (*types.Transaction, error)) (*types.Transaction, error) {
	start := time.Now()
	tx, err := call()
	err = blockchain.ClassifyWriteError(err)
	metrics.RecordLedgerCall(method, start, err)

	entry := s.log.WithField("method", method)
	if id != 0 {
		entry = entry.WithField("license_id", id)
	}
	if err != nil {
		if reason := blockchain.RevertReason(err); reason != "" {
			entry = entry.WithField("revert_reason", reason)
		}
		entry.WithError(err).Warn("ledger write failed")
		return nil, err
	}
	entry.WithField("tx_hash", tx.Hash().Hex()).Info("ledger write dispatched")
	return tx, nil
}

func readFailure(method string, err error) error {
	if errors.Is(err, models.ErrLedgerReadFailure) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", models.ErrLedgerReadFailure, method, err)
}

// internal/app/bootstrap.go
package app

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/licensechain/internal/blockchain"
	"github.com/javajoker/licensechain/internal/config"
	"github.com/javajoker/licensechain/internal/services"
	"github.com/javajoker/licensechain/internal/wallet"
)

// NewLogger builds the process logger. Production defaults to JSON.
func NewLogger(cfg config.LoggingConfig, environment string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	format := strings.ToLower(cfg.Format)
	if format == "" && environment == "production" {
		format = "json"
	}
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// LedgerHandle is an opened ledger plus the operator key that signs on the
// server's behalf.
type LedgerHandle struct {
	Ledger    *services.BlockchainService
	ChainID   *big.Int
	Operator  *wallet.PrivateKeyProvider
	// ContractAdmin is the only address the ledger lets approve, reject
	// or revoke.
	ContractAdmin common.Address
	Simulated     bool
	Memory    *blockchain.MemoryLedger

	close func()
}

func (h *LedgerHandle) Close() {
	if h.close != nil {
		h.close()
	}
}

// OpenLedger dials the configured contract, or starts an in-process ledger
// administered by the operator key when no RPC endpoint is set.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*LedgerHandle, error) {
	if cfg.Blockchain.Simulated() {
		return openSimulated(cfg, logger)
	}

	contract, err := blockchain.Dial(ctx, cfg.Blockchain.RPC_URL, cfg.Blockchain.ContractAddress)
	if err != nil {
		return nil, err
	}

	chainID, err := contract.ChainID(ctx)
	if err != nil {
		logger.WithError(err).Warn("chain id lookup failed, using configured value")
		chainID = big.NewInt(cfg.Blockchain.ChainID)
	} else if cfg.Blockchain.ChainID != 0 && chainID.Int64() != cfg.Blockchain.ChainID {
		contract.Close()
		return nil, fmt.Errorf("RPC endpoint serves chain %s, configured %d", chainID, cfg.Blockchain.ChainID)
	}

	handle := &LedgerHandle{
		Ledger:  services.NewBlockchainService(contract, logger),
		ChainID: chainID,
		close:   contract.Close,
	}
	if cfg.Blockchain.PrivateKey != "" {
		operator, err := wallet.ParsePrivateKey(cfg.Blockchain.PrivateKey, chainID)
		if err != nil {
			contract.Close()
			return nil, err
		}
		handle.Operator = operator
	}

	entry := logger.WithFields(logrus.Fields{
		"network":  cfg.Blockchain.Network,
		"chain_id": chainID,
		"contract": contract.Address().Hex(),
		"operator": operatorAddress(handle.Operator),
	})
	if admin, err := contract.Admin(ctx); err != nil {
		entry.WithError(err).Warn("contract admin lookup failed")
	} else {
		handle.ContractAdmin = admin
		entry = entry.WithField("contract_admin", admin.Hex())
		if handle.Operator != nil && handle.Operator.Address() != admin {
			entry.Warn("operator key is not the contract admin; admin writes it signs will revert")
		}
	}
	entry.Info("ledger connected")
	return handle, nil
}

func openSimulated(cfg *config.Config, logger *logrus.Logger) (*LedgerHandle, error) {
	chainID := big.NewInt(cfg.Blockchain.ChainID)

	var operator *wallet.PrivateKeyProvider
	if cfg.Blockchain.PrivateKey != "" {
		parsed, err := wallet.ParsePrivateKey(cfg.Blockchain.PrivateKey, chainID)
		if err != nil {
			return nil, err
		}
		operator = parsed
	} else {
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate operator key: %w", err)
		}
		operator = wallet.NewPrivateKeyProvider(key, chainID)
	}

	memory := blockchain.NewMemoryLedger(operator.Address())
	logger.WithFields(logrus.Fields{
		"contract": memory.Address().Hex(),
		"admin":    operator.Address().Hex(),
	}).Warn("no BLOCKCHAIN_RPC_URL set, using an in-process ledger; state is lost on exit")

	return &LedgerHandle{
		Ledger:        services.NewBlockchainService(memory, logger),
		ChainID:       chainID,
		Operator:      operator,
		ContractAdmin: memory.Admin(),
		Simulated:     true,
		Memory:        memory,
	}, nil
}

func operatorAddress(p *wallet.PrivateKeyProvider) string {
	if p == nil {
		return ""
	}
	return p.Address().Hex()
}

// internal/blockchain/memory.go
package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/javajoker/licensechain/internal/models"
)

// DefaultLicenseTerm is how long an approved license stays valid.
const DefaultLicenseTerm = 365 * 24 * time.Hour

// MemoryLedger simulates the LicenseChain contract in process. It follows the
// contract's rules: only the admin may change a status, Pending licenses can
// be approved or rejected, and only Approved licenses can be revoked.
type MemoryLedger struct {
	mu       sync.Mutex
	address  common.Address
	admin    common.Address
	licenses []models.LicenseRecord
	receipts map[common.Hash]*types.Receipt
	nonce    uint64
	block    int64

	Term time.Duration
	Now  func() time.Time
}

func NewMemoryLedger(admin common.Address) *MemoryLedger {
	return &MemoryLedger{
		address:  common.HexToAddress("0x00000000000000000000000000000000000114c3"),
		admin:    admin,
		receipts: make(map[common.Hash]*types.Receipt),
		Term:     DefaultLicenseTerm,
		Now:      time.Now,
	}
}

func (l *MemoryLedger) Address() common.Address {
	return l.address
}

func (l *MemoryLedger) Admin() common.Address {
	return l.admin
}

func (l *MemoryLedger) LicenseCount(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return uint64(len(l.licenses)), nil
}

// GetLicense returns a zero record for unknown ids, like a Solidity mapping.
func (l *MemoryLedger) GetLicense(ctx context.Context, id uint64) (*models.LicenseRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if id == 0 || id > uint64(len(l.licenses)) {
		return &models.LicenseRecord{}, nil
	}
	record := l.licenses[id-1]
	return &record, nil
}

func (l *MemoryLedger) ApplyForLicense(ctx context.Context, opts *bind.TransactOpts, input models.LicenseInput) (*types.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.BusinessName) == "" {
		return nil, fmt.Errorf("%w: execution reverted: business name required", models.ErrTransactionReverted)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.sign(opts, MethodApplyForLicense, toInputTuple(input))
	if err != nil {
		return nil, err
	}

	id := uint64(len(l.licenses)) + 1
	l.licenses = append(l.licenses, models.LicenseRecord{
		ID:              id,
		BusinessName:    input.BusinessName,
		RegNumber:       input.RegNumber,
		Email:           input.Email,
		PhysicalAddress: input.PhysicalAddress,
		Description:     input.Description,
		LicenseType:     input.LicenseType,
		Sector:          input.Sector,
		DocumentRef:     input.DocumentRef,
		Applicant:       opts.From.Hex(),
		Status:          models.LicenseStatusPending,
	})

	log, err := encodeLicenseApplied(id, opts.From, input.BusinessName)
	if err != nil {
		return nil, err
	}
	l.record(tx, log)
	return tx, nil
}

func (l *MemoryLedger) ApproveLicense(ctx context.Context, opts *bind.TransactOpts, id uint64) (*types.Transaction, error) {
	return l.transition(ctx, opts, MethodApproveLicense, id, models.LicenseStatusPending, models.LicenseStatusApproved)
}

func (l *MemoryLedger) RejectLicense(ctx context.Context, opts *bind.TransactOpts, id uint64) (*types.Transaction, error) {
	return l.transition(ctx, opts, MethodRejectLicense, id, models.LicenseStatusPending, models.LicenseStatusRejected)
}

func (l *MemoryLedger) RevokeLicense(ctx context.Context, opts *bind.TransactOpts, id uint64) (*types.Transaction, error) {
	return l.transition(ctx, opts, MethodRevokeLicense, id, models.LicenseStatusApproved, models.LicenseStatusRevoked)
}

func (l *MemoryLedger) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, fmt.Errorf("nil transaction")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	receipt, ok := l.receipts[tx.Hash()]
	if !ok {
		return nil, fmt.Errorf("transaction %s not found", tx.Hash().Hex())
	}
	return receipt, nil
}

func (l *MemoryLedger) transition(ctx context.Context, opts *bind.TransactOpts, method string, id uint64, from, to models.LicenseStatus) (*types.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if opts == nil {
		return nil, fmt.Errorf("%w: no signer for %s", models.ErrTransactionRejected, method)
	}
	if opts.From != l.admin {
		return nil, fmt.Errorf("%w: execution reverted: only admin", models.ErrTransactionReverted)
	}
	if id == 0 || id > uint64(len(l.licenses)) {
		return nil, fmt.Errorf("%w: execution reverted: invalid license id", models.ErrTransactionReverted)
	}
	record := &l.licenses[id-1]
	if record.Status != from {
		return nil, fmt.Errorf("%w: execution reverted: license is %s", models.ErrTransactionReverted, record.Status)
	}

	tx, err := l.sign(opts, method, new(big.Int).SetUint64(id))
	if err != nil {
		return nil, err
	}

	record.Status = to
	if to == models.LicenseStatusApproved {
		now := l.Now()
		record.IssueDate = now.Unix()
		record.ExpiryDate = now.Add(l.Term).Unix()
	}

	log, err := encodeStatusChanged(id, to)
	if err != nil {
		return nil, err
	}
	l.record(tx, log)
	return tx, nil
}

// sign builds the call transaction and hands it to the caller's signer, the
// same way bind.BoundContract does before broadcasting.
func (l *MemoryLedger) sign(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error) {
	if opts == nil || opts.Signer == nil {
		return nil, fmt.Errorf("%w: no signer for %s", models.ErrTransactionRejected, method)
	}

	parsed, err := LicenseChainABI()
	if err != nil {
		return nil, err
	}
	data, err := parsed.Pack(method, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	to := l.address
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    l.nonce,
		GasPrice: big.NewInt(0),
		Gas:      100000,
		To:       &to,
		Data:     data,
	})

	signed, err := opts.Signer(opts.From, tx)
	if err != nil {
		return nil, ClassifyWriteError(err)
	}
	l.nonce++
	return signed, nil
}

func (l *MemoryLedger) record(tx *types.Transaction, logs ...*types.Log) {
	l.block++
	for i, log := range logs {
		log.Address = l.address
		log.TxHash = tx.Hash()
		log.BlockNumber = uint64(l.block)
		log.Index = uint(i)
	}
	l.receipts[tx.Hash()] = &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      tx.Hash(),
		Logs:        logs,
		BlockNumber: big.NewInt(l.block),
	}
}

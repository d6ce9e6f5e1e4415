// internal/blockchain/contract.go
package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/javajoker/licensechain/internal/models"
)

// ContractLedger talks to a deployed LicenseChain contract over JSON-RPC.
type ContractLedger struct {
	address  common.Address
	client   *ethclient.Client
	contract *bind.BoundContract
}

// Dial connects to rpcURL and binds the contract at address.
func Dial(ctx context.Context, rpcURL, address string) (*ContractLedger, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address %q", address)
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rpcURL, err)
	}

	ledger, err := NewContractLedger(client, common.HexToAddress(address))
	if err != nil {
		client.Close()
		return nil, err
	}
	return ledger, nil
}

func NewContractLedger(client *ethclient.Client, address common.Address) (*ContractLedger, error) {
	parsed, err := LicenseChainABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}

	return &ContractLedger{
		address:  address,
		client:   client,
		contract: bind.NewBoundContract(address, parsed, client, client, client),
	}, nil
}

func (l *ContractLedger) Address() common.Address {
	return l.address
}

// ChainID reports the chain the RPC endpoint serves, for building signers.
func (l *ContractLedger) ChainID(ctx context.Context) (*big.Int, error) {
	return l.client.ChainID(ctx)
}

func (l *ContractLedger) Close() {
	l.client.Close()
}

func (l *ContractLedger) LicenseCount(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, MethodLicenseCount); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("%s returned no values", MethodLicenseCount)
	}

	count := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	return bigToUint64(count), nil
}

func (l *ContractLedger) GetLicense(ctx context.Context, id uint64) (*models.LicenseRecord, error) {
	var out []interface{}
	if err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, MethodGetLicense, new(big.Int).SetUint64(id)); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no values", MethodGetLicense)
	}

	tuple := *abi.ConvertType(out[0], new(licenseTuple)).(*licenseTuple)
	record := tuple.toRecord()
	return &record, nil
}

// Admin returns the contract's own admin address.
func (l *ContractLedger) Admin(ctx context.Context) (common.Address, error) {
	var out []interface{}
	if err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, MethodAdmin); err != nil {
		return common.Address{}, err
	}
	if len(out) == 0 {
		return common.Address{}, fmt.Errorf("%s returned no values", MethodAdmin)
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (l *ContractLedger) ApplyForLicense(ctx context.Context, opts *bind.TransactOpts, input models.LicenseInput) (*types.Transaction, error) {
	return l.transact(ctx, opts, MethodApplyForLicense, toInputTuple(input))
}

func (l *ContractLedger) ApproveLicense(ctx context.Context, opts *bind.TransactOpts, id uint64) (*types.Transaction, error) {
	return l.transact(ctx, opts, MethodApproveLicense, new(big.Int).SetUint64(id))
}

func (l *ContractLedger) RejectLicense(ctx context.Context, opts *bind.TransactOpts, id uint64) (*types.Transaction, error) {
	return l.transact(ctx, opts, MethodRejectLicense, new(big.Int).SetUint64(id))
}

func (l *ContractLedger) RevokeLicense(ctx context.Context, opts *bind.TransactOpts, id uint64) (*types.Transaction, error) {
	return l.transact(ctx, opts, MethodRevokeLicense, new(big.Int).SetUint64(id))
}

func (l *ContractLedger) transact(ctx context.Context, opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error) {
	if opts == nil {
		return nil, fmt.Errorf("%w: no signer for %s", models.ErrTransactionRejected, method)
	}

	// Copy so the caller's opts keep their own context.
	txOpts := *opts
	txOpts.Context = ctx

	tx, err := l.contract.Transact(&txOpts, method, params...)
	if err != nil {
		return nil, ClassifyWriteError(err)
	}
	return tx, nil
}

// WaitMined blocks until tx is included. A failed receipt is a revert.
func (l *ContractLedger) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, l.client, tx)
	if err != nil {
		return nil, err
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return receipt, fmt.Errorf("%w: transaction %s failed", models.ErrTransactionReverted, tx.Hash().Hex())
	}
	return receipt, nil
}

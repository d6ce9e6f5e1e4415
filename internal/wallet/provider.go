// internal/wallet/provider.go
package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/javajoker/licensechain/internal/models"
)

// Provider is a wallet that can name its active account and sign for it.
// RequestAccounts may block on user interaction.
type Provider interface {
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	Signer(ctx context.Context, account common.Address) (*bind.TransactOpts, error)
}

// PrivateKeyProvider signs with a raw key held in memory. The server uses it
// for the operator account.
type PrivateKeyProvider struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
}

func NewPrivateKeyProvider(key *ecdsa.PrivateKey, chainID *big.Int) *PrivateKeyProvider {
	return &PrivateKeyProvider{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
	}
}

// ParsePrivateKey accepts a hex key with or without the 0x prefix.
func ParsePrivateKey(hexKey string, chainID *big.Int) (*PrivateKeyProvider, error) {
	if len(hexKey) > 1 && hexKey[:2] == "0x" {
		hexKey = hexKey[2:]
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewPrivateKeyProvider(key, chainID), nil
}

func (p *PrivateKeyProvider) Address() common.Address {
	return p.address
}

func (p *PrivateKeyProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []common.Address{p.address}, nil
}

func (p *PrivateKeyProvider) Signer(ctx context.Context, account common.Address) (*bind.TransactOpts, error) {
	if account != p.address {
		return nil, fmt.Errorf("%w: unknown account %s", models.ErrTransactionRejected, account.Hex())
	}
	opts, err := bind.NewKeyedTransactorWithChainID(p.key, p.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

// DelegatedProvider reports an identity proven elsewhere (a signed login) and
// relays writes through an operator wallet.
type DelegatedProvider struct {
	identity common.Address
	operator Provider
}

func NewDelegatedProvider(identity string, operator Provider) *DelegatedProvider {
	p := &DelegatedProvider{operator: operator}
	if common.IsHexAddress(identity) {
		p.identity = common.HexToAddress(identity)
	}
	return p
}

func (p *DelegatedProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if p.identity == (common.Address{}) {
		return nil, models.ErrNoWalletProvider
	}
	return []common.Address{p.identity}, nil
}

func (p *DelegatedProvider) Signer(ctx context.Context, _ common.Address) (*bind.TransactOpts, error) {
	if p.operator == nil {
		return nil, fmt.Errorf("%w: no operator wallet configured", models.ErrTransactionRejected)
	}
	accounts, err := p.operator.RequestAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, models.ErrNoWalletProvider
	}
	return p.operator.Signer(ctx, accounts[0])
}

// internal/wallet/keystore.go
package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/javajoker/licensechain/internal/models"
)

// Prompter is the user-facing half of a keystore wallet.
type Prompter interface {
	Passphrase(account common.Address) (string, error)
	ConfirmTransaction(account common.Address, tx *types.Transaction) bool
}

// KeystoreProvider is a local encrypted keystore. Requesting accounts unlocks
// the selected account; every signature is confirmed through the Prompter.
type KeystoreProvider struct {
	ks      *keystore.KeyStore
	account string
	chainID *big.Int
	prompt  Prompter
}

// OpenKeystore opens dir with the standard scrypt parameters.
func OpenKeystore(dir string) *keystore.KeyStore {
	return keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)
}

// NewKeystoreProvider selects account (hex) if given, else the first account.
func NewKeystoreProvider(ks *keystore.KeyStore, account string, chainID *big.Int, prompt Prompter) *KeystoreProvider {
	return &KeystoreProvider{
		ks:      ks,
		account: account,
		chainID: chainID,
		prompt:  prompt,
	}
}

func (p *KeystoreProvider) selected() (accounts.Account, error) {
	if p.ks == nil {
		return accounts.Account{}, models.ErrNoWalletProvider
	}
	all := p.ks.Accounts()
	if len(all) == 0 {
		return accounts.Account{}, fmt.Errorf("%w: keystore has no accounts", models.ErrNoWalletProvider)
	}
	if p.account == "" {
		return all[0], nil
	}
	if !common.IsHexAddress(p.account) {
		return accounts.Account{}, fmt.Errorf("%w: invalid account %q", models.ErrNoWalletProvider, p.account)
	}
	acct, err := p.ks.Find(accounts.Account{Address: common.HexToAddress(p.account)})
	if err != nil {
		return accounts.Account{}, fmt.Errorf("%w: %v", models.ErrNoWalletProvider, err)
	}
	return acct, nil
}

func (p *KeystoreProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acct, err := p.selected()
	if err != nil {
		return nil, err
	}
	if p.prompt == nil {
		return nil, fmt.Errorf("%w: no prompt to unlock %s", models.ErrUserRejected, acct.Address.Hex())
	}

	passphrase, err := p.prompt.Passphrase(acct.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUserRejected, err)
	}
	if err := p.ks.Unlock(acct, passphrase); err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			return nil, fmt.Errorf("%w: wrong passphrase", models.ErrUserRejected)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrUserRejected, err)
	}
	return []common.Address{acct.Address}, nil
}

func (p *KeystoreProvider) Signer(ctx context.Context, account common.Address) (*bind.TransactOpts, error) {
	acct, err := p.ks.Find(accounts.Account{Address: account})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrTransactionRejected, err)
	}
	opts, err := bind.NewKeyStoreTransactorWithChainID(p.ks, acct, p.chainID)
	if err != nil {
		return nil, err
	}

	sign := opts.Signer
	opts.Signer = func(from common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if p.prompt != nil && !p.prompt.ConfirmTransaction(from, tx) {
			return nil, fmt.Errorf("%w: user declined to sign", models.ErrTransactionRejected)
		}
		return sign(from, tx)
	}
	opts.Context = ctx
	return opts, nil
}

// internal/wallet/wallet_test.go
package wallet

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/licensechain/internal/models"
)

var chainID = big.NewInt(1337)

type stubPrompter struct {
	passphrase string
	err        error
	confirm    bool
	asked      int
}

func (s *stubPrompter) Passphrase(common.Address) (string, error) {
	return s.passphrase, s.err
}

func (s *stubPrompter) ConfirmTransaction(common.Address, *types.Transaction) bool {
	s.asked++
	return s.confirm
}

func newTestKeystore(t *testing.T, passphrase string) (*keystore.KeyStore, common.Address) {
	t.Helper()
	ks := keystore.NewKeyStore(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)
	acct, err := ks.NewAccount(passphrase)
	require.NoError(t, err)
	return ks, acct.Address
}

func unsignedTx() *types.Transaction {
	to := common.HexToAddress("0x00000000000000000000000000000000000114c3")
	return types.NewTx(&types.LegacyTx{To: &to, Gas: 21000, GasPrice: big.NewInt(1)})
}

func TestSignatureRoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()
	message := []byte(LoginMessage(address, "abc123"))

	sig, err := SignMessage(key, message)
	require.NoError(t, err)

	assert.NoError(t, VerifySignature(address, message, sig))
	assert.ErrorIs(t, VerifySignature(address, []byte("other message"), sig), ErrSignatureMismatch)

	other, err := crypto.GenerateKey()
	require.NoError(t, err)
	assert.ErrorIs(t, VerifySignature(crypto.PubkeyToAddress(other.PublicKey).Hex(), message, sig), ErrSignatureMismatch)

	assert.Error(t, VerifySignature(address, message, "0x1234"))
	assert.Error(t, VerifySignature("not-an-address", message, sig))
}

func TestKeystoreProviderUnlock(t *testing.T) {
	ctx := context.Background()
	ks, address := newTestKeystore(t, "correct horse")

	provider := NewKeystoreProvider(ks, "", chainID, &stubPrompter{passphrase: "correct horse", confirm: true})
	accounts, err := provider.RequestAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{address}, accounts)

	wrong := NewKeystoreProvider(ks, address.Hex(), chainID, &stubPrompter{passphrase: "nope"})
	_, err = wrong.RequestAccounts(ctx)
	assert.ErrorIs(t, err, models.ErrUserRejected)

	declined := NewKeystoreProvider(ks, "", chainID, &stubPrompter{err: errors.New("interrupted")})
	_, err = declined.RequestAccounts(ctx)
	assert.ErrorIs(t, err, models.ErrUserRejected)
}

func TestKeystoreProviderWithoutAccounts(t *testing.T) {
	ks := keystore.NewKeyStore(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)
	provider := NewKeystoreProvider(ks, "", chainID, &stubPrompter{})

	_, err := provider.RequestAccounts(context.Background())
	assert.ErrorIs(t, err, models.ErrNoWalletProvider)

	missing := NewKeystoreProvider(nil, "", chainID, nil)
	_, err = missing.RequestAccounts(context.Background())
	assert.ErrorIs(t, err, models.ErrNoWalletProvider)
}

func TestKeystoreSignerHonoursConfirmation(t *testing.T) {
	ctx := context.Background()
	ks, address := newTestKeystore(t, "pw")

	prompt := &stubPrompter{passphrase: "pw", confirm: false}
	provider := NewKeystoreProvider(ks, "", chainID, prompt)
	_, err := provider.RequestAccounts(ctx)
	require.NoError(t, err)

	opts, err := provider.Signer(ctx, address)
	require.NoError(t, err)

	_, err = opts.Signer(address, unsignedTx())
	assert.ErrorIs(t, err, models.ErrTransactionRejected)
	assert.Equal(t, 1, prompt.asked)

	prompt.confirm = true
	signed, err := opts.Signer(address, unsignedTx())
	require.NoError(t, err)

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	assert.Equal(t, address, sender)
}

func TestPrivateKeyProvider(t *testing.T) {
	ctx := context.Background()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	provider, err := ParsePrivateKey("0x"+common.Bytes2Hex(crypto.FromECDSA(key)), chainID)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), provider.Address())

	accounts, err := provider.RequestAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	opts, err := provider.Signer(ctx, accounts[0])
	require.NoError(t, err)
	assert.Equal(t, accounts[0], opts.From)

	_, err = provider.Signer(ctx, common.HexToAddress("0x01"))
	assert.ErrorIs(t, err, models.ErrTransactionRejected)

	_, err = ParsePrivateKey("zz", chainID)
	assert.Error(t, err)
}

func TestDelegatedProvider(t *testing.T) {
	ctx := context.Background()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	operator := NewPrivateKeyProvider(key, chainID)

	identity := "0x2000000000000000000000000000000000000002"
	provider := NewDelegatedProvider(identity, operator)

	accounts, err := provider.RequestAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(identity), accounts[0])

	opts, err := provider.Signer(ctx, accounts[0])
	require.NoError(t, err)
	assert.Equal(t, operator.Address(), opts.From)

	_, err = NewDelegatedProvider("", operator).RequestAccounts(ctx)
	assert.ErrorIs(t, err, models.ErrNoWalletProvider)

	_, err = NewDelegatedProvider(identity, nil).Signer(ctx, accounts[0])
	assert.ErrorIs(t, err, models.ErrTransactionRejected)
}

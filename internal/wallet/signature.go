// internal/wallet/signature.go
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrSignatureMismatch = errors.New("signature does not match address")

// LoginMessage is the text a wallet signs to prove control of address.
func LoginMessage(address, nonce string) string {
	return fmt.Sprintf("Sign in to LicenseChain\n\nAddress: %s\nNonce: %s", address, nonce)
}

// SignMessage produces a personal_sign (EIP-191) signature with V in {27,28}.
func SignMessage(key *ecdsa.PrivateKey, message []byte) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash(message), key)
	if err != nil {
		return "", err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// VerifySignature checks that signature over message was made by address.
func VerifySignature(address string, message []byte, signature string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("invalid address %q", address)
	}
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("invalid signature length %d", len(sig))
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash(message), sig)
	if err != nil {
		return fmt.Errorf("failed to recover signer: %w", err)
	}
	if crypto.PubkeyToAddress(*pub) != common.HexToAddress(address) {
		return ErrSignatureMismatch
	}
	return nil
}

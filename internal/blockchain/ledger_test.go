// internal/blockchain/ledger_test.go
package blockchain

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/licensechain/internal/models"
)

func TestClassifyWriteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"locked account", keystore.ErrLocked, models.ErrTransactionRejected},
		{"not authorized", bind.ErrNotAuthorized, models.ErrTransactionRejected},
		{"wallet denial", errors.New("MetaMask Tx Signature: User denied transaction signature."), models.ErrTransactionRejected},
		{"revert", errors.New("execution reverted: only admin"), models.ErrTransactionReverted},
		{"already classified", fmt.Errorf("%w: nope", models.ErrTransactionReverted), models.ErrTransactionReverted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ClassifyWriteError(tt.err), tt.want)
		})
	}

	other := errors.New("connection refused")
	assert.Equal(t, other, ClassifyWriteError(other))
	assert.NoError(t, ClassifyWriteError(nil))
}

func TestRevertReason(t *testing.T) {
	assert.Equal(t, "invalid license id", RevertReason(errors.New("execution reverted: invalid license id")))
	assert.Empty(t, RevertReason(errors.New("timeout")))
	assert.Empty(t, RevertReason(nil))
}

func TestLicenseTupleToRecord(t *testing.T) {
	applicant := common.HexToAddress("0xAbC0000000000000000000000000000000000001")
	tuple := licenseTuple{
		Id:           big.NewInt(4),
		BusinessName: "Acme",
		IpfsHash:     "QmDoc",
		Applicant:    applicant,
		IssueDate:    big.NewInt(1700000000),
		ExpiryDate:   big.NewInt(1731536000),
		Status:       "approved",
	}

	record := tuple.toRecord()
	assert.Equal(t, uint64(4), record.ID)
	assert.Equal(t, "QmDoc", record.DocumentRef)
	assert.Equal(t, models.LicenseStatusApproved, record.Status)
	assert.True(t, record.OwnedBy("0xabc0000000000000000000000000000000000001"))
	assert.Equal(t, int64(1731536000), record.ExpiryDate)

	empty := licenseTuple{}.toRecord()
	assert.False(t, empty.Exists())
	assert.Empty(t, empty.Applicant)
}

func TestParseLicenseAppliedWithoutEvent(t *testing.T) {
	_, err := ParseLicenseApplied(&types.Receipt{})
	assert.Error(t, err)

	_, err = ParseLicenseApplied(nil)
	assert.Error(t, err)
}

func TestEventRoundTrip(t *testing.T) {
	applicant := common.HexToAddress("0x2000000000000000000000000000000000000002")
	log, err := encodeLicenseApplied(12, applicant, "Acme")
	require.NoError(t, err)

	id, err := ParseLicenseApplied(&types.Receipt{Logs: []*types.Log{log}})
	require.NoError(t, err)
	assert.Equal(t, uint64(12), id)
}

// internal/blockchain/abi.go
package blockchain

import (
	_ "embed"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/javajoker/licensechain/internal/models"
)

//go:embed licensechain.abi.json
var licenseChainABIJSON string

// Contract method and event names.
const (
	MethodLicenseCount    = "licenseCount"
	MethodGetLicense      = "getLicense"
	MethodApplyForLicense = "applyForLicense"
	MethodApproveLicense  = "approveLicense"
	MethodRejectLicense   = "rejectLicense"
	MethodRevokeLicense   = "revokeLicense"
	MethodAdmin           = "admin"

	EventLicenseApplied       = "LicenseApplied"
	EventLicenseStatusChanged = "LicenseStatusChanged"
)

var (
	parsedABI     abi.ABI
	parsedABIErr  error
	parsedABIOnce sync.Once
)

// LicenseChainABI returns the parsed contract ABI.
func LicenseChainABI() (abi.ABI, error) {
	parsedABIOnce.Do(func() {
		parsedABI, parsedABIErr = abi.JSON(strings.NewReader(licenseChainABIJSON))
	})
	return parsedABI, parsedABIErr
}

// licenseInputTuple matches LicenseChain.LicenseInput field for field.
type licenseInputTuple struct {
	BusinessName    string
	RegNumber       string
	Email           string
	PhysicalAddress string
	Description     string
	LicenseType     string
	Sector          string
	IpfsHash        string
}

func toInputTuple(in models.LicenseInput) licenseInputTuple {
	return licenseInputTuple{
		BusinessName:    in.BusinessName,
		RegNumber:       in.RegNumber,
		Email:           in.Email,
		PhysicalAddress: in.PhysicalAddress,
		Description:     in.Description,
		LicenseType:     in.LicenseType,
		Sector:          in.Sector,
		IpfsHash:        in.DocumentRef,
	}
}

// licenseTuple matches the getLicense return struct.
type licenseTuple struct {
	Id              *big.Int
	BusinessName    string
	RegNumber       string
	Email           string
	PhysicalAddress string
	Description     string
	LicenseType     string
	Sector          string
	IpfsHash        string
	Applicant       common.Address
	IssueDate       *big.Int
	ExpiryDate      *big.Int
	Status          string
}

func (t licenseTuple) toRecord() models.LicenseRecord {
	record := models.LicenseRecord{
		ID:              bigToUint64(t.Id),
		BusinessName:    t.BusinessName,
		RegNumber:       t.RegNumber,
		Email:           t.Email,
		PhysicalAddress: t.PhysicalAddress,
		Description:     t.Description,
		LicenseType:     t.LicenseType,
		Sector:          t.Sector,
		DocumentRef:     t.IpfsHash,
		IssueDate:       int64(bigToUint64(t.IssueDate)),
		ExpiryDate:      int64(bigToUint64(t.ExpiryDate)),
		Status:          models.LicenseStatus(t.Status),
	}
	if t.Applicant != (common.Address{}) {
		record.Applicant = t.Applicant.Hex()
	}
	if status, ok := models.ParseLicenseStatus(t.Status); ok {
		record.Status = status
	}
	return record
}

func bigToUint64(v *big.Int) uint64 {
	if v == nil || v.Sign() <= 0 || !v.IsUint64() {
		return 0
	}
	return v.Uint64()
}

// LicenseApplied is the decoded LicenseApplied event.
type LicenseApplied struct {
	Id           *big.Int
	Applicant    common.Address
	BusinessName string
	Raw          types.Log
}

// LicenseStatusChanged is the decoded LicenseStatusChanged event.
type LicenseStatusChanged struct {
	Id        *big.Int
	NewStatus string
	Raw       types.Log
}

func unpacker() (*bind.BoundContract, error) {
	parsed, err := LicenseChainABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}
	return bind.NewBoundContract(common.Address{}, parsed, nil, nil, nil), nil
}

// ParseLicenseApplied finds the LicenseApplied event in a receipt and returns
// the id the ledger assigned.
func ParseLicenseApplied(receipt *types.Receipt) (uint64, error) {
	if receipt == nil {
		return 0, fmt.Errorf("no receipt")
	}

	parsed, err := LicenseChainABI()
	if err != nil {
		return 0, err
	}
	contract, err := unpacker()
	if err != nil {
		return 0, err
	}

	eventID := parsed.Events[EventLicenseApplied].ID
	for _, log := range receipt.Logs {
		if log == nil || len(log.Topics) == 0 || log.Topics[0] != eventID {
			continue
		}
		var ev LicenseApplied
		if err := contract.UnpackLog(&ev, EventLicenseApplied, *log); err != nil {
			return 0, fmt.Errorf("failed to decode %s: %w", EventLicenseApplied, err)
		}
		if id := bigToUint64(ev.Id); id != 0 {
			return id, nil
		}
	}
	return 0, fmt.Errorf("receipt %s has no %s event", receipt.TxHash.Hex(), EventLicenseApplied)
}

// ParseStatusChanges decodes every LicenseStatusChanged event in a receipt.
func ParseStatusChanges(receipt *types.Receipt) ([]LicenseStatusChanged, error) {
	if receipt == nil {
		return nil, nil
	}

	parsed, err := LicenseChainABI()
	if err != nil {
		return nil, err
	}
	contract, err := unpacker()
	if err != nil {
		return nil, err
	}

	eventID := parsed.Events[EventLicenseStatusChanged].ID
	var changes []LicenseStatusChanged
	for _, log := range receipt.Logs {
		if log == nil || len(log.Topics) == 0 || log.Topics[0] != eventID {
			continue
		}
		var ev LicenseStatusChanged
		if err := contract.UnpackLog(&ev, EventLicenseStatusChanged, *log); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", EventLicenseStatusChanged, err)
		}
		ev.Raw = *log
		changes = append(changes, ev)
	}
	return changes, nil
}

// encodeLicenseApplied builds the log the contract emits from applyForLicense.
func encodeLicenseApplied(id uint64, applicant common.Address, businessName string) (*types.Log, error) {
	parsed, err := LicenseChainABI()
	if err != nil {
		return nil, err
	}
	event := parsed.Events[EventLicenseApplied]
	data, err := event.Inputs.NonIndexed().Pack(businessName)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", EventLicenseApplied, err)
	}
	return &types.Log{
		Topics: []common.Hash{
			event.ID,
			common.BigToHash(new(big.Int).SetUint64(id)),
			common.BytesToHash(applicant.Bytes()),
		},
		Data: data,
	}, nil
}

// encodeStatusChanged builds the log the contract emits on a status transition.
func encodeStatusChanged(id uint64, status models.LicenseStatus) (*types.Log, error) {
	parsed, err := LicenseChainABI()
	if err != nil {
		return nil, err
	}
	event := parsed.Events[EventLicenseStatusChanged]
	data, err := event.Inputs.NonIndexed().Pack(string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", EventLicenseStatusChanged, err)
	}
	return &types.Log{
		Topics: []common.Hash{
			event.ID,
			common.BigToHash(new(big.Int).SetUint64(id)),
		},
		Data: data,
	}, nil
}

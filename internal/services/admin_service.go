// internal/services/admin_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/licensechain/internal/blockchain"
	"github.com/javajoker/licensechain/internal/metrics"
	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/wallet"
)

var ErrInvalidAction = errors.New("invalid admin action")

// StatusNotifier tells an applicant about a status change.
type StatusNotifier interface {
	SendStatusChangeNotification(record models.LicenseRecord, status models.LicenseStatus) error
}

// ConfirmFunc asks a human to confirm an irreversible action on id.
type ConfirmFunc func(id uint64) bool

// ActionResult is the outcome of a confirmed admin write. Licenses is the
// listing re-read from the ledger afterwards; it is nil if that re-read
// failed, which does not undo the write.
type ActionResult struct {
	LicenseID uint64               `json:"license_id"`
	Action    models.AdminAction   `json:"action"`
	Status    models.LicenseStatus `json:"status"`
	TxHash    string               `json:"tx_hash"`
	Licenses  []models.LicenseView `json:"licenses"`
}

// AdminService approves, rejects and revokes licenses on the ledger.
type AdminService struct {
	identity      *IdentityService
	ledger        blockchain.Ledger
	licenses      *LicenseService
	notifications StatusNotifier
	events        EventPublisher
	audit         AuditRecorder
	log           *logrus.Entry
}

func NewAdminService(identity *IdentityService, ledger blockchain.Ledger, licenses *LicenseService, logger *logrus.Logger) *AdminService {
	return &AdminService{
		identity: identity,
		ledger:   ledger,
		licenses: licenses,
		events:   NopPublisher{},
		log:      logger.WithField("component", "admin"),
	}
}

func (s *AdminService) SetNotifier(n StatusNotifier) {
	s.notifications = n
}

func (s *AdminService) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = NopPublisher{}
	}
	s.events = p
}

func (s *AdminService) SetAuditRecorder(a AuditRecorder) {
	s.audit = a
}

// Act performs one admin action. Authorization is checked when the wallet
// connects and again immediately before the write. Revoke needs confirm to
// return true; otherwise nothing is written.
func (s *AdminService) Act(ctx context.Context, provider wallet.Provider, id uint64, action models.AdminAction, confirm ConfirmFunc) (result *ActionResult, err error) {
	defer func() { metrics.RecordAdminAction(string(action), err) }()

	if !action.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	if id == 0 {
		return nil, fmt.Errorf("%w: id 0", models.ErrNotFound)
	}

	session, err := s.identity.ResolveIdentity(ctx, provider)
	if err != nil {
		return nil, err
	}
	if !session.IsAuthorized {
		return nil, fmt.Errorf("%w: %s", models.ErrUnauthorized, session.ConnectedAddress)
	}

	if action == models.AdminActionRevoke && (confirm == nil || !confirm(id)) {
		return nil, fmt.Errorf("%w: revoke license %d", models.ErrConfirmationRequired, id)
	}

	// The registry may have changed while waiting on the wallet or the prompt.
	if !s.identity.IsAdmin(session.ConnectedAddress) {
		return nil, fmt.Errorf("%w: %s", models.ErrUnauthorized, session.ConnectedAddress)
	}

	opts, err := provider.Signer(ctx, common.HexToAddress(session.ConnectedAddress))
	if err != nil {
		return nil, blockchain.ClassifyWriteError(err)
	}

	tx, err := s.dispatch(ctx, opts, id, action)
	if err != nil {
		return nil, err
	}
	if _, err := s.ledger.WaitMined(ctx, tx); err != nil {
		return nil, blockchain.ClassifyWriteError(err)
	}

	result = &ActionResult{
		LicenseID: id,
		Action:    action,
		Status:    action.TargetStatus(),
		TxHash:    tx.Hash().Hex(),
	}
	entry := s.log.WithFields(logrus.Fields{
		"wallet":     session.ConnectedAddress,
		"license_id": id,
		"action":     action,
		"tx_hash":    result.TxHash,
	})
	entry.Info("admin action confirmed")

	views, refreshErr := s.licenses.ListLicenses(ctx, models.AllLicenses())
	if refreshErr != nil {
		entry.WithError(refreshErr).Warn("refresh after admin action failed")
	} else {
		result.Licenses = views
	}

	s.afterAction(ctx, session.ConnectedAddress, result, views)
	return result, nil
}

func (s *AdminService) dispatch(ctx context.Context, opts *bind.TransactOpts, id uint64, action models.AdminAction) (*types.Transaction, error) {
	var (
		tx  *types.Transaction
		err error
	)
	switch action {
	case models.AdminActionApprove:
		tx, err = s.ledger.ApproveLicense(ctx, opts, id)
	case models.AdminActionReject:
		tx, err = s.ledger.RejectLicense(ctx, opts, id)
	case models.AdminActionRevoke:
		tx, err = s.ledger.RevokeLicense(ctx, opts, id)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	if err != nil {
		return nil, blockchain.ClassifyWriteError(err)
	}
	return tx, nil
}

// afterAction runs best-effort side effects. Failures are logged only.
func (s *AdminService) afterAction(ctx context.Context, actor string, result *ActionResult, views []models.LicenseView) {
	entry := s.log.WithField("license_id", result.LicenseID)

	if s.audit != nil {
		err := s.audit.Record(ctx, &models.AuditLog{
			WalletAddress: actor,
			Action:        "license." + string(result.Action),
			ResourceType:  "license",
			ResourceID:    strconv.FormatUint(result.LicenseID, 10),
			TxHash:        result.TxHash,
			NewValues:     models.JSONB{"status": string(result.Status)},
		})
		if err != nil {
			entry.WithError(err).Warn("audit log write failed")
		}
	}

	if err := s.events.Publish(&LicenseEvent{
		LicenseID: result.LicenseID,
		Action:    result.Action,
		Status:    result.Status,
		Actor:     actor,
		TxHash:    result.TxHash,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		entry.WithError(err).Warn("license event publish failed")
	}

	if s.notifications == nil {
		return
	}
	for _, view := range views {
		if view.ID != result.LicenseID {
			continue
		}
		record := view.LicenseRecord
		go func() {
			if err := s.notifications.SendStatusChangeNotification(record, result.Status); err != nil {
				entry.WithError(err).Warn("status notification failed")
			}
		}()
		break
	}
}

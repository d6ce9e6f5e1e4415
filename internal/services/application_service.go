// internal/services/application_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/licensechain/internal/blockchain"
	"github.com/javajoker/licensechain/internal/metrics"
	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/utils"
	"github.com/javajoker/licensechain/internal/wallet"
)

// DocumentUploader returns a public URL for an uploaded document.
type DocumentUploader interface {
	Upload(ctx context.Context, file *models.DocumentFile) (string, error)
}

type documentValidator interface {
	Validate(file *models.DocumentFile) error
}

type SubmissionStage string

const (
	StageConnecting SubmissionStage = "connecting"
	StageUploading  SubmissionStage = "uploading"
	StageSubmitting SubmissionStage = "submitting"
	StageConfirming SubmissionStage = "confirming"
	StageSubmitted  SubmissionStage = "submitted"
)

// ProgressFunc is told each stage as the submission enters it.
type ProgressFunc func(stage SubmissionStage)

// DraftError lists the fields that made a draft unsubmittable.
type DraftError struct {
	Fields []utils.ValidationError
}

func (e *DraftError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return fmt.Sprintf("%s: %s", models.ErrInvalidDraft, strings.Join(names, ", "))
}

func (e *DraftError) Unwrap() error {
	return models.ErrInvalidDraft
}

// ApplicationService runs the applicant's submission: identity, upload,
// ledger write, confirmation.
type ApplicationService struct {
	identity *IdentityService
	uploader DocumentUploader
	ledger   blockchain.Ledger
	log      *logrus.Entry
}

func NewApplicationService(identity *IdentityService, uploader DocumentUploader, ledger blockchain.Ledger, logger *logrus.Logger) *ApplicationService {
	return &ApplicationService{
		identity: identity,
		uploader: uploader,
		ledger:   ledger,
		log:      logger.WithField("component", "applications"),
	}
}

// ValidateDraft refuses a draft with a missing field or document.
func (s *ApplicationService) ValidateDraft(draft *models.ApplicationDraft) error {
	if draft == nil {
		return &DraftError{Fields: []utils.ValidationError{{Field: "draft", Tag: "required", Message: "draft is required"}}}
	}
	if err := utils.ValidateStruct(draft); err != nil {
		fields := utils.GetValidationErrors(err)
		if len(fields) == 0 {
			return fmt.Errorf("%w: %v", models.ErrInvalidDraft, err)
		}
		return &DraftError{Fields: fields}
	}
	if v, ok := s.uploader.(documentValidator); ok {
		if err := v.Validate(draft.Document); err != nil {
			return &DraftError{Fields: []utils.ValidationError{{Field: "document", Tag: "file", Message: err.Error()}}}
		}
	}
	return nil
}

// Submit returns the id the ledger assigned. Nothing is uploaded for an
// invalid draft, and nothing touches the ledger if the upload fails.
func (s *ApplicationService) Submit(ctx context.Context, provider wallet.Provider, draft *models.ApplicationDraft, progress ProgressFunc) (id uint64, err error) {
	defer func() { metrics.RecordApplication(err) }()
	if progress == nil {
		progress = func(SubmissionStage) {}
	}

	if err := s.ValidateDraft(draft); err != nil {
		return 0, err
	}

	progress(StageConnecting)
	session, err := s.identity.ResolveIdentity(ctx, provider)
	if err != nil {
		return 0, err
	}
	applicant := common.HexToAddress(session.ConnectedAddress)
	entry := s.log.WithField("wallet", session.ConnectedAddress)

	progress(StageUploading)
	url, err := s.uploader.Upload(ctx, draft.Document)
	if err != nil {
		if !errors.Is(err, models.ErrUploadFailure) {
			err = fmt.Errorf("%w: %v", models.ErrUploadFailure, err)
		}
		return 0, err
	}
	if strings.TrimSpace(url) == "" {
		return 0, fmt.Errorf("%w: no content reference returned", models.ErrUploadFailure)
	}

	progress(StageSubmitting)
	opts, err := provider.Signer(ctx, applicant)
	if err != nil {
		return 0, blockchain.ClassifyWriteError(err)
	}
	tx, err := s.ledger.ApplyForLicense(ctx, opts, draft.Input(url))
	if err != nil {
		return 0, blockchain.ClassifyWriteError(err)
	}

	progress(StageConfirming)
	receipt, err := s.ledger.WaitMined(ctx, tx)
	if err != nil {
		return 0, blockchain.ClassifyWriteError(err)
	}

	id, err = blockchain.ParseLicenseApplied(receipt)
	if err != nil {
		// The write is final but the count may already include other
		// applicants' records, so no id is guessed.
		entry.WithError(err).WithField("tx_hash", tx.Hash().Hex()).Error("no LicenseApplied event in receipt")
		return 0, fmt.Errorf("%w: tx %s: %v", models.ErrLicenseIDUnknown, tx.Hash().Hex(), err)
	}

	progress(StageSubmitted)
	entry.WithFields(logrus.Fields{
		"license_id": id,
		"tx_hash":    tx.Hash().Hex(),
	}).Info("license application submitted")
	return id, nil
}

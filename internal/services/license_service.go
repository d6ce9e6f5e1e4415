// internal/services/license_service.go
package services

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/licensechain/internal/models"
)

// LicenseReader is the read half of the ledger.
type LicenseReader interface {
	LicenseCount(ctx context.Context) (uint64, error)
	GetLicense(ctx context.Context, id uint64) (*models.LicenseRecord, error)
}

// LicenseService reconciles ledger records into display-ready views. It
// holds no cache: every call walks the ledger again.
type LicenseService struct {
	ledger        LicenseReader
	renewalWindow time.Duration
	now           func() time.Time
	log           *logrus.Entry
}

func NewLicenseService(ledger LicenseReader, renewalWindow time.Duration, logger *logrus.Logger) *LicenseService {
	return &LicenseService{
		ledger:        ledger,
		renewalWindow: renewalWindow,
		now:           time.Now,
		log:           logger.WithField("component", "licenses"),
	}
}

// SetClock replaces the time source used for classification.
func (s *LicenseService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *LicenseService) RenewalWindow() time.Duration {
	return s.renewalWindow
}

func (s *LicenseService) classify(record models.LicenseRecord, now time.Time) models.LicenseView {
	return models.LicenseView{
		LicenseRecord: record,
		Validity:      models.Classify(record, now, s.renewalWindow),
	}
}

// Licenses walks ids from the current count down to 1, newest first. Each
// range over the sequence re-reads the ledger. The first failed read is
// yielded as an error and ends the sequence.
func (s *LicenseService) Licenses(ctx context.Context, scope models.LicenseScope) iter.Seq2[models.LicenseView, error] {
	return func(yield func(models.LicenseView, error) bool) {
		count, err := s.ledger.LicenseCount(ctx)
		if err != nil {
			yield(models.LicenseView{}, readFailure("licenseCount", err))
			return
		}

		now := s.now()
		for id := count; id >= 1; id-- {
			record, err := s.ledger.GetLicense(ctx, id)
			if err != nil {
				yield(models.LicenseView{}, readFailure(fmt.Sprintf("getLicense(%d)", id), err))
				return
			}
			if !record.Exists() || !scope.Includes(*record) {
				continue
			}
			if !yield(s.classify(*record, now), nil) {
				return
			}
		}
	}
}

// ListLicenses collects Licenses. Any failed read fails the whole listing.
func (s *LicenseService) ListLicenses(ctx context.Context, scope models.LicenseScope) ([]models.LicenseView, error) {
	views := []models.LicenseView{}
	for view, err := range s.Licenses(ctx, scope) {
		if err != nil {
			s.log.WithError(err).Warn("license listing failed")
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// GetLicense looks up one license. Id 0, ids past the count and empty slots
// are all NotFound.
func (s *LicenseService) GetLicense(ctx context.Context, id uint64) (*models.LicenseView, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: id 0", models.ErrNotFound)
	}

	count, err := s.ledger.LicenseCount(ctx)
	if err != nil {
		return nil, readFailure("licenseCount", err)
	}
	if id > count {
		return nil, fmt.Errorf("%w: id %d exceeds count %d", models.ErrNotFound, id, count)
	}

	record, err := s.ledger.GetLicense(ctx, id)
	if err != nil {
		return nil, readFailure(fmt.Sprintf("getLicense(%d)", id), err)
	}
	if !record.Exists() {
		return nil, fmt.Errorf("%w: id %d", models.ErrNotFound, id)
	}

	view := s.classify(*record, s.now())
	return &view, nil
}

// VerifyLicense answers whether a license is currently valid.
func (s *LicenseService) VerifyLicense(ctx context.Context, id uint64) (*models.VerificationResult, error) {
	view, err := s.GetLicense(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &models.VerificationResult{
		LicenseID:     view.ID,
		IsValid:       view.Validity.IsCurrentlyValid,
		Status:        view.Status,
		DisplayStatus: view.Validity.DisplayStatus,
		BusinessName:  view.BusinessName,
		LicenseType:   view.LicenseType,
		Sector:        view.Sector,
		DocumentRef:   view.DocumentRef,
	}
	if view.IssueDate > 0 {
		issued := time.Unix(view.IssueDate, 0).UTC()
		result.IssueDate = &issued
	}
	if view.ExpiryDate > 0 {
		expires := time.Unix(view.ExpiryDate, 0).UTC()
		result.ExpiryDate = &expires
	}
	return result, nil
}

// FilterByStatus keeps views whose raw or display status matches status,
// ignoring case. An empty status keeps everything.
func FilterByStatus(views []models.LicenseView, status string) []models.LicenseView {
	status = strings.TrimSpace(status)
	if status == "" {
		return views
	}
	filtered := []models.LicenseView{}
	for _, view := range views {
		if strings.EqualFold(string(view.Status), status) || strings.EqualFold(view.Validity.DisplayStatus, status) {
			filtered = append(filtered, view)
		}
	}
	return filtered
}

// Statistics counts every license by status and validity.
func (s *LicenseService) Statistics(ctx context.Context) (*models.LicenseStatistics, error) {
	stats := &models.LicenseStatistics{}
	for view, err := range s.Licenses(ctx, models.AllLicenses()) {
		if err != nil {
			return nil, err
		}
		stats.Total++
		switch view.Status {
		case models.LicenseStatusPending:
			stats.Pending++
		case models.LicenseStatusApproved:
			stats.Approved++
		case models.LicenseStatusRejected:
			stats.Rejected++
		case models.LicenseStatusRevoked:
			stats.Revoked++
		}
		switch {
		case view.Validity.IsCurrentlyValid:
			stats.Active++
		case view.Validity.DisplayStatus == models.DisplayStatusExpired:
			stats.Expired++
		}
		if view.Validity.RenewalDue {
			stats.RenewalDue++
		}
	}
	return stats, nil
}

// ExpiringLicenses lists valid licenses that fall inside the renewal window.
func (s *LicenseService) ExpiringLicenses(ctx context.Context, scope models.LicenseScope) ([]models.LicenseView, error) {
	views := []models.LicenseView{}
	for view, err := range s.Licenses(ctx, scope) {
		if err != nil {
			return nil, err
		}
		if view.Validity.RenewalDue {
			views = append(views, view)
		}
	}
	return views, nil
}

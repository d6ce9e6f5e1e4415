// internal/services/renewal_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/licensechain/internal/metrics"
	"github.com/javajoker/licensechain/internal/models"
)

// ReminderStore remembers which (license, expiry) pairs were already announced.
type ReminderStore interface {
	WasSent(ctx context.Context, licenseID uint64, expiry int64) (bool, error)
	MarkSent(ctx context.Context, reminder *models.RenewalReminder) error
}

type RenewalNotifier interface {
	SendRenewalReminder(view models.LicenseView) error
}

type GormReminderStore struct {
	db *gorm.DB
}

func NewGormReminderStore(db *gorm.DB) *GormReminderStore {
	return &GormReminderStore{db: db}
}

func (s *GormReminderStore) WasSent(ctx context.Context, licenseID uint64, expiry int64) (bool, error) {
	var reminder models.RenewalReminder
	err := s.db.WithContext(ctx).
		Where("license_id = ? AND expiry_date = ?", licenseID, expiry).
		First(&reminder).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	return true, nil
}

func (s *GormReminderStore) MarkSent(ctx context.Context, reminder *models.RenewalReminder) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(reminder).Error
}

// RenewalService emails applicants whose licenses enter the renewal window,
// once per expiry date.
type RenewalService struct {
	licenses *LicenseService
	notifier RenewalNotifier
	store    ReminderStore
	interval time.Duration
	log      *logrus.Entry
}

// DefaultRenewalInterval replaces a non-positive polling interval.
const DefaultRenewalInterval = time.Hour

func NewRenewalService(licenses *LicenseService, notifier RenewalNotifier, store ReminderStore, interval time.Duration, logger *logrus.Logger) *RenewalService {
	if interval <= 0 {
		interval = DefaultRenewalInterval
	}
	return &RenewalService{
		licenses: licenses,
		notifier: notifier,
		store:    store,
		interval: interval,
		log:      logger.WithField("component", "renewals"),
	}
}

// RunOnce sends the reminders that are due and returns how many went out.
// A failed listing sends nothing; a failed email is retried next round.
func (s *RenewalService) RunOnce(ctx context.Context) (int, error) {
	views, err := s.licenses.ExpiringLicenses(ctx, models.AllLicenses())
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, view := range views {
		if view.Email == "" {
			continue
		}
		done, err := s.store.WasSent(ctx, view.ID, view.ExpiryDate)
		if err != nil {
			return sent, err
		}
		if done {
			continue
		}

		err = s.notifier.SendRenewalReminder(view)
		metrics.RecordRenewalReminder(err)
		if err != nil {
			s.log.WithError(err).WithField("license_id", view.ID).Warn("renewal reminder failed")
			continue
		}

		if err := s.store.MarkSent(ctx, &models.RenewalReminder{
			LicenseID:  view.ID,
			ExpiryDate: view.ExpiryDate,
			Email:      view.Email,
			SentAt:     time.Now().UTC(),
		}); err != nil {
			return sent, fmt.Errorf("failed to record reminder: %w", err)
		}
		sent++
	}
	return sent, nil
}

// Run polls until ctx is done.
func (s *RenewalService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if sent, err := s.RunOnce(ctx); err != nil {
			s.log.WithError(err).Warn("renewal sweep failed")
		} else if sent > 0 {
			s.log.WithField("sent", sent).Info("renewal reminders sent")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// internal/services/renewal_service_test.go
package services

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/licensechain/internal/config"
	"github.com/javajoker/licensechain/internal/models"
)

type memoryReminderStore struct {
	mu   sync.Mutex
	sent map[string]bool
}

func newMemoryReminderStore() *memoryReminderStore {
	return &memoryReminderStore{sent: map[string]bool{}}
}

func reminderKey(id uint64, expiry int64) string {
	return fmt.Sprintf("%d:%d", id, expiry)
}

func (s *memoryReminderStore) WasSent(_ context.Context, id uint64, expiry int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[reminderKey(id, expiry)], nil
}

func (s *memoryReminderStore) MarkSent(_ context.Context, r *models.RenewalReminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[reminderKey(r.LicenseID, r.ExpiryDate)] = true
	return nil
}

type countingRenewalNotifier struct {
	ids  []uint64
	fail bool
}

func (n *countingRenewalNotifier) SendRenewalReminder(view models.LicenseView) error {
	if n.fail {
		return errors.New("smtp down")
	}
	n.ids = append(n.ids, view.ID)
	return nil
}

func TestRenewalRunOnceSendsEachExpiryOnce(t *testing.T) {
	f := newLedgerFixture(t)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	f.ledger.Now = func() time.Time { return now }

	f.apply(t, f.applicant, "Soon")
	f.apply(t, f.applicant, "Pending")
	f.act(t, 1, models.AdminActionApprove)

	licenses := NewLicenseService(f.ledger, 30*24*time.Hour, testLogger())
	licenses.SetClock(func() time.Time { return now })

	notifier := &countingRenewalNotifier{}
	store := newMemoryReminderStore()
	renewals := NewRenewalService(licenses, notifier, store, time.Hour, testLogger())

	sent, err := renewals.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)

	now = start.Add(350 * 24 * time.Hour)
	sent, err = renewals.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []uint64{1}, notifier.ids)

	sent, err = renewals.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestRenewalFailedEmailIsRetried(t *testing.T) {
	f := newLedgerFixture(t)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.ledger.Now = func() time.Time { return start }
	f.apply(t, f.applicant, "Soon")
	f.act(t, 1, models.AdminActionApprove)

	licenses := NewLicenseService(f.ledger, 30*24*time.Hour, testLogger())
	licenses.SetClock(func() time.Time { return start.Add(340 * 24 * time.Hour) })

	notifier := &countingRenewalNotifier{fail: true}
	renewals := NewRenewalService(licenses, notifier, newMemoryReminderStore(), time.Hour, testLogger())

	sent, err := renewals.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)

	notifier.fail = false
	sent, err = renewals.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestRenewalListingFailureSendsNothing(t *testing.T) {
	notifier := &countingRenewalNotifier{}
	licenses := NewLicenseService(failingCountReader{}, 30*24*time.Hour, testLogger())
	renewals := NewRenewalService(licenses, notifier, newMemoryReminderStore(), time.Hour, testLogger())

	_, err := renewals.RunOnce(context.Background())
	assert.ErrorIs(t, err, models.ErrLedgerReadFailure)
	assert.Empty(t, notifier.ids)
}

func TestNotificationServiceRendersAndSends(t *testing.T) {
	cfg := &config.Config{
		Email: config.EmailConfig{
			SMTPHost:     "smtp.test",
			SMTPPort:     "587",
			SMTPUsername: "mailer",
			FromEmail:    "noreply@licensechain.test",
			FromName:     "LicenseChain",
		},
		Frontend: config.FrontendConfig{BaseURL: "https://licensechain.test"},
	}
	service := NewNotificationService(cfg, testLogger())

	var to []string
	var body string
	service.sendMail = func(addr string, _ smtp.Auth, from string, rcpt []string, msg []byte) error {
		assert.Equal(t, "smtp.test:587", addr)
		assert.Equal(t, "noreply@licensechain.test", from)
		to = rcpt
		body = string(msg)
		return nil
	}

	record := models.LicenseRecord{ID: 7, BusinessName: "Acme & Sons", Email: "owner@acme.test", ExpiryDate: 1767225600}
	require.NoError(t, service.SendStatusChangeNotification(record, models.LicenseStatusApproved))
	assert.Equal(t, []string{"owner@acme.test"}, to)
	assert.Contains(t, body, "Acme &amp; Sons")
	assert.Contains(t, body, "https://licensechain.test/verify/7")

	body = ""
	require.NoError(t, service.SendStatusChangeNotification(models.LicenseRecord{ID: 8}, models.LicenseStatusRevoked))
	assert.Empty(t, body)
}

func TestNotificationServiceDisabled(t *testing.T) {
	service := NewNotificationService(&config.Config{}, testLogger())
	called := false
	service.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	view := models.LicenseView{LicenseRecord: models.LicenseRecord{ID: 1, Email: "a@b.test", ExpiryDate: time.Now().Unix()}}
	require.NoError(t, service.SendRenewalReminder(view))
	assert.False(t, called)
}

func TestRenewalNonPositiveIntervalFallsBack(t *testing.T) {
	licenses := NewLicenseService(failingCountReader{}, 30*24*time.Hour, testLogger())
	renewals := NewRenewalService(licenses, &countingRenewalNotifier{}, newMemoryReminderStore(), 0, testLogger())
	assert.Equal(t, DefaultRenewalInterval, renewals.interval)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NotPanics(t, func() { renewals.Run(ctx) })
}

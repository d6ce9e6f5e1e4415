// cmd/licensectl/errors_test.go
package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/services"
	"github.com/javajoker/licensechain/internal/utils"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "draft fields",
			err:  &services.DraftError{Fields: []utils.ValidationError{{Field: "email"}, {Field: "sector"}}},
			want: "application is incomplete: email, sector",
		},
		{
			name: "wrapped unauthorized",
			err:  fmt.Errorf("approve 3: %w", models.ErrUnauthorized),
			want: "the signing account is not an admin",
		},
		{
			name: "unconfirmed revoke",
			err:  models.ErrConfirmationRequired,
			want: "revocation was not confirmed, nothing was written",
		},
		{
			name: "confirmed without id",
			err:  fmt.Errorf("%w: tx 0xabc", models.ErrLicenseIDUnknown),
			want: "the application was recorded but its license id is unknown; check `licensectl list --mine`: application confirmed but license id unknown: tx 0xabc",
		},
		{
			name: "other",
			err:  errors.New("boom"),
			want: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(tt.err))
		})
	}
}

func TestParseLicenseID(t *testing.T) {
	id, err := parseLicenseID("42")
	assert.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	// 0 parses; the ledger lookup reports it as not found.
	id, err = parseLicenseID("0")
	assert.NoError(t, err)
	assert.Zero(t, id)

	for _, bad := range []string{"-1", "abc", ""} {
		_, err := parseLicenseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestExpiryLabel(t *testing.T) {
	view := models.LicenseView{
		LicenseRecord: models.LicenseRecord{ExpiryDate: 1767225600},
		Validity:      models.ValidityClassification{RenewalDue: true, ExpiresInDays: 12},
	}
	assert.Equal(t, "2026-01-01 (12d, renew)", expiryLabel(view))

	assert.Equal(t, "-", expiryLabel(models.LicenseView{}))
}

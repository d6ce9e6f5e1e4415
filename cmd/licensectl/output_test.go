// cmd/licensectl/output_test.go
package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/licensechain/internal/models"
)

func TestVersionWritesToCommandOutput(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "licensectl "+Version+"\n  Git commit: "+GitCommit+"\n", out.String())
}

func TestPrintJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printJSON(&out, map[string]uint64{"license_id": 7}))

	var decoded map[string]uint64
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, uint64(7), decoded["license_id"])
	assert.Contains(t, out.String(), "\n  \"license_id\"")
}

func TestWriteVerification(t *testing.T) {
	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var out bytes.Buffer
	writeVerification(&out, &models.VerificationResult{
		LicenseID:     3,
		IsValid:       true,
		DisplayStatus: "Active",
		BusinessName:  "Acme Trading",
		LicenseType:   "Trading",
		Sector:        "Retail",
		ExpiryDate:    &expiry,
	})

	assert.Equal(t, "License #3: VALID (Active)\n"+
		"  Business: Acme Trading\n"+
		"  Type:     Trading / Retail\n"+
		"  Expires:  2026-01-01\n", out.String())

	out.Reset()
	writeVerification(&out, &models.VerificationResult{LicenseID: 4, DisplayStatus: "Revoked"})
	assert.Contains(t, out.String(), "License #4: NOT VALID (Revoked)")
	assert.NotContains(t, out.String(), "Expires")
}

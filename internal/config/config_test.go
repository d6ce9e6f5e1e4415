// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("BLOCKCHAIN_RPC_URL", "")
	t.Setenv("STORAGE_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Blockchain.Simulated())
	assert.Equal(t, "pinata", cfg.Storage.Backend)
	assert.Equal(t, 30, cfg.Renewal.WindowDays)
	assert.Equal(t, 30*24*time.Hour, cfg.Renewal.Window())
	assert.Equal(t, "license.status_changed", cfg.NATS.Subject)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, int64(10*1024*1024), cfg.Storage.MaxUploadSize)
}

func TestLoadAdminAddresses(t *testing.T) {
	t.Setenv("ADMIN_ADDRESSES", " 0x1000000000000000000000000000000000000001 ,,0x2000000000000000000000000000000000000002")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"0x1000000000000000000000000000000000000001",
		"0x2000000000000000000000000000000000000002",
	}, cfg.Admin.Addresses)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "bad admin address",
			env:     map[string]string{"ADMIN_ADDRESSES": "alice"},
			wantErr: "invalid admin address",
		},
		{
			name:    "rpc without contract",
			env:     map[string]string{"BLOCKCHAIN_RPC_URL": "http://localhost:8545", "BLOCKCHAIN_CONTRACT_ADDRESS": ""},
			wantErr: "BLOCKCHAIN_CONTRACT_ADDRESS",
		},
		{
			name:    "unknown storage backend",
			env:     map[string]string{"STORAGE_BACKEND": "ftp"},
			wantErr: "unknown storage backend",
		},
		{
			name:    "default secret in production",
			env:     map[string]string{"ENVIRONMENT": "production", "JWT_SECRET": ""},
			wantErr: "JWT secret key",
		},
		{
			name:    "renewals without interval",
			env:     map[string]string{"RENEWAL_REMINDERS_ENABLED": "true", "RENEWAL_INTERVAL_MINUTES": "0"},
			wantErr: "RENEWAL_INTERVAL_MINUTES",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDisabledRenewalsIgnoreInterval(t *testing.T) {
	t.Setenv("RENEWAL_REMINDERS_ENABLED", "false")
	t.Setenv("RENEWAL_INTERVAL_MINUTES", "-5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Renewal.Enabled)
}

// internal/app/bootstrap_test.go
package app

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/licensechain/internal/config"
)

const operatorKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(config.LoggingConfig{Level: "debug"}, "development")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	logger = NewLogger(config.LoggingConfig{Level: "nonsense"}, "production")
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger = NewLogger(config.LoggingConfig{Level: "warn", Format: "text"}, "production")
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestOpenLedgerSimulatedWithOperatorKey(t *testing.T) {
	cfg := &config.Config{Blockchain: config.BlockchainConfig{ChainID: 1337, PrivateKey: "0x" + operatorKey}}

	handle, err := OpenLedger(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer handle.Close()

	assert.True(t, handle.Simulated)
	assert.Equal(t, int64(1337), handle.ChainID.Int64())
	require.NotNil(t, handle.Operator)
	require.NotNil(t, handle.Memory)
	assert.Equal(t, handle.Operator.Address(), handle.Memory.Admin())
	assert.Equal(t, handle.Operator.Address(), handle.ContractAdmin)

	count, err := handle.Ledger.LicenseCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOpenLedgerSimulatedGeneratesOperator(t *testing.T) {
	cfg := &config.Config{Blockchain: config.BlockchainConfig{ChainID: 1337}}

	handle, err := OpenLedger(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer handle.Close()

	require.NotNil(t, handle.Operator)
	assert.Equal(t, handle.Operator.Address(), handle.Memory.Admin())
}

func TestOpenLedgerRejectsBadKey(t *testing.T) {
	cfg := &config.Config{Blockchain: config.BlockchainConfig{ChainID: 1337, PrivateKey: "not-hex"}}

	_, err := OpenLedger(context.Background(), cfg, quietLogger())
	assert.Error(t, err)
}

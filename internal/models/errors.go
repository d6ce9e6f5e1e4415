// internal/models/errors.go
package models

import "errors"

// Failure taxonomy shared by the ledger client, wallet providers and services.
// Callers wrap these with %w and match them with errors.Is.
var (
	ErrNoWalletProvider     = errors.New("no wallet provider available")
	ErrUserRejected         = errors.New("wallet connection rejected")
	ErrUnauthorized         = errors.New("unauthorized: wallet is not an admin")
	ErrUploadFailure        = errors.New("document upload failed")
	ErrTransactionRejected  = errors.New("transaction rejected by signer")
	ErrTransactionReverted  = errors.New("transaction reverted by ledger")
	ErrLedgerReadFailure    = errors.New("ledger read failed")
	ErrNotFound             = errors.New("license not found")
	ErrConfirmationRequired = errors.New("explicit confirmation required")
	ErrInvalidDraft         = errors.New("application draft is incomplete")
	ErrLicenseIDUnknown     = errors.New("application confirmed but license id unknown")
)

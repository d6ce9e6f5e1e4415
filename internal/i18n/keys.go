// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Wallet authentication
	KeyAuthRequired         = "auth.required"
	KeyAuthInvalidToken     = "auth.invalid_token"
	KeyAuthTokenExpired     = "auth.token_expired"
	KeyAuthNonceInvalid     = "auth.nonce_invalid"
	KeyAuthSignatureInvalid = "auth.signature_invalid"
	KeyAuthConnected        = "auth.connected"
	KeyAuthDisconnected     = "auth.disconnected"
	KeyWalletNotFound       = "wallet.not_found"
	KeyWalletRejected       = "wallet.rejected"

	// Licenses
	KeyLicenseApplied      = "license.applied"
	KeyLicenseApproved     = "license.approved"
	KeyLicenseRejected     = "license.rejected"
	KeyLicenseRevoked      = "license.revoked"
	KeyLicenseNotFound     = "license.not_found"
	KeyLicenseExpired      = "license.expired"
	KeyLicenseInvalid      = "license.invalid"
	KeyLicenseValid        = "license.valid"
	KeyLicenseInvalidID    = "license.invalid_id"
	KeyLicenseRenewalDue   = "license.renewal_due"
	KeyLedgerReadFailed    = "ledger.read_failed"
	KeyLicenseIDUnknown    = "ledger.license_id_unknown"
	KeyTransactionRejected = "transaction.rejected"
	KeyTransactionReverted = "transaction.reverted"

	// Documents
	KeyDocumentUploaded      = "document.uploaded"
	KeyDocumentRequired      = "document.required"
	KeyDocumentUploadFailed  = "document.upload_failed"
	KeyDocumentTooLarge      = "document.too_large"
	KeyDocumentTypeForbidden = "document.type_forbidden"

	// Admin
	KeyAdminActionSuccess       = "admin.action_success"
	KeyAdminAccessDenied        = "admin.access_denied"
	KeyAdminConfirmationMissing = "admin.confirmation_required"
	KeyAdminInvalidAction       = "admin.invalid_action"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationEmail    = "validation.invalid_email"
	KeyValidationAddress  = "validation.invalid_address"

	// Rate limiting
	KeyRateLimitExceeded = "rate_limit.exceeded"
)

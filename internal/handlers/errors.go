// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/licensechain/internal/blockchain"
	"github.com/javajoker/licensechain/internal/i18n"
	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/services"
	"github.com/javajoker/licensechain/internal/utils"
)

// respondError maps the failure taxonomy onto HTTP responses.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)
	c.Error(err)

	var draftErr *services.DraftError
	switch {
	case errors.As(err, &draftErr):
		utils.ValidationErrorResponse(c, draftErr.Fields)
	case errors.Is(err, models.ErrInvalidDraft):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyDocumentRequired), nil)
	case errors.Is(err, models.ErrNotFound):
		utils.NotFoundResponse(c, "license")
	case errors.Is(err, services.ErrInvalidAction):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyAdminInvalidAction), nil)
	case errors.Is(err, services.ErrDocumentTooLarge):
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "DOCUMENT_TOO_LARGE", i18n.T(lang, i18n.KeyDocumentTooLarge), nil)
	case errors.Is(err, services.ErrDocumentTypeForbidden):
		utils.ErrorResponse(c, http.StatusUnsupportedMediaType, "DOCUMENT_TYPE_FORBIDDEN", i18n.T(lang, i18n.KeyDocumentTypeForbidden), nil)
	case errors.Is(err, models.ErrUploadFailure):
		utils.BadGatewayResponse(c, "UPLOAD_FAILED", i18n.T(lang, i18n.KeyDocumentUploadFailed))
	case errors.Is(err, models.ErrLicenseIDUnknown):
		utils.BadGatewayResponse(c, "LICENSE_ID_UNKNOWN", i18n.T(lang, i18n.KeyLicenseIDUnknown))
	case errors.Is(err, models.ErrLedgerReadFailure):
		utils.BadGatewayResponse(c, "LEDGER_UNAVAILABLE", i18n.T(lang, i18n.KeyLedgerReadFailed))
	case errors.Is(err, models.ErrConfirmationRequired):
		utils.PreconditionRequiredResponse(c, i18n.T(lang, i18n.KeyAdminConfirmationMissing))
	case errors.Is(err, models.ErrUnauthorized):
		utils.ForbiddenResponse(c, "")
	case errors.Is(err, models.ErrNoWalletProvider):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyWalletNotFound))
	case errors.Is(err, models.ErrUserRejected):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyWalletRejected))
	case errors.Is(err, models.ErrTransactionRejected):
		utils.UnprocessableResponse(c, "TRANSACTION_REJECTED", i18n.T(lang, i18n.KeyTransactionRejected), nil)
	case errors.Is(err, models.ErrTransactionReverted):
		var details interface{}
		if reason := blockchain.RevertReason(err); reason != "" {
			details = gin.H{"reason": reason}
		}
		utils.UnprocessableResponse(c, "TRANSACTION_REVERTED", i18n.T(lang, i18n.KeyTransactionReverted), details)
	default:
		utils.InternalErrorResponse(c, "")
	}
}

// licenseID parses the :id path segment. Ids start at 1.
// licenseID rejects only ids that do not parse. Id 0 is left to the
// service, which reports it as not found.
func licenseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyLicenseInvalidID), nil)
		return 0, false
	}
	return id, true
}

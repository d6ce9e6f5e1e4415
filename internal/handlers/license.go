// internal/handlers/license.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/services"
	"github.com/javajoker/licensechain/internal/utils"
)

// LicenseHandler serves reconciled views of the ledger. Every request
// re-reads the ledger.
type LicenseHandler struct {
	licenseService *services.LicenseService
}

func NewLicenseHandler(licenseService *services.LicenseService) *LicenseHandler {
	return &LicenseHandler{
		licenseService: licenseService,
	}
}

func (h *LicenseHandler) list(c *gin.Context, scope models.LicenseScope) {
	views, err := h.licenseService.ListLicenses(c.Request.Context(), scope)
	if err != nil {
		respondError(c, err)
		return
	}

	views = services.FilterByStatus(views, c.Query("status"))
	utils.PaginatedResponse(c, utils.PaginateSlice(views, utils.GetPaginationParams(c)))
}

// GET /v1/licenses?owner=0x..&status=Approved&page=1&limit=20
func (h *LicenseHandler) GetLicenses(c *gin.Context) {
	scope := models.AllLicenses()
	if owner := c.Query("owner"); owner != "" {
		scope = models.OwnedBy(owner)
	}
	h.list(c, scope)
}

// GET /v1/licenses/mine
func (h *LicenseHandler) GetMyLicenses(c *gin.Context) {
	address, exists := utils.GetWalletAddressFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}
	h.list(c, models.OwnedBy(address))
}

// GET /v1/licenses/renewals
func (h *LicenseHandler) GetRenewals(c *gin.Context) {
	scope := models.AllLicenses()
	if !utils.IsAdminFromContext(c) {
		address, exists := utils.GetWalletAddressFromContext(c)
		if !exists {
			utils.UnauthorizedResponse(c, "")
			return
		}
		scope = models.OwnedBy(address)
	}

	views, err := h.licenseService.ExpiringLicenses(c.Request.Context(), scope)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"window_days": int(h.licenseService.RenewalWindow().Hours() / 24),
		"licenses":    views,
	})
}

// GET /v1/licenses/:id
func (h *LicenseHandler) GetLicense(c *gin.Context) {
	id, ok := licenseID(c)
	if !ok {
		return
	}

	view, err := h.licenseService.GetLicense(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, view)
}

// GET /v1/licenses/:id/verify
func (h *LicenseHandler) VerifyLicense(c *gin.Context) {
	id, ok := licenseID(c)
	if !ok {
		return
	}

	result, err := h.licenseService.VerifyLicense(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, result)
}

// internal/handlers/admin.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/licensechain/internal/i18n"
	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/services"
	"github.com/javajoker/licensechain/internal/utils"
	"github.com/javajoker/licensechain/internal/wallet"
)

// AuditLister pages through recorded admin activity.
type AuditLister interface {
	List(ctx context.Context, wallet string, params utils.PaginationParams) ([]models.AuditLog, int64, error)
}

// AdminHandler performs admin actions for the wallet proven at login. The
// server's operator key signs on its behalf.
type AdminHandler struct {
	adminService   *services.AdminService
	licenseService *services.LicenseService
	audit          AuditLister
	operator       wallet.Provider
}

type RevokeRequest struct {
	Confirm bool `json:"confirm"`
}

func NewAdminHandler(adminService *services.AdminService, licenseService *services.LicenseService, audit AuditLister, operator wallet.Provider) *AdminHandler {
	return &AdminHandler{
		adminService:   adminService,
		licenseService: licenseService,
		audit:          audit,
		operator:       operator,
	}
}

// GET /v1/admin/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.licenseService.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// GET /v1/admin/audit-logs?wallet=0x..
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	if h.audit == nil {
		utils.PaginatedResponse(c, utils.CreatePaginationResult([]models.AuditLog{}, 0, params))
		return
	}

	logs, total, err := h.audit.List(c.Request.Context(), c.Query("wallet"), params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(logs, total, params))
}

// PUT /v1/admin/licenses/:id/approve
func (h *AdminHandler) ApproveLicense(c *gin.Context) {
	h.act(c, models.AdminActionApprove, nil)
}

// PUT /v1/admin/licenses/:id/reject
func (h *AdminHandler) RejectLicense(c *gin.Context) {
	h.act(c, models.AdminActionReject, nil)
}

// PUT /v1/admin/licenses/:id/revoke
// Body: {"confirm": true}. Without it nothing is written.
func (h *AdminHandler) RevokeLicense(c *gin.Context) {
	var req RevokeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			lang := utils.GetLangFromContext(c)
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
			return
		}
	}

	h.act(c, models.AdminActionRevoke, func(uint64) bool { return req.Confirm })
}

func (h *AdminHandler) act(c *gin.Context, action models.AdminAction, confirm services.ConfirmFunc) {
	lang := utils.GetLangFromContext(c)

	id, ok := licenseID(c)
	if !ok {
		return
	}

	address, exists := utils.GetWalletAddressFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	provider := wallet.NewDelegatedProvider(address, h.operator)
	result, err := h.adminService.Act(c.Request.Context(), provider, id, action, confirm)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAdminActionSuccess),
		"result":  result,
	})
}

// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/licensechain/internal/i18n"
	"github.com/javajoker/licensechain/internal/services"
	"github.com/javajoker/licensechain/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// POST /v1/auth/nonce
func (h *AuthHandler) Nonce(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.NonceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	nonce, err := h.authService.IssueNonce(c.Request.Context(), &req)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, nonce)
}

// POST /v1/auth/connect
func (h *AuthHandler) Connect(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	authResponse, err := h.authService.Connect(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":      i18n.T(lang, i18n.KeyAuthConnected),
		"session":      authResponse.Session,
		"access_token": authResponse.AccessToken,
		"token_type":   authResponse.TokenType,
		"expires_in":   authResponse.ExpiresIn,
	})
}

// GET /v1/auth/session
func (h *AuthHandler) Session(c *gin.Context) {
	address, exists := utils.GetWalletAddressFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	utils.SuccessResponse(c, h.authService.Session(address))
}

// POST /v1/auth/disconnect
func (h *AuthHandler) Disconnect(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	claims, _ := c.Get("claims")
	walletClaims, _ := claims.(*utils.WalletClaims)
	if err := h.authService.Disconnect(c.Request.Context(), walletClaims); err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAuthDisconnected),
		"session": gin.H{"connected_address": "", "is_authorized": false},
	})
}

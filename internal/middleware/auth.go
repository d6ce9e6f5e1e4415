// internal/middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/licensechain/internal/i18n"
	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/utils"
)

// RevocationChecker reports whether a session token was disconnected.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	// Extract token from "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// setIdentity stores the proven address and recomputes admin status from
// the live registry; the token never carries it.
func setIdentity(c *gin.Context, claims *utils.WalletClaims, admins models.AdminChecker) {
	address := common.HexToAddress(claims.Address).Hex()
	c.Set("claims", claims)
	c.Set("wallet_address", address)
	c.Set("is_admin", admins != nil && admins.IsAdmin(address))
}

func AuthRequired(sessions RevocationChecker, admins models.AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		token, ok := bearerToken(c)
		if !ok {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			key := i18n.KeyAuthInvalidToken
			if utils.IsTokenExpired(err) {
				key = i18n.KeyAuthTokenExpired
			}
			utils.UnauthorizedResponse(c, i18n.T(lang, key))
			c.Abort()
			return
		}

		if sessions != nil {
			revoked, err := sessions.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				logrus.WithError(err).Warn("session revocation check failed")
				utils.InternalErrorResponse(c, "")
				c.Abort()
				return
			}
			if revoked {
				utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
				c.Abort()
				return
			}
		}

		setIdentity(c, claims, admins)
		c.Next()
	}
}

func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !utils.IsAdminFromContext(c) {
			utils.ForbiddenResponse(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth sets the wallet identity when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(sessions RevocationChecker, admins models.AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			c.Next()
			return
		}
		if sessions != nil {
			if revoked, err := sessions.IsRevoked(c.Request.Context(), claims.ID); err != nil || revoked {
				c.Next()
				return
			}
		}

		setIdentity(c, claims, admins)
		c.Next()
	}
}

// internal/middleware/logging.go
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/utils"
)

// AuditWriter persists audit entries.
type AuditWriter interface {
	Record(ctx context.Context, entry *models.AuditLog) error
}

const maxAuditBody = 64 << 10

// AuditLogMiddleware records every mutating request with the wallet that
// made it. Multipart bodies are not captured.
func AuditLogMiddleware(audit AuditWriter, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for GET requests and health checks
		if c.Request.Method == "GET" || c.Request.Method == "OPTIONS" || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		var requestData map[string]interface{}
		if c.Request.Body != nil && strings.HasPrefix(c.ContentType(), "application/json") {
			requestBody, _ := io.ReadAll(io.LimitReader(c.Request.Body, maxAuditBody))
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
			if len(requestBody) > 0 {
				json.Unmarshal(requestBody, &requestData)
			}
		}

		c.Next()

		wallet, _ := utils.GetWalletAddressFromContext(c)
		auditLog := &models.AuditLog{
			WalletAddress: wallet,
			Action:        c.Request.Method + " " + c.FullPath(),
			ResourceType:  extractResourceType(c.Request.URL.Path),
			ResourceID:    c.Param("id"),
			NewValues:     models.JSONB(requestData),
			StatusCode:    c.Writer.Status(),
			IPAddress:     c.ClientIP(),
			UserAgent:     c.Request.UserAgent(),
		}

		// Save audit log asynchronously
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := audit.Record(ctx, auditLog); err != nil {
				logger.WithError(err).Error("Failed to create audit log")
			}
		}()
	}
}

func extractResourceType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "v1" {
		if parts[1] == "admin" && len(parts) >= 3 {
			return parts[2]
		}
		return parts[1]
	}
	if len(parts) >= 1 && parts[0] != "" {
		return parts[0]
	}
	return "unknown"
}

// RequestLogger tags each request with an id and logs it once finished.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
		}
		if wallet, ok := utils.GetWalletAddressFromContext(c); ok {
			fields["wallet"] = wallet
			fields["is_admin"] = utils.IsAdminFromContext(c)
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		entry := logger.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("Request processed")
		case status >= 400:
			entry.Warn("Request processed")
		default:
			entry.Info("Request processed")
		}
	}
}

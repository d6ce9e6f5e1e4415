// internal/models/admin.go
package models

import (
	"time"
)

type AuditLog struct {
	BaseModel
	WalletAddress string `json:"wallet_address" gorm:"size:42;index"`
	Action        string `json:"action" gorm:"size:100;not null;index"`
	ResourceType  string `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID    string `json:"resource_id" gorm:"size:78;index"`
	TxHash        string `json:"tx_hash,omitempty" gorm:"size:66"`
	NewValues     JSONB  `json:"new_values" gorm:"type:jsonb"`
	StatusCode    int    `json:"status_code"`
	IPAddress     string `json:"ip_address" gorm:"size:45"`
	UserAgent     string `json:"user_agent" gorm:"type:text"`
}

// RenewalReminder records that the applicant of a license was reminded about
// a given expiry, so each expiry is announced once.
type RenewalReminder struct {
	BaseModel
	LicenseID  uint64    `json:"license_id" gorm:"not null;uniqueIndex:idx_renewal_license_expiry"`
	ExpiryDate int64     `json:"expiry_date" gorm:"not null;uniqueIndex:idx_renewal_license_expiry"`
	Email      string    `json:"email" gorm:"size:255"`
	SentAt     time.Time `json:"sent_at"`
}

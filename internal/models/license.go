// internal/models/license.go
package models

import (
	"strings"
	"time"
)

// LicenseStatus mirrors the status string stored by the LicenseChain contract.
type LicenseStatus string

const (
	LicenseStatusPending  LicenseStatus = "Pending"
	LicenseStatusApproved LicenseStatus = "Approved"
	LicenseStatusRejected LicenseStatus = "Rejected"
	LicenseStatusRevoked  LicenseStatus = "Revoked"
)

// Display labels that differ from the raw status.
const (
	DisplayStatusActive  = "Active"
	DisplayStatusExpired = "Expired"
)

func (s LicenseStatus) IsValid() bool {
	switch s {
	case LicenseStatusPending, LicenseStatusApproved, LicenseStatusRejected, LicenseStatusRevoked:
		return true
	}
	return false
}

// ParseLicenseStatus accepts any casing of a known status.
func ParseLicenseStatus(value string) (LicenseStatus, bool) {
	for _, s := range []LicenseStatus{
		LicenseStatusPending, LicenseStatusApproved, LicenseStatusRejected, LicenseStatusRevoked,
	} {
		if strings.EqualFold(string(s), strings.TrimSpace(value)) {
			return s, true
		}
	}
	return "", false
}

// LicenseRecord is a license as stored on the ledger. It is read-only from
// this system's point of view; an ID of 0 means the slot does not exist.
type LicenseRecord struct {
	ID              uint64        `json:"id"`
	BusinessName    string        `json:"business_name"`
	RegNumber       string        `json:"reg_number"`
	Email           string        `json:"email"`
	PhysicalAddress string        `json:"physical_address"`
	Description     string        `json:"description"`
	LicenseType     string        `json:"license_type"`
	Sector          string        `json:"sector"`
	DocumentRef     string        `json:"document_ref"`
	Applicant       string        `json:"applicant"`
	IssueDate       int64         `json:"issue_date"`
	ExpiryDate      int64         `json:"expiry_date"`
	Status          LicenseStatus `json:"status"`
}

func (r *LicenseRecord) Exists() bool {
	return r != nil && r.ID != 0
}

// OwnedBy compares the applicant address case-insensitively.
func (r *LicenseRecord) OwnedBy(address string) bool {
	if address == "" {
		return false
	}
	return strings.EqualFold(r.Applicant, address)
}

// LicenseInput is the applyForLicense tuple.
type LicenseInput struct {
	BusinessName    string `json:"business_name"`
	RegNumber       string `json:"reg_number"`
	Email           string `json:"email"`
	PhysicalAddress string `json:"physical_address"`
	Description     string `json:"description"`
	LicenseType     string `json:"license_type"`
	Sector          string `json:"sector"`
	DocumentRef     string `json:"document_ref"`
}

// ValidityClassification is derived from (status, expiry) at a given instant
// and never stored.
type ValidityClassification struct {
	IsCurrentlyValid bool   `json:"is_currently_valid"`
	DisplayStatus    string `json:"display_status"`
	RenewalDue       bool   `json:"renewal_due"`
	ExpiresInDays    int    `json:"expires_in_days,omitempty"`
}

// Classify derives the validity of a record at now. A renewalWindow of zero
// disables the renewal flag.
func Classify(r LicenseRecord, now time.Time, renewalWindow time.Duration) ValidityClassification {
	c := ValidityClassification{DisplayStatus: string(r.Status)}

	if r.Status != LicenseStatusApproved {
		return c
	}

	expiry := time.Unix(r.ExpiryDate, 0)
	if r.ExpiryDate <= 0 || !expiry.After(now) {
		c.DisplayStatus = DisplayStatusExpired
		return c
	}

	c.IsCurrentlyValid = true
	c.DisplayStatus = DisplayStatusActive
	c.ExpiresInDays = int(expiry.Sub(now).Hours() / 24)
	if renewalWindow > 0 && !expiry.After(now.Add(renewalWindow)) {
		c.RenewalDue = true
	}
	return c
}

// LicenseView is a display-ready row: the record plus its classification.
type LicenseView struct {
	LicenseRecord
	Validity ValidityClassification `json:"validity"`
}

// LicenseScope selects which records a listing keeps. The zero value
// keeps nothing.
type LicenseScope struct {
	all   bool
	Owner string
}

// AllLicenses keeps every existing record.
func AllLicenses() LicenseScope {
	return LicenseScope{all: true}
}

// OwnedBy keeps records whose applicant matches address. An empty address
// matches no record.
func OwnedBy(address string) LicenseScope {
	return LicenseScope{Owner: address}
}

func (s LicenseScope) IsAll() bool {
	return s.all
}

func (s LicenseScope) Includes(r LicenseRecord) bool {
	if s.IsAll() {
		return true
	}
	return r.OwnedBy(s.Owner)
}

// LicenseStatistics backs the admin dashboard counters.
type LicenseStatistics struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Approved   int `json:"approved"`
	Rejected   int `json:"rejected"`
	Revoked    int `json:"revoked"`
	Active     int `json:"active"`
	Expired    int `json:"expired"`
	RenewalDue int `json:"renewal_due"`
}

// VerificationResult is the public answer to "is license N valid".
type VerificationResult struct {
	LicenseID     uint64        `json:"license_id"`
	IsValid       bool          `json:"is_valid"`
	Status        LicenseStatus `json:"status"`
	DisplayStatus string        `json:"display_status"`
	BusinessName  string        `json:"business_name"`
	LicenseType   string        `json:"license_type"`
	Sector        string        `json:"sector"`
	IssueDate     *time.Time    `json:"issue_date,omitempty"`
	ExpiryDate    *time.Time    `json:"expiry_date,omitempty"`
	DocumentRef   string        `json:"document_ref"`
}

// internal/models/draft.go
package models

import "io"

// DocumentFile is the primary identity document attached to an application.
type DocumentFile struct {
	Name        string    `json:"name" validate:"required"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size" validate:"gt=0"`
	Reader      io.Reader `json:"-" validate:"required"`
}

// ApplicationDraft is the in-progress application form. It is discarded on
// successful submission and never persisted.
type ApplicationDraft struct {
	BusinessName    string        `json:"business_name" validate:"required"`
	RegNumber       string        `json:"reg_number" validate:"required"`
	Email           string        `json:"email" validate:"required,email"`
	PhysicalAddress string        `json:"physical_address" validate:"required"`
	Description     string        `json:"description" validate:"required"`
	LicenseType     string        `json:"license_type" validate:"required"`
	Sector          string        `json:"sector" validate:"required"`
	Document        *DocumentFile `json:"document" validate:"required"`
}

// Input builds the ledger tuple once the document has been uploaded.
func (d *ApplicationDraft) Input(documentRef string) LicenseInput {
	return LicenseInput{
		BusinessName:    d.BusinessName,
		RegNumber:       d.RegNumber,
		Email:           d.Email,
		PhysicalAddress: d.PhysicalAddress,
		Description:     d.Description,
		LicenseType:     d.LicenseType,
		Sector:          d.Sector,
		DocumentRef:     documentRef,
	}
}

// cmd/licensectl/errors.go
package main

import (
	"errors"
	"strings"

	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/services"
)

// describe turns a flow error into the line shown to the operator.
func describe(err error) string {
	var draftErr *services.DraftError
	switch {
	case errors.As(err, &draftErr):
		return "application is incomplete: " + joinFields(draftErr)
	case errors.Is(err, models.ErrNoWalletProvider):
		return "no keystore account available; pass --keystore and --account"
	case errors.Is(err, models.ErrUserRejected):
		return "account was not unlocked"
	case errors.Is(err, models.ErrUnauthorized):
		return "the signing account is not an admin"
	case errors.Is(err, models.ErrConfirmationRequired):
		return "revocation was not confirmed, nothing was written"
	case errors.Is(err, models.ErrTransactionRejected):
		return "transaction was not signed"
	case errors.Is(err, models.ErrTransactionReverted):
		return "the contract refused the transaction: " + err.Error()
	case errors.Is(err, models.ErrUploadFailure):
		return "document upload failed, nothing was written: " + err.Error()
	case errors.Is(err, models.ErrLicenseIDUnknown):
		return "the application was recorded but its license id is unknown; check `licensectl list --mine`: " + err.Error()
	case errors.Is(err, models.ErrNotFound):
		return "no such license"
	}
	return err.Error()
}

func joinFields(e *services.DraftError) string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return strings.Join(names, ", ")
}

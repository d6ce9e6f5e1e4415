// internal/handlers/document.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/licensechain/internal/i18n"
	"github.com/javajoker/licensechain/internal/models"
	"github.com/javajoker/licensechain/internal/services"
	"github.com/javajoker/licensechain/internal/utils"
)

// DocumentHandler proxies document uploads so browser clients never hold
// the storage credential.
type DocumentHandler struct {
	storageService *services.StorageService
}

func NewDocumentHandler(storageService *services.StorageService) *DocumentHandler {
	return &DocumentHandler{
		storageService: storageService,
	}
}

// POST /v1/documents (multipart, field "file")
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	header, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyDocumentRequired), nil)
		return
	}

	file, err := header.Open()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyDocumentRequired), err.Error())
		return
	}
	defer file.Close()

	result, err := h.storageService.UploadDocument(c.Request.Context(), &models.DocumentFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyDocumentUploaded),
		"document": result,
	})
}

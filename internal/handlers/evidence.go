// internal/handlers/evidence.go
package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/datasov-backend/internal/i18n"
	"github.com/javajoker/datasov-backend/internal/services"
	"github.com/javajoker/datasov-backend/internal/utils"
)

type EvidenceHandler struct {
	evidenceService *services.EvidenceService
}

func NewEvidenceHandler(evidenceService *services.EvidenceService) *EvidenceHandler {
	return &EvidenceHandler{
		evidenceService: evidenceService,
	}
}

// POST /evidence
func (h *EvidenceHandler) Upload(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	owner, ok := requireActor(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}
	defer file.Close()

	if header.Size > services.MaxEvidenceSize {
		respondError(c, services.ErrEvidenceTooLarge)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, services.MaxEvidenceSize+1))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}

	upload, err := h.evidenceService.Upload(c.Request.Context(), owner, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyEvidenceUploaded),
		"evidence": upload,
	})
}

// GET /evidence/url?ref=
func (h *EvidenceHandler) PresignURL(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	reference := c.Query("ref")
	if reference == "" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "ref"), nil)
		return
	}

	url, err := h.evidenceService.PresignURL(reference)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"reference": reference,
		"url":       url,
	})
}

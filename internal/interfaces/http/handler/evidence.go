package handler

import (
	"github.com/gin-gonic/gin"

	reconcileapp "github.com/erp/reconcile/internal/application/reconcile"
)

// EvidenceHandler handles evidence photo upload and download endpoints
type EvidenceHandler struct {
	BaseHandler
	evidenceService *reconcileapp.EvidenceService
}

// NewEvidenceHandler creates a new EvidenceHandler
func NewEvidenceHandler(evidenceService *reconcileapp.EvidenceService) *EvidenceHandler {
	return &EvidenceHandler{
		evidenceService: evidenceService,
	}
}

// RequestUpload godoc
//
//	@ID				requestEvidenceUpload
//	@Summary		Request an evidence upload URL
//	@Description	Issue a presigned URL for uploading an evidence photo; the returned storage key is referenced in subsequent return or replace requests
//	@Tags			evidence
//	@Accept			json
//	@Produce		json
//	@Param			request	body		reconcileapp.EvidenceUploadRequest	true	"Upload request"
//	@Success		200		{object}	APIResponse[reconcileapp.EvidenceUploadResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/evidence/upload-url [post]
func (h *EvidenceHandler) RequestUpload(c *gin.Context) {
	var req reconcileapp.EvidenceUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.evidenceService.RequestUpload(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// DownloadURL godoc
//
//	@ID				getEvidenceDownloadUrl
//	@Summary		Get an evidence download URL
//	@Description	Issue a presigned URL for viewing a previously uploaded evidence photo
//	@Tags			evidence
//	@Produce		json
//	@Param			key	query		string	true	"Evidence storage key"
//	@Success		200	{object}	APIResponse[reconcileapp.EvidenceDownloadResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/evidence/download-url [get]
func (h *EvidenceHandler) DownloadURL(c *gin.Context) {
	storageKey := c.Query("key")
	if storageKey == "" {
		h.BadRequest(c, "Storage key is required")
		return
	}

	resp, err := h.evidenceService.DownloadURL(c.Request.Context(), storageKey)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Package admin exposes the admin console API: registration review,
// confirm/reject actions, dashboard stats and artifact streaming.
package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stm32-workshop/backend/internal/emaillogs"
	"github.com/stm32-workshop/backend/internal/models"
	"github.com/stm32-workshop/backend/internal/registrations"
	"github.com/stm32-workshop/backend/pkg/response"
	"github.com/stm32-workshop/backend/pkg/storage"
)

// Handler handles admin console endpoints. All routes behind this handler
// require a valid admin JWT.
type Handler struct {
	service   *registrations.Service
	blobs     storage.Store
	emailLogs *emaillogs.Repository
	logger    *zap.Logger
}

// NewHandler creates an admin handler.
func NewHandler(service *registrations.Service, blobs storage.Store, emailLogs *emaillogs.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, blobs: blobs, emailLogs: emailLogs, logger: logger}
}

// List handles GET /api/admin/registrations with status/search/pagination.
// Binary data never appears here; rows carry blob handles only.
func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	f := registrations.ListFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}
	list, total, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list registrations failed", zap.Error(err))
		response.Internal(c, "failed to load registrations")
		return
	}
	response.OK(c, gin.H{"registrations": list, "total": total, "page": f.Page})
}

// GetByID handles GET /api/admin/registrations/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	reg, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	response.OK(c, reg)
}

// Confirm handles POST /api/admin/registrations/:id/confirm.
func (h *Handler) Confirm(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	if err := h.service.Confirm(c.Request.Context(), id); err != nil {
		h.respondTransitionError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "Registration confirmed and email queued"})
}

// RejectRequest is the body for POST /api/admin/registrations/:id/reject.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// Reject handles POST /api/admin/registrations/:id/reject.
func (h *Handler) Reject(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := h.service.Reject(c.Request.Context(), id, req.Reason); err != nil {
		h.respondTransitionError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "Registration rejected and email queued"})
}

// Stats handles GET /api/admin/stats.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("load stats failed", zap.Error(err))
		response.Internal(c, "failed to load stats")
		return
	}
	response.OK(c, stats)
}

// ServeResume handles GET /api/admin/registrations/:id/resume.
func (h *Handler) ServeResume(c *gin.Context) {
	h.serveArtifact(c, func(reg *models.Registration) models.FileRef { return reg.Resume })
}

// ServePaymentProof handles GET /api/admin/registrations/:id/payment-proof.
func (h *Handler) ServePaymentProof(c *gin.Context) {
	h.serveArtifact(c, func(reg *models.Registration) models.FileRef { return reg.PaymentProof })
}

// ServeQRCode handles GET /api/admin/registrations/:id/qrcode.
func (h *Handler) ServeQRCode(c *gin.Context) {
	h.serveArtifact(c, func(reg *models.Registration) models.FileRef { return reg.QRCode })
}

// ListEmails handles GET /api/admin/registrations/:id/emails.
func (h *Handler) ListEmails(c *gin.Context) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	logs, err := h.emailLogs.ListByRegistration(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list email logs failed", zap.Error(err))
		response.Internal(c, "failed to load email logs")
		return
	}
	response.OK(c, logs)
}

func (h *Handler) serveArtifact(c *gin.Context, pick func(*models.Registration) models.FileRef) {
	id, ok := h.paramID(c)
	if !ok {
		return
	}
	reg, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	ref := pick(reg)
	if !ref.Present() {
		response.NotFound(c, "File not found")
		return
	}
	data, contentType, err := h.blobs.Get(c.Request.Context(), ref.Key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.NotFound(c, "File not found")
			return
		}
		h.logger.Error("load blob failed", zap.Error(err), zap.String("key", ref.Key))
		response.Internal(c, "failed to load file")
		return
	}
	if contentType == "" {
		contentType = ref.ContentType
	}
	if ref.Filename != "" {
		c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", ref.Filename))
	}
	c.Data(http.StatusOK, contentType, data)
}

func (h *Handler) paramID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, registrations.ErrNotFound) {
		response.NotFound(c, "Not found")
		return
	}
	h.logger.Error("load registration failed", zap.Error(err))
	response.Internal(c, "failed to load registration")
}

func (h *Handler) respondTransitionError(c *gin.Context, err error) {
	var vErr *registrations.ValidationError
	switch {
	case errors.Is(err, registrations.ErrNotFound):
		response.NotFound(c, "Not found")
	case errors.Is(err, registrations.ErrAlreadyFinalized):
		response.Conflict(c, "Registration has already been confirmed or rejected")
	case errors.As(err, &vErr):
		response.BadRequest(c, vErr.Error())
	default:
		h.logger.Error("lifecycle transition failed", zap.Error(err))
		response.Internal(c, "failed to update registration")
	}
}

package attendance

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stm32-workshop/backend/internal/qr"
	"github.com/stm32-workshop/backend/internal/registrations"
	"github.com/stm32-workshop/backend/pkg/response"
)

// Handler handles the attendance scan endpoint.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates an attendance handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// scanRequest is the body for POST /api/attendance/scan. qrData may be the
// payload object or the decoded QR text as a string; day may be an integer
// or a numeral string.
type scanRequest struct {
	QRData json.RawMessage `json:"qrData"`
	Day    json.RawMessage `json:"day"`
}

// Scan handles POST /api/attendance/scan.
func (h *Handler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	day, ok := parseDay(req.Day)
	if !ok {
		response.BadRequest(c, "Invalid day. Must be 1 or 2.")
		return
	}

	result, err := h.service.Scan(c.Request.Context(), req.QRData, day)
	if err != nil {
		var notConfirmed *NotConfirmedError
		var already *AlreadyScannedError
		switch {
		case errors.Is(err, ErrInvalidDay):
			response.BadRequest(c, "Invalid day. Must be 1 or 2.")
		case errors.Is(err, qr.ErrInvalidFormat):
			response.BadRequest(c, "Invalid QR code format")
		case errors.Is(err, qr.ErrInvalidData):
			response.BadRequest(c, "Invalid QR code data")
		case errors.Is(err, registrations.ErrNotFound):
			response.NotFound(c, "Registration not found")
		case errors.Is(err, ErrInvalidToken):
			response.BadRequest(c, "Invalid QR token")
		case errors.As(err, &notConfirmed):
			response.Forbidden(c, notConfirmed.Error())
		case errors.As(err, &already):
			response.ConflictData(c, gin.H{
				"alreadyScanned": true,
				"name":           already.Name,
			}, already.Error())
		default:
			h.logger.Error("scan failed", zap.Error(err))
			response.Internal(c, "failed to process scan")
		}
		return
	}

	response.OK(c, result)
}

// parseDay accepts 1, 2, "1" or "2".
func parseDay(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	switch d := v.(type) {
	case float64:
		if d == 1 || d == 2 {
			return int(d), true
		}
	case string:
		if d == "1" {
			return 1, true
		}
		if d == "2" {
			return 2, true
		}
	}
	return 0, false
}

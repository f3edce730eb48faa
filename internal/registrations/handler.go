package registrations

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stm32-workshop/backend/internal/upload"
	"github.com/stm32-workshop/backend/pkg/response"
)

// maxRequestSize bounds the multipart submission body: two 1 MiB files plus
// form fields.
const maxRequestSize = 3 * 1024 * 1024

// Handler handles the public registration endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// Submit handles POST /api/registrations (multipart form).
func (h *Handler) Submit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestSize)

	resume, err := formFile(c, "resume")
	if err != nil {
		response.BadRequest(c, "resume is required")
		return
	}
	proof, err := formFile(c, "paymentProof")
	if err != nil {
		response.BadRequest(c, "payment proof is required")
		return
	}

	in := SubmitInput{
		FirstName:      c.PostForm("firstName"),
		LastName:       c.PostForm("lastName"),
		Email:          c.PostForm("email"),
		Mobile:         c.PostForm("mobile"),
		College:        c.PostForm("college"),
		Specialization: c.PostForm("specialization"),
		Course:         c.PostForm("course"),
		KitOption:      c.PostForm("kitOption"),
		TransactionID:  c.PostForm("transactionId"),
		Resume:         resume,
		PaymentProof:   proof,
	}

	reg, err := h.service.Submit(c.Request.Context(), in)
	if err != nil {
		var vErr *ValidationError
		switch {
		case errors.As(err, &vErr):
			response.BadRequest(c, vErr.Error())
		case errors.Is(err, ErrDuplicateTransaction):
			response.Conflict(c, "This Transaction ID is already used.")
		default:
			h.logger.Error("submit registration failed", zap.Error(err))
			response.Internal(c, "failed to submit registration")
		}
		return
	}

	response.Created(c, gin.H{
		"id":      reg.ID,
		"message": "Registration submitted successfully. Your application is being processed.",
	})
}

// CheckTransaction handles GET /api/registrations/check-transaction/:txId.
// Advisory only: submission re-checks against the store's unique index.
func (h *Handler) CheckTransaction(c *gin.Context) {
	exists, err := h.service.TransactionExists(c.Request.Context(), c.Param("txId"))
	if err != nil {
		h.logger.Error("check transaction failed", zap.Error(err))
		response.Internal(c, "failed to check transaction id")
		return
	}
	response.OK(c, gin.H{"exists": exists})
}

// formFile reads one uploaded file fully into memory. Reads are capped a
// byte past the validation limit so oversized files fail validation rather
// than truncate silently.
func formFile(c *gin.Context, field string) (upload.File, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return upload.File{}, err
	}
	f, err := fh.Open()
	if err != nil {
		return upload.File{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, upload.MaxFileSize+1))
	if err != nil {
		return upload.File{}, err
	}
	return upload.File{
		Filename:    fh.Filename,
		ContentType: contentTypeOf(fh),
		Data:        data,
	}, nil
}

func contentTypeOf(fh *multipart.FileHeader) string {
	return fh.Header.Get("Content-Type")
}

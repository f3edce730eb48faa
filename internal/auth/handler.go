package auth

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stm32-workshop/backend/config"
	"github.com/stm32-workshop/backend/pkg/response"
	"github.com/stm32-workshop/backend/pkg/utils"
)

// LoginRequest is the body for POST /api/admin/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Handler handles admin authentication against the configured shared
// credentials. There is no user table; the workshop has a single admin
// identity shared by the front-desk team.
type Handler struct {
	cfg    config.AdminConfig
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(cfg config.AdminConfig, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{cfg: cfg, jwt: jwt, logger: logger}
}

// Login handles POST /api/admin/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "username and password are required")
		return
	}

	if !h.credentialsValid(req.Username, req.Password) {
		response.Unauthorized(c, "invalid credentials")
		return
	}

	token, err := h.jwt.Generate(req.Username, "admin")
	if err != nil {
		h.logger.Error("generate token failed", zap.Error(err))
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, gin.H{"token": token, "message": "Login successful"})
}

func (h *Handler) credentialsValid(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.cfg.Username)) == 1

	var passOK bool
	switch {
	case h.cfg.PasswordHash != "":
		passOK = utils.CheckPassword(password, h.cfg.PasswordHash)
	case h.cfg.Password != "":
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(h.cfg.Password)) == 1
	default:
		// No password configured: refuse all logins rather than allow any.
		return false
	}
	return userOK && passOK
}

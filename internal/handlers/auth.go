package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/razour08/tgbot-verify/internal/auth"
	"github.com/razour08/tgbot-verify/internal/services"
)

// AuthHandler handles registration and token issuance
type AuthHandler struct {
	ledgerService   *services.LedgerService
	adminExternalID int64
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(ledgerService *services.LedgerService, adminExternalID int64) *AuthHandler {
	return &AuthHandler{
		ledgerService:   ledgerService,
		adminExternalID: adminExternalID,
	}
}

type registerRequest struct {
	ExternalID  int64  `json:"external_id" binding:"required"`
	DisplayName string `json:"display_name"`
	InvitedBy   *int64 `json:"invited_by"`
}

// Register creates the user on first contact and returns a token. Calling
// it again for a known user just refreshes the token; the registration
// bonus is only granted once.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	user, created, err := h.ledgerService.Register(req.ExternalID, req.DisplayName, req.InvitedBy)
	if err != nil {
		log.Printf("[Auth] Registration failed for %d: %v", req.ExternalID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to register user",
		})
		return
	}

	isAdmin := user.ExternalID == h.adminExternalID

	token, err := auth.GenerateToken(user.ID, user.ExternalID, isAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate token",
		})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	c.JSON(status, gin.H{
		"token": token,
		"user": gin.H{
			"id":           user.ID,
			"external_id":  user.ExternalID,
			"display_name": user.DisplayName,
			"balance":      user.Balance,
			"created":      created,
		},
	})
}

package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/razour08/tgbot-verify/internal/models"
	"github.com/razour08/tgbot-verify/internal/services"
)

// VerifyHandler handles verification submission and status endpoints
type VerifyHandler struct {
	ledgerService       *services.LedgerService
	verificationService *services.VerificationService
	attemptService      *services.AttemptService
}

// NewVerifyHandler creates a new VerifyHandler
func NewVerifyHandler(
	ledgerService *services.LedgerService,
	verificationService *services.VerificationService,
	attemptService *services.AttemptService,
) *VerifyHandler {
	return &VerifyHandler{
		ledgerService:       ledgerService,
		verificationService: verificationService,
		attemptService:      attemptService,
	}
}

type submitRequest struct {
	ServiceType string `json:"service_type" binding:"required"`
	URL         string `json:"url" binding:"required"`
}

// Submit runs a verification attempt. The request blocks until the attempt
// reaches a terminal state or its poll window elapses.
func (h *VerifyHandler) Submit(c *gin.Context) {
	user := loadCurrentUser(c, h.ledgerService)
	if user == nil {
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Service type and url are required",
		})
		return
	}

	svc, ok := models.ParseServiceType(req.ServiceType)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown service",
		})
		return
	}

	outcome, err := h.verificationService.Submit(c.Request.Context(), user.ID, svc, req.URL)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidLink):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not extract a verification id from the link"})
		case errors.Is(err, services.ErrInsufficientBalance), errors.Is(err, services.ErrDeductionFailed):
			c.JSON(http.StatusPaymentRequired, gin.H{
				"error": "Insufficient balance",
				"cost":  h.verificationService.Cost(),
			})
		case errors.Is(err, services.ErrUserBlocked):
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is blocked"})
		default:
			log.Printf("[Verify] Submit failed for user %d: %v", user.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result": outcome,
	})
}

// Status is the free on-demand status query for a pending verification
func (h *VerifyHandler) Status(c *gin.Context) {
	user := loadCurrentUser(c, h.ledgerService)
	if user == nil {
		return
	}

	externalID := c.Param("verification_id")

	// Only expose attempts the caller owns.
	attempt, err := h.attemptService.FindByExternalID(externalID)
	if err != nil || attempt.UserID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Verification not found",
		})
		return
	}

	status, err := h.verificationService.QueryStatus(c.Request.Context(), externalID)
	if err != nil {
		log.Printf("[Verify] Status query failed for %s: %v", externalID, err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Status query failed, try again later",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"verification_id": externalID,
		"current_step":    status.CurrentStep,
		"reward_code":     status.RewardCode,
		"redirect_url":    status.RedirectURL,
		"error_ids":       status.ErrorIDs,
	})
}

// List returns the current user's attempt history, newest first
func (h *VerifyHandler) List(c *gin.Context) {
	user := loadCurrentUser(c, h.ledgerService)
	if user == nil {
		return
	}

	attempts, err := h.attemptService.ListByUser(user.ID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list verifications",
		})
		return
	}

	items := make([]gin.H, 0, len(attempts))
	for _, a := range attempts {
		items = append(items, gin.H{
			"attempt_id":      a.ID,
			"service":         a.ServiceType,
			"verification_id": a.ExternalID,
			"status":          a.Status,
			"refunded":        a.Refunded,
			"created_at":      a.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"verifications": items,
	})
}

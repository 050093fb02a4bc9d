package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/razour08/tgbot-verify/internal/models"
	"github.com/razour08/tgbot-verify/internal/services"
)

// UserHandler handles profile, check-in, invite and code redemption endpoints
type UserHandler struct {
	ledgerService     *services.LedgerService
	checkInService    *services.CheckinService
	redemptionService *services.RedemptionService
	inviteLinkBase    string
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(
	ledgerService *services.LedgerService,
	checkInService *services.CheckinService,
	redemptionService *services.RedemptionService,
	inviteLinkBase string,
) *UserHandler {
	return &UserHandler{
		ledgerService:     ledgerService,
		checkInService:    checkInService,
		redemptionService: redemptionService,
		inviteLinkBase:    inviteLinkBase,
	}
}

func (h *UserHandler) currentUser(c *gin.Context) *models.User {
	return loadCurrentUser(c, h.ledgerService)
}

// GetProfile returns the current user's profile and balance
func (h *UserHandler) GetProfile(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}

	canCheckIn, err := h.checkInService.CanCheckIn(user.ID, time.Now())
	if err != nil {
		canCheckIn = false
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":           user.ID,
			"external_id":  user.ExternalID,
			"display_name": user.DisplayName,
			"balance":      user.Balance,
			"created_at":   user.CreatedAt,
		},
		"can_check_in": canCheckIn,
	})
}

// CheckIn grants the daily check-in bonus
func (h *UserHandler) CheckIn(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}

	if err := h.checkInService.CheckIn(user.ID, time.Now()); err != nil {
		if errors.Is(err, services.ErrAlreadyCheckedIn) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Already checked in today",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Check-in failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checked in",
		"points":  services.CheckInBonus,
	})
}

// GetInvite returns the user's personal invite link
func (h *UserHandler) GetInvite(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invite_link":    fmt.Sprintf("%s%d", h.inviteLinkBase, user.ExternalID),
		"referral_bonus": services.ReferralBonus,
	})
}

type redeemRequest struct {
	Code string `json:"code" binding:"required"`
}

// RedeemCode redeems a points code for the current user
func (h *UserHandler) RedeemCode(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}

	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Code is required",
		})
		return
	}

	points, err := h.redemptionService.Redeem(req.Code, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCodeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Code not found"})
		case errors.Is(err, services.ErrCodeExhausted):
			c.JSON(http.StatusConflict, gin.H{"error": "Code has no uses left"})
		case errors.Is(err, services.ErrCodeExpired):
			c.JSON(http.StatusConflict, gin.H{"error": "Code has expired"})
		case errors.Is(err, services.ErrCodeAlreadyUsed):
			c.JSON(http.StatusConflict, gin.H{"error": "Code already redeemed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Redemption failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Code redeemed",
		"points":  points,
	})
}

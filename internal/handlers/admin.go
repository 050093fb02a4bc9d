package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/razour08/tgbot-verify/internal/services"
)

// AdminHandler handles the admin surface: balances, blocking, codes and
// broadcasts
type AdminHandler struct {
	ledgerService     *services.LedgerService
	redemptionService *services.RedemptionService
	broadcastService  *services.BroadcastService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	ledgerService *services.LedgerService,
	redemptionService *services.RedemptionService,
	broadcastService *services.BroadcastService,
) *AdminHandler {
	return &AdminHandler{
		ledgerService:     ledgerService,
		redemptionService: redemptionService,
		broadcastService:  broadcastService,
	}
}

func parseUserID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user id",
		})
		return 0, false
	}
	return uint(id), true
}

type adjustBalanceRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

// AdjustBalance credits or debits a user's balance by the given amount
func (h *AdminHandler) AdjustBalance(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req adjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Amount is required and must be non-zero",
		})
		return
	}

	var err error
	if req.Amount > 0 {
		err = h.ledgerService.Credit(userID, req.Amount)
	} else {
		err = h.ledgerService.Debit(userID, -req.Amount)
	}
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, services.ErrInsufficientBalance):
			c.JSON(http.StatusConflict, gin.H{"error": "Balance would go negative"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Balance adjustment failed"})
		}
		return
	}

	user, err := h.ledgerService.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload user"})
		return
	}

	log.Printf("[Admin] Adjusted balance of user %d by %d, now %d", userID, req.Amount, user.Balance)
	c.JSON(http.StatusOK, gin.H{
		"user_id": user.ID,
		"balance": user.Balance,
	})
}

// Block blocks a user from all point-spending operations
func (h *AdminHandler) Block(c *gin.Context) {
	h.setBlocked(c, true)
}

// Unblock lifts a user's block
func (h *AdminHandler) Unblock(c *gin.Context) {
	h.setBlocked(c, false)
}

func (h *AdminHandler) setBlocked(c *gin.Context, blocked bool) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	if err := h.ledgerService.SetBlocked(userID, blocked); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"blocked": blocked,
	})
}

// ListBlocked returns all currently blocked users
func (h *AdminHandler) ListBlocked(c *gin.Context) {
	users, err := h.ledgerService.ListBlocked()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list blocked users",
		})
		return
	}

	items := make([]gin.H, 0, len(users))
	for _, u := range users {
		items = append(items, gin.H{
			"id":           u.ID,
			"external_id":  u.ExternalID,
			"display_name": u.DisplayName,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"blocked": items,
	})
}

type createCodeRequest struct {
	Code       string `json:"code" binding:"required"`
	Points     int64  `json:"points" binding:"required"`
	MaxUses    int    `json:"max_uses" binding:"required"`
	ExpireDays *int   `json:"expire_days"`
}

// CreateCode creates a new redemption code
func (h *AdminHandler) CreateCode(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req createCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Code, points and max_uses are required",
		})
		return
	}
	if req.Points <= 0 || req.MaxUses <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Points and max_uses must be positive",
		})
		return
	}

	code, err := h.redemptionService.CreateCode(req.Code, req.Points, userID.(uint), req.MaxUses, req.ExpireDays)
	if err != nil {
		if errors.Is(err, services.ErrCodeExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Code already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create code"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":       code.Code,
		"points":     code.Points,
		"max_uses":   code.MaxUses,
		"expires_at": code.ExpiresAt,
	})
}

// ListCodes returns the most recent redemption codes
func (h *AdminHandler) ListCodes(c *gin.Context) {
	codes, err := h.redemptionService.List(20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list codes",
		})
		return
	}

	items := make([]gin.H, 0, len(codes))
	for _, code := range codes {
		items = append(items, gin.H{
			"code":         code.Code,
			"points":       code.Points,
			"max_uses":     code.MaxUses,
			"current_uses": code.CurrentUses,
			"expires_at":   code.ExpiresAt,
			"created_at":   code.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"codes": items,
	})
}

type broadcastRequest struct {
	Text string `json:"text" binding:"required"`
}

// Broadcast sends a message to every registered user
func (h *AdminHandler) Broadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Text is required",
		})
		return
	}

	result, err := h.broadcastService.Broadcast(c.Request.Context(), req.Text)
	if err != nil {
		resp := gin.H{"error": "Broadcast interrupted"}
		if result != nil {
			resp["sent"] = result.Sent
			resp["failed"] = result.Failed
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sent":   result.Sent,
		"failed": result.Failed,
	})
}

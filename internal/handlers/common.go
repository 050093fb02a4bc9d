package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/razour08/tgbot-verify/internal/auth"
	"github.com/razour08/tgbot-verify/internal/models"
	"github.com/razour08/tgbot-verify/internal/services"
)

// loadCurrentUser resolves the authenticated user and rejects blocked
// accounts before anything else runs. Returns nil after writing the
// response when the request must not proceed.
func loadCurrentUser(c *gin.Context, ledger *services.LedgerService) *models.User {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return nil
	}

	user, err := ledger.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "User not found",
		})
		return nil
	}

	if user.Blocked {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Account is blocked",
		})
		return nil
	}

	return user
}

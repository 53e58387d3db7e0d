package handler

import (
	"main/dto"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

func LogoutHandler(c *gin.Context, auth *services.AuthService) {
	var req dto.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid Request")
		return
	}

	if !auth.Logout(c.Request.Context(), req.RefreshToken) {
		utils.Unauthorized(c, "Invalid session")
		return
	}

	utils.Success(c, gin.H{"message": "Logged out successfully"})
}

// LogoutAllHandler revokes every active session of the authenticated
// user, including the current one.
func LogoutAllHandler(c *gin.Context, auth *services.AuthService) {
	userID := c.GetString("user_id")

	if !auth.LogoutAllDevices(c.Request.Context(), userID) {
		utils.InternalError(c, "Failed to log out all devices")
		return
	}

	utils.Success(c, gin.H{"message": "Logged out from all devices"})
}

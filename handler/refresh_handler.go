package handler

import (
	"main/dto"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// RefreshHandler exchanges a refresh token for a new access token. The
// refresh token stays valid until its session expires or is revoked.
func RefreshHandler(c *gin.Context, auth *services.AuthService) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.TrackError("auth", "invalid_request")
		utils.BadRequest(c, "Invalid Request")
		return
	}

	tokens, err := auth.RefreshToken(c.Request.Context(), req.RefreshToken, clientInfo(c))
	if err != nil {
		if err == services.ErrInvalidOrExpiredToken {
			utils.Unauthorized(c, "Invalid or expired refresh token")
			return
		}
		utils.TrackError("auth", "refresh_failed")
		utils.InternalError(c, "Failed to refresh token")
		return
	}

	utils.Success(c, gin.H{"tokens": tokens})
}

package handler

import (
	"main/dto"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

func LoginHandler(c *gin.Context, auth *services.AuthService) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.TrackError("auth", "invalid_request")
		utils.BadRequest(c, "Invalid Request")
		return
	}

	result, err := auth.Login(c.Request.Context(), req.Username, req.Password, clientInfo(c))
	if err != nil {
		utils.TrackError("auth", "login_failed")
		utils.InternalError(c, "Login failed")
		return
	}

	if result.LockoutTime != nil {
		utils.Locked(c, result.Message, gin.H{
			"unlock_at": result.LockoutTime,
		})
		return
	}

	if !result.Success {
		utils.Unauthorized(c, result.Message)
		return
	}

	if result.RequiresTwoFactor {
		utils.Success(c, gin.H{
			"requires_2fa": true,
			"message":      result.Message,
			"user_id":      result.UserID,
		})
		return
	}

	utils.Success(c, gin.H{
		"message": result.Message,
		"user":    result.User.Sanitized(),
		"tokens":  result.Tokens,
	})
}

// TwoFactorLoginHandler finishes a login that stopped at the two-factor
// gate. The code may be a TOTP code or a single-use backup code.
func TwoFactorLoginHandler(c *gin.Context, auth *services.AuthService, twoFactor *services.TwoFactorService) {
	var req dto.TwoFactorCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.TrackError("auth", "invalid_request")
		utils.BadRequest(c, "Invalid Request")
		return
	}

	backupUsed, err := twoFactor.Verify(c.Request.Context(), req.UserID, req.Code)
	if err != nil {
		if err == services.ErrInvalidCode {
			utils.TrackAuthAttempt("failure", "2fa")
			utils.Unauthorized(c, "Invalid 2FA code")
			return
		}
		utils.TrackError("auth", "2fa_verification_failed")
		utils.InternalError(c, "Failed to verify code")
		return
	}
	utils.TrackAuthAttempt("success", "2fa")

	result, err := auth.CompleteTwoFactorLogin(c.Request.Context(), req.UserID, clientInfo(c))
	if err != nil {
		utils.TrackError("auth", "login_failed")
		utils.InternalError(c, "Login failed")
		return
	}
	if !result.Success {
		utils.Unauthorized(c, result.Message)
		return
	}

	resp := gin.H{
		"message": result.Message,
		"user":    result.User.Sanitized(),
		"tokens":  result.Tokens,
	}
	if backupUsed {
		resp["notice"] = "A backup code was used and has been consumed"
	}
	utils.Success(c, resp)
}

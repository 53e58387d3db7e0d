package handler

import (
	"main/dto"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// TwoFactorSetupHandler generates a fresh secret, QR code and backup
// codes. Two-factor stays disabled until the first code is confirmed
// through the enable endpoint.
func TwoFactorSetupHandler(c *gin.Context, twoFactor *services.TwoFactorService) {
	userID := c.GetString("user_id")

	setup, err := twoFactor.GenerateSetup(c.Request.Context(), userID)
	if err != nil {
		if err == services.ErrTwoFactorAlreadyEnabled {
			utils.Conflict(c, "Two-factor authentication is already enabled")
			return
		}
		utils.TrackError("auth", "2fa_setup_failed")
		utils.InternalError(c, "Failed to generate 2FA setup")
		return
	}

	utils.Success(c, dto.TwoFactorSetupResponse{
		Secret:      setup.Secret,
		QRCode:      setup.QRCode,
		BackupCodes: setup.BackupCodes,
	})
}

func TwoFactorEnableHandler(c *gin.Context, twoFactor *services.TwoFactorService) {
	var req dto.TwoFactorEnableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid Request")
		return
	}

	userID := c.GetString("user_id")

	if err := twoFactor.Enable(c.Request.Context(), userID, req.Code); err != nil {
		switch err {
		case services.ErrInvalidCode:
			utils.Unauthorized(c, "Invalid 2FA code")
		case services.ErrTwoFactorNotSetUp:
			utils.BadRequest(c, "Run 2FA setup first")
		case services.ErrTwoFactorAlreadyEnabled:
			utils.Conflict(c, "Two-factor authentication is already enabled")
		default:
			utils.TrackError("auth", "2fa_enable_failed")
			utils.InternalError(c, "Failed to enable 2FA")
		}
		return
	}

	utils.Success(c, gin.H{"message": "Two-factor authentication enabled"})
}

// TwoFactorDisableHandler requires the current password so a hijacked
// session cannot silently strip the second factor.
func TwoFactorDisableHandler(c *gin.Context, twoFactor *services.TwoFactorService) {
	var req dto.TwoFactorDisableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid Request")
		return
	}

	userID := c.GetString("user_id")

	if err := twoFactor.Disable(c.Request.Context(), userID, req.Password); err != nil {
		switch err {
		case services.ErrInvalidCredentials:
			utils.Unauthorized(c, "Invalid password")
		case services.ErrTwoFactorNotEnabled:
			utils.BadRequest(c, "Two-factor authentication is not enabled")
		default:
			utils.TrackError("auth", "2fa_disable_failed")
			utils.InternalError(c, "Failed to disable 2FA")
		}
		return
	}

	utils.Success(c, gin.H{"message": "Two-factor authentication disabled"})
}

// TwoFactorVerifyHandler checks a code for the authenticated user, e.g.
// to re-confirm before a sensitive action. Backup codes are consumed.
func TwoFactorVerifyHandler(c *gin.Context, twoFactor *services.TwoFactorService) {
	var req dto.TwoFactorVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid Request")
		return
	}

	userID := c.GetString("user_id")

	backupUsed, err := twoFactor.Verify(c.Request.Context(), userID, req.Code)
	if err != nil {
		switch err {
		case services.ErrInvalidCode:
			utils.Unauthorized(c, "Invalid 2FA code")
		case services.ErrTwoFactorNotEnabled:
			utils.BadRequest(c, "Two-factor authentication is not enabled")
		default:
			utils.TrackError("auth", "2fa_verification_failed")
			utils.InternalError(c, "Failed to verify code")
		}
		return
	}

	utils.Success(c, gin.H{
		"valid":            true,
		"backup_code_used": backupUsed,
	})
}

// TwoFactorBackupCodesHandler replaces the remaining backup codes with a
// fresh set.
func TwoFactorBackupCodesHandler(c *gin.Context, twoFactor *services.TwoFactorService) {
	userID := c.GetString("user_id")

	codes, err := twoFactor.RegenerateBackupCodes(c.Request.Context(), userID)
	if err != nil {
		if err == services.ErrTwoFactorNotEnabled {
			utils.BadRequest(c, "Two-factor authentication is not enabled")
			return
		}
		utils.TrackError("auth", "backup_codes_failed")
		utils.InternalError(c, "Failed to regenerate backup codes")
		return
	}

	utils.Success(c, gin.H{"backup_codes": codes})
}

func TwoFactorStatusHandler(c *gin.Context, twoFactor *services.TwoFactorService) {
	userID := c.GetString("user_id")

	enabled, hasSecret, err := twoFactor.Status(c.Request.Context(), userID)
	if err != nil {
		utils.InternalError(c, "Failed to fetch 2FA status")
		return
	}

	utils.Success(c, gin.H{
		"enabled":       enabled,
		"setup_pending": hasSecret && !enabled,
	})
}

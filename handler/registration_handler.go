package handler

import (
	"main/dto"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

func RegistrationHandler(c *gin.Context, auth *services.AuthService) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.TrackError("auth", "invalid_request")
		utils.BadRequest(c, "Password must be at least 8 characters with a number and a special character")
		return
	}

	// Role is never taken from the request on the public endpoint.
	result, err := auth.Register(c.Request.Context(), req.Username, req.Password, req.Email, "", clientInfo(c))
	if err != nil {
		utils.TrackError("auth", "registration_failed")
		utils.InternalError(c, "Failed to register user")
		return
	}

	if !result.Success {
		utils.Conflict(c, result.Message)
		return
	}

	utils.Created(c, gin.H{
		"message": result.Message,
		"user":    result.User.Sanitized(),
		"tokens":  result.Tokens,
	})
}

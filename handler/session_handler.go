package handler

import (
	"main/dto"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// GetSessionsHandler lists the user's active sessions, most recently
// used first, marking the one behind the current access token.
func GetSessionsHandler(c *gin.Context, auth *services.AuthService) {
	userID := c.GetString("user_id")
	currentSessionID := c.GetString("session_id")

	sessions, err := auth.GetUserSessions(c.Request.Context(), userID)
	if err != nil {
		utils.TrackError("session", "session_list_failed")
		utils.InternalError(c, "Failed to fetch sessions")
		return
	}

	resp := make([]dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, dto.ToSessionResponse(s, currentSessionID))
	}

	utils.Success(c, gin.H{"sessions": resp})
}

// RevokeSessionHandler deactivates one of the user's own sessions. Any
// access token bound to it stops verifying immediately.
func RevokeSessionHandler(c *gin.Context, auth *services.AuthService) {
	userID := c.GetString("user_id")
	sessionID := c.Param("id")

	revoked, err := auth.RevokeSession(c.Request.Context(), sessionID, userID)
	if err != nil {
		switch err {
		case services.ErrNotFound:
			utils.NotFound(c, "Session not found")
		case services.ErrAccessDenied:
			utils.Forbidden(c, "Session belongs to another user")
		default:
			utils.TrackError("session", "session_revoke_failed")
			utils.InternalError(c, "Failed to revoke session")
		}
		return
	}

	if !revoked {
		utils.Success(c, gin.H{"message": "Session already inactive"})
		return
	}

	utils.Success(c, gin.H{"message": "Session revoked"})
}

package handler

import (
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// GetMonitoredUsersHandler lists anomaly detections, newest first.
// ?active=true narrows to unresolved entries.
func GetMonitoredUsersHandler(c *gin.Context, scanner *services.Scanner) {
	activeOnly := c.Query("active") == "true"

	list, err := scanner.GetMonitoredUsers(c.Request.Context(), activeOnly)
	if err != nil {
		utils.TrackError("monitoring", "list_failed")
		utils.InternalError(c, "Failed to fetch monitored users")
		return
	}

	utils.Success(c, gin.H{"monitored_users": list})
}

// ResolveMonitoredUserHandler closes a detection. The row is kept for
// audit, and the user becomes eligible for re-detection on the next scan.
func ResolveMonitoredUserHandler(c *gin.Context, scanner *services.Scanner) {
	monitorID := c.Param("id")
	adminID := c.GetString("user_id")

	mu, err := scanner.ResolveMonitoredUser(c.Request.Context(), monitorID, adminID)
	if err != nil {
		if err == services.ErrNotFound {
			utils.NotFound(c, "Monitored user entry not found")
			return
		}
		utils.TrackError("monitoring", "resolve_failed")
		utils.InternalError(c, "Failed to resolve monitored user")
		return
	}

	utils.Success(c, gin.H{
		"message":        "Monitored user resolved",
		"monitored_user": mu,
	})
}

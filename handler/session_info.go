package handler

import (
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// clientInfo captures the request side of a login for the session row.
func clientInfo(c *gin.Context) services.SessionInfo {
	ua := c.Request.UserAgent()
	return services.SessionInfo{
		DeviceInfo: utils.DescribeDevice(ua),
		IPAddress:  c.ClientIP(),
		UserAgent:  ua,
	}
}

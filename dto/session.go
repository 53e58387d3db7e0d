package dto

import (
	"time"

	"main/model"
)

type SessionResponse struct {
	SessionID  string    `json:"session_id"`
	DeviceInfo string    `json:"device_info,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Current    bool      `json:"current"`
}

func ToSessionResponse(s *model.Session, currentSessionID string) SessionResponse {
	return SessionResponse{
		SessionID:  s.SessionID,
		DeviceInfo: s.DeviceInfo,
		IPAddress:  s.IPAddress,
		CreatedAt:  s.CreatedAt,
		LastUsedAt: s.LastUsedAt,
		ExpiresAt:  s.ExpiresAt,
		Current:    s.SessionID == currentSessionID,
	}
}

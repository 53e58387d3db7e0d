package dto

type TwoFactorEnableRequest struct {
	Code string `json:"code" binding:"required"`
}

type TwoFactorVerifyRequest struct {
	Code string `json:"code" binding:"required"`
}

type TwoFactorDisableRequest struct {
	Password string `json:"password" binding:"required"`
}

type TwoFactorSetupResponse struct {
	Secret      string   `json:"secret"`
	QRCode      string   `json:"qr_code"`
	BackupCodes []string `json:"backup_codes"`
}

package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"time"

	"main/model"
	"main/utils"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// totpSkew allows codes from two 30-second steps before and after the
// current one, absorbing client clock drift.
const totpSkew = 2

type TwoFactorSetup struct {
	Secret      string   `json:"secret"`
	QRCode      string   `json:"qr_code"`
	BackupCodes []string `json:"backup_codes"`
}

type TwoFactorService struct {
	users    UserStore
	activity *ActivityLogger
	issuer   string
	now      func() time.Time
}

func NewTwoFactorService(users UserStore, activity *ActivityLogger, issuer string) *TwoFactorService {
	return &TwoFactorService{
		users:    users,
		activity: activity,
		issuer:   issuer,
		now:      time.Now,
	}
}

// GenerateSetup creates a fresh secret, renders the provisioning URI as a
// scannable QR image, and stores secret plus backup codes on the user
// without enabling two-factor yet.
func (s *TwoFactorService) GenerateSetup(ctx context.Context, userID string) (*TwoFactorSetup, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if user.TwoFactorEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: user.Username,
		SecretSize:  32,
	})
	if err != nil {
		utils.TrackError("2fa", "secret_generation_failed")
		return nil, fmt.Errorf("failed to generate 2FA secret: %w", err)
	}

	img, err := key.Image(200, 200)
	if err != nil {
		utils.TrackError("2fa", "qr_generation_failed")
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		utils.TrackError("2fa", "qr_encoding_failed")
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}

	backupCodes, err := utils.GenerateBackupCodes()
	if err != nil {
		utils.TrackError("2fa", "backup_code_generation_failed")
		return nil, fmt.Errorf("failed to generate backup codes: %w", err)
	}

	if err := s.users.SetTwoFactorSetup(ctx, userID, key.Secret(), backupCodes); err != nil {
		return nil, fmt.Errorf("failed to store 2FA setup: %w", err)
	}

	s.activity.LogUserAction(ctx, userID, model.ActionUpdate, "Two-factor authentication setup initiated")

	return &TwoFactorSetup{
		Secret:      key.Secret(),
		QRCode:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		BackupCodes: backupCodes,
	}, nil
}

// Enable turns two-factor on after the user proves possession of the
// secret with a current code.
func (s *TwoFactorService) Enable(ctx context.Context, userID, code string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return ErrNotFound
	}
	if user.TwoFactorEnabled {
		return ErrTwoFactorAlreadyEnabled
	}
	if user.TwoFactorSecret == "" {
		return ErrTwoFactorNotSetUp
	}

	if !s.validateTOTP(code, user.TwoFactorSecret) {
		utils.TrackAuthAttempt("failure", "2fa")
		return ErrInvalidCode
	}

	if err := s.users.SetTwoFactorEnabled(ctx, userID, true); err != nil {
		return fmt.Errorf("failed to enable 2FA: %w", err)
	}

	s.activity.LogUserAction(ctx, userID, model.ActionUpdate, "Two-factor authentication enabled")
	utils.TrackAuthAttempt("success", "2fa")
	return nil
}

// Verify checks a code during login: TOTP first, then the stored backup
// codes. A backup-code hit consumes the code and is reported through the
// returned flag.
func (s *TwoFactorService) Verify(ctx context.Context, userID, code string) (backupCodeUsed bool, err error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil || !user.TwoFactorEnabled || user.TwoFactorSecret == "" {
		return false, ErrTwoFactorNotEnabled
	}

	if s.validateTOTP(code, user.TwoFactorSecret) {
		s.activity.LogUserAction(ctx, userID, model.ActionRead, "Two-factor authentication verified with TOTP")
		utils.TrackAuthAttempt("success", "2fa")
		return false, nil
	}

	normalized := utils.NormalizeBackupCode(code)
	for i, stored := range user.BackupCodes {
		if stored == normalized {
			remaining := append(append([]string{}, user.BackupCodes[:i]...), user.BackupCodes[i+1:]...)
			if err := s.users.UpdateBackupCodes(ctx, userID, remaining); err != nil {
				return false, fmt.Errorf("failed to consume backup code: %w", err)
			}
			s.activity.LogUserAction(ctx, userID, model.ActionUpdate, "Backup code used for two-factor authentication")
			utils.TrackAuthAttempt("success", "2fa")
			return true, nil
		}
	}

	s.activity.LogUserAction(ctx, userID, model.ActionRead, "Two-factor authentication verification failed")
	utils.TrackAuthAttempt("failure", "2fa")
	return false, ErrInvalidCode
}

// Disable requires password re-confirmation, then clears the secret, the
// backup codes and the enabled flag.
func (s *TwoFactorService) Disable(ctx context.Context, userID, currentPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return ErrNotFound
	}

	if !VerifyPassword(user.Password, currentPassword) {
		utils.TrackAuthAttempt("failure", "2fa")
		return ErrInvalidCredentials
	}

	if err := s.users.ClearTwoFactor(ctx, userID); err != nil {
		return fmt.Errorf("failed to disable 2FA: %w", err)
	}

	s.activity.LogUserAction(ctx, userID, model.ActionUpdate, "Two-factor authentication disabled")
	return nil
}

// RegenerateBackupCodes replaces the backup-code list wholesale.
func (s *TwoFactorService) RegenerateBackupCodes(ctx context.Context, userID string) ([]string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil || !user.TwoFactorEnabled {
		return nil, ErrTwoFactorNotEnabled
	}

	codes, err := utils.GenerateBackupCodes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate backup codes: %w", err)
	}

	if err := s.users.UpdateBackupCodes(ctx, userID, codes); err != nil {
		return nil, fmt.Errorf("failed to store backup codes: %w", err)
	}

	s.activity.LogUserAction(ctx, userID, model.ActionUpdate, "Two-factor backup codes regenerated")
	return codes, nil
}

// Status reports whether two-factor is enabled and whether a setup has
// been generated.
func (s *TwoFactorService) Status(ctx context.Context, userID string) (enabled, hasSecret bool, err error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return false, false, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return false, false, ErrNotFound
	}
	return user.TwoFactorEnabled, user.TwoFactorSecret != "", nil
}

func (s *TwoFactorService) validateTOTP(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, s.now(), totp.ValidateOpts{
		Period:    30,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

const (
	BackupCodeLength = 8
	NumBackupCodes   = 10
)

// GenerateBackupCodes generates a set of single-use backup codes:
// 8 uppercase hex characters each.
func GenerateBackupCodes() ([]string, error) {
	codes := make([]string, NumBackupCodes)

	for i := 0; i < NumBackupCodes; i++ {
		bytes := make([]byte, BackupCodeLength/2)
		if _, err := rand.Read(bytes); err != nil {
			return nil, err
		}
		codes[i] = strings.ToUpper(hex.EncodeToString(bytes))
	}

	return codes, nil
}

// NormalizeBackupCode strips formatting hyphens and upcases user input so
// it compares against stored codes.
func NormalizeBackupCode(code string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), "-", ""))
}

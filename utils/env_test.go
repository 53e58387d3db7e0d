package utils

import (
	"testing"
	"time"
)

func TestParseExpiry(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"15m", 15 * time.Minute},
		{"30s", 30 * time.Second},
		{"1h", time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"1d", 24 * time.Hour},
		{" 10s ", 10 * time.Second},
	}

	for _, tc := range cases {
		got, err := ParseExpiry(tc.in)
		if err != nil {
			t.Fatalf("ParseExpiry(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseExpiry(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseExpiryRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "7dd", "d", "1.5d"} {
		if _, err := ParseExpiry(in); err == nil {
			t.Fatalf("ParseExpiry(%q) accepted", in)
		}
	}
}

func TestGetEnvAsExpiry(t *testing.T) {
	t.Setenv("TEST_EXPIRY", "7d")
	if got := GetEnvAsExpiry("TEST_EXPIRY", time.Minute); got != 7*24*time.Hour {
		t.Fatalf("GetEnvAsExpiry = %s", got)
	}

	t.Setenv("TEST_EXPIRY", "nonsense")
	if got := GetEnvAsExpiry("TEST_EXPIRY", time.Minute); got != time.Minute {
		t.Fatalf("GetEnvAsExpiry fallback = %s, want 1m", got)
	}

	if got := GetEnvAsExpiry("TEST_EXPIRY_UNSET", 15*time.Minute); got != 15*time.Minute {
		t.Fatalf("GetEnvAsExpiry default = %s, want 15m", got)
	}
}

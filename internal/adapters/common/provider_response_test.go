package common

import "testing"

func TestTruncateRaw(t *testing.T) {
	raw := "پیام ارسال شد" // 13 runes

	if got := TruncateRaw(raw, 20); got != raw {
		t.Fatalf("expected raw string unchanged when under limit, got %q", got)
	}

	if got := TruncateRaw(raw, 4); got != "پیام" {
		t.Fatalf("expected rune-safe truncation, got %q", got)
	}

	if got := TruncateRaw(raw, 0); got != "" {
		t.Fatalf("expected empty string for non-positive limit, got %q", got)
	}
}

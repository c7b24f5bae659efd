package ghasedak

import (
	"regexp"
	"strings"
)

const (
	countryCode = "98"
	trunkPrefix = "0"
)

var mobilePattern = regexp.MustCompile(`^09\d{9}$`)

// NormalizePhone converts a user-entered Iranian mobile number to the canonical
// local form 09XXXXXXXXX. Persian and Arabic-Indic digits are read as their ASCII
// equivalents and every other non-digit character is dropped.
func NormalizePhone(phone string) (string, error) {
	digits := digitsOnly(phone)
	digits = strings.TrimPrefix(digits, countryCode)
	if !strings.HasPrefix(digits, trunkPrefix) {
		digits = trunkPrefix + digits
	}
	if !mobilePattern.MatchString(digits) {
		return "", invalidPhone(digits)
	}
	return digits, nil
}

// IsValidPhone reports whether phone normalizes successfully.
func IsValidPhone(phone string) bool {
	_, err := NormalizePhone(phone)
	return err == nil
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		}
		return -1
	}, s)
}

// maskPhone keeps the last four digits for log output.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

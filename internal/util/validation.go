package util

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ajayykmr/ghasedak-sms-go/internal/providers/sms/ghasedak"
	"github.com/google/uuid"
)

var (
	// ErrInvalidUUID is returned when a value is not a UUID v4.
	ErrInvalidUUID = errors.New("invalid uuid v4")
	// ErrInvalidTimestamp indicates the value could not be parsed as RFC3339.
	ErrInvalidTimestamp = errors.New("invalid rfc3339 timestamp")
	// ErrInvalidPhone is returned when a number is not an Iranian mobile number.
	ErrInvalidPhone = errors.New("invalid mobile number")
	// ErrInvalidTemplateKey indicates a template key is malformed.
	ErrInvalidTemplateKey = errors.New("invalid template key")
	// ErrInvalidReferenceID indicates a client reference id is malformed.
	ErrInvalidReferenceID = errors.New("invalid reference id")
	// ErrInvalidSender indicates a sender line number is malformed.
	ErrInvalidSender = errors.New("invalid sender line")
)

var (
	templateKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)
	referenceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,64}$`)
	senderPattern      = regexp.MustCompile(`^\+?\d{4,20}$`)
)

// ParseUUIDv4 parses and validates a UUID string, ensuring it is version 4.
func ParseUUIDv4(value string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.UUID{}, fmt.Errorf("%w: value is empty", ErrInvalidUUID)
	}

	u, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("%w: %v", ErrInvalidUUID, err)
	}

	if u.Version() != 4 {
		return uuid.UUID{}, fmt.Errorf("%w: expected version 4", ErrInvalidUUID)
	}

	return u, nil
}

// ParseRFC3339 parses a timestamp string using RFC3339Nano for maximum fidelity.
func ParseRFC3339(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: value is empty", ErrInvalidTimestamp)
	}

	ts, err := time.Parse(time.RFC3339Nano, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
	}

	return ts, nil
}

// NormalizeMobile validates an Iranian mobile number and returns it in the
// 09XXXXXXXXX form the gateway expects.
func NormalizeMobile(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%w: value is empty", ErrInvalidPhone)
	}
	normalized, err := ghasedak.NormalizePhone(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, trimmed)
	}
	return normalized, nil
}

// NormalizeMobileList validates each mobile number in the slice.
func NormalizeMobileList(values []string, min, max int) ([]string, error) {
	count := len(values)
	if min > 0 && count < min {
		return nil, fmt.Errorf("expected at least %d phone number(s); got %d", min, count)
	}
	if max > 0 && count > max {
		return nil, fmt.Errorf("expected at most %d phone number(s); got %d", max, count)
	}

	if count == 0 {
		return nil, nil
	}

	result := make([]string, 0, count)
	for idx, value := range values {
		normalized, err := NormalizeMobile(value)
		if err != nil {
			return nil, fmt.Errorf("phone[%d]: %w", idx, err)
		}
		result = append(result, normalized)
	}
	return result, nil
}

// ValidateMetadata enforces constraints on metadata maps and returns a copy
// containing trimmed keys and values.
func ValidateMetadata(meta map[string]string, maxEntries, maxKeyLen, maxValueLen int) (map[string]string, error) {
	if len(meta) == 0 {
		return nil, nil
	}

	if maxEntries > 0 && len(meta) > maxEntries {
		return nil, fmt.Errorf("metadata entries exceeded: got %d, max %d", len(meta), maxEntries)
	}

	out := make(map[string]string, len(meta))
	for rawKey, rawValue := range meta {
		key := strings.TrimSpace(rawKey)
		value := strings.TrimSpace(rawValue)

		if key == "" {
			return nil, errors.New("metadata key cannot be empty")
		}

		if maxKeyLen > 0 && utf8.RuneCountInString(key) > maxKeyLen {
			return nil, fmt.Errorf("metadata key %q exceeds max length %d", key, maxKeyLen)
		}

		if maxValueLen > 0 && utf8.RuneCountInString(value) > maxValueLen {
			return nil, fmt.Errorf("metadata value for %q exceeds max length %d", key, maxValueLen)
		}

		out[key] = value
	}

	return out, nil
}

// EnsureMaxBytes checks that a byte slice does not exceed the specified size.
func EnsureMaxBytes(field string, b []byte, max int) error {
	if max <= 0 {
		return nil
	}
	if len(b) > max {
		return fmt.Errorf("%s exceeds maximum size of %d bytes", field, max)
	}
	return nil
}

// EnsureMaxRunes ensures a string is not longer than the provided rune count.
func EnsureMaxRunes(field, value string, max int) error {
	if max <= 0 {
		return nil
	}
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%s exceeds maximum length of %d characters", field, max)
	}
	return nil
}

// ValidateTemplateKey checks the logical template key carried on a request.
func ValidateTemplateKey(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%w: value is empty", ErrInvalidTemplateKey)
	}
	if !templateKeyPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTemplateKey, trimmed)
	}
	return trimmed, nil
}

// ValidateReferenceID checks a caller supplied client reference id. Empty
// values are allowed and mean the gateway client generates one.
func ValidateReferenceID(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", nil
	}
	if !referenceIDPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidReferenceID, trimmed)
	}
	return trimmed, nil
}

// ValidateSender checks an optional sender line number. Empty means the
// configured default line.
func ValidateSender(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", nil
	}
	if !senderPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSender, trimmed)
	}
	return trimmed, nil
}

package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/yukikurage/party-planner-api/internal/constants"
)

// GenerateShortToken returns a URL-safe random string of length characters.
// Each character carries 6 bits, so 10 characters give 60 bits.
func GenerateShortToken(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid short token length %d", length)
	}
	buf := make([]byte, (length*6+7)/8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:length], nil
}

// UniqueShortToken draws random tokens until exists reports one unused, up to
// constants.ShortTokenMaxAttempts. After that it returns fallbackKey joined to
// a random suffix with "~", a character random tokens never contain, so the
// result is unique as long as fallbackKey is. The column's unique constraint
// remains the final authority.
func UniqueShortToken(length int, exists func(candidate string) (bool, error), fallbackKey string) (string, error) {
	for attempt := 0; attempt < constants.ShortTokenMaxAttempts; attempt++ {
		candidate, err := GenerateShortToken(length)
		if err != nil {
			return "", err
		}
		taken, err := exists(candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check short token: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}

	suffix, err := GenerateShortToken(6)
	if err != nil {
		return "", err
	}
	return fallbackKey + "~" + suffix, nil
}

// FallbackKey encodes ids compactly for UniqueShortToken.
func FallbackKey(prefix string, ids ...uint64) string {
	key := prefix
	for i, id := range ids {
		if i > 0 {
			key += "."
		}
		key += strconv.FormatUint(id, 36)
	}
	return key
}

// GenerateHexToken returns n random bytes hex encoded.
func GenerateHexToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

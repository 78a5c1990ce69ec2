package utils

import (
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/mgrushin/go-shortlink/internal/errors"
)

const (
	MaxURLLength       = 2048
	MaxShortCodeLength = 15
)

func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return apperrors.NewValidationError("url", "URL cannot be empty")
	}

	if len(rawURL) > MaxURLLength {
		return apperrors.NewValidationError("url", fmt.Sprintf("URL is too long (max %d characters)", MaxURLLength))
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return apperrors.NewValidationError("url", fmt.Sprintf("invalid URL format: %v", err))
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return apperrors.NewValidationError("url", "URL must start with http:// or https://")
	}

	if parsedURL.Host == "" {
		return apperrors.NewValidationError("url", "URL must contain a valid host")
	}

	return nil
}

// ValidateShortCode checks a user-supplied custom code: 1-15 characters,
// alphanumeric only.
func ValidateShortCode(code string) error {
	if code == "" {
		return apperrors.NewValidationError("custom_code", "short code cannot be empty")
	}

	if len(code) > MaxShortCodeLength {
		return apperrors.NewValidationError("custom_code", fmt.Sprintf("short code is too long (max %d characters)", MaxShortCodeLength))
	}

	for _, r := range code {
		if !isAlphanumeric(r) {
			return apperrors.NewValidationError("custom_code", "only letters and digits are allowed")
		}
	}

	return nil
}

func isAlphanumeric(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func SanitizeInput(input string) string {
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, input)

	return strings.TrimSpace(result)
}

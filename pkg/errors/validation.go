package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// MaxImageSize is the largest cover-image edge length accepted by the
// resize segment of the upstream image CDN.
const MaxImageSize = 4096

// ValidateURL validates an endpoint URL string.
// It requires an absolute http or https URL with a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidURL, "URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidURL, err, "malformed URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidURL, "URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidURL, "URL must include a host")
	}

	return nil
}

// ValidateImageSize checks a cover-image resize target.
func ValidateImageSize(size int) error {
	if size <= 0 {
		return New(ErrCodeInvalidConfig, "image size must be positive, got %d", size)
	}
	if size > MaxImageSize {
		return New(ErrCodeInvalidConfig, "image size too large (max %d), got %d", MaxImageSize, size)
	}
	return nil
}

// ValidateToken validates a value that ends up in a request header or
// query string, such as the content-provider ID or the app version.
//
// Rules:
//   - Cannot be empty or only whitespace
//   - No control characters (header injection)
//   - No semicolons, which delimit the User-Agent fields
func ValidateToken(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return New(ErrCodeInvalidConfig, "%s cannot be empty", field)
	}

	for _, r := range value {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidConfig, "%s contains invalid control characters", field)
		}
	}

	if strings.Contains(value, ";") {
		return New(ErrCodeInvalidConfig, "%s cannot contain %q", field, ";")
	}

	return nil
}

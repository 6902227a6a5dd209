package utils

import (
	"net/http"
	"strings"
)

var sensitiveHeaders = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
	"training-key":  true,
	"x-api-key":     true,
}

// MaskSecret keeps the first and last four characters of long secrets.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}

// SanitizeHeaders flattens headers for logging and masks credentials.
func SanitizeHeaders(headers http.Header) map[string]string {
	result := make(map[string]string, len(headers))
	for key, values := range headers {
		if len(values) == 0 {
			continue
		}
		value := strings.Join(values, ", ")
		if sensitiveHeaders[strings.ToLower(key)] {
			value = MaskSecret(value)
		}
		result[key] = value
	}
	return result
}

// MaskURICredentials hides the userinfo part of connection strings such as mongodb URIs.
func MaskURICredentials(uri string) string {
	schemeEnd := strings.Index(uri, "://")
	at := strings.LastIndex(uri, "@")
	if schemeEnd < 0 || at < schemeEnd {
		return uri
	}
	return uri[:schemeEnd+3] + "***:***" + uri[at:]
}

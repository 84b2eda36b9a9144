// pkg/shared/secrets.go

package shared

import "regexp"

const maskedPlaceholder = "****"

// MaskSecret renders a sensitive value safe for display. Short values are
// fully masked so their length cannot be inferred; longer values keep a
// two-character prefix and suffix so an operator can recognise which
// credential is in play without the secret ever being shown.
func MaskSecret(value string) string {
	if len(value) <= 6 {
		return maskedPlaceholder
	}
	return value[:2] + maskedPlaceholder + value[len(value)-2:]
}

var (
	// No leading \b: in API URLs the token follows the literal "bot"
	// ("/bot123456:..."), which leaves no word boundary before the digits.
	telegramTokenPattern = regexp.MustCompile(`\d{6,12}:[A-Za-z0-9_-]{30,}\b`)
	bearerJWTPattern     = regexp.MustCompile(`\beyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\b`)
	keyValueSecret       = regexp.MustCompile(`(?i)(password|token|secret|apikey|api_key)[=:]\s*\S+`)
	trailingValue        = regexp.MustCompile(`\S+$`)
)

// SanitizeForLogging removes credential material from free-form text (command
// output, URLs, error strings) before it reaches the logs. Telegram bot tokens
// and JWT-shaped keys are matched structurally; generic key=value pairs by
// their key name.
func SanitizeForLogging(input string) string {
	input = telegramTokenPattern.ReplaceAllString(input, "[REDACTED-BOT-TOKEN]")
	input = bearerJWTPattern.ReplaceAllString(input, "[REDACTED-KEY]")
	input = keyValueSecret.ReplaceAllStringFunc(input, func(match string) string {
		return trailingValue.ReplaceAllString(match, "[REDACTED]")
	})
	return input
}

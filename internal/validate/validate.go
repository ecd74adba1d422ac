package validate

import (
	"fmt"
	"math"
	"regexp"
)

// Request field limits shared by the HTTP API and the CLI.
const (
	MaxVideoIDLength     = 128
	MaxProfileNameLength = 64
	MaxKeyLength         = 32
	MaxDocumentBytes     = 1 << 20
	MaxHotspotsPerList   = 1000
	MaxWebhookURLLength  = 500
	MaxSeekDelta         = 24 * 60 * 60
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

func checkLen(value string, max int, field string) string {
	if len(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

func required(value, field string) string {
	if value == "" {
		return field + " is required"
	}
	return ""
}

// VideoID accepts identifiers safe to embed in an object key.
func VideoID(s string) string {
	if msg := required(s, "video id"); msg != "" {
		return msg
	}
	if msg := checkLen(s, MaxVideoIDLength, "video id"); msg != "" {
		return msg
	}
	if !videoIDPattern.MatchString(s) {
		return "video id may only contain letters, digits, '.', '_' and '-'"
	}
	return ""
}

func ProfileName(s string) string {
	if msg := required(s, "profile"); msg != "" {
		return msg
	}
	return checkLen(s, MaxProfileNameLength, "profile")
}

func Key(s string) string {
	if msg := required(s, "key"); msg != "" {
		return msg
	}
	return checkLen(s, MaxKeyLength, "key")
}

func WebhookURL(s string) string { return checkLen(s, MaxWebhookURLLength, "webhook URL") }

func DocumentSize(n int) string {
	if n > MaxDocumentBytes {
		return fmt.Sprintf("document must be %d bytes or fewer", MaxDocumentBytes)
	}
	return ""
}

func HotspotCount(n int) string {
	if n > MaxHotspotsPerList {
		return fmt.Sprintf("hotspot lists must have %d entries or fewer", MaxHotspotsPerList)
	}
	return ""
}

// Position checks a media position or duration reported by a client.
func Position(v float64, field string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return field + " must be a finite number"
	}
	if v < 0 {
		return field + " must not be negative"
	}
	return ""
}

func SeekDelta(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > MaxSeekDelta {
		return fmt.Sprintf("delta must be a finite number of at most %d seconds", MaxSeekDelta)
	}
	return ""
}

func Fraction(v float64) string {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return "fraction must be between 0 and 1"
	}
	return ""
}

// FieldLimits returns a map of field names to max lengths for the /api/limits endpoint.
func FieldLimits() map[string]int {
	return map[string]int{
		"videoId":       MaxVideoIDLength,
		"profile":       MaxProfileNameLength,
		"key":           MaxKeyLength,
		"documentBytes": MaxDocumentBytes,
		"hotspots":      MaxHotspotsPerList,
		"webhookURL":    MaxWebhookURLLength,
	}
}

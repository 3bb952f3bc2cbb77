package analytics

import (
	"regexp"
	"strings"
)

const (
	DeviceBot     = "Bot"
	DeviceTablet  = "Tablet"
	DeviceMobile  = "Mobile"
	DeviceDesktop = "Desktop"

	BrowserOther = "Other"
)

var (
	botPattern     = regexp.MustCompile(`(?i)bot|crawl|spider|slurp|mediapartners|facebookexternalhit|headlesschrome|curl/|wget/`)
	tabletPattern  = regexp.MustCompile(`(?i)ipad|tablet|kindle|silk/|playbook`)
	androidPattern = regexp.MustCompile(`(?i)android`)
	mobilePattern  = regexp.MustCompile(`(?i)mobi|iphone|ipod|android|blackberry|windows phone|opera mini|iemobile`)
)

// browserTokens is checked in order. Chrome comes before Safari because
// Chrome user agents also carry the Safari token.
var browserTokens = []string{"Chrome", "Safari", "Firefox", "Edge", "Opera"}

// ClassifyDevice buckets a user agent with precedence Bot > Tablet > Mobile > Desktop.
// Crawlers often claim to be mobile, so the bot check runs first.
func ClassifyDevice(userAgent string) string {
	ua := strings.TrimSpace(userAgent)

	switch {
	case ua == "":
		return Unknown
	case botPattern.MatchString(ua):
		return DeviceBot
	case tabletPattern.MatchString(ua), isAndroidTablet(ua):
		return DeviceTablet
	case mobilePattern.MatchString(ua):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

// Android tablets omit the "Mobile" token that Android phones send.
func isAndroidTablet(ua string) bool {
	return androidPattern.MatchString(ua) && !strings.Contains(strings.ToLower(ua), "mobile")
}

// ClassifyBrowser returns the first known browser token found in the user agent.
func ClassifyBrowser(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return Unknown
	}

	for _, token := range browserTokens {
		if strings.Contains(userAgent, token) {
			return token
		}
	}

	return BrowserOther
}

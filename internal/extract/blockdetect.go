package extract

import (
	"net/http"
	"strings"
	"unicode/utf8"
)

// blockKind names the anti-bot defence recognized on a response.
type blockKind string

const (
	blockNone       blockKind = ""
	blockCloudflare blockKind = "cloudflare"
	blockCaptcha    blockKind = "captcha"
	blockDenied     blockKind = "access_denied"
)

var captchaMarkers = []string{"g-recaptcha", "h-captcha", "hcaptcha.com", "captcha-container", "please complete the security check"}

// challengeTextLimit is the cleaned-text length, in runes, below which a
// 2xx page carrying a captcha widget is read as a challenge page.
const challengeTextLimit = 200

// detectBlock looks for signs that resp is an anti-bot interstitial rather
// than the requested page.
func detectBlock(resp *http.Response, body []byte) blockKind {
	if resp == nil {
		return blockNone
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return blockCloudflare
		}
	}

	lower := strings.ToLower(string(body))
	switch {
	case strings.Contains(lower, "cf-browser-verification"),
		strings.Contains(lower, "checking your browser before accessing"),
		strings.Contains(lower, "cf-challenge"):
		return blockCloudflare
	case resp.StatusCode >= 400 && containsAny(lower, captchaMarkers):
		return blockCaptcha
	case resp.StatusCode >= 400 && strings.Contains(lower, "access denied"):
		return blockDenied
	}
	return blockNone
}

// isCaptchaChallenge reports whether a successful page is a captcha
// interstitial: it carries a captcha widget and almost no readable text.
func isCaptchaChallenge(body []byte, cleaned string) bool {
	if utf8.RuneCountInString(cleaned) >= challengeTextLimit {
		return false
	}
	return containsAny(strings.ToLower(string(body)), captchaMarkers)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

package detection

import (
	"regexp"
	"strings"
)

// Intelligence holds the fraud indicators pulled out of scammer text.
// Values are deduplicated case-insensitively within one extraction pass.
type Intelligence struct {
	UPIIDs        []string `json:"upi_ids"`
	BankAccounts  []string `json:"bank_accounts"`
	PhishingLinks []string `json:"phishing_links"`
}

// IsEmpty reports whether no indicator of any kind was extracted.
func (i Intelligence) IsEmpty() bool {
	return len(i.UPIIDs) == 0 && len(i.BankAccounts) == 0 && len(i.PhishingLinks) == 0
}

var (
	// UPI handles like merchant@paytm against a fixed provider allow-list.
	upiPattern = regexp.MustCompile(`(?i)\b[\w.-]+@(?:paytm|ybl|oksbi|okaxis|okicici|upi|axl|ibl|sbi|hdfc|icici|pnb)\b`)

	// Bare digit runs that look like account numbers. No checksum validation:
	// false positives are tolerated downstream.
	accountPattern = regexp.MustCompile(`\b\d{9,18}\b`)

	schemeLinkPattern = regexp.MustCompile(`https?://[^\s)\]}>"']+`)
	wwwLinkPattern    = regexp.MustCompile(`(?i)\bwww\.[^\s)\]}>"']+`)
	domainLinkPattern = regexp.MustCompile(`(?i)\b[a-zA-Z0-9.-]+\.(?:com|in|net|org|io|co|xyz|biz|info|online|site)(?:/[^\s)\]}>"']*)?`)

	// Suffixes that mark an @-containing token as a payment handle rather
	// than an email address.
	upiLinkSuffixes = []string{"@paytm", "@ybl", "@oksbi", "@upi"}
)

// Extract pulls UPI handles, account numbers and phishing links out of text.
// It is a pure function: calling it twice on the same input yields the same
// sets. Callers are expected to pass the accumulated scammer text of a
// conversation so indicators shared once stay visible on later turns.
func Extract(text string) Intelligence {
	intel := Intelligence{
		UPIIDs:        []string{},
		BankAccounts:  []string{},
		PhishingLinks: []string{},
	}
	if text == "" {
		return intel
	}

	intel.UPIIDs = dedupeFold(upiPattern.FindAllString(text, -1))
	intel.BankAccounts = dedupeFold(accountPattern.FindAllString(text, -1))

	var candidates []string
	candidates = append(candidates, schemeLinkPattern.FindAllString(text, -1)...)
	candidates = append(candidates, wwwLinkPattern.FindAllString(text, -1)...)
	candidates = append(candidates, domainLinkPattern.FindAllString(text, -1)...)

	seen := make(map[string]struct{}, len(candidates))
	for _, link := range candidates {
		// Tokens with an @ are emails unless they carry a UPI suffix.
		if strings.Contains(link, "@") && !hasUPISuffix(link) {
			continue
		}
		key := strings.ToLower(link)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		intel.PhishingLinks = append(intel.PhishingLinks, link)
	}

	return intel
}

func hasUPISuffix(s string) bool {
	lowered := strings.ToLower(s)
	for _, suffix := range upiLinkSuffixes {
		if strings.Contains(lowered, suffix) {
			return true
		}
	}
	return false
}

func dedupeFold(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

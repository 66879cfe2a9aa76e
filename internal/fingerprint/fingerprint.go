package fingerprint

import (
	"strings"

	"github.com/decoyline/scam-honeypot/internal/transcript"
)

// Fingerprint is the behavioral signal bundle derived from a conversation.
// It feeds the risk scorer only; blocking never keys off it.
type Fingerprint struct {
	IP               string `json:"ip"`
	UserAgent        string `json:"user_agent"`
	PressureLanguage bool   `json:"pressure_language"`
	LinksShared      bool   `json:"links_shared"`
	PaymentIntent    bool   `json:"payment_intent"`
	MessageCount     int    `json:"message_count"`
}

var (
	pressureWords = []string{"urgent", "fast", "now", "immediately", "today"}
	paymentWords  = []string{"upi", "pay", "payment", "transfer", "bank", "account", "₹"}
)

// Build derives a fingerprint from the scammer-authored turns of history plus
// transport metadata. Honeypot turns are ignored. Pure, no side effects.
func Build(history []transcript.Message, ip, userAgent string) Fingerprint {
	fp := Fingerprint{IP: ip, UserAgent: userAgent}

	for _, msg := range history {
		if msg.Role != transcript.RoleScammer {
			continue
		}
		fp.MessageCount++
		content := strings.ToLower(msg.Content)

		if !fp.PressureLanguage && containsAny(content, pressureWords) {
			fp.PressureLanguage = true
		}
		if !fp.LinksShared && strings.Contains(content, "http") {
			fp.LinksShared = true
		}
		if !fp.PaymentIntent && containsAny(content, paymentWords) {
			fp.PaymentIntent = true
		}
	}

	return fp
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

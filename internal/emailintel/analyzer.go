package emailintel

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/decoyline/scam-honeypot/internal/detection"
	"github.com/decoyline/scam-honeypot/internal/fingerprint"
	"github.com/decoyline/scam-honeypot/internal/lifecycle"
	"github.com/decoyline/scam-honeypot/internal/risk"
)

// Scam-type labels specific to email analysis.
const (
	ScamTypePaymentFraud      = "payment_fraud"
	ScamTypePhishingOrPayment = "phishing_or_payment_fraud"
	ScamTypeSocialEngineering = "social_engineering"
)

// AnalysisRequest is one suspicious email to analyze. Only the sender address
// and body are required.
type AnalysisRequest struct {
	FromName    string   `json:"from_name,omitempty"`
	FromEmail   string   `json:"from_email"`
	Subject     string   `json:"subject,omitempty"`
	MessageText string   `json:"message_text"`
	Links       []string `json:"links,omitempty"`
}

// Indicator is one named signal that contributed to the verdict.
type Indicator struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// AnalysisResponse is the verdict for a single email.
type AnalysisResponse struct {
	IsScam                bool                   `json:"is_scam"`
	Confidence            float64                `json:"confidence"`
	Risk                  risk.Assessment        `json:"risk"`
	ScamType              string                 `json:"scam_type,omitempty"`
	Reasons               []string               `json:"reasons"`
	Indicators            []Indicator            `json:"indicators"`
	ExtractedIntelligence detection.Intelligence `json:"extracted_intelligence"`
}

var (
	urgencyWords = []string{
		"urgent", "immediately", "now", "today", "asap",
		"suspend", "blocked", "expire", "final notice",
	}
	paymentWords = []string{
		"pay", "payment", "transfer", "upi", "bank",
		"account verification", "kyc",
	}
	brandSpoofWords = []string{"bank", "support", "security team", "verification", "official"}

	// TLDs favored by throwaway phishing domains.
	disposableSuffixes = map[string]struct{}{
		"xyz":   {},
		"top":   {},
		"click": {},
		"biz":   {},
	}

	digitRunPattern = regexp.MustCompile(`\d{3,}`)
)

// Analyzer runs the single-shot email pipeline. Unlike conversations there is
// no state to persist: one request in, one verdict out.
type Analyzer struct {
	detector *detection.Detector
}

// NewAnalyzer creates an email analyzer with the default scam vocabulary.
func NewAnalyzer() *Analyzer {
	return &Analyzer{detector: detection.NewDetector()}
}

// Analyze scores one email. Detection and extraction run over the combined
// header, body and link text so indicators hidden in the subject or a link
// still count.
func (a *Analyzer) Analyze(req AnalysisRequest) AnalysisResponse {
	combined := collectText(req)
	det := a.detector.Detect(combined)

	intel := detection.Extract(req.MessageText)
	if det.IsScam {
		intel = detection.Extract(combined)
	}

	fp := fingerprint.Fingerprint{
		PressureLanguage: containsAny(combined, urgencyWords),
		LinksShared:      len(req.Links) > 0 || len(intel.PhishingLinks) > 0,
		PaymentIntent:    containsAny(combined, paymentWords),
		MessageCount:     1,
	}
	phase := phaseFromContent(combined)
	assessment := risk.Score(det, fp, phase, intel)

	reasons, indicators := buildReasons(req, combined, intel)

	scamType := ""
	if det.IsScam {
		scamType = scamTypeFor(reasons, intel)
	}

	return AnalysisResponse{
		IsScam:                det.IsScam,
		Confidence:            det.Confidence,
		Risk:                  assessment,
		ScamType:              scamType,
		Reasons:               reasons,
		Indicators:            indicators,
		ExtractedIntelligence: intel,
	}
}

func collectText(req AnalysisRequest) string {
	parts := []string{req.FromName, req.FromEmail, req.Subject, req.MessageText, strings.Join(req.Links, " ")}
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.TrimSpace(strings.Join(nonEmpty, " "))
}

// phaseFromContent maps email content onto the conversation lifecycle so the
// risk scorer can weigh it the same way it weighs a live conversation.
func phaseFromContent(text string) lifecycle.ScamPhase {
	lowered := strings.ToLower(text)
	switch {
	case containsAny(lowered, paymentWords):
		return lifecycle.PhasePayment
	case strings.Contains(lowered, "http://") || strings.Contains(lowered, "https://") || strings.Contains(lowered, "www."):
		return lifecycle.PhaseEscalation
	case containsAny(lowered, urgencyWords):
		return lifecycle.PhasePressure
	default:
		return lifecycle.PhaseInitial
	}
}

// buildReasons returns at most three human-readable reasons plus the machine
// indicators that back them.
func buildReasons(req AnalysisRequest, combined string, intel detection.Intelligence) ([]string, []Indicator) {
	reasons := make([]string, 0, 4)
	indicators := make([]Indicator, 0, 4)

	if containsAny(combined, urgencyWords) {
		reasons = append(reasons, "Urgency language detected")
		indicators = append(indicators, Indicator{Key: "urgency", Value: "true"})
	}
	if len(intel.PhishingLinks) > 0 {
		reasons = append(reasons, "Suspicious link/domain detected")
		indicators = append(indicators, Indicator{Key: "phishing_links", Value: strconv.Itoa(len(intel.PhishingLinks))})
	}
	if containsAny(combined, paymentWords) {
		reasons = append(reasons, "Payment/account-verification intent detected")
		indicators = append(indicators, Indicator{Key: "payment_intent", Value: "true"})
	}
	if suspiciousSender(req.FromEmail, req.FromName) {
		reasons = append(reasons, "Sender identity appears suspicious")
		indicators = append(indicators, Indicator{Key: "sender_reputation", Value: "suspicious"})
	}

	if len(reasons) > 3 {
		reasons = reasons[:3]
	}
	return reasons, indicators
}

// suspiciousSender flags disposable-TLD domains outright, and brand-spoofing
// display names only when the domain also carries a long digit run.
func suspiciousSender(email, displayName string) bool {
	domain := strings.ToLower(email)
	if at := strings.LastIndex(email, "@"); at >= 0 {
		domain = strings.ToLower(email[at+1:])
	}

	suffix, _ := publicsuffix.PublicSuffix(domain)
	_, disposable := disposableSuffixes[suffix]

	brandLikeName := displayName != "" && containsAny(displayName, brandSpoofWords)
	digitRun := digitRunPattern.MatchString(domain)

	return disposable || (brandLikeName && digitRun)
}

func scamTypeFor(reasons []string, intel detection.Intelligence) string {
	if len(reasons) == 0 {
		return ""
	}
	if len(intel.UPIIDs) > 0 {
		return ScamTypePaymentFraud
	}
	if len(intel.PhishingLinks) > 0 {
		return ScamTypePhishingOrPayment
	}
	return ScamTypeSocialEngineering
}

func containsAny(text string, words []string) bool {
	lowered := strings.ToLower(text)
	for _, w := range words {
		if strings.Contains(lowered, w) {
			return true
		}
	}
	return false
}


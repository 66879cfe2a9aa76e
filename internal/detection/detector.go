package detection

import (
	"math"
	"strings"
)

// Result is the verdict for a piece of scammer text.
type Result struct {
	IsScam     bool    `json:"is_scam"`
	Confidence float64 `json:"confidence"`
}

// Detector classifies text as scam or not using a fixed keyword vocabulary.
// It is deliberately cheap and deterministic: the LLM only ever writes
// replies, it never gets a vote on classification.
type Detector struct {
	keywords []string
}

// defaultKeywords are the scam-indicative terms checked against the
// accumulated scammer text. Matching is substring-based on lowercased input.
var defaultKeywords = []string{
	"pay", "upi", "urgent", "verify", "account", "blocked",
	"kyc", "bank", "http", "www", "link", "₹", "rupees",
	"transfer", "debit", "credit", "expire", "suspend",
}

// NewDetector returns a detector with the default vocabulary.
func NewDetector() *Detector {
	return &Detector{keywords: defaultKeywords}
}

// NewDetectorWithKeywords returns a detector with a custom vocabulary.
// Intended for tuning; an empty list falls back to the default.
func NewDetectorWithKeywords(keywords []string) *Detector {
	if len(keywords) == 0 {
		keywords = defaultKeywords
	}
	return &Detector{keywords: keywords}
}

// Detect scores text against the vocabulary. A single keyword hit is treated
// as noise: at least two distinct terms must match before text is classified
// as a scam. Confidence is clamped to [0, 1] and empty input scores zero.
func (d *Detector) Detect(text string) Result {
	lowered := strings.ToLower(text)
	if strings.TrimSpace(lowered) == "" {
		return Result{}
	}

	matched := 0
	for _, kw := range d.keywords {
		if strings.Contains(lowered, kw) {
			matched++
		}
	}

	var confidence float64
	if matched >= 2 {
		confidence = math.Min(float64(matched)/5.0, 1.0)
	} else {
		confidence = float64(matched) / float64(len(d.keywords))
	}

	return Result{
		IsScam:     matched >= 2,
		Confidence: math.Round(confidence*100) / 100,
	}
}

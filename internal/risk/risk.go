package risk

import (
	"github.com/decoyline/scam-honeypot/internal/detection"
	"github.com/decoyline/scam-honeypot/internal/fingerprint"
	"github.com/decoyline/scam-honeypot/internal/lifecycle"
)

// Assessment is a normalized risk score with a coarse tier label.
type Assessment struct {
	Score int    `json:"risk_score"`
	Level string `json:"risk_level"`
}

const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Score combines the detector verdict, behavioral fingerprint, lifecycle
// phase and extracted indicators into a 0-100 score. The model is additive
// and commutative; only the clamped sum and the tier thresholds matter.
// Pure function: it never touches stores or mutates its inputs.
func Score(det detection.Result, fp fingerprint.Fingerprint, phase lifecycle.ScamPhase, intel detection.Intelligence) Assessment {
	score := 0

	if det.IsScam {
		score += int(det.Confidence * 40)
	}

	if fp.PressureLanguage {
		score += 15
	}
	if fp.LinksShared {
		score += 20
	}
	if fp.PaymentIntent {
		score += 15
	}
	if fp.MessageCount > 3 {
		score += 10
	}

	if phase == lifecycle.PhasePayment || phase == lifecycle.PhaseEscalation {
		score += 20
	}

	if len(intel.UPIIDs) > 0 {
		score += 15
	}
	if len(intel.PhishingLinks) > 0 {
		score += 20
	}

	if score > 100 {
		score = 100
	}

	return Assessment{Score: score, Level: levelFor(score)}
}

func levelFor(score int) string {
	switch {
	case score >= 75:
		return LevelHigh
	case score >= 40:
		return LevelMedium
	default:
		return LevelLow
	}
}

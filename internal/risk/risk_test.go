package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/decoyline/scam-honeypot/internal/detection"
	"github.com/decoyline/scam-honeypot/internal/fingerprint"
	"github.com/decoyline/scam-honeypot/internal/lifecycle"
)

func TestScoreZeroSignals(t *testing.T) {
	a := Score(detection.Result{}, fingerprint.Fingerprint{}, lifecycle.PhaseInitial, detection.Intelligence{})
	assert.Equal(t, 0, a.Score)
	assert.Equal(t, LevelLow, a.Level)
}

func TestScoreCapsAtHundred(t *testing.T) {
	a := Score(
		detection.Result{IsScam: true, Confidence: 1.0},
		fingerprint.Fingerprint{PressureLanguage: true, LinksShared: true, PaymentIntent: true, MessageCount: 10},
		lifecycle.PhaseEscalation,
		detection.Intelligence{UPIIDs: []string{"a@paytm"}, PhishingLinks: []string{"http://x.test"}},
	)
	assert.Equal(t, 100, a.Score)
	assert.Equal(t, LevelHigh, a.Level)
}

func TestScoreComponentWeights(t *testing.T) {
	tests := []struct {
		name  string
		det   detection.Result
		fp    fingerprint.Fingerprint
		phase lifecycle.ScamPhase
		intel detection.Intelligence
		want  int
	}{
		{"detection only", detection.Result{IsScam: true, Confidence: 0.5}, fingerprint.Fingerprint{}, lifecycle.PhaseInitial, detection.Intelligence{}, 20},
		{"not scam ignores confidence", detection.Result{IsScam: false, Confidence: 0.9}, fingerprint.Fingerprint{}, lifecycle.PhaseInitial, detection.Intelligence{}, 0},
		{"pressure language", detection.Result{}, fingerprint.Fingerprint{PressureLanguage: true}, lifecycle.PhaseInitial, detection.Intelligence{}, 15},
		{"links shared", detection.Result{}, fingerprint.Fingerprint{LinksShared: true}, lifecycle.PhaseInitial, detection.Intelligence{}, 20},
		{"payment intent", detection.Result{}, fingerprint.Fingerprint{PaymentIntent: true}, lifecycle.PhaseInitial, detection.Intelligence{}, 15},
		{"long conversation", detection.Result{}, fingerprint.Fingerprint{MessageCount: 4}, lifecycle.PhaseInitial, detection.Intelligence{}, 10},
		{"three turns not enough", detection.Result{}, fingerprint.Fingerprint{MessageCount: 3}, lifecycle.PhaseInitial, detection.Intelligence{}, 0},
		{"payment phase", detection.Result{}, fingerprint.Fingerprint{}, lifecycle.PhasePayment, detection.Intelligence{}, 20},
		{"escalation phase", detection.Result{}, fingerprint.Fingerprint{}, lifecycle.PhaseEscalation, detection.Intelligence{}, 20},
		{"exit phase adds nothing", detection.Result{}, fingerprint.Fingerprint{}, lifecycle.PhaseExit, detection.Intelligence{}, 0},
		{"upi extracted", detection.Result{}, fingerprint.Fingerprint{}, lifecycle.PhaseInitial, detection.Intelligence{UPIIDs: []string{"x@ybl"}}, 15},
		{"link extracted", detection.Result{}, fingerprint.Fingerprint{}, lifecycle.PhaseInitial, detection.Intelligence{PhishingLinks: []string{"www.x.test"}}, 20},
		{"bank account alone adds nothing", detection.Result{}, fingerprint.Fingerprint{}, lifecycle.PhaseInitial, detection.Intelligence{BankAccounts: []string{"123456789"}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.det, tt.fp, tt.phase, tt.intel).Score)
		})
	}
}

func TestTierBoundaries(t *testing.T) {
	// 74 via links(20)+payment intent(15)+pressure(15)+scam conf 0.6(24)
	a := Score(
		detection.Result{IsScam: true, Confidence: 0.6},
		fingerprint.Fingerprint{PressureLanguage: true, LinksShared: true, PaymentIntent: true},
		lifecycle.PhaseInitial,
		detection.Intelligence{},
	)
	assert.Equal(t, 74, a.Score)
	assert.Equal(t, LevelMedium, a.Level)

	// 75 exactly: add nothing but bump confidence so int(0.625*40)=25
	b := Score(
		detection.Result{IsScam: true, Confidence: 0.625},
		fingerprint.Fingerprint{PressureLanguage: true, LinksShared: true, PaymentIntent: true},
		lifecycle.PhaseInitial,
		detection.Intelligence{},
	)
	assert.Equal(t, 75, b.Score)
	assert.Equal(t, LevelHigh, b.Level)

	// 40 is the medium floor; 39 stays low.
	c := Score(detection.Result{}, fingerprint.Fingerprint{LinksShared: true, PaymentIntent: true}, lifecycle.PhaseInitial, detection.Intelligence{})
	assert.Equal(t, 35, c.Score)
	assert.Equal(t, LevelLow, c.Level)

	d := Score(detection.Result{}, fingerprint.Fingerprint{LinksShared: true, PaymentIntent: true}, lifecycle.PhasePayment, detection.Intelligence{})
	assert.Equal(t, 55, d.Score)
	assert.Equal(t, LevelMedium, d.Level)
}

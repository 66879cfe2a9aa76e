package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		current ScamPhase
		message string
		want    ScamPhase
	}{
		{"initial advances on urgency", PhaseInitial, "This is URGENT, act now", PhasePressure},
		{"initial advances on blocked", PhaseInitial, "your account will be blocked", PhasePressure},
		{"initial holds without cue", PhaseInitial, "hello, how are you", PhaseInitial},
		{"initial ignores payment cue", PhaseInitial, "send money via upi", PhaseInitial},
		{"pressure advances on upi", PhasePressure, "share your upi id", PhasePayment},
		{"pressure advances on pay", PhasePressure, "you must pay today", PhasePayment},
		{"pressure advances on rupee symbol", PhasePressure, "transfer ₹500", PhasePayment},
		{"pressure holds without cue", PhasePressure, "do it quickly", PhasePressure},
		{"payment advances on link", PhasePayment, "use this link instead", PhaseEscalation},
		{"payment advances on http", PhasePayment, "go to http://evil.example", PhaseEscalation},
		{"payment advances on bank", PhasePayment, "try a bank transfer", PhaseEscalation},
		{"payment holds without cue", PhasePayment, "hurry up", PhasePayment},
		{"escalation always exits", PhaseEscalation, "anything at all", PhaseExit},
		{"exit is absorbing", PhaseExit, "urgent pay bank link", PhaseExit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.current, tt.message))
		})
	}
}

func TestNextNeverRegresses(t *testing.T) {
	order := map[ScamPhase]int{
		PhaseInitial:    0,
		PhasePressure:   1,
		PhasePayment:    2,
		PhaseEscalation: 3,
		PhaseExit:       4,
	}
	messages := []string{
		"", "urgent", "pay via upi now", "click this link http://x.test", "done",
	}
	for phase, rank := range order {
		for _, msg := range messages {
			next := Next(phase, msg)
			assert.GreaterOrEqual(t, order[next], rank, "phase %s regressed on %q", phase, msg)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, p := range []ScamPhase{PhaseInitial, PhasePressure, PhasePayment, PhaseEscalation, PhaseExit} {
		assert.Equal(t, p, Parse(p.String()))
	}
	assert.Equal(t, PhaseInitial, Parse("garbage"))
	assert.Equal(t, PhaseInitial, Parse(""))
	assert.Equal(t, PhaseExit, Parse("  EXIT "))
}

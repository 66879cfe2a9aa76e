package lifecycle

import (
	"fmt"
	"strings"
)

// ScamPhase models the stage a scam conversation has reached. Phases only move
// forward; once a conversation hits PhaseExit it stays there.
type ScamPhase string

const (
	// PhaseInitial covers the opening contact: greetings and vague threats.
	PhaseInitial ScamPhase = "initial"
	// PhasePressure covers urgency, fear and warning language.
	PhasePressure ScamPhase = "pressure"
	// PhasePayment covers the first explicit money or UPI ask.
	PhasePayment ScamPhase = "payment"
	// PhaseEscalation covers alternate payment methods and links.
	PhaseEscalation ScamPhase = "escalation"
	// PhaseExit is terminal: the trap is sprung and engagement winds down.
	PhaseExit ScamPhase = "exit"
)

// Parse converts a stored phase name back into a ScamPhase. Unknown values
// fall back to PhaseInitial so a corrupt record degrades instead of failing.
func Parse(s string) ScamPhase {
	switch ScamPhase(strings.ToLower(strings.TrimSpace(s))) {
	case PhasePressure:
		return PhasePressure
	case PhasePayment:
		return PhasePayment
	case PhaseEscalation:
		return PhaseEscalation
	case PhaseExit:
		return PhaseExit
	default:
		return PhaseInitial
	}
}

// String returns the wire name used when persisting a phase.
func (p ScamPhase) String() string {
	return string(p)
}

// Valid reports whether p is one of the five known phases.
func (p ScamPhase) Valid() bool {
	switch p {
	case PhaseInitial, PhasePressure, PhasePayment, PhaseEscalation, PhaseExit:
		return true
	}
	return false
}

// Next advances the lifecycle based on the latest scammer message. Only the
// cue set for the current phase is considered, so a single message cannot
// skip phases. Messages without a matching cue leave the phase unchanged.
func Next(current ScamPhase, message string) ScamPhase {
	msg := strings.ToLower(message)

	switch current {
	case PhaseInitial:
		if strings.Contains(msg, "urgent") || strings.Contains(msg, "blocked") {
			return PhasePressure
		}
	case PhasePressure:
		if strings.Contains(msg, "upi") || strings.Contains(msg, "pay") || strings.Contains(msg, "₹") {
			return PhasePayment
		}
	case PhasePayment:
		if strings.Contains(msg, "link") || strings.Contains(msg, "http") || strings.Contains(msg, "bank") {
			return PhaseEscalation
		}
	case PhaseEscalation:
		return PhaseExit
	case PhaseExit:
		return PhaseExit
	}

	return current
}

// MarshalText implements encoding.TextMarshaler.
func (p ScamPhase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("lifecycle: unknown phase %q", string(p))
	}
	return []byte(p), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *ScamPhase) UnmarshalText(text []byte) error {
	*p = Parse(string(text))
	return nil
}

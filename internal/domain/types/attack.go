package types

// AttackKind identifies an adversarial transform applied to an exchange.
type AttackKind string

const (
	AttackNone        AttackKind = "none"
	AttackReplay      AttackKind = "replay"
	AttackTamper      AttackKind = "tamper"
	AttackKeyMismatch AttackKind = "key_mismatch"
	AttackNonceReuse  AttackKind = "nonce_reuse"
	AttackStaleness   AttackKind = "staleness"
	AttackRandomGuess AttackKind = "random_guess"
	AttackReflection  AttackKind = "reflection"
)

// AttackKinds lists every injectable kind in canonical order.
// Weighted sampling walks this order so draws are reproducible.
var AttackKinds = []AttackKind{
	AttackReplay,
	AttackTamper,
	AttackKeyMismatch,
	AttackNonceReuse,
	AttackStaleness,
	AttackRandomGuess,
	AttackReflection,
}

// String returns the string form of the kind.
func (k AttackKind) String() string { return string(k) }

// Known reports whether k is AttackNone or one of AttackKinds.
func (k AttackKind) Known() bool {
	if k == AttackNone {
		return true
	}
	for _, c := range AttackKinds {
		if c == k {
			return true
		}
	}
	return false
}

// TwoWayOnly reports whether k needs the counter-challenge of a two-way run.
func (k AttackKind) TwoWayOnly() bool { return k == AttackReflection }

// AttackLabel is the ground truth attached to a trace.
type AttackLabel struct {
	Kind AttackKind `json:"kind"`
	// Target is the message the attack acted on, or KindNone.
	Target MessageKind `json:"target,omitempty"`
}

// Clean is the label of an exchange with no attack applied.
var Clean = AttackLabel{Kind: AttackNone}

// Attacked reports whether the label names an attack.
func (l AttackLabel) Attacked() bool { return l.Kind != AttackNone && l.Kind != "" }

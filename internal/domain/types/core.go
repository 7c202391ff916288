package types

// Identity names a registered principal.
type Identity string

// String returns the string form of the identity.
func (id Identity) String() string { return string(id) }

// Fingerprint is a short, non-secret identifier for a principal key.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// Variant selects the challenge-response protocol run by an exchange.
type Variant string

const (
	// VariantOneWay authenticates the responder to the initiator only.
	VariantOneWay Variant = "one-way"
	// VariantTwoWay authenticates both parties within one exchange.
	VariantTwoWay Variant = "two-way"
	// VariantMixed is a session-level setting that picks one of the above per exchange.
	VariantMixed Variant = "mixed"
)

// String returns the string form of the variant.
func (v Variant) String() string { return string(v) }

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	switch v {
	case VariantOneWay, VariantTwoWay, VariantMixed:
		return true
	}
	return false
}

// Verdict is the terminal classification of an exchange.
type Verdict string

const (
	VerdictAuthenticated Verdict = "authenticated"
	VerdictRejected      Verdict = "rejected"
	VerdictErrored       Verdict = "errored"
)

// String returns the string form of the verdict.
func (v Verdict) String() string { return string(v) }

// Reason explains a verdict.
type Reason string

const (
	ReasonOK                Reason = "ok"
	ReasonDecryptFailed     Reason = "decrypt_failed"
	ReasonVerifyFailed      Reason = "verify_failed"
	ReasonNonceMismatch     Reason = "nonce_mismatch"
	ReasonMalformedNonce    Reason = "malformed_nonce"
	ReasonNonceReused       Reason = "nonce_reused"
	ReasonTimeout           Reason = "timeout"
	ReasonUnknownPrincipal  Reason = "unknown_principal"
	ReasonProtocolViolation Reason = "protocol_violation"
	ReasonCanceled          Reason = "canceled"
	ReasonInternal          Reason = "internal_error"
)

// String returns the string form of the reason.
func (r Reason) String() string { return string(r) }

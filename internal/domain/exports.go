package domain

import (
	interfaces "chalresp/internal/domain/interfaces"
	types "chalresp/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Identity     = types.Identity
	Fingerprint  = types.Fingerprint
	Variant      = types.Variant
	Verdict      = types.Verdict
	Reason       = types.Reason
	Key          = types.Key
	Nonce        = types.Nonce
	Principal    = types.Principal
	KeyringEntry = types.KeyringEntry
	MessageKind  = types.MessageKind
	Message      = types.Message
	State        = types.State
	Trace        = types.Trace
	AttackKind   = types.AttackKind
	AttackLabel  = types.AttackLabel
	Record       = types.Record
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	CipherService  = interfaces.CipherService
	KeyringService = interfaces.KeyringService
	Observer       = interfaces.Observer
	PrincipalStore = interfaces.PrincipalStore
	KeyResolver    = interfaces.KeyResolver
	NonceRegistry  = interfaces.NonceRegistry
	KeyringStore   = interfaces.KeyringStore
)

const (
	KeySize   = types.KeySize
	NonceSize = types.NonceSize

	VariantOneWay = types.VariantOneWay
	VariantTwoWay = types.VariantTwoWay
	VariantMixed  = types.VariantMixed

	VerdictAuthenticated = types.VerdictAuthenticated
	VerdictRejected      = types.VerdictRejected
	VerdictErrored       = types.VerdictErrored

	ReasonOK                = types.ReasonOK
	ReasonDecryptFailed     = types.ReasonDecryptFailed
	ReasonVerifyFailed      = types.ReasonVerifyFailed
	ReasonNonceMismatch     = types.ReasonNonceMismatch
	ReasonMalformedNonce    = types.ReasonMalformedNonce
	ReasonNonceReused       = types.ReasonNonceReused
	ReasonTimeout           = types.ReasonTimeout
	ReasonUnknownPrincipal  = types.ReasonUnknownPrincipal
	ReasonProtocolViolation = types.ReasonProtocolViolation
	ReasonCanceled          = types.ReasonCanceled
	ReasonInternal          = types.ReasonInternal

	KindNone      = types.KindNone
	KindChallenge = types.KindChallenge
	KindResponse  = types.KindResponse
	KindConfirm   = types.KindConfirm

	StateInit              = types.StateInit
	StateChallenged        = types.StateChallenged
	StateVerify            = types.StateVerify
	StateCounterChallenged = types.StateCounterChallenged
	StateCounterVerify     = types.StateCounterVerify
	StateAuthenticated     = types.StateAuthenticated
	StateRejected          = types.StateRejected
	StateErrored           = types.StateErrored

	AttackNone        = types.AttackNone
	AttackReplay      = types.AttackReplay
	AttackTamper      = types.AttackTamper
	AttackKeyMismatch = types.AttackKeyMismatch
	AttackNonceReuse  = types.AttackNonceReuse
	AttackStaleness   = types.AttackStaleness
	AttackRandomGuess = types.AttackRandomGuess
	AttackReflection  = types.AttackReflection
)

var (
	// AttackKinds lists every injectable kind in canonical order.
	AttackKinds = types.AttackKinds
	// Clean labels an exchange with no attack applied.
	Clean = types.Clean
)

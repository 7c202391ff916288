package types

// State is a step of the exchange state machine.
type State string

const (
	StateInit              State = "init"
	StateChallenged        State = "challenged"
	StateVerify            State = "verify"
	StateCounterChallenged State = "counter_challenged"
	StateCounterVerify     State = "counter_verify"
	StateAuthenticated     State = "authenticated"
	StateRejected          State = "rejected"
	StateErrored           State = "errored"
)

// Terminal reports whether s ends an exchange.
func (s State) Terminal() bool {
	return s == StateAuthenticated || s == StateRejected || s == StateErrored
}

// Trace is the complete, read-only account of one exchange.
type Trace struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence"`
	Variant   Variant   `json:"variant"`
	Initiator Identity  `json:"initiator"`
	Responder Identity  `json:"responder"`
	Messages  []Message `json:"messages"`
	States    []State   `json:"states"`
	Steps     int       `json:"steps"`
	Verdict   Verdict   `json:"verdict"`
	Reason    Reason    `json:"reason"`
	// NonceFresh is false when any challenge nonce issued in this exchange
	// had already been used by an earlier one.
	NonceFresh bool `json:"nonce_fresh"`
}

// Find returns the first message of the given kind.
func (t Trace) Find(kind MessageKind) (Message, bool) {
	for _, m := range t.Messages {
		if m.Kind == kind {
			return m, true
		}
	}
	return Message{}, false
}

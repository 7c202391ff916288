package types

// MessageKind identifies the role of a protocol message.
type MessageKind string

const (
	// KindNone marks an absent message reference.
	KindNone MessageKind = ""
	// KindChallenge carries the initiator's nonce.
	KindChallenge MessageKind = "challenge"
	// KindResponse carries the responder's proof, and in two-way runs its counter nonce.
	KindResponse MessageKind = "response"
	// KindConfirm carries the initiator's proof over the counter nonce.
	KindConfirm MessageKind = "confirm"
)

// String returns the string form of the kind.
func (k MessageKind) String() string { return string(k) }

// Message is one protocol message as delivered to its recipient.
//
// SentAt and DeliveredAt are logical ticks local to the exchange.
type Message struct {
	Seq         int         `json:"seq"`
	Kind        MessageKind `json:"kind"`
	From        Identity    `json:"from"`
	To          Identity    `json:"to"`
	Nonce       Nonce       `json:"nonce,omitempty"`
	Payload     []byte      `json:"payload,omitempty"`
	SentAt      uint64      `json:"sent_at"`
	DeliveredAt uint64      `json:"delivered_at"`
}

// Clone returns a deep copy of m.
func (m Message) Clone() Message {
	m.Nonce = m.Nonce.Clone()
	if m.Payload != nil {
		m.Payload = append([]byte(nil), m.Payload...)
	}
	return m
}

// Size returns the number of bytes m occupies on the wire.
func (m Message) Size() int {
	return len(m.From) + len(m.To) + len(m.Nonce) + len(m.Payload)
}

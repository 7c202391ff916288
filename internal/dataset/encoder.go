package dataset

import (
	"chalresp/internal/crypto"
	"chalresp/internal/domain"
)

// Encoder turns traces into records.
type Encoder struct{}

// NewEncoder returns an Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Encode flattens trace and label. It is a pure function of its inputs.
func (e *Encoder) Encode(trace domain.Trace, label domain.AttackLabel) domain.Record {
	if label.Kind == "" {
		label = domain.Clean
	}
	rec := domain.Record{
		ExchangeID:   trace.ID,
		Sequence:     trace.Sequence,
		Initiator:    trace.Initiator,
		Responder:    trace.Responder,
		Variant:      trace.Variant,
		Verdict:      trace.Verdict,
		Reason:       trace.Reason,
		AttackLabel:  label.Kind,
		AttackTarget: label.Target,
		AttackFlag:   label.Attacked(),
		StepCount:    trace.Steps,
		MessageCount: len(trace.Messages),
		TimingDeltas: make([]uint64, 0, len(trace.Messages)),
		NonceFresh:   trace.NonceFresh,
	}

	var prev uint64
	for _, m := range trace.Messages {
		rec.TimingDeltas = append(rec.TimingDeltas, m.DeliveredAt-prev)
		prev = m.DeliveredAt
		rec.TotalBytes += m.Size()
	}

	var nonces [][]byte
	if ch, ok := trace.Find(domain.KindChallenge); ok {
		rec.ChallengeSize = ch.Size()
		rec.ChallengeNonce = ch.Nonce.Hex()
		nonces = append(nonces, ch.Nonce)
		if resp, ok := trace.Find(domain.KindResponse); ok {
			rec.ResponseLatency = resp.DeliveredAt - ch.SentAt
		}
	}
	if resp, ok := trace.Find(domain.KindResponse); ok {
		rec.ResponseSize = resp.Size()
		rec.CounterNonce = resp.Nonce.Hex()
		rec.ResponseDigest = crypto.Digest(resp.Payload)
		nonces = append(nonces, resp.Nonce)
	}
	if conf, ok := trace.Find(domain.KindConfirm); ok {
		rec.ConfirmSize = conf.Size()
	}
	rec.NonceEntropy = Entropy(nonces...)
	return rec
}

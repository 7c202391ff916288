package challenge

import (
	"context"
	"crypto/subtle"
	"iter"

	"github.com/sirupsen/logrus"

	"chalresp/internal/domain"
)

// Exchange is one run of the protocol state machine.
type Exchange struct {
	engine *Engine
	plan   Plan
	cipher domain.CipherService

	state   domain.State
	clock   uint64
	trace   domain.Trace
	prior   []domain.Message
	inbox   domain.Message
	started bool

	// Nonces issued by the initiator (ra) and responder (rb) and whether
	// each was unused when issued.
	ra, rb           domain.Nonce
	raFresh, rbFresh bool
}

func newExchange(e *Engine, plan Plan) *Exchange {
	return &Exchange{
		engine: e,
		plan:   plan,
		cipher: e.cipher.WithRand(plan.Entropy),
		state:  domain.StateInit,
		trace: domain.Trace{
			ID:         plan.ID,
			Sequence:   plan.Sequence,
			Variant:    plan.Variant,
			Initiator:  plan.Initiator,
			Responder:  plan.Responder,
			States:     []domain.State{domain.StateInit},
			NonceFresh: true,
		},
	}
}

// State returns the current state.
func (x *Exchange) State() domain.State { return x.state }

// Trace returns a copy of the trace so far.
func (x *Exchange) Trace() domain.Trace {
	t := x.trace
	t.Messages = make([]domain.Message, len(x.trace.Messages))
	for i, m := range x.trace.Messages {
		t.Messages[i] = m.Clone()
	}
	t.States = append([]domain.State(nil), x.trace.States...)
	return t
}

// Outbound advances the exchange, yielding every message before it is
// delivered. The sequence ends when the exchange reaches a terminal state.
// Breaking out of the loop or cancelling ctx ends the exchange as Errored.
func (x *Exchange) Outbound(ctx context.Context) iter.Seq[*Outbound] {
	return func(yield func(*Outbound) bool) {
		if !x.started {
			x.started = true
			if x.plan.Eavesdrop && !x.state.Terminal() {
				x.eavesdrop(ctx)
			}
		}
		for !x.state.Terminal() {
			if ctx.Err() != nil {
				x.finish(domain.VerdictErrored, domain.ReasonCanceled)
				return
			}
			if x.trace.Steps >= x.engine.opts.MaxSteps {
				x.finish(domain.VerdictRejected, domain.ReasonTimeout)
				return
			}
			msg, ok := x.advance()
			if !ok {
				continue
			}
			out := &Outbound{msg: msg, prior: x.prior}
			if !yield(out) {
				x.finish(domain.VerdictErrored, domain.ReasonCanceled)
				return
			}
			if out.Replaced() {
				x.engine.log.WithFields(logrus.Fields{
					"exchange": x.trace.ID,
					"kind":     out.msg.Kind,
				}).Trace("message replaced in transit")
			}
			x.deliver(out.msg)
		}
	}
}

// eavesdrop runs a clean exchange between the same pair and keeps its transcript.
func (x *Exchange) eavesdrop(ctx context.Context) {
	prelude := newExchange(x.engine, Plan{
		ID:        x.plan.ID,
		Sequence:  x.plan.Sequence,
		Variant:   x.plan.Variant,
		Initiator: x.plan.Initiator,
		Responder: x.plan.Responder,
		Entropy:   x.plan.Entropy,
	})
	for range prelude.Outbound(ctx) {
	}
	x.prior = prelude.Trace().Messages
}

// advance performs the local work of whichever party owns the current
// state. It returns the message that party sends, if any.
func (x *Exchange) advance() (domain.Message, bool) {
	switch x.state {
	case domain.StateInit:
		return x.challenge()
	case domain.StateChallenged:
		return x.respond()
	case domain.StateVerify:
		x.verifyResponse()
	case domain.StateCounterChallenged:
		return x.confirm()
	case domain.StateCounterVerify:
		x.verifyConfirm()
	default:
		x.finish(domain.VerdictErrored, domain.ReasonProtocolViolation)
	}
	return domain.Message{}, false
}

// challenge: the initiator issues RA.
func (x *Exchange) challenge() (domain.Message, bool) {
	ra, fresh, ok := x.issueNonce(x.plan.ReuseChallenge, func(m domain.Message) (domain.Nonce, bool) {
		return m.Nonce, m.Kind == domain.KindChallenge
	})
	if !ok {
		return domain.Message{}, false
	}
	x.ra, x.raFresh = ra, fresh
	return domain.Message{
		Kind:  domain.KindChallenge,
		From:  x.plan.Initiator,
		To:    x.plan.Responder,
		Nonce: ra.Clone(),
	}, true
}

// respond: the responder proves knowledge of its key over the received
// nonce, and in two-way runs attaches its own nonce RB.
func (x *Exchange) respond() (domain.Message, bool) {
	nonce := x.inbox.Nonce
	if len(nonce) != domain.NonceSize {
		x.finish(domain.VerdictRejected, domain.ReasonMalformedNonce)
		return domain.Message{}, false
	}

	input := nonce
	if x.plan.Variant == domain.VariantTwoWay {
		rb, fresh, ok := x.issueNonce(x.plan.ReuseCounter, func(m domain.Message) (domain.Nonce, bool) {
			return m.Nonce, m.Kind == domain.KindResponse
		})
		if !ok {
			return domain.Message{}, false
		}
		x.rb, x.rbFresh = rb, fresh
		input = concat(nonce, rb)
	}

	proof, ok := x.prove(Forward, input)
	if !ok {
		return domain.Message{}, false
	}
	return domain.Message{
		Kind:    domain.KindResponse,
		From:    x.plan.Responder,
		To:      x.plan.Initiator,
		Nonce:   x.rb.Clone(),
		Payload: proof,
	}, true
}

// verifyResponse: the initiator checks the responder's proof.
func (x *Exchange) verifyResponse() {
	m := x.inbox
	if x.late(domain.KindChallenge, m) {
		x.finish(domain.VerdictRejected, domain.ReasonTimeout)
		return
	}
	if x.engine.opts.DetectReplay && !x.raFresh {
		x.finish(domain.VerdictRejected, domain.ReasonNonceReused)
		return
	}

	expected := x.ra
	if x.plan.Variant == domain.VariantTwoWay {
		if len(m.Nonce) != domain.NonceSize {
			x.finish(domain.VerdictRejected, domain.ReasonMalformedNonce)
			return
		}
		expected = concat(x.ra, m.Nonce)
	}
	if reason := x.check(m.From, expected, m.Payload); reason != domain.ReasonOK {
		x.finish(domain.VerdictRejected, reason)
		return
	}

	if x.plan.Variant == domain.VariantOneWay {
		x.finish(domain.VerdictAuthenticated, domain.ReasonOK)
		return
	}
	x.transition(domain.StateCounterChallenged)
}

// confirm: the initiator proves itself over the counter nonce it received.
func (x *Exchange) confirm() (domain.Message, bool) {
	proof, ok := x.prove(Reverse, x.inbox.Nonce)
	if !ok {
		return domain.Message{}, false
	}
	return domain.Message{
		Kind:    domain.KindConfirm,
		From:    x.plan.Initiator,
		To:      x.plan.Responder,
		Payload: proof,
	}, true
}

// verifyConfirm: the responder checks the initiator's proof against the
// counter nonce it issued.
func (x *Exchange) verifyConfirm() {
	m := x.inbox
	if x.late(domain.KindResponse, m) {
		x.finish(domain.VerdictRejected, domain.ReasonTimeout)
		return
	}
	if x.engine.opts.DetectReplay && !x.rbFresh {
		x.finish(domain.VerdictRejected, domain.ReasonNonceReused)
		return
	}
	if reason := x.check(m.From, x.rb, m.Payload); reason != domain.ReasonOK {
		x.finish(domain.VerdictRejected, reason)
		return
	}
	x.finish(domain.VerdictAuthenticated, domain.ReasonOK)
}

// deliver stamps msg with logical time, records it and hands it to the
// recipient's state.
func (x *Exchange) deliver(msg domain.Message) {
	kind, from, to, next := x.expect()

	msg.Seq = len(x.trace.Messages) + 1
	msg.SentAt = x.clock
	msg.DeliveredAt = msg.SentAt + 1 + x.plan.Delay[msg.Kind]
	x.clock = msg.DeliveredAt
	x.trace.Messages = append(x.trace.Messages, msg)
	x.inbox = msg

	switch {
	case !x.known(msg.From) || !x.known(msg.To):
		x.finish(domain.VerdictErrored, domain.ReasonUnknownPrincipal)
	case msg.Kind != kind || msg.From != from || msg.To != to:
		x.finish(domain.VerdictErrored, domain.ReasonProtocolViolation)
	default:
		x.transition(next)
	}
}

// expect returns the message the current sending state must produce and
// the state its delivery leads to.
func (x *Exchange) expect() (kind domain.MessageKind, from, to domain.Identity, next domain.State) {
	a, b := x.plan.Initiator, x.plan.Responder
	switch x.state {
	case domain.StateInit:
		return domain.KindChallenge, a, b, domain.StateChallenged
	case domain.StateChallenged:
		return domain.KindResponse, b, a, domain.StateVerify
	case domain.StateCounterChallenged:
		return domain.KindConfirm, a, b, domain.StateCounterVerify
	}
	return domain.KindNone, "", "", domain.StateErrored
}

// issueNonce returns a fresh nonce, or the eavesdropped one selected by
// pick when reuse is set and a transcript is available.
func (x *Exchange) issueNonce(reuse bool, pick func(domain.Message) (domain.Nonce, bool)) (domain.Nonce, bool, bool) {
	var n domain.Nonce
	reused := false
	if reuse {
		for _, m := range x.prior {
			if prev, ok := pick(m); ok && len(prev) > 0 {
				n, reused = prev.Clone(), true
				break
			}
		}
	}
	if n == nil {
		var err error
		if n, err = x.cipher.GenerateNonce(); err != nil {
			x.engine.log.WithError(err).Warn("nonce generation failed")
			x.finish(domain.VerdictErrored, domain.ReasonInternal)
			return nil, false, false
		}
	}
	fresh := !reused && (x.engine.nonces == nil || !x.engine.nonces.Seen(n))
	x.trace.NonceFresh = x.trace.NonceFresh && fresh
	return n, fresh, true
}

// prove computes the proof for direction d over input with the signer's key.
func (x *Exchange) prove(d Direction, input []byte) ([]byte, bool) {
	key, err := x.engine.keys.Key(x.plan.signer(d))
	if err != nil {
		x.finish(domain.VerdictErrored, domain.ReasonUnknownPrincipal)
		return nil, false
	}
	var proof []byte
	if x.engine.opts.Mode == ModeMAC {
		proof, err = x.cipher.Authenticate(key, input)
	} else {
		proof, err = x.cipher.Encrypt(key, input)
	}
	if err != nil {
		x.engine.log.WithError(err).Warn("proof computation failed")
		x.finish(domain.VerdictErrored, domain.ReasonInternal)
		return nil, false
	}
	return proof, true
}

// check verifies proof against expected using the stored key of the
// claimed prover.
func (x *Exchange) check(claimed domain.Identity, expected, proof []byte) domain.Reason {
	key, err := x.engine.keys.Key(claimed)
	if err != nil {
		return domain.ReasonUnknownPrincipal
	}
	if x.engine.opts.Mode == ModeMAC {
		if !x.cipher.Verify(key, expected, proof) {
			return domain.ReasonVerifyFailed
		}
		return domain.ReasonOK
	}
	pt, err := x.cipher.Decrypt(key, proof)
	if err != nil {
		return domain.ReasonDecryptFailed
	}
	if len(pt) != len(expected) || subtle.ConstantTimeCompare(pt, expected) != 1 {
		return domain.ReasonNonceMismatch
	}
	return domain.ReasonOK
}

// late reports whether m arrived outside the window opened by the first
// message of kind.
func (x *Exchange) late(kind domain.MessageKind, m domain.Message) bool {
	opened, ok := x.trace.Find(kind)
	return ok && m.DeliveredAt-opened.SentAt > x.engine.opts.ResponseWindow
}

func (x *Exchange) known(id domain.Identity) bool {
	_, err := x.engine.keys.Key(id)
	return err == nil
}

func (x *Exchange) transition(s domain.State) {
	x.state = s
	x.trace.States = append(x.trace.States, s)
	x.trace.Steps++
}

// finish moves to the terminal state for verdict and retires the
// exchange's nonces.
func (x *Exchange) finish(verdict domain.Verdict, reason domain.Reason) {
	if x.state.Terminal() {
		return
	}
	x.trace.Verdict, x.trace.Reason = verdict, reason
	switch verdict {
	case domain.VerdictAuthenticated:
		x.transition(domain.StateAuthenticated)
	case domain.VerdictRejected:
		x.transition(domain.StateRejected)
	default:
		x.transition(domain.StateErrored)
	}
	if x.engine.nonces != nil {
		x.engine.nonces.Mark(x.ra, x.rb)
	}
	x.engine.log.WithFields(logrus.Fields{
		"exchange": x.trace.ID,
		"verdict":  verdict,
		"reason":   reason,
		"steps":    x.trace.Steps,
	}).Trace("exchange finished")
}

func concat(a, b []byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}

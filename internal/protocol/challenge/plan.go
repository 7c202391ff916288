package challenge

import (
	"io"
	"maps"

	"github.com/pkg/errors"

	"chalresp/internal/domain"
)

// Direction names which party is proving itself.
type Direction int

const (
	// Forward is the responder proving to the initiator.
	Forward Direction = iota
	// Reverse is the initiator proving to the responder (two-way only).
	Reverse
)

// String returns the string form of the direction.
func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// ErrInvalidPlan is returned by Start for plans that cannot run at all.
var ErrInvalidPlan = errors.New("invalid exchange plan")

// Interceptor sees every outbound message before delivery.
type Interceptor func(out *Outbound)

// Plan describes one exchange.
//
// The zero values of the attack fields give a clean run.
type Plan struct {
	ID        string
	Sequence  int
	Variant   domain.Variant
	Initiator domain.Identity
	Responder domain.Identity
	// Entropy feeds every nonce and IV of the exchange.
	Entropy io.Reader

	// Signer overrides whose key computes the proof in a direction. The
	// message still claims the honest prover.
	Signer map[Direction]domain.Identity
	// Delay adds ticks to the delivery of a message kind.
	Delay map[domain.MessageKind]uint64
	// Eavesdrop runs a clean exchange between the same pair first and makes
	// its transcript available through Outbound.Prior.
	Eavesdrop bool
	// ReuseChallenge makes the initiator issue the eavesdropped challenge nonce.
	ReuseChallenge bool
	// ReuseCounter makes the responder issue the eavesdropped counter nonce.
	ReuseCounter bool
	Interceptor  Interceptor
}

// Clone returns a copy of p whose maps can be modified independently.
func (p Plan) Clone() Plan {
	p.Signer = maps.Clone(p.Signer)
	p.Delay = maps.Clone(p.Delay)
	return p
}

// Intercept appends fn to the plan's interceptor chain.
func (p *Plan) Intercept(fn Interceptor) {
	prev := p.Interceptor
	if prev == nil {
		p.Interceptor = fn
		return
	}
	p.Interceptor = func(out *Outbound) {
		prev(out)
		fn(out)
	}
}

// signer returns the identity whose key proves in direction d.
func (p Plan) signer(d Direction) domain.Identity {
	if id, ok := p.Signer[d]; ok && id != "" {
		return id
	}
	if d == Reverse {
		return p.Initiator
	}
	return p.Responder
}

func (p Plan) validate() error {
	switch {
	case p.Variant != domain.VariantOneWay && p.Variant != domain.VariantTwoWay:
		return errors.Wrapf(ErrInvalidPlan, "variant %q", p.Variant)
	case p.Initiator == "" || p.Responder == "":
		return errors.Wrap(ErrInvalidPlan, "missing principal")
	case p.Initiator == p.Responder:
		return errors.Wrapf(ErrInvalidPlan, "%q cannot authenticate to itself", p.Initiator)
	case p.Entropy == nil:
		return errors.Wrap(ErrInvalidPlan, "no entropy source")
	}
	return nil
}

// Outbound is a message on its way to the recipient.
type Outbound struct {
	msg      domain.Message
	prior    []domain.Message
	replaced bool
}

// Message returns a copy of the pending message.
func (o *Outbound) Message() domain.Message { return o.msg.Clone() }

// Replace substitutes the message that will be delivered. Sequence and
// timing fields are assigned by the exchange.
func (o *Outbound) Replace(m domain.Message) {
	o.msg = m.Clone()
	o.replaced = true
}

// Replaced reports whether an interceptor substituted the message.
func (o *Outbound) Replaced() bool { return o.replaced }

// Prior returns the eavesdropped message of the given kind, if any.
func (o *Outbound) Prior(kind domain.MessageKind) (domain.Message, bool) {
	for _, m := range o.prior {
		if m.Kind == kind {
			return m.Clone(), true
		}
	}
	return domain.Message{}, false
}

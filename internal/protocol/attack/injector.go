package attack

import (
	"math/rand/v2"
	"slices"

	"github.com/pkg/errors"

	"chalresp/internal/domain"
	"chalresp/internal/protocol/challenge"
)

// Injector applies attack kinds to exchange plans.
type Injector struct {
	principals domain.PrincipalStore
	window     uint64
}

// New returns an injector. principals supplies wrong-key candidates and
// window is the engine's response window, which staleness must exceed.
func New(principals domain.PrincipalStore, window uint64) *Injector {
	return &Injector{principals: principals, window: window}
}

// Supports reports whether kind can be applied to an exchange of variant.
func Supports(kind domain.AttackKind, variant domain.Variant) bool {
	if !kind.Known() {
		return false
	}
	return !kind.TwoWayOnly() || variant == domain.VariantTwoWay
}

// Inject returns a mutated copy of plan and its ground-truth label.
func (in *Injector) Inject(plan challenge.Plan, kind domain.AttackKind, rng *rand.Rand) (challenge.Plan, domain.AttackLabel, error) {
	if !Supports(kind, plan.Variant) {
		return plan, domain.AttackLabel{}, errors.Wrapf(domain.ErrUnsupportedAttack, "%s on %s exchange", kind, plan.Variant)
	}

	p := plan.Clone()
	label := domain.AttackLabel{Kind: kind}
	twoWay := plan.Variant == domain.VariantTwoWay

	switch kind {
	case domain.AttackNone:
		return p, domain.Clean, nil

	case domain.AttackReplay:
		p.Eavesdrop, p.ReuseChallenge, p.ReuseCounter = true, true, true
		p.Intercept(replay)
		label.Target = domain.KindResponse

	case domain.AttackNonceReuse:
		p.Eavesdrop, p.ReuseChallenge = true, true
		label.Target = domain.KindChallenge

	case domain.AttackTamper:
		targets := []domain.MessageKind{domain.KindChallenge, domain.KindResponse}
		if twoWay {
			targets = append(targets, domain.KindConfirm)
		}
		label.Target = targets[rng.IntN(len(targets))]
		p.Intercept(tamper(label.Target, rng.Uint32(), byte(1+rng.IntN(255))))

	case domain.AttackKeyMismatch:
		dir := challenge.Forward
		if twoWay && rng.IntN(2) == 1 {
			dir = challenge.Reverse
		}
		wrong, err := in.wrongSigner(plan, dir, rng)
		if err != nil {
			return plan, domain.AttackLabel{}, err
		}
		if p.Signer == nil {
			p.Signer = make(map[challenge.Direction]domain.Identity)
		}
		p.Signer[dir] = wrong
		label.Target = proofKind(dir)

	case domain.AttackStaleness:
		dir := challenge.Forward
		if twoWay && rng.IntN(2) == 1 {
			dir = challenge.Reverse
		}
		if p.Delay == nil {
			p.Delay = make(map[domain.MessageKind]uint64)
		}
		label.Target = proofKind(dir)
		p.Delay[label.Target] = in.window + 1 + rng.Uint64N(in.window+1)

	case domain.AttackRandomGuess:
		p.Intercept(guess(rng.Uint64()))
		label.Target = domain.KindResponse

	case domain.AttackReflection:
		if p.Signer == nil {
			p.Signer = make(map[challenge.Direction]domain.Identity)
		}
		p.Signer[challenge.Forward] = plan.Initiator
		label.Target = domain.KindResponse
	}
	return p, label, nil
}

// wrongSigner picks a principal other than the honest prover for dir,
// preferring one outside the exchange.
func (in *Injector) wrongSigner(plan challenge.Plan, dir challenge.Direction, rng *rand.Rand) (domain.Identity, error) {
	prover, peer := plan.Responder, plan.Initiator
	if dir == challenge.Reverse {
		prover, peer = plan.Initiator, plan.Responder
	}

	var outsiders []domain.Identity
	for _, p := range in.principals.All() {
		if p.ID != prover && p.ID != peer {
			outsiders = append(outsiders, p.ID)
		}
	}
	if len(outsiders) > 0 {
		return outsiders[rng.IntN(len(outsiders))], nil
	}
	if _, err := in.principals.Lookup(peer); err != nil {
		return "", err
	}
	return peer, nil
}

// proofKind is the message carrying the proof of direction d.
func proofKind(d challenge.Direction) domain.MessageKind {
	if d == challenge.Reverse {
		return domain.KindConfirm
	}
	return domain.KindResponse
}

// replay swaps the responder's message for the eavesdropped one.
func replay(out *challenge.Outbound) {
	m := out.Message()
	if m.Kind != domain.KindResponse {
		return
	}
	prior, ok := out.Prior(domain.KindResponse)
	if !ok {
		return
	}
	m.Nonce, m.Payload = prior.Nonce, prior.Payload
	out.Replace(m)
}

// tamper flips the bits in mask at one position of the target's payload,
// or of its nonce for a challenge.
func tamper(target domain.MessageKind, pos uint32, mask byte) challenge.Interceptor {
	return func(out *challenge.Outbound) {
		m := out.Message()
		if m.Kind != target {
			return
		}
		field := m.Payload
		if target == domain.KindChallenge {
			field = m.Nonce
		}
		if len(field) == 0 {
			return
		}
		field[int(pos)%len(field)] ^= mask
		out.Replace(m)
	}
}

// guess replaces the response proof with random bytes of the same length.
func guess(seed uint64) challenge.Interceptor {
	return func(out *challenge.Outbound) {
		m := out.Message()
		if m.Kind != domain.KindResponse {
			return
		}
		r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		forged := make([]byte, len(m.Payload))
		for i := range forged {
			forged[i] = byte(r.Uint32())
		}
		if slices.Equal(forged, m.Payload) {
			forged[0] ^= 0xFF
		}
		m.Payload = forged
		out.Replace(m)
	}
}

package challenge

import (
	"context"

	"github.com/sirupsen/logrus"

	"chalresp/internal/domain"
	"chalresp/internal/logging"
)

// ResponseMode selects how a prover binds a nonce to its key.
type ResponseMode string

const (
	// ModeEncrypt proves by encrypting the nonce; the verifier decrypts and compares.
	ModeEncrypt ResponseMode = "encrypt"
	// ModeMAC proves with an HMAC tag over the nonce.
	ModeMAC ResponseMode = "mac"
)

// Options tune the engine.
type Options struct {
	Mode ResponseMode
	// ResponseWindow is the largest number of ticks a proof may take to
	// arrive after the nonce it answers was sent.
	ResponseWindow uint64
	// MaxSteps bounds the non-terminal transitions of one exchange.
	MaxSteps int
	// DetectReplay makes verifiers reject proofs over nonces already used
	// by a completed exchange.
	DetectReplay bool
	Logger       *logrus.Entry
}

// MinResponseWindow is the shortest window an honest exchange fits in: a
// proof is delivered two ticks after the nonce it answers was sent.
const MinResponseWindow = 2

// DefaultOptions returns the options used when fields are left zero.
func DefaultOptions() Options {
	return Options{Mode: ModeEncrypt, ResponseWindow: 4, MaxSteps: 16}
}

// Engine executes exchanges against one principal set.
type Engine struct {
	cipher domain.CipherService
	keys   domain.KeyResolver
	nonces domain.NonceRegistry
	opts   Options
	log    *logrus.Entry
}

// New returns an engine. nonces may be nil, in which case reuse is only
// known for nonces an exchange itself took from an eavesdropped transcript.
func New(cipher domain.CipherService, keys domain.KeyResolver, nonces domain.NonceRegistry, opts Options) *Engine {
	def := DefaultOptions()
	if opts.Mode == "" {
		opts.Mode = def.Mode
	}
	if opts.ResponseWindow == 0 {
		opts.ResponseWindow = def.ResponseWindow
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = def.MaxSteps
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Engine{cipher: cipher, keys: keys, nonces: nonces, opts: opts, log: log}
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Start validates plan and returns an exchange ready to be advanced.
//
// Unknown principals are not an error here: the exchange is returned
// already terminated as Errored.
func (e *Engine) Start(plan Plan) (*Exchange, error) {
	if err := plan.validate(); err != nil {
		return nil, err
	}
	x := newExchange(e, plan.Clone())
	for _, id := range []domain.Identity{plan.Initiator, plan.Responder} {
		if !x.known(id) {
			x.finish(domain.VerdictErrored, domain.ReasonUnknownPrincipal)
			break
		}
	}
	return x, nil
}

// Run executes plan to completion, passing every outbound message through
// the plan's interceptor.
func (e *Engine) Run(ctx context.Context, plan Plan) (domain.Trace, error) {
	x, err := e.Start(plan)
	if err != nil {
		return domain.Trace{}, err
	}
	for out := range x.Outbound(ctx) {
		if plan.Interceptor != nil {
			plan.Interceptor(out)
		}
	}
	return x.Trace(), nil
}

package session

import (
	"context"
	"iter"
	"math/rand/v2"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"chalresp/internal/crypto"
	"chalresp/internal/dataset"
	"chalresp/internal/domain"
	"chalresp/internal/logging"
	"chalresp/internal/protocol/attack"
	"chalresp/internal/protocol/challenge"
	"chalresp/internal/store"
)

// ErrConsumed is yielded when Records is ranged over a second time.
var ErrConsumed = errors.New("session already consumed")

// windowPerWorker is how many exchanges each worker gets per window.
const windowPerWorker = 8

// Option customises a Service.
type Option func(*Service)

// WithObserver registers an observer for every emitted record.
func WithObserver(o domain.Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithLogger sets the session logger.
func WithLogger(l *logrus.Entry) Option {
	return func(s *Service) { s.log = l }
}

// Service is one seeded simulation run.
type Service struct {
	cfg        Config
	principals *store.PrincipalStore
	nonces     *store.NonceStore
	engine     *challenge.Engine
	injector   *attack.Injector
	encoder    *dataset.Encoder
	observer   domain.Observer
	log        *logrus.Entry

	src      *crypto.Source
	rng      *rand.Rand
	ids      []domain.Identity
	kinds    []domain.AttackKind
	weights  []float64
	consumed atomic.Bool
}

// New validates cfg, registers its principals and returns a ready session.
func New(cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers == 0 {
		cfg.Workers = DefaultConfig().Workers
	}

	s := &Service{cfg: cfg, encoder: dataset.NewEncoder(), log: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}

	base, err := crypto.New(cfg.Suite, nil)
	if err != nil {
		return nil, err
	}

	s.src = crypto.NewSource(cfg.Seed)
	keySource := s.src.Child()
	s.rng = rand.New(s.src)

	s.ids = slices.Clone(cfg.Principals)
	slices.SortFunc(s.ids, func(a, b domain.Identity) int { return strings.Compare(string(a), string(b)) })

	s.principals = store.NewPrincipalStore(base.WithRand(keySource))
	for _, id := range s.ids {
		var p domain.Principal
		if key, ok := cfg.Keys[id]; ok {
			p, err = s.principals.RegisterWithKey(id, key)
		} else {
			p, err = s.principals.Register(id)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "register %q", id)
		}
		s.log.WithFields(logrus.Fields{"principal": p.ID, "fingerprint": p.Fingerprint}).Debug("principal registered")
	}

	for _, kind := range domain.AttackKinds {
		if w := cfg.AttackWeights[kind]; w > 0 {
			s.kinds = append(s.kinds, kind)
			s.weights = append(s.weights, w)
		}
	}

	s.nonces = store.NewNonceStore()
	s.engine = challenge.New(base, s.principals, s.nonces, challenge.Options{
		Mode:           cfg.Mode,
		ResponseWindow: cfg.ResponseWindow,
		MaxSteps:       cfg.MaxSteps,
		DetectReplay:   cfg.DetectReplay,
		Logger:         s.log,
	})
	s.injector = attack.New(s.principals, s.engine.Options().ResponseWindow)
	return s, nil
}

// Principals returns the registered principals ordered by identity.
func (s *Service) Principals() []domain.Principal { return s.principals.All() }

type job struct {
	plan  challenge.Plan
	label domain.AttackLabel
}

type result struct {
	trace domain.Trace
	err   error
}

// Records returns the lazy record stream of the session.
//
// Exchanges are planned and executed one window at a time, so stopping
// early leaves the rest of the run unplanned. Cancelling ctx stops
// emission; the context error is yielded once and the sequence ends.
func (s *Service) Records(ctx context.Context) iter.Seq2[domain.Record, error] {
	return func(yield func(domain.Record, error) bool) {
		if !s.consumed.CompareAndSwap(false, true) {
			yield(domain.Record{}, ErrConsumed)
			return
		}

		s.log.WithFields(logrus.Fields{
			"exchanges":    s.cfg.ExchangeCount,
			"attack_ratio": s.cfg.AttackRatio,
			"variant":      s.cfg.Variant,
			"seed":         s.cfg.Seed,
			"workers":      s.cfg.Workers,
		}).Info("session started")

		pool := pond.NewPool(s.cfg.Workers)
		defer pool.StopAndWait()

		tally := dataset.NewTally()
		window := s.cfg.Workers * windowPerWorker
		for start := 0; start < s.cfg.ExchangeCount; start += window {
			if err := ctx.Err(); err != nil {
				yield(domain.Record{}, err)
				return
			}

			jobs := make([]job, min(window, s.cfg.ExchangeCount-start))
			for i := range jobs {
				j, err := s.plan(start + i)
				if err != nil {
					yield(domain.Record{}, err)
					return
				}
				jobs[i] = j
			}

			results := make([]result, len(jobs))
			group := pool.NewGroup()
			for i := range jobs {
				group.Submit(func() {
					tr, err := s.engine.Run(ctx, jobs[i].plan)
					results[i] = result{trace: tr, err: err}
				})
			}
			if err := group.Wait(); err != nil {
				yield(domain.Record{}, errors.Wrap(err, "run exchanges"))
				return
			}

			for i, r := range results {
				if r.err != nil {
					yield(domain.Record{}, r.err)
					return
				}
				if err := ctx.Err(); err != nil {
					yield(domain.Record{}, err)
					return
				}

				rec := s.encoder.Encode(r.trace, jobs[i].label)
				tally.Add(rec)
				if s.observer != nil {
					s.observer.ObserveRecord(rec)
				}
				s.log.WithFields(logrus.Fields{
					"sequence":  rec.Sequence,
					"initiator": rec.Initiator,
					"responder": rec.Responder,
					"variant":   rec.Variant,
					"verdict":   rec.Verdict,
					"reason":    rec.Reason,
					"label":     rec.AttackLabel,
				}).Debug("exchange complete")

				if !yield(rec, nil) {
					return
				}
			}
		}

		s.log.WithFields(logrus.Fields{
			"records":       tally.Total,
			"attacks":       tally.Attacks,
			"authenticated": tally.Authenticated,
		}).Info("session finished")
	}
}

// plan draws everything exchange seq needs from the session stream.
func (s *Service) plan(seq int) (job, error) {
	initiator, responder := s.pair()

	kind := domain.AttackNone
	if s.cfg.AttackRatio > 0 && s.rng.Float64() < s.cfg.AttackRatio {
		kind = s.drawKind()
	}

	variant := s.cfg.Variant
	if variant == domain.VariantMixed {
		variant = domain.VariantOneWay
		if s.rng.IntN(2) == 1 || kind.TwoWayOnly() {
			variant = domain.VariantTwoWay
		}
	}

	entropy := s.src.Child()
	id, err := uuid.NewRandomFromReader(s.src)
	if err != nil {
		return job{}, errors.Wrap(err, "exchange id")
	}

	plan := challenge.Plan{
		ID:        id.String(),
		Sequence:  seq,
		Variant:   variant,
		Initiator: initiator,
		Responder: responder,
		Entropy:   entropy,
	}
	if kind == domain.AttackNone {
		return job{plan: plan, label: domain.Clean}, nil
	}
	mutated, label, err := s.injector.Inject(plan, kind, s.rng)
	if err != nil {
		return job{}, err
	}
	return job{plan: mutated, label: label}, nil
}

// pair picks two distinct principals.
func (s *Service) pair() (domain.Identity, domain.Identity) {
	n := len(s.ids)
	i := s.rng.IntN(n)
	j := s.rng.IntN(n - 1)
	if j >= i {
		j++
	}
	return s.ids[i], s.ids[j]
}

// drawKind samples an attack kind by weight.
func (s *Service) drawKind() domain.AttackKind {
	total := 0.0
	for _, w := range s.weights {
		total += w
	}
	r := s.rng.Float64() * total
	for i, w := range s.weights {
		if r < w {
			return s.kinds[i]
		}
		r -= w
	}
	return s.kinds[len(s.kinds)-1]
}

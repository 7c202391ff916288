package session

import (
	"math"

	"github.com/pkg/errors"

	"chalresp/internal/crypto"
	"chalresp/internal/domain"
	"chalresp/internal/protocol/attack"
	"chalresp/internal/protocol/challenge"
)

const (
	// MaxWorkers bounds the exchange worker pool.
	MaxWorkers = 1 << 10
	// MaxResponseWindow keeps injected delays representable on the logical clock.
	MaxResponseWindow = math.MaxUint64 / 4
)

// ErrInvalidConfig is returned for configurations that cannot produce a run.
var ErrInvalidConfig = errors.New("invalid session config")

// Config describes one simulation run.
type Config struct {
	ExchangeCount int
	AttackRatio   float64
	AttackWeights map[domain.AttackKind]float64
	Variant       domain.Variant
	Principals    []domain.Identity
	// Keys pins the keys of some principals; the rest get generated keys.
	Keys map[domain.Identity]domain.Key
	Seed uint64

	DetectReplay   bool
	Workers        int
	ResponseWindow uint64
	MaxSteps       int
	Suite          crypto.Suite
	Mode           challenge.ResponseMode
}

// DefaultConfig returns a 500-exchange mixed run with 20% replay and
// random-guess attacks between two principals.
func DefaultConfig() Config {
	return Config{
		ExchangeCount: 500,
		AttackRatio:   0.20,
		AttackWeights: map[domain.AttackKind]float64{
			domain.AttackReplay:      0.6,
			domain.AttackRandomGuess: 0.4,
		},
		Variant:        domain.VariantMixed,
		Principals:     []domain.Identity{"alice", "bob"},
		Seed:           42,
		Workers:        5,
		ResponseWindow: challenge.DefaultOptions().ResponseWindow,
		MaxSteps:       challenge.DefaultOptions().MaxSteps,
		Suite:          crypto.SuiteAESCBCHMAC,
		Mode:           challenge.ModeEncrypt,
	}
}

// Validate reports the first problem that would stop the run from starting.
func (c Config) Validate() error {
	if c.ExchangeCount <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "exchange count %d must be positive", c.ExchangeCount)
	}
	if math.IsNaN(c.AttackRatio) || c.AttackRatio < 0 || c.AttackRatio > 1 {
		return errors.Wrapf(ErrInvalidConfig, "attack ratio %v outside [0,1]", c.AttackRatio)
	}
	if !c.Variant.Valid() {
		return errors.Wrapf(ErrInvalidConfig, "variant %q", c.Variant)
	}
	switch c.Mode {
	case "", challenge.ModeEncrypt, challenge.ModeMAC:
	default:
		return errors.Wrapf(ErrInvalidConfig, "response mode %q", c.Mode)
	}
	if _, err := crypto.New(c.Suite, nil); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	if c.Workers < 0 || c.MaxSteps < 0 {
		return errors.Wrap(ErrInvalidConfig, "workers and max steps must not be negative")
	}
	if c.Workers > MaxWorkers {
		return errors.Wrapf(ErrInvalidConfig, "workers %d above %d", c.Workers, MaxWorkers)
	}
	if w := c.ResponseWindow; w != 0 && (w < challenge.MinResponseWindow || w > MaxResponseWindow) {
		return errors.Wrapf(ErrInvalidConfig, "response window %d outside [%d,%d]",
			w, challenge.MinResponseWindow, uint64(MaxResponseWindow))
	}

	total := 0.0
	for kind, w := range c.AttackWeights {
		if kind == domain.AttackNone || !kind.Known() {
			return errors.Wrapf(domain.ErrUnsupportedAttack, "unknown attack kind %q", kind)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return errors.Wrapf(ErrInvalidConfig, "weight %v for %s", w, kind)
		}
		if w > 0 && c.Variant != domain.VariantMixed && !attack.Supports(kind, c.Variant) {
			return errors.Wrapf(domain.ErrUnsupportedAttack, "%s on %s exchanges", kind, c.Variant)
		}
		total += w
	}
	if c.AttackRatio > 0 && total <= 0 {
		return errors.Wrap(ErrInvalidConfig, "attack weights sum to zero")
	}

	ids := distinct(c.Principals)
	if len(ids) != len(c.Principals) {
		return errors.Wrap(ErrInvalidConfig, "principals must be distinct and non-empty")
	}
	if len(ids) < 2 {
		return errors.Wrap(ErrInvalidConfig, "at least two principals are required")
	}
	for id, key := range c.Keys {
		if _, ok := ids[id]; !ok {
			return errors.Wrapf(ErrInvalidConfig, "key given for unlisted principal %q", id)
		}
		if len(key) != domain.KeySize {
			return errors.Wrapf(ErrInvalidConfig, "key for %q is %d bytes", id, len(key))
		}
	}
	return nil
}

func distinct(ids []domain.Identity) map[domain.Identity]struct{} {
	out := make(map[domain.Identity]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			out[id] = struct{}{}
		}
	}
	return out
}

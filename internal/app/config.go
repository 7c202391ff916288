package app

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"chalresp/internal/crypto"
	"chalresp/internal/domain"
	"chalresp/internal/protocol/challenge"
	"chalresp/internal/services/session"
)

// Config is the on-disk run configuration.
type Config struct {
	ExchangeCount  int                `yaml:"exchange_count"`
	AttackRatio    float64            `yaml:"attack_ratio"`
	AttackWeights  map[string]float64 `yaml:"attack_weights"`
	Variant        string             `yaml:"variant"`
	Principals     []string           `yaml:"principals"`
	Seed           uint64             `yaml:"seed"`
	DetectReplay   bool               `yaml:"detect_replay"`
	Workers        int                `yaml:"workers"`
	ResponseWindow uint64             `yaml:"response_window"`
	MaxSteps       int                `yaml:"max_steps"`
	CipherSuite    string             `yaml:"cipher_suite"`
	ResponseMode   string             `yaml:"response_mode"`

	Keyring KeyringConfig `yaml:"keyring"`
	Output  OutputConfig  `yaml:"output"`
	Log     LogConfig     `yaml:"log"`
}

// KeyringConfig points at an encrypted keyring holding fixed principal keys.
type KeyringConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig selects where records and metrics go.
type OutputConfig struct {
	Path    string `yaml:"path"`   // empty or "-" for stdout
	Format  string `yaml:"format"` // csv or jsonl
	Metrics string `yaml:"metrics"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig mirrors session.DefaultConfig.
func DefaultConfig() Config {
	d := session.DefaultConfig()
	cfg := Config{
		ExchangeCount:  d.ExchangeCount,
		AttackRatio:    d.AttackRatio,
		AttackWeights:  make(map[string]float64, len(d.AttackWeights)),
		Variant:        d.Variant.String(),
		Seed:           d.Seed,
		DetectReplay:   d.DetectReplay,
		Workers:        d.Workers,
		ResponseWindow: d.ResponseWindow,
		MaxSteps:       d.MaxSteps,
		CipherSuite:    string(d.Suite),
		ResponseMode:   string(d.Mode),
		Output:         OutputConfig{Format: "csv"},
		Log:            LogConfig{Level: "info", Format: "text"},
	}
	for k, w := range d.AttackWeights {
		cfg.AttackWeights[k.String()] = w
	}
	for _, p := range d.Principals {
		cfg.Principals = append(cfg.Principals, p.String())
	}
	return cfg
}

// LoadConfig reads a YAML file over the defaults. Unknown keys are rejected.
// Relative keyring and output paths are resolved against the file's directory.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}

	// A weights map in the file replaces the defaults rather than merging.
	defaults := cfg.AttackWeights
	cfg.AttackWeights = nil

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, errors.Wrapf(err, "parse %s", path)
	}
	if cfg.AttackWeights == nil {
		cfg.AttackWeights = defaults
	}

	dir := filepath.Dir(path)
	for _, p := range []*string{&cfg.Keyring.Path, &cfg.Output.Path, &cfg.Output.Metrics} {
		if *p != "" && *p != "-" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	return cfg, nil
}

// Session converts the file configuration into a session configuration.
// keys may be nil.
func (c Config) Session(keys map[domain.Identity]domain.Key) session.Config {
	out := session.Config{
		ExchangeCount:  c.ExchangeCount,
		AttackRatio:    c.AttackRatio,
		AttackWeights:  make(map[domain.AttackKind]float64, len(c.AttackWeights)),
		Variant:        domain.Variant(c.Variant),
		Seed:           c.Seed,
		DetectReplay:   c.DetectReplay,
		Workers:        c.Workers,
		ResponseWindow: c.ResponseWindow,
		MaxSteps:       c.MaxSteps,
		Suite:          crypto.Suite(c.CipherSuite),
		Mode:           challenge.ResponseMode(c.ResponseMode),
	}
	for k, w := range c.AttackWeights {
		out.AttackWeights[domain.AttackKind(k)] = w
	}
	for _, p := range c.Principals {
		out.Principals = append(out.Principals, domain.Identity(p))
	}
	if len(keys) > 0 {
		out.Keys = make(map[domain.Identity]domain.Key)
		for _, id := range out.Principals {
			if k, ok := keys[id]; ok {
				out.Keys[id] = k
			}
		}
	}
	return out
}

package app_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chalresp/internal/app"
	"chalresp/internal/crypto"
	"chalresp/internal/domain"
	"chalresp/internal/services/identity"
	"chalresp/internal/store"
)

// writeConfig writes body to a config file in a temp dir.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
exchange_count: 40
attack_ratio: 0.5
attack_weights:
  tamper: 2
variant: two-way
principals: [alice, bob, carol]
detect_replay: true
output:
  path: out/records.csv
keyring:
  path: /abs/keyring.enc
`)
	cfg, err := app.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 40, cfg.ExchangeCount)
	assert.Equal(t, map[string]float64{"tamper": 2}, cfg.AttackWeights)
	assert.Equal(t, []string{"alice", "bob", "carol"}, cfg.Principals)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "out", "records.csv"), cfg.Output.Path)
	assert.Equal(t, "/abs/keyring.enc", cfg.Keyring.Path)

	sc := cfg.Session(nil)
	assert.Equal(t, domain.VariantTwoWay, sc.Variant)
	assert.Equal(t, 2.0, sc.AttackWeights[domain.AttackTamper])
	assert.True(t, sc.DetectReplay)
	require.NoError(t, sc.Validate())
}

func TestLoadConfig_EmptyFileKeepsDefaults(t *testing.T) {
	cfg, err := app.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, app.DefaultConfig(), cfg)
}

func TestLoadConfig_RejectsUnknownKeys(t *testing.T) {
	_, err := app.LoadConfig(writeConfig(t, "exchange_cuont: 3\n"))
	assert.Error(t, err)
}

func TestWire_RunsSessionWithKeyring(t *testing.T) {
	dir := t.TempDir()
	cfg := app.DefaultConfig()
	cfg.ExchangeCount = 25
	cfg.Keyring.Path = filepath.Join(dir, "keyring.enc")

	a, err := app.Wire(cfg, io.Discard)
	require.NoError(t, err)

	// Seed the keyring with cheap scrypt parameters so the test stays fast.
	ks := store.NewKeyringFileStore(cfg.Keyring.Path, store.WithScryptParams(1<<10, 8, 1))
	cipher, err := crypto.New(crypto.SuiteAESCBCHMAC, nil)
	require.NoError(t, err)
	stored, err := identity.New(ks, cipher).InitFromSecret("Keyring-Pass-2024!", "lab", []domain.Identity{"alice", "bob"})
	require.NoError(t, err)

	_, err = a.NewSession("wrong-Pass-2024!")
	require.ErrorIs(t, err, store.ErrWrongPassphrase)

	svc, err := a.NewSession("Keyring-Pass-2024!")
	require.NoError(t, err)
	assert.Equal(t, stored, svc.Principals())

	n := 0
	for _, err := range svc.Records(context.Background()) {
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 25, n)

	families, err := a.Metrics.Registry().Gather()
	require.NoError(t, err)
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != "chalresp_exchanges_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 25.0, total)
	assert.Positive(t, testutil.CollectAndCount(a.Metrics.Exchanges()))
}

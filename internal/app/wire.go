package app

import (
	"io"

	"chalresp/internal/crypto"
	"chalresp/internal/logging"
	"chalresp/internal/metrics"
	"chalresp/internal/services/identity"
	"chalresp/internal/store"
)

// DefaultKeyringPath is used by keyring commands when no path is configured.
const DefaultKeyringPath = "keyring.json.enc"

// Wire constructs the dependency graph from cfg. Logs go to logOut.
func Wire(cfg Config, logOut io.Writer) (*App, error) {
	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: logOut})
	if err != nil {
		return nil, err
	}

	cipher, err := crypto.New(crypto.Suite(cfg.CipherSuite), nil)
	if err != nil {
		return nil, err
	}

	keyringPath := cfg.Keyring.Path
	if keyringPath == "" {
		keyringPath = DefaultKeyringPath
	}
	keyring := identity.New(store.NewKeyringFileStore(keyringPath), cipher)

	return &App{
		Config:  cfg,
		Log:     log,
		Keyring: keyring,
		Metrics: metrics.NewCollector(),
	}, nil
}

package app

import (
	"github.com/sirupsen/logrus"

	"chalresp/internal/domain"
	"chalresp/internal/logging"
	"chalresp/internal/metrics"
	"chalresp/internal/services/session"
)

// App holds the long-lived dependencies shared by CLI commands.
type App struct {
	Config  Config
	Log     *logrus.Logger
	Keyring domain.KeyringService
	Metrics *metrics.Collector
}

// NewSession builds a session from the app configuration, pulling fixed
// keys from the keyring when one is configured.
func (a *App) NewSession(passphrase string) (*session.Service, error) {
	var keys map[domain.Identity]domain.Key
	if a.Config.Keyring.Path != "" {
		var err error
		if keys, err = a.Keyring.Keys(passphrase); err != nil {
			return nil, err
		}
	}
	return session.New(a.Config.Session(keys),
		session.WithObserver(a.Metrics),
		session.WithLogger(logging.Component(a.Log, "session")),
	)
}

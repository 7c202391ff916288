package commands

import (
	"os"

	"github.com/spf13/cobra"

	"chalresp/internal/app"
)

var (
	configPath string
	passphrase string
	keyringArg string
	logLevel   string
	logFormat  string

	appCtx *app.App
)

// Execute runs the root command.
func Execute() error {
	return rootCmd().Execute()
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "chalresp",
		Short:        "Challenge-response authentication dataset simulator",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.DefaultConfig()
			if configPath != "" {
				var err error
				if cfg, err = app.LoadConfig(configPath); err != nil {
					return err
				}
			}
			if keyringArg != "" {
				cfg.Keyring.Path = keyringArg
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if logFormat != "" {
				cfg.Log.Format = logFormat
			}
			applyRunFlags(cmd, &cfg)

			a, err := app.Wire(cfg, os.Stderr)
			if err != nil {
				return err
			}
			appCtx = a
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML run configuration")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the keyring")
	root.PersistentFlags().StringVar(&keyringArg, "keyring", "", "encrypted keyring path")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	root.AddCommand(generateCmd(), summaryCmd(), keyringCmd())
	return root
}

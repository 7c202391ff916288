package commands

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"chalresp/internal/domain"
)

var secret string

func keyringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyring",
		Short: "Manage the encrypted principal keyring",
	}
	cmd.AddCommand(keyringInitCmd(), keyringFingerprintCmd())
	return cmd
}

func keyringInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [identity...]",
		Short: "Create keys for principals and store them in the keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return errors.New("passphrase required (--passphrase)")
			}
			names := args
			if len(names) == 0 {
				names = appCtx.Config.Principals
			}
			ids := make([]domain.Identity, 0, len(names))
			for _, n := range names {
				ids = append(ids, domain.Identity(n))
			}

			var (
				principals []domain.Principal
				err        error
			)
			if secret != "" {
				principals, err = appCtx.Keyring.InitFromSecret(passphrase, secret, ids)
			} else {
				principals, err = appCtx.Keyring.Init(passphrase, ids)
			}
			if err != nil {
				return err
			}
			for _, p := range principals {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.ID, p.Fingerprint)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "derive keys from this secret instead of drawing them at random")
	return cmd
}

func keyringFingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print principal fingerprints from the keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			principals, err := appCtx.Keyring.Fingerprints(passphrase)
			if err != nil {
				return err
			}
			for _, p := range principals {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.ID, p.Fingerprint)
			}
			return nil
		},
	}
}

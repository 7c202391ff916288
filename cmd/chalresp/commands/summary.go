package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"chalresp/internal/dataset"
	"chalresp/internal/domain"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Run a simulation and print verdict counts per attack label",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := appCtx.NewSession(passphrase)
			if err != nil {
				return err
			}

			tally := dataset.NewTally()
			for rec, err := range sess.Records(cmd.Context()) {
				if err != nil {
					return err
				}
				tally.Add(rec)
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetAutoFormatHeaders(false)
			table.SetHeader([]string{"label", "authenticated", "rejected", "errored", "total"})
			for _, label := range tally.Labels() {
				auth := tally.Count(label, domain.VerdictAuthenticated)
				rej := tally.Count(label, domain.VerdictRejected)
				errd := tally.Count(label, domain.VerdictErrored)
				table.Append([]string{
					label.String(),
					humanize.Comma(int64(auth)),
					humanize.Comma(int64(rej)),
					humanize.Comma(int64(errd)),
					humanize.Comma(int64(auth + rej + errd)),
				})
			}
			table.Render()

			fmt.Fprintf(cmd.OutOrStdout(), "%s exchanges, %s attacked, %s undetected\n",
				humanize.Comma(int64(tally.Total)),
				humanize.Comma(int64(tally.Attacks)),
				humanize.Comma(int64(tally.Undetected)))
			return nil
		},
	}
	addRunFlags(cmd)
	return cmd
}

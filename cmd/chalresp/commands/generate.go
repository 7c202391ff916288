package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"chalresp/internal/dataset"
)

var (
	outPath    string
	outFormat  string
	metricsOut string
)

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run a simulation and write one labeled record per exchange",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appCtx.Config
			if cmd.Flags().Changed("out") {
				cfg.Output.Path = outPath
			}
			if cmd.Flags().Changed("format") {
				cfg.Output.Format = outFormat
			}
			if cmd.Flags().Changed("metrics-out") {
				cfg.Output.Metrics = metricsOut
			}

			sess, err := appCtx.NewSession(passphrase)
			if err != nil {
				return err
			}

			out, closeOut, err := openOutput(cfg.Output.Path, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closeOut()

			w, err := dataset.NewWriter(dataset.Format(cfg.Output.Format), out)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			tally := dataset.NewTally()
			for rec, err := range sess.Records(ctx) {
				if err != nil {
					return err
				}
				if err := w.Write(rec); err != nil {
					return err
				}
				tally.Add(rec)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if cfg.Output.Metrics != "" {
				if err := appCtx.Metrics.WriteTextfile(cfg.Output.Metrics); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s records (%s attacked, %s undetected)\n",
				humanize.Comma(int64(tally.Total)),
				humanize.Comma(int64(tally.Attacks)),
				humanize.Comma(int64(tally.Undetected)))
			return nil
		},
	}
	addRunFlags(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file, - for stdout")
	cmd.Flags().StringVarP(&outFormat, "format", "f", "", "csv or jsonl")
	cmd.Flags().StringVar(&metricsOut, "metrics-out", "", "write Prometheus text metrics to this file")
	return cmd
}

// openOutput opens path for writing, falling back to def for "" and "-".
func openOutput(path string, def io.Writer) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return def, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, errors.Wrap(err, "create output dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create output")
	}
	return f, func() { _ = f.Close() }, nil
}

package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"chalresp/internal/app"
)

// runFlags are the session overrides shared by generate and summary.
var runFlags struct {
	count      int
	ratio      float64
	variant    string
	seed       uint64
	detect     bool
	workers    int
	principals string
	mode       string
	suite      string
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVarP(&runFlags.count, "count", "n", 0, "number of exchanges")
	f.Float64Var(&runFlags.ratio, "attack-ratio", 0, "fraction of attacked exchanges in [0,1]")
	f.StringVar(&runFlags.variant, "variant", "", "one-way, two-way or mixed")
	f.Uint64Var(&runFlags.seed, "seed", 0, "seed for reproducible runs")
	f.BoolVar(&runFlags.detect, "detect-replay", false, "reject proofs over reused nonces")
	f.IntVar(&runFlags.workers, "workers", 0, "parallel exchange workers")
	f.StringVar(&runFlags.principals, "principals", "", "comma-separated principal identities")
	f.StringVar(&runFlags.mode, "response-mode", "", "encrypt or mac")
	f.StringVar(&runFlags.suite, "cipher-suite", "", "aes-cbc-hmac or chacha20poly1305")
}

// applyRunFlags copies explicitly set run flags over cfg.
func applyRunFlags(cmd *cobra.Command, cfg *app.Config) {
	f := cmd.Flags()
	if f.Lookup("count") == nil {
		return
	}
	if f.Changed("count") {
		cfg.ExchangeCount = runFlags.count
	}
	if f.Changed("attack-ratio") {
		cfg.AttackRatio = runFlags.ratio
	}
	if f.Changed("variant") {
		cfg.Variant = runFlags.variant
	}
	if f.Changed("seed") {
		cfg.Seed = runFlags.seed
	}
	if f.Changed("detect-replay") {
		cfg.DetectReplay = runFlags.detect
	}
	if f.Changed("workers") {
		cfg.Workers = runFlags.workers
	}
	if f.Changed("principals") {
		cfg.Principals = splitList(runFlags.principals)
	}
	if f.Changed("response-mode") {
		cfg.ResponseMode = runFlags.mode
	}
	if f.Changed("cipher-suite") {
		cfg.CipherSuite = runFlags.suite
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

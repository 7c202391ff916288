package dataset

import (
	"strconv"
	"strings"

	"github.com/Velocidex/ordereddict"

	"chalresp/internal/domain"
)

// Columns lists the record fields in output order.
var Columns = []string{
	"exchange_id",
	"sequence",
	"initiator",
	"responder",
	"variant",
	"verdict",
	"reason",
	"attack_label",
	"attack_target",
	"attack_flag",
	"step_count",
	"message_count",
	"timing_deltas",
	"response_latency",
	"challenge_size",
	"response_size",
	"confirm_size",
	"total_bytes",
	"nonce_fresh",
	"nonce_entropy",
	"challenge_nonce",
	"counter_nonce",
	"response_digest",
}

// Fields returns rec as an ordered dict keyed by Columns.
func Fields(rec domain.Record) *ordereddict.Dict {
	return ordereddict.NewDict().
		Set("exchange_id", rec.ExchangeID).
		Set("sequence", rec.Sequence).
		Set("initiator", rec.Initiator.String()).
		Set("responder", rec.Responder.String()).
		Set("variant", rec.Variant.String()).
		Set("verdict", rec.Verdict.String()).
		Set("reason", rec.Reason.String()).
		Set("attack_label", rec.AttackLabel.String()).
		Set("attack_target", rec.AttackTarget.String()).
		Set("attack_flag", rec.AttackFlag).
		Set("step_count", rec.StepCount).
		Set("message_count", rec.MessageCount).
		Set("timing_deltas", rec.TimingDeltas).
		Set("response_latency", rec.ResponseLatency).
		Set("challenge_size", rec.ChallengeSize).
		Set("response_size", rec.ResponseSize).
		Set("confirm_size", rec.ConfirmSize).
		Set("total_bytes", rec.TotalBytes).
		Set("nonce_fresh", rec.NonceFresh).
		Set("nonce_entropy", rec.NonceEntropy).
		Set("challenge_nonce", rec.ChallengeNonce).
		Set("counter_nonce", rec.CounterNonce).
		Set("response_digest", rec.ResponseDigest)
}

// cell renders one field value for CSV.
func cell(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', 6, 64)
	case []uint64:
		parts := make([]string, len(t))
		for i, d := range t {
			parts[i] = strconv.FormatUint(d, 10)
		}
		return strings.Join(parts, ";")
	}
	return ""
}

package types

// Record is the flat, labeled dataset row for one exchange.
//
// Clean and attacked exchanges share this schema. Fields that do not apply
// hold their zero value.
type Record struct {
	ExchangeID      string      `json:"exchange_id"`
	Sequence        int         `json:"sequence"`
	Initiator       Identity    `json:"initiator"`
	Responder       Identity    `json:"responder"`
	Variant         Variant     `json:"variant"`
	Verdict         Verdict     `json:"verdict"`
	Reason          Reason      `json:"reason"`
	AttackLabel     AttackKind  `json:"attack_label"`
	AttackTarget    MessageKind `json:"attack_target"`
	AttackFlag      bool        `json:"attack_flag"`
	StepCount       int         `json:"step_count"`
	MessageCount    int         `json:"message_count"`
	TimingDeltas    []uint64    `json:"timing_deltas"`
	ResponseLatency uint64      `json:"response_latency"`
	ChallengeSize   int         `json:"challenge_size"`
	ResponseSize    int         `json:"response_size"`
	ConfirmSize     int         `json:"confirm_size"`
	TotalBytes      int         `json:"total_bytes"`
	NonceFresh      bool        `json:"nonce_fresh"`
	NonceEntropy    float64     `json:"nonce_entropy"`
	ChallengeNonce  string      `json:"challenge_nonce"`
	CounterNonce    string      `json:"counter_nonce"`
	ResponseDigest  string      `json:"response_digest"`
}

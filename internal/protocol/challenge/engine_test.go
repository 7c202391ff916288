package challenge_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chalresp/internal/crypto"
	"chalresp/internal/domain"
	"chalresp/internal/protocol/challenge"
	"chalresp/internal/store"
)

// newEngine returns an engine over alice, bob and carol with fixed keys.
func newEngine(t *testing.T, opts challenge.Options) *challenge.Engine {
	t.Helper()
	svc, err := crypto.New(crypto.SuiteAESCBCHMAC, nil)
	require.NoError(t, err)
	principals := store.NewPrincipalStore(svc)
	for i, id := range []domain.Identity{"alice", "bob", "carol"} {
		_, err := principals.RegisterWithKey(id, bytes.Repeat([]byte{byte(i + 1)}, domain.KeySize))
		require.NoError(t, err)
	}
	return challenge.New(svc, principals, store.NewNonceStore(), opts)
}

// newPlan returns a clean alice -> bob plan.
func newPlan(variant domain.Variant, seed uint64) challenge.Plan {
	return challenge.Plan{
		ID:        "x",
		Variant:   variant,
		Initiator: "alice",
		Responder: "bob",
		Entropy:   crypto.NewSource(seed),
	}
}

// run executes plan and fails the test on a planning error.
func run(t *testing.T, e *challenge.Engine, plan challenge.Plan) domain.Trace {
	t.Helper()
	tr, err := e.Run(context.Background(), plan)
	require.NoError(t, err)
	return tr
}

// flip returns an interceptor that flips one payload byte of kind.
func flip(kind domain.MessageKind) challenge.Interceptor {
	return func(out *challenge.Outbound) {
		m := out.Message()
		if m.Kind != kind {
			return
		}
		m.Payload[len(m.Payload)/2] ^= 0x40
		out.Replace(m)
	}
}

func TestOneWay_Clean_Authenticated(t *testing.T) {
	for _, mode := range []challenge.ResponseMode{challenge.ModeEncrypt, challenge.ModeMAC} {
		t.Run(string(mode), func(t *testing.T) {
			e := newEngine(t, challenge.Options{Mode: mode})
			tr := run(t, e, newPlan(domain.VariantOneWay, 1))

			assert.Equal(t, domain.VerdictAuthenticated, tr.Verdict)
			assert.Equal(t, domain.ReasonOK, tr.Reason)
			assert.Equal(t, []domain.State{
				domain.StateInit, domain.StateChallenged, domain.StateVerify, domain.StateAuthenticated,
			}, tr.States)
			assert.Equal(t, 3, tr.Steps)
			require.Len(t, tr.Messages, 2)
			assert.Equal(t, domain.KindChallenge, tr.Messages[0].Kind)
			assert.Len(t, tr.Messages[0].Nonce, domain.NonceSize)
			assert.Equal(t, domain.Identity("bob"), tr.Messages[1].From)
			assert.True(t, tr.NonceFresh)
		})
	}
}

func TestTwoWay_Clean_Authenticated(t *testing.T) {
	for _, mode := range []challenge.ResponseMode{challenge.ModeEncrypt, challenge.ModeMAC} {
		t.Run(string(mode), func(t *testing.T) {
			e := newEngine(t, challenge.Options{Mode: mode})
			tr := run(t, e, newPlan(domain.VariantTwoWay, 2))

			assert.Equal(t, domain.VerdictAuthenticated, tr.Verdict)
			assert.Equal(t, []domain.State{
				domain.StateInit, domain.StateChallenged, domain.StateVerify,
				domain.StateCounterChallenged, domain.StateCounterVerify, domain.StateAuthenticated,
			}, tr.States)
			require.Len(t, tr.Messages, 3)
			assert.Len(t, tr.Messages[1].Nonce, domain.NonceSize)
			assert.Equal(t, domain.KindConfirm, tr.Messages[2].Kind)
			assert.Equal(t, []uint64{1, 2, 3}, []uint64{
				tr.Messages[0].DeliveredAt, tr.Messages[1].DeliveredAt, tr.Messages[2].DeliveredAt,
			})
		})
	}
}

func TestTamper_Rejected(t *testing.T) {
	cases := []struct {
		mode    challenge.ResponseMode
		variant domain.Variant
		kind    domain.MessageKind
		reason  domain.Reason
	}{
		{challenge.ModeEncrypt, domain.VariantOneWay, domain.KindResponse, domain.ReasonDecryptFailed},
		{challenge.ModeMAC, domain.VariantOneWay, domain.KindResponse, domain.ReasonVerifyFailed},
		{challenge.ModeEncrypt, domain.VariantTwoWay, domain.KindResponse, domain.ReasonDecryptFailed},
		{challenge.ModeEncrypt, domain.VariantTwoWay, domain.KindConfirm, domain.ReasonDecryptFailed},
	}
	for _, tc := range cases {
		t.Run(string(tc.mode)+"/"+string(tc.variant)+"/"+string(tc.kind), func(t *testing.T) {
			e := newEngine(t, challenge.Options{Mode: tc.mode})
			plan := newPlan(tc.variant, 3)
			plan.Interceptor = flip(tc.kind)

			tr := run(t, e, plan)
			assert.Equal(t, domain.VerdictRejected, tr.Verdict)
			assert.Equal(t, tc.reason, tr.Reason)
		})
	}
}

func TestTamperedChallengeNonce_Mismatch(t *testing.T) {
	e := newEngine(t, challenge.Options{})
	plan := newPlan(domain.VariantOneWay, 4)
	plan.Interceptor = func(out *challenge.Outbound) {
		m := out.Message()
		if m.Kind == domain.KindChallenge {
			m.Nonce[0] ^= 0xFF
			out.Replace(m)
		}
	}
	tr := run(t, e, plan)
	assert.Equal(t, domain.VerdictRejected, tr.Verdict)
	assert.Equal(t, domain.ReasonNonceMismatch, tr.Reason)
}

func TestTwoWay_EitherDirectionWrongKey_Rejected(t *testing.T) {
	for _, dir := range []challenge.Direction{challenge.Forward, challenge.Reverse} {
		t.Run(dir.String(), func(t *testing.T) {
			e := newEngine(t, challenge.Options{})
			plan := newPlan(domain.VariantTwoWay, 5)
			plan.Signer = map[challenge.Direction]domain.Identity{dir: "carol"}

			tr := run(t, e, plan)
			assert.Equal(t, domain.VerdictRejected, tr.Verdict)
			assert.Equal(t, domain.ReasonDecryptFailed, tr.Reason)
			if dir == challenge.Reverse {
				assert.Contains(t, tr.States, domain.StateCounterVerify)
				assert.Len(t, tr.Messages, 3)
			} else {
				assert.NotContains(t, tr.States, domain.StateCounterChallenged)
				assert.Len(t, tr.Messages, 2)
			}
		})
	}
}

func TestTimeout_Rejected(t *testing.T) {
	t.Run("late response", func(t *testing.T) {
		e := newEngine(t, challenge.Options{ResponseWindow: 4})
		plan := newPlan(domain.VariantOneWay, 6)
		plan.Delay = map[domain.MessageKind]uint64{domain.KindResponse: 5}

		tr := run(t, e, plan)
		assert.Equal(t, domain.VerdictRejected, tr.Verdict)
		assert.Equal(t, domain.ReasonTimeout, tr.Reason)
	})
	t.Run("late confirm", func(t *testing.T) {
		e := newEngine(t, challenge.Options{ResponseWindow: 4})
		plan := newPlan(domain.VariantTwoWay, 6)
		plan.Delay = map[domain.MessageKind]uint64{domain.KindConfirm: 5}

		tr := run(t, e, plan)
		assert.Equal(t, domain.ReasonTimeout, tr.Reason)
		assert.Len(t, tr.Messages, 3)
	})
	t.Run("step budget", func(t *testing.T) {
		e := newEngine(t, challenge.Options{MaxSteps: 2})
		tr := run(t, e, newPlan(domain.VariantTwoWay, 6))
		assert.Equal(t, domain.VerdictRejected, tr.Verdict)
		assert.Equal(t, domain.ReasonTimeout, tr.Reason)
	})
	t.Run("delay within window", func(t *testing.T) {
		e := newEngine(t, challenge.Options{ResponseWindow: 4})
		plan := newPlan(domain.VariantOneWay, 6)
		plan.Delay = map[domain.MessageKind]uint64{domain.KindResponse: 2}
		assert.Equal(t, domain.VerdictAuthenticated, run(t, e, plan).Verdict)
	})
}

func TestUnknownPrincipal_Errored(t *testing.T) {
	e := newEngine(t, challenge.Options{})

	plan := newPlan(domain.VariantOneWay, 7)
	plan.Responder = "mallory"
	tr := run(t, e, plan)
	assert.Equal(t, domain.VerdictErrored, tr.Verdict)
	assert.Equal(t, domain.ReasonUnknownPrincipal, tr.Reason)
	assert.Empty(t, tr.Messages)

	plan = newPlan(domain.VariantOneWay, 7)
	plan.Interceptor = func(out *challenge.Outbound) {
		m := out.Message()
		if m.Kind == domain.KindResponse {
			m.From = "mallory"
			out.Replace(m)
		}
	}
	tr = run(t, e, plan)
	assert.Equal(t, domain.VerdictErrored, tr.Verdict)
	assert.Equal(t, domain.ReasonUnknownPrincipal, tr.Reason)
}

func TestProtocolViolation_Errored(t *testing.T) {
	e := newEngine(t, challenge.Options{})
	plan := newPlan(domain.VariantOneWay, 8)
	plan.Interceptor = func(out *challenge.Outbound) {
		m := out.Message()
		if m.Kind == domain.KindResponse {
			m.From = "carol"
			out.Replace(m)
		}
	}
	tr := run(t, e, plan)
	assert.Equal(t, domain.VerdictErrored, tr.Verdict)
	assert.Equal(t, domain.ReasonProtocolViolation, tr.Reason)
}

func TestMalformedNonce_Rejected(t *testing.T) {
	e := newEngine(t, challenge.Options{})
	plan := newPlan(domain.VariantOneWay, 9)
	plan.Interceptor = func(out *challenge.Outbound) {
		m := out.Message()
		if m.Kind == domain.KindChallenge {
			m.Nonce = m.Nonce[:3]
			out.Replace(m)
		}
	}
	tr := run(t, e, plan)
	assert.Equal(t, domain.VerdictRejected, tr.Verdict)
	assert.Equal(t, domain.ReasonMalformedNonce, tr.Reason)
}

// replayPlan eavesdrops a clean run, reuses its nonces and replays the
// captured response.
func replayPlan(variant domain.Variant, seed uint64) challenge.Plan {
	plan := newPlan(variant, seed)
	plan.Eavesdrop = true
	plan.ReuseChallenge = true
	plan.ReuseCounter = true
	plan.Interceptor = func(out *challenge.Outbound) {
		m := out.Message()
		if prior, ok := out.Prior(m.Kind); ok && m.Kind == domain.KindResponse {
			m.Nonce, m.Payload = prior.Nonce, prior.Payload
			out.Replace(m)
		}
	}
	return plan
}

func TestReplay_DetectionToggle(t *testing.T) {
	for _, variant := range []domain.Variant{domain.VariantOneWay, domain.VariantTwoWay} {
		t.Run(string(variant), func(t *testing.T) {
			off := run(t, newEngine(t, challenge.Options{}), replayPlan(variant, 10))
			assert.Equal(t, domain.VerdictAuthenticated, off.Verdict)
			assert.False(t, off.NonceFresh)

			on := run(t, newEngine(t, challenge.Options{DetectReplay: true}), replayPlan(variant, 10))
			assert.Equal(t, domain.VerdictRejected, on.Verdict)
			assert.Equal(t, domain.ReasonNonceReused, on.Reason)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	a := run(t, newEngine(t, challenge.Options{}), newPlan(domain.VariantTwoWay, 11))
	b := run(t, newEngine(t, challenge.Options{}), newPlan(domain.VariantTwoWay, 11))
	assert.Equal(t, a, b)

	c := run(t, newEngine(t, challenge.Options{}), newPlan(domain.VariantTwoWay, 12))
	assert.NotEqual(t, a.Messages[0].Nonce, c.Messages[0].Nonce)
}

func TestCancel_Errored(t *testing.T) {
	e := newEngine(t, challenge.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr, err := e.Run(ctx, newPlan(domain.VariantOneWay, 13))
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictErrored, tr.Verdict)
	assert.Equal(t, domain.ReasonCanceled, tr.Reason)

	x, err := e.Start(newPlan(domain.VariantOneWay, 13))
	require.NoError(t, err)
	for range x.Outbound(context.Background()) {
		break
	}
	assert.Equal(t, domain.StateErrored, x.State())
	assert.Equal(t, domain.ReasonCanceled, x.Trace().Reason)
}

func TestStart_InvalidPlan(t *testing.T) {
	e := newEngine(t, challenge.Options{})

	plan := newPlan(domain.VariantMixed, 1)
	_, err := e.Start(plan)
	assert.ErrorIs(t, err, challenge.ErrInvalidPlan)

	plan = newPlan(domain.VariantOneWay, 1)
	plan.Responder = plan.Initiator
	_, err = e.Start(plan)
	assert.ErrorIs(t, err, challenge.ErrInvalidPlan)

	plan = newPlan(domain.VariantOneWay, 1)
	plan.Entropy = nil
	_, err = e.Start(plan)
	assert.ErrorIs(t, err, challenge.ErrInvalidPlan)
}

func TestReplacedMessageIsLogged(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)
	e := newEngine(t, challenge.Options{Logger: logrus.NewEntry(logger)})

	plan := newPlan(domain.VariantOneWay, 4)
	plan.Interceptor = flip(domain.KindResponse)
	tr := run(t, e, plan)
	require.Equal(t, domain.VerdictRejected, tr.Verdict)

	var replaced []*logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Message == "message replaced in transit" {
			replaced = append(replaced, entry)
		}
	}
	require.Len(t, replaced, 1)
	assert.Equal(t, domain.KindResponse, replaced[0].Data["kind"])
}

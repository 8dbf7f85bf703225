package command

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/trustpay/internal/fields"
	"github.com/rbright/trustpay/internal/speech"
)

func TestDispatcherRoute(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(newTestClassifier(), 0.6)
	cases := []struct {
		name    string
		rec     speech.Recognition
		verdict Verdict
		kind    Kind
	}{
		{name: "interim", rec: speech.Recognition{Transcript: "sim", Confidence: 1}, verdict: DroppedInterim},
		{name: "empty", rec: speech.Recognition{Transcript: "  ", Confidence: 1, Final: true}, verdict: DroppedEmpty},
		{name: "confident content", rec: speech.Recognition{Transcript: "João da Silva", Confidence: 0.9, Final: true}, verdict: Accepted, kind: KindContent},
		{name: "threshold is inclusive", rec: speech.Recognition{Transcript: "sim", Confidence: 0.6, Final: true}, verdict: Accepted, kind: KindYes},
		{name: "low confidence yes", rec: speech.Recognition{Transcript: "sim", Confidence: 0.3, Final: true}, verdict: DroppedLowConfidence, kind: KindYes},
		{name: "low confidence back", rec: speech.Recognition{Transcript: "voltar", Confidence: 0.3, Final: true}, verdict: DroppedLowConfidence, kind: KindBack},
		{name: "low confidence help bypass", rec: speech.Recognition{Transcript: "ajuda", Confidence: 0.1, Final: true}, verdict: Accepted, kind: KindHelp},
		{name: "low confidence exit bypass", rec: speech.Recognition{Transcript: "exit", Confidence: 0.1, Final: true}, verdict: Accepted, kind: KindFinish},
		{name: "low confidence cancel bypass", rec: speech.Recognition{Transcript: "cancel", Confidence: 0.2, Final: true}, verdict: Accepted, kind: KindRestart},
		{name: "low confidence new purchase bypass", rec: speech.Recognition{Transcript: "nova compra", Confidence: 0.2, Final: true}, verdict: Accepted, kind: KindRestart},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, verdict := d.Route(tc.rec)
			require.Equal(t, tc.verdict, verdict, verdict.String())
			if tc.verdict == Accepted || tc.verdict == DroppedLowConfidence {
				require.Equal(t, tc.kind, cmd.Kind)
			}
		})
	}
}

func TestVerdictString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "accepted", Accepted.String())
	require.Equal(t, "dropped_low_confidence", DroppedLowConfidence.String())
	require.Equal(t, "unknown", Verdict(42).String())
}

func TestAliasMatcherFuzzy(t *testing.T) {
	t.Parallel()

	m := NewAliasMatcher(fields.NewCatalog(fields.Options{}))
	cases := []struct {
		in   string
		want fields.ID
		ok   bool
	}{
		{in: "emeil", want: fields.Email, ok: true},
		{in: "validad", want: fields.Expiry, ok: true},
		{in: "titulares", want: fields.CardHolder, ok: true},
		{in: "", ok: false},
		{in: "xyz", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := m.Match(tc.in)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestAliasMatcherThresholdOptions(t *testing.T) {
	t.Parallel()

	strict := NewAliasMatcher(fields.NewCatalog(fields.Options{}),
		WithPhoneticThreshold(1.01),
		WithFuzzyThreshold(1.01),
	)
	_, ok := strict.Match("emeil")
	require.False(t, ok)
}

func TestClassifierFallsBackToFuzzyTarget(t *testing.T) {
	t.Parallel()

	got := newTestClassifier().Classify("corrigir emeil")
	require.Equal(t, KindCorrect, got.Kind)
	require.Equal(t, fields.Email, got.Target)
}

package speech

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleScript = `
name: happy path
payment_delay_ms: 5
steps:
  - say: "João da Silva"
  - say: "sim"
    confidence: 0.4
  - say: "parcial"
    interim: true
  - pause_ms: 1
  - error: transient
  - say: "ajuda"
    barge_in: true
expect:
  mode: success
  fields:
    name: "João Da Silva"
`

func TestParseScript(t *testing.T) {
	t.Parallel()

	script, err := ParseScript([]byte(sampleScript))
	require.NoError(t, err)
	require.Equal(t, "happy path", script.Name)
	require.NotNil(t, script.PaymentDelayMS)
	require.Equal(t, 5, *script.PaymentDelayMS)
	require.Len(t, script.Steps, 6)
	require.Equal(t, "success", script.Expect.Mode)
	require.Equal(t, "João Da Silva", script.Expect.Fields["name"])
}

func TestParseScriptValidation(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty":          "name: x\n",
		"two actions":    "steps:\n  - say: oi\n    pause_ms: 3\n",
		"no action":      "steps:\n  - confidence: 0.5\n",
		"unknown error":  "steps:\n  - error: fatal\n",
		"bad confidence": "steps:\n  - say: oi\n    confidence: 1.5\n",
		"bad yaml":       "steps: [\n",
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScript([]byte(body))
			require.Error(t, err)
		})
	}
}

func TestLoadScript(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleScript), 0o600))

	script, err := LoadScript(path)
	require.NoError(t, err)
	require.Len(t, script.Steps, 6)

	_, err = LoadScript(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestScriptRecognizerReplaysSteps(t *testing.T) {
	t.Parallel()

	script, err := ParseScript([]byte(sampleScript))
	require.NoError(t, err)

	var gated atomic.Int32
	rec := NewScriptRecognizer(script)
	rec.Gate = func(context.Context) error {
		gated.Add(1)
		return nil
	}

	ctx := context.Background()
	out := make(chan Recognition, 8)

	require.NoError(t, rec.Listen(ctx, out))
	require.NoError(t, rec.Listen(ctx, out))
	require.NoError(t, rec.Listen(ctx, out))
	require.NoError(t, rec.Listen(ctx, out))
	require.ErrorIs(t, rec.Listen(ctx, out), ErrTransient)
	require.NoError(t, rec.Listen(ctx, out))
	require.ErrorIs(t, rec.Listen(ctx, out), io.EOF)
	require.Zero(t, rec.Remaining())

	first := <-out
	require.Equal(t, Recognition{Transcript: "João da Silva", Confidence: 1, Final: true}, first)
	second := <-out
	require.InDelta(t, 0.4, second.Confidence, 1e-9)
	third := <-out
	require.False(t, third.Final)
	fourth := <-out
	require.Equal(t, "ajuda", fourth.Transcript)

	require.Equal(t, int32(3), gated.Load(), "barge-in steps skip the gate")
}

func TestScriptRecognizerUnavailable(t *testing.T) {
	t.Parallel()

	rec := NewScriptRecognizer(Script{Steps: []Step{{Error: "unavailable"}}})
	err := rec.Listen(context.Background(), make(chan Recognition, 1))
	require.ErrorIs(t, err, ErrUnavailable)
}

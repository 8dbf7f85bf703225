package speech

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want Recognition
		ok   bool
	}{
		{in: "sim", want: Recognition{Transcript: "sim", Confidence: 1, Final: true}, ok: true},
		{in: "  [0.42] ajuda ", want: Recognition{Transcript: "ajuda", Confidence: 0.42, Final: true}, ok: true},
		{in: "[abc] texto", want: Recognition{Transcript: "[abc] texto", Confidence: 1, Final: true}, ok: true},
		{in: "   ", ok: false},
		{in: "[0.5]", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseLine(tc.in)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				require.Equal(t, tc.want, got)
			}
		})
	}
}

func TestLineRecognizerEmitsOneLinePerSegment(t *testing.T) {
	t.Parallel()

	rec := NewLineRecognizer(strings.NewReader("primeira\n\n[0.3] segunda\n"))
	out := make(chan Recognition, 4)

	require.NoError(t, rec.Listen(context.Background(), out))
	require.NoError(t, rec.Listen(context.Background(), out))
	require.ErrorIs(t, rec.Listen(context.Background(), out), io.EOF)

	require.Equal(t, "primeira", (<-out).Transcript)
	second := <-out
	require.Equal(t, "segunda", second.Transcript)
	require.InDelta(t, 0.3, second.Confidence, 1e-9)
}

func TestLineRecognizerHonorsContextCancel(t *testing.T) {
	t.Parallel()

	reader, writer := io.Pipe()
	t.Cleanup(func() { _ = writer.Close() })

	rec := NewLineRecognizer(reader)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rec.Listen(ctx, make(chan Recognition, 1))
	require.ErrorIs(t, err, context.Canceled)
}

func TestWriterSynthesizerInterrupt(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	synth := &WriterSynthesizer{Writer: &buf, Prefix: "> ", PerWord: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- synth.Speak(ctx, "uma frase bem longa") }()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("speak did not return after cancel")
	}
}

func TestWriterSynthesizerWritesPrefixedLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	synth := &WriterSynthesizer{Writer: &buf, Prefix: "> "}
	require.NoError(t, synth.Speak(context.Background(), "olá"))
	require.Equal(t, "> olá\n", buf.String())
}

func TestChainStopsAtFirstError(t *testing.T) {
	t.Parallel()

	var calls []string
	boom := errors.New("boom")
	chain := Chain(
		SynthesizerFunc(func(_ context.Context, text string) error {
			calls = append(calls, "a:"+text)
			return nil
		}),
		nil,
		SynthesizerFunc(func(context.Context, string) error { return boom }),
		SynthesizerFunc(func(_ context.Context, text string) error {
			calls = append(calls, "c:"+text)
			return nil
		}),
	)

	require.ErrorIs(t, chain.Speak(context.Background(), "oi"), boom)
	require.Equal(t, []string{"a:oi"}, calls)
}

func TestCommandSynthesizerWritesTextToStdin(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "spoken.txt")
	script := filepath.Join(dir, "tts.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/usr/bin/env bash\nset -euo pipefail\ncat > \"$1\"\n"), 0o755))

	synth, err := NewCommandSynthesizer([]string{script, outPath})
	require.NoError(t, err)
	require.NoError(t, synth.Speak(context.Background(), "Diga seu nome completo."))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, "Diga seu nome completo.", string(data))
}

func TestCommandSynthesizerCancelKillsProcess(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "slow.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/usr/bin/env bash\ncat >/dev/null\nsleep 5\n"), 0o755))

	synth, err := NewCommandSynthesizer([]string{script})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = synth.Speak(ctx, "texto")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 4*time.Second)
}

func TestNewCommandSynthesizerRejectsEmptyArgv(t *testing.T) {
	t.Parallel()

	_, err := NewCommandSynthesizer(nil)
	require.Error(t, err)
	_, err = NewCommandSynthesizer([]string{" "})
	require.Error(t, err)
}

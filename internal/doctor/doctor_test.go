package doctor

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/rbright/trustpay/internal/audio"
	"github.com/rbright/trustpay/internal/config"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	require.Equal(t, "[OK] one: good\n[FAIL] two: bad", report.String())
	require.True(t, Report{}.OK())
}

func TestCheckConfig(t *testing.T) {
	missing := checkConfig(config.Loaded{Path: "/tmp/none.jsonc"})
	require.True(t, missing.Pass)
	require.Contains(t, missing.Message, "using defaults")

	loaded := checkConfig(config.Loaded{Path: "/tmp/c.jsonc", Exists: true, Warnings: []config.Warning{{Message: "w"}}})
	require.Equal(t, `loaded "/tmp/c.jsonc" with 1 warning(s)`, loaded.Message)
}

func TestCheckNarration(t *testing.T) {
	echo := checkNarration(config.SpeechConfig{ConsoleEcho: true})
	require.True(t, echo.Pass)

	silent := checkNarration(config.SpeechConfig{})
	require.False(t, silent.Pass)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fake-tts"), []byte("#!/usr/bin/env bash\nexit 0\n"), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	tts := checkNarration(config.SpeechConfig{TTS: config.CommandConfig{Raw: "fake-tts -v pt", Argv: []string{"fake-tts", "-v", "pt"}}})
	require.True(t, tts.Pass)
	require.Contains(t, tts.Message, "speech.tts_cmd command is available")
}

func TestCheckBinary(t *testing.T) {
	require.True(t, checkBinary("sh", "shell available").Pass)

	missing := checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, missing.Pass)
	require.Contains(t, missing.Message, "binary not found")

	require.False(t, checkCommand(nil, "speech.tts_cmd").Pass)
}

func stubSelectSink(t *testing.T, fn func(context.Context, string) (audio.Selection, error)) {
	t.Helper()
	original := selectSink
	selectSink = fn
	t.Cleanup(func() { selectSink = original })
}

func TestCheckAudioSelection(t *testing.T) {
	stubSelectSink(t, func(_ context.Context, output string) (audio.Selection, error) {
		require.Equal(t, "headset", output)
		return audio.Selection{Device: audio.Device{ID: "alsa_output.pci"}, Warning: "output sink \"headset\" is muted"}, nil
	})
	check := checkAudioSelection(context.Background(), "headset")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, `cues play on "alsa_output.pci"`)
	require.Contains(t, check.Message, "muted")

	stubSelectSink(t, func(context.Context, string) (audio.Selection, error) {
		return audio.Selection{}, errors.New("connect pulse server: refused")
	})
	require.False(t, checkAudioSelection(context.Background(), "default").Pass)
}

func startHealthServer(t *testing.T, status healthpb.HealthCheckResponse_ServingStatus) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus("", status)
	healthpb.RegisterHealthServer(srv, hs)
	go func() { _ = srv.Serve(listener) }()
	t.Cleanup(srv.Stop)
	return listener.Addr().String()
}

func TestCheckRecognizerHealth(t *testing.T) {
	ctx := context.Background()

	skipped := checkRecognizerHealth(ctx, config.RecognizerConfig{HealthTimeoutMS: 500})
	require.True(t, skipped.Pass)
	require.Contains(t, skipped.Message, "skipped")

	serving := startHealthServer(t, healthpb.HealthCheckResponse_SERVING)
	ok := checkRecognizerHealth(ctx, config.RecognizerConfig{HealthEndpoint: serving, HealthTimeoutMS: 2000})
	require.True(t, ok.Pass, ok.Message)

	notServing := startHealthServer(t, healthpb.HealthCheckResponse_NOT_SERVING)
	down := checkRecognizerHealth(ctx, config.RecognizerConfig{HealthEndpoint: notServing, HealthTimeoutMS: 2000})
	require.False(t, down.Pass)
	require.Contains(t, down.Message, "NOT_SERVING")
}

func TestCheckRecognizerHealthUnreachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	check := checkRecognizerHealth(context.Background(), config.RecognizerConfig{HealthEndpoint: addr, HealthTimeoutMS: 300})
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "health check")
}

func TestCheckListen(t *testing.T) {
	require.True(t, checkListen(context.Background(), "127.0.0.1:0").Pass)

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = busy.Close() })
	require.False(t, checkListen(context.Background(), busy.Addr().String()).Pass)
}

func TestRunSkipsDisabledChecks(t *testing.T) {
	loaded := config.Loaded{Path: "/tmp/c.jsonc", Config: config.Default()}
	loaded.Config.Indicator.SoundEnable = false

	report := Run(context.Background(), loaded)
	names := make([]string, 0, len(report.Checks))
	for _, c := range report.Checks {
		names = append(names, c.Name)
	}
	require.Equal(t, []string{"config", "speech", "recognizer.health"}, names)
	require.True(t, report.OK())
}

// Package doctor runs readiness diagnostics for config, narration tools,
// audio cues, the recognizer endpoint, and metrics.
package doctor

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/trustpay/internal/audio"
	"github.com/rbright/trustpay/internal/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", status, check.Name, check.Message)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// selectSink is swapped in tests so they do not need a Pulse server.
var selectSink = audio.SelectDevice

// Run executes every check for a loaded config.
func Run(ctx context.Context, loaded config.Loaded) Report {
	cfg := loaded.Config
	checks := []Check{checkConfig(loaded), checkNarration(cfg.Speech)}

	if cfg.Indicator.Enable && strings.EqualFold(cfg.Indicator.Backend, "desktop") {
		checks = append(checks, checkBinary("busctl", "desktop notifications available"))
	}
	if cfg.Indicator.SoundEnable {
		checks = append(checks, checkAudioSelection(ctx, cfg.Indicator.SoundOutput))
	}
	checks = append(checks, checkRecognizerHealth(ctx, cfg.Recognizer))
	if cfg.Metrics.Enable {
		checks = append(checks, checkListen(ctx, cfg.Metrics.Listen))
	}
	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	if !loaded.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("%q not found; using defaults", loaded.Path)}
	}
	message := fmt.Sprintf("loaded %q", loaded.Path)
	if n := len(loaded.Warnings); n > 0 {
		message += fmt.Sprintf(" with %d warning(s)", n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

func checkNarration(cfg config.SpeechConfig) Check {
	if len(cfg.TTS.Argv) > 0 {
		return checkCommand(cfg.TTS.Argv, "speech.tts_cmd")
	}
	if cfg.ConsoleEcho {
		return Check{Name: "speech", Pass: true, Message: "no tts_cmd; prompts are echoed to the console"}
	}
	return Check{Name: "speech", Pass: false, Message: "no tts_cmd and console_echo=false; prompts are silent"}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live sink selection to surface fallback issues.
func checkAudioSelection(ctx context.Context, output string) Check {
	selection, err := selectSink(ctx, output)
	if err != nil {
		return Check{Name: "indicator.sound_output", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("cues play on %q", selection.Device.ID)
	if selection.Warning != "" {
		message += " (" + selection.Warning + ")"
	}
	return Check{Name: "indicator.sound_output", Pass: true, Message: message}
}

// checkRecognizerHealth asks the recognizer endpoint for its gRPC health
// status.
func checkRecognizerHealth(ctx context.Context, cfg config.RecognizerConfig) Check {
	const name = "recognizer.health"
	endpoint := strings.TrimSpace(cfg.HealthEndpoint)
	if endpoint == "" {
		return Check{Name: name, Pass: true, Message: "no health_endpoint configured; skipped"}
	}

	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("dial %s: %v", endpoint, err)}
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.HealthTimeoutMS)*time.Millisecond)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("health check %s: %v", endpoint, err)}
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("%s reports %s", endpoint, resp.GetStatus())}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("serving at %s", endpoint)}
}

// checkListen verifies the metrics address can be bound.
func checkListen(ctx context.Context, addr string) Check {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return Check{Name: "metrics.listen", Pass: false, Message: err.Error()}
	}
	_ = listener.Close()
	return Check{Name: "metrics.listen", Pass: true, Message: fmt.Sprintf("%s is free", addr)}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rbright/trustpay/internal/command"
	"github.com/rbright/trustpay/internal/config"
	"github.com/rbright/trustpay/internal/fields"
	"github.com/rbright/trustpay/internal/fsm"
	"github.com/rbright/trustpay/internal/indicator"
	"github.com/rbright/trustpay/internal/ipc"
	"github.com/rbright/trustpay/internal/observe"
	"github.com/rbright/trustpay/internal/payment"
	"github.com/rbright/trustpay/internal/session"
	"github.com/rbright/trustpay/internal/speech"
	"github.com/rbright/trustpay/internal/version"
)

var _ session.Presenter = (*indicator.Presenter)(nil)

// input is where a session hears utterances from.
type input struct {
	recognizer speech.Recognizer
	script     *speech.Script
}

func liveSource(r io.Reader) input {
	return input{recognizer: speech.NewLineRecognizer(r)}
}

func (r Runner) commandReplay(ctx context.Context, cfg config.Config, logger *slog.Logger, path string) int {
	script, err := speech.LoadScript(path)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if script.PaymentDelayMS != nil {
		cfg.Payment.DelayMS = *script.PaymentDelayMS
	}
	logger.Info("replay loaded", "script", script.Name, "steps", len(script.Steps))
	return r.runSession(ctx, cfg, logger, input{
		recognizer: speech.NewScriptRecognizer(script),
		script:     &script,
	})
}

func (r Runner) runSession(ctx context.Context, cfg config.Config, logger *slog.Logger, in input) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: a trustpay session is already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = listener.Close() }()

	synth, err := r.narration(cfg.Speech)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	presenter := indicator.New(cfg.Indicator, cfg.Dialogue.Locale, r.Stdout, logger)
	defer presenter.Close(context.WithoutCancel(ctx))

	catalog := fields.NewCatalog(fields.Options{RequireLuhn: cfg.Validation.Luhn})
	simulator := payment.NewSimulator(catalog,
		payment.WithDelay(time.Duration(cfg.Payment.DelayMS)*time.Millisecond),
		payment.WithAmount(cfg.Payment.AmountCents, cfg.Payment.Currency),
		payment.WithDeclinedSuffix(cfg.Payment.DeclineSuffix),
	)

	deps := session.Deps{
		Recognizer:  in.recognizer,
		Synthesizer: synth,
		Presenter:   presenter,
		Payment:     simulator,
	}

	var (
		provider *observe.Provider
		server   *observe.Server
	)
	if cfg.Metrics.Enable {
		provider, err = observe.InitProvider(ctx, observe.ProviderConfig{
			ServiceName:    "trustpay",
			ServiceVersion: version.Version,
		})
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		defer func() { _ = provider.Shutdown(context.WithoutCancel(ctx)) }()

		metrics, err := observe.NewMetrics(provider.MeterProvider)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		metrics.SessionStarted(ctx)
		deps.Observer = metrics
		server = observe.NewServer(cfg.Metrics.Listen, provider.Registry, logger)
	}

	controller := session.NewController(
		logger,
		fsm.NewMachine(catalog),
		command.NewDispatcher(command.NewClassifier(catalog), cfg.Recognizer.ConfidenceThreshold),
		deps,
		session.Options{
			MaxRestarts:     cfg.Recognizer.MaxRestarts,
			SilenceReprompt: time.Duration(cfg.Dialogue.SilenceRepromptMS) * time.Millisecond,
			EventLog:        cfg.Debug.EventLog,
		},
	)
	if replay, ok := in.recognizer.(*speech.ScriptRecognizer); ok {
		replay.Gate = controller.WaitIdle
	}

	result := runServices(ctx, logger, controller, listener, server)
	return r.report(ctx, presenter, result, in.script)
}

// runServices runs the controller alongside its IPC and metrics servers and
// stops both once the dialogue is over.
func runServices(
	ctx context.Context,
	logger *slog.Logger,
	controller *session.Controller,
	listener net.Listener,
	server *observe.Server,
) session.Result {
	serveCtx, stopServe := context.WithCancel(ctx)
	defer stopServe()

	group, groupCtx := errgroup.WithContext(serveCtx)
	group.Go(func() error {
		return ipc.Serve(groupCtx, listener, controller)
	})
	if server != nil {
		group.Go(func() error {
			return server.Serve(groupCtx, nil)
		})
	}

	result := controller.Run(ctx)
	stopServe()
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("background service failed", "error", err)
	}
	return result
}

func (r Runner) narration(cfg config.SpeechConfig) (speech.Synthesizer, error) {
	var synths []speech.Synthesizer
	if cfg.ConsoleEcho {
		synths = append(synths, &speech.WriterSynthesizer{Writer: r.Stdout, Prefix: "> "})
	}
	if len(cfg.TTS.Argv) > 0 {
		tts, err := speech.NewCommandSynthesizer(cfg.TTS.Argv)
		if err != nil {
			return nil, err
		}
		synths = append(synths, tts)
	}
	return speech.Chain(synths...), nil
}

func (r Runner) report(ctx context.Context, presenter *indicator.Presenter, result session.Result, script *speech.Script) int {
	if result.Err != nil {
		if errors.Is(result.Err, context.Canceled) {
			fmt.Fprintln(r.Stdout, "cancelled")
			return 0
		}
		presenter.ShowError(context.WithoutCancel(ctx), result.Err.Error())
		fmt.Fprintf(r.Stderr, "error: %v\n", result.Err)
		return 1
	}

	if id := result.TransactionID(); id != "" {
		fmt.Fprintf(r.Stdout, "transaction %s\n", id)
	}
	if result.Stopped {
		fmt.Fprintln(r.Stdout, "stopped")
	}

	if script == nil {
		return 0
	}
	if err := checkExpectation(script.Expect, result.State); err != nil {
		fmt.Fprintf(r.Stderr, "replay %q: %v\n", script.Name, err)
		return 1
	}
	return 0
}

// checkExpectation compares the final dialogue state against a replay's
// expected mode and field values.
func checkExpectation(expect speech.Expectation, state fsm.State) error {
	var problems []string
	if expect.Mode != "" && expect.Mode != string(state.Mode) {
		problems = append(problems, fmt.Sprintf("mode %q, want %q", state.Mode, expect.Mode))
	}

	keys := make([]string, 0, len(expect.Fields))
	for k := range expect.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		want := expect.Fields[k]
		got := state.Collected[fields.ID(k)]
		if got != want {
			problems = append(problems, fmt.Sprintf("field %s = %q, want %q", k, got, want))
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

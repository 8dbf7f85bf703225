// Package session drives one checkout dialogue: it owns the dialogue state,
// feeds recognizer, narration and payment events to the state machine, and
// performs the effects the machine returns.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rbright/trustpay/internal/command"
	"github.com/rbright/trustpay/internal/fields"
	"github.com/rbright/trustpay/internal/fsm"
	"github.com/rbright/trustpay/internal/ipc"
	"github.com/rbright/trustpay/internal/payment"
	"github.com/rbright/trustpay/internal/speech"
)

var (
	// ErrRecognizerExhausted means the recognizer kept failing past the
	// restart budget.
	ErrRecognizerExhausted = errors.New("speech recognizer restart budget exhausted")
	// ErrAlreadyStarted is returned when Run is called twice.
	ErrAlreadyStarted = errors.New("session already started")
)

type action int

const (
	actionStop action = iota + 1
)

const (
	defaultRestartBackoff = 250 * time.Millisecond
	defaultDrainTimeout   = 30 * time.Second
	idlePollInterval      = 20 * time.Millisecond
)

// Result is the complete lifecycle output returned by one Run invocation.
type Result struct {
	SessionID string
	State     fsm.State
	Err       error
	// Stopped is set when the session was stopped over IPC.
	Stopped bool
	// InputClosed is set when the recognizer ran out of input.
	InputClosed bool
	// Events counts handled dialogue events by name.
	Events map[string]int
	// Dropped counts recognitions the dispatcher discarded, by verdict.
	Dropped map[string]int
	// Receipt is the last approved payment. It survives a later new
	// purchase or finish.
	Receipt    *payment.Receipt
	StartedAt  time.Time
	FinishedAt time.Time
}

// TransactionID returns the approved transaction, if any.
func (r Result) TransactionID() string {
	if r.Receipt == nil {
		return ""
	}
	return r.Receipt.TransactionID
}

// Presenter is the visual and accessibility surface of a session.
type Presenter interface {
	ShowField(id fields.ID, label, value string)
	ClearField(id fields.ID, label string)
	Status(text string)
	Announce(text string)
	// Cue plays a short tone without blocking the caller.
	Cue(ctx context.Context, cue fsm.Cue)
}

type noopPresenter struct{}

func (noopPresenter) ShowField(fields.ID, string, string) {}
func (noopPresenter) ClearField(fields.ID, string)        {}
func (noopPresenter) Status(string)                       {}
func (noopPresenter) Announce(string)                     {}
func (noopPresenter) Cue(context.Context, fsm.Cue)        {}

// PaymentProcessor submits a completed order.
type PaymentProcessor interface {
	Process(ctx context.Context, order payment.Order) (payment.Receipt, error)
}

// ProcessFunc adapts a function to the PaymentProcessor interface.
type ProcessFunc func(context.Context, payment.Order) (payment.Receipt, error)

func (f ProcessFunc) Process(ctx context.Context, order payment.Order) (payment.Receipt, error) {
	return f(ctx, order)
}

// Observer receives session measurements.
type Observer interface {
	RecordUtterance(ctx context.Context, verdict, kind string)
	RecordTransition(ctx context.Context, from, to string)
	RecordPayment(ctx context.Context, outcome string, elapsed time.Duration)
	RecordRecognizerRestart(ctx context.Context, reason string)
	RecordSession(ctx context.Context, outcome string, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) RecordUtterance(context.Context, string, string)      {}
func (noopObserver) RecordTransition(context.Context, string, string)     {}
func (noopObserver) RecordPayment(context.Context, string, time.Duration) {}
func (noopObserver) RecordRecognizerRestart(context.Context, string)      {}
func (noopObserver) RecordSession(context.Context, string, time.Duration) {}

// blockingRecognizer never produces results.
type blockingRecognizer struct{}

func (blockingRecognizer) Listen(ctx context.Context, _ chan<- speech.Recognition) error {
	<-ctx.Done()
	return nil
}

// Deps are the collaborators of a Controller. Nil members get safe
// fallbacks.
type Deps struct {
	Recognizer  speech.Recognizer
	Synthesizer speech.Synthesizer
	Presenter   Presenter
	Payment     PaymentProcessor
	Observer    Observer
}

type Options struct {
	// MaxRestarts bounds consecutive transient recognizer failures.
	MaxRestarts    int
	RestartBackoff time.Duration
	// SilenceReprompt repeats the current prompt after this much quiet.
	// Zero disables it.
	SilenceReprompt time.Duration
	// DrainTimeout bounds how long queued narration may play after the
	// dialogue ends.
	DrainTimeout time.Duration
	// EventLog logs every dialogue event and effect.
	EventLog bool
	Now      func() time.Time
}

// Controller is the single actor owning one dialogue.
type Controller struct {
	id         string
	logger     *slog.Logger
	machine    *fsm.Machine
	dispatcher *command.Dispatcher
	recognizer speech.Recognizer
	presenter  Presenter
	payment    PaymentProcessor
	observer   Observer
	opts       Options
	narrator   *narrator

	mu      sync.RWMutex
	state   fsm.State
	started bool
	running bool

	actions   chan action
	injected  chan speech.Recognition
	barriers  chan chan bool
	narration chan fsm.Event
	payments  chan fsm.Event
	done      chan struct{}

	// Owned by the Run goroutine.
	stopListen context.CancelFunc
	ended      bool
	receipt    *payment.Receipt
	events     map[string]int
	dropped    map[string]int
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(
	logger *slog.Logger,
	machine *fsm.Machine,
	dispatcher *command.Dispatcher,
	deps Deps,
	opts Options,
) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Recognizer == nil {
		deps.Recognizer = blockingRecognizer{}
	}
	if deps.Synthesizer == nil {
		deps.Synthesizer = speech.SynthesizerFunc(func(context.Context, string) error { return nil })
	}
	if deps.Presenter == nil {
		deps.Presenter = noopPresenter{}
	}
	if deps.Payment == nil {
		deps.Payment = payment.NewSimulator(machine.Catalog())
	}
	if deps.Observer == nil {
		deps.Observer = noopObserver{}
	}
	if opts.RestartBackoff < 0 {
		opts.RestartBackoff = 0
	} else if opts.RestartBackoff == 0 {
		opts.RestartBackoff = defaultRestartBackoff
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = defaultDrainTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	id := uuid.NewString()
	logger = logger.With("session", id)
	narration := make(chan fsm.Event)
	return &Controller{
		id:         id,
		logger:     logger,
		machine:    machine,
		dispatcher: dispatcher,
		recognizer: deps.Recognizer,
		presenter:  deps.Presenter,
		payment:    deps.Payment,
		observer:   deps.Observer,
		opts:       opts,
		narrator:   newNarrator(logger, deps.Synthesizer, narration),
		state:      fsm.New(),
		actions:    make(chan action, 1),
		injected:   make(chan speech.Recognition, 8),
		barriers:   make(chan chan bool),
		narration:  narration,
		payments:   make(chan fsm.Event, 1),
		done:       make(chan struct{}),
		events:     map[string]int{},
		dropped:    map[string]int{},
	}
}

// ID returns the session identifier used in logs and IPC responses.
func (c *Controller) ID() string {
	return c.id
}

// State returns a snapshot of the dialogue state.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return false
	}
	c.started = true
	c.running = true
	return true
}

func (c *Controller) isRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

// Run executes one dialogue from the welcome prompt until the session ends,
// the input runs out, the session is stopped over IPC, or ctx is cancelled.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{SessionID: c.id, StartedAt: c.opts.Now()}
	if !c.begin() {
		result.State = c.State()
		result.Err = ErrAlreadyStarted
		result.FinishedAt = c.opts.Now()
		return result
	}
	defer close(c.done)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.logger.Info("session started")
	go c.narrator.run(runCtx)

	listenCtx, stopListen := context.WithCancel(runCtx)
	c.stopListen = stopListen
	recognitions := make(chan speech.Recognition)
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- c.listen(listenCtx, recognitions)
	}()

	c.apply(runCtx, fsm.Start{})

	silence := &silenceTimer{d: c.opts.SilenceReprompt}
	defer silence.stop()
	inputClosed := false

loop:
	for !c.ended {
		if inputClosed && c.State().Mode != fsm.ModeProcessing && !c.narrator.busy() {
			break
		}

		select {
		case <-ctx.Done():
			result.Err = ctx.Err()
			c.narrator.stop()
			break loop
		case rec := <-recognitions:
			silence.reset()
			c.route(runCtx, rec)
		case rec := <-c.injected:
			silence.reset()
			c.route(runCtx, rec)
		case ev := <-c.narration:
			if _, ok := ev.(fsm.NarrationStarted); ok {
				silence.stop()
			} else {
				silence.reset()
			}
			c.apply(runCtx, ev)
		case ev := <-c.payments:
			c.apply(runCtx, ev)
		case err := <-listenErr:
			listenErr = nil
			switch {
			case err == nil:
			case errors.Is(err, io.EOF):
				inputClosed = true
				result.InputClosed = true
				c.logger.Info("recognizer input closed")
			default:
				result.Err = err
				c.logger.Error("recognizer lost", "error", err)
				c.apply(runCtx, fsm.RecognizerLost{Reason: err.Error()})
			}
		case <-silence.C():
			if !c.narrator.busy() && !c.State().Narrating {
				c.apply(runCtx, fsm.Silence{})
			}
		case a := <-c.actions:
			if a == actionStop {
				result.Stopped = true
				c.narrator.stop()
				c.logger.Info("session stopped over ipc")
				break loop
			}
		case reply := <-c.barriers:
			reply <- c.idle()
		}
	}

	c.stopListening()
	if ctx.Err() == nil && !result.Stopped {
		c.drainNarration(runCtx)
	}

	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	result.State = c.State()
	result.Events = c.events
	result.Dropped = c.dropped
	result.Receipt = c.receipt
	result.FinishedAt = c.opts.Now()

	outcome := sessionOutcome(result)
	c.observer.RecordSession(context.WithoutCancel(ctx), outcome, result.FinishedAt.Sub(result.StartedAt))
	c.logger.Info("session finished",
		"outcome", outcome,
		"mode", string(result.State.Mode),
		"transaction_id", result.TransactionID(),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"events", result.Events,
		"dropped", result.Dropped,
	)
	return result
}

func sessionOutcome(r Result) string {
	switch {
	case r.Err != nil && errors.Is(r.Err, context.Canceled):
		return "canceled"
	case r.Err != nil:
		return "failed"
	case r.Stopped:
		return "stopped"
	case r.TransactionID() != "":
		return "paid"
	default:
		return "abandoned"
	}
}

// route filters one recognition through the dispatcher.
func (c *Controller) route(ctx context.Context, rec speech.Recognition) {
	cmd, verdict := c.dispatcher.Route(rec)
	c.observer.RecordUtterance(ctx, verdict.String(), cmd.Kind.String())
	if verdict != command.Accepted {
		c.dropped[verdict.String()]++
		c.logger.Debug("recognition dropped", "verdict", verdict.String(), "confidence", rec.Confidence)
		return
	}
	c.logger.Debug("utterance accepted",
		"kind", cmd.Kind.String(),
		"target", string(cmd.Target),
		"confidence", rec.Confidence,
	)
	c.apply(ctx, fsm.Utterance{Command: cmd, At: c.opts.Now()})
}

// apply runs one event through the machine and performs its effects.
func (c *Controller) apply(ctx context.Context, event fsm.Event) {
	name := fsm.EventName(event)

	c.mu.Lock()
	from := c.state
	next, effects, err := c.machine.Handle(from, event)
	if err == nil {
		c.state = next
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug("event ignored", "event", name, "mode", string(from.Mode), "error", err)
		return
	}
	c.events[name]++
	if approved, ok := event.(fsm.PaymentApproved); ok {
		receipt := approved.Receipt
		c.receipt = &receipt
	}
	if c.opts.EventLog {
		c.logger.Info("dialogue event", "event", name, "mode", string(next.Mode), "effects", len(effects))
	}
	if from.Mode != next.Mode {
		c.observer.RecordTransition(ctx, string(from.Mode), string(next.Mode))
		c.logger.Info("dialogue transition",
			"from", string(from.Mode),
			"to", string(next.Mode),
			"event", name,
			"field", activeFieldName(c.machine.Catalog(), next),
		)
	}
	c.perform(ctx, effects)
}

func activeFieldName(catalog *fields.Catalog, s fsm.State) string {
	if s.ActiveField < catalog.Len() {
		return string(catalog.At(s.ActiveField).ID)
	}
	return ""
}

// perform interprets effects in the order the machine emitted them.
func (c *Controller) perform(ctx context.Context, effects []fsm.Effect) {
	for _, effect := range effects {
		if c.opts.EventLog {
			c.logger.Info("dialogue effect", "effect", fsm.EffectName(effect))
		}
		switch e := effect.(type) {
		case fsm.Speak:
			if e.Interrupt {
				c.narrator.stop()
			}
			c.narrator.say(e.Text)
		case fsm.StopNarration:
			c.narrator.stop()
		case fsm.ShowField:
			c.presenter.ShowField(e.Field, e.Label, e.Value)
		case fsm.ClearField:
			c.presenter.ClearField(e.Field, e.Label)
		case fsm.Status:
			c.presenter.Status(e.Text)
		case fsm.Announce:
			c.presenter.Announce(e.Text)
		case fsm.PlayCue:
			c.presenter.Cue(ctx, e.Cue)
		case fsm.StartPayment:
			c.startPayment(ctx, e.Order)
		case fsm.StopRecognition:
			c.stopListening()
		case fsm.EndSession:
			c.ended = true
		default:
			c.logger.Warn("unhandled effect", "effect", fsm.EffectName(effect))
		}
	}
}

func (c *Controller) startPayment(ctx context.Context, order payment.Order) {
	started := c.opts.Now()
	go func() {
		receipt, err := c.payment.Process(ctx, order)
		elapsed := c.opts.Now().Sub(started)

		var ev fsm.Event = fsm.PaymentApproved{Receipt: receipt}
		outcome := "approved"
		if err != nil {
			ev = fsm.PaymentFailed{Err: err}
			outcome = payment.Kind(err)
			c.logger.Warn("payment failed", "kind", outcome, "error", err)
		} else {
			c.logger.Info("payment approved", "transaction_id", receipt.TransactionID, "elapsed_ms", elapsed.Milliseconds())
		}
		c.observer.RecordPayment(ctx, outcome, elapsed)

		select {
		case c.payments <- ev:
		case <-ctx.Done():
		}
	}()
}

func (c *Controller) stopListening() {
	if c.stopListen != nil {
		c.stopListen()
	}
}

// drainNarration lets queued narration finish after the dialogue ends.
func (c *Controller) drainNarration(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.DrainTimeout)
	defer cancel()

	c.narrator.close()
	for {
		select {
		case <-c.narrator.done:
			return
		case ev := <-c.narration:
			c.apply(ctx, ev)
		case <-ctx.Done():
			c.narrator.stop()
			c.logger.Warn("narration drain timed out")
			return
		}
	}
}

// idle reports whether the dialogue is waiting on the user. It runs on the
// Run goroutine.
func (c *Controller) idle() bool {
	return !c.narrator.busy() &&
		!c.state.Narrating &&
		c.state.Mode != fsm.ModeProcessing &&
		len(c.injected) == 0
}

// WaitIdle blocks until every handled utterance has been answered, narration
// is quiet and no payment is in flight. It returns nil once the session has
// ended.
func (c *Controller) WaitIdle(ctx context.Context) error {
	for {
		reply := make(chan bool, 1)
		select {
		case c.barriers <- reply:
		case <-c.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}

		select {
		case idle := <-reply:
			if idle {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}

		if err := payment.SleepOrDone(ctx, idlePollInterval); err != nil {
			return err
		}
	}
}

// Handle serves IPC commands for the running session.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	state := c.State()
	switch req.Command {
	case ipc.CommandStatus:
		return ipc.Response{OK: true, Session: c.id, State: string(state.Mode), Message: c.describe(state)}
	case ipc.CommandSay:
		return c.requestSay(state, req)
	case ipc.CommandStop:
		return c.requestStop(state)
	default:
		return ipc.Response{OK: false, Session: c.id, State: string(state.Mode), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

func (c *Controller) requestSay(state fsm.State, req ipc.Request) ipc.Response {
	if !c.isRunning() || !state.Active() {
		return ipc.Response{OK: false, Session: c.id, State: string(state.Mode), Error: fmt.Sprintf("cannot say in state %s", state.Mode)}
	}
	confidence := req.Confidence
	if confidence == 0 {
		confidence = 1
	}

	select {
	case c.injected <- speech.Recognition{Transcript: req.Text, Confidence: confidence, Final: true}:
		return ipc.Response{OK: true, Session: c.id, State: string(state.Mode), Message: "utterance queued"}
	default:
		return ipc.Response{OK: false, Session: c.id, State: string(state.Mode), Error: "utterance queue full"}
	}
}

func (c *Controller) requestStop(state fsm.State) ipc.Response {
	if !c.isRunning() {
		return ipc.Response{OK: false, Session: c.id, State: string(state.Mode), Error: "session not running"}
	}

	select {
	case c.actions <- actionStop:
		return ipc.Response{OK: true, Session: c.id, State: string(state.Mode), Message: "stop requested"}
	default:
		return ipc.Response{OK: true, Session: c.id, State: string(state.Mode), Message: "stop already requested"}
	}
}

func (c *Controller) describe(state fsm.State) string {
	catalog := c.machine.Catalog()
	collected := fmt.Sprintf("%d of %d fields collected", len(state.Collected), catalog.Len())
	switch state.Mode {
	case fsm.ModeAsking, fsm.ModeAwaitingConfirmation:
		return fmt.Sprintf("%s; current field %s", collected, catalog.At(state.ActiveField).Label)
	case fsm.ModeSuccess:
		return "payment approved " + state.Receipt.TransactionID
	default:
		return collected
	}
}

type silenceTimer struct {
	d time.Duration
	t *time.Timer
}

func (s *silenceTimer) C() <-chan time.Time {
	if s.t == nil {
		return nil
	}
	return s.t.C
}

func (s *silenceTimer) reset() {
	if s.d <= 0 {
		return
	}
	if s.t == nil {
		s.t = time.NewTimer(s.d)
		return
	}
	s.t.Reset(s.d)
}

func (s *silenceTimer) stop() {
	if s.t != nil {
		s.t.Stop()
	}
}

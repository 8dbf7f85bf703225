// Package indicator renders session status on the console or as desktop
// notifications and plays audio cues.
package indicator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/trustpay/internal/config"
	"github.com/rbright/trustpay/internal/fields"
	"github.com/rbright/trustpay/internal/fsm"
)

const dispatchTimeout = 400 * time.Millisecond

// Presenter is the session-facing presentation surface. The form view is
// always written to out; status and announcements go to the configured
// backend.
type Presenter struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages

	mu  sync.Mutex
	out io.Writer

	desktopMu             sync.Mutex
	desktopNotificationID uint32

	soundMu sync.Mutex
	play    func(context.Context, []int16) error
	notify  func(context.Context, notification) (uint32, error)
	dismiss func(context.Context, uint32) error
}

// New creates a presenter writing to out. localeTag picks the message
// language.
func New(cfg config.IndicatorConfig, localeTag string, out io.Writer, logger *slog.Logger) *Presenter {
	if out == nil {
		out = io.Discard
	}
	p := &Presenter{
		cfg:      cfg,
		logger:   logger,
		messages: indicatorMessages(resolveLocale(localeTag)),
		out:      out,
		notify:   desktopNotify,
		dismiss:  desktopDismiss,
	}
	p.play = func(ctx context.Context, samples []int16) error {
		return playPulse(ctx, cfg.SoundOutput, samples)
	}
	return p
}

// ShowField renders a committed field. Masked values arrive already masked.
func (p *Presenter) ShowField(id fields.ID, label, value string) {
	p.printf("[%s] %s: %s (%s)\n", id, label, value, p.messages.filled)
}

// ClearField renders a field emptied by a correction or restart.
func (p *Presenter) ClearField(id fields.ID, label string) {
	p.printf("[%s] %s (%s)\n", id, label, p.messages.cleared)
}

// Status shows the dialogue's current step.
func (p *Presenter) Status(text string) {
	if !p.cfg.Enable {
		return
	}
	if p.desktop() {
		p.run(func(ctx context.Context) error {
			return p.notifyDesktop(ctx, notification{summary: text, urgency: urgencyLow, timeoutMS: 0})
		})
		return
	}
	p.printf("%s: %s\n", p.messages.status, text)
}

// Announce publishes live-region text for assistive technology.
func (p *Presenter) Announce(text string) {
	if !p.cfg.Enable {
		return
	}
	if p.desktop() {
		p.run(func(ctx context.Context) error {
			return p.notifyDesktop(ctx, notification{summary: p.messages.announce, body: text, urgency: urgencyNormal, timeoutMS: -1})
		})
		return
	}
	p.printf("%s: %s\n", p.messages.announce, text)
}

// ShowError surfaces a session failure.
func (p *Presenter) ShowError(ctx context.Context, text string) {
	if !p.cfg.Enable {
		return
	}
	if text == "" {
		text = p.messages.errorText
	}
	if !p.desktop() {
		p.printf("%s: %s\n", p.messages.status, text)
		return
	}
	timeout := p.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 1200
	}
	p.runCtx(ctx, func(ctx context.Context) error {
		return p.notifyDesktop(ctx, notification{summary: p.messages.errorText, body: text, urgency: urgencyCritical, timeoutMS: timeout})
	})
}

// Cue plays a tone asynchronously. Cues are serialized so they never overlap.
func (p *Presenter) Cue(ctx context.Context, cue fsm.Cue) {
	if !p.cfg.SoundEnable {
		return
	}
	samples := cueSamples(cue)
	if len(samples) == 0 {
		p.log("unknown indicator cue", fmt.Errorf("cue %q", cue))
		return
	}
	go func() {
		p.soundMu.Lock()
		defer p.soundMu.Unlock()
		if err := p.play(ctx, samples); err != nil {
			p.log("indicator audio cue failed", err)
		}
	}()
}

// Close dismisses the desktop notification left by the session.
func (p *Presenter) Close(ctx context.Context) {
	if !p.cfg.Enable || !p.desktop() {
		return
	}
	p.runCtx(ctx, func(ctx context.Context) error {
		p.desktopMu.Lock()
		id := p.desktopNotificationID
		p.desktopNotificationID = 0
		p.desktopMu.Unlock()
		if id == 0 {
			return nil
		}
		return p.dismiss(ctx, id)
	})
}

func (p *Presenter) desktop() bool {
	return strings.EqualFold(strings.TrimSpace(p.cfg.Backend), "desktop")
}

// notifyDesktop replaces the session's notification in place.
func (p *Presenter) notifyDesktop(ctx context.Context, n notification) error {
	p.desktopMu.Lock()
	defer p.desktopMu.Unlock()

	n.appName = strings.TrimSpace(p.cfg.DesktopAppName)
	if n.appName == "" {
		n.appName = "trustpay"
	}
	n.replaceID = p.desktopNotificationID

	id, err := p.notify(ctx, n)
	if err != nil {
		return err
	}
	p.desktopNotificationID = id
	return nil
}

func (p *Presenter) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprintf(p.out, format, args...); err != nil {
		p.log("indicator write failed", err)
	}
}

func (p *Presenter) run(fn func(context.Context) error) {
	p.runCtx(context.Background(), fn)
}

// runCtx executes a backend call with a bounded timeout.
func (p *Presenter) runCtx(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	if err := fn(runCtx); err != nil {
		p.log("indicator dispatch failed", err)
	}
}

func (p *Presenter) log(message string, err error) {
	if p.logger == nil || err == nil {
		return
	}
	p.logger.Debug(message, "error", err.Error())
}

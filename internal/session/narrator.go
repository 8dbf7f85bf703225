package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rbright/trustpay/internal/fsm"
	"github.com/rbright/trustpay/internal/speech"
)

// narrator speaks queued texts one at a time. NarrationStarted is posted
// when it leaves idle and NarrationFinished when the queue runs dry or the
// current text is interrupted.
type narrator struct {
	logger *slog.Logger
	synth  speech.Synthesizer
	events chan<- fsm.Event

	mu          sync.Mutex
	queue       []string
	speaking    bool
	interrupted bool
	closed      bool
	cancel      context.CancelFunc

	wake chan struct{}
	done chan struct{}
}

func newNarrator(logger *slog.Logger, synth speech.Synthesizer, events chan<- fsm.Event) *narrator {
	return &narrator{
		logger: logger,
		synth:  synth,
		events: events,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (n *narrator) say(text string) {
	n.mu.Lock()
	n.queue = append(n.queue, text)
	n.mu.Unlock()
	n.signal()
}

// stop cancels the current text and drops everything queued behind it.
func (n *narrator) stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queue = nil
	if n.cancel != nil {
		n.interrupted = true
		n.cancel()
	}
}

// close lets run exit once the queue is empty.
func (n *narrator) close() {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
	n.signal()
}

func (n *narrator) busy() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.speaking || len(n.queue) > 0
}

func (n *narrator) signal() {
	select {
	case n.wake <- struct{}{}:
	default:
	}
}

func (n *narrator) run(ctx context.Context) {
	defer close(n.done)

	active := false
	for {
		text, itemCtx, ok := n.next(ctx)
		if !ok {
			if n.isClosed() {
				return
			}
			select {
			case <-n.wake:
				continue
			case <-ctx.Done():
				return
			}
		}

		if !active {
			active = true
			if !n.post(ctx, fsm.NarrationStarted{}) {
				return
			}
		}

		if err := n.synth.Speak(itemCtx, text); err != nil && itemCtx.Err() == nil {
			n.logger.Warn("narration failed", "error", err)
		}

		if n.finish() {
			active = false
			if !n.post(ctx, fsm.NarrationFinished{}) {
				return
			}
		}
	}
}

func (n *narrator) next(ctx context.Context) (string, context.Context, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.queue) == 0 {
		return "", nil, false
	}
	text := n.queue[0]
	n.queue = n.queue[1:]
	itemCtx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.speaking = true
	return text, itemCtx, true
}

// finish reports whether the narration span ended with this text.
func (n *narrator) finish() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
	n.speaking = false
	ended := n.interrupted || len(n.queue) == 0
	n.interrupted = false
	return ended
}

func (n *narrator) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

func (n *narrator) post(ctx context.Context, ev fsm.Event) bool {
	select {
	case n.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rbright/trustpay/internal/payment"
	"github.com/rbright/trustpay/internal/speech"
)

// listen keeps the recognizer running. Segments that end naturally are
// restarted silently. Transient failures are retried up to MaxRestarts in a
// row, ErrUnavailable is returned at once, and io.EOF ends listening. A nil
// return means ctx was cancelled.
func (c *Controller) listen(ctx context.Context, out chan<- speech.Recognition) error {
	failures := 0
	for {
		err := c.recognizer.Listen(ctx, out)
		if ctx.Err() != nil {
			return nil
		}

		switch {
		case err == nil:
			failures = 0
			continue
		case errors.Is(err, io.EOF):
			return io.EOF
		case errors.Is(err, speech.ErrUnavailable):
			return err
		}

		failures++
		c.observer.RecordRecognizerRestart(ctx, restartReason(err))
		if failures > c.opts.MaxRestarts {
			return fmt.Errorf("%w after %d failures: %w", ErrRecognizerExhausted, failures, err)
		}
		c.logger.Warn("recognizer restarting", "attempt", failures, "max_restarts", c.opts.MaxRestarts, "error", err)

		if err := payment.SleepOrDone(ctx, c.opts.RestartBackoff); err != nil {
			return nil
		}
	}
}

func restartReason(err error) string {
	if errors.Is(err, speech.ErrTransient) {
		return "transient"
	}
	return "error"
}

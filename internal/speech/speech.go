// Package speech provides recognizer and synthesizer adapters for the
// checkout dialogue.
package speech

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable means recognition cannot run at all (no device, no
	// permission). The session cannot continue by voice.
	ErrUnavailable = errors.New("speech recognition unavailable")
	// ErrTransient marks recoverable recognizer failures such as no speech
	// detected. The listener is restarted.
	ErrTransient = errors.New("transient recognition error")
)

// Recognition is one recognizer result.
type Recognition struct {
	Transcript string
	Confidence float64
	Final      bool
}

// Recognizer delivers results until one listening segment ends. A nil
// return is a natural end and the caller restarts it. io.EOF means the
// input source is exhausted.
type Recognizer interface {
	Listen(ctx context.Context, out chan<- Recognition) error
}

// Synthesizer speaks text and returns once narration completes. Cancelling
// ctx interrupts narration.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

// SynthesizerFunc adapts a function to the Synthesizer interface.
type SynthesizerFunc func(context.Context, string) error

func (f SynthesizerFunc) Speak(ctx context.Context, text string) error {
	return f(ctx, text)
}

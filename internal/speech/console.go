package speech

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// LineRecognizer treats each input line as one final utterance. A line may
// start with a bracketed confidence such as "[0.42] ajuda".
type LineRecognizer struct {
	reader io.Reader

	once  sync.Once
	lines chan string
	err   error
}

// NewLineRecognizer reads utterances from r.
func NewLineRecognizer(r io.Reader) *LineRecognizer {
	return &LineRecognizer{reader: r}
}

func (l *LineRecognizer) start() {
	l.lines = make(chan string)
	go func() {
		scanner := bufio.NewScanner(l.reader)
		for scanner.Scan() {
			l.lines <- scanner.Text()
		}
		l.err = scanner.Err()
		close(l.lines)
	}()
}

// Listen emits the next non-empty line and returns, so every line is its own
// listening segment.
func (l *LineRecognizer) Listen(ctx context.Context, out chan<- Recognition) error {
	l.once.Do(l.start)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-l.lines:
			if !ok {
				if l.err != nil {
					return fmt.Errorf("%w: read input: %v", ErrUnavailable, l.err)
				}
				return io.EOF
			}
			rec, ok := ParseLine(line)
			if !ok {
				continue
			}
			select {
			case out <- rec:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// ParseLine converts a console line into a final recognition.
func ParseLine(line string) (Recognition, bool) {
	text := strings.TrimSpace(line)
	confidence := 1.0
	if strings.HasPrefix(text, "[") {
		if end := strings.Index(text, "]"); end > 0 {
			if v, err := strconv.ParseFloat(strings.TrimSpace(text[1:end]), 64); err == nil {
				confidence = v
				text = strings.TrimSpace(text[end+1:])
			}
		}
	}
	if text == "" {
		return Recognition{}, false
	}
	return Recognition{Transcript: text, Confidence: confidence, Final: true}, true
}

// WriterSynthesizer prints narration to a writer. A non-zero PerWord delay
// approximates speaking time so narration can be interrupted.
type WriterSynthesizer struct {
	Writer  io.Writer
	Prefix  string
	PerWord time.Duration

	mu sync.Mutex
}

// Speak writes text and waits PerWord for each word.
func (w *WriterSynthesizer) Speak(ctx context.Context, text string) error {
	w.mu.Lock()
	_, err := fmt.Fprintf(w.Writer, "%s%s\n", w.Prefix, text)
	w.mu.Unlock()
	if err != nil {
		return fmt.Errorf("write narration: %w", err)
	}

	if w.PerWord <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(len(strings.Fields(text))) * w.PerWord)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Chain speaks through each synthesizer in order, stopping at the first
// error. It lets console echo run alongside a real voice.
func Chain(synths ...Synthesizer) Synthesizer {
	return SynthesizerFunc(func(ctx context.Context, text string) error {
		for _, s := range synths {
			if s == nil {
				continue
			}
			if err := s.Speak(ctx, text); err != nil {
				return err
			}
		}
		return nil
	})
}

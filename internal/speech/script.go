package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Script is a recorded conversation replayed in place of a live recognizer.
type Script struct {
	Name           string      `yaml:"name"`
	PaymentDelayMS *int        `yaml:"payment_delay_ms"`
	Steps          []Step      `yaml:"steps"`
	Expect         Expectation `yaml:"expect"`
}

// Step is one scripted recognizer event. Exactly one of Say, Error, or
// PauseMS is set.
type Step struct {
	Say        string   `yaml:"say"`
	Confidence *float64 `yaml:"confidence"`
	Interim    bool     `yaml:"interim"`
	// BargeIn delivers the utterance without waiting for narration to end.
	BargeIn bool   `yaml:"barge_in"`
	PauseMS int    `yaml:"pause_ms"`
	Error   string `yaml:"error"`
}

// Expectation describes the state a replay should finish in.
type Expectation struct {
	Mode   string            `yaml:"mode"`
	Fields map[string]string `yaml:"fields"`
}

// LoadScript reads and validates a YAML script file.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read script %q: %w", path, err)
	}
	script, err := ParseScript(data)
	if err != nil {
		return Script{}, fmt.Errorf("parse script %q: %w", path, err)
	}
	return script, nil
}

// ParseScript decodes and validates a YAML script.
func ParseScript(data []byte) (Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return Script{}, err
	}
	if len(script.Steps) == 0 {
		return Script{}, errors.New("script has no steps")
	}
	for i, step := range script.Steps {
		set := 0
		if strings.TrimSpace(step.Say) != "" {
			set++
		}
		if step.Error != "" {
			set++
			if step.Error != "transient" && step.Error != "unavailable" {
				return Script{}, fmt.Errorf("step %d: unknown error %q (want transient or unavailable)", i+1, step.Error)
			}
		}
		if step.PauseMS > 0 {
			set++
		}
		if set != 1 {
			return Script{}, fmt.Errorf("step %d: set exactly one of say, error, pause_ms", i+1)
		}
		if step.Confidence != nil && (*step.Confidence < 0 || *step.Confidence > 1) {
			return Script{}, fmt.Errorf("step %d: confidence must be within [0,1]", i+1)
		}
	}
	return script, nil
}

// ScriptRecognizer replays script steps, one per listening segment.
type ScriptRecognizer struct {
	steps []Step
	// Gate, when set, is awaited before each non barge-in utterance so the
	// replay follows the dialogue instead of racing it.
	Gate func(context.Context) error

	mu   sync.Mutex
	next int
}

// NewScriptRecognizer replays script.
func NewScriptRecognizer(script Script) *ScriptRecognizer {
	return &ScriptRecognizer{steps: script.Steps}
}

// Listen emits the next step. It returns io.EOF once the script is done.
func (s *ScriptRecognizer) Listen(ctx context.Context, out chan<- Recognition) error {
	s.mu.Lock()
	if s.next >= len(s.steps) {
		s.mu.Unlock()
		return io.EOF
	}
	step := s.steps[s.next]
	s.next++
	s.mu.Unlock()

	switch {
	case step.PauseMS > 0:
		return sleepOrDone(ctx, time.Duration(step.PauseMS)*time.Millisecond)
	case step.Error == "transient":
		return fmt.Errorf("%w: scripted", ErrTransient)
	case step.Error == "unavailable":
		return fmt.Errorf("%w: scripted", ErrUnavailable)
	}

	if s.Gate != nil && !step.BargeIn {
		if err := s.Gate(ctx); err != nil {
			return err
		}
	}

	confidence := 1.0
	if step.Confidence != nil {
		confidence = *step.Confidence
	}
	select {
	case out <- Recognition{Transcript: step.Say, Confidence: confidence, Final: !step.Interim}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Remaining reports how many steps have not been replayed.
func (s *ScriptRecognizer) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps) - s.next
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package command

import (
	"strings"

	"github.com/rbright/trustpay/internal/speech"
)

// Verdict explains what the dispatcher did with a recognition.
type Verdict int

const (
	Accepted Verdict = iota
	DroppedInterim
	DroppedEmpty
	DroppedLowConfidence
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case DroppedInterim:
		return "dropped_interim"
	case DroppedEmpty:
		return "dropped_empty"
	case DroppedLowConfidence:
		return "dropped_low_confidence"
	default:
		return "unknown"
	}
}

// Dispatcher filters recognitions and classifies the ones worth handling.
type Dispatcher struct {
	classifier *Classifier
	threshold  float64
}

// NewDispatcher drops results below threshold unless they carry a critical
// command.
func NewDispatcher(classifier *Classifier, threshold float64) *Dispatcher {
	return &Dispatcher{classifier: classifier, threshold: threshold}
}

// Route classifies rec and decides whether it reaches the dialogue.
func (d *Dispatcher) Route(rec speech.Recognition) (Command, Verdict) {
	if !rec.Final {
		return Command{}, DroppedInterim
	}
	if strings.TrimSpace(rec.Transcript) == "" {
		return Command{}, DroppedEmpty
	}

	cmd := d.classifier.Classify(rec.Transcript)
	if rec.Confidence < d.threshold && !cmd.Critical() {
		return cmd, DroppedLowConfidence
	}
	return cmd, Accepted
}

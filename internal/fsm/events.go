package fsm

import (
	"time"

	"github.com/rbright/trustpay/internal/command"
	"github.com/rbright/trustpay/internal/fields"
	"github.com/rbright/trustpay/internal/payment"
)

type Event interface {
	eventName() string
}

type (
	Start     struct{}
	Utterance struct {
		Command command.Command
		At      time.Time
	}
	NarrationStarted  struct{}
	NarrationFinished struct{}
	Silence           struct{}
	PaymentApproved   struct{ Receipt payment.Receipt }
	PaymentFailed     struct{ Err error }
	RecognizerLost    struct{ Reason string }
)

func (Start) eventName() string             { return "start" }
func (Utterance) eventName() string         { return "utterance" }
func (NarrationStarted) eventName() string  { return "narration_started" }
func (NarrationFinished) eventName() string { return "narration_finished" }
func (Silence) eventName() string           { return "silence" }
func (PaymentApproved) eventName() string   { return "payment_approved" }
func (PaymentFailed) eventName() string     { return "payment_failed" }
func (RecognizerLost) eventName() string    { return "recognizer_lost" }

// EventName returns the stable log name of e.
func EventName(e Event) string {
	if e == nil {
		return "nil"
	}
	return e.eventName()
}

type Cue string

const (
	CueAccept  Cue = "accept"
	CueReject  Cue = "reject"
	CueSuccess Cue = "success"
	CueCancel  Cue = "cancel"
)

type Effect interface {
	effectName() string
}

type (
	Speak struct {
		Text string
		// Interrupt drops queued narration before speaking.
		Interrupt bool
	}
	StopNarration struct{}
	ShowField     struct {
		Field fields.ID
		Label string
		Value string
	}
	ClearField struct {
		Field fields.ID
		Label string
	}
	Status   struct{ Text string }
	Announce struct{ Text string }
	PlayCue  struct{ Cue Cue }
	// StartPayment asks the driver to submit Order and report back with
	// PaymentApproved or PaymentFailed.
	StartPayment    struct{ Order payment.Order }
	StopRecognition struct{}
	EndSession      struct{}
)

func (Speak) effectName() string           { return "speak" }
func (StopNarration) effectName() string   { return "stop_narration" }
func (ShowField) effectName() string       { return "show_field" }
func (ClearField) effectName() string      { return "clear_field" }
func (Status) effectName() string          { return "status" }
func (Announce) effectName() string        { return "announce" }
func (PlayCue) effectName() string         { return "play_cue" }
func (StartPayment) effectName() string    { return "start_payment" }
func (StopRecognition) effectName() string { return "stop_recognition" }
func (EndSession) effectName() string      { return "end_session" }

// EffectName returns the stable log name of e.
func EffectName(e Effect) string {
	if e == nil {
		return "nil"
	}
	return e.effectName()
}

// Package fsm is the checkout dialogue state machine. Handle is pure: it
// takes a State and an Event and returns the next State plus the effects an
// outer driver must perform.
package fsm

import (
	"fmt"

	"github.com/rbright/trustpay/internal/fields"
	"github.com/rbright/trustpay/internal/payment"
)

type Mode string

const (
	ModeIdle                     Mode = "idle"
	ModeAsking                   Mode = "asking"
	ModeAwaitingConfirmation     Mode = "awaiting_confirmation"
	ModeAwaitingCorrectionTarget Mode = "awaiting_correction_target"
	ModeReviewing                Mode = "reviewing"
	ModeProcessing               Mode = "processing"
	ModeSuccess                  Mode = "success"
	ModeFinished                 Mode = "finished"
)

type State struct {
	Mode        Mode
	ActiveField int
	// Pending is the staged value awaiting yes/no. It is non-empty only in
	// ModeAwaitingConfirmation.
	Pending   string
	Collected map[fields.ID]string
	Narrating bool
	Receipt   *payment.Receipt
}

func New() State {
	return State{Mode: ModeIdle, Collected: map[fields.ID]string{}}
}

// Active reports whether the session accepts utterances.
func (s State) Active() bool {
	return s.Mode != ModeIdle && s.Mode != ModeFinished
}

func (s State) clone() State {
	out := s
	out.Collected = make(map[fields.ID]string, len(s.Collected))
	for k, v := range s.Collected {
		out.Collected[k] = v
	}
	if s.Receipt != nil {
		receipt := *s.Receipt
		out.Receipt = &receipt
	}
	return out
}

// Check reports the first broken dialogue invariant, if any.
func (s State) Check(catalog *fields.Catalog) error {
	if (s.Pending != "") != (s.Mode == ModeAwaitingConfirmation) {
		return fmt.Errorf("pending value %q in mode %s", s.Pending, s.Mode)
	}
	if s.ActiveField < 0 || s.ActiveField > catalog.Len() {
		return fmt.Errorf("active field %d out of range", s.ActiveField)
	}
	for i := 0; i < s.ActiveField; i++ {
		id := catalog.At(i).ID
		if _, ok := s.Collected[id]; !ok {
			return fmt.Errorf("field %s passed without a confirmed value", id)
		}
	}
	switch s.Mode {
	case ModeAsking, ModeAwaitingConfirmation:
		if s.ActiveField >= catalog.Len() {
			return fmt.Errorf("mode %s without an active field", s.Mode)
		}
	case ModeReviewing, ModeProcessing, ModeSuccess:
		if s.ActiveField != catalog.Len() {
			return fmt.Errorf("mode %s before every field was collected", s.Mode)
		}
	}
	if (s.Receipt != nil) != (s.Mode == ModeSuccess) {
		return fmt.Errorf("receipt presence does not match mode %s", s.Mode)
	}
	return nil
}

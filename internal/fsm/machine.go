package fsm

import (
	"errors"
	"fmt"

	"github.com/rbright/trustpay/internal/command"
	"github.com/rbright/trustpay/internal/fields"
	"github.com/rbright/trustpay/internal/payment"
)

type Machine struct {
	catalog *fields.Catalog
}

func NewMachine(catalog *fields.Catalog) *Machine {
	return &Machine{catalog: catalog}
}

func (m *Machine) Catalog() *fields.Catalog {
	return m.catalog
}

// Handle applies event to state. The input state is never mutated. Events
// that make no sense in the current mode return the state unchanged together
// with an invalid transition error.
func (m *Machine) Handle(state State, event Event) (State, []Effect, error) {
	s := state.clone()
	var out effects

	switch ev := event.(type) {
	case Start:
		if s.Mode != ModeIdle {
			return state, nil, invalidTransition(state.Mode, event)
		}
		s = New()
		out.say(phraseWelcome)
		m.enterField(&s, &out, 0, true)

	case Utterance:
		if !s.Active() {
			return state, nil, invalidTransition(state.Mode, event)
		}
		if s.Narrating {
			out.add(StopNarration{})
			s.Narrating = false
		}
		m.handleUtterance(&s, &out, ev)

	case NarrationStarted:
		s.Narrating = true
	case NarrationFinished:
		s.Narrating = false

	case Silence:
		if s.Active() && s.Mode != ModeProcessing {
			out.say(m.prompt(s))
		}

	case PaymentApproved:
		if s.Mode != ModeProcessing {
			return state, nil, invalidTransition(state.Mode, event)
		}
		receipt := ev.Receipt
		s.Mode = ModeSuccess
		s.Receipt = &receipt
		out.add(PlayCue{Cue: CueSuccess})
		out.notify(phraseStatusApproved + " " + receipt.TransactionID)
		out.say(approval(receipt))
		out.say(phraseSuccessOptions)

	case PaymentFailed:
		if s.Mode != ModeProcessing {
			return state, nil, invalidTransition(state.Mode, event)
		}
		reason := phrasePaymentError
		if errors.Is(ev.Err, payment.ErrDeclined) {
			reason = phraseDeclined
		}
		out.add(PlayCue{Cue: CueReject})
		out.notify(reason)
		out.say(reason)
		if missing := payment.NewOrder(s.Collected).Missing(m.catalog); len(missing) > 0 {
			m.enterField(&s, &out, m.catalog.Index(missing[0]), false)
			break
		}
		s.Mode = ModeReviewing
		out.say(phraseReviewHelp)

	case RecognizerLost:
		if s.Mode == ModeFinished {
			return state, nil, invalidTransition(state.Mode, event)
		}
		s.Mode = ModeFinished
		s.Pending = ""
		s.Receipt = nil
		out.add(Speak{Text: phraseRecognizerLost, Interrupt: true})
		out.notify(phraseRecognizerLost)
		out.add(StopRecognition{}, EndSession{})

	default:
		return state, nil, fmt.Errorf("unknown event %T", event)
	}

	return s, out.list, nil
}

func (m *Machine) handleUtterance(s *State, out *effects, ev Utterance) {
	cmd := ev.Command

	if s.Mode == ModeProcessing {
		out.say(phraseBusy)
		return
	}

	if cmd.Global() {
		m.handleGlobal(s, out, cmd)
		return
	}

	switch s.Mode {
	case ModeAsking:
		switch {
		case cmd.Kind == command.KindRepeat:
			out.say(m.prompt(*s))
		case cmd.Kind == command.KindCorrect && cmd.TargetText == "":
			s.Mode = ModeAwaitingCorrectionTarget
			out.say(phraseWhichField)
		case cmd.Kind == command.KindCorrect:
			m.handleCorrect(s, out, cmd)
		default:
			m.stage(s, out, ev)
		}

	case ModeAwaitingConfirmation:
		switch {
		case cmd.Kind == command.KindYes,
			cmd.Kind == command.KindConfirm,
			cmd.Kind == command.KindCorrect && cmd.TargetText == "":
			m.commit(s, out)
		case cmd.Kind == command.KindNo:
			spec := m.catalog.At(s.ActiveField)
			s.Mode = ModeAsking
			s.Pending = ""
			out.add(ClearField{Field: spec.ID, Label: spec.Label})
			out.say(phraseRetry + " " + spec.Prompt)
		case cmd.Kind == command.KindCorrect:
			m.handleCorrect(s, out, cmd)
		case cmd.Kind == command.KindRepeat:
			out.say(m.prompt(*s))
		default:
			out.status(phraseYesOrNo)
			out.say(phraseYesOrNo + " " + m.prompt(*s))
		}

	case ModeReviewing:
		switch {
		case cmd.Kind == command.KindConfirm:
			m.submit(s, out)
		case cmd.Kind == command.KindCorrect && cmd.TargetText == "":
			s.Mode = ModeAwaitingCorrectionTarget
			out.say(phraseWhichField)
		case cmd.Kind == command.KindCorrect:
			m.handleCorrect(s, out, cmd)
		case cmd.Kind == command.KindRepeat:
			m.enterReview(s, out)
		default:
			out.say(phraseReviewHelp)
		}

	case ModeAwaitingCorrectionTarget:
		switch {
		case cmd.Kind == command.KindRepeat:
			out.say(phraseWhichField)
		case cmd.Target != "":
			m.handleCorrect(s, out, cmd)
		default:
			out.notify(phraseUnknownField)
			out.say(phraseUnknownField + " " + phraseWhichField)
		}

	case ModeSuccess:
		out.say(phraseSuccessOptions)
	}
}

func (m *Machine) handleGlobal(s *State, out *effects, cmd command.Command) {
	switch cmd.Kind {
	case command.KindHelp:
		out.say(phraseHelp)
		if prompt := m.prompt(*s); prompt != "" {
			out.say(prompt)
		}

	case command.KindBack:
		if s.Mode == ModeSuccess {
			out.say(phraseSuccessOptions)
			return
		}
		if s.ActiveField == 0 {
			out.status(phraseFirstField)
			out.say(phraseFirstField + " " + m.prompt(*s))
			return
		}
		from := s.ActiveField
		target := from - 1
		spec := m.catalog.At(target)
		delete(s.Collected, spec.ID)
		s.Pending = ""
		out.add(ClearField{Field: spec.ID, Label: spec.Label})
		m.enterField(s, out, target, from >= m.catalog.Len() || m.catalog.At(from).Step != spec.Step)

	case command.KindRestart:
		for _, spec := range m.catalog.Specs() {
			if _, ok := s.Collected[spec.ID]; ok || spec.ID == m.activeID(*s) {
				out.add(ClearField{Field: spec.ID, Label: spec.Label})
			}
		}
		narrating := s.Narrating
		*s = New()
		s.Narrating = narrating
		out.add(PlayCue{Cue: CueCancel})
		out.notify(phraseStatusCancelled)
		out.say(phraseRestarted)
		m.enterField(s, out, 0, true)

	case command.KindFinish:
		s.Mode = ModeFinished
		s.Pending = ""
		s.Receipt = nil
		out.notify(phraseStatusFinished)
		out.say(phraseFarewell)
		out.add(StopRecognition{}, EndSession{})
	}
}

// stage normalizes and validates field content for the active field.
func (m *Machine) stage(s *State, out *effects, ev Utterance) {
	spec := m.catalog.At(s.ActiveField)
	value, err := spec.Validate(spec.Format(ev.Command.Text), ev.At)
	if err != nil {
		reason := "Não entendi."
		var rejection *fields.Rejection
		if errors.As(err, &rejection) {
			reason = rejection.Reason
		}
		out.add(PlayCue{Cue: CueReject})
		out.status(reason)
		out.say(reason + " " + spec.Prompt)
		return
	}

	s.Mode = ModeAwaitingConfirmation
	s.Pending = value
	out.add(ShowField{Field: spec.ID, Label: spec.Label, Value: value})
	out.status(phraseStatusAwaitYes)
	out.say(spec.Confirm(value))
}

// commit stores the pending value and moves to the first field still
// missing, or to review when none is.
func (m *Machine) commit(s *State, out *effects) {
	spec := m.catalog.At(s.ActiveField)
	s.Collected[spec.ID] = s.Pending
	s.Pending = ""
	out.add(PlayCue{Cue: CueAccept}, Announce{Text: confirmedAnnouncement(spec.Label)})

	next := m.firstMissing(*s)
	if next == m.catalog.Len() {
		m.enterReview(s, out)
		return
	}
	m.enterField(s, out, next, m.catalog.At(next).Step != spec.Step)
}

func (m *Machine) handleCorrect(s *State, out *effects, cmd command.Command) {
	if cmd.Target == "" {
		out.notify(phraseUnknownField)
		out.say(phraseUnknownField + " " + m.prompt(*s))
		return
	}

	spec, _ := m.catalog.Lookup(cmd.Target)
	if _, ok := s.Collected[spec.ID]; !ok {
		notice := notCollectedYet(spec.Label)
		out.notify(notice)
		out.say(notice + " " + m.prompt(*s))
		return
	}

	if s.Mode == ModeAwaitingConfirmation {
		active := m.catalog.At(s.ActiveField)
		out.add(ClearField{Field: active.ID, Label: active.Label})
	}
	delete(s.Collected, spec.ID)
	s.Pending = ""
	out.add(ClearField{Field: spec.ID, Label: spec.Label})
	out.say(correcting(spec.Label))
	m.enterField(s, out, m.catalog.Index(spec.ID), false)
}

// submit runs the final completeness check and starts payment.
func (m *Machine) submit(s *State, out *effects) {
	order := payment.NewOrder(s.Collected)
	if missing := order.Missing(m.catalog); len(missing) > 0 {
		spec, _ := m.catalog.Lookup(missing[0])
		notice := missingBeforePayment(spec.Label)
		out.notify(notice)
		out.say(notice)
		m.enterField(s, out, m.catalog.Index(spec.ID), false)
		return
	}

	s.Mode = ModeProcessing
	out.status(phraseProcessing)
	out.say(phraseProcessing)
	out.add(StartPayment{Order: order})
}

func (m *Machine) enterField(s *State, out *effects, i int, announceStep bool) {
	spec := m.catalog.At(i)
	s.Mode = ModeAsking
	s.ActiveField = i
	s.Pending = ""
	if announceStep {
		announcement := stepAnnouncement(spec.Step)
		out.status(announcement)
		out.say(announcement)
	}
	out.add(Status{Text: spec.Label}, Announce{Text: spec.Prompt})
	out.say(spec.Prompt)
}

func (m *Machine) enterReview(s *State, out *effects) {
	s.Mode = ModeReviewing
	s.ActiveField = m.catalog.Len()
	s.Pending = ""

	announcement := stepAnnouncement(fields.ReviewStep)
	out.status(phraseStatusReview)
	out.add(Announce{Text: announcement})
	out.say(announcement)
	out.say(phraseReviewIntro)
	for _, spec := range m.catalog.Specs() {
		out.say(spec.Summary(s.Collected[spec.ID]))
	}
	out.say(phraseReviewHelp)
}

// prompt is what the user hears again on repeat, help, or silence.
func (m *Machine) prompt(s State) string {
	switch s.Mode {
	case ModeAsking:
		return m.catalog.At(s.ActiveField).Prompt
	case ModeAwaitingConfirmation:
		return m.catalog.At(s.ActiveField).Confirm(s.Pending)
	case ModeAwaitingCorrectionTarget:
		return phraseWhichField
	case ModeReviewing:
		return phraseReviewHelp
	case ModeProcessing:
		return phraseBusy
	case ModeSuccess:
		return phraseSuccessOptions
	default:
		return ""
	}
}

func (m *Machine) firstMissing(s State) int {
	for i := 0; i < m.catalog.Len(); i++ {
		if _, ok := s.Collected[m.catalog.At(i).ID]; !ok {
			return i
		}
	}
	return m.catalog.Len()
}

func (m *Machine) activeID(s State) fields.ID {
	if s.ActiveField < m.catalog.Len() {
		return m.catalog.At(s.ActiveField).ID
	}
	return ""
}

type effects struct {
	list []Effect
}

func (e *effects) add(effects ...Effect) {
	e.list = append(e.list, effects...)
}

func (e *effects) say(text string) {
	e.add(Speak{Text: text})
}

func (e *effects) status(text string) {
	e.add(Status{Text: text})
}

// notify shows text and announces it to assistive technology.
func (e *effects) notify(text string) {
	e.add(Status{Text: text}, Announce{Text: text})
}

func invalidTransition(mode Mode, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", mode, EventName(event))
}

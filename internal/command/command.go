// Package command classifies recognized utterances into dialogue commands.
package command

import "github.com/rbright/trustpay/internal/fields"

// Kind tags one command variant.
type Kind int

const (
	KindContent Kind = iota
	KindHelp
	KindBack
	KindRestart
	KindFinish
	KindConfirm
	KindCorrect
	KindRepeat
	KindYes
	KindNo
)

var kindNames = map[Kind]string{
	KindContent: "content",
	KindHelp:    "help",
	KindBack:    "back",
	KindRestart: "restart",
	KindFinish:  "finish",
	KindConfirm: "confirm",
	KindCorrect: "correct",
	KindRepeat:  "repeat",
	KindYes:     "yes",
	KindNo:      "no",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Command is one classified utterance.
type Command struct {
	Kind Kind
	// Text is the cleaned utterance, kept for every kind so modes that do not
	// accept a command can still treat it as field content.
	Text string
	// Target is the resolved field for KindCorrect, and for KindContent when
	// the whole utterance names a field.
	Target fields.ID
	// TargetText holds the words following a correct keyword.
	TargetText string
}

// Global reports whether the command applies in every active mode.
func (c Command) Global() bool {
	switch c.Kind {
	case KindHelp, KindBack, KindRestart, KindFinish:
		return true
	default:
		return false
	}
}

// Critical reports whether the command bypasses the confidence threshold.
func (c Command) Critical() bool {
	switch c.Kind {
	case KindHelp, KindRestart, KindFinish:
		return true
	default:
		return false
	}
}

// Content builds a plain field-content command.
func Content(text string) Command {
	return Command{Kind: KindContent, Text: text}
}

// Of builds a command of kind k with the given text.
func Of(k Kind, text string) Command {
	return Command{Kind: k, Text: text}
}

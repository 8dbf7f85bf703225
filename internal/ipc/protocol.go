package ipc

import (
	"errors"
	"fmt"
	"strings"
)

// Commands understood by a running session.
const (
	CommandStatus = "status"
	CommandSay    = "say"
	CommandStop   = "stop"
)

type Request struct {
	Command string `json:"command"`
	// Text is the utterance injected by a say request.
	Text string `json:"text,omitempty"`
	// Confidence defaults to 1 when omitted.
	Confidence float64 `json:"confidence,omitempty"`
}

type Response struct {
	OK      bool   `json:"ok"`
	Session string `json:"session,omitempty"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Validate rejects malformed requests before they reach a handler.
func (r Request) Validate() error {
	switch r.Command {
	case CommandStatus, CommandStop:
		return nil
	case CommandSay:
		if strings.TrimSpace(r.Text) == "" {
			return errors.New("say requires text")
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			return fmt.Errorf("confidence %.2f out of range [0,1]", r.Confidence)
		}
		return nil
	case "":
		return errors.New("missing command")
	default:
		return fmt.Errorf("unknown command: %s", r.Command)
	}
}

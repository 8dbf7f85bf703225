// Package cli parses trustpay command lines.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandReplay  Command = "replay"
	CommandSay     Command = "say"
	CommandStatus  Command = "status"
	CommandStop    Command = "stop"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

// arity bounds the positional arguments each command accepts. max < 0 means
// unbounded.
var arity = map[Command]struct{ min, max int }{
	CommandRun:     {0, 0},
	CommandReplay:  {1, 1},
	CommandSay:     {1, -1},
	CommandStatus:  {0, 0},
	CommandStop:    {0, 0},
	CommandDevices: {0, 0},
	CommandDoctor:  {0, 0},
	CommandVersion: {0, 0},
	CommandHelp:    {0, 0},
}

type Parsed struct {
	Command    Command
	Args       []string
	ConfigPath string
	ShowHelp   bool
}

// Text joins the positional arguments, as used by say.
func (p Parsed) Text() string {
	return strings.Join(p.Args, " ")
}

// Parse reads global flags followed by one command and its arguments. With
// no command, an interactive session runs.
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandRun}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}
			cmd := Command(arg)
			bounds, ok := arity[cmd]
			if !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			rest := args[i+1:]
			switch {
			case len(rest) < bounds.min:
				return Parsed{}, fmt.Errorf("command %q requires an argument", arg)
			case bounds.max >= 0 && len(rest) > bounds.max:
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
			if cmd == CommandSay && strings.TrimSpace(strings.Join(rest, "")) == "" {
				return Parsed{}, errors.New("say requires non-empty text")
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			if len(rest) > 0 {
				parsed.Args = append([]string(nil), rest...)
			}
			return parsed, nil
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [command]

Commands:
  run           Start an interactive voice checkout session (default)
  replay FILE   Drive a session from a YAML utterance script
  say TEXT...   Inject an utterance into the running session
  status        Print the running session's state
  stop          Stop the running session
  devices       List audio output sinks for cues
  doctor        Run configuration and environment checks
  version       Print version information
  help          Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/trustpay/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}

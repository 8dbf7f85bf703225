package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandSynthesizer narrates through an external text-to-speech command.
// Text is written to the command's stdin; cancelling ctx kills the process,
// which is how barge-in stops a sentence mid-way.
type CommandSynthesizer struct {
	argv []string
}

// NewCommandSynthesizer validates argv and returns a synthesizer.
func NewCommandSynthesizer(argv []string) (*CommandSynthesizer, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("speech.tts_cmd cannot be empty")
	}
	copied := make([]string, len(argv))
	copy(copied, argv)
	return &CommandSynthesizer{argv: copied}, nil
}

// Speak runs the TTS command and waits for it to finish.
func (c *CommandSynthesizer) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	err := runCommandWithInput(ctx, c.argv, text)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// runCommandWithInput executes argv and writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}

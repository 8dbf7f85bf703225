package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

var supportedLocales = []string{"pt-BR", "en-US"}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	r := cfg.Recognizer
	if r.ConfidenceThreshold < 0 || r.ConfidenceThreshold > 1 {
		return nil, errors.New("recognizer.confidence_threshold must be within [0,1]")
	}
	if r.MaxRestarts < 0 {
		return nil, errors.New("recognizer.max_restarts must be >= 0")
	}
	if r.HealthTimeoutMS <= 0 {
		return nil, errors.New("recognizer.health_timeout_ms must be > 0")
	}
	if r.HealthEndpoint != "" {
		if _, _, err := net.SplitHostPort(r.HealthEndpoint); err != nil {
			return nil, fmt.Errorf("recognizer.health_endpoint must be host:port: %w", err)
		}
	}

	if cfg.Speech.TTS.Raw != "" && len(cfg.Speech.TTS.Argv) == 0 {
		return nil, errors.New("speech.tts_cmd is configured but empty")
	}
	if len(cfg.Speech.TTS.Argv) == 0 && !cfg.Speech.ConsoleEcho {
		warnings = append(warnings, Warning{Message: "speech.tts_cmd is unset and speech.console_echo=false; prompts will not be narrated"})
	}

	if cfg.Dialogue.SilenceRepromptMS < 0 {
		return nil, errors.New("dialogue.silence_reprompt_ms must be >= 0")
	}
	if !supportedLocale(cfg.Dialogue.Locale) {
		return nil, fmt.Errorf("dialogue.locale must be one of: %s", strings.Join(supportedLocales, ", "))
	}

	p := cfg.Payment
	if p.DelayMS < 0 {
		return nil, errors.New("payment.delay_ms must be >= 0")
	}
	if p.AmountCents <= 0 {
		return nil, errors.New("payment.amount must be > 0")
	}
	if len(p.Currency) != 3 {
		return nil, errors.New("payment.currency must be a 3-letter ISO code")
	}
	if strings.Trim(p.DeclineSuffix, "0123456789") != "" {
		return nil, errors.New("payment.decline_suffix must contain only digits")
	}
	if p.DeclineSuffix != "" {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("payment.decline_suffix=%q declines matching cards", p.DeclineSuffix)})
	}

	backend := strings.ToLower(cfg.Indicator.Backend)
	if backend != "console" && backend != "desktop" {
		return nil, errors.New("indicator.backend must be one of: console, desktop")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, errors.New("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, errors.New("indicator.error_timeout_ms must be >= 0")
	}

	if cfg.Metrics.Enable {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Listen); err != nil {
			return nil, fmt.Errorf("metrics.listen must be host:port: %w", err)
		}
	}

	return warnings, nil
}

func supportedLocale(tag string) bool {
	for _, l := range supportedLocales {
		if strings.EqualFold(l, tag) {
			return true
		}
	}
	return false
}

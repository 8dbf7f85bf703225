package config

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

type jsoncConfig struct {
	Recognizer *jsoncRecognizer `json:"recognizer"`
	Speech     *jsoncSpeech     `json:"speech"`
	Dialogue   *jsoncDialogue   `json:"dialogue"`
	Validation *jsoncValidation `json:"validation"`
	Payment    *jsoncPayment    `json:"payment"`
	Indicator  *jsoncIndicator  `json:"indicator"`
	Metrics    *jsoncMetrics    `json:"metrics"`
	Debug      *jsoncDebug      `json:"debug"`
}

type jsoncRecognizer struct {
	ConfidenceThreshold *float64 `json:"confidence_threshold"`
	MaxRestarts         *int     `json:"max_restarts"`
	HealthEndpoint      *string  `json:"health_endpoint"`
	HealthTimeoutMS     *int     `json:"health_timeout_ms"`
}

type jsoncSpeech struct {
	TTSCmd      *string `json:"tts_cmd"`
	ConsoleEcho *bool   `json:"console_echo"`
}

type jsoncDialogue struct {
	SilenceRepromptMS *int    `json:"silence_reprompt_ms"`
	Locale            *string `json:"locale"`
}

type jsoncValidation struct {
	Luhn *bool `json:"luhn"`
}

type jsoncPayment struct {
	DelayMS       *int     `json:"delay_ms"`
	Amount        *float64 `json:"amount"`
	Currency      *string  `json:"currency"`
	DeclineSuffix *string  `json:"decline_suffix"`
}

type jsoncIndicator struct {
	Enable         *bool   `json:"enable"`
	Backend        *string `json:"backend"`
	DesktopAppName *string `json:"desktop_app_name"`
	SoundEnable    *bool   `json:"sound_enable"`
	SoundOutput    *string `json:"sound_output"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms"`
}

type jsoncMetrics struct {
	Enable *bool   `json:"enable"`
	Listen *string `json:"listen"`
}

type jsoncDebug struct {
	EventLog *bool `json:"event_log"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, positionError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, positionError(normalized, err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	if r := payload.Recognizer; r != nil {
		set(&cfg.Recognizer.ConfidenceThreshold, r.ConfidenceThreshold)
		set(&cfg.Recognizer.MaxRestarts, r.MaxRestarts)
		setTrimmed(&cfg.Recognizer.HealthEndpoint, r.HealthEndpoint)
		set(&cfg.Recognizer.HealthTimeoutMS, r.HealthTimeoutMS)
	}

	if s := payload.Speech; s != nil {
		if s.TTSCmd != nil {
			argv, err := splitCommand(*s.TTSCmd)
			if err != nil {
				return fmt.Errorf("invalid speech.tts_cmd: %w", err)
			}
			cfg.Speech.TTS = CommandConfig{Raw: *s.TTSCmd, Argv: argv}
		}
		set(&cfg.Speech.ConsoleEcho, s.ConsoleEcho)
	}

	if d := payload.Dialogue; d != nil {
		set(&cfg.Dialogue.SilenceRepromptMS, d.SilenceRepromptMS)
		setTrimmed(&cfg.Dialogue.Locale, d.Locale)
	}

	if v := payload.Validation; v != nil {
		set(&cfg.Validation.Luhn, v.Luhn)
	}

	if p := payload.Payment; p != nil {
		set(&cfg.Payment.DelayMS, p.DelayMS)
		if p.Amount != nil {
			cfg.Payment.AmountCents = int64(math.Round(*p.Amount * 100))
		}
		if p.Currency != nil {
			cfg.Payment.Currency = strings.ToUpper(strings.TrimSpace(*p.Currency))
		}
		setTrimmed(&cfg.Payment.DeclineSuffix, p.DeclineSuffix)
	}

	if i := payload.Indicator; i != nil {
		set(&cfg.Indicator.Enable, i.Enable)
		setTrimmed(&cfg.Indicator.Backend, i.Backend)
		setTrimmed(&cfg.Indicator.DesktopAppName, i.DesktopAppName)
		set(&cfg.Indicator.SoundEnable, i.SoundEnable)
		setTrimmed(&cfg.Indicator.SoundOutput, i.SoundOutput)
		set(&cfg.Indicator.ErrorTimeoutMS, i.ErrorTimeoutMS)
	}

	if m := payload.Metrics; m != nil {
		set(&cfg.Metrics.Enable, m.Enable)
		setTrimmed(&cfg.Metrics.Listen, m.Listen)
	}

	if d := payload.Debug; d != nil {
		set(&cfg.Debug.EventLog, d.EventLog)
	}
	return nil
}

// Package config resolves, parses, validates, and defaults trustpay configuration.
package config

// Config is the fully materialized runtime configuration used by trustpay.
type Config struct {
	Recognizer RecognizerConfig
	Speech     SpeechConfig
	Dialogue   DialogueConfig
	Validation ValidationConfig
	Payment    PaymentConfig
	Indicator  IndicatorConfig
	Metrics    MetricsConfig
	Debug      DebugConfig
}

// RecognizerConfig controls utterance filtering and recognizer supervision.
type RecognizerConfig struct {
	ConfidenceThreshold float64
	MaxRestarts         int
	// HealthEndpoint is a gRPC host:port probed by doctor. Empty skips the probe.
	HealthEndpoint  string
	HealthTimeoutMS int
}

// SpeechConfig controls narration output.
type SpeechConfig struct {
	TTS         CommandConfig
	ConsoleEcho bool
}

// DialogueConfig controls prompt timing and presentation language.
type DialogueConfig struct {
	SilenceRepromptMS int
	Locale            string
}

// ValidationConfig toggles optional field checks.
type ValidationConfig struct {
	Luhn bool
}

// PaymentConfig drives the payment simulator.
type PaymentConfig struct {
	DelayMS       int
	AmountCents   int64
	Currency      string
	DeclineSuffix string
}

// IndicatorConfig controls status surfaces and audio cue behavior.
type IndicatorConfig struct {
	Enable         bool
	Backend        string
	DesktopAppName string
	SoundEnable    bool
	SoundOutput    string
	ErrorTimeoutMS int
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enable bool
	Listen string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// DebugConfig controls optional debug output.
type DebugConfig struct {
	EventLog bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

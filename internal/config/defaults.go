package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Recognizer: RecognizerConfig{
			ConfidenceThreshold: 0.6,
			MaxRestarts:         3,
			HealthTimeoutMS:     1500,
		},
		Speech: SpeechConfig{ConsoleEcho: true},
		Dialogue: DialogueConfig{
			SilenceRepromptMS: 12000,
			Locale:            "pt-BR",
		},
		Payment: PaymentConfig{
			DelayMS:     3000,
			AmountCents: 15440,
			Currency:    "BRL",
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "console",
			DesktopAppName: "trustpay",
			SoundEnable:    true,
			SoundOutput:    "default",
			ErrorTimeoutMS: 1600,
		},
		Metrics: MetricsConfig{Listen: "127.0.0.1:9464"},
	}
}
